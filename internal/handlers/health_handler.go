package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/ethanctan/ai-oa/internal/utils"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type ReadinessCheck struct {
	Status  string `json:"status"` // "ok" | "failed"
	Message string `json:"message,omitempty"`
}

type ReadinessResponse struct {
	Status string                    `json:"status"` // "ready" | "not_ready"
	Checks map[string]ReadinessCheck `json:"checks"`
}

type HealthHandler struct {
	DB    *gorm.DB
	Redis *redis.Client
}

func (h *HealthHandler) HealthzHandler(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "ai-oa",
	})
}

// ReadyzHandler verifies the backing stores are reachable.
func (h *HealthHandler) ReadyzHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := make(map[string]ReadinessCheck)
	allChecksPass := true

	if h.DB == nil {
		checks["database"] = ReadinessCheck{Status: "failed", Message: "database not initialized"}
		allChecksPass = false
	} else if sqlDB, err := h.DB.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		checks["database"] = ReadinessCheck{Status: "failed", Message: "database unreachable"}
		allChecksPass = false
	} else {
		checks["database"] = ReadinessCheck{Status: "ok"}
	}

	if h.Redis == nil {
		checks["redis"] = ReadinessCheck{Status: "failed", Message: "redis not initialized"}
		allChecksPass = false
	} else if err := h.Redis.Ping(ctx).Err(); err != nil {
		checks["redis"] = ReadinessCheck{Status: "failed", Message: "redis unreachable"}
		allChecksPass = false
	} else {
		checks["redis"] = ReadinessCheck{Status: "ok"}
	}

	response := ReadinessResponse{Checks: checks}
	if allChecksPass {
		response.Status = "ready"
		utils.JSON(w, http.StatusOK, response)
	} else {
		response.Status = "not_ready"
		utils.JSON(w, http.StatusServiceUnavailable, response)
	}
}

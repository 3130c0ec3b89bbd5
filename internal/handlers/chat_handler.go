package handlers

import (
	"errors"
	"net/http"

	"github.com/ethanctan/ai-oa/internal/chat"
	"github.com/ethanctan/ai-oa/internal/middleware"
	"github.com/ethanctan/ai-oa/internal/models"
	"github.com/ethanctan/ai-oa/internal/repositories"
	"github.com/ethanctan/ai-oa/internal/utils"
)

type ChatHandler struct {
	Service *chat.Service
}

// SendMessageHandler relays a candidate message to the interview assistant
// and returns the reply.
func (h *ChatHandler) SendMessageHandler(w http.ResponseWriter, r *http.Request) {
	req := middleware.GetValidatedRequest[*models.ChatMessageRequest](r)

	reply, err := h.Service.SendMessage(r.Context(), req.InstanceID, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrInstanceNotFound):
			utils.JSONError(w, http.StatusNotFound, "instance_not_found", "Instance not found")
		case errors.Is(err, chat.ErrInstanceNotReady):
			utils.JSONError(w, http.StatusConflict, "instance_not_ready", "Instance has no provisioned container")
		default:
			utils.JSONError(w, http.StatusBadGateway, "assistant_failed", "Failed to generate a reply")
		}
		return
	}
	utils.JSON(w, http.StatusOK, reply)
}

// HistoryHandler returns the transcript for an instance, oldest first.
func (h *ChatHandler) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	instanceID, ok := idParam(w, r, "instanceID")
	if !ok {
		return
	}
	history, err := h.Service.History(instanceID)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "history_failed", "Failed to load chat history")
		return
	}
	utils.JSON(w, http.StatusOK, history)
}

// ClearHistoryHandler drops the transcript for an instance.
func (h *ChatHandler) ClearHistoryHandler(w http.ResponseWriter, r *http.Request) {
	instanceID, ok := idParam(w, r, "instanceID")
	if !ok {
		return
	}
	if err := h.Service.ClearHistory(instanceID); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "clear_failed", "Failed to clear chat history")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

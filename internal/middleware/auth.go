package middleware

import (
	"context"
	"net/http"

	"github.com/ethanctan/ai-oa/internal/models"
	"github.com/ethanctan/ai-oa/internal/utils"
)

const companyIDKey contextKey = "company_id"

// RequireAuth validates the bearer token and stores the tenant id in the
// request context. Every admin route sits behind this.
func RequireAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := utils.VerifyToken(r, secret)
			if err != nil {
				utils.JSON(w, http.StatusUnauthorized, models.ErrorResponse{
					Code:    "unauthorized",
					Message: err.Error(),
				})
				return
			}
			companyID, err := utils.GetCompanyIDFromClaims(claims)
			if err != nil {
				utils.JSON(w, http.StatusUnauthorized, models.ErrorResponse{
					Code:    "unauthorized",
					Message: err.Error(),
				})
				return
			}
			ctx := context.WithValue(r.Context(), companyIDKey, companyID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CompanyID returns the tenant id stored by RequireAuth, or zero when the
// route is unauthenticated.
func CompanyID(r *http.Request) uint {
	if v, ok := r.Context().Value(companyIDKey).(uint); ok {
		return v
	}
	return 0
}

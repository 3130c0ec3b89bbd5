package handlers

import (
	"net/http"
	"strconv"

	"github.com/ethanctan/ai-oa/internal/utils"

	"github.com/go-chi/chi/v5"
)

// idParam parses a numeric URL parameter, writing a 400 on failure. The
// second return value reports whether the handler should continue.
func idParam(w http.ResponseWriter, r *http.Request, name string) (uint, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		utils.JSONError(w, http.StatusBadRequest, "invalid_id", name+" must be a positive integer")
		return 0, false
	}
	return uint(id), true
}

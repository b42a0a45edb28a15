package api

import (
	"encoding/json"
	"net/http"

	"github.com/mclemoreauction/neighbor-letters/internal/pkg/logger"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("api: failed to encode response", "error", err.Error())
	}
}

// respondError writes the JSON error envelope the frontend expects.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{
		"success": false,
		"message": message,
	})
}

package handlers

import (
	"encoding/json"
	"net/http"

	"prompthub/internal/logger"

	"github.com/sirupsen/logrus"
)

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// sendJSON writes a JSON response body with the given status
func sendJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Log.WithError(err).Error("Error encoding response")
	}
}

// sendError sends a standardized JSON error response
func sendError(w http.ResponseWriter, status int, message string, err error) {
	resp := errorResponse{Error: message}
	if err != nil {
		resp.Detail = err.Error()
		logger.Log.WithFields(logrus.Fields{"status": status}).WithError(err).Debug(message)
	}
	sendJSON(w, status, resp)
}

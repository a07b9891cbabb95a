package server

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/giygas/bpmn-tools/logging"
)

// Minimum response size to consider compression (1KB)
const compressionThreshold = 1024

func respondWithJSON(w http.ResponseWriter, r *http.Request, code int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err, "payload_type", fmt.Sprintf("%T", payload))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Add("Vary", "Accept-Encoding")

	shouldCompress := len(data) >= compressionThreshold &&
		strings.Contains(strings.ToLower(r.Header.Get("Accept-Encoding")), "gzip")

	if !shouldCompress {
		w.WriteHeader(code)
		if _, err := w.Write(data); err != nil {
			logging.Debug("Failed to write response", "error", err)
		}
		return
	}

	w.Header().Set("Content-Encoding", "gzip")
	w.WriteHeader(code)

	gz := gzip.NewWriter(w)
	defer func() {
		if err := gz.Close(); err != nil {
			logging.Debug("Failed to close gzip writer", "error", err)
		}
	}()
	if _, err := gz.Write(data); err != nil {
		logging.Debug("Failed to write compressed response", "error", err)
	}
}

func respondWithError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)

	jsonResponse, err := json.Marshal(map[string]string{"error": msg})
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	_, _ = w.Write(jsonResponse)
}

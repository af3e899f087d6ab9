package main

import (
	"encoding/json"
	"io"
	"net/http"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// readBody reads the raw request body, capped at 1MB.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return io.ReadAll(r.Body)
}

func writeJSONError(w http.ResponseWriter, status int, message string) error {
	type envelope struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}

	return writeJSON(w, status, &envelope{
		Status:  "error",
		Message: message,
	})
}

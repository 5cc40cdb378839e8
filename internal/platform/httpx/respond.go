// Package httpx provides HTTP response utilities for the JSON API.
package httpx

import (
	"encoding/json"
	"net/http"
)

// Envelope wraps every API payload. Clients read errors from data.message.
type Envelope struct {
	Data any `json:"data"`
}

// MessageBody carries a human readable message inside the envelope.
type MessageBody struct {
	Message string `json:"message"`
}

// JSON sends an enveloped JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope{Data: data})
}

// Message sends an enveloped message response, used for errors and acks.
func Message(w http.ResponseWriter, status int, message string) {
	JSON(w, status, MessageBody{Message: message})
}

// DecodeJSON decodes a JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}

package handler

import (
	"encoding/json"
	"net/http"

	"github.com/forgo/herald/internal/model"
)

// CollectionResponse wraps a list response
type CollectionResponse struct {
	Data  interface{}       `json:"data"`
	Count int               `json:"count"`
	Links map[string]string `json:"_links,omitempty"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteCollection writes a list response with its item count
func WriteCollection(w http.ResponseWriter, status int, data interface{}, count int, links map[string]string) {
	WriteJSON(w, status, CollectionResponse{Data: data, Count: count, Links: links})
}

// WriteError writes an error response using RFC 9457 Problem Details
func WriteError(w http.ResponseWriter, err *model.ProblemDetails) {
	err.WriteJSON(w)
}

// DecodeJSON decodes a JSON request body into the given struct
func DecodeJSON(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// WriteNoContent writes a 204 No Content response
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

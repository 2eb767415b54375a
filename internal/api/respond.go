// internal/api/respond.go
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"tenant-chat/internal/channel"
)

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

type errorBody struct {
	Error       string   `json:"error"`
	Field       string   `json:"field,omitempty"`
	Identifiers []string `json:"identifiers,omitempty"`
	ExistingID  string   `json:"existing_id,omitempty"`
}

// respondError maps the domain error taxonomy onto HTTP statuses:
// validation 422, not-found 404, conflict 409, everything else 500.
func respondError(w http.ResponseWriter, err error) {
	var validation *channel.ValidationError
	if errors.As(err, &validation) {
		body := errorBody{Error: validation.Error(), Field: validation.Field}
		for _, id := range validation.Identifiers {
			body.Identifiers = append(body.Identifiers, id.String())
		}
		respondJSON(w, http.StatusUnprocessableEntity, body)
		return
	}

	var notFound *channel.NotFoundError
	if errors.As(err, &notFound) {
		respondJSON(w, http.StatusNotFound, errorBody{Error: notFound.Error()})
		return
	}

	var conflict *channel.ConflictError
	if errors.As(err, &conflict) {
		respondJSON(w, http.StatusConflict, errorBody{
			Error:      conflict.Error(),
			ExistingID: conflict.ExistingID.String(),
		})
		return
	}

	log.Printf("API: internal error: %v", err)
	respondJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
}

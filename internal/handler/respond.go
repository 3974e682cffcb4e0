package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/juicy-pos/api/internal/service"
)

// All responses share the {success, message?, ...payload} envelope. Payload
// keys are merged at the top level next to success.

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR: failed to encode JSON response: %v", err)
	}
}

func respondSuccess(w http.ResponseWriter, status int, payload map[string]interface{}) {
	body := map[string]interface{}{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	writeJSON(w, status, body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{"success": false, "message": message})
}

// respondServiceError translates service errors into the envelope. Validation
// and conflict errors both map to 400; anything unrecognized is logged and
// hidden behind a generic message.
func respondServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case service.IsValidation(err) || service.IsConflict(err):
		respondError(w, http.StatusBadRequest, err.Error())
	case service.IsNotFound(err):
		respondError(w, http.StatusNotFound, err.Error())
	case service.IsForbidden(err):
		respondError(w, http.StatusForbidden, err.Error())
	default:
		log.Printf("ERROR: %s: %v", op, err)
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// respondPublicError is the customer-facing variant. Unexpected causes are
// never echoed to unauthenticated callers.
func respondPublicError(w http.ResponseWriter, op string, err error) {
	switch {
	case service.IsValidation(err) || service.IsConflict(err):
		respondError(w, http.StatusBadRequest, err.Error())
	case service.IsNotFound(err):
		respondError(w, http.StatusNotFound, err.Error())
	case service.IsForbidden(err):
		respondError(w, http.StatusForbidden, err.Error())
	default:
		log.Printf("ERROR: %s: %v", op, err)
		respondError(w, http.StatusInternalServerError, "something went wrong, please try again")
	}
}

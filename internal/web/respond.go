package web

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Error codes returned in the error envelope.
const (
	codeUnauthorized    = "Unauthorized"
	codeTokenExpired    = "TokenExpired"
	codeUnsupportedMood = "UnsupportedMood"
	codeNoResults       = "NoResultsFound"
	codeRecommendation  = "RecommendationError"
	codeValidation      = "ValidationError"
	codeAccessDenied    = "AccessDenied"
	codeInternal        = "InternalError"
)

// errorResponse is the error envelope for all JSON endpoints. SupportedMoods
// is set only for UnsupportedMood, LoginURL only for auth failures.
type errorResponse struct {
	Error          string   `json:"error"`
	Message        string   `json:"message,omitempty"`
	SupportedMoods []string `json:"supportedMoods,omitempty"`
	LoginURL       string   `json:"loginUrl,omitempty"`
	RequestID      string   `json:"requestId,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("encoding response")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, resp errorResponse) {
	resp.RequestID = requestIDFrom(r.Context())
	writeJSON(w, status, resp)
}

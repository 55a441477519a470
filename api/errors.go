package api

import (
	"encoding/json"
	"net/http"

	"github.com/throttlehq/throttle/types"
)

// errorEnvelope is the {error:{type,message}} shape every failed request
// gets, regardless of which pipeline stage raised it.
type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// writeError maps err onto types.Error (defaulting to internal) and writes
// its envelope with the matching HTTP status.
func writeError(w http.ResponseWriter, err error) {
	e := types.AsError(err)
	writeJSON(w, e.Status(), errorEnvelope{Error: errorBody{Type: string(e.Code), Message: e.Message}})
}

// writeJSON marshals body as the response, setting the status and
// Content-Type together so a marshal failure can't leave a mismatched
// header behind.
func writeJSON(w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"type":"internal","message":"response encoding failed"}}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

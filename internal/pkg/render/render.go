package render

import (
	"encoding/json"
	"net/http"
)

func ChiJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func ChiErr(w http.ResponseWriter, status int, msg string) {
	ChiErrWith(w, status, msg, nil)
}

// ChiErrWith writes {"error": msg} merged with extra fields such as
// "example" or "available_stores".
func ChiErrWith(w http.ResponseWriter, status int, msg string, extra map[string]any) {
	if msg == "" {
		msg = "unknown error"
	}
	body := make(map[string]any, len(extra)+1)
	for k, v := range extra {
		body[k] = v
	}
	body["error"] = msg
	ChiJSON(w, status, body)
}

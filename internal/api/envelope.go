package api

import (
	"encoding/json"
	"net/http"
)

// envelope wraps every response body.
type envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func success(data any) envelope {
	return envelope{Code: http.StatusOK, Message: "success", Data: data}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

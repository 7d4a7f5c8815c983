package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "sigclause/pkg/domain-errors"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// writeError maps domain error codes to HTTP statuses. Unclassified errors
// surface as 500 with a generic message so internals never leak.
func writeError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	msg := "internal server error"
	var de *dErrors.Error
	if errors.As(err, &de) && code != dErrors.CodeInternal {
		msg = de.Message
	}
	writeJSON(w, dErrors.HTTPStatus(err), errorBody{Error: msg, Code: string(code)})
}

package server

import (
	"encoding/json"
	"net/http"

	errs "github.com/matzehuels/trackplan/pkg/errors"
)

type errorBody struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

type messageBody struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError answers with the status for err's code. Errors without a code
// are internal.
func writeError(w http.ResponseWriter, err error) {
	code := errs.GetCode(err)
	if code == "" {
		code = errs.ErrCodeInternal
	}
	writeJSON(w, errs.HTTPStatus(code), errorBody{Code: string(code), Error: errs.UserMessage(err)})
}

// decodeJSON reads a JSON body into v, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errs.Wrap(errs.ErrCodeInvalidRequest, err, "invalid request body: %v", err)
	}
	return nil
}

const maxBodyBytes = 1 << 20

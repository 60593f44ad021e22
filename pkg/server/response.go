package server

import (
	"encoding/json"
	"net/http"

	ierr "github.com/invoice-studio/pkg/errors"
	"github.com/invoice-studio/pkg/render"
)

// ErrorResponse is the body of every failed API call. View is set when the
// failure was a rejected edit, so clients can redraw without a second call.
type ErrorResponse struct {
	Error  string       `json:"error"`
	Code   string       `json:"code"`
	Notice string       `json:"notice,omitempty"`
	View   *render.View `json:"view,omitempty"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

func WriteSuccess(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusOK, data)
}

// WriteError maps err to its status code and writes an ErrorResponse.
func WriteError(w http.ResponseWriter, err error, view *render.View) {
	_ = WriteJSON(w, ierr.HTTPStatusFromErr(err), ErrorResponse{
		Error:  err.Error(),
		Code:   ierr.Code(err),
		Notice: ierr.Notice(err),
		View:   view,
	})
}

func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation)
	}
	return nil
}

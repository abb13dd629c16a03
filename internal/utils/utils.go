package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/filmchain/track-shorts/internal/apperror"
)

type Envelope map[string]interface{}

const maxBodyBytes = 1 << 20

func WriteJSON(w http.ResponseWriter, status int, data Envelope) {
	js, err := json.MarshalIndent(data, "", " ")
	if err != nil {
		fmt.Printf("error marshaling JSON: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	js = append(js, '\n')
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if _, err := w.Write(js); err != nil {
		fmt.Printf("error writing JSON response: %v", err)
	}
}

// ReadJSON decodes a single JSON object from the request body into dst.
func ReadJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperror.Validation("request body must not be empty")
		}
		return apperror.Validation(fmt.Sprintf("invalid request body: %v", err))
	}

	if dec.More() {
		return apperror.Validation("request body must contain a single JSON object")
	}
	return nil
}

// ErrorStatus maps an error kind to its HTTP status. FetchFailed and unknown
// errors are 500.
func ErrorStatus(err error) int {
	switch {
	case errors.Is(err, apperror.ErrInvalidURL),
		errors.Is(err, apperror.ErrValidationFailed),
		errors.Is(err, apperror.ErrEmptyTag):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrVideoNotFound),
		errors.Is(err, apperror.ErrTagNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrDuplicate),
		errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes {"error": kind, "message": text}. Errors that are not an
// *apperror.AppError are reported as a bare internal error.
func WriteError(w http.ResponseWriter, status int, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		WriteJSON(w, status, Envelope{"error": "internal_error", "message": "Internal Server Error"})
		return
	}

	WriteJSON(w, status, Envelope{"error": appErr.Kind.Error(), "message": appErr.Message})
}

package handler

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/sakif/volunteer-connect/internal/apperror"
)

// multipartOverhead is allowed on top of the file limit for boundaries,
// headers and the other form fields.
const multipartOverhead = 1 << 20

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// parseMultipart bounds the body at maxBytes plus overhead and parses it.
func parseMultipart(w http.ResponseWriter, r *http.Request, maxBytes int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		if errors.As(err, new(*http.MaxBytesError)) {
			return err
		}
		return apperror.ValidationFailed("body", "request must be multipart/form-data")
	}
	return nil
}

// formFile returns the upload in field. The caller closes it. ok is false
// when the field is absent.
func formFile(r *http.Request, field string) (multipart.File, bool, error) {
	f, _, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, apperror.ValidationFailed(field, "could not read the uploaded "+field)
	}
	return f, true, nil
}

// requireFile parses the form and returns the mandatory upload in field.
func requireFile(w http.ResponseWriter, r *http.Request, field string, maxBytes int64) (multipart.File, error) {
	if err := parseMultipart(w, r, maxBytes); err != nil {
		return nil, err
	}
	f, ok, err := formFile(r, field)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.ValidationFailed(field, field+" file is required")
	}
	return f, nil
}

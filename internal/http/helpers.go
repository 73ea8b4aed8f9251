package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"moneta/internal/core"
	"moneta/internal/storage"
)

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps domain and storage failures onto HTTP statuses:
// unknown ids are 404, rejected input is 422, everything else is a 500
// with the detail kept out of the response body.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case isValidationError(err):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func isValidationError(err error) bool {
	for _, sentinel := range []error{
		core.ErrNegativeAmount,
		core.ErrMissingChargedAccount,
		core.ErrMissingTargetAccount,
		core.ErrInvalidEndDate,
		core.ErrInvalidPaymentType,
		core.ErrInvalidRecurrence,
		core.ErrNoteRequired,
		core.ErrSameAccountTransfer,
		core.ErrEmptyName,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

// pathID extracts the {id} path segment as an int64.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", r.PathValue("id"))
	}
	return id, nil
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// parseDate accepts YYYY-MM-DD; the ledger works in dates, not
// instants.
func parseDate(s string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return d, nil
}

func parseOptionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	d, err := parseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

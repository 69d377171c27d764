package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"famledger/internal/core"
	"famledger/internal/identity"
	"famledger/internal/repo"
)

const dateLayout = "2006-01-02"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps domain errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, repo.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, identity.ErrNotReady):
		status = http.StatusServiceUnavailable
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidDateRange),
		errors.Is(err, core.ErrEmptyDescription),
		errors.Is(err, core.ErrInvalidInstallmentCount),
		errors.Is(err, core.ErrPaidOutOfRange),
		errors.Is(err, core.ErrUnknownTransactionType):
		status = http.StatusBadRequest
	case errors.Is(err, core.ErrTerminalStatus):
		status = http.StatusConflict
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func parseDate(s string) (core.Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return core.Date{}, err
	}
	return core.DateOf(t), nil
}

// filterFromQuery builds a FilterSpec from the shared query parameters
// member, from, to, type and q.
func filterFromQuery(values url.Values) (core.FilterSpec, error) {
	spec := core.FilterSpec{
		MemberID:   values.Get("member"),
		SearchText: values.Get("q"),
		Type:       core.TypeAll,
	}

	if t := values.Get("type"); t != "" {
		typ := core.TransactionType(t)
		if typ != core.TypeAll && typ != core.Income && typ != core.Expense {
			return core.FilterSpec{}, core.ErrUnknownTransactionType
		}
		spec.Type = typ
	}

	from := values.Get("from")
	to := values.Get("to")
	if from != "" {
		start, err := parseDate(from)
		if err != nil {
			return core.FilterSpec{}, core.ErrInvalidDateRange
		}
		r := &core.DateRange{Start: start}
		if to != "" {
			end, err := parseDate(to)
			if err != nil {
				return core.FilterSpec{}, core.ErrInvalidDateRange
			}
			r.End = &end
		}
		spec.Range = r
	} else if to != "" {
		return core.FilterSpec{}, core.ErrInvalidDateRange
	}

	return spec, nil
}

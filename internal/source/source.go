// Package source reads raw resident rows from the places residents are kept:
// the local PII workbook, the SharePoint "Credit Boost - Tenants" list and the
// JSON test fixture.
package source

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrSourceUnavailable wraps every transport, auth or file failure.
var ErrSourceUnavailable = errors.New("resident source unavailable")

// Row is one raw record. Keys and value types depend on the source.
type Row map[string]any

// Status of a fetch.
type Status int

const (
	StatusOK Status = iota
	StatusEmpty
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusEmpty:
		return "empty"
	default:
		return "error"
	}
}

// Result is what a Source returns instead of panicking or swallowing errors.
// Fields is the translation table the pipeline uses to read Rows.
type Result struct {
	Source string
	Status Status
	Rows   []Row
	Fields FieldTable
	Err    error
}

// OK builds a result from rows; no rows means StatusEmpty.
func OK(name string, fields FieldTable, rows []Row) Result {
	status := StatusOK
	if len(rows) == 0 {
		status = StatusEmpty
	}
	return Result{Source: name, Status: status, Rows: rows, Fields: fields}
}

// Empty is a successful fetch that found nothing (for example a missing file).
func Empty(name string, fields FieldTable) Result {
	return Result{Source: name, Status: StatusEmpty, Fields: fields}
}

// Failed wraps err with ErrSourceUnavailable.
func Failed(name string, fields FieldTable, err error) Result {
	if !errors.Is(err, ErrSourceUnavailable) {
		err = fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, name, err)
	}
	return Result{Source: name, Status: StatusError, Fields: fields, Err: err}
}

// Source yields raw resident rows.
type Source interface {
	Name() string
	Fetch(ctx context.Context) Result
}

// FirstAvailable tries sources in order and returns the first result with
// rows. When none has rows the last result is returned, so callers still see
// the final error. Every attempt is returned for reporting. With no sources
// the result is empty.
func FirstAvailable(ctx context.Context, logger *zap.Logger, sources ...Source) (Result, []Result) {
	attempts := make([]Result, 0, len(sources))
	last := Result{Status: StatusEmpty}
	for _, src := range sources {
		res := src.Fetch(ctx)
		attempts = append(attempts, res)
		last = res
		if res.Status == StatusOK {
			logger.Info("resident source loaded",
				zap.String("source", res.Source),
				zap.Int("rows", len(res.Rows)),
			)
			return res, attempts
		}
		fields := []zap.Field{zap.String("source", res.Source), zap.Stringer("status", res.Status)}
		if res.Err != nil {
			fields = append(fields, zap.Error(res.Err))
		}
		logger.Warn("resident source returned no rows, trying next", fields...)
	}
	return last, attempts
}

package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/PeakMade/Credit-Boost-Portal/internal/domain"
	"github.com/PeakMade/Credit-Boost-Portal/internal/pipeline"
	"github.com/PeakMade/Credit-Boost-Portal/internal/repository"
	"github.com/PeakMade/Credit-Boost-Portal/internal/source"
)

// LoadReport describes one resident load.
type LoadReport struct {
	Source   string                `json:"source"`
	Status   string                `json:"status"`
	Count    int                   `json:"count"`
	Warnings []pipeline.RowWarning `json:"-"`
	Attempts []SourceAttempt       `json:"attempts"`
}

type SourceAttempt struct {
	Source string `json:"source"`
	Status string `json:"status"`
	Rows   int    `json:"rows"`
	Error  string `json:"error,omitempty"`
}

// ResidentLoader fills the repository from the first source that has rows.
type ResidentLoader struct {
	sources    []source.Source
	normalizer *pipeline.Normalizer
	repo       repository.ResidentsRepository
	logger     *zap.Logger
}

func NewResidentLoader(repo repository.ResidentsRepository, normalizer *pipeline.Normalizer, logger *zap.Logger, sources ...source.Source) *ResidentLoader {
	return &ResidentLoader{
		sources:    sources,
		normalizer: normalizer,
		repo:       repo,
		logger:     logger,
	}
}

// Load replaces the stored residents. When every source is empty or failed
// the store is emptied and the report carries the last status.
func (l *ResidentLoader) Load(ctx context.Context) (*LoadReport, error) {
	res, attempts := source.FirstAvailable(ctx, l.logger, l.sources...)
	residents, warnings := l.normalizer.Normalize(res.Rows, res.Fields)
	if err := l.repo.Replace(ctx, residents); err != nil {
		return nil, fmt.Errorf("store residents: %w", err)
	}

	report := &LoadReport{
		Source:   res.Source,
		Status:   res.Status.String(),
		Count:    len(residents),
		Warnings: warnings,
		Attempts: summarizeAttempts(attempts),
	}
	l.logger.Info("Residents loaded",
		zap.String("source", report.Source),
		zap.String("status", report.Status),
		zap.Int("count", report.Count),
		zap.Int("warnings", len(warnings)),
	)
	return report, nil
}

// Preview normalizes one source without touching the repository, for the
// admin "data source" switch.
func (l *ResidentLoader) Preview(ctx context.Context, src source.Source) ([]*domain.Resident, error) {
	res := src.Fetch(ctx)
	if res.Status != source.StatusOK {
		if res.Err != nil {
			return nil, res.Err
		}
		return nil, fmt.Errorf("%w: %s returned no rows", source.ErrSourceUnavailable, src.Name())
	}
	residents, _ := l.normalizer.Normalize(res.Rows, res.Fields)
	for _, r := range residents {
		r.LastReported = pipeline.LastReportedMonth(r.Payments)
	}
	return residents, nil
}

func summarizeAttempts(results []source.Result) []SourceAttempt {
	out := make([]SourceAttempt, 0, len(results))
	for _, r := range results {
		a := SourceAttempt{Source: r.Source, Status: r.Status.String(), Rows: len(r.Rows)}
		if r.Err != nil {
			a.Error = r.Err.Error()
		}
		out = append(out, a)
	}
	return out
}

package service

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/PeakMade/Credit-Boost-Portal/internal/domain"
	"github.com/PeakMade/Credit-Boost-Portal/internal/repository"
)

const disputeCount = 15

var (
	disputeTypes    = []string{"Data Mismatch", "Payment Error", "Identity Dispute", "Incorrect Amount", "Late Payment Dispute"}
	disputeStatuses = []string{domain.DisputeOpen, domain.DisputeOpen, domain.DisputeOpen, domain.DisputeInProgress, domain.DisputeInProgress}
	disputeTopics   = []string{"rent amount", "payment date", "account information", "reporting accuracy"}
	priorityOrder   = map[string]int{domain.PriorityHigh: 0, domain.PriorityMedium: 1, domain.PriorityLow: 2}
)

// ReportingService serves the bureau-facing admin views. Runs and disputes
// are synthetic; the audit trail records real actions in memory.
type ReportingService interface {
	Runs(ctx context.Context) *RunsSummary
	Disputes(ctx context.Context) (*DisputesSummary, error)
	AuditLogs(ctx context.Context) []domain.AuditLog
	Record(ctx context.Context, user, action, details string) domain.AuditLog
}

type RunsSummary struct {
	Runs           []domain.ReportingRun `json:"runs"`
	SuccessfulRuns int                   `json:"successful_runs"`
	FailedRuns     int                   `json:"failed_runs"`
	TotalAccounts  int                   `json:"total_accounts"`
}

type DisputesSummary struct {
	Disputes   []domain.Dispute `json:"disputes"`
	Open       int              `json:"open_disputes"`
	InProgress int              `json:"in_progress_disputes"`
	Resolved   int              `json:"resolved_disputes"`
}

type reportingService struct {
	repo   repository.ResidentsRepository
	logger *zap.Logger
	now    func() time.Time
	rng    func() *rand.Rand

	mu    sync.Mutex
	audit []domain.AuditLog
}

func NewReportingService(repo repository.ResidentsRepository, logger *zap.Logger) ReportingService {
	s := &reportingService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
	s.rng = func() *rand.Rand { return rand.New(rand.NewSource(s.now().UnixNano())) }
	s.audit = []domain.AuditLog{
		{ID: 1, Timestamp: "2026-01-10 10:00:00", User: "admin", Action: "Viewed resident PII", Details: "Jane Doe"},
		{ID: 2, Timestamp: "2026-01-11 14:30:00", User: "admin", Action: "Exported report", Details: "Monthly Metro2"},
		{ID: 3, Timestamp: "2026-01-12 09:15:00", User: "admin", Action: "Resolved dispute", Details: "D-001"},
	}
	return s
}

func strPtr(s string) *string { return &s }

func (s *reportingService) Runs(_ context.Context) *RunsSummary {
	runs := []domain.ReportingRun{
		{ID: "RUN-2026-001", Date: "2026-01-20 14:30:00", Type: "Monthly Full", Period: "January 2026", Accounts: 3, Status: domain.RunCompleted, File: strPtr("metro2_jan2026.dat"), Records: 147, SuccessRate: "99.3%", Notes: "Successfully processed"},
		{ID: "RUN-2025-012", Date: "2025-12-20 15:15:00", Type: "Monthly Full", Period: "December 2025", Accounts: 3, Status: domain.RunCompleted, File: strPtr("metro2_dec2025.dat"), Records: 142, SuccessRate: "99.3%", Notes: "Year-end reporting"},
		{ID: "RUN-2025-011", Date: "2025-11-22 10:45:00", Type: "Correction", Period: "November 2025", Accounts: 1, Status: domain.RunCompleted, File: strPtr("metro2_nov2025_corr.dat"), Records: 23, SuccessRate: "100%", Notes: "Supplemental corrections"},
		{ID: "RUN-2025-010", Date: "2025-11-20 14:00:00", Type: "Monthly Full", Period: "November 2025", Accounts: 3, Status: domain.RunFailed, Notes: "Bureau rejected file"},
		{ID: "RUN-2025-009", Date: "2025-10-20 13:30:00", Type: "Monthly Full", Period: "October 2025", Accounts: 2, Status: domain.RunCompleted, File: strPtr("metro2_oct2025.dat"), Records: 145, SuccessRate: "98.6%", Notes: "2 payment disputes pending"},
	}
	sum := &RunsSummary{Runs: runs}
	for _, r := range runs {
		switch r.Status {
		case domain.RunCompleted:
			sum.SuccessfulRuns++
			sum.TotalAccounts += r.Accounts
		case domain.RunFailed:
			sum.FailedRuns++
		}
	}
	return sum
}

// disputePriority maps days until due to a priority.
func disputePriority(daysUntilDue int) string {
	switch {
	case daysUntilDue >= 20:
		return domain.PriorityLow
	case daysUntilDue >= 10:
		return domain.PriorityMedium
	default:
		return domain.PriorityHigh
	}
}

// Disputes invents open cases against random residents, sorted by priority
// then due date. No residents means no disputes.
func (s *reportingService) Disputes(ctx context.Context) (*DisputesSummary, error) {
	residents, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	sum := &DisputesSummary{Disputes: []domain.Dispute{}}
	if len(residents) == 0 {
		return sum, nil
	}

	now := s.now()
	rng := s.rng()
	for i := 0; i < disputeCount; i++ {
		r := residents[rng.Intn(len(residents))]
		daysAgo := 5 + rng.Intn(56)
		daysUntilDue := 1 + rng.Intn(30)
		d := domain.Dispute{
			ID:           fmt.Sprintf("DSP-%d", 1000+rng.Intn(9000)),
			DateFiled:    now.AddDate(0, 0, -daysAgo).Format("2006-01-02"),
			DueDate:      now.AddDate(0, 0, daysUntilDue).Format("2006-01-02"),
			DaysUntilDue: daysUntilDue,
			Resident:     fmt.Sprintf("%s - Unit %s", r.Name, r.Unit),
			ResidentID:   r.ID,
			Priority:     disputePriority(daysUntilDue),
			Status:       disputeStatuses[rng.Intn(len(disputeStatuses))],
			Type:         disputeTypes[rng.Intn(len(disputeTypes))],
			Details:      "Dispute regarding " + disputeTopics[rng.Intn(len(disputeTopics))],
		}
		sum.Disputes = append(sum.Disputes, d)
	}

	sort.SliceStable(sum.Disputes, func(i, j int) bool {
		a, b := sum.Disputes[i], sum.Disputes[j]
		if priorityOrder[a.Priority] != priorityOrder[b.Priority] {
			return priorityOrder[a.Priority] < priorityOrder[b.Priority]
		}
		return a.DueDate < b.DueDate
	})
	for _, d := range sum.Disputes {
		switch d.Status {
		case domain.DisputeOpen:
			sum.Open++
		case domain.DisputeInProgress:
			sum.InProgress++
		case domain.DisputeResolved:
			sum.Resolved++
		}
	}
	return sum, nil
}

func (s *reportingService) AuditLogs(_ context.Context) []domain.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.AuditLog(nil), s.audit...)
}

// Record appends to the audit trail.
func (s *reportingService) Record(_ context.Context, user, action, details string) domain.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := domain.AuditLog{
		ID:        len(s.audit) + 1,
		Timestamp: s.now().Format(eventLayout),
		User:      user,
		Action:    action,
		Details:   details,
	}
	s.audit = append(s.audit, entry)
	s.logger.Info("Audit",
		zap.String("user", user),
		zap.String("action", action),
		zap.String("details", details),
	)
	return entry
}

package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/PeakMade/Credit-Boost-Portal/internal/domain"
	"github.com/PeakMade/Credit-Boost-Portal/internal/pipeline"
	"github.com/PeakMade/Credit-Boost-Portal/internal/repository"
)

const (
	cycleLayout   = "Jan 2006"
	runDateLayout = "Jan 02, 2006"
	eventLayout   = "2006-01-02 15:04:05"
)

// ResidentService covers the resident self-service flows and the admin
// per-resident actions.
type ResidentService interface {
	Get(ctx context.Context, id int) (*domain.Resident, error)
	List(ctx context.Context, search string) ([]*domain.Resident, error)
	Dashboard(ctx context.Context, id int) (*ResidentDashboard, error)
	EnrolledPayments(ctx context.Context, id int) ([]domain.Payment, error)
	Enroll(ctx context.Context, id int, req EnrollRequest) (*domain.Resident, error)
	OptOut(ctx context.Context, id int) (*domain.Resident, error)
	UpdateProfile(ctx context.Context, id int, req ProfileUpdate) (*domain.Resident, error)
	UpdatePaymentStatus(ctx context.Context, id int, month, status string) (*domain.Resident, error)
	DataMismatch(ctx context.Context, id int) (*DataMismatch, error)
}

// EnrollRequest is what the resident types to prove identity.
type EnrollRequest struct {
	Name     string `json:"name"`
	DOB      string `json:"dob"`
	Address  string `json:"address"`
	Last4SSN string `json:"last4_ssn"`
}

// ProfileUpdate fields left nil are unchanged.
type ProfileUpdate struct {
	Name     *string `json:"name"`
	DOB      *string `json:"dob"`
	Address  *string `json:"address"`
	Last4SSN *string `json:"last4_ssn"`
}

type ResidentDashboard struct {
	Resident     *domain.Resident `json:"resident"`
	CurrentCycle string           `json:"current_cycle"`
	NextRunDate  string           `json:"next_run_date"`
}

// DataMismatch compares what the bureau holds with what we hold. The bureau
// side is simulated.
type DataMismatch struct {
	ResidentID int    `json:"resident_id"`
	SSNBureau  string `json:"ssn_bureau"`
	SSNSystem  string `json:"ssn_system"`
	NameBureau string `json:"name_bureau"`
	NameSystem string `json:"name_system"`
	DOBBureau  string `json:"dob_bureau"`
	DOBSystem  string `json:"dob_system"`
}

type residentService struct {
	repo   repository.ResidentsRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewResidentService(repo repository.ResidentsRepository, logger *zap.Logger) ResidentService {
	return &residentService{repo: repo, logger: logger, now: time.Now}
}

// ReportingCycle is the month being reported, e.g. "Mar 2026".
func ReportingCycle(now time.Time) string {
	return now.Format(cycleLayout)
}

// NextRunDate is the last day of the current month, e.g. "Mar 31, 2026".
func NextRunDate(now time.Time) string {
	firstOfNext := time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, now.Location())
	return firstOfNext.AddDate(0, 0, -1).Format(runDateLayout)
}

func (s *residentService) Get(ctx context.Context, id int) (*domain.Resident, error) {
	return s.repo.Get(ctx, id)
}

// List searches residents and fills in the last reported month.
func (s *residentService) List(ctx context.Context, search string) ([]*domain.Resident, error) {
	list, err := s.repo.Search(ctx, search)
	if err != nil {
		return nil, err
	}
	for _, r := range list {
		r.LastReported = pipeline.LastReportedMonth(r.Payments)
	}
	return list, nil
}

func (s *residentService) Dashboard(ctx context.Context, id int) (*ResidentDashboard, error) {
	r, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	return &ResidentDashboard{
		Resident:     r,
		CurrentCycle: ReportingCycle(now),
		NextRunDate:  NextRunDate(now),
	}, nil
}

func (s *residentService) EnrolledPayments(ctx context.Context, id int) ([]domain.Payment, error) {
	r, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return pipeline.EnrolledPayments(r.Payments, r.EnrollmentHistory), nil
}

// Enroll checks name, address (both case-insensitive), date of birth and
// SSN last four against the record before enrolling.
func (s *residentService) Enroll(ctx context.Context, id int, req EnrollRequest) (*domain.Resident, error) {
	name := strings.TrimSpace(req.Name)
	dob := strings.TrimSpace(req.DOB)
	address := strings.TrimSpace(req.Address)
	last4 := strings.TrimSpace(req.Last4SSN)

	r, err := s.repo.Update(ctx, id, func(r *domain.Resident) error {
		if !strings.EqualFold(name, r.Name) ||
			dob != r.DOB ||
			!strings.EqualFold(address, r.Address) ||
			last4 != r.Last4SSN {
			return ErrIdentityMismatch
		}
		r.Enrolled = true
		r.EnrollmentStatus = domain.EnrollmentEnrolled
		r.TradelineCreated = true
		r.EnrollmentHistory = append(r.EnrollmentHistory, domain.EnrollmentEvent{
			Action:    domain.ActionEnrolled,
			Timestamp: s.now().Format(eventLayout),
		})
		return nil
	})
	if err != nil {
		s.logger.Warn("Enrollment rejected", zap.Int("resident_id", id), zap.Error(err))
		return nil, err
	}
	s.logger.Info("Resident enrolled", zap.Int("resident_id", id))
	return r, nil
}

func (s *residentService) OptOut(ctx context.Context, id int) (*domain.Resident, error) {
	r, err := s.repo.Update(ctx, id, func(r *domain.Resident) error {
		r.Enrolled = false
		r.EnrollmentStatus = domain.EnrollmentNotEnrolled
		r.EnrollmentHistory = append(r.EnrollmentHistory, domain.EnrollmentEvent{
			Action:    domain.ActionRevokedConsent,
			Timestamp: s.now().Format(eventLayout),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Resident opted out", zap.Int("resident_id", id))
	return r, nil
}

func (s *residentService) UpdateProfile(ctx context.Context, id int, req ProfileUpdate) (*domain.Resident, error) {
	return s.repo.Update(ctx, id, func(r *domain.Resident) error {
		if req.Name != nil {
			r.Name = strings.TrimSpace(*req.Name)
			if parts := strings.Fields(r.Name); len(parts) > 0 {
				r.FirstName = parts[0]
				r.LastName = parts[len(parts)-1]
			}
		}
		if req.DOB != nil {
			r.DOB = strings.TrimSpace(*req.DOB)
		}
		if req.Address != nil {
			r.Address = strings.TrimSpace(*req.Address)
		}
		if req.Last4SSN != nil {
			r.Last4SSN = strings.TrimSpace(*req.Last4SSN)
		}
		return nil
	})
}

// UpdatePaymentStatus sets the status of the payment for month
// ("January 2026").
func (s *residentService) UpdatePaymentStatus(ctx context.Context, id int, month, status string) (*domain.Resident, error) {
	month = strings.TrimSpace(month)
	status = strings.TrimSpace(status)
	if month == "" || status == "" {
		return nil, fmt.Errorf("%w: month and status are required", ErrInvalidArgument)
	}
	r, err := s.repo.Update(ctx, id, func(r *domain.Resident) error {
		for i := range r.Payments {
			if r.Payments[i].Month == month {
				r.Payments[i].Status = status
				return nil
			}
		}
		return ErrPaymentNotFound
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Payment status changed",
		zap.Int("resident_id", id),
		zap.String("month", month),
		zap.String("status", status),
	)
	return r, nil
}

func (s *residentService) DataMismatch(ctx context.Context, id int) (*DataMismatch, error) {
	r, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &DataMismatch{
		ResidentID: r.ID,
		SSNBureau:  "****1111",
		SSNSystem:  "****" + r.Last4SSN,
		NameBureau: strings.ToUpper(r.Name),
		NameSystem: r.Name,
		DOBBureau:  r.DOB,
		DOBSystem:  r.DOB,
	}, nil
}

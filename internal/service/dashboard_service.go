package service

import (
	"context"

	"github.com/PeakMade/Credit-Boost-Portal/internal/domain"
	"github.com/PeakMade/Credit-Boost-Portal/internal/repository"
)

// DashboardStats is the admin landing summary.
type DashboardStats struct {
	TotalResidents      int     `json:"total_residents"`
	EnrolledCount       int     `json:"enrolled_count"`
	NotEnrolledCount    int     `json:"not_enrolled_count"`
	CurrentAccounts     int     `json:"current_accounts"`
	DelinquentAccounts  int     `json:"delinquent_accounts"`
	TotalPastDue        float64 `json:"total_past_due"`
	TotalMonthlyRevenue float64 `json:"total_monthly_revenue"`
	TotalPayments       int     `json:"total_payments"`
	ReportedPayments    int     `json:"reported_payments"`
}

type DashboardService interface {
	Stats(ctx context.Context) (*DashboardStats, error)
}

type dashboardService struct {
	repo repository.ResidentsRepository
}

func NewDashboardService(repo repository.ResidentsRepository) DashboardService {
	return &dashboardService{repo: repo}
}

func (s *dashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return computeStats(list), nil
}

func computeStats(list []*domain.Resident) *DashboardStats {
	st := &DashboardStats{TotalResidents: len(list)}
	for _, r := range list {
		if r.Enrolled {
			st.EnrolledCount++
		} else {
			st.NotEnrolledCount++
		}
		if r.AccountStatus == domain.AccountCurrent {
			st.CurrentAccounts++
		}
		if r.IsDelinquent() {
			st.DelinquentAccounts++
		}
		st.TotalPastDue += r.AmountPastDue
		st.TotalMonthlyRevenue += r.ScheduledMonthlyPayment
		st.TotalPayments += len(r.Payments)
		for _, p := range r.Payments {
			if p.Reported {
				st.ReportedPayments++
			}
		}
	}
	return st
}

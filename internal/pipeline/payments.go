package pipeline

import (
	"math/rand"
	"time"

	"github.com/PeakMade/Credit-Boost-Portal/internal/domain"
)

// Demo constants for synthetic payment history. They are not reporting rules.
const (
	PaymentHistoryMonths = 6
	paymentSpacingDays   = 30
	lateProbability      = 0.10
	minDaysLate          = 5
	maxDaysLate          = 25
	unreportedDaysLate   = 30
)

const monthLayout = "January 2006"

// GeneratePayments synthesizes the trailing six months of rent payments,
// newest first. The current month (offset 0) is never late.
func GeneratePayments(rent float64, now time.Time, rng *rand.Rand) []domain.Payment {
	payments := make([]domain.Payment, 0, PaymentHistoryMonths)
	for i := 0; i < PaymentHistoryMonths; i++ {
		due := now.AddDate(0, 0, -paymentSpacingDays*i)

		late := rng.Float64() < lateProbability && i > 0
		daysLate := 0
		if late {
			daysLate = minDaysLate + rng.Intn(maxDaysLate-minDaysLate+1)
		}
		status := domain.PaymentPaid
		if late && daysLate > 0 {
			status = domain.PaymentLate
		}
		reported := !late || daysLate < unreportedDaysLate

		p := domain.Payment{
			Month:       due.Format(monthLayout),
			Amount:      rent,
			DatePaid:    due.AddDate(0, 0, daysLate).Format(dateLayout),
			Status:      status,
			DaysLate:    daysLate,
			Reported:    reported,
			PaymentDate: due.Format(dateLayout),
		}
		if reported {
			d := due.Format(dateLayout)
			p.ReportDate = &d
		}
		payments = append(payments, p)
	}
	return payments
}

// LastReportedMonth is the month label of the newest reported payment, or
// "N/A".
func LastReportedMonth(payments []domain.Payment) string {
	for _, p := range payments {
		if p.Reported {
			return p.Month
		}
	}
	return "N/A"
}

// EnrolledPayments keeps the payments dated on or after the first "enrolled"
// event. No payments, no history or no enrolled event yields nothing; an
// unreadable enrollment timestamp yields every payment.
func EnrolledPayments(payments []domain.Payment, history []domain.EnrollmentEvent) []domain.Payment {
	if len(payments) == 0 || len(history) == 0 {
		return []domain.Payment{}
	}

	var enrolledAt string
	for _, ev := range history {
		if ev.Action == domain.ActionEnrolled {
			enrolledAt = ev.Timestamp
			break
		}
	}
	if enrolledAt == "" {
		return []domain.Payment{}
	}

	cutoff, err := time.Parse(dateTimeLayout, enrolledAt)
	if err != nil {
		cutoff, err = time.Parse(dateLayout, enrolledAt)
		if err != nil {
			return payments
		}
	}

	out := make([]domain.Payment, 0, len(payments))
	for _, p := range payments {
		raw := p.PaymentDate
		if raw == "" {
			raw = p.DatePaid
		}
		d, err := time.Parse(dateLayout, raw)
		if err != nil {
			continue
		}
		if !d.Before(cutoff) {
			out = append(out, p)
		}
	}
	return out
}

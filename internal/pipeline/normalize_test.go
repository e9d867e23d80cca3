package pipeline

import (
	"encoding/json"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PeakMade/Credit-Boost-Portal/internal/domain"
	"github.com/PeakMade/Credit-Boost-Portal/internal/source"
	"github.com/PeakMade/Credit-Boost-Portal/internal/ssn"
)

var loadTime = time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return loadTime }

func newProtector(t *testing.T) *ssn.Protector {
	t.Helper()
	key, err := ssn.GenerateKey()
	require.NoError(t, err)
	p, err := ssn.New(key)
	require.NoError(t, err)
	return p
}

func TestNormalize_JaneDoe(t *testing.T) {
	p := newProtector(t)
	enc, err := p.Encrypt("123-45-6789")
	require.NoError(t, err)

	rows := []source.Row{{
		"Name":         "Jane Doe",
		"Email":        "jane@test.com",
		"SSN":          enc,
		"Monthly Rent": 1500,
	}}
	residents, warnings := New(p, WithClock(fixedClock), WithSeed(1)).Normalize(rows, source.SpreadsheetFields)
	require.Len(t, residents, 1)
	assert.Empty(t, warnings)

	r := residents[0]
	assert.Equal(t, 1, r.ID)
	assert.Equal(t, "ACC2024000001", r.AccountNumber)
	assert.Equal(t, "Jane Doe", r.Name)
	assert.Equal(t, "Jane", r.FirstName)
	assert.Equal(t, "Doe", r.LastName)
	assert.Equal(t, "jane@test.com", r.Email)
	assert.Equal(t, "6789", r.Last4SSN)
	assert.Equal(t, "***-**-6789", r.SSN)
	assert.Equal(t, enc, r.EncryptedSSN)
	assert.Equal(t, 1500.0, r.MonthlyRent)
	assert.Equal(t, "48 West", r.Property)
	assert.Equal(t, 650, r.CreditScore)
	assert.True(t, r.Enrolled)
	assert.Equal(t, domain.EnrollmentEnrolled, r.EnrollmentStatus)
	assert.True(t, r.TradelineCreated)
	assert.Equal(t, domain.AccountCurrent, r.AccountStatus)
	assert.Zero(t, r.AmountPastDue)
	assert.Zero(t, r.CurrentBalance)
	assert.Equal(t, "2026-03-15", r.DateOpened)
	assert.Equal(t, "2026-03-15", r.DateLastPayment)
	assert.Equal(t, 1500.0, r.ScheduledMonthlyPayment)
	assert.Len(t, r.Payments, 6)
	require.Len(t, r.EnrollmentHistory, 1)
	assert.Equal(t, domain.ActionEnrolled, r.EnrollmentHistory[0].Action)
	assert.Equal(t, "2026-03-15 10:30:00", r.EnrollmentHistory[0].Timestamp)
	assert.NotNil(t, r.Disputes)
	assert.Empty(t, r.Disputes)
	assert.Equal(t, "March 2026", r.LastReported)
}

func TestNormalize_SameSeedSameOutput(t *testing.T) {
	rows := []source.Row{
		{"Name": "Jane Doe", "SSN": "123-45-6789", "Monthly Rent": "1500"},
		{"Name": "John Q Smith", "SSN": "987-65-4321", "Monthly Rent": 1725.5, "Lease Start": "45809"},
	}
	p := newProtector(t)
	n := New(p, WithClock(fixedClock), WithSeed(42))

	first, _ := n.Normalize(rows, source.SpreadsheetFields)
	second, _ := n.Normalize(rows, source.SpreadsheetFields)
	assert.Equal(t, first, second)

	other, _ := New(p, WithClock(fixedClock), WithSeed(42)).Normalize(rows, source.SpreadsheetFields)
	assert.Equal(t, first, other)
}

func TestNormalize_LengthInvariant(t *testing.T) {
	rows := []source.Row{
		{},
		nil,
		{"Name": math.NaN(), "Monthly Rent": "lots", "Credit Score": []int{1}},
		{"SSN": "gAAAAAnot-a-real-token-at-all", "DOB": "sometime"},
		{"Name": "Solo"},
	}
	residents, warnings := New(newProtector(t), WithClock(fixedClock), WithSeed(7)).Normalize(rows, source.SpreadsheetFields)
	require.Len(t, residents, len(rows))
	for i, r := range residents {
		assert.Equal(t, i+1, r.ID)
		assert.Len(t, r.Payments, PaymentHistoryMonths)
	}
	assert.NotEmpty(t, warnings)

	assert.Equal(t, ssn.Redacted, residents[0].SSN)
	assert.Equal(t, ssn.RedactedLast4, residents[0].Last4SSN)
	assert.Equal(t, 1500.0, residents[2].MonthlyRent)
	assert.Equal(t, 650, residents[2].CreditScore)
	assert.Equal(t, ssn.Redacted, residents[3].SSN)
	assert.Equal(t, "sometime", residents[3].DOB)
	assert.Equal(t, "Solo", residents[4].FirstName)
	assert.Equal(t, "Solo", residents[4].LastName)

	var rentWarned bool
	for _, w := range warnings {
		if w.Row == 3 && w.Field == source.FieldMonthlyRent {
			rentWarned = true
		}
	}
	assert.True(t, rentWarned)
}

func TestNormalize_NonFiniteAndOutOfRangeNumbers(t *testing.T) {
	rows := []source.Row{
		{"Name": "Jane Doe", "Monthly Rent": "inf", "Credit Score": "1e30"},
		{"Name": "John Smith", "Monthly Rent": math.Inf(1), "Credit Score": 9000},
		{"Name": "Ann Lee", "Monthly Rent": "1e400", "Credit Score": "712"},
	}
	residents, warnings := New(newProtector(t), WithClock(fixedClock), WithSeed(3)).Normalize(rows, source.SpreadsheetFields)
	require.Len(t, residents, 3)

	for _, r := range residents {
		assert.Equal(t, 1500.0, r.MonthlyRent, r.Name)
		for _, pay := range r.Payments {
			assert.Equal(t, 1500.0, pay.Amount)
		}
	}
	assert.Equal(t, 650, residents[0].CreditScore)
	assert.Equal(t, 650, residents[1].CreditScore)
	assert.Equal(t, 712, residents[2].CreditScore)

	warned := map[int]map[source.Field]bool{}
	for _, w := range warnings {
		if warned[w.Row] == nil {
			warned[w.Row] = map[source.Field]bool{}
		}
		warned[w.Row][w.Field] = true
	}
	for row := 1; row <= 3; row++ {
		assert.True(t, warned[row][source.FieldMonthlyRent], "row %d rent", row)
	}
	assert.True(t, warned[1][source.FieldCreditScore])
	assert.True(t, warned[2][source.FieldCreditScore])
	assert.False(t, warned[3][source.FieldCreditScore])

	_, err := json.Marshal(residents)
	assert.NoError(t, err)
}

func TestNormalize_EmptyInput(t *testing.T) {
	residents, warnings := New(nil).Normalize(nil, source.SpreadsheetFields)
	assert.Empty(t, residents)
	assert.Empty(t, warnings)
}

func TestNormalize_UnconfiguredKeyRedactsTokens(t *testing.T) {
	enc, err := newProtector(t).Encrypt("123-45-6789")
	require.NoError(t, err)

	rows := []source.Row{{"Name": "Jane Doe", "SSN": enc}, {"Name": "Plain Text", "SSN": "111-22-3333"}}
	residents, _ := New(nil, WithClock(fixedClock)).Normalize(rows, source.SpreadsheetFields)
	assert.Equal(t, ssn.Redacted, residents[0].SSN)
	assert.Equal(t, "***-**-3333", residents[1].SSN)
	assert.Equal(t, "3333", residents[1].Last4SSN)
}

func TestNormalize_GraphListRows(t *testing.T) {
	rows := []source.Row{
		{
			"First_x0020_Name":           "Maria",
			"Last_x0020_Name":            "Lopez",
			"SSN_x0020_Last_x0020_4":     "4321",
			"Address_x0020_Line_x0020_1": "12 Main St",
			"Address_x0020_Line_x0020_2": "Apt 4",
			"City":                       "Austin",
			"State_x0020_Code":           "TX",
			"Zip_x0020_Code":             "78701",
			"Date_x0020_of_x0020_Birth":  "1990-05-01T07:00:00Z",
			"Resident_x0020_ID":          "R-1001",
		},
		{
			"FirstName":   "Sam",
			"SSNLast4":    12.0,
			"City":        "Denver",
			"DateOfBirth": "1985-11-30T00:00:00-07:00",
		},
		{},
	}
	residents, warnings := New(nil, WithClock(fixedClock), WithSeed(3)).Normalize(rows, source.GraphListFields)
	require.Len(t, residents, 3)

	maria := residents[0]
	assert.Equal(t, "Maria Lopez", maria.Name)
	assert.Equal(t, "maria.lopez@example.com", maria.Email)
	assert.Equal(t, "***-**-4321", maria.SSN)
	assert.Equal(t, "4321", maria.Last4SSN)
	assert.Equal(t, "ENC00014321", maria.EncryptedSSN)
	assert.Equal(t, "12 Main St, Apt 4, Austin, TX 78701", maria.Address)
	assert.Equal(t, "1990-05-01", maria.DOB)
	assert.Equal(t, "R-1001", maria.AccountNumber)
	assert.Equal(t, "Unit TBD", maria.Unit)
	assert.Equal(t, "Property TBD", maria.Property)
	assert.Equal(t, 1200.0, maria.MonthlyRent)
	assert.Equal(t, 650, maria.CreditScore)

	sam := residents[1]
	assert.Equal(t, "Sam", sam.Name)
	assert.Empty(t, sam.Email)
	assert.Equal(t, "0012", sam.Last4SSN)
	assert.Equal(t, "***-**-0012", sam.SSN)
	assert.Equal(t, "Denver,", sam.Address)
	assert.Equal(t, "1985-11-30", sam.DOB)
	assert.Equal(t, "ACC2024000002", sam.AccountNumber)

	blank := residents[2]
	assert.Equal(t, "Resident 3", blank.Name)
	assert.Equal(t, ssn.Redacted, blank.SSN)
	assert.Equal(t, "ENC0003", blank.EncryptedSSN)

	var missing bool
	for _, w := range warnings {
		if w.Row == 3 && w.Field == source.FieldSSNLast4 {
			missing = true
		}
	}
	assert.True(t, missing)
}

func TestNormalize_CanonicalRowsKeepSavedState(t *testing.T) {
	rows := []source.Row{{
		"name":              "Jane Doe",
		"email":             "jane@test.com",
		"encrypted_ssn":     "123-45-6789",
		"monthly_rent":      1500.0,
		"account_number":    "ACC2024000099",
		"enrolled":          false,
		"enrollment_status": "not enrolled",
		"payments": []any{
			map[string]any{"month": "January 2026", "amount": 1500.0, "date_paid": "2026-01-03", "status": "Paid", "reported": true},
		},
		"enrollment_history": []any{
			map[string]any{"action": "enrolled", "timestamp": "2025-12-01 09:00:00"},
			map[string]any{"action": "revoked consent", "timestamp": "2026-02-01 09:00:00"},
		},
	}}
	residents, warnings := New(nil, WithClock(fixedClock)).Normalize(rows, source.CanonicalFields)
	require.Len(t, residents, 1)
	assert.Empty(t, warnings)

	r := residents[0]
	assert.Equal(t, "ACC2024000099", r.AccountNumber)
	assert.False(t, r.Enrolled)
	assert.Equal(t, domain.EnrollmentNotEnrolled, r.EnrollmentStatus)
	require.Len(t, r.Payments, 1)
	assert.Equal(t, "January 2026", r.Payments[0].Month)
	assert.Len(t, r.EnrollmentHistory, 2)
	assert.Equal(t, "January 2026", r.LastReported)
	assert.Equal(t, "***-**-6789", r.SSN)
}

func TestGeneratePayments(t *testing.T) {
	for seed := int64(0); seed < 500; seed++ {
		payments := GeneratePayments(1200, loadTime, rand.New(rand.NewSource(seed)))
		require.Len(t, payments, PaymentHistoryMonths)

		assert.Equal(t, domain.PaymentPaid, payments[0].Status, "seed %d", seed)
		assert.Zero(t, payments[0].DaysLate, "seed %d", seed)

		for i, p := range payments {
			due := loadTime.AddDate(0, 0, -30*i).Format(dateLayout)
			assert.Equal(t, due, p.PaymentDate)
			assert.Equal(t, loadTime.AddDate(0, 0, -30*i).Format("January 2006"), p.Month)
			assert.Equal(t, 1200.0, p.Amount)
			if p.Status == domain.PaymentLate {
				assert.GreaterOrEqual(t, p.DaysLate, 5)
				assert.LessOrEqual(t, p.DaysLate, 25)
				assert.Equal(t, loadTime.AddDate(0, 0, -30*i+p.DaysLate).Format(dateLayout), p.DatePaid)
			} else {
				assert.Zero(t, p.DaysLate)
				assert.Equal(t, due, p.DatePaid)
			}
			// delays stay under the 30 day cutoff, so everything is reported
			assert.True(t, p.Reported)
			require.NotNil(t, p.ReportDate)
			assert.Equal(t, due, *p.ReportDate)
		}
	}
}

func TestGeneratePayments_ProducesSomeLatePayments(t *testing.T) {
	late := 0
	for seed := int64(0); seed < 200; seed++ {
		for _, p := range GeneratePayments(1000, loadTime, rand.New(rand.NewSource(seed))) {
			if p.Status == domain.PaymentLate {
				late++
			}
		}
	}
	assert.Greater(t, late, 0)
}

func TestLastReportedMonth(t *testing.T) {
	assert.Equal(t, "N/A", LastReportedMonth(nil))
	assert.Equal(t, "February 2026", LastReportedMonth([]domain.Payment{
		{Month: "March 2026", Reported: false},
		{Month: "February 2026", Reported: true},
	}))
}

func TestEnrolledPayments(t *testing.T) {
	payments := []domain.Payment{
		{Month: "January 2026", PaymentDate: "2026-01-15"},
		{Month: "December 2025", PaymentDate: "2025-12-15"},
		{Month: "November 2025", DatePaid: "2026-01-01"},
		{Month: "broken", PaymentDate: "15/01/2026"},
	}
	history := []domain.EnrollmentEvent{
		{Action: domain.ActionRevokedConsent, Timestamp: "2025-06-01"},
		{Action: domain.ActionEnrolled, Timestamp: "2026-01-01"},
	}

	got := EnrolledPayments(payments, history)
	require.Len(t, got, 2)
	assert.Equal(t, "January 2026", got[0].Month)
	assert.Equal(t, "November 2025", got[1].Month)

	withTime := []domain.EnrollmentEvent{{Action: domain.ActionEnrolled, Timestamp: "2026-01-01 00:00:00"}}
	assert.Len(t, EnrolledPayments(payments, withTime), 2)

	assert.Empty(t, EnrolledPayments(nil, history))
	assert.Empty(t, EnrolledPayments(payments, nil))
	assert.Empty(t, EnrolledPayments(payments, []domain.EnrollmentEvent{{Action: domain.ActionRevokedConsent, Timestamp: "2026-01-01"}}))

	unreadable := []domain.EnrollmentEvent{{Action: domain.ActionEnrolled, Timestamp: "first of January"}}
	assert.Equal(t, payments, EnrolledPayments(payments, unreadable))
}

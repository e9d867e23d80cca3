// Package pipeline turns raw resident rows from any source into canonical
// domain.Resident records.
package pipeline

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/PeakMade/Credit-Boost-Portal/internal/domain"
	"github.com/PeakMade/Credit-Boost-Portal/internal/source"
	"github.com/PeakMade/Credit-Boost-Portal/internal/ssn"
)

// Credit scores outside the FICO range are treated as unreadable.
const (
	MinCreditScore = 300
	MaxCreditScore = 850
)

// Clock returns the load time.
type Clock func() time.Time

// RowWarning is a problem found in one row. The row is still normalized
// with defaults.
type RowWarning struct {
	Row     int // 1-based, equal to the resident id
	Field   source.Field
	Message string
}

func (w RowWarning) String() string {
	if w.Field == "" {
		return fmt.Sprintf("row %d: %s", w.Row, w.Message)
	}
	return fmt.Sprintf("row %d: %s: %s", w.Row, w.Field, w.Message)
}

// Normalizer maps raw rows to residents.
type Normalizer struct {
	protector *ssn.Protector
	now       Clock
	seed      int64
	seeded    bool
	logger    *zap.Logger
}

type Option func(*Normalizer)

// WithClock fixes the load time.
func WithClock(c Clock) Option {
	return func(n *Normalizer) { n.now = c }
}

// WithSeed makes payment synthesis repeatable. Without it every Normalize
// call draws a fresh seed from the clock.
func WithSeed(seed int64) Option {
	return func(n *Normalizer) {
		n.seed = seed
		n.seeded = true
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(n *Normalizer) { n.logger = l }
}

func New(p *ssn.Protector, opts ...Option) *Normalizer {
	n := &Normalizer{
		protector: p,
		now:       time.Now,
		logger:    zap.NewNop(),
	}
	for _, o := range opts {
		o(n)
	}
	return n
}

// Normalize maps every row to a resident, in order. The result always has
// len(rows) entries and ids 1..len(rows).
func (n *Normalizer) Normalize(rows []source.Row, fields source.FieldTable) ([]*domain.Resident, []RowWarning) {
	now := n.now()
	seed := n.seed
	if !n.seeded {
		seed = now.UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	residents := make([]*domain.Resident, 0, len(rows))
	var warnings []RowWarning
	for i, row := range rows {
		rn := rowNormalizer{
			id:        i + 1,
			row:       row,
			fields:    fields,
			protector: n.protector,
			now:       now,
			rng:       rng,
		}
		residents = append(residents, rn.resident())
		warnings = append(warnings, rn.warnings...)
	}

	for _, w := range warnings {
		n.logger.Warn("resident row normalized with defaults",
			zap.Int("row", w.Row),
			zap.String("field", string(w.Field)),
			zap.String("reason", w.Message),
		)
	}
	return residents, warnings
}

// rowNormalizer holds the state for one row.
type rowNormalizer struct {
	id        int
	row       source.Row
	fields    source.FieldTable
	protector *ssn.Protector
	now       time.Time
	rng       *rand.Rand
	warnings  []RowWarning
}

func (rn *rowNormalizer) warn(f source.Field, format string, args ...any) {
	rn.warnings = append(rn.warnings, RowWarning{Row: rn.id, Field: f, Message: fmt.Sprintf(format, args...)})
}

func (rn *rowNormalizer) str(f source.Field) string {
	v, _ := rn.fields.Get(rn.row, f)
	return toString(v)
}

func (rn *rowNormalizer) date(f source.Field) string {
	v, _ := rn.fields.Get(rn.row, f)
	return parseDate(v)
}

func (rn *rowNormalizer) number(f source.Field, fallback float64) float64 {
	v, found := rn.fields.Get(rn.row, f)
	if v == nil {
		return fallback
	}
	x, err := toFloat(v)
	if err != nil {
		if def, ok := rn.fields[f]; ok && def.Default != nil {
			if d, derr := toFloat(def.Default); derr == nil {
				fallback = d
			}
		}
		if found {
			rn.warn(f, "unreadable number %q, using %v", toString(v), fallback)
		}
		return fallback
	}
	return x
}

// creditScore falls back to the table default for unreadable or out of
// range scores.
func (rn *rowNormalizer) creditScore() int {
	f := source.FieldCreditScore
	fallback := 0
	if def, ok := rn.fields[f]; ok && def.Default != nil {
		if d, err := toInt(def.Default); err == nil {
			fallback = d
		}
	}
	v, found := rn.fields.Get(rn.row, f)
	if v == nil {
		return fallback
	}
	n, err := toInt(v)
	if err != nil || n < MinCreditScore || n > MaxCreditScore {
		if found {
			rn.warn(f, "credit score %q outside %d-%d, using %d", toString(v), MinCreditScore, MaxCreditScore, fallback)
		}
		return fallback
	}
	return n
}

func (rn *rowNormalizer) resident() *domain.Resident {
	r := &domain.Resident{ID: rn.id}
	today := rn.now.Format(dateLayout)

	rn.identity(r)
	rn.protectSSN(r)

	r.AccountNumber = rn.str(source.FieldResidentID)
	if r.AccountNumber == "" {
		r.AccountNumber = fmt.Sprintf("ACC2024%06d", rn.id)
	}
	r.Phone = rn.str(source.FieldPhone)
	r.Unit = rn.str(source.FieldUnit)
	r.UnitNumber = r.Unit
	r.Property = rn.str(source.FieldProperty)
	r.PropertyName = r.Property
	r.DOB = rn.date(source.FieldDOB)
	r.MoveInDate = rn.date(source.FieldMoveIn)
	r.LeaseStartDate = rn.date(source.FieldLeaseStart)
	r.LeaseEndDate = rn.date(source.FieldLeaseEnd)
	r.MonthlyRent = rn.number(source.FieldMonthlyRent, 0)
	r.CreditScore = rn.creditScore()
	rn.address(r)

	r.Enrolled = true
	r.EnrollmentStatus = domain.EnrollmentEnrolled
	r.TradelineCreated = true
	r.RentReportingStatus = "active"
	r.AccountStatus = domain.AccountCurrent
	r.DateOpened = r.LeaseStartDate
	if r.DateOpened == "" {
		r.DateOpened = today
	}
	r.PaymentSchedule = "Monthly"
	r.ScheduledMonthlyPayment = r.MonthlyRent
	r.HighestCreditAmount = r.MonthlyRent
	r.DateLastPayment = today

	r.Payments = GeneratePayments(r.MonthlyRent, rn.now, rn.rng)
	r.EnrollmentHistory = []domain.EnrollmentEvent{
		{Action: domain.ActionEnrolled, Timestamp: rn.now.Format(dateTimeLayout)},
	}
	r.Disputes = []domain.Dispute{}

	rn.carryState(r)
	r.LastReported = LastReportedMonth(r.Payments)
	return r
}

func (rn *rowNormalizer) identity(r *domain.Resident) {
	if rn.fields.Has(source.FieldName) {
		r.Name = rn.str(source.FieldName)
		if parts := strings.Fields(r.Name); len(parts) > 0 {
			r.FirstName = parts[0]
			r.LastName = parts[len(parts)-1]
		}
	} else {
		r.FirstName = rn.str(source.FieldFirstName)
		r.LastName = rn.str(source.FieldLastName)
		r.Name = strings.TrimSpace(r.FirstName + " " + r.LastName)
		if r.Name == "" {
			r.Name = fmt.Sprintf("Resident %d", rn.id)
		}
	}

	if rn.fields.Has(source.FieldEmail) {
		r.Email = rn.str(source.FieldEmail)
	} else if r.FirstName != "" && r.LastName != "" {
		r.Email = strings.ToLower(r.FirstName) + "." + strings.ToLower(r.LastName) + "@example.com"
	}

	if r.FirstName == "" && r.Email == "" {
		rn.warn(source.FieldName, "no name or email")
	}
}

func (rn *rowNormalizer) protectSSN(r *domain.Resident) {
	switch {
	case rn.fields.Has(source.FieldSSN):
		raw := rn.str(source.FieldSSN)
		r.EncryptedSSN = raw
		r.SSN = rn.protector.Mask(raw)
		r.Last4SSN = rn.protector.Last4(raw)
		switch {
		case raw == "":
			rn.warn(source.FieldSSN, "missing")
		case r.SSN == ssn.Redacted:
			rn.warn(source.FieldSSN, "unreadable, redacted")
		}
	case rn.fields.Has(source.FieldSSNLast4):
		v, _ := rn.fields.Get(rn.row, source.FieldSSNLast4)
		frag := ssnFragment(v)
		r.SSN = ssn.MaskLast4(frag)
		r.Last4SSN = frag
		// Placeholder only: the list never holds the full number.
		r.EncryptedSSN = fmt.Sprintf("ENC%04d%s", rn.id, frag)
		if frag == "" {
			rn.warn(source.FieldSSNLast4, "missing")
		}
	default:
		r.SSN = ssn.Redacted
		r.Last4SSN = ssn.RedactedLast4
	}
}

func (rn *rowNormalizer) address(r *domain.Resident) {
	if rn.fields.Has(source.FieldAddress) {
		r.Address = rn.str(source.FieldAddress)
		return
	}
	r.City = rn.str(source.FieldCity)
	r.State = rn.str(source.FieldState)
	r.Zip = rn.str(source.FieldZip)

	var lines []string
	for _, f := range []source.Field{source.FieldAddressLine1, source.FieldAddressLine2} {
		if s := rn.str(f); s != "" {
			lines = append(lines, s)
		}
	}
	full := strings.Join(lines, ", ")
	if r.City != "" || r.State != "" || r.Zip != "" {
		csz := strings.TrimSpace(fmt.Sprintf("%s, %s %s", r.City, r.State, r.Zip))
		if full != "" {
			full += ", " + csz
		} else {
			full = csz
		}
	}
	r.Address = full
}

// canonicalState is the mutable part of a record that was saved in canonical
// form (the JSON fixture or a snapshot).
type canonicalState struct {
	Enrolled          *bool                    `json:"enrolled"`
	EnrollmentStatus  string                   `json:"enrollment_status"`
	AccountStatus     string                   `json:"account_status"`
	AmountPastDue     *float64                 `json:"amount_past_due"`
	CurrentBalance    *float64                 `json:"current_balance"`
	DaysLate          *int                     `json:"days_late"`
	Payments          []domain.Payment         `json:"payments"`
	EnrollmentHistory []domain.EnrollmentEvent `json:"enrollment_history"`
	Disputes          []domain.Dispute         `json:"disputes"`
}

// carryState keeps saved state from canonical rows instead of the synthetic
// defaults. Rows from the workbook or the list carry none of these keys.
func (rn *rowNormalizer) carryState(r *domain.Resident) {
	if _, ok := rn.row["payments"]; !ok {
		if _, ok := rn.row["enrollment_history"]; !ok {
			if _, ok := rn.row["enrolled"]; !ok {
				return
			}
		}
	}
	b, err := json.Marshal(rn.row)
	if err != nil {
		return
	}
	var st canonicalState
	if err := json.Unmarshal(b, &st); err != nil {
		rn.warn("", "saved state unreadable: %v", err)
		return
	}
	if st.Enrolled != nil {
		r.Enrolled = *st.Enrolled
	}
	if st.EnrollmentStatus != "" {
		r.EnrollmentStatus = st.EnrollmentStatus
	}
	if st.AccountStatus != "" {
		r.AccountStatus = st.AccountStatus
	}
	if st.AmountPastDue != nil {
		r.AmountPastDue = *st.AmountPastDue
	}
	if st.CurrentBalance != nil {
		r.CurrentBalance = *st.CurrentBalance
	}
	if st.DaysLate != nil {
		r.DaysLate = *st.DaysLate
	}
	if st.Payments != nil {
		r.Payments = st.Payments
	}
	if st.EnrollmentHistory != nil {
		r.EnrollmentHistory = st.EnrollmentHistory
	}
	if st.Disputes != nil {
		r.Disputes = st.Disputes
	}
}

package domain

import "strings"

// Enrollment status values.
const (
	EnrollmentEnrolled    = "enrolled"
	EnrollmentNotEnrolled = "not enrolled"
)

// Enrollment history actions.
const (
	ActionEnrolled       = "enrolled"
	ActionRevokedConsent = "revoked consent"
)

// Account status values.
const (
	AccountCurrent    = "Current"
	AccountDelinquent = "Delinquent"
)

// Resident is the canonical resident record produced by the normalization
// pipeline. Dates are kept as YYYY-MM-DD strings; "" means unknown.
type Resident struct {
	ID            int    `json:"id"`
	AccountNumber string `json:"account_number"`

	Name      string `json:"name"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	DOB       string `json:"dob"`
	Address   string `json:"address"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
	Zip       string `json:"zip,omitempty"`

	// SSN is always the masked form (***-**-DDDD).
	SSN          string `json:"ssn"`
	Last4SSN     string `json:"last4_ssn"`
	EncryptedSSN string `json:"encrypted_ssn"`

	Unit         string `json:"unit"`
	UnitNumber   string `json:"unit_number"`
	Property     string `json:"property"`
	PropertyName string `json:"property_name,omitempty"`
	MoveInDate   string `json:"move_in_date,omitempty"`

	LeaseStartDate string  `json:"lease_start_date"`
	LeaseEndDate   string  `json:"lease_end_date"`
	MonthlyRent    float64 `json:"monthly_rent"`
	CreditScore    int     `json:"credit_score"`

	Enrolled            bool   `json:"enrolled"`
	EnrollmentStatus    string `json:"enrollment_status"`
	TradelineCreated    bool   `json:"tradeline_created"`
	RentReportingStatus string `json:"rent_reporting_status"`

	AccountStatus           string  `json:"account_status"`
	DateOpened              string  `json:"date_opened"`
	PaymentSchedule         string  `json:"payment_schedule"`
	ScheduledMonthlyPayment float64 `json:"scheduled_monthly_payment"`
	DateLastPayment         string  `json:"date_last_payment"`
	DateFirstDelinquency    *string `json:"date_first_delinquency"`
	DaysLate                int     `json:"days_late"`
	HighestCreditAmount     float64 `json:"highest_credit_amount"`
	AmountPastDue           float64 `json:"amount_past_due"`
	CurrentBalance          float64 `json:"current_balance"`
	LastReported            string  `json:"last_reported"`

	Payments          []Payment         `json:"payments"`
	EnrollmentHistory []EnrollmentEvent `json:"enrollment_history"`
	Disputes          []Dispute         `json:"disputes"`
}

// IsDelinquent reports whether the account status is any delinquent variant.
func (r *Resident) IsDelinquent() bool {
	return strings.Contains(r.AccountStatus, AccountDelinquent)
}

// EnrollmentDate returns the timestamp of the first "enrolled" event.
func (r *Resident) EnrollmentDate() (string, bool) {
	for _, ev := range r.EnrollmentHistory {
		if ev.Action == ActionEnrolled {
			return ev.Timestamp, true
		}
	}
	return "", false
}

// Clone returns a deep copy, used for read views handed to callers that
// annotate records without touching the store.
func (r *Resident) Clone() *Resident {
	c := *r
	c.Payments = append([]Payment(nil), r.Payments...)
	c.EnrollmentHistory = append([]EnrollmentEvent(nil), r.EnrollmentHistory...)
	c.Disputes = append([]Dispute(nil), r.Disputes...)
	if r.DateFirstDelinquency != nil {
		v := *r.DateFirstDelinquency
		c.DateFirstDelinquency = &v
	}
	return &c
}

// EnrollmentEvent is one entry in a resident's consent history.
type EnrollmentEvent struct {
	Action    string `json:"action"`
	Timestamp string `json:"timestamp"` // 2006-01-02 15:04:05
}

package domain

// Payment status values.
const (
	PaymentPaid = "Paid"
	PaymentLate = "Late"
)

// Payment is one month of rent history.
type Payment struct {
	Month      string  `json:"month"` // "January 2026"
	Amount     float64 `json:"amount"`
	DatePaid   string  `json:"date_paid"`
	Status     string  `json:"status"`
	DaysLate   int     `json:"days_late"`
	Reported   bool    `json:"reported"`
	ReportDate *string `json:"report_date"`
	// PaymentDate is the nominal due date the payment belongs to.
	PaymentDate string `json:"payment_date,omitempty"`
}

package domain

// Dispute priorities.
const (
	PriorityHigh   = "High"
	PriorityMedium = "Medium"
	PriorityLow    = "Low"
)

// Dispute statuses.
const (
	DisputeOpen       = "Open"
	DisputeInProgress = "In Progress"
	DisputeResolved   = "Resolved"
)

// Dispute raised by a resident against reported data.
type Dispute struct {
	ID           string `json:"id"`
	DateFiled    string `json:"date_filed"`
	DueDate      string `json:"due_date,omitempty"`
	DaysUntilDue int    `json:"days_until_due,omitempty"`
	Resident     string `json:"resident"`
	ResidentID   int    `json:"resident_id,omitempty"`
	Type         string `json:"type"`
	Priority     string `json:"priority"`
	Status       string `json:"status"`
	Details      string `json:"details"`
}

// Reporting run statuses.
const (
	RunCompleted = "Completed"
	RunFailed    = "Failed"
)

// ReportingRun is one Metro2 submission to the bureaus.
type ReportingRun struct {
	ID          string  `json:"id"`
	Date        string  `json:"date"`
	Type        string  `json:"type"`
	Period      string  `json:"period,omitempty"`
	Accounts    int     `json:"accounts"`
	Status      string  `json:"status"`
	File        *string `json:"file"`
	Records     int     `json:"records,omitempty"`
	SuccessRate string  `json:"success_rate,omitempty"`
	Notes       string  `json:"notes,omitempty"`
}

// AuditLog records an administrative action.
type AuditLog struct {
	ID        int    `json:"id"`
	Timestamp string `json:"timestamp"`
	User      string `json:"user"`
	Action    string `json:"action"`
	Details   string `json:"details"`
}

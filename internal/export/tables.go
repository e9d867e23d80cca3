package export

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/PeakMade/Credit-Boost-Portal/internal/domain"
)

var (
	ResidentHeaders     = []string{"Account Number", "Name", "Email", "Unit", "Enrollment Status", "Monthly Rent", "Lease Start"}
	ReportingRunHeaders = []string{"Run ID", "Date", "Type", "Period", "Status", "Accounts", "Records", "Success Rate", "File", "Notes"}
	DisputeHeaders      = []string{"ID", "Date Submitted", "Due Date", "Resident", "Issue", "Status", "Priority", "Details"}
	AuditLogHeaders     = []string{"ID", "Timestamp", "User", "Action", "Details"}
)

// Currency formats v as $1,234.56.
func Currency(v float64) string {
	return message.NewPrinter(language.English).Sprintf("$%.2f", v)
}

// EnrollmentLabel renders an enrollment status for display ("Not Enrolled").
func EnrollmentLabel(status string) string {
	status = strings.TrimSpace(strings.ReplaceAll(status, "_", " "))
	if status == "" {
		return "Not Enrolled"
	}
	return cases.Title(language.English).String(status)
}

func Residents(list []*domain.Resident, now time.Time) ([]byte, error) {
	rows := make([][]any, 0, len(list))
	for _, r := range list {
		lease := r.LeaseStartDate
		if lease == "" {
			lease = "N/A"
		}
		rows = append(rows, []any{
			r.AccountNumber, r.Name, r.Email, r.Unit,
			EnrollmentLabel(r.EnrollmentStatus), Currency(r.MonthlyRent), lease,
		})
	}
	return Render(Table{
		Title:   "Resident Rent Reporting List",
		Sheet:   "Residents",
		Headers: ResidentHeaders,
		Rows:    rows,
	}, now)
}

func ReportingRuns(runs []domain.ReportingRun, now time.Time) ([]byte, error) {
	rows := make([][]any, 0, len(runs))
	for _, r := range runs {
		file := ""
		if r.File != nil {
			file = *r.File
		}
		rows = append(rows, []any{
			r.ID, r.Date, r.Type, r.Period, r.Status, r.Accounts, r.Records, r.SuccessRate, file, r.Notes,
		})
	}
	return Render(Table{
		Title:   "Metro2 Reporting Runs",
		Sheet:   "Reporting Runs",
		Headers: ReportingRunHeaders,
		Rows:    rows,
	}, now)
}

func Disputes(disputes []domain.Dispute, now time.Time) ([]byte, error) {
	rows := make([][]any, 0, len(disputes))
	for _, d := range disputes {
		rows = append(rows, []any{
			d.ID, d.DateFiled, d.DueDate, d.Resident, d.Type, d.Status, d.Priority, d.Details,
		})
	}
	return Render(Table{
		Title:   "Rent Reporting Disputes",
		Sheet:   "Disputes",
		Headers: DisputeHeaders,
		Rows:    rows,
	}, now)
}

func AuditLogs(logs []domain.AuditLog, now time.Time) ([]byte, error) {
	rows := make([][]any, 0, len(logs))
	for _, l := range logs {
		rows = append(rows, []any{l.ID, l.Timestamp, l.User, l.Action, l.Details})
	}
	return Render(Table{
		Title:   "System Audit Logs",
		Sheet:   "Audit Logs",
		Headers: AuditLogHeaders,
		Rows:    rows,
	}, now)
}

package service

import (
	"context"
	"errors"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/PeakMade/Credit-Boost-Portal/internal/config"
	"github.com/PeakMade/Credit-Boost-Portal/internal/domain"
	"github.com/PeakMade/Credit-Boost-Portal/internal/pipeline"
	"github.com/PeakMade/Credit-Boost-Portal/internal/repository"
	"github.com/PeakMade/Credit-Boost-Portal/internal/source"
	"github.com/PeakMade/Credit-Boost-Portal/internal/store"
)

var testNow = time.Date(2026, 2, 10, 9, 15, 0, 0, time.UTC)

func testResidents() []*domain.Resident {
	return []*domain.Resident{
		{
			ID: 1, Name: "Jane Doe", Email: "jane@test.com", DOB: "1990-05-01",
			Address: "12 Main St, Austin, TX 78701", Last4SSN: "6789", Unit: "101",
			Enrolled: true, EnrollmentStatus: domain.EnrollmentEnrolled, AccountStatus: domain.AccountCurrent,
			ScheduledMonthlyPayment: 1500,
			Payments: []domain.Payment{
				{Month: "February 2026", Status: domain.PaymentPaid, Reported: true, PaymentDate: "2026-02-10"},
				{Month: "January 2026", Status: domain.PaymentPaid, Reported: true, PaymentDate: "2026-01-11"},
				{Month: "December 2025", Status: domain.PaymentLate, Reported: false, PaymentDate: "2025-12-12"},
			},
			EnrollmentHistory: []domain.EnrollmentEvent{{Action: domain.ActionEnrolled, Timestamp: "2026-01-01 08:00:00"}},
		},
		{
			ID: 2, Name: "John Smith", Email: "john@test.com", Unit: "B-7",
			AccountStatus: "Delinquent 30", AmountPastDue: 250.5, ScheduledMonthlyPayment: 1200,
			EnrollmentStatus: domain.EnrollmentNotEnrolled,
		},
	}
}

func newRepo(t *testing.T) *repository.MemoryResidentsRepo {
	t.Helper()
	repo := repository.NewMemoryResidentsRepo()
	require.NoError(t, repo.Replace(context.Background(), testResidents()))
	return repo
}

func newAuth(t *testing.T, admin config.AdminConfig) AuthService {
	t.Helper()
	svc, err := NewAuthService(admin, newRepo(t), store.NewMemoryKV(), zap.NewNop())
	require.NoError(t, err)
	return svc
}

func TestAuthService_AdminLogin(t *testing.T) {
	ctx := context.Background()
	svc := newAuth(t, config.AdminConfig{Email: "admin@peakmade.com", Password: "s3cret"})

	sess, err := svc.Login(ctx, LoginRequest{Email: " admin@peakmade.com ", Password: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, sess.Role)
	assert.NotEmpty(t, sess.Token)

	got, err := svc.Session(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, got.Role)
	assert.Equal(t, "admin@peakmade.com", got.Email)

	_, err = svc.Login(ctx, LoginRequest{Email: "admin@peakmade.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, svc.Logout(ctx, sess.Token))
	_, err = svc.Session(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestAuthService_AdminPasswordHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hashed-pw"), bcrypt.MinCost)
	require.NoError(t, err)
	svc := newAuth(t, config.AdminConfig{Email: "a@b.c", Password: "ignored", PasswordHash: string(hash)})

	_, err = svc.Login(context.Background(), LoginRequest{Email: "a@b.c", Password: "ignored"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	sess, err := svc.Login(context.Background(), LoginRequest{Email: "a@b.c", Password: "hashed-pw"})
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, sess.Role)

	_, err = NewAuthService(config.AdminConfig{PasswordHash: "not-bcrypt"}, newRepo(t), store.NewMemoryKV(), zap.NewNop())
	assert.Error(t, err)
}

func TestAuthService_ResidentLogin(t *testing.T) {
	ctx := context.Background()
	svc := newAuth(t, config.AdminConfig{Email: "admin@peakmade.com", Password: "admin"})

	sess, err := svc.Login(ctx, LoginRequest{Email: "JANE@test.com", Password: ResidentPassword})
	require.NoError(t, err)
	assert.Equal(t, RoleResident, sess.Role)
	assert.Equal(t, 1, sess.ResidentID)

	_, err = svc.Login(ctx, LoginRequest{Email: "ghost@test.com", Password: ResidentPassword})
	assert.ErrorIs(t, err, ErrResidentNotFound)

	_, err = svc.Login(ctx, LoginRequest{Email: "jane@test.com", Password: "admin"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Session(ctx, "")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func newResidentService(t *testing.T) (*residentService, *repository.MemoryResidentsRepo) {
	t.Helper()
	repo := newRepo(t)
	svc := NewResidentService(repo, zap.NewNop()).(*residentService)
	svc.now = func() time.Time { return testNow }
	return svc, repo
}

func TestResidentService_Enroll(t *testing.T) {
	ctx := context.Background()
	svc, _ := newResidentService(t)

	_, err := svc.Enroll(ctx, 1, EnrollRequest{Name: "Jane Doe", DOB: "1990-05-01", Address: "12 Main St, Austin, TX 78701", Last4SSN: "0000"})
	assert.ErrorIs(t, err, ErrIdentityMismatch)

	r, err := svc.Enroll(ctx, 1, EnrollRequest{Name: " jane doe ", DOB: "1990-05-01", Address: "12 MAIN ST, AUSTIN, TX 78701", Last4SSN: "6789"})
	require.NoError(t, err)
	assert.True(t, r.Enrolled)
	assert.True(t, r.TradelineCreated)
	require.Len(t, r.EnrollmentHistory, 2)
	assert.Equal(t, domain.EnrollmentEvent{Action: domain.ActionEnrolled, Timestamp: "2026-02-10 09:15:00"}, r.EnrollmentHistory[1])

	_, err = svc.Enroll(ctx, 77, EnrollRequest{})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestResidentService_OptOutIsVisibleToLaterReads(t *testing.T) {
	ctx := context.Background()
	svc, repo := newResidentService(t)

	_, err := svc.OptOut(ctx, 1)
	require.NoError(t, err)

	r, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, r.Enrolled)
	assert.Equal(t, domain.EnrollmentNotEnrolled, r.EnrollmentStatus)
	assert.Equal(t, domain.ActionRevokedConsent, r.EnrollmentHistory[len(r.EnrollmentHistory)-1].Action)

	// the first enrolled event still anchors the reporting view
	payments, err := svc.EnrolledPayments(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, payments, 2)
}

func TestResidentService_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	svc, _ := newResidentService(t)

	name := "Jane Q Public"
	addr := "9 Elm St"
	r, err := svc.UpdateProfile(ctx, 1, ProfileUpdate{Name: &name, Address: &addr})
	require.NoError(t, err)
	assert.Equal(t, "Jane Q Public", r.Name)
	assert.Equal(t, "Jane", r.FirstName)
	assert.Equal(t, "Public", r.LastName)
	assert.Equal(t, "9 Elm St", r.Address)
	assert.Equal(t, "1990-05-01", r.DOB)
	assert.Equal(t, "6789", r.Last4SSN)
}

func TestResidentService_UpdatePaymentStatus(t *testing.T) {
	ctx := context.Background()
	svc, _ := newResidentService(t)

	r, err := svc.UpdatePaymentStatus(ctx, 1, "December 2025", domain.PaymentPaid)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, r.Payments[2].Status)

	_, err = svc.UpdatePaymentStatus(ctx, 1, "July 1999", domain.PaymentPaid)
	assert.ErrorIs(t, err, ErrPaymentNotFound)
	_, err = svc.UpdatePaymentStatus(ctx, 1, "", "")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestResidentService_DashboardAndList(t *testing.T) {
	ctx := context.Background()
	svc, _ := newResidentService(t)

	d, err := svc.Dashboard(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Feb 2026", d.CurrentCycle)
	assert.Equal(t, "Feb 28, 2026", d.NextRunDate)

	list, err := svc.List(ctx, "jane")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "February 2026", list[0].LastReported)

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "N/A", all[1].LastReported)

	m, err := svc.DataMismatch(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "****6789", m.SSNSystem)
	assert.Equal(t, "JANE DOE", m.NameBureau)
}

func TestNextRunDate(t *testing.T) {
	assert.Equal(t, "Feb 29, 2028", NextRunDate(time.Date(2028, 2, 3, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "Dec 31, 2026", NextRunDate(time.Date(2026, 12, 31, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, "Dec 2026", ReportingCycle(time.Date(2026, 12, 31, 23, 0, 0, 0, time.UTC)))
}

func TestDashboardService_Stats(t *testing.T) {
	st, err := NewDashboardService(newRepo(t)).Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &DashboardStats{
		TotalResidents:      2,
		EnrolledCount:       1,
		NotEnrolledCount:    1,
		CurrentAccounts:     1,
		DelinquentAccounts:  1,
		TotalPastDue:        250.5,
		TotalMonthlyRevenue: 2700,
		TotalPayments:       3,
		ReportedPayments:    2,
	}, st)
}

func newReportingService(t *testing.T, repo repository.ResidentsRepository) *reportingService {
	t.Helper()
	svc := NewReportingService(repo, zap.NewNop()).(*reportingService)
	svc.now = func() time.Time { return testNow }
	return svc
}

func TestReportingService_Runs(t *testing.T) {
	sum := newReportingService(t, newRepo(t)).Runs(context.Background())
	assert.Len(t, sum.Runs, 5)
	assert.Equal(t, 4, sum.SuccessfulRuns)
	assert.Equal(t, 1, sum.FailedRuns)
	assert.Equal(t, 9, sum.TotalAccounts)
	assert.Nil(t, sum.Runs[3].File)
}

func TestReportingService_Disputes(t *testing.T) {
	svc := newReportingService(t, newRepo(t))

	sum, err := svc.Disputes(context.Background())
	require.NoError(t, err)
	require.Len(t, sum.Disputes, disputeCount)
	assert.Equal(t, disputeCount, sum.Open+sum.InProgress)
	assert.Zero(t, sum.Resolved)

	for i, d := range sum.Disputes {
		assert.Equal(t, disputePriority(d.DaysUntilDue), d.Priority)
		assert.GreaterOrEqual(t, d.DaysUntilDue, 1)
		assert.LessOrEqual(t, d.DaysUntilDue, 30)
		assert.Contains(t, []int{1, 2}, d.ResidentID)
		if i > 0 {
			prev := sum.Disputes[i-1]
			if prev.Priority == d.Priority {
				assert.LessOrEqual(t, prev.DueDate, d.DueDate)
			} else {
				assert.Less(t, priorityOrder[prev.Priority], priorityOrder[d.Priority])
			}
		}
	}

	empty, err := newReportingService(t, repository.NewMemoryResidentsRepo()).Disputes(context.Background())
	require.NoError(t, err)
	assert.Empty(t, empty.Disputes)
}

func TestDisputePriority(t *testing.T) {
	assert.Equal(t, domain.PriorityHigh, disputePriority(1))
	assert.Equal(t, domain.PriorityHigh, disputePriority(9))
	assert.Equal(t, domain.PriorityMedium, disputePriority(10))
	assert.Equal(t, domain.PriorityMedium, disputePriority(19))
	assert.Equal(t, domain.PriorityLow, disputePriority(20))
}

func TestReportingService_AuditTrail(t *testing.T) {
	ctx := context.Background()
	svc := newReportingService(t, newRepo(t))
	require.Len(t, svc.AuditLogs(ctx), 3)

	entry := svc.Record(ctx, "admin@peakmade.com", "Exported report", "Residents")
	assert.Equal(t, 4, entry.ID)
	assert.Equal(t, "2026-02-10 09:15:00", entry.Timestamp)

	logs := svc.AuditLogs(ctx)
	require.Len(t, logs, 4)
	logs[0].User = "mutated"
	assert.Equal(t, "admin", svc.AuditLogs(ctx)[0].User)
}

type stubSource struct {
	name string
	res  source.Result
}

func (s stubSource) Name() string                        { return s.name }
func (s stubSource) Fetch(context.Context) source.Result { return s.res }

func TestResidentLoader_LoadFallsBack(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryResidentsRepo()
	normalizer := pipeline.New(nil, pipeline.WithClock(func() time.Time { return testNow }), pipeline.WithSeed(1))

	sharepoint := stubSource{name: "sharepoint", res: source.Failed("sharepoint", source.GraphListFields, errors.New("401"))}
	excel := stubSource{name: "excel", res: source.OK("excel", source.SpreadsheetFields, []source.Row{
		{"Name": "Jane Doe", "Email": "jane@test.com", "SSN": "123-45-6789"},
		{"Name": "John Smith"},
	})}

	loader := NewResidentLoader(repo, normalizer, zap.NewNop(), sharepoint, excel)
	report, err := loader.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "excel", report.Source)
	assert.Equal(t, "ok", report.Status)
	assert.Equal(t, 2, report.Count)
	require.Len(t, report.Attempts, 2)
	assert.Equal(t, "error", report.Attempts[0].Status)
	assert.Contains(t, report.Attempts[0].Error, "401")

	r, err := repo.FindByEmail(ctx, "jane@test.com")
	require.NoError(t, err)
	assert.Equal(t, "***-**-6789", r.SSN)

	preview, err := loader.Preview(ctx, excel)
	require.NoError(t, err)
	assert.Len(t, preview, 2)
	_, err = loader.Preview(ctx, sharepoint)
	assert.ErrorIs(t, err, source.ErrSourceUnavailable)
	_, err = loader.Preview(ctx, stubSource{name: "json", res: source.Empty("json", source.CanonicalFields)})
	assert.ErrorIs(t, err, source.ErrSourceUnavailable)
}

func TestResidentLoader_NothingAvailableEmptiesStore(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	loader := NewResidentLoader(repo, pipeline.New(nil), zap.NewNop(),
		stubSource{name: "excel", res: source.Empty("excel", source.SpreadsheetFields)},
	)
	report, err := loader.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "empty", report.Status)
	n, _ := repo.Count(ctx)
	assert.Zero(t, n)
}

func TestResidentLoader_NoSourcesReportsEmpty(t *testing.T) {
	ctx := context.Background()
	loader := NewResidentLoader(newRepo(t), pipeline.New(nil), zap.NewNop())
	report, err := loader.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "empty", report.Status)
	assert.Empty(t, report.Source)
	assert.Zero(t, report.Count)
	assert.Empty(t, report.Attempts)
}

func TestServer_ServeAndStop(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := NewServer(ln.Addr().String(), http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}), zap.NewNop())

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Stop(ctx))
	assert.NoError(t, <-done)
}

package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"branchboard/internal/config"
	"branchboard/internal/core"
	applog "branchboard/internal/log"
	"branchboard/internal/query"
	"branchboard/internal/session"
)

var morning = time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)

type testApp struct {
	*App
	buf *bytes.Buffer
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	cfg := &config.Config{
		SlotBackend:          "memory",
		DataDir:              t.TempDir(),
		AttendanceWindowDays: 30,
		Timezone:             "UTC",
		LogLevel:             "error",
	}
	logger := applog.New(applog.Config{Level: slog.LevelError, Output: io.Discard})

	buf := &bytes.Buffer{}
	app, err := NewApp(context.Background(), cfg, logger, buf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	app.now = func() time.Time { return morning }
	return &testApp{App: app, buf: buf}
}

func (ta *testApp) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	ta.buf.Reset()
	err := ta.Run(context.Background(), args)
	return ta.buf.String(), err
}

func TestRun_Usage(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name string
		args []string
	}{
		{"no command", nil},
		{"unknown command", []string{"frobnicate"}},
		{"unknown flag", []string{"stats", "-verbose"}},
		{"stray argument", []string{"branches", "extra"}},
		{"missing required flag", []string{"add-branch"}},
		{"bad amount", []string{"add-advance", "-employee", "1", "-amount", "lots"}},
		{"bad date", []string{"mark-absent", "-employee", "1", "-date", "15/06/2024"}},
		{"bad window", []string{"attendance", "-employee", "1", "-window", "forever"}},
		{"reset without confirm", []string{"reset"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := app.run(t, tt.args...)
			assert.ErrorIs(t, err, ErrUsage)
		})
	}
}

func TestRun_ReadCommands(t *testing.T) {
	app := newTestApp(t)

	out, err := app.run(t, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "135000")
	assert.Contains(t, out, "8000")

	out, err = app.run(t, "branches")
	require.NoError(t, err)
	assert.Contains(t, out, "Main Branch")
	assert.Contains(t, out, "South Branch")

	out, err = app.run(t, "employees", "-branch", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Mohammed Ali")
	assert.NotContains(t, out, "Raj Kumar")

	out, err = app.run(t, "advances", "-employee", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Festival advance")
	assert.NotContains(t, out, "Medical emergency")
}

func TestRun_AddAndDelete(t *testing.T) {
	app := newTestApp(t)

	out, err := app.run(t, "add-branch", "-name", "East Branch", "-location", "Kolkata")
	require.NoError(t, err)
	assert.Contains(t, out, "added branch")
	s := app.store.Snapshot()
	require.Len(t, s.Branches, 3)
	east := s.Branches[2]
	assert.Equal(t, "East Branch", east.Name)

	_, err = app.run(t, "add-employee", "-branch", east.ID, "-name", "Anita Rao", "-age", "30", "-salary", "40000.50")
	require.NoError(t, err)
	s = app.store.Snapshot()
	require.Len(t, s.Employees, 4)
	anita := s.Employees[3]
	assert.Equal(t, "40000.5", anita.BaseSalary.String())

	_, err = app.run(t, "add-advance", "-employee", anita.ID, "-amount", "2500", "-date", "2024-06-01")
	require.NoError(t, err)
	s = app.store.Snapshot()
	require.Len(t, s.Advances, 3)
	assert.Equal(t, east.ID, s.Advances[2].BranchID)
	assert.Equal(t, "37500.5", query.NetSalary(s, anita).String())

	out, err = app.run(t, "delete-branch", "-id", east.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "and 1 employees")
	s = app.store.Snapshot()
	assert.Len(t, s.Branches, 2)
	assert.Len(t, s.Employees, 3)
	assert.Len(t, s.Advances, 2)

	_, err = app.run(t, "delete-advance", "-id", "1")
	require.NoError(t, err)
	_, err = app.run(t, "delete-employee", "-id", "3")
	require.NoError(t, err)
	s = app.store.Snapshot()
	assert.Len(t, s.Advances, 1)
	assert.Len(t, s.Employees, 2)
}

func TestRun_NotFound(t *testing.T) {
	app := newTestApp(t)

	tests := [][]string{
		{"add-employee", "-branch", "99", "-name", "Nobody", "-salary", "1"},
		{"add-advance", "-employee", "99", "-amount", "10"},
		{"delete-branch", "-id", "99"},
		{"delete-employee", "-id", "99"},
		{"delete-advance", "-id", "99"},
		{"clock-in", "-employee", "99"},
	}
	for _, args := range tests {
		t.Run(args[0], func(t *testing.T) {
			_, err := app.run(t, args...)
			assert.ErrorIs(t, err, query.ErrNotFound)
		})
	}
}

func TestRun_ClockInOut(t *testing.T) {
	app := newTestApp(t)

	out, err := app.run(t, "clock-in", "-employee", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Raj Kumar clocked in at 09:00")

	_, err = app.run(t, "clock-in", "-employee", "1")
	assert.ErrorIs(t, err, errAlreadyRecorded)

	_, err = app.run(t, "clock-out", "-employee", "2")
	assert.Error(t, err)

	app.now = func() time.Time { return morning.Add(8*time.Hour + 30*time.Minute) }
	out, err = app.run(t, "clock-out", "-employee", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "after 8h 30m")

	recs := query.AttendanceOfEmployee(app.store.Snapshot(), "1", 0, app.now())
	require.Len(t, recs, 1)
	assert.Equal(t, 510, recs[0].Minutes())

	_, err = app.run(t, "clock-out", "-employee", "1")
	assert.Error(t, err)

	out, err = app.run(t, "attendance", "-employee", "1", "-window", "today")
	require.NoError(t, err)
	assert.Contains(t, out, "today present, 1 present, 0 absent, average 8h 30m")
	assert.Contains(t, out, "09:00")
	assert.Contains(t, out, "17:30")
}

func TestRun_MarkAbsent(t *testing.T) {
	app := newTestApp(t)

	_, err := app.run(t, "mark-absent", "-employee", "2", "-date", "2024-06-14")
	require.NoError(t, err)
	_, err = app.run(t, "mark-absent", "-employee", "2", "-date", "2024-06-14")
	assert.ErrorIs(t, err, errAlreadyRecorded)

	out, err := app.run(t, "attendance", "-employee", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "today absent, 0 present, 1 absent")
	assert.Contains(t, out, "2024-06-14")
}

func TestRun_SessionDefaultsEmployee(t *testing.T) {
	app := newTestApp(t)

	_, err := app.run(t, "clock-in")
	assert.ErrorIs(t, err, ErrUsage)

	out, err := app.run(t, "login", "-role", "employee", "-key", "priya")
	require.NoError(t, err)
	assert.Contains(t, out, "logged in as Priya Singh (employee)")
	assert.Equal(t, session.LoggedIn, app.session.State())

	out, err = app.run(t, "clock-in")
	require.NoError(t, err)
	assert.Contains(t, out, "Priya Singh clocked in")

	out, err = app.run(t, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Priya Singh (employee, id 2)")

	_, err = app.run(t, "logout")
	require.NoError(t, err)
	out, err = app.run(t, "whoami")
	require.NoError(t, err)
	assert.Equal(t, "not logged in\n", out)

	_, err = app.run(t, "login", "-role", "employee", "-key", "nobody")
	assert.Error(t, err)
	assert.Equal(t, session.LoggedOut, app.session.State())
}

func TestRun_PaySalary(t *testing.T) {
	app := newTestApp(t)

	out, err := app.run(t, "pay-salary", "-employee", "1", "-month", "3", "-year", "2024")
	require.NoError(t, err)
	assert.Contains(t, out, "paid 40000 to Raj Kumar for 2024-03 (paid)")

	s := app.store.Snapshot()
	require.Len(t, s.SalaryPayments, 1)
	assert.Equal(t, core.SalaryPaid, s.SalaryPayments[0].Status)

	_, err = app.run(t, "pay-salary", "-employee", "1", "-month", "3", "-year", "2024")
	assert.ErrorContains(t, err, "already paid")

	_, err = app.run(t, "pay-salary", "-employee", "1", "-month", "13")
	assert.ErrorIs(t, err, ErrUsage)

	out, err = app.run(t, "pay-salary", "-employee", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "paid 38000 to Priya Singh for 2024-06")
}

func TestRun_Export(t *testing.T) {
	app := newTestApp(t)
	path := filepath.Join(t.TempDir(), "report.xlsx")

	out, err := app.run(t, "export", "-o", path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "wrote "))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestRun_Reset(t *testing.T) {
	app := newTestApp(t)

	_, err := app.run(t, "delete-branch", "-id", "1")
	require.NoError(t, err)
	require.Len(t, app.store.Snapshot().Employees, 1)

	_, err = app.run(t, "reset", "-confirm")
	require.NoError(t, err)
	s := app.store.Snapshot()
	assert.Len(t, s.Branches, 2)
	assert.Len(t, s.Employees, 3)
	assert.Equal(t, "135000", s.DashboardStats.MonthlyExpenditure.String())
}

func TestRun_WatchWithoutBroker(t *testing.T) {
	app := newTestApp(t)

	_, err := app.run(t, "watch")
	assert.ErrorContains(t, err, "AMQP_URL")
}

func TestPrintUsage(t *testing.T) {
	var buf bytes.Buffer
	PrintUsage(&buf)

	for name := range commands {
		assert.Contains(t, buf.String(), name)
	}
	assert.True(t, strings.HasPrefix(buf.String(), "usage: branchboard"))
}

func TestExecute_UsageBeforeBootstrap(t *testing.T) {
	assert.ErrorIs(t, Execute(context.Background(), nil), ErrUsage)
	assert.ErrorIs(t, Execute(context.Background(), []string{"help"}), ErrUsage)
	assert.ErrorIs(t, Execute(context.Background(), []string{"nope"}), ErrUsage)
}

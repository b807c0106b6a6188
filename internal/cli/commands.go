package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"branchboard/internal/core"
	applog "branchboard/internal/log"
	"branchboard/internal/notify"
	"branchboard/internal/query"
	"branchboard/internal/report"
	"branchboard/internal/session"
	"branchboard/internal/store"
)

const dateLayout = "2006-01-02"

type command struct {
	summary string
	run     func(ctx context.Context, a *App, args []string) error
}

var commands = map[string]command{
	"stats":           {"show dashboard statistics", runStats},
	"branches":        {"list branches", runBranches},
	"employees":       {"list employees [-branch ID]", runEmployees},
	"advances":        {"list advances [-employee ID]", runAdvances},
	"attendance":      {"attendance summary [-employee ID] [-window today|last30|DAYS]", runAttendance},
	"add-branch":      {"add a branch -name NAME [-location LOC]", runAddBranch},
	"add-employee":    {"add an employee -branch ID -name NAME -salary AMOUNT ...", runAddEmployee},
	"add-advance":     {"record an advance -employee ID -amount AMOUNT [-date YYYY-MM-DD]", runAddAdvance},
	"delete-branch":   {"delete a branch and everything under it -id ID", runDeleteBranch},
	"delete-employee": {"delete an employee and their records -id ID", runDeleteEmployee},
	"delete-advance":  {"delete an advance -id ID", runDeleteAdvance},
	"clock-in":        {"start today's attendance [-employee ID]", runClockIn},
	"clock-out":       {"close today's attendance [-employee ID]", runClockOut},
	"mark-absent":     {"record an absence -employee ID [-date YYYY-MM-DD]", runMarkAbsent},
	"pay-salary":      {"record a salary payment -employee ID [-month M] [-year Y]", runPaySalary},
	"login":           {"log in -role admin|employee [-key ID-OR-NAME]", runLogin},
	"logout":          {"log out", runLogout},
	"whoami":          {"show the logged-in identity", runWhoami},
	"export":          {"write an Excel report [-o FILE]", runExport},
	"reset":           {"restore the seed snapshot -confirm", runReset},
	"watch":           {"print snapshot events from AMQP until interrupted", runWatch},
}

// PrintUsage writes the command list to w.
func PrintUsage(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	slices.Sort(names)

	fmt.Fprintln(w, "usage: branchboard <command> [flags]")
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, name := range names {
		fmt.Fprintf(tw, "  %s\t%s\n", name, commands[name].summary)
	}
	tw.Flush()
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUsage, fs.Name(), err)
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("%w: %s: unexpected argument %q", ErrUsage, fs.Name(), fs.Arg(0))
	}
	return nil
}

func required(fs *flag.FlagSet, name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s: -%s is required", ErrUsage, fs.Name(), name)
	}
	return nil
}

func (a *App) table() *tabwriter.Writer {
	return tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
}

func (a *App) today() time.Time {
	return a.now().In(a.cfg.Location())
}

func (a *App) dispatch(ctx context.Context, cmd store.Command) error {
	if err := a.store.Dispatch(ctx, cmd); err != nil {
		return fmt.Errorf("%s: %w", cmd.Name(), err)
	}
	return nil
}

// employee resolves an -employee flag, falling back to the logged-in
// employee.
func (a *App) employee(fs *flag.FlagSet, id string) (core.Employee, error) {
	if strings.TrimSpace(id) == "" {
		if ident, ok := a.session.Identity(); ok && ident.Role == session.RoleEmployee {
			id = ident.ID
		}
	}
	if err := required(fs, "employee", id); err != nil {
		return core.Employee{}, err
	}
	e, err := query.EmployeeByID(a.store.Snapshot(), id)
	if err != nil {
		return core.Employee{}, fmt.Errorf("employee %s: %w", id, err)
	}
	return e, nil
}

func (a *App) parseDate(value string) (time.Time, error) {
	if value == "" {
		return core.StartOfDay(a.today(), nil), nil
	}
	d, err := time.ParseInLocation(dateLayout, value, a.cfg.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q, want YYYY-MM-DD", ErrUsage, value)
	}
	return d, nil
}

func runStats(_ context.Context, a *App, args []string) error {
	fs := newFlagSet("stats")
	if err := parse(fs, args); err != nil {
		return err
	}
	stats := query.DashboardStats(a.store.Snapshot())
	tw := a.table()
	fmt.Fprintf(tw, "Total branches\t%d\n", stats.TotalBranches)
	fmt.Fprintf(tw, "Total employees\t%d\n", stats.TotalEmployees)
	fmt.Fprintf(tw, "Monthly expenditure\t%s\n", stats.MonthlyExpenditure)
	fmt.Fprintf(tw, "Total advances\t%s\n", stats.TotalAdvances)
	fmt.Fprintf(tw, "Pending salaries\t%s\n", stats.PendingSalaries)
	return tw.Flush()
}

func runBranches(_ context.Context, a *App, args []string) error {
	fs := newFlagSet("branches")
	if err := parse(fs, args); err != nil {
		return err
	}
	s := a.store.Snapshot()
	tw := a.table()
	fmt.Fprintln(tw, "ID\tNAME\tLOCATION\tEMPLOYEES")
	for _, b := range s.Branches {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", b.ID, b.Name, b.Location, len(query.EmployeesOfBranch(s, b.ID)))
	}
	return tw.Flush()
}

func runEmployees(_ context.Context, a *App, args []string) error {
	fs := newFlagSet("employees")
	branch := fs.String("branch", "", "only employees of this branch")
	if err := parse(fs, args); err != nil {
		return err
	}
	s := a.store.Snapshot()
	list := s.Employees
	if *branch != "" {
		list = query.EmployeesOfBranch(s, *branch)
	}
	tw := a.table()
	fmt.Fprintln(tw, "ID\tNAME\tBRANCH\tBASE SALARY\tADVANCES\tNET")
	for _, e := range list {
		branchName := e.BranchID
		if b, err := query.BranchOf(s, e.BranchID); err == nil {
			branchName = b.Name
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", e.ID, e.Name, branchName,
			e.BaseSalary, query.TotalAdvances(s, e.ID), query.NetSalary(s, e))
	}
	return tw.Flush()
}

func runAdvances(_ context.Context, a *App, args []string) error {
	fs := newFlagSet("advances")
	employeeID := fs.String("employee", "", "only advances of this employee")
	if err := parse(fs, args); err != nil {
		return err
	}
	s := a.store.Snapshot()
	list := s.Advances
	if *employeeID != "" {
		list = query.AdvancesOfEmployee(s, *employeeID)
	}
	tw := a.table()
	fmt.Fprintln(tw, "ID\tEMPLOYEE\tAMOUNT\tDATE\tDESCRIPTION")
	for _, adv := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", adv.ID, adv.EmployeeID, adv.Amount,
			adv.Date.In(a.cfg.Location()).Format(dateLayout), adv.Description)
	}
	return tw.Flush()
}

func runAttendance(_ context.Context, a *App, args []string) error {
	fs := newFlagSet("attendance")
	employeeID := fs.String("employee", "", "employee id (defaults to the logged-in employee)")
	windowFlag := fs.String("window", "", "today, last30 or a number of days")
	if err := parse(fs, args); err != nil {
		return err
	}
	e, err := a.employee(fs, *employeeID)
	if err != nil {
		return err
	}
	window := query.Window(a.cfg.AttendanceWindowDays)
	if *windowFlag != "" {
		if window, err = query.ParseWindow(*windowFlag); err != nil {
			return fmt.Errorf("%w: %v", ErrUsage, err)
		}
	}

	sum := query.SummarizeAttendance(a.store.Snapshot(), e.ID, window, a.today())
	fmt.Fprintf(a.out, "%s: today %s, %d present, %d absent, average %s\n",
		e.Name, sum.TodayStatus, sum.PresentDays, sum.AbsentDays, query.FormatMinutes(sum.AverageDuration))

	tw := a.table()
	fmt.Fprintln(tw, "DATE\tSTATUS\tIN\tOUT\tDURATION")
	loc := a.cfg.Location()
	for _, r := range sum.Records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.Date.In(loc).Format(dateLayout), r.Status,
			clock(r.CheckIn, loc), clock(r.CheckOut, loc), query.FormatMinutes(r.Minutes()))
	}
	return tw.Flush()
}

func clock(t *time.Time, loc *time.Location) string {
	if t == nil {
		return "-"
	}
	return t.In(loc).Format("15:04")
}

func runAddBranch(ctx context.Context, a *App, args []string) error {
	fs := newFlagSet("add-branch")
	name := fs.String("name", "", "branch name")
	location := fs.String("location", "", "branch location")
	if err := parse(fs, args); err != nil {
		return err
	}
	now := a.now()
	b := core.Branch{ID: core.NewID(), Name: strings.TrimSpace(*name), Location: *location, CreatedAt: now, UpdatedAt: now}
	if err := b.Validate(); err != nil {
		return fmt.Errorf("%w: add-branch: %v", ErrUsage, err)
	}
	if err := a.dispatch(ctx, store.AddBranch{Branch: b}); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "added branch %s\n", b.ID)
	return nil
}

func runAddEmployee(ctx context.Context, a *App, args []string) error {
	fs := newFlagSet("add-employee")
	branch := fs.String("branch", "", "branch id")
	name := fs.String("name", "", "full name")
	age := fs.Int("age", 0, "age in years")
	email := fs.String("email", "", "email address")
	phone := fs.String("phone", "", "phone number")
	upi := fs.String("upi", "", "UPI payout id")
	salary := fs.String("salary", "", "monthly base salary")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := required(fs, "salary", *salary); err != nil {
		return err
	}
	base, err := core.ParseAmount(*salary)
	if err != nil {
		return fmt.Errorf("%w: add-employee: salary %q: %v", ErrUsage, *salary, err)
	}
	if _, err := query.BranchOf(a.store.Snapshot(), *branch); err != nil {
		return fmt.Errorf("branch %s: %w", *branch, err)
	}

	now := a.now()
	e := core.Employee{
		ID: core.NewID(), BranchID: *branch, Name: strings.TrimSpace(*name), Age: *age,
		Email: *email, Phone: *phone, UPIID: *upi, BaseSalary: base,
		CreatedAt: now, UpdatedAt: now,
	}
	if err := e.Validate(); err != nil {
		return fmt.Errorf("%w: add-employee: %v", ErrUsage, err)
	}
	if err := a.dispatch(ctx, store.AddEmployee{Employee: e}); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "added employee %s\n", e.ID)
	return nil
}

func runAddAdvance(ctx context.Context, a *App, args []string) error {
	fs := newFlagSet("add-advance")
	employeeID := fs.String("employee", "", "employee id")
	amount := fs.String("amount", "", "advance amount")
	date := fs.String("date", "", "date, defaults to today")
	description := fs.String("description", "", "reason for the advance")
	if err := parse(fs, args); err != nil {
		return err
	}
	e, err := a.employee(fs, *employeeID)
	if err != nil {
		return err
	}
	if err := required(fs, "amount", *amount); err != nil {
		return err
	}
	amt, err := core.ParseAmount(*amount)
	if err != nil {
		return fmt.Errorf("%w: add-advance: amount %q: %v", ErrUsage, *amount, err)
	}
	day, err := a.parseDate(*date)
	if err != nil {
		return err
	}

	adv := core.Advance{
		ID: core.NewID(), EmployeeID: e.ID, BranchID: e.BranchID,
		Amount: amt, Date: day, Description: strings.TrimSpace(*description),
	}
	if err := adv.Validate(); err != nil {
		return fmt.Errorf("%w: add-advance: %v", ErrUsage, err)
	}
	if err := a.dispatch(ctx, store.AddAdvance{Advance: adv}); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "added advance %s\n", adv.ID)
	return nil
}

func runDeleteBranch(ctx context.Context, a *App, args []string) error {
	fs := newFlagSet("delete-branch")
	id := fs.String("id", "", "branch id")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := required(fs, "id", *id); err != nil {
		return err
	}
	s := a.store.Snapshot()
	if _, err := query.BranchOf(s, *id); err != nil {
		return fmt.Errorf("branch %s: %w", *id, err)
	}
	staff := len(query.EmployeesOfBranch(s, *id))
	if err := a.dispatch(ctx, store.DeleteBranch{ID: *id}); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "deleted branch %s and %d employees\n", *id, staff)
	return nil
}

func runDeleteEmployee(ctx context.Context, a *App, args []string) error {
	fs := newFlagSet("delete-employee")
	id := fs.String("id", "", "employee id")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := required(fs, "id", *id); err != nil {
		return err
	}
	if _, err := query.EmployeeByID(a.store.Snapshot(), *id); err != nil {
		return fmt.Errorf("employee %s: %w", *id, err)
	}
	if err := a.dispatch(ctx, store.DeleteEmployee{ID: *id}); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "deleted employee %s\n", *id)
	return nil
}

func runDeleteAdvance(ctx context.Context, a *App, args []string) error {
	fs := newFlagSet("delete-advance")
	id := fs.String("id", "", "advance id")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := required(fs, "id", *id); err != nil {
		return err
	}
	if !slices.ContainsFunc(a.store.Snapshot().Advances, func(adv core.Advance) bool { return adv.ID == *id }) {
		return fmt.Errorf("advance %s: %w", *id, query.ErrNotFound)
	}
	if err := a.dispatch(ctx, store.DeleteAdvance{ID: *id}); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "deleted advance %s\n", *id)
	return nil
}

var errAlreadyRecorded = errors.New("attendance already recorded for that day")

func runClockIn(ctx context.Context, a *App, args []string) error {
	fs := newFlagSet("clock-in")
	employeeID := fs.String("employee", "", "employee id (defaults to the logged-in employee)")
	if err := parse(fs, args); err != nil {
		return err
	}
	e, err := a.employee(fs, *employeeID)
	if err != nil {
		return err
	}
	now := a.today()
	if query.HasAttendanceOn(a.store.Snapshot(), e.ID, now) {
		return fmt.Errorf("%s: %w", e.Name, errAlreadyRecorded)
	}
	rec := core.Attendance{
		ID: core.NewID(), EmployeeID: e.ID, BranchID: e.BranchID,
		Date: core.StartOfDay(now, nil), Status: core.Present, CheckIn: &now,
	}
	if err := a.dispatch(ctx, store.AddAttendance{Record: rec}); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s clocked in at %s\n", e.Name, now.Format("15:04"))
	return nil
}

func runClockOut(ctx context.Context, a *App, args []string) error {
	fs := newFlagSet("clock-out")
	employeeID := fs.String("employee", "", "employee id (defaults to the logged-in employee)")
	if err := parse(fs, args); err != nil {
		return err
	}
	e, err := a.employee(fs, *employeeID)
	if err != nil {
		return err
	}
	now := a.today()
	open := core.Find(query.AttendanceOfEmployee(a.store.Snapshot(), e.ID, 0, now), func(r core.Attendance) bool {
		return core.SameDay(r.Date, now, now.Location()) && r.CheckIn != nil && r.CheckOut == nil
	})
	if open == nil {
		return fmt.Errorf("%s has not clocked in today", e.Name)
	}
	rec := *open
	rec.CheckOut = &now
	if err := a.dispatch(ctx, store.UpdateAttendance{Record: rec}); err != nil {
		return err
	}
	worked := query.FormatMinutes(rec.Normalized().Minutes())
	fmt.Fprintf(a.out, "%s clocked out at %s after %s\n", e.Name, now.Format("15:04"), worked)
	return nil
}

func runMarkAbsent(ctx context.Context, a *App, args []string) error {
	fs := newFlagSet("mark-absent")
	employeeID := fs.String("employee", "", "employee id")
	date := fs.String("date", "", "date, defaults to today")
	if err := parse(fs, args); err != nil {
		return err
	}
	e, err := a.employee(fs, *employeeID)
	if err != nil {
		return err
	}
	day, err := a.parseDate(*date)
	if err != nil {
		return err
	}
	if query.HasAttendanceOn(a.store.Snapshot(), e.ID, day) {
		return fmt.Errorf("%s: %w", e.Name, errAlreadyRecorded)
	}
	rec := core.Attendance{ID: core.NewID(), EmployeeID: e.ID, BranchID: e.BranchID, Date: day, Status: core.Absent}
	if err := a.dispatch(ctx, store.AddAttendance{Record: rec}); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s marked absent on %s\n", e.Name, day.Format(dateLayout))
	return nil
}

func runPaySalary(ctx context.Context, a *App, args []string) error {
	now := a.today()
	fs := newFlagSet("pay-salary")
	employeeID := fs.String("employee", "", "employee id")
	month := fs.Int("month", int(now.Month()), "month 1-12")
	year := fs.Int("year", now.Year(), "year")
	if err := parse(fs, args); err != nil {
		return err
	}
	e, err := a.employee(fs, *employeeID)
	if err != nil {
		return err
	}
	s := a.store.Snapshot()
	if slices.ContainsFunc(s.SalaryPayments, func(p core.SalaryPayment) bool {
		return p.EmployeeID == e.ID && p.Month == *month && p.Year == *year
	}) {
		return fmt.Errorf("salary for %s %d-%02d already paid", e.Name, *year, *month)
	}
	p, err := query.NewSalaryPayment(s, e.ID, *year, *month, now)
	if err != nil {
		return fmt.Errorf("%w: pay-salary: %v", ErrUsage, err)
	}
	if err := a.dispatch(ctx, store.AddSalaryPayment{Payment: p}); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "paid %s to %s for %d-%02d (%s)\n", p.NetSalary, e.Name, p.Year, p.Month, p.Status)
	return nil
}

func runLogin(ctx context.Context, a *App, args []string) error {
	fs := newFlagSet("login")
	role := fs.String("role", "", "admin or employee")
	key := fs.String("key", "", "employee id or part of the name")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := required(fs, "role", *role); err != nil {
		return err
	}
	if !a.session.Login(ctx, session.Role(*role), *key) {
		return fmt.Errorf("login failed for role %q", *role)
	}
	ident, _ := a.session.Identity()
	fmt.Fprintf(a.out, "logged in as %s (%s)\n", ident.Name, ident.Role)
	return nil
}

func runLogout(ctx context.Context, a *App, args []string) error {
	fs := newFlagSet("logout")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "logged out")
	return nil
}

func runWhoami(_ context.Context, a *App, args []string) error {
	fs := newFlagSet("whoami")
	if err := parse(fs, args); err != nil {
		return err
	}
	ident, ok := a.session.Identity()
	if !ok {
		fmt.Fprintln(a.out, "not logged in")
		return nil
	}
	fmt.Fprintf(a.out, "%s (%s, id %s)\n", ident.Name, ident.Role, ident.ID)
	return nil
}

func runExport(_ context.Context, a *App, args []string) error {
	now := a.today()
	fs := newFlagSet("export")
	path := fs.String("o", "branchboard-"+now.Format(dateLayout)+".xlsx", "output file")
	if err := parse(fs, args); err != nil {
		return err
	}
	f, err := os.Create(*path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := report.WriteWorkbook(f, a.store.Snapshot(), now); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close report: %w", err)
	}
	a.logger.Info("Report exported", applog.FieldOperation, applog.OpExport, "path", *path)
	fmt.Fprintf(a.out, "wrote %s\n", *path)
	return nil
}

func runReset(ctx context.Context, a *App, args []string) error {
	fs := newFlagSet("reset")
	confirm := fs.Bool("confirm", false, "really replace all data with the seed")
	if err := parse(fs, args); err != nil {
		return err
	}
	if !*confirm {
		return fmt.Errorf("%w: reset: pass -confirm to replace all data", ErrUsage)
	}
	seed, err := LoadSeed(a.cfg)
	if err != nil {
		return err
	}
	if err := a.dispatch(ctx, store.ReplaceAll{Snapshot: seed}); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "restored seed data")
	return nil
}

func runWatch(parent context.Context, a *App, args []string) error {
	fs := newFlagSet("watch")
	if err := parse(fs, args); err != nil {
		return err
	}
	if a.notifier == nil {
		return errors.New("watch needs AMQP_URL to point at a reachable broker")
	}

	ctx, done := GracefulShutdown(parent, a.logger.Logger, 5*time.Second, nil)
	err := a.notifier.Consume(ctx, func(msg *notify.SnapshotChangedMessage) error {
		_, err := fmt.Fprintf(a.out, "%s version %d: %d branches, %d employees, %d advances, %d attendance\n",
			msg.Timestamp.In(a.cfg.Location()).Format(time.RFC3339), msg.Version,
			msg.Totals.Branches, msg.Totals.Employees, msg.Totals.Advances, msg.Totals.Attendance)
		return err
	})
	if errors.Is(err, context.Canceled) {
		WaitForShutdown(ctx, done)
		return nil
	}
	return err
}

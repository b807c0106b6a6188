// Package report renders a snapshot as an Excel workbook.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"branchboard/internal/core"
	"branchboard/internal/query"
	"branchboard/internal/store"
)

const (
	SheetDashboard  = "Dashboard"
	SheetEmployees  = "Employees"
	SheetAdvances   = "Advances"
	SheetAttendance = "Attendance"
)

const dateLayout = "2006-01-02"

var (
	employeeHeader   = []any{"ID", "Name", "Branch", "Email", "Phone", "UPI ID", "Base Salary", "Total Advances", "Net Salary"}
	advanceHeader    = []any{"ID", "Employee", "Branch", "Amount", "Date", "Description"}
	attendanceHeader = []any{"Date", "Employee", "Branch", "Status", "Check In", "Check Out", "Duration"}
)

// WriteWorkbook writes the dashboard figures and the entity lists of s to w.
// Dates are rendered in now's location.
func WriteWorkbook(w io.Writer, s store.Snapshot, now time.Time) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	b := &builder{f: f, snap: s, loc: now.Location()}
	if err := b.init(); err != nil {
		return err
	}

	steps := []func() error{
		func() error { return b.dashboard(now) },
		b.employees,
		b.advances,
		b.attendance,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

type builder struct {
	f      *excelize.File
	snap   store.Snapshot
	loc    *time.Location
	header int
}

func (b *builder) init() error {
	if err := b.f.SetSheetName("Sheet1", SheetDashboard); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetEmployees, SheetAdvances, SheetAttendance} {
		if _, err := b.f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}
	style, err := b.f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	b.header = style
	return nil
}

func (b *builder) dashboard(now time.Time) error {
	stats := query.DashboardStats(b.snap)
	rows := [][]any{
		{"Metric", "Value"},
		{"Total Branches", stats.TotalBranches},
		{"Total Employees", stats.TotalEmployees},
		{"Monthly Expenditure", stats.MonthlyExpenditure.Float64()},
		{"Total Advances", stats.TotalAdvances.Float64()},
		{"Pending Salaries", stats.PendingSalaries.Float64()},
		{"Generated At", now.Format(time.RFC3339)},
	}
	return b.table(SheetDashboard, rows, 24)
}

func (b *builder) employees() error {
	rows := [][]any{employeeHeader}
	for _, e := range b.snap.Employees {
		rows = append(rows, []any{
			e.ID, e.Name, b.branchName(e.BranchID), e.Email, e.Phone, e.UPIID,
			e.BaseSalary.Float64(),
			query.TotalAdvances(b.snap, e.ID).Float64(),
			query.NetSalary(b.snap, e).Float64(),
		})
	}
	return b.table(SheetEmployees, rows, 18)
}

func (b *builder) advances() error {
	rows := [][]any{advanceHeader}
	for _, a := range b.snap.Advances {
		rows = append(rows, []any{
			a.ID, b.employeeName(a.EmployeeID), b.branchName(a.BranchID),
			a.Amount.Float64(), a.Date.In(b.loc).Format(dateLayout), a.Description,
		})
	}
	return b.table(SheetAdvances, rows, 18)
}

func (b *builder) attendance() error {
	rows := [][]any{attendanceHeader}
	for _, r := range b.snap.Attendance {
		rows = append(rows, []any{
			r.Date.In(b.loc).Format(dateLayout), b.employeeName(r.EmployeeID), b.branchName(r.BranchID),
			string(r.Status), b.clock(r.CheckIn), b.clock(r.CheckOut), duration(r),
		})
	}
	return b.table(SheetAttendance, rows, 16)
}

// table writes rows from A1 down, bolds the first row and sets column widths.
func (b *builder) table(sheet string, rows [][]any, width float64) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := b.f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	if len(rows) == 0 {
		return nil
	}
	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	if err := b.f.SetCellStyle(sheet, "A1", last, b.header); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(rows[0]))
	if err != nil {
		return err
	}
	return b.f.SetColWidth(sheet, "A", lastCol, width)
}

func (b *builder) branchName(id string) string {
	if br, err := query.BranchOf(b.snap, id); err == nil {
		return br.Name
	}
	return id
}

func (b *builder) employeeName(id string) string {
	if e, err := query.EmployeeByID(b.snap, id); err == nil {
		return e.Name
	}
	return id
}

func (b *builder) clock(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.In(b.loc).Format("15:04")
}

func duration(r core.Attendance) string {
	if r.WorkingDuration == nil {
		return ""
	}
	return query.FormatMinutes(*r.WorkingDuration)
}

package store

import (
	"fmt"
	"slices"

	"branchboard/internal/core"
)

// Reduce returns the snapshot that results from applying cmd to s. It never
// modifies s, never fails and treats unknown commands as no-ops. Commands
// carrying a status outside its enumeration are no-ops too, since the
// persisted document could not carry them back.
func Reduce(s Snapshot, cmd Command) Snapshot {
	next, _ := apply(s, cmd)
	return next
}

// apply reports whether cmd was recognized, which decides if the store
// persists and publishes the result.
func apply(s Snapshot, cmd Command) (Snapshot, bool) {
	if unstorable(cmd) != nil {
		return s, false
	}
	switch c := cmd.(type) {
	case ReplaceAll:
		return c.Snapshot.withEmptySlices(), true

	case AddBranch:
		s.Branches = appendTo(s.Branches, c.Branch)
	case UpdateBranch:
		s.Branches = replace(s.Branches, c.Branch, branchID)
	case DeleteBranch:
		s = deleteBranch(s, c.ID)

	case AddEmployee:
		s.Employees = appendTo(s.Employees, c.Employee)
	case UpdateEmployee:
		s.Employees = replace(s.Employees, c.Employee, employeeID)
	case DeleteEmployee:
		s = deleteEmployees(s, func(e core.Employee) bool { return e.ID == c.ID })

	case AddAdvance:
		s.Advances = appendTo(s.Advances, normalizeAdvance(s, c.Advance))
	case UpdateAdvance:
		s.Advances = replace(s.Advances, normalizeAdvance(s, c.Advance), advanceID)
	case DeleteAdvance:
		s.Advances = remove(s.Advances, func(a core.Advance) bool { return a.ID == c.ID })

	case AddSalaryPayment:
		s.SalaryPayments = appendTo(s.SalaryPayments, c.Payment)

	case AddAttendance:
		s.Attendance = appendTo(s.Attendance, c.Record.Normalized())
	case UpdateAttendance:
		s.Attendance = replace(s.Attendance, c.Record.Normalized(), attendanceID)
	case DeleteAttendance:
		s.Attendance = remove(s.Attendance, func(r core.Attendance) bool { return r.ID == c.ID })

	case UpdateDashboardStats:
		s.DashboardStats = c.Stats

	default:
		return s, false
	}
	return s, true
}

func deleteBranch(s Snapshot, id string) Snapshot {
	s.Branches = remove(s.Branches, func(b core.Branch) bool { return b.ID == id })
	return deleteEmployees(s, func(e core.Employee) bool { return e.BranchID == id })
}

// deleteEmployees removes the matching employees and every advance, salary
// payment and attendance record that belongs to them.
func deleteEmployees(s Snapshot, match func(core.Employee) bool) Snapshot {
	gone := make(map[string]struct{})
	for _, e := range s.Employees {
		if match(e) {
			gone[e.ID] = struct{}{}
		}
	}
	if len(gone) == 0 {
		return s
	}
	owned := func(employeeID string) bool {
		_, ok := gone[employeeID]
		return ok
	}
	s.Employees = remove(s.Employees, match)
	s.Advances = remove(s.Advances, func(a core.Advance) bool { return owned(a.EmployeeID) })
	s.SalaryPayments = remove(s.SalaryPayments, func(p core.SalaryPayment) bool { return owned(p.EmployeeID) })
	s.Attendance = remove(s.Attendance, func(r core.Attendance) bool { return owned(r.EmployeeID) })
	return s
}

// normalizeAdvance pins the advance to the branch of its employee.
func normalizeAdvance(s Snapshot, a core.Advance) core.Advance {
	if e, ok := s.employee(a.EmployeeID); ok {
		a.BranchID = e.BranchID
	}
	return a
}

func branchID(b core.Branch) string         { return b.ID }
func employeeID(e core.Employee) string     { return e.ID }
func advanceID(a core.Advance) string       { return a.ID }
func attendanceID(r core.Attendance) string { return r.ID }

// unstorable reports why cmd would put a value into the tree that Decode
// rejects.
func unstorable(cmd Command) error {
	switch c := cmd.(type) {
	case AddSalaryPayment:
		if !c.Payment.Status.IsValid() {
			return fmt.Errorf("salary payment %s: %w %q", c.Payment.ID, core.ErrInvalidStatus, c.Payment.Status)
		}
	case AddAttendance:
		return recordStatus(c.Record)
	case UpdateAttendance:
		return recordStatus(c.Record)
	case ReplaceAll:
		return c.Snapshot.checkSchema()
	}
	return nil
}

func recordStatus(r core.Attendance) error {
	if !r.Status.IsValid() {
		return fmt.Errorf("attendance %s: %w %q", r.ID, core.ErrInvalidStatus, r.Status)
	}
	return nil
}

func appendTo[T any](xs []T, x T) []T {
	out := make([]T, len(xs), len(xs)+1)
	copy(out, xs)
	return append(out, x)
}

// replace swaps every element whose id matches x. The input is returned as is
// when nothing matches.
func replace[T any](xs []T, x T, id func(T) string) []T {
	target := id(x)
	i := slices.IndexFunc(xs, func(v T) bool { return id(v) == target })
	if i < 0 {
		return xs
	}
	out := slices.Clone(xs)
	for ; i < len(out); i++ {
		if id(out[i]) == target {
			out[i] = x
		}
	}
	return out
}

// remove drops matching elements without touching the input's backing array.
func remove[T any](xs []T, match func(T) bool) []T {
	if !slices.ContainsFunc(xs, match) {
		return xs
	}
	return core.Filter(xs, func(v T) bool { return !match(v) })
}

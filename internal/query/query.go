// Package query holds the read side: pure functions that derive lists and
// statistics from a store snapshot. Nothing here is cached.
package query

import (
	"errors"

	"branchboard/internal/core"
	"branchboard/internal/store"
)

// PendingSalaryUnit is the per-employee amount counted as pending salary on
// the dashboard. It is a placeholder figure, not derived from payments.
var PendingSalaryUnit = core.NewAmount(1000)

var ErrNotFound = errors.New("not found")

// EmployeesOfBranch returns the branch's employees in insertion order.
func EmployeesOfBranch(s store.Snapshot, branchID string) []core.Employee {
	return core.Filter(s.Employees, func(e core.Employee) bool { return e.BranchID == branchID })
}

// AdvancesOfEmployee returns the employee's advances in insertion order.
func AdvancesOfEmployee(s store.Snapshot, employeeID string) []core.Advance {
	return core.Filter(s.Advances, func(a core.Advance) bool { return a.EmployeeID == employeeID })
}

func BranchOf(s store.Snapshot, id string) (core.Branch, error) {
	if b := core.Find(s.Branches, func(b core.Branch) bool { return b.ID == id }); b != nil {
		return *b, nil
	}
	return core.Branch{}, ErrNotFound
}

func EmployeeByID(s store.Snapshot, id string) (core.Employee, error) {
	if e := core.Find(s.Employees, func(e core.Employee) bool { return e.ID == id }); e != nil {
		return *e, nil
	}
	return core.Employee{}, ErrNotFound
}

// DashboardStats computes the dashboard figures from s. Monthly expenditure is
// the sum of base salaries and total advances covers every advance on record.
func DashboardStats(s store.Snapshot) core.DashboardStats {
	return core.DashboardStats{
		TotalBranches:      len(s.Branches),
		TotalEmployees:     len(s.Employees),
		MonthlyExpenditure: core.SumAmounts(s.Employees, func(e core.Employee) core.Amount { return e.BaseSalary }),
		TotalAdvances:      core.SumAmounts(s.Advances, func(a core.Advance) core.Amount { return a.Amount }),
		PendingSalaries:    PendingSalaryUnit.MulInt(len(s.Employees)),
	}
}

// StatsEqual compares two stats by value.
func StatsEqual(a, b core.DashboardStats) bool {
	return a.TotalBranches == b.TotalBranches &&
		a.TotalEmployees == b.TotalEmployees &&
		a.MonthlyExpenditure.Equal(b.MonthlyExpenditure) &&
		a.TotalAdvances.Equal(b.TotalAdvances) &&
		a.PendingSalaries.Equal(b.PendingSalaries)
}

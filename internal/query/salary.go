package query

import (
	"fmt"
	"time"

	"branchboard/internal/core"
	"branchboard/internal/store"
)

// TotalAdvances sums every advance recorded for the employee.
func TotalAdvances(s store.Snapshot, employeeID string) core.Amount {
	return core.SumAmounts(AdvancesOfEmployee(s, employeeID), func(a core.Advance) core.Amount { return a.Amount })
}

// NetSalary is the base salary minus all advances on record. It may be negative.
func NetSalary(s store.Snapshot, e core.Employee) core.Amount {
	return e.BaseSalary.Sub(TotalAdvances(s, e.ID))
}

// AdvancesInMonth returns the employee's advances dated in the given month,
// evaluated in loc.
func AdvancesInMonth(s store.Snapshot, employeeID string, year, month int, loc *time.Location) []core.Advance {
	return core.Filter(s.Advances, func(a core.Advance) bool {
		y, m := core.MonthOf(a.Date, loc)
		return a.EmployeeID == employeeID && y == year && m == month
	})
}

// NewSalaryPayment builds the payment for one employee and month. Advances
// dated in that month are deducted; when they exceed the base salary the
// payment is marked partial.
func NewSalaryPayment(s store.Snapshot, employeeID string, year, month int, paidOn time.Time) (core.SalaryPayment, error) {
	e, err := EmployeeByID(s, employeeID)
	if err != nil {
		return core.SalaryPayment{}, fmt.Errorf("employee %s: %w", employeeID, err)
	}
	if month < 1 || month > 12 {
		return core.SalaryPayment{}, core.ErrInvalidMonth
	}

	advances := core.SumAmounts(AdvancesInMonth(s, employeeID, year, month, paidOn.Location()),
		func(a core.Advance) core.Amount { return a.Amount })
	net := e.BaseSalary.Sub(advances)

	status := core.SalaryPaid
	if net.IsNegative() {
		status = core.SalaryPartial
	}

	return core.SalaryPayment{
		ID:          core.NewID(),
		EmployeeID:  e.ID,
		BranchID:    e.BranchID,
		Month:       month,
		Year:        year,
		BaseSalary:  e.BaseSalary,
		Advances:    advances,
		NetSalary:   net,
		PaymentDate: paidOn,
		Status:      status,
	}, nil
}

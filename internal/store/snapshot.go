package store

import (
	"fmt"
	"slices"

	"branchboard/internal/core"
)

// Snapshot is the whole entity tree at one version. Snapshots are treated as
// immutable values: the reducer never writes into a slice it received.
type Snapshot struct {
	Branches       []core.Branch        `json:"branches" yaml:"branches"`
	Employees      []core.Employee      `json:"employees" yaml:"employees"`
	Advances       []core.Advance       `json:"advances" yaml:"advances"`
	SalaryPayments []core.SalaryPayment `json:"salaryPayments" yaml:"salaryPayments"`
	Attendance     []core.Attendance    `json:"attendance" yaml:"attendance"`
	DashboardStats core.DashboardStats  `json:"dashboardStats" yaml:"dashboardStats"`
}

// checkSchema reports values the persisted document cannot carry back:
// status fields outside their enumerations. It is the only check applied on
// decode, so anything the reducer stores reloads as it was written.
func (s Snapshot) checkSchema() error {
	for i, p := range s.SalaryPayments {
		if !p.Status.IsValid() {
			return fmt.Errorf("salary payment %d: %w %q", i, core.ErrInvalidStatus, p.Status)
		}
	}
	for i, r := range s.Attendance {
		if !r.Status.IsValid() {
			return fmt.Errorf("attendance %d: %w %q", i, core.ErrInvalidStatus, r.Status)
		}
	}
	return nil
}

// Validate checks every entity in the tree. It is applied to hand-written
// seed files, not to persisted documents. Dangling references are not an
// error here; the store reports them when commands introduce them.
func (s Snapshot) Validate() error {
	for i, b := range s.Branches {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("branch %d: %w", i, err)
		}
	}
	for i, e := range s.Employees {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("employee %d: %w", i, err)
		}
	}
	for i, a := range s.Advances {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("advance %d: %w", i, err)
		}
	}
	for i, p := range s.SalaryPayments {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("salary payment %d: %w", i, err)
		}
	}
	for i, r := range s.Attendance {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("attendance %d: %w", i, err)
		}
	}
	return nil
}

// Clone returns a copy that shares no slice backing arrays with s.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		Branches:       slices.Clone(s.Branches),
		Employees:      slices.Clone(s.Employees),
		Advances:       slices.Clone(s.Advances),
		SalaryPayments: slices.Clone(s.SalaryPayments),
		Attendance:     slices.Clone(s.Attendance),
		DashboardStats: s.DashboardStats,
	}
}

// withEmptySlices replaces nil collections with empty ones so the encoded
// document always carries arrays.
func (s Snapshot) withEmptySlices() Snapshot {
	if s.Branches == nil {
		s.Branches = []core.Branch{}
	}
	if s.Employees == nil {
		s.Employees = []core.Employee{}
	}
	if s.Advances == nil {
		s.Advances = []core.Advance{}
	}
	if s.SalaryPayments == nil {
		s.SalaryPayments = []core.SalaryPayment{}
	}
	if s.Attendance == nil {
		s.Attendance = []core.Attendance{}
	}
	return s
}

func (s Snapshot) hasBranch(id string) bool {
	return slices.ContainsFunc(s.Branches, func(b core.Branch) bool { return b.ID == id })
}

func (s Snapshot) employee(id string) (core.Employee, bool) {
	if e := core.Find(s.Employees, func(e core.Employee) bool { return e.ID == id }); e != nil {
		return *e, true
	}
	return core.Employee{}, false
}

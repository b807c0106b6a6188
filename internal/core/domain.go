package core

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	SalaryPaid    SalaryStatus = "paid"
	SalaryPending SalaryStatus = "pending"
	SalaryPartial SalaryStatus = "partial"

	Present AttendanceStatus = "present"
	Absent  AttendanceStatus = "absent"
)

type (
	SalaryStatus     string
	AttendanceStatus string

	Branch struct {
		ID        string    `json:"id" yaml:"id"`
		Name      string    `json:"name" yaml:"name"`
		Location  string    `json:"location,omitempty" yaml:"location,omitempty"`
		CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt"`
	}

	Employee struct {
		ID         string    `json:"id" yaml:"id"`
		BranchID   string    `json:"branchId" yaml:"branchId"`
		Name       string    `json:"name" yaml:"name"`
		Age        int       `json:"age" yaml:"age"`
		Email      string    `json:"email" yaml:"email"`
		Phone      string    `json:"phone" yaml:"phone"`
		UPIID      string    `json:"upiId" yaml:"upiId"` // payout account
		BaseSalary Amount    `json:"baseSalary" yaml:"baseSalary"`
		Image      string    `json:"image,omitempty" yaml:"image,omitempty"`
		CreatedAt  time.Time `json:"createdAt" yaml:"createdAt"`
		UpdatedAt  time.Time `json:"updatedAt" yaml:"updatedAt"`
	}

	// Advance is cash paid ahead of an employee's salary.
	Advance struct {
		ID          string    `json:"id" yaml:"id"`
		EmployeeID  string    `json:"employeeId" yaml:"employeeId"`
		BranchID    string    `json:"branchId" yaml:"branchId"`
		Amount      Amount    `json:"amount" yaml:"amount"`
		Date        time.Time `json:"date" yaml:"date"`
		Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	}

	SalaryPayment struct {
		ID          string       `json:"id" yaml:"id"`
		EmployeeID  string       `json:"employeeId" yaml:"employeeId"`
		BranchID    string       `json:"branchId" yaml:"branchId"`
		Month       int          `json:"month" yaml:"month"` // 1-12
		Year        int          `json:"year" yaml:"year"`
		BaseSalary  Amount       `json:"baseSalary" yaml:"baseSalary"`
		Advances    Amount       `json:"advances" yaml:"advances"`
		NetSalary   Amount       `json:"netSalary" yaml:"netSalary"`
		PaymentDate time.Time    `json:"paymentDate" yaml:"paymentDate"`
		Status      SalaryStatus `json:"status" yaml:"status"`
	}

	// Attendance is one per-day presence record. WorkingDuration is in minutes.
	Attendance struct {
		ID              string           `json:"id" yaml:"id"`
		EmployeeID      string           `json:"employeeId" yaml:"employeeId"`
		BranchID        string           `json:"branchId" yaml:"branchId"`
		Date            time.Time        `json:"date" yaml:"date"`
		Status          AttendanceStatus `json:"status" yaml:"status"`
		CheckIn         *time.Time       `json:"checkIn,omitempty" yaml:"checkIn,omitempty"`
		CheckOut        *time.Time       `json:"checkOut,omitempty" yaml:"checkOut,omitempty"`
		WorkingDuration *int             `json:"workingDuration,omitempty" yaml:"workingDuration,omitempty"`
	}

	DashboardStats struct {
		TotalBranches      int    `json:"totalBranches" yaml:"totalBranches"`
		TotalEmployees     int    `json:"totalEmployees" yaml:"totalEmployees"`
		MonthlyExpenditure Amount `json:"monthlyExpenditure" yaml:"monthlyExpenditure"`
		TotalAdvances      Amount `json:"totalAdvances" yaml:"totalAdvances"`
		PendingSalaries    Amount `json:"pendingSalaries" yaml:"pendingSalaries"`
	}
)

var (
	ErrEmptyID         = errors.New("empty id")
	ErrEmptyName       = errors.New("empty name")
	ErrEmptyReference  = errors.New("empty reference")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrNegativeSalary  = errors.New("negative base salary")
	ErrInvalidAge      = errors.New("invalid age")
	ErrInvalidMonth    = errors.New("invalid month")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrInvalidDuration = errors.New("invalid working duration")
	ErrZeroDate        = errors.New("date cannot be zero")
)

// NewID returns a fresh opaque entity identifier.
func NewID() string {
	return uuid.NewString()
}

func (s SalaryStatus) IsValid() bool {
	switch s {
	case SalaryPaid, SalaryPending, SalaryPartial:
		return true
	default:
		return false
	}
}

func (s AttendanceStatus) IsValid() bool {
	return s == Present || s == Absent
}

func (b Branch) Validate() error {
	if strings.TrimSpace(b.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(b.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (e Employee) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(e.BranchID) == "" {
		return ErrEmptyReference
	}
	if strings.TrimSpace(e.Name) == "" {
		return ErrEmptyName
	}
	if e.Age < 0 || e.Age > 150 {
		return ErrInvalidAge
	}
	if e.BaseSalary.IsNegative() {
		return ErrNegativeSalary
	}
	return nil
}

func (a Advance) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(a.EmployeeID) == "" {
		return ErrEmptyReference
	}
	if !a.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if a.Date.IsZero() {
		return ErrZeroDate
	}
	if len(a.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

func (p SalaryPayment) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(p.EmployeeID) == "" {
		return ErrEmptyReference
	}
	if p.Month < 1 || p.Month > 12 {
		return ErrInvalidMonth
	}
	if !p.Status.IsValid() {
		return ErrInvalidStatus
	}
	if p.BaseSalary.IsNegative() || p.Advances.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

func (a Attendance) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(a.EmployeeID) == "" {
		return ErrEmptyReference
	}
	if a.Date.IsZero() {
		return ErrZeroDate
	}
	if !a.Status.IsValid() {
		return ErrInvalidStatus
	}
	if a.WorkingDuration != nil && *a.WorkingDuration < 0 {
		return ErrInvalidDuration
	}
	if a.CheckIn != nil && a.CheckOut != nil && a.CheckOut.Before(*a.CheckIn) {
		return errors.New("check-out before check-in")
	}
	return nil
}

// Normalized returns a copy whose WorkingDuration agrees with the check-in and
// check-out instants. When both are set the duration is recomputed in whole
// minutes; a negative span leaves the duration unset.
func (a Attendance) Normalized() Attendance {
	if a.CheckIn != nil && a.CheckOut != nil {
		minutes := int(a.CheckOut.Sub(*a.CheckIn) / time.Minute)
		if minutes < 0 {
			a.WorkingDuration = nil
			return a
		}
		a.WorkingDuration = &minutes
		return a
	}
	if a.WorkingDuration != nil && *a.WorkingDuration < 0 {
		a.WorkingDuration = nil
	}
	return a
}

// Minutes returns the working duration, or zero when it is unset.
func (a Attendance) Minutes() int {
	if a.WorkingDuration == nil {
		return 0
	}
	return *a.WorkingDuration
}

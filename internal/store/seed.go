package store

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"branchboard/internal/core"
)

// Seed returns the built-in snapshot used when nothing valid is persisted.
func Seed() Snapshot {
	return Snapshot{
		Branches: []core.Branch{
			{ID: "1", Name: "Main Branch", Location: "Mumbai Central", CreatedAt: day(2024, 1, 15), UpdatedAt: day(2024, 1, 15)},
			{ID: "2", Name: "South Branch", Location: "Pune", CreatedAt: day(2024, 2, 10), UpdatedAt: day(2024, 2, 10)},
		},
		Employees: []core.Employee{
			{
				ID: "1", BranchID: "1", Name: "Raj Kumar", Age: 28,
				Email: "raj.kumar@email.com", Phone: "+91-9876543210", UPIID: "rajkumar@paytm",
				BaseSalary: core.NewAmount(45000),
				CreatedAt:  day(2024, 1, 20), UpdatedAt: day(2024, 1, 20),
			},
			{
				ID: "2", BranchID: "1", Name: "Priya Singh", Age: 25,
				Email: "priya.singh@email.com", Phone: "+91-9876543211", UPIID: "priya@phonepe",
				BaseSalary: core.NewAmount(38000),
				CreatedAt:  day(2024, 1, 25), UpdatedAt: day(2024, 1, 25),
			},
			{
				ID: "3", BranchID: "2", Name: "Mohammed Ali", Age: 32,
				Email: "mohammed.ali@email.com", Phone: "+91-9876543212", UPIID: "ali@googlepay",
				BaseSalary: core.NewAmount(52000),
				CreatedAt:  day(2024, 2, 15), UpdatedAt: day(2024, 2, 15),
			},
		},
		Advances: []core.Advance{
			{ID: "1", EmployeeID: "1", BranchID: "1", Amount: core.NewAmount(5000), Date: day(2024, 3, 1), Description: "Medical emergency"},
			{ID: "2", EmployeeID: "2", BranchID: "1", Amount: core.NewAmount(3000), Date: day(2024, 3, 5), Description: "Festival advance"},
		},
		SalaryPayments: []core.SalaryPayment{},
		Attendance:     []core.Attendance{},
	}
}

// LoadSeedFile reads a YAML snapshot to use in place of the built-in seed.
func LoadSeedFile(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read seed file: %w", err)
	}
	var s Snapshot
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return Snapshot{}, fmt.Errorf("invalid seed file %s: %w", path, err)
	}
	for i, r := range s.Attendance {
		s.Attendance[i] = r.Normalized()
	}
	return s.withEmptySlices(), nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"branchboard/internal/core"
)

func richSnapshot() Snapshot {
	s := Seed()
	in := time.Date(2024, 3, 4, 9, 15, 30, 123000000, time.FixedZone("IST", 5*3600+1800))
	out := in.Add(7 * time.Hour)
	rec := core.Attendance{ID: "r1", EmployeeID: "1", BranchID: "1", Date: day(2024, 3, 4), Status: core.Present, CheckIn: &in, CheckOut: &out}
	s = Reduce(s, AddAttendance{Record: rec})
	s = Reduce(s, AddAttendance{Record: core.Attendance{ID: "r2", EmployeeID: "2", BranchID: "1", Date: day(2024, 3, 4), Status: core.Absent}})
	s = Reduce(s, AddSalaryPayment{Payment: core.SalaryPayment{
		ID: "p1", EmployeeID: "1", BranchID: "1", Month: 3, Year: 2024,
		BaseSalary: core.NewAmount(45000), Advances: core.NewAmount(5000), NetSalary: core.NewAmount(40000),
		PaymentDate: day(2024, 3, 31), Status: core.SalaryPaid,
	}})
	s = Reduce(s, UpdateDashboardStats{Stats: core.DashboardStats{
		TotalBranches: 2, TotalEmployees: 3,
		MonthlyExpenditure: core.NewAmount(135000), TotalAdvances: core.NewAmount(8000), PendingSalaries: core.NewAmount(3000),
	}})
	return s
}

func TestCodec_RoundTrip(t *testing.T) {
	s := richSnapshot()

	data, err := Encode(s)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)

	again, err := Encode(decoded)
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(again))

	require.Len(t, decoded.Attendance, 2)
	assert.True(t, decoded.Attendance[0].CheckIn.Equal(*s.Attendance[0].CheckIn))
	assert.Equal(t, 420, decoded.Attendance[0].Minutes())
	assert.True(t, decoded.Employees[2].BaseSalary.Equal(core.NewAmount(52000)))
	assert.True(t, decoded.DashboardStats.TotalAdvances.Equal(core.NewAmount(8000)))
}

func TestCodec_SeedRoundTripIsExact(t *testing.T) {
	data, err := Encode(Seed())
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, Seed(), decoded)
}

func TestDecode_KeepsRecordsCoreValidationRejects(t *testing.T) {
	doc := `{
		"branches": [{"id":"1","name":"","createdAt":"2024-01-15T00:00:00Z","updatedAt":"2024-01-15T00:00:00Z"}],
		"employees": [{"id":"9","branchId":"1","name":"Old Timer","age":200,"baseSalary":0,"createdAt":"2024-01-15T00:00:00Z","updatedAt":"2024-01-15T00:00:00Z"}],
		"advances": [{"id":"1","employeeId":"9","branchId":"1","amount":-5,"date":"2024-03-01T00:00:00Z"}],
		"salaryPayments": [{"id":"p","employeeId":"9","branchId":"1","month":13,"year":2024,"baseSalary":0,"advances":0,"netSalary":0,"paymentDate":"2024-03-31T00:00:00Z","status":"paid"}]
	}`
	s, err := Decode([]byte(doc))
	require.NoError(t, err)

	require.Len(t, s.Branches, 1)
	assert.Empty(t, s.Branches[0].Name)
	assert.Equal(t, 200, s.Employees[0].Age)
	assert.True(t, s.Advances[0].Amount.IsNegative())
	assert.Equal(t, 13, s.SalaryPayments[0].Month)
	assert.NotNil(t, s.Attendance)
	assert.Error(t, s.Validate())
}

func TestEncode_FieldNames(t *testing.T) {
	data, err := Encode(Snapshot{})
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	for _, key := range []string{"branches", "employees", "advances", "salaryPayments", "attendance", "dashboardStats"} {
		assert.Contains(t, doc, key)
	}
	assert.JSONEq(t, `[]`, string(doc["attendance"]))

	data, err = Encode(Seed())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"baseSalary":45000`)
	assert.Contains(t, string(data), `"upiId":"rajkumar@paytm"`)
	assert.Contains(t, string(data), `"createdAt":"2024-01-15T00:00:00Z"`)
}

func TestDecode_AcceptsBrowserTimestamps(t *testing.T) {
	doc := `{
		"branches": [{"id":"1","name":"Main Branch","createdAt":"2024-01-15T00:00:00.000Z","updatedAt":"2024-01-15T00:00:00.000Z"}],
		"advances": [{"id":"1","employeeId":"1","branchId":"1","amount":5000,"date":"2024-03-01T00:00:00.000Z"}]
	}`
	s, err := Decode([]byte(doc))
	require.NoError(t, err)

	require.Len(t, s.Branches, 1)
	assert.True(t, s.Branches[0].CreatedAt.Equal(day(2024, 1, 15)))
	assert.Empty(t, s.Employees)
	assert.Empty(t, s.Attendance)
	assert.True(t, s.Advances[0].Amount.Equal(core.NewAmount(5000)))
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{not json`},
		{"empty", ``},
		{"null", `null`},
		{"wrong type", `{"branches": "nope"}`},
		{"bad status", `{"attendance":[{"id":"1","employeeId":"1","branchId":"1","date":"2024-03-01T00:00:00Z","status":"late"}]}`},
		{"bad salary status", `{"salaryPayments":[{"id":"1","employeeId":"1","month":3,"year":2024,"status":"owed"}]}`},
		{"bad amount", `{"advances":[{"id":"1","employeeId":"1","amount":"five","date":"2024-03-01T00:00:00Z"}]}`},
		{"bad date", `{"advances":[{"id":"1","employeeId":"1","amount":5,"date":"yesterday"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformed), "got %v", err)
		})
	}
}

func TestSeed(t *testing.T) {
	s := Seed()
	require.NoError(t, s.Validate())
	assert.Len(t, s.Branches, 2)
	assert.Equal(t, "Main Branch", s.Branches[0].Name)
	assert.Equal(t, "South Branch", s.Branches[1].Name)
	assert.Len(t, s.Employees, 3)
	assert.Len(t, s.Advances, 2)

	total := core.SumAmounts(s.Employees, func(e core.Employee) core.Amount { return e.BaseSalary })
	assert.True(t, total.Equal(core.NewAmount(135000)))

	// Each call returns an independent tree.
	s.Branches[0].Name = "changed"
	assert.Equal(t, "Main Branch", Seed().Branches[0].Name)
}

func TestLoadSeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	doc := `
branches:
  - id: hq
    name: Head Office
    location: Delhi
    createdAt: 2024-06-01T00:00:00Z
    updatedAt: 2024-06-01T00:00:00Z
employees:
  - id: e1
    branchId: hq
    name: Anita Rao
    age: 30
    email: anita@example.com
    phone: "+91-9000000000"
    upiId: anita@upi
    baseSalary: 61000.50
attendance:
  - id: r1
    employeeId: e1
    branchId: hq
    date: 2024-06-03T00:00:00Z
    status: present
    checkIn: 2024-06-03T09:00:00Z
    checkOut: 2024-06-03T17:00:00Z
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	s, err := LoadSeedFile(path)
	require.NoError(t, err)
	require.Len(t, s.Branches, 1)
	assert.Equal(t, "Head Office", s.Branches[0].Name)
	require.Len(t, s.Employees, 1)
	assert.Equal(t, "61000.5", s.Employees[0].BaseSalary.String())
	assert.NotNil(t, s.Advances)
	require.Len(t, s.Attendance, 1)
	assert.Equal(t, 480, s.Attendance[0].Minutes())
}

func TestLoadSeedFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadSeedFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("branches:\n  - id: \"\"\n    name: x\n"), 0o644))
	_, err = LoadSeedFile(bad)
	assert.ErrorIs(t, err, core.ErrEmptyID)
}

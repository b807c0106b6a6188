package store

import "branchboard/internal/core"

// Command is a mutation request handled by Reduce. The set of commands is
// closed; every implementation lives in this file.
type Command interface {
	Name() string
	command()
}

type (
	AddBranch    struct{ Branch core.Branch }
	UpdateBranch struct{ Branch core.Branch }
	// DeleteBranch removes the branch together with its employees and
	// everything recorded against them.
	DeleteBranch struct{ ID string }

	AddEmployee    struct{ Employee core.Employee }
	UpdateEmployee struct{ Employee core.Employee }
	DeleteEmployee struct{ ID string }

	AddAdvance    struct{ Advance core.Advance }
	UpdateAdvance struct{ Advance core.Advance }
	DeleteAdvance struct{ ID string }

	AddSalaryPayment struct{ Payment core.SalaryPayment }

	AddAttendance    struct{ Record core.Attendance }
	UpdateAttendance struct{ Record core.Attendance }
	DeleteAttendance struct{ ID string }

	UpdateDashboardStats struct{ Stats core.DashboardStats }

	// ReplaceAll installs a snapshot wholesale, as done on restore.
	ReplaceAll struct{ Snapshot Snapshot }
)

func (AddBranch) Name() string            { return "AddBranch" }
func (UpdateBranch) Name() string         { return "UpdateBranch" }
func (DeleteBranch) Name() string         { return "DeleteBranch" }
func (AddEmployee) Name() string          { return "AddEmployee" }
func (UpdateEmployee) Name() string       { return "UpdateEmployee" }
func (DeleteEmployee) Name() string       { return "DeleteEmployee" }
func (AddAdvance) Name() string           { return "AddAdvance" }
func (UpdateAdvance) Name() string        { return "UpdateAdvance" }
func (DeleteAdvance) Name() string        { return "DeleteAdvance" }
func (AddSalaryPayment) Name() string     { return "AddSalaryPayment" }
func (AddAttendance) Name() string        { return "AddAttendance" }
func (UpdateAttendance) Name() string     { return "UpdateAttendance" }
func (DeleteAttendance) Name() string     { return "DeleteAttendance" }
func (UpdateDashboardStats) Name() string { return "UpdateDashboardStats" }
func (ReplaceAll) Name() string           { return "ReplaceAll" }

func (AddBranch) command()            {}
func (UpdateBranch) command()         {}
func (DeleteBranch) command()         {}
func (AddEmployee) command()          {}
func (UpdateEmployee) command()       {}
func (DeleteEmployee) command()       {}
func (AddAdvance) command()           {}
func (UpdateAdvance) command()        {}
func (DeleteAdvance) command()        {}
func (AddSalaryPayment) command()     {}
func (AddAttendance) command()        {}
func (UpdateAttendance) command()     {}
func (DeleteAttendance) command()     {}
func (UpdateDashboardStats) command() {}
func (ReplaceAll) command()           {}

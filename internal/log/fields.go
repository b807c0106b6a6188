package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldCommand     = "command"
	FieldVersion     = "version"
	FieldSlotKey     = "slot_key"
	FieldBackend     = "backend"
	FieldBranchID    = "branch_id"
	FieldEmployeeID  = "employee_id"
	FieldEntityID    = "entity_id"
	FieldRole        = "role"
	FieldBytes       = "bytes"
	FieldDurationMs  = "duration_ms"
	FieldBranches    = "branches"
	FieldEmployees   = "employees"
	FieldAdvances    = "advances"
	FieldAttendance  = "attendance"
	FieldSubscribers = "subscribers"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentStore   = "store"
	ComponentSession = "session"
	ComponentSlot    = "slot"
	ComponentNotify  = "notify"
	ComponentReport  = "report"
	ComponentCLI     = "cli"
)

// Operations defines standard operation names
const (
	OpLoad     = "load"
	OpPersist  = "persist"
	OpDispatch = "dispatch"
	OpLogin    = "login"
	OpLogout   = "logout"
	OpRestore  = "restore"
	OpPublish  = "publish"
	OpExport   = "export"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithCommand adds the command name and the snapshot version it produced
func (f LogFields) WithCommand(name string, version uint64) LogFields {
	f[FieldCommand] = name
	f[FieldVersion] = version
	return f
}

// WithSlot adds the slot key and payload size
func (f LogFields) WithSlot(key string, size int) LogFields {
	f[FieldSlotKey] = key
	f[FieldBytes] = size
	return f
}

// WithCounts adds entity counts of a snapshot
func (f LogFields) WithCounts(branches, employees, advances, attendance int) LogFields {
	f[FieldBranches] = branches
	f[FieldEmployees] = employees
	f[FieldAdvances] = advances
	f[FieldAttendance] = attendance
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}

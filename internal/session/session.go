// Package session tracks who is using the dashboard. The identity is kept in
// its own slot, apart from the entity snapshot.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/text/cases"

	"branchboard/internal/core"
	applog "branchboard/internal/log"
	"branchboard/internal/slot"
)

// IdentityKey is the slot key holding the logged-in identity.
const IdentityKey = "session-identity"

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

func (r Role) IsValid() bool { return r == RoleAdmin || r == RoleEmployee }

// Admin is the fixed identity granted to the admin role.
var Admin = Identity{ID: "admin-1", Name: "Admin User", Role: RoleAdmin}

type Identity struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Role         Role           `json:"role"`
	EmployeeData *core.Employee `json:"employeeData,omitempty"`
}

var ErrInvalidIdentity = errors.New("invalid identity")

// Validate checks what a restored session needs: an id, a known role and,
// when employee data is attached, that it belongs to the same id. The
// employee record itself is kept as the store holds it.
func (i Identity) Validate() error {
	if strings.TrimSpace(i.ID) == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidIdentity)
	}
	if !i.Role.IsValid() {
		return fmt.Errorf("%w: role %q", ErrInvalidIdentity, i.Role)
	}
	if i.EmployeeData != nil && i.EmployeeData.ID != i.ID {
		return fmt.Errorf("%w: employee data for %q", ErrInvalidIdentity, i.EmployeeData.ID)
	}
	return nil
}

type State int

const (
	LoggedOut State = iota
	Loading
	LoggedIn
)

func (s State) String() string {
	switch s {
	case LoggedOut:
		return "logged-out"
	case Loading:
		return "loading"
	case LoggedIn:
		return "logged-in"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// EmployeeSource supplies the employees an employee login is resolved against.
type EmployeeSource interface {
	Employees() []core.Employee
}

type Manager struct {
	slot      slot.Slot
	employees EmployeeSource
	logger    *slog.Logger

	mu       sync.Mutex
	state    State
	identity *Identity
}

func NewManager(sl slot.Slot, employees EmployeeSource, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default().With(applog.FieldComponent, applog.ComponentSession)
	}
	return &Manager{slot: sl, employees: employees, logger: logger, state: LoggedOut}
}

// Start restores a persisted identity. Missing or malformed data leaves the
// session logged out.
func (m *Manager) Start(ctx context.Context) State {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = Loading
	m.identity = nil

	data, err := m.slot.Get(ctx, IdentityKey)
	if err != nil {
		if !errors.Is(err, slot.ErrNotFound) {
			m.logger.WarnContext(ctx, "Failed to read session identity",
				applog.FieldOperation, applog.OpRestore, applog.FieldError, err)
		}
		m.state = LoggedOut
		return m.state
	}

	var id Identity
	err = json.Unmarshal(data, &id)
	if err == nil {
		err = id.Validate()
	}
	if err != nil {
		m.logger.WarnContext(ctx, "Persisted session identity is malformed",
			applog.NewFields().WithOperation(applog.OpRestore).WithSlot(IdentityKey, len(data)).WithError(err).ToSlice()...)
		m.state = LoggedOut
		return m.state
	}

	m.identity = &id
	m.state = LoggedIn
	m.logger.InfoContext(ctx, "Session restored", applog.FieldRole, id.Role, applog.FieldEntityID, id.ID)
	return m.state
}

// Login resolves role and key to an identity, persists it and logs in. An
// employee key matches an id exactly, or else a case-folded substring of a
// name. It returns false, leaving the session as it was, when nothing matches
// or the identity cannot be stored.
func (m *Manager) Login(ctx context.Context, role Role, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev := m.state
	m.state = Loading

	id, ok := m.resolve(role, key)
	if !ok {
		m.logger.InfoContext(ctx, "Login failed: no matching identity", applog.FieldRole, role)
		m.state = prev
		return false
	}
	if err := id.Validate(); err != nil {
		m.logger.WarnContext(ctx, "Login failed: identity could not be restored later",
			applog.FieldRole, role, applog.FieldError, err)
		m.state = prev
		return false
	}

	data, err := json.Marshal(id)
	if err == nil {
		err = m.slot.Put(ctx, IdentityKey, data)
	}
	if err != nil {
		applog.LogError(ctx, m.logger, "Failed to persist session identity", err, applog.OpLogin,
			applog.NewFields().WithSlot(IdentityKey, len(data)))
		m.state = prev
		return false
	}

	m.identity = &id
	m.state = LoggedIn
	m.logger.InfoContext(ctx, "Logged in", applog.FieldRole, id.Role, applog.FieldEntityID, id.ID)
	return true
}

func (m *Manager) resolve(role Role, key string) (Identity, bool) {
	switch role {
	case RoleAdmin:
		return Admin, true
	case RoleEmployee:
		key = strings.TrimSpace(key)
		if key == "" || m.employees == nil {
			return Identity{}, false
		}
		e, ok := MatchEmployee(m.employees.Employees(), key)
		if !ok {
			return Identity{}, false
		}
		return Identity{ID: e.ID, Name: e.Name, Role: RoleEmployee, EmployeeData: &e}, true
	default:
		return Identity{}, false
	}
}

// MatchEmployee finds the employee with id key, or failing that the first
// whose name contains key ignoring case.
func MatchEmployee(employees []core.Employee, key string) (core.Employee, bool) {
	if e := core.Find(employees, func(e core.Employee) bool { return e.ID == key }); e != nil {
		return *e, true
	}
	fold := cases.Fold()
	needle := fold.String(key)
	if e := core.Find(employees, func(e core.Employee) bool {
		return strings.Contains(fold.String(e.Name), needle)
	}); e != nil {
		return *e, true
	}
	return core.Employee{}, false
}

// Logout clears the stored identity. The session is logged out even when the
// slot cannot be cleared; that error is returned.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.identity = nil
	m.state = LoggedOut

	if err := m.slot.Delete(ctx, IdentityKey); err != nil && !errors.Is(err, slot.ErrNotFound) {
		applog.LogError(ctx, m.logger, "Failed to clear session identity", err, applog.OpLogout, nil)
		return fmt.Errorf("clear session: %w", err)
	}
	m.logger.InfoContext(ctx, "Logged out", applog.FieldOperation, applog.OpLogout)
	return nil
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Identity returns the current identity when logged in.
func (m *Manager) Identity() (Identity, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.identity == nil {
		return Identity{}, false
	}
	return *m.identity, true
}

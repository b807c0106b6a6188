package session

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"branchboard/internal/core"
	applog "branchboard/internal/log"
	"branchboard/internal/slot"
	"branchboard/internal/store"
)

type staticEmployees []core.Employee

func (s staticEmployees) Employees() []core.Employee { return s }

type brokenSlot struct {
	*slot.Memory
}

func (brokenSlot) Put(context.Context, string, []byte) error { return errors.New("read-only") }
func (brokenSlot) Delete(context.Context, string) error       { return errors.New("read-only") }

func seedEmployees() staticEmployees {
	return staticEmployees(store.Seed().Employees)
}

func newManager(sl slot.Slot) *Manager {
	return NewManager(sl, seedEmployees(), applog.Discard())
}

func TestManager_StartsLoggedOut(t *testing.T) {
	m := newManager(slot.NewMemory())
	assert.Equal(t, LoggedOut, m.State())

	assert.Equal(t, LoggedOut, m.Start(context.Background()))
	_, ok := m.Identity()
	assert.False(t, ok)
}

func TestManager_AdminLogin(t *testing.T) {
	ctx := context.Background()
	mem := slot.NewMemory()
	m := newManager(mem)

	require.True(t, m.Login(ctx, RoleAdmin, ""))
	assert.Equal(t, LoggedIn, m.State())

	id, ok := m.Identity()
	require.True(t, ok)
	assert.Equal(t, "admin-1", id.ID)
	assert.Equal(t, "Admin User", id.Name)
	assert.Nil(t, id.EmployeeData)

	data, err := mem.Get(ctx, IdentityKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"admin-1","name":"Admin User","role":"admin"}`, string(data))
}

func TestManager_EmployeeLogin(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		wantOK bool
		wantID string
	}{
		{"by id", "2", true, "2"},
		{"by lowercase name fragment", "raj", true, "1"},
		{"by mixed case fragment", "mOhAmMeD", true, "3"},
		{"surname", "singh", true, "2"},
		{"no match", "zzz", false, ""},
		{"blank", "   ", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newManager(slot.NewMemory())
			ok := m.Login(context.Background(), RoleEmployee, tt.key)
			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				assert.Equal(t, LoggedOut, m.State())
				return
			}
			id, _ := m.Identity()
			assert.Equal(t, tt.wantID, id.ID)
			assert.Equal(t, RoleEmployee, id.Role)
			require.NotNil(t, id.EmployeeData)
			assert.Equal(t, tt.wantID, id.EmployeeData.ID)
		})
	}
}

func TestManager_FailedLoginKeepsSession(t *testing.T) {
	ctx := context.Background()
	m := newManager(slot.NewMemory())
	require.True(t, m.Login(ctx, RoleEmployee, "priya"))

	assert.False(t, m.Login(ctx, RoleEmployee, "zzz"))
	assert.False(t, m.Login(ctx, Role("owner"), "1"))

	assert.Equal(t, LoggedIn, m.State())
	id, _ := m.Identity()
	assert.Equal(t, "Priya Singh", id.Name)
}

func TestManager_LoginPersistFailure(t *testing.T) {
	m := newManager(brokenSlot{Memory: slot.NewMemory()})

	assert.False(t, m.Login(context.Background(), RoleAdmin, ""))
	assert.Equal(t, LoggedOut, m.State())
}

func TestManager_IDMatchWinsOverName(t *testing.T) {
	employees := staticEmployees{
		{ID: "a", BranchID: "1", Name: "Contains b in name"},
		{ID: "b", BranchID: "1", Name: "Zed"},
	}
	e, ok := MatchEmployee(employees, "b")
	require.True(t, ok)
	assert.Equal(t, "Zed", e.Name)
}

func TestMatchEmployee_CaseFolding(t *testing.T) {
	employees := staticEmployees{{ID: "1", BranchID: "1", Name: "Jürgen Straße"}}

	_, ok := MatchEmployee(employees, "jÜrgen")
	assert.True(t, ok)
	_, ok = MatchEmployee(employees, "STRAßE")
	assert.True(t, ok)
}

func TestManager_RestoresAnyStoredEmployee(t *testing.T) {
	ctx := context.Background()
	mem := slot.NewMemory()
	employees := staticEmployees{
		{ID: "7", BranchID: "", Name: "Old Timer", Age: 200},
		{ID: "", BranchID: "1", Name: "Nameless Id"},
	}

	first := NewManager(mem, employees, applog.Discard())
	require.True(t, first.Login(ctx, RoleEmployee, "old timer"))

	second := NewManager(mem, employees, applog.Discard())
	assert.Equal(t, LoggedIn, second.Start(ctx))
	id, ok := second.Identity()
	require.True(t, ok)
	assert.Equal(t, "7", id.ID)
	assert.Equal(t, 200, id.EmployeeData.Age)

	assert.False(t, second.Login(ctx, RoleEmployee, "nameless"))
	id, ok = second.Identity()
	require.True(t, ok)
	assert.Equal(t, "7", id.ID)
}

func TestManager_RestoresSession(t *testing.T) {
	ctx := context.Background()
	mem := slot.NewMemory()

	first := newManager(mem)
	require.True(t, first.Login(ctx, RoleEmployee, "ali"))

	second := newManager(mem)
	assert.Equal(t, LoggedIn, second.Start(ctx))
	id, ok := second.Identity()
	require.True(t, ok)
	assert.Equal(t, "3", id.ID)
	assert.Equal(t, "52000", id.EmployeeData.BaseSalary.String())
}

func TestManager_MalformedIdentity(t *testing.T) {
	docs := []string{
		`{not json`,
		`{"id":"","name":"x","role":"admin"}`,
		`{"id":"1","name":"x","role":"owner"}`,
		`{"id":"1","name":"x","role":"employee","employeeData":{"id":"2","branchId":"1","name":"x"}}`,
		`{"id":"1","name":"x","role":"employee","employeeData":"x"}`,
	}
	for _, doc := range docs {
		t.Run(doc, func(t *testing.T) {
			ctx := context.Background()
			mem := slot.NewMemory()
			require.NoError(t, mem.Put(ctx, IdentityKey, []byte(doc)))

			m := newManager(mem)
			assert.Equal(t, LoggedOut, m.Start(ctx))
			_, ok := m.Identity()
			assert.False(t, ok)
		})
	}
}

func TestManager_Logout(t *testing.T) {
	ctx := context.Background()
	mem := slot.NewMemory()
	m := newManager(mem)
	require.True(t, m.Login(ctx, RoleAdmin, ""))

	require.NoError(t, m.Logout(ctx))
	assert.Equal(t, LoggedOut, m.State())
	_, err := mem.Get(ctx, IdentityKey)
	assert.ErrorIs(t, err, slot.ErrNotFound)

	assert.Equal(t, LoggedOut, newManager(mem).Start(ctx))
}

func TestManager_LogoutWhenSlotFails(t *testing.T) {
	ctx := context.Background()
	mem := slot.NewMemory()
	data, err := json.Marshal(Admin)
	require.NoError(t, err)
	require.NoError(t, mem.Put(ctx, IdentityKey, data))

	m := newManager(brokenSlot{Memory: mem})
	require.Equal(t, LoggedIn, m.Start(ctx))

	assert.Error(t, m.Logout(ctx))
	assert.Equal(t, LoggedOut, m.State())
}

func TestManager_UsesStoreEmployees(t *testing.T) {
	ctx := context.Background()
	st := store.New(slot.NewMemory(), store.WithLogger(applog.Discard()))
	require.NoError(t, st.Load(ctx))
	require.NoError(t, st.Dispatch(ctx, store.AddEmployee{Employee: core.Employee{
		ID: "4", BranchID: "2", Name: "Sunita Patil", BaseSalary: core.NewAmount(30000),
	}}))

	m := NewManager(slot.NewMemory(), st, applog.Discard())
	require.True(t, m.Login(ctx, RoleEmployee, "sunita"))
	id, _ := m.Identity()
	assert.Equal(t, "4", id.ID)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "logged-out", LoggedOut.String())
	assert.Equal(t, "loading", Loading.String())
	assert.Equal(t, "logged-in", LoggedIn.String())
	assert.Equal(t, "State(9)", State(9).String())
}

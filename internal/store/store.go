// Package store holds the entity tree, applies commands to it through a pure
// reducer and keeps the durable copy in a slot up to date.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"branchboard/internal/core"
	applog "branchboard/internal/log"
	"branchboard/internal/slot"
)

// EntityStateKey is the slot key holding the persisted snapshot.
const EntityStateKey = "entity-state"

// ErrPersist is returned by Dispatch when the new snapshot could not be
// written. The in-memory state has still advanced.
var ErrPersist = errors.New("persist snapshot")

// ErrRejected is returned by Dispatch for a command whose payload the
// persisted document could not carry, such as an unknown status. Nothing is
// committed.
var ErrRejected = errors.New("command rejected")

// MalformedStateKey keeps the last persisted document Load could not decode,
// before the seed is written over it.
const MalformedStateKey = EntityStateKey + ".malformed"

// Listener is notified after every committed command.
type Listener interface {
	SnapshotChanged(ctx context.Context, version uint64, s Snapshot)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(ctx context.Context, version uint64, s Snapshot)

func (f ListenerFunc) SnapshotChanged(ctx context.Context, version uint64, s Snapshot) {
	f(ctx, version, s)
}

type Option func(*Store)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSeed replaces the built-in seed snapshot.
func WithSeed(seed Snapshot) Option {
	return func(s *Store) { s.seed = seed }
}

// Store owns the current snapshot. Commands are serialized: the snapshot for
// command N is persisted before command N+1 is reduced.
type Store struct {
	slot   slot.Slot
	logger *slog.Logger
	seed   Snapshot

	// commitMu is held across reduce and persist.
	commitMu sync.Mutex

	stateMu sync.RWMutex
	state   Snapshot
	version uint64

	subsMu  sync.RWMutex
	subs    map[int]Listener
	nextSub int
}

// New returns a store backed by sl. The initial state is the seed; call Load
// to restore the persisted snapshot.
func New(sl slot.Slot, opts ...Option) *Store {
	s := &Store{
		slot:   sl,
		logger: slog.Default().With(applog.FieldComponent, applog.ComponentStore),
		seed:   Seed(),
		subs:   make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.state = s.seed
	return s
}

// Load restores the persisted snapshot, or the seed when the slot is empty,
// unreadable or holds a malformed document. The result is committed like any
// other command, so listeners see it and the slot is rewritten.
func (s *Store) Load(ctx context.Context) error {
	snap := s.seed
	data, err := s.slot.Get(ctx, EntityStateKey)
	switch {
	case errors.Is(err, slot.ErrNotFound):
		s.logger.InfoContext(ctx, "No persisted snapshot, using seed",
			applog.FieldOperation, applog.OpLoad)
	case err != nil:
		s.logger.WarnContext(ctx, "Failed to read persisted snapshot, using seed",
			applog.FieldOperation, applog.OpLoad, applog.FieldError, err)
	default:
		decoded, derr := Decode(data)
		if derr != nil {
			s.logger.WarnContext(ctx, "Persisted snapshot is malformed, using seed",
				applog.NewFields().WithOperation(applog.OpLoad).WithSlot(EntityStateKey, len(data)).WithError(derr).ToSlice()...)
			if perr := s.slot.Put(ctx, MalformedStateKey, data); perr != nil {
				s.logger.WarnContext(ctx, "Failed to keep malformed snapshot",
					applog.FieldOperation, applog.OpLoad, applog.FieldSlotKey, MalformedStateKey, applog.FieldError, perr)
			}
		} else {
			snap = decoded
			s.logger.InfoContext(ctx, "Restored persisted snapshot",
				applog.NewFields().WithOperation(applog.OpRestore).
					WithCounts(len(snap.Branches), len(snap.Employees), len(snap.Advances), len(snap.Attendance)).ToSlice()...)
		}
	}
	return s.Dispatch(ctx, ReplaceAll{Snapshot: snap})
}

// Dispatch applies cmd, persists the result and notifies listeners. Unknown
// commands leave the state untouched and return nil; commands the slot could
// not carry back return ErrRejected. A write failure is returned wrapped in
// ErrPersist.
func (s *Store) Dispatch(ctx context.Context, cmd Command) error {
	if err := unstorable(cmd); err != nil {
		s.logger.WarnContext(ctx, "Rejecting command",
			applog.FieldOperation, applog.OpDispatch, applog.FieldCommand, cmd.Name(), applog.FieldError, err)
		return fmt.Errorf("%w: %w", ErrRejected, err)
	}

	s.commitMu.Lock()

	prev := s.Snapshot()
	s.warnDangling(ctx, prev, cmd)

	next, ok := apply(prev, cmd)
	if !ok {
		s.commitMu.Unlock()
		s.logger.DebugContext(ctx, "Ignoring unknown command", applog.FieldCommand, fmt.Sprintf("%T", cmd))
		return nil
	}

	start := time.Now()
	persistErr := s.persist(ctx, next)

	s.stateMu.Lock()
	s.state = next
	s.version++
	version := s.version
	s.stateMu.Unlock()

	s.commitMu.Unlock()

	fields := applog.NewFields().WithOperation(applog.OpDispatch).WithCommand(cmd.Name(), version)
	fields[applog.FieldDurationMs] = time.Since(start).Milliseconds()
	if persistErr != nil {
		applog.LogError(ctx, s.logger, "Failed to persist snapshot", persistErr, applog.OpPersist, fields)
	} else {
		s.logger.DebugContext(ctx, "Command committed", fields.ToSlice()...)
	}

	s.notify(ctx, version, next)

	if persistErr != nil {
		return fmt.Errorf("%w: %v", ErrPersist, persistErr)
	}
	return nil
}

func (s *Store) persist(ctx context.Context, snap Snapshot) error {
	data, err := Encode(snap)
	if err != nil {
		return err
	}
	return s.slot.Put(ctx, EntityStateKey, data)
}

// Snapshot returns the current snapshot. Callers must not modify the slices.
func (s *Store) Snapshot() Snapshot {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

// Version counts committed commands since the store was created.
func (s *Store) Version() uint64 {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.version
}

// Employees returns a copy of the current employee list.
func (s *Store) Employees() []core.Employee {
	return s.Snapshot().Clone().Employees
}

// Subscribe registers l and returns a function that removes it.
func (s *Store) Subscribe(l Listener) (cancel func()) {
	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = l
	s.subsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, id)
			s.subsMu.Unlock()
		})
	}
}

// notify runs outside commitMu so listeners may read the store or dispatch.
func (s *Store) notify(ctx context.Context, version uint64, snap Snapshot) {
	s.subsMu.RLock()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	listeners := make([]Listener, 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		listeners = append(listeners, s.subs[id])
	}
	s.subsMu.RUnlock()

	for _, l := range listeners {
		l.SnapshotChanged(ctx, version, snap)
	}
}

// warnDangling logs commands that reference entities missing from prev.
// The command is still applied.
func (s *Store) warnDangling(ctx context.Context, prev Snapshot, cmd Command) {
	var kind, ref string
	switch c := cmd.(type) {
	case AddEmployee:
		if !prev.hasBranch(c.Employee.BranchID) {
			kind, ref = "branch", c.Employee.BranchID
		}
	case UpdateEmployee:
		if !prev.hasBranch(c.Employee.BranchID) {
			kind, ref = "branch", c.Employee.BranchID
		}
	case AddAdvance:
		if _, ok := prev.employee(c.Advance.EmployeeID); !ok {
			kind, ref = "employee", c.Advance.EmployeeID
		}
	case AddSalaryPayment:
		if _, ok := prev.employee(c.Payment.EmployeeID); !ok {
			kind, ref = "employee", c.Payment.EmployeeID
		}
	case AddAttendance:
		if _, ok := prev.employee(c.Record.EmployeeID); !ok {
			kind, ref = "employee", c.Record.EmployeeID
		}
	}
	if kind == "" {
		return
	}
	s.logger.WarnContext(ctx, "Command references a missing entity",
		applog.FieldCommand, cmd.Name(), "missing", kind, applog.FieldEntityID, ref)
}

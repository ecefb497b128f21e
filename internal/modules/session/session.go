// Package session implements the session_* functions. $_SESSION is
// loaded from and written back to a SQLite store, encoded with the
// serialize wire format.
package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/funvibe/funphp/internal/config"
	"github.com/funvibe/funphp/internal/diagnostics"
	"github.com/funvibe/funphp/internal/environment"
	"github.com/funvibe/funphp/internal/evaluator"
	"github.com/funvibe/funphp/internal/modules/serialize"
	"github.com/funvibe/funphp/internal/value"
)

// Status values reported by session_status().
const (
	StatusDisabled = 0
	StatusNone     = 1
	StatusActive   = 2
)

// Manager is the session state of one interpreter.
type Manager struct {
	store  *Store
	name   string
	id     string
	active bool
	env    *environment.Environment
}

// Open creates a manager with its own store as configured.
func Open(cfg config.SessionConfig) (*Manager, error) {
	store, err := OpenStore(cfg.DB)
	if err != nil {
		return nil, err
	}
	return NewManager(store, cfg.Name), nil
}

// NewManager builds a manager over an existing store.
func NewManager(store *Store, name string) *Manager {
	if name == "" {
		name = config.DefaultSessionName
	}
	return &Manager{store: store, name: name}
}

// ID returns the current session id, or "" before session_start.
func (m *Manager) ID() string { return m.id }

// Active reports whether a session has been started and not closed.
func (m *Manager) Active() bool { return m.active }

func (m *Manager) Install(r *evaluator.Registry) error {
	r.RegisterConstant("PHP_SESSION_DISABLED", value.Int(StatusDisabled))
	r.RegisterConstant("PHP_SESSION_NONE", value.Int(StatusNone))
	r.RegisterConstant("PHP_SESSION_ACTIVE", value.Int(StatusActive))

	r.RegisterFunc("session_start", 0, 0, m.start)
	r.RegisterFunc("session_id", 0, 1, m.sessionID)
	r.RegisterFunc("session_name", 0, 1, func(_ *evaluator.CallContext, args []value.Value) (value.Value, error) {
		old := m.name
		if len(args) > 0 && !value.IsNull(args[0]) {
			m.name = value.ToString(args[0])
		}
		return value.Str(old), nil
	})
	r.RegisterFunc("session_status", 0, 0, func(*evaluator.CallContext, []value.Value) (value.Value, error) {
		if m.active {
			return value.Int(StatusActive), nil
		}
		return value.Int(StatusNone), nil
	})
	r.RegisterFunc("session_write_close", 0, 0, m.writeClose)
	r.RegisterFunc("session_commit", 0, 0, m.writeClose)
	r.RegisterFunc("session_destroy", 0, 0, m.destroy)
	r.RegisterFunc("session_unset", 0, 0, func(ctx *evaluator.CallContext, _ []value.Value) (value.Value, error) {
		if !m.active {
			return value.Bool(false), nil
		}
		ctx.Env.SetGlobalValue(config.SessionVarName, value.NewArray())
		return value.Bool(true), nil
	})
	r.RegisterFunc("session_regenerate_id", 0, 1, m.regenerate)
	return nil
}

func (m *Manager) start(ctx *evaluator.CallContext, _ []value.Value) (value.Value, error) {
	if m.active {
		return value.Bool(true), nil
	}
	if m.id == "" {
		m.id = uuid.NewString()
	}
	data, ok, err := m.store.Load(callContext(ctx), m.id)
	if err != nil {
		return nil, ctx.Errorf(diagnostics.ErrR003, "%v", err)
	}
	var vars value.Value = value.NewArray()
	if ok {
		decoded, err := serialize.Unserialize(data)
		if err != nil {
			return nil, ctx.Errorf(diagnostics.ErrR003, "Failed to decode session data: %v", err)
		}
		if _, isArr := decoded.(*value.OrderedArray); isArr {
			vars = decoded
		}
	}
	ctx.Env.SetGlobalValue(config.SessionVarName, vars)
	m.env = ctx.Env
	m.active = true
	return value.Bool(true), nil
}

func (m *Manager) sessionID(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
	old := m.id
	if len(args) > 0 && !value.IsNull(args[0]) {
		if m.active {
			return nil, ctx.Errorf(diagnostics.ErrR003, "Session ID cannot be changed when a session is active")
		}
		id := value.ToString(args[0])
		if !validID(id) {
			return nil, ctx.Errorf(diagnostics.ErrR005, "Argument #1 ($id) may only contain the characters a-z A-Z 0-9 , -")
		}
		m.id = id
	}
	return value.Str(old), nil
}

func validID(id string) bool {
	if id == "" {
		return false
	}
	return strings.IndexFunc(id, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == ',' || r == '-')
	}) < 0
}

func (m *Manager) writeClose(ctx *evaluator.CallContext, _ []value.Value) (value.Value, error) {
	if !m.active {
		return value.Bool(false), nil
	}
	if err := m.flush(callContext(ctx)); err != nil {
		return nil, ctx.Errorf(diagnostics.ErrR003, "%v", err)
	}
	m.active = false
	return value.Bool(true), nil
}

func (m *Manager) destroy(ctx *evaluator.CallContext, _ []value.Value) (value.Value, error) {
	if !m.active {
		return nil, ctx.Errorf(diagnostics.ErrR003, "Trying to destroy uninitialized session")
	}
	if err := m.store.Delete(callContext(ctx), m.id); err != nil {
		return nil, ctx.Errorf(diagnostics.ErrR003, "%v", err)
	}
	m.active = false
	m.id = ""
	return value.Bool(true), nil
}

func (m *Manager) regenerate(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
	if !m.active {
		return value.Bool(false), nil
	}
	if len(args) > 0 && value.ToBool(args[0]) {
		if err := m.store.Delete(callContext(ctx), m.id); err != nil {
			return nil, ctx.Errorf(diagnostics.ErrR003, "%v", err)
		}
	}
	m.id = uuid.NewString()
	return value.Bool(true), nil
}

// flush writes $_SESSION of the bound environment to the store.
func (m *Manager) flush(ctx context.Context) error {
	vars := m.env.GetGlobalValue(config.SessionVarName)
	arr, ok := value.AsArray(vars)
	if !ok {
		arr = value.NewArray()
	}
	data, err := serialize.Serialize(arr)
	if err != nil {
		return fmt.Errorf("encoding session data: %w", err)
	}
	return m.store.Save(ctx, m.id, data)
}

// Close writes an active session back and releases the store.
func (m *Manager) Close() error {
	var err error
	if m.active {
		err = m.flush(context.Background())
		m.active = false
	}
	if cerr := m.store.Close(); err == nil {
		err = cerr
	}
	return err
}

func callContext(ctx *evaluator.CallContext) context.Context {
	if ctx.Eval.Context != nil {
		return ctx.Eval.Context
	}
	return context.Background()
}

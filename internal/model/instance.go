package model

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"

	"github.com/roach88/hidux/internal/mutation"
	"github.com/roach88/hidux/internal/proxy"
	"github.com/roach88/hidux/internal/value"
)

// State is an instance lifecycle state.
type State int

const (
	StateConstructing State = iota
	StateLive
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateConstructing:
		return "constructing"
	case StateLive:
		return "live"
	case StateDestroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Instance is a live model: a mutable-looking graph whose every write
// produces a new immutable snapshot.
type Instance struct {
	def   Definition
	id    string
	state State

	root     *proxy.MapInterceptor
	current  *value.Map
	seq      int64
	methods  map[string]BoundMethod
	onChange func(snap *value.Map)

	clock   Clock
	ids     IDGenerator
	journal Journal
	log     *slog.Logger
}

func newInstance(def Definition, opts []Option) *Instance {
	in := &Instance{
		def:   def,
		state: StateConstructing,
		clock: NewClock(),
		ids:   UUIDv7Generator{},
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(in)
	}
	in.id = in.ids.Generate()
	in.log = in.log.With("model", def.Name, "instance", in.id)
	return in
}

// New builds an instance of def from initial.
//
// The initial state is deep-copied twice: once into the live graph the
// interceptors own, once into the first snapshot. The caller's value is
// never retained.
func New(def Definition, initial value.Value, opts ...Option) (*Instance, error) {
	in := newInstance(def, opts)

	state, err := def.initialState(initial)
	if err != nil {
		var me *ModelError
		if errors.As(err, &me) {
			return nil, me
		}
		return nil, &ModelError{
			Code:    ErrCodeInvalidInitial,
			Message: fmt.Sprintf("init: %v", err),
			Model:   def.Name,
		}
	}
	if state == nil {
		state = value.NewMap()
	}
	if def.Validate != nil {
		if err := def.Validate(state); err != nil {
			return nil, &ModelError{
				Code:    ErrCodeInvalidInitial,
				Message: fmt.Sprintf("validate: %v", err),
				Model:   def.Name,
			}
		}
	}

	in.goLive(value.Clone(state).(*value.Map), value.Clone(state).(*value.Map), in.clock.Next())
	in.record()
	in.log.Info("model instance created", "seq", in.seq)
	return in, nil
}

// Restore rebuilds an instance from a stored snapshot without running Init.
// Pair with WithClock(NewClockAt(seq)) and a fixed id generator to resume
// numbering and identity from history. The restored snapshot is not
// recorded again.
func Restore(def Definition, snap *value.Map, opts ...Option) (*Instance, error) {
	if snap == nil {
		return nil, &ModelError{
			Code:    ErrCodeInvalidInitial,
			Message: "restore from nil snapshot",
			Model:   def.Name,
		}
	}
	in := newInstance(def, opts)
	in.goLive(value.Clone(snap).(*value.Map), value.Clone(snap).(*value.Map), in.clock.Current())
	in.log.Info("model instance restored", "seq", in.seq)
	return in, nil
}

// goLive wraps the live graph, binds the method table, and enters StateLive.
func (in *Instance) goLive(live, first *value.Map, seq int64) {
	in.root = proxy.NewRoot(live, proxy.EmitterFunc(in.commit), proxy.WithLogger(in.log))
	in.current = first
	in.seq = seq
	in.methods = make(map[string]BoundMethod, len(in.def.Methods))
	for name, m := range in.def.Methods {
		in.methods[name] = in.bind(name, m)
	}
	in.state = StateLive
}

// bind closes m over the instance. A bound method keeps failing with
// DESTROYED after Destroy, even when held past the method table's release.
func (in *Instance) bind(name string, m Method) BoundMethod {
	return func(args ...value.Value) (value.Value, error) {
		if in.state != StateLive {
			in.log.Warn("method called on destroyed instance", "method", name)
			return nil, in.destroyedError(name)
		}
		in.log.Debug("method call", "method", name, "args", len(args))
		return m(in.root, args...)
	}
}

// commit turns one emitted mutation into the next snapshot.
func (in *Instance) commit(m mutation.Mutation) error {
	if in.state != StateLive {
		return in.destroyedError("")
	}

	next, err := mutation.Apply(m, in.current)
	if err != nil {
		in.log.Error("snapshot build failed", "mutation", m.String(), "error", err)
		return err
	}
	in.current = next.(*value.Map)
	in.seq = in.clock.Next()

	in.log.Debug("snapshot committed", "seq", in.seq, "mutation", m.String())
	in.record()
	if cb := in.onChange; cb != nil {
		cb(in.current)
	}
	return nil
}

// record hands the current snapshot to the journal.
func (in *Instance) record() {
	if in.journal == nil {
		return
	}
	err := in.journal.Record(Entry{
		InstanceID: in.id,
		Model:      in.def.Name,
		Seq:        in.seq,
		State:      in.current,
	})
	if err != nil {
		in.log.Warn("journal record failed", "seq", in.seq, "error", err)
	}
}

func (in *Instance) destroyedError(method string) error {
	return &ModelError{
		Code:    ErrCodeDestroyed,
		Message: "instance has been destroyed",
		Model:   in.def.Name,
		Method:  method,
	}
}

// ID returns the instance id.
func (in *Instance) ID() string {
	return in.id
}

// Name returns the definition name.
func (in *Instance) Name() string {
	return in.def.Name
}

// State returns the lifecycle state.
func (in *Instance) State() State {
	return in.state
}

// Seq returns the clock value of the current snapshot.
func (in *Instance) Seq() int64 {
	return in.seq
}

// Snapshot returns the current snapshot. It is shared, not copied: callers
// must treat it as read-only. After Destroy it is the last snapshot taken.
func (in *Instance) Snapshot() *value.Map {
	return in.current
}

// Root returns the root interceptor. After Destroy every operation on it
// fails with proxy.ErrStaleInterceptor.
func (in *Instance) Root() *proxy.MapInterceptor {
	return in.root
}

// Methods returns the bound method table. It is nil after Destroy.
func (in *Instance) Methods() map[string]BoundMethod {
	return maps.Clone(in.methods)
}

// Call invokes a bound method by name.
func (in *Instance) Call(name string, args ...value.Value) (value.Value, error) {
	if in.state != StateLive {
		return nil, in.destroyedError(name)
	}
	m, ok := in.methods[name]
	if !ok {
		return nil, &ModelError{
			Code:    ErrCodeUnknownMethod,
			Message: fmt.Sprintf("no method %q", name),
			Model:   in.def.Name,
			Method:  name,
		}
	}
	return m(args...)
}

// OnChange registers the subscriber called with every new snapshot.
// There is one slot: registering replaces the previous subscriber, and nil
// clears it.
func (in *Instance) OnChange(cb func(snap *value.Map)) error {
	if in.state != StateLive {
		return in.destroyedError("")
	}
	in.onChange = cb
	return nil
}

// Destroy tears the instance down. The root interceptor and its subtree are
// invalidated, and the method table and subscriber are released.
// Destroying twice is a no-op.
func (in *Instance) Destroy() {
	if in.state == StateDestroyed {
		return
	}
	in.state = StateDestroyed
	if in.root != nil {
		in.root.Invalidate()
	}
	in.methods = nil
	in.onChange = nil
	in.log.Info("model instance destroyed", "seq", in.seq)
}

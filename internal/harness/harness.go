package harness

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/hidux/internal/model"
	"github.com/roach88/hidux/internal/proxy"
	"github.com/roach88/hidux/internal/schema"
	"github.com/roach88/hidux/internal/store"
	"github.com/roach88/hidux/internal/testutil"
	"github.com/roach88/hidux/internal/value"
)

// Options configures a scenario run.
type Options struct {
	// Store receives the run's history. An in-memory store is used when nil.
	Store *store.Store

	// Logger receives the instance's logs. Discarded when nil.
	Logger *slog.Logger
}

// Run executes a scenario against a fresh in-memory store.
func Run(s *Scenario) (*Result, error) {
	return RunWithOptions(context.Background(), s, Options{})
}

// RunWithOptions executes a scenario and checks its expectations,
// assertions, and the engine invariants every run must satisfy:
// snapshots handed out never change, and the stored history matches them.
//
// Returned errors mean the scenario could not be set up. Failed checks are
// reported in Result.Errors.
func RunWithOptions(ctx context.Context, s *Scenario, opts Options) (*Result, error) {
	def, err := definition(s)
	if err != nil {
		return nil, err
	}

	var initial value.Value
	if s.Initial != nil {
		initial, err = value.FromGo(s.Initial)
		if err != nil {
			return nil, fmt.Errorf("initial state: %w", err)
		}
	}

	st := opts.Store
	if st == nil {
		st, err = store.Open(":memory:")
		if err != nil {
			return nil, fmt.Errorf("failed to open store: %w", err)
		}
		defer st.Close()
	}

	logger := opts.Logger
	if logger == nil {
		logger = testutil.DiscardLogger()
	}

	in, err := model.New(def, initial,
		model.WithLogger(logger),
		model.WithClock(testutil.NewDeterministicClock()),
		model.WithIDGenerator(model.NewFixedGenerator(s.InstanceID)),
		model.WithJournal(st.Journal(ctx)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create instance: %w", err)
	}

	r := &runner{
		in:      in,
		handles: make(map[string]proxy.Node),
		snaps:   make(map[int64]*value.Map),
		frozen:  make(map[int64]value.Value),
		result:  NewResult(),
	}
	r.result.InstanceID = in.ID()
	r.observe(in.Snapshot())
	if err := in.OnChange(r.observe); err != nil {
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	for i, step := range s.Steps {
		r.step(i, step)
	}

	final := in.Snapshot()
	in.Destroy()

	r.result.Transitions = len(r.snaps) - 1
	r.result.Final = value.ToGo(final)

	r.checkImmutable()
	r.checkHistory(ctx, st)
	for i, a := range s.Assertions {
		if err := r.evaluate(a, final); err != nil {
			r.result.AddError(fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return r.result, nil
}

// definition builds the model definition a scenario instantiates.
func definition(s *Scenario) (model.Definition, error) {
	if s.Models == "" {
		name := s.Model
		if name == "" {
			name = s.Name
		}
		return model.Definition{Name: name}, nil
	}

	loaded, errs := schema.Load(s.Models, schema.LoadModeFailFast)
	if len(errs) > 0 {
		return model.Definition{}, fmt.Errorf("failed to load models: %w", errs[0])
	}
	m, ok := loaded.Lookup(s.Model)
	if !ok {
		return model.Definition{}, fmt.Errorf("model %q not found in %s", s.Model, s.Models)
	}
	return m.Definition(nil), nil
}

type runner struct {
	in      *model.Instance
	handles map[string]proxy.Node

	// snaps holds every snapshot handed out, by seq. frozen holds a deep
	// copy of each taken when it was handed out.
	snaps  map[int64]*value.Map
	frozen map[int64]value.Value

	result *Result
}

func (r *runner) observe(snap *value.Map) {
	seq := r.in.Seq()
	r.snaps[seq] = snap
	r.frozen[seq] = value.Clone(snap)
}

func (r *runner) step(i int, step Step) {
	before := r.in.Seq()
	path, err := r.exec(step)

	ev := TraceEvent{
		Step:    i + 1,
		Op:      step.Op,
		Path:    path,
		Seq:     r.in.Seq(),
		Changed: r.in.Seq() != before,
		Error:   errorClass(err),
	}
	if ev.Changed {
		ev.State = value.ToGo(r.in.Snapshot())
	}
	r.result.Trace = append(r.result.Trace, ev)

	where := fmt.Sprintf("steps[%d] %s", i, step.Op)
	switch {
	case step.ExpectError != "" && err == nil:
		r.result.AddError(fmt.Sprintf("%s: expected %s error, got none", where, step.ExpectError))
	case step.ExpectError != "" && step.ExpectError != ErrClassAny && ev.Error != step.ExpectError:
		r.result.AddError(fmt.Sprintf("%s: expected %s error, got %s: %v", where, step.ExpectError, ev.Error, err))
	case step.ExpectError == "" && err != nil:
		r.result.AddError(fmt.Sprintf("%s: %v", where, err))
	}
	if step.ExpectChange != nil && *step.ExpectChange != ev.Changed {
		r.result.AddError(fmt.Sprintf("%s: expected change=%t, got %t", where, *step.ExpectChange, ev.Changed))
	}
}

// exec runs one step and returns the absolute path it addressed.
func (r *runner) exec(step Step) (string, error) {
	if step.Op == OpDestroy {
		r.in.Destroy()
		return "", nil
	}

	var from proxy.Node = r.in.Root()
	if step.Handle != "" {
		from = r.handles[step.Handle]
	}
	rel, err := value.ParsePath(step.Path)
	if err != nil {
		return step.Path, err
	}
	abs := append(from.Path(), rel...).String()

	switch step.Op {
	case OpSet, OpDelete:
		return abs, r.write(step, from, rel)

	case OpBind:
		n, err := proxy.Resolve(from, rel)
		if err != nil {
			return abs, err
		}
		r.handles[step.Name] = n
		return abs, nil
	}

	seq, err := resolveSeq(from, rel)
	if err != nil {
		return abs, err
	}
	switch step.Op {
	case OpAppend, OpPrepend:
		vals, err := fromGoAll(step.Values)
		if err != nil {
			return abs, err
		}
		if step.Op == OpAppend {
			return abs, seq.Append(vals...)
		}
		return abs, seq.Prepend(vals...)
	case OpRemoveLast:
		_, err := seq.RemoveLast()
		return abs, err
	case OpRemoveFirst:
		_, err := seq.RemoveFirst()
		return abs, err
	case OpResize:
		return abs, seq.Resize(*step.Len)
	}
	return abs, fmt.Errorf("unknown op %q", step.Op)
}

// write performs a set or delete on the container holding rel's last
// segment.
func (r *runner) write(step Step, from proxy.Node, rel value.Path) error {
	last, _ := rel.Last()
	parent, err := proxy.Resolve(from, rel.Parent())
	if err != nil {
		return err
	}

	var v value.Value
	if step.Op == OpSet {
		v, err = value.FromGo(step.Value)
		if err != nil {
			return err
		}
	}

	switch n := parent.(type) {
	case *proxy.MapInterceptor:
		if last.IsIndex() {
			return fmt.Errorf("%s %s on keyed map: %w", step.Op, last, proxy.ErrWrongKind)
		}
		if step.Op == OpSet {
			return n.Set(last.Key(), v)
		}
		return n.Delete(last.Key())
	case *proxy.SeqInterceptor:
		if !last.IsIndex() {
			return fmt.Errorf("%s %q on sequence: %w", step.Op, last.Key(), proxy.ErrWrongKind)
		}
		if step.Op == OpSet {
			return n.Set(last.Index(), v)
		}
		return n.Delete(last.Index())
	}
	return fmt.Errorf("%s under %s: %w", step.Op, parent.Kind(), proxy.ErrNotContainer)
}

func resolveSeq(from proxy.Node, p value.Path) (*proxy.SeqInterceptor, error) {
	n, err := proxy.Resolve(from, p)
	if err != nil {
		return nil, err
	}
	seq, ok := n.(*proxy.SeqInterceptor)
	if !ok {
		return nil, fmt.Errorf("%q holds %s: %w", n.Path().String(), n.Kind(), proxy.ErrWrongKind)
	}
	return seq, nil
}

func fromGoAll(vals []any) ([]value.Value, error) {
	out := make([]value.Value, len(vals))
	for i, v := range vals {
		conv, err := value.FromGo(v)
		if err != nil {
			return nil, fmt.Errorf("values[%d]: %w", i, err)
		}
		out[i] = conv
	}
	return out, nil
}

// checkImmutable fails the run if any snapshot changed after it was
// handed out.
func (r *runner) checkImmutable() {
	for _, seq := range sortedSeqs(r.snaps) {
		if !value.Equal(r.snaps[seq], r.frozen[seq]) {
			r.result.AddError(fmt.Sprintf("invariant: snapshot %d changed after it was handed out", seq))
		}
	}
}

// checkHistory fails the run if the store does not hold every snapshot
// the run observed, or holds one whose hash no longer matches.
func (r *runner) checkHistory(ctx context.Context, st *store.Store) {
	id := r.in.ID()
	recs, err := st.ReadSnapshots(ctx, id)
	if err != nil {
		r.result.AddError(fmt.Sprintf("invariant: read history: %v", err))
		return
	}
	stored := make(map[int64]string, len(recs))
	for _, rec := range recs {
		stored[rec.Seq] = rec.Hash
	}

	for _, seq := range sortedSeqs(r.snaps) {
		hash, ok := stored[seq]
		if !ok {
			r.result.AddError(fmt.Sprintf("invariant: snapshot %d missing from history", seq))
			continue
		}
		want, err := value.Fingerprint(r.snaps[seq])
		if err != nil {
			r.result.AddError(fmt.Sprintf("invariant: fingerprint snapshot %d: %v", seq, err))
			continue
		}
		if hash != want {
			r.result.AddError(fmt.Sprintf("invariant: snapshot %d stored with hash %s, want %s", seq, hash, want))
		}
	}

	bad, err := st.Verify(ctx, id)
	if err != nil {
		r.result.AddError(fmt.Sprintf("invariant: verify history: %v", err))
		return
	}
	for _, m := range bad {
		r.result.AddError("invariant: " + m.String())
	}
}

package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hidux/internal/proxy"
	"github.com/roach88/hidux/internal/testutil"
	"github.com/roach88/hidux/internal/value"
)

func obj(v map[string]any) *value.Map {
	return value.MustFromGo(v).(*value.Map)
}

func newTestInstance(t *testing.T, def Definition, initial map[string]any, opts ...Option) *Instance {
	t.Helper()
	opts = append([]Option{
		WithLogger(testutil.DiscardLogger()),
		WithClock(testutil.NewDeterministicClock()),
		WithIDGenerator(NewFixedGenerator("inst-1")),
	}, opts...)

	var start value.Value
	if initial != nil {
		start = obj(initial)
	}
	in, err := New(def, start, opts...)
	require.NoError(t, err)
	return in
}

// watch counts subscriber calls and keeps every snapshot received.
func watch(t *testing.T, in *Instance) *[]*value.Map {
	t.Helper()
	var got []*value.Map
	require.NoError(t, in.OnChange(func(snap *value.Map) {
		got = append(got, snap)
	}))
	return &got
}

func TestNewStartsLive(t *testing.T) {
	in := newTestInstance(t, Definition{Name: "counter"}, map[string]any{"n": 0})

	assert.Equal(t, StateLive, in.State())
	assert.Equal(t, "inst-1", in.ID())
	assert.Equal(t, "counter", in.Name())
	assert.Equal(t, int64(1), in.Seq())
	assert.True(t, value.Equal(obj(map[string]any{"n": 0}), in.Snapshot()))
}

func TestNewDoesNotRetainInitial(t *testing.T) {
	initial := obj(map[string]any{"user": map[string]any{"name": "ada"}})
	in, err := New(Definition{Name: "m"}, initial, WithLogger(testutil.DiscardLogger()))
	require.NoError(t, err)

	user, _ := initial.Get("user")
	user.(*value.Map).Set("name", value.String("mallory"))

	got, _ := value.Lookup(in.Snapshot(), value.MustParsePath("user.name"))
	assert.Equal(t, value.String("ada"), got)

	root := in.Root()
	u, err := root.Map("user")
	require.NoError(t, err)
	live, err := u.Get("name")
	require.NoError(t, err)
	assert.Equal(t, value.String("ada"), live)
}

func TestNewInitialKinds(t *testing.T) {
	in, err := New(Definition{Name: "m"}, nil, WithLogger(testutil.DiscardLogger()))
	require.NoError(t, err)
	assert.Equal(t, 0, in.Snapshot().Len())

	_, err = New(Definition{Name: "m"}, value.NewSeq(), WithLogger(testutil.DiscardLogger()))
	require.Error(t, err)
	assert.True(t, IsInvalidInitial(err))
}

func TestNewRunsInit(t *testing.T) {
	def := Definition{
		Name: "todo",
		Init: func(initial value.Value) (*value.Map, error) {
			title := value.Value(value.String("untitled"))
			if initial != nil {
				title = initial
			}
			return value.NewMap(
				value.P("title", title),
				value.P("items", value.NewSeq()),
			), nil
		},
	}

	in := newTestInstance(t, def, nil)
	assert.True(t, value.Equal(
		obj(map[string]any{"title": "untitled", "items": []any{}}),
		in.Snapshot(),
	))

	failing := Definition{
		Name: "broken",
		Init: func(value.Value) (*value.Map, error) { return nil, errors.New("boom") },
	}
	_, err := New(failing, nil, WithLogger(testutil.DiscardLogger()))
	require.Error(t, err)
	assert.True(t, IsInvalidInitial(err))
	assert.Contains(t, err.Error(), "boom")
}

func TestNewRunsValidate(t *testing.T) {
	def := Definition{
		Name: "strict",
		Validate: func(state *value.Map) error {
			if !state.Has("id") {
				return errors.New("id is required")
			}
			return nil
		},
	}

	_, err := New(def, obj(map[string]any{}), WithLogger(testutil.DiscardLogger()))
	require.Error(t, err)
	assert.True(t, IsInvalidInitial(err))

	_, err = New(def, obj(map[string]any{"id": 1}), WithLogger(testutil.DiscardLogger()))
	require.NoError(t, err)
}

// create({items: [1,2]}); append(3)
func TestScenarioAppend(t *testing.T) {
	in := newTestInstance(t, Definition{Name: "m"}, map[string]any{"items": []any{1, 2}})
	before := in.Snapshot()
	got := watch(t, in)

	items, err := in.Root().Seq("items")
	require.NoError(t, err)
	require.NoError(t, items.Append(value.Int(3)))

	assert.True(t, value.Equal(obj(map[string]any{"items": []any{1, 2, 3}}), in.Snapshot()))
	assert.True(t, value.Equal(obj(map[string]any{"items": []any{1, 2}}), before))
	require.Len(t, *got, 1)
	assert.Same(t, in.Snapshot(), (*got)[0])
	assert.Equal(t, int64(2), in.Seq())
}

// create({list:[{n:1}]}); prepend({n:0}); write n=99 through the old handle
func TestScenarioPrependRehomes(t *testing.T) {
	in := newTestInstance(t, Definition{Name: "m"}, map[string]any{
		"list": []any{map[string]any{"n": 1}},
	})

	list, err := in.Root().Seq("list")
	require.NoError(t, err)
	one, err := list.Map(0)
	require.NoError(t, err)

	require.NoError(t, list.Prepend(obj(map[string]any{"n": 0})))
	assert.True(t, value.Equal(
		obj(map[string]any{"list": []any{map[string]any{"n": 0}, map[string]any{"n": 1}}}),
		in.Snapshot(),
	))

	require.NoError(t, one.Set("n", value.Int(99)))
	assert.True(t, value.Equal(
		obj(map[string]any{"list": []any{map[string]any{"n": 0}, map[string]any{"n": 99}}}),
		in.Snapshot(),
	))
}

// create({a:{b:5}}); set a.b = 5
func TestScenarioIdenticalWriteIsNoop(t *testing.T) {
	in := newTestInstance(t, Definition{Name: "m"}, map[string]any{"a": map[string]any{"b": 5}})
	before := in.Snapshot()
	got := watch(t, in)

	a, err := in.Root().Map("a")
	require.NoError(t, err)
	require.NoError(t, a.Set("b", value.Int(5)))

	assert.Same(t, before, in.Snapshot())
	assert.Empty(t, *got)
	assert.Equal(t, int64(1), in.Seq())
}

// create({a:{b:5}}); delete a.b
func TestScenarioDelete(t *testing.T) {
	in := newTestInstance(t, Definition{Name: "m"}, map[string]any{
		"a": map[string]any{"b": map[string]any{"c": 5}},
	})

	a, err := in.Root().Map("a")
	require.NoError(t, err)
	b, err := a.Map("b")
	require.NoError(t, err)

	require.NoError(t, a.Delete("b"))

	assert.True(t, value.Equal(obj(map[string]any{"a": map[string]any{}}), in.Snapshot()))
	assert.False(t, b.Valid())
	assert.ErrorIs(t, b.Set("c", value.Int(1)), proxy.ErrStaleInterceptor)
}

// create({x:[1,2,3]}); removeFirst twice
func TestScenarioRemoveFirstTwice(t *testing.T) {
	in := newTestInstance(t, Definition{Name: "m"}, map[string]any{
		"x": []any{[]any{1}, []any{2}, []any{3}},
	})

	x, err := in.Root().Seq("x")
	require.NoError(t, err)
	third, err := x.Seq(2)
	require.NoError(t, err)

	_, err = x.RemoveFirst()
	require.NoError(t, err)
	_, err = x.RemoveFirst()
	require.NoError(t, err)

	assert.True(t, value.Equal(obj(map[string]any{"x": []any{[]any{3}}}), in.Snapshot()))
	assert.Equal(t, "x[0]", third.Path().String())
}

func TestSnapshotsAreImmutableAndShareStructure(t *testing.T) {
	in := newTestInstance(t, Definition{Name: "m"}, map[string]any{
		"user":  map[string]any{"name": "ada"},
		"items": []any{map[string]any{"n": 1}, map[string]any{"n": 2}},
	})

	s0 := in.Snapshot()
	frozen := value.Clone(s0)

	items, err := in.Root().Seq("items")
	require.NoError(t, err)
	first, err := items.Map(0)
	require.NoError(t, err)
	require.NoError(t, first.Set("n", value.Int(10)))
	s1 := in.Snapshot()

	user, err := in.Root().Map("user")
	require.NoError(t, err)
	require.NoError(t, user.Set("name", value.String("bob")))

	assert.True(t, value.Equal(frozen, s0), "first snapshot changed")

	u0, _ := s0.Get("user")
	u1, _ := s1.Get("user")
	assert.Same(t, u0, u1)

	i0, _ := value.Lookup(s0, value.MustParsePath("items[1]"))
	i1, _ := value.Lookup(s1, value.MustParsePath("items[1]"))
	assert.Same(t, i0, i1)
}

func TestSnapshotPayloadNotAliasedToLiveGraph(t *testing.T) {
	in := newTestInstance(t, Definition{Name: "m"}, map[string]any{})

	require.NoError(t, in.Root().Set("cart", obj(map[string]any{"lines": []any{}})))
	s1 := in.Snapshot()

	cart, err := in.Root().Map("cart")
	require.NoError(t, err)
	lines, err := cart.Seq("lines")
	require.NoError(t, err)
	require.NoError(t, lines.Append(value.String("apple")))

	got, _ := value.Lookup(s1, value.MustParsePath("cart.lines"))
	assert.Equal(t, 0, got.(*value.Seq).Len())
}

func TestOnChangeSingleSlot(t *testing.T) {
	in := newTestInstance(t, Definition{Name: "m"}, map[string]any{"n": 0})

	var first, second int
	require.NoError(t, in.OnChange(func(*value.Map) { first++ }))
	require.NoError(t, in.Root().Set("n", value.Int(1)))

	require.NoError(t, in.OnChange(func(*value.Map) { second++ }))
	require.NoError(t, in.Root().Set("n", value.Int(2)))

	require.NoError(t, in.OnChange(nil))
	require.NoError(t, in.Root().Set("n", value.Int(3)))

	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)
}

func counterDef() Definition {
	return Definition{
		Name: "counter",
		Methods: map[string]Method{
			"inc": func(root *proxy.MapInterceptor, args ...value.Value) (value.Value, error) {
				cur, err := root.Get("n")
				if err != nil {
					return nil, err
				}
				step := value.Int(1)
				if len(args) > 0 {
					step = args[0].(value.Int)
				}
				next := cur.(value.Int) + step
				return next, root.Set("n", next)
			},
			"reset": func(root *proxy.MapInterceptor, _ ...value.Value) (value.Value, error) {
				return nil, root.Set("n", value.Int(0))
			},
		},
	}
}

func TestMethodsRouteThroughInterceptors(t *testing.T) {
	in := newTestInstance(t, counterDef(), map[string]any{"n": 0})
	got := watch(t, in)

	methods := in.Methods()
	require.Len(t, methods, 2)

	ret, err := methods["inc"]()
	require.NoError(t, err)
	assert.Equal(t, value.Int(1), ret)

	ret, err = in.Call("inc", value.Int(5))
	require.NoError(t, err)
	assert.Equal(t, value.Int(6), ret)

	_, err = in.Call("reset")
	require.NoError(t, err)

	assert.Len(t, *got, 3)
	n, _ := in.Snapshot().Get("n")
	assert.Equal(t, value.Int(0), n)
	assert.Equal(t, []string{"inc", "reset"}, counterDef().MethodNames())
}

func TestCallUnknownMethod(t *testing.T) {
	in := newTestInstance(t, counterDef(), map[string]any{"n": 0})

	_, err := in.Call("dec")
	require.Error(t, err)
	assert.True(t, IsUnknownMethod(err))
	assert.Contains(t, err.Error(), "UNKNOWN_METHOD")
}

func TestDestroy(t *testing.T) {
	in := newTestInstance(t, counterDef(), map[string]any{"n": 0, "sub": map[string]any{}})
	last := in.Snapshot()
	inc := in.Methods()["inc"]
	sub, err := in.Root().Map("sub")
	require.NoError(t, err)

	calls := 0
	require.NoError(t, in.OnChange(func(*value.Map) { calls++ }))

	in.Destroy()
	in.Destroy()

	assert.Equal(t, StateDestroyed, in.State())
	assert.Nil(t, in.Methods())
	assert.Same(t, last, in.Snapshot())

	_, err = inc()
	assert.True(t, IsDestroyed(err))

	_, err = in.Call("inc")
	assert.True(t, IsDestroyed(err))

	assert.True(t, IsDestroyed(in.OnChange(func(*value.Map) {})))

	assert.ErrorIs(t, in.Root().Set("n", value.Int(1)), proxy.ErrStaleInterceptor)
	assert.ErrorIs(t, sub.Set("k", value.Int(1)), proxy.ErrStaleInterceptor)
	assert.Equal(t, 0, calls)
}

func TestJournalRecordsEveryCommit(t *testing.T) {
	var entries []Entry
	journal := JournalFunc(func(e Entry) error {
		entries = append(entries, e)
		return nil
	})

	in := newTestInstance(t, counterDef(), map[string]any{"n": 0}, WithJournal(journal))
	_, err := in.Call("inc")
	require.NoError(t, err)
	_, err = in.Call("inc")
	require.NoError(t, err)

	require.Len(t, entries, 3)
	for i, e := range entries {
		assert.Equal(t, "inst-1", e.InstanceID)
		assert.Equal(t, "counter", e.Model)
		assert.Equal(t, int64(i+1), e.Seq)
		n, _ := e.State.Get("n")
		assert.Equal(t, value.Int(i), n)
	}
}

func TestJournalErrorDoesNotFailWrite(t *testing.T) {
	journal := JournalFunc(func(Entry) error { return errors.New("disk full") })
	in := newTestInstance(t, counterDef(), map[string]any{"n": 0}, WithJournal(journal))

	_, err := in.Call("inc")
	require.NoError(t, err)
	n, _ := in.Snapshot().Get("n")
	assert.Equal(t, value.Int(1), n)
}

func TestRestoreResumesFromSnapshot(t *testing.T) {
	var entries []Entry
	journal := JournalFunc(func(e Entry) error {
		entries = append(entries, e)
		return nil
	})

	snap := obj(map[string]any{"n": 41})
	in, err := Restore(counterDef(), snap,
		WithLogger(testutil.DiscardLogger()),
		WithClock(NewClockAt(7)),
		WithIDGenerator(NewFixedGenerator("restored")),
		WithJournal(journal),
	)
	require.NoError(t, err)

	assert.Equal(t, "restored", in.ID())
	assert.Equal(t, int64(7), in.Seq())
	assert.NotSame(t, snap, in.Snapshot())
	assert.Empty(t, entries)

	_, err = in.Call("inc")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(8), entries[0].Seq)

	n, _ := snap.Get("n")
	assert.Equal(t, value.Int(41), n)

	_, err = Restore(counterDef(), nil)
	assert.True(t, IsInvalidInitial(err))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "constructing", StateConstructing.String())
	assert.Equal(t, "live", StateLive.String())
	assert.Equal(t, "destroyed", StateDestroyed.String())
	assert.Equal(t, "state(9)", State(9).String())
}

package harness

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssertShared(t *testing.T) {
	s := mustParse(t, `
name: sharing
description: sibling subtrees are shared, written ones are not
initial:
  left: {n: 1}
  right: {n: 1}
  tag: x
steps:
  - op: set
    path: left.n
    value: 2
assertions:
  - type: shared
    path: right
    from: 1
    to: 2
    expect: true
  - type: shared
    path: left
    from: 1
    to: 2
    expect: false
`)
	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestAssertShared_Failures(t *testing.T) {
	s := mustParse(t, `
name: sharing_fail
description: shared assertions that cannot hold
initial:
  left: {n: 1}
  tag: x
steps:
  - op: set
    path: left.n
    value: 2
assertions:
  - type: shared
    path: left
    from: 1
    to: 2
    expect: true
  - type: shared
    path: tag
    from: 1
    to: 2
    expect: true
  - type: shared
    path: left
    from: 1
    to: 5
    expect: true
  - type: shared
    path: left
    from: 1
    to: 2
    expect: "yes"
`)
	result, err := Run(s)
	require.NoError(t, err)
	require.Len(t, result.Errors, 4)
	assert.Contains(t, result.Errors[0], `"left" shared between seq 1 and 2: expected true, got false`)
	assert.Contains(t, result.Errors[1], "not a container")
	assert.Contains(t, result.Errors[2], "no snapshot at seq 5")
	assert.Contains(t, result.Errors[3], "expect must be a bool")
}

func TestAssertHandles(t *testing.T) {
	s := mustParse(t, `
name: handles
description: handle path and validity after shifts
initial:
  xs:
    - {id: a}
    - {id: b}
    - {id: c}
steps:
  - op: bind
    name: a
    path: "xs[0]"
  - op: bind
    name: c
    path: "xs[2]"
  - op: prepend
    path: xs
    values: [{id: z}]
  - op: resize
    path: xs
    len: 3
assertions:
  - type: handle_path
    handle: a
    expect: "xs[1]"
  - type: handle_valid
    handle: a
    expect: true
  - type: handle_valid
    handle: c
    expect: false
  - type: snapshot
    path: xs
    expect:
      - {id: z}
      - {id: a}
      - {id: b}
`)
	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestAssertHandles_Failures(t *testing.T) {
	s := mustParse(t, `
name: handles_fail
description: wrong handle expectations
initial:
  xs: [[1]]
steps:
  - op: bind
    name: h
    path: "xs[0]"
assertions:
  - type: handle_path
    handle: h
    expect: "xs[3]"
  - type: handle_path
    handle: h
    expect: 3
  - type: handle_valid
    handle: h
    expect: false
`)
	result, err := Run(s)
	require.NoError(t, err)
	require.Len(t, result.Errors, 3)

	joined := strings.Join(result.Errors, "\n")
	assert.Contains(t, joined, "handle_path: expected xs[3], got xs[0]")
	assert.Contains(t, joined, "expect must be a path string")
	assert.Contains(t, joined, "handle_valid: expected false, got true")
}

func TestAssertionError_Message(t *testing.T) {
	err := &AssertionError{Type: AssertTransitions, Expected: 1, Actual: 2}
	assert.Equal(t, "transitions: expected 1, got 2", err.Error())

	err = &AssertionError{Type: AssertShared, Message: "custom"}
	assert.Equal(t, "shared: custom", err.Error())
}

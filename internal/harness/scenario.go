package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/hidux/internal/value"
)

// Scenario drives one model instance through a list of steps.
type Scenario struct {
	// Name uniquely identifies the scenario. Used for golden file names.
	Name string `yaml:"name"`

	// Description explains what the scenario checks.
	Description string `yaml:"description"`

	// Models is a directory of CUE model definitions, relative to the
	// scenario file. Optional when Initial is given.
	Models string `yaml:"models,omitempty"`

	// Model names the definition to instantiate from Models.
	Model string `yaml:"model,omitempty"`

	// Initial is the initial state. Overrides the model's declared initial
	// state when both are present.
	Initial map[string]any `yaml:"initial,omitempty"`

	// InstanceID fixes the instance id. Defaults to "<name>-1".
	InstanceID string `yaml:"instance_id,omitempty"`

	// Steps are applied in order.
	Steps []Step `yaml:"steps"`

	// Assertions are checked after the last step.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one operation on the live graph.
type Step struct {
	// Op is one of the Op* constants.
	Op string `yaml:"op"`

	// Path locates the target. For set and delete it names the field or
	// element; for sequence operations it names the sequence; for bind it
	// names the container to hold.
	Path string `yaml:"path,omitempty"`

	// Handle resolves Path from a bound handle instead of the root.
	Handle string `yaml:"handle,omitempty"`

	// Name is the handle name a bind step creates.
	Name string `yaml:"name,omitempty"`

	// Value is the set payload.
	Value any `yaml:"value,omitempty"`

	// Values are the append/prepend payload.
	Values []any `yaml:"values,omitempty"`

	// Len is the resize target.
	Len *int `yaml:"len,omitempty"`

	// ExpectChange, when set, checks whether the step produced a snapshot.
	ExpectChange *bool `yaml:"expect_change,omitempty"`

	// ExpectError, when set, requires the step to fail with this class.
	// One of the Err* class constants, or "any".
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Step operations.
const (
	OpSet         = "set"
	OpDelete      = "delete"
	OpAppend      = "append"
	OpRemoveLast  = "remove_last"
	OpPrepend     = "prepend"
	OpRemoveFirst = "remove_first"
	OpResize      = "resize"
	OpBind        = "bind"
	OpDestroy     = "destroy"
)

// Assertion checks the run after the last step.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Path locates a value in a snapshot. Empty means the whole snapshot.
	Path string `yaml:"path,omitempty"`

	// Seq selects a historical snapshot (snapshot_at). From and To select
	// the two snapshots compared by shared.
	Seq  int64 `yaml:"seq,omitempty"`
	From int64 `yaml:"from,omitempty"`
	To   int64 `yaml:"to,omitempty"`

	// Handle names a bound handle (handle_path, handle_valid).
	Handle string `yaml:"handle,omitempty"`

	// Count is the expected number of snapshot transitions (transitions).
	Count *int `yaml:"count,omitempty"`

	// Expect is the expected value: a snapshot subtree, a path string, or
	// a bool depending on Type.
	Expect any `yaml:"expect"`
}

// Assertion types.
const (
	AssertSnapshot    = "snapshot"
	AssertSnapshotAt  = "snapshot_at"
	AssertTransitions = "transitions"
	AssertHandlePath  = "handle_path"
	AssertHandleValid = "handle_valid"
	AssertShared      = "shared"
)

// LoadScenario reads and validates a scenario file. A relative Models
// directory is resolved against the file's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	s, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	if s.Models != "" && !filepath.IsAbs(s.Models) {
		s.Models = filepath.Join(filepath.Dir(path), s.Models)
	}
	if s.Models != "" {
		if _, err := os.Stat(s.Models); os.IsNotExist(err) {
			return nil, fmt.Errorf("invalid scenario: models directory not found: %s", s.Models)
		}
	}
	return s, nil
}

// ParseScenario decodes and validates scenario YAML. Unknown fields are
// rejected so typos fail loudly.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	if s.InstanceID == "" {
		s.InstanceID = s.Name + "-1"
	}
	return &s, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Models == "" && s.Initial == nil {
		return fmt.Errorf("either models or initial is required")
	}
	if s.Models != "" && s.Model == "" {
		return fmt.Errorf("model is required when models is set")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	handles := map[string]bool{}
	for i, step := range s.Steps {
		if err := validateStep(i, step, handles); err != nil {
			return err
		}
		if step.Op == OpBind {
			handles[step.Name] = true
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a, handles); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(i int, step Step, handles map[string]bool) error {
	if step.Handle != "" && !handles[step.Handle] {
		return fmt.Errorf("steps[%d]: handle %q is not bound by an earlier step", i, step.Handle)
	}
	if _, err := value.ParsePath(step.Path); err != nil {
		return fmt.Errorf("steps[%d]: %w", i, err)
	}
	if step.ExpectError != "" && !validErrorClass(step.ExpectError) {
		return fmt.Errorf("steps[%d]: unknown expect_error %q", i, step.ExpectError)
	}

	switch step.Op {
	case OpSet, OpDelete:
		if step.Path == "" {
			return fmt.Errorf("steps[%d]: path is required for %s", i, step.Op)
		}
	case OpAppend, OpPrepend:
		if len(step.Values) == 0 && step.ExpectChange == nil {
			return fmt.Errorf("steps[%d]: values is required for %s", i, step.Op)
		}
	case OpResize:
		if step.Len == nil {
			return fmt.Errorf("steps[%d]: len is required for resize", i)
		}
	case OpBind:
		if step.Name == "" {
			return fmt.Errorf("steps[%d]: name is required for bind", i)
		}
	case OpRemoveLast, OpRemoveFirst, OpDestroy:
	case "":
		return fmt.Errorf("steps[%d]: op is required", i)
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", i, step.Op)
	}
	return nil
}

func validateAssertion(i int, a Assertion, handles map[string]bool) error {
	if _, err := value.ParsePath(a.Path); err != nil {
		return fmt.Errorf("assertions[%d]: %w", i, err)
	}

	switch a.Type {
	case AssertSnapshot:
	case AssertSnapshotAt:
		if a.Seq <= 0 {
			return fmt.Errorf("assertions[%d]: seq is required for snapshot_at", i)
		}
	case AssertTransitions:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for transitions", i)
		}
	case AssertHandlePath, AssertHandleValid:
		if !handles[a.Handle] {
			return fmt.Errorf("assertions[%d]: handle %q is not bound", i, a.Handle)
		}
	case AssertShared:
		if a.From <= 0 || a.To <= 0 {
			return fmt.Errorf("assertions[%d]: from and to are required for shared", i)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", i)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", i, a.Type)
	}
	return nil
}

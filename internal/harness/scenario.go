package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/genstore/internal/engine"
	"github.com/roach88/genstore/internal/fault"
)

// DefaultOwner owns the contract when a scenario names no owner.
const DefaultOwner = "owner.near"

// Scenario is one contract deployment history.
type Scenario struct {
	// Name uniquely identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	Description string `yaml:"description"`

	// Owner is the contract's own principal. Steps without a caller run as
	// the owner.
	Owner string `yaml:"owner,omitempty"`

	Steps []Step `yaml:"steps"`

	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one call.
type Step struct {
	// Op is an operation name, or "construct".
	Op string `yaml:"op"`

	Caller string `yaml:"caller,omitempty"`

	Args engine.Args `yaml:"args,omitempty"`

	// Expect is a boolean expression over Result and Logs that must hold
	// after a successful call.
	Expect string `yaml:"expect,omitempty"`

	// Error is the fault code the call must fail with, e.g. UNAUTHORIZED.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates the trace or the final state.
type Assertion struct {
	Type string `yaml:"type"`

	// Op is used by trace_contains and trace_count.
	Op string `yaml:"op,omitempty"`

	// Outcome narrows trace_contains to steps that ended this way
	// ("ok" or a lowercased fault code).
	Outcome string `yaml:"outcome,omitempty"`

	// Count is used by trace_count.
	Count int `yaml:"count,omitempty"`

	// Ops is used by trace_order.
	Ops []string `yaml:"ops,omitempty"`

	// Expect is used by final_state.
	Expect string `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
)

var faultCodes = map[fault.Code]bool{
	fault.CodeAlreadyInitialized: true,
	fault.CodeUninitialized:      true,
	fault.CodeUnauthorized:       true,
	fault.CodeIndexOutOfRange:    true,
	fault.CodeNotFound:           true,
	fault.CodeVersionMismatch:    true,
	fault.CodeAlreadyMigrated:    true,
	fault.CodeInvalidArgument:    true,
	fault.CodeCorruptState:       true,
}

// LoadScenario reads and validates a scenario file. Unknown fields are
// rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if step.Op == "" {
			return fmt.Errorf("steps[%d]: op is required", i)
		}
		if _, ok := engine.Lookup(step.Op); !ok && step.Op != engine.OpConstruct {
			return fmt.Errorf("steps[%d]: unknown op %q", i, step.Op)
		}
		if step.Expect != "" && step.Error != "" {
			return fmt.Errorf("steps[%d]: expect and error are mutually exclusive", i)
		}
		if step.Error != "" && !faultCodes[fault.Code(step.Error)] {
			return fmt.Errorf("steps[%d]: unknown error code %q", i, step.Error)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertTraceContains:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Ops) == 0 {
			return fmt.Errorf("assertions[%d]: ops list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if a.Expect == "" {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

func (s *Scenario) owner() string {
	if s.Owner == "" {
		return DefaultOwner
	}
	return s.Owner
}

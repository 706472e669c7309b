package pipeline

import (
	"encoding/json"
	"fmt"
)

// OperatorConfig is one entry of an operator chain: the registry code and
// its opaque arguments.
type OperatorConfig struct {
	Op   string          `json:"op"`
	Args json.RawMessage `json:"args,omitempty"`
}

// RetryPerRecord configures retrying a single-record operator.
type RetryPerRecord struct {
	MaxRetries      int      `json:"maxRetries"`
	RetryDelayMs    int      `json:"retryDelayMs"`
	Backoff         string   `json:"backoff"` // FIXED | EXPONENTIAL
	RetryableErrors []string `json:"retryableErrors,omitempty"`
}

// TransformConfig is the parsed config for TRANSFORM/ENRICH steps: either a
// single {adapterCode, ...args} operator or an ordered operator chain.
type TransformConfig struct {
	AdapterCode    string          `json:"adapterCode,omitempty"`
	Args           json.RawMessage `json:"args,omitempty"`
	Operators      []OperatorConfig `json:"operators,omitempty"`
	RetryPerRecord *RetryPerRecord  `json:"retryPerRecord,omitempty"`
}

// Chain normalizes a TransformConfig into an operator chain regardless of
// whether it was declared as a single adapter or an explicit list.
func (c TransformConfig) Chain() []OperatorConfig {
	if len(c.Operators) > 0 {
		return c.Operators
	}
	if c.AdapterCode != "" {
		return []OperatorConfig{{Op: c.AdapterCode, Args: c.Args}}
	}
	return nil
}

// FieldSpec is the per-field rule set a VALIDATE step checks a record
// against.
type FieldSpec struct {
	Required  bool     `json:"required,omitempty"`
	Type      string   `json:"type,omitempty"` // string | number | boolean
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	MinLength *int     `json:"minLength,omitempty"`
	MaxLength *int     `json:"maxLength,omitempty"`
	Pattern   string   `json:"pattern,omitempty"`
	Enum      []any    `json:"enum,omitempty"`
}

// ValidationRule is the alternate {field, spec} declaration form, converted
// to the fields map by ValidateConfig.Fields().
type ValidationRule struct {
	Spec struct {
		Field string `json:"field"`
		FieldSpec
	} `json:"spec"`
}

// ValidateConfig is the parsed config for a VALIDATE step.
type ValidateConfig struct {
	FieldsRaw map[string]FieldSpec `json:"fields,omitempty"`
	Rules     []ValidationRule     `json:"rules,omitempty"`
	ErrorHandlingMode ErrorHandlingMode `json:"errorHandlingMode,omitempty"`
}

// Fields normalizes either declaration form into a field -> FieldSpec map.
func (c ValidateConfig) Fields() map[string]FieldSpec {
	if len(c.FieldsRaw) > 0 {
		return c.FieldsRaw
	}
	out := make(map[string]FieldSpec, len(c.Rules))
	for _, r := range c.Rules {
		out[r.Spec.Field] = r.Spec.FieldSpec
	}
	return out
}

// Condition is one clause of a ROUTE branch's `when` list. A record matches
// a branch only if every one of its conditions matches.
type Condition struct {
	Field string `json:"field"`
	Cmp   string `json:"cmp"`
	Value any    `json:"value,omitempty"`
}

// BranchSpec names one ROUTE branch and the conditions a record must
// satisfy to land in it.
type BranchSpec struct {
	Name string      `json:"name"`
	When []Condition `json:"when"`
}

// RouteConfig is the parsed config for a ROUTE step.
type RouteConfig struct {
	Branches []BranchSpec `json:"branches"`
}

// ParseTransformConfig decodes a TRANSFORM/ENRICH step's raw config.
func ParseTransformConfig(stepKey string, raw json.RawMessage) (TransformConfig, error) {
	var cfg TransformConfig
	if len(raw) == 0 {
		return cfg, nil
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return cfg, &ConfigError{StepKey: stepKey, Message: fmt.Sprintf("invalid transform config: %v", err), Cause: err}
	}
	return cfg, nil
}

// ParseValidateConfig decodes a VALIDATE step's raw config.
func ParseValidateConfig(stepKey string, raw json.RawMessage) (ValidateConfig, error) {
	var cfg ValidateConfig
	if len(raw) == 0 {
		return cfg, &ConfigError{StepKey: stepKey, Message: "VALIDATE step requires a config"}
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return cfg, &ConfigError{StepKey: stepKey, Message: fmt.Sprintf("invalid validate config: %v", err), Cause: err}
	}
	return cfg, nil
}

// ParseRouteConfig decodes a ROUTE step's raw config.
func ParseRouteConfig(stepKey string, raw json.RawMessage) (RouteConfig, error) {
	var cfg RouteConfig
	if len(raw) == 0 {
		return cfg, &ConfigError{StepKey: stepKey, Message: "ROUTE step requires a config"}
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return cfg, &ConfigError{StepKey: stepKey, Message: fmt.Sprintf("invalid route config: %v", err), Cause: err}
	}
	return cfg, nil
}

// AdapterConfig is the parsed config for EXTRACT/LOAD/EXPORT/FEED/SINK
// steps: an adapter code plus opaque adapter-specific arguments.
type AdapterConfig struct {
	AdapterCode string          `json:"adapterCode"`
	Args        json.RawMessage `json:"args,omitempty"`
}

// ParseAdapterConfig decodes an EXTRACT/LOAD/EXPORT/FEED/SINK step's raw
// config.
func ParseAdapterConfig(stepKey string, raw json.RawMessage) (AdapterConfig, error) {
	var cfg AdapterConfig
	if len(raw) == 0 {
		return cfg, &ConfigError{StepKey: stepKey, Message: "step requires an adapterCode config"}
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return cfg, &ConfigError{StepKey: stepKey, Message: fmt.Sprintf("invalid adapter config: %v", err), Cause: err}
	}
	if cfg.AdapterCode == "" {
		return cfg, &ConfigError{StepKey: stepKey, Message: "adapterCode is required"}
	}
	return cfg, nil
}

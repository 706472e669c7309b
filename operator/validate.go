package operator

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/dshills/etlgraph-go/pipeline"
	"github.com/dshills/etlgraph-go/record"
)

// checkField validates one record field against a FieldSpec, returning
// every violation message. required rejects null/missing/empty string;
// type/min/max/minLength/maxLength/pattern/enum apply only when the value
// is present (an absent, non-required field passes every other check).
func checkField(field string, spec pipeline.FieldSpec, rec record.Record) []string {
	v, ok := record.Get(rec, field)
	empty := !ok || v == nil || v == ""

	if spec.Required && empty {
		return []string{field + " is required"}
	}
	if empty {
		return nil
	}

	var errs []string
	if spec.Type != "" && !matchesType(v, spec.Type) {
		errs = append(errs, fmt.Sprintf("%s must be of type %s", field, spec.Type))
	}
	if f, ok := v.(float64); ok {
		if spec.Min != nil && f < *spec.Min {
			errs = append(errs, fmt.Sprintf("%s must be >= %v", field, *spec.Min))
		}
		if spec.Max != nil && f > *spec.Max {
			errs = append(errs, fmt.Sprintf("%s must be <= %v", field, *spec.Max))
		}
	}
	if s, ok := v.(string); ok {
		if spec.MinLength != nil && len(s) < *spec.MinLength {
			errs = append(errs, fmt.Sprintf("%s must have length >= %d", field, *spec.MinLength))
		}
		if spec.MaxLength != nil && len(s) > *spec.MaxLength {
			errs = append(errs, fmt.Sprintf("%s must have length <= %d", field, *spec.MaxLength))
		}
		if spec.Pattern != "" {
			if re, err := regexp.Compile(spec.Pattern); err != nil || !re.MatchString(s) {
				errs = append(errs, fmt.Sprintf("%s does not match pattern", field))
			}
		}
	}
	if len(spec.Enum) > 0 && !enumContains(spec.Enum, v) {
		errs = append(errs, fmt.Sprintf("%s must be one of the allowed values", field))
	}
	return errs
}

func matchesType(v any, t string) bool {
	switch t {
	case "string":
		_, ok := v.(string)
		return ok
	case "number":
		_, ok := v.(float64)
		return ok
	case "boolean":
		_, ok := v.(bool)
		return ok
	default:
		return true
	}
}

func enumContains(enum []any, v any) bool {
	for _, e := range enum {
		if looseEqual(e, v) {
			return true
		}
	}
	return false
}

// ExecuteValidate runs a VALIDATE step: every field rule is checked
// against every record (fields in sorted order, so the report is stable),
// and a failing record is dropped and reported once via onRecordError.
// Both errorHandlingModes drop the record; COLLECT joins every violation
// with "; ", FAIL_FAST surfaces only the first.
func (e *Executor) ExecuteValidate(ctx context.Context, step pipeline.Step, in []record.Record, onErr pipeline.OnRecordError) ([]record.Record, error) {
	cfg, err := pipeline.ParseValidateConfig(step.Key, step.Config)
	if err != nil {
		return nil, err
	}
	fields := cfg.Fields()
	names := make([]string, 0, len(fields))
	for f := range fields {
		names = append(names, f)
	}
	sort.Strings(names)
	failFast := cfg.ErrorHandlingMode == pipeline.ErrorModeFailFast

	out := make([]record.Record, 0, len(in))
	for _, rec := range in {
		var allErrs []string
		for _, field := range names {
			allErrs = append(allErrs, checkField(field, fields[field], rec)...)
			if failFast && len(allErrs) > 0 {
				break
			}
		}
		if len(allErrs) > 0 {
			if onErr != nil {
				msg := strings.Join(allErrs, "; ")
				if failFast {
					msg = allErrs[0]
				}
				onErr(step.Key, msg, rec)
			}
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

package operator

import (
	"context"
	"encoding/json"
	"regexp"

	"github.com/dshills/etlgraph-go/record"
)

type requiredArgs struct {
	Field string `json:"field"`
}

// validateRequiredOperator is the "validateRequired" built-in, usable
// directly inside an operator chain (independent of the VALIDATE step
// type, which runs its own field-spec pass — see validate.go).
type validateRequiredOperator struct{}

func (validateRequiredOperator) ApplyOne(ctx context.Context, rec record.Record, args json.RawMessage, h Helpers) (record.Record, bool, error) {
	var a requiredArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, false, err
	}
	v, ok := record.Get(rec, a.Field)
	if !ok || v == nil || v == "" {
		return nil, false, nil
	}
	return rec, true, nil
}

type formatArgs struct {
	Field   string `json:"field"`
	Pattern string `json:"pattern"`
}

// validateFormatOperator is the "validateFormat" built-in: drops records
// whose field doesn't match a regex.
type validateFormatOperator struct{}

func (validateFormatOperator) ApplyOne(ctx context.Context, rec record.Record, args json.RawMessage, h Helpers) (record.Record, bool, error) {
	var a formatArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, false, err
	}
	v, ok := record.Get(rec, a.Field)
	s, strOk := v.(string)
	if !ok || !strOk {
		return nil, false, nil
	}
	re, err := regexp.Compile(a.Pattern)
	if err != nil {
		return nil, false, err
	}
	if !re.MatchString(s) {
		return nil, false, nil
	}
	return rec, true, nil
}

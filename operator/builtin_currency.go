package operator

import (
	"context"
	"encoding/json"

	"github.com/dshills/etlgraph-go/record"
)

type currencyArgs struct {
	AmountField   string `json:"amountField"`
	CurrencyField string `json:"currencyField"`
	Target        string `json:"target"`
	Mode          string `json:"mode"` // "format" | "toMinor" | "fromMinor"
	Locale        string `json:"locale,omitempty"`
}

// currencyOperator is the "currency" built-in: formats, or converts to/from
// minor units, a monetary field.
type currencyOperator struct{}

func (currencyOperator) ApplyOne(ctx context.Context, rec record.Record, args json.RawMessage, h Helpers) (record.Record, bool, error) {
	var a currencyArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, false, err
	}
	amount, _ := record.Get(rec, a.AmountField)
	currency, _ := record.Get(rec, a.CurrencyField)
	currencyCode, _ := currency.(string)

	switch a.Mode {
	case "toMinor":
		f, _ := amount.(float64)
		minor := h.Convert.ToMinorUnits(f, currencyCode)
		return record.Set(rec, a.Target, minor), true, nil
	case "fromMinor":
		var minor int64
		switch v := amount.(type) {
		case float64:
			minor = int64(v)
		case int64:
			minor = v
		}
		return record.Set(rec, a.Target, h.Convert.FromMinorUnits(minor, currencyCode)), true, nil
	default: // format
		f, _ := amount.(float64)
		locale := a.Locale
		if locale == "" {
			locale = h.Format.Locale
		}
		return record.Set(rec, a.Target, record.FormatCurrency(f, currencyCode, locale)), true, nil
	}
}

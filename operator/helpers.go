package operator

import (
	"context"
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec // spec mandates SHA-1 for crypto.hash, not a security boundary
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/etlgraph-go/record"
)

// FormatHelpers is helpers.format.{currency,date,number,template}.
type FormatHelpers struct {
	Locale string
}

func (f FormatHelpers) Currency(amount float64, currency string) string {
	return record.FormatCurrency(amount, currency, f.Locale)
}

func (f FormatHelpers) Number(v float64, precision int) string {
	return record.FormatNumber(v, precision, f.Locale)
}

func (f FormatHelpers) Date(t time.Time, layout string) string {
	return record.FormatDate(t, layout)
}

func (f FormatHelpers) Template(s string, data record.Record) string {
	return record.FormatTemplate(s, data)
}

// ConvertHelpers is helpers.convert.{toMinorUnits,fromMinorUnits,unit,parseDate}.
type ConvertHelpers struct{}

func (ConvertHelpers) ToMinorUnits(amount float64, currency string) int64 {
	return record.ToMinorUnits(amount, currency)
}

func (ConvertHelpers) FromMinorUnits(minor int64, currency string) float64 {
	return record.FromMinorUnits(minor, currency)
}

func (ConvertHelpers) Unit(amount float64, from, to string) float64 {
	return record.ConvertUnit(amount, from, to)
}

func (ConvertHelpers) ParseDate(value string) (time.Time, error) {
	return record.ParseDate(value)
}

// CryptoHelpers is helpers.crypto.{hash,hmac,uuid}.
type CryptoHelpers struct{}

// Hash returns the stable SHA-1 hash of v's canonical serialization.
func (CryptoHelpers) Hash(v any) string {
	return record.HashStable(v)
}

// HMAC computes HMAC-SHA1 over v's canonical serialization using key.
func (CryptoHelpers) HMAC(v any, key string) string {
	mac := hmac.New(sha1.New, []byte(key)) //nolint:gosec // spec-mandated SHA-1 family
	mac.Write([]byte(record.StableStringify(v)))
	return hex.EncodeToString(mac.Sum(nil))
}

// UUID generates a random (v4) UUID.
func (CryptoHelpers) UUID() string {
	return uuid.NewString()
}

// SecretsHelpers is helpers.secrets.get(code), backed by the external
// SecretResolver set in the Helpers passed to NewExecutor.
type SecretsHelpers struct {
	Resolver SecretResolver
}

// SecretResolver is the one-method secret lookup contract, defined in this
// package; adapters.EnvSecretResolver is one implementation.
type SecretResolver interface {
	Resolve(ctx context.Context, code string) (string, bool, error)
}

func (s SecretsHelpers) Get(ctx context.Context, code string) (string, bool, error) {
	if s.Resolver == nil {
		return "", false, nil
	}
	return s.Resolver.Resolve(ctx, code)
}

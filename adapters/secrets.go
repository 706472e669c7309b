package adapters

import (
	"context"
	"os"
	"strings"
)

// EnvSecretResolver implements operator's SecretResolver by mapping a
// secret code to an environment variable: dots and hyphens are upper-cased
// and underscore-normalized so "stripe.apiKey" resolves ETL_SECRET_STRIPE_APIKEY.
type EnvSecretResolver struct {
	Prefix string // defaults to "ETL_SECRET_"
}

// NewEnvSecretResolver builds a resolver using the default ETL_SECRET_
// prefix.
func NewEnvSecretResolver() EnvSecretResolver {
	return EnvSecretResolver{Prefix: "ETL_SECRET_"}
}

func (r EnvSecretResolver) Resolve(ctx context.Context, code string) (string, bool, error) {
	prefix := r.Prefix
	if prefix == "" {
		prefix = "ETL_SECRET_"
	}
	key := prefix + envName(code)
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false, nil
	}
	return v, true, nil
}

func envName(code string) string {
	replacer := strings.NewReplacer(".", "_", "-", "_")
	return strings.ToUpper(replacer.Replace(code))
}

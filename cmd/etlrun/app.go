package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/dshills/etlgraph-go/adapters"
	"github.com/dshills/etlgraph-go/checkpoint"
	"github.com/dshills/etlgraph-go/dispatch"
	"github.com/dshills/etlgraph-go/expr"
	"github.com/dshills/etlgraph-go/operator"
	"github.com/dshills/etlgraph-go/pipeline"
	"github.com/dshills/etlgraph-go/throughput"
)

// App is the wired runtime every subcommand drives: one scheduler with
// its registries, checkpoint store, and logger, built from the viper
// config layered under ETLRUN_* environment variables.
type App struct {
	Log       zerolog.Logger
	Scheduler *pipeline.Scheduler
}

func newApp(flags *rootFlags) (*App, error) {
	v := viper.New()
	v.SetDefault("log.level", "info")
	v.SetDefault("checkpoint.driver", "memory")
	v.SetDefault("checkpoint.sqlite.path", "etlrun-checkpoints.db")
	v.SetDefault("locale", "en-US")

	v.SetEnvPrefix("ETLRUN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags.configFile != "" {
		v.SetConfigFile(flags.configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", flags.configFile, err)
		}
	} else {
		v.SetConfigName("etlrun")
		v.AddConfigPath(".")
		// A missing default config file is fine; a malformed one is not.
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	level, err := zerolog.ParseLevel(v.GetString("log.level"))
	if err != nil {
		level = zerolog.InfoLevel
	}
	if flags.verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger().Level(level)

	store, err := newCheckpointStore(v)
	if err != nil {
		return nil, err
	}

	registry := operator.NewRegistry()
	registry.SetScriptEvaluator(expr.NewOperatorAdapter(expr.NewEvaluator()))
	helpers := operator.Helpers{
		Format:  operator.FormatHelpers{Locale: v.GetString("locale")},
		Secrets: operator.SecretsHelpers{Resolver: adapters.NewEnvSecretResolver()},
	}

	extractors := dispatch.NewRegistry[pipeline.Extractor]()
	extractors.Register("seed", adapters.SeedExtractor{})
	extractors.Register("csv", adapters.CSVExtractor{})
	extractors.Register("rest", adapters.RESTExtractor{})

	loaders := dispatch.NewRegistry[pipeline.Loader]()
	loaders.Register("sink", adapters.SinkLoader{})
	loaders.Register("csv", adapters.CSVLoader{})
	loaders.Register("rest", adapters.RESTLoader{})

	sched := &pipeline.Scheduler{
		Transform:   operator.NewExecutor(registry, helpers),
		Extractors:  extractors,
		Loaders:     loaders,
		Throughput:  throughput.New(),
		Gate:        pipeline.StandardGate{},
		Checkpoints: checkpoint.NewManager(store, logger),
	}

	return &App{Log: logger, Scheduler: sched}, nil
}

func newCheckpointStore(v *viper.Viper) (checkpoint.Store, error) {
	switch driver := v.GetString("checkpoint.driver"); driver {
	case "memory":
		return checkpoint.NewMemoryStore(), nil
	case "sqlite":
		return checkpoint.NewSQLiteStore(v.GetString("checkpoint.sqlite.path"))
	case "mysql":
		dsn := v.GetString("checkpoint.mysql.dsn")
		if dsn == "" {
			return nil, fmt.Errorf("checkpoint.mysql.dsn is required for the mysql driver")
		}
		return checkpoint.NewMySQLStore(dsn)
	default:
		return nil, fmt.Errorf("unknown checkpoint driver %q", driver)
	}
}

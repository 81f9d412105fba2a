package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/iwvelando/pricing-advisor/internal/config"
	"github.com/iwvelando/pricing-advisor/internal/orchestrator"
	"github.com/iwvelando/pricing-advisor/internal/refdata"
	"github.com/iwvelando/pricing-advisor/internal/winmodel"
	"github.com/iwvelando/pricing-advisor/pkg/constants"
	"github.com/iwvelando/pricing-advisor/pkg/output"
	"github.com/iwvelando/pricing-advisor/pkg/validation"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app carries global flags and the state built from them before a
// subcommand runs.
type app struct {
	configPath   string
	logLevel     string
	outputFormat string

	conf   *config.Configuration
	logger *zap.Logger
	out    io.Writer
}

// store is a reference data source that can also hand out whole tables.
type store interface {
	refdata.Gateway
	refdata.Source
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "pricing-advisor",
		Short: "Multi-agent price recommendations for B2B quotes",
		Long: "pricing-advisor combines policy bounds, demand elasticity and a trained\n" +
			"win-probability model to recommend floor, target and stretch prices.",
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	f := root.PersistentFlags()
	f.StringVarP(&a.configPath, "config", "c", constants.DefaultConfigFile, "path to configuration file")
	f.StringVar(&a.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	f.StringVarP(&a.outputFormat, "output-format", "o", "", "type of output override: pretty, json")

	root.AddCommand(
		a.trainCmd(),
		a.importCmd(),
		a.recommendCmd(),
		a.scoreCmd(),
		a.curveCmd(),
		a.demandCurveCmd(),
		a.compareCmd(),
		a.batchCmd(),
		a.serveCmd(),
	)
	root.Version = version
	return root
}

// setup loads configuration and builds the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	conf, err := a.loadConfiguration(cmd)
	if err != nil {
		return err
	}

	if a.outputFormat != "" {
		if err := validation.ValidateOutputFormat(a.outputFormat); err != nil {
			return err
		}
		conf.Output.Format = a.outputFormat
	}
	if err := conf.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := initializeLogger(conf.Logging, a.logLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	a.conf = conf
	a.logger = logger
	a.out = cmd.OutOrStdout()
	return nil
}

// loadConfiguration reads --config. A missing file falls back to defaults
// unless the flag was given explicitly.
func (a *app) loadConfiguration(cmd *cobra.Command) (*config.Configuration, error) {
	if !cmd.Flags().Changed("config") {
		if _, err := os.Stat(a.configPath); errors.Is(err, fs.ErrNotExist) {
			return config.Default()
		}
	}
	conf, err := config.LoadConfiguration(a.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration at %s: %w", a.configPath, err)
	}
	return conf, nil
}

// openStore opens the configured reference data source.
func (a *app) openStore() (store, func(), error) {
	switch a.conf.Data.Source {
	case config.SourceSQLite:
		s, err := refdata.OpenSQLite(a.logger, a.conf.Data.Database)
		if err != nil {
			return nil, nil, err
		}
		closer := func() {
			if err := s.Close(); err != nil {
				a.logger.Warn("failed to close reference database",
					zap.String("op", "main.openStore"),
					zap.Error(err),
				)
			}
		}
		return s, closer, nil
	default:
		s, err := refdata.LoadCSV(a.logger, a.conf.Data.Dir)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	}
}

// loadModel reads the trained win-rate artifact.
func (a *app) loadModel() (*winmodel.Model, error) {
	m, err := winmodel.Load(a.logger, a.conf.Model.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: no model at %s, run `pricing-advisor train` first", orchestrator.ErrModelUnavailable, a.conf.Model.Path)
		}
		return nil, err
	}
	return m, nil
}

// newOrchestrator wires the pipeline from configuration.
func (a *app) newOrchestrator() (*orchestrator.Orchestrator, *winmodel.Model, func(), error) {
	model, err := a.loadModel()
	if err != nil {
		return nil, nil, nil, err
	}
	s, closer, err := a.openStore()
	if err != nil {
		return nil, nil, nil, err
	}
	o, err := orchestrator.New(a.logger, s, model, orchestrator.Options{
		GridWorkers:  a.conf.Pricing.GridWorkers,
		BatchWorkers: a.conf.Batch.Workers,
		CacheSize:    a.conf.Cache.Size,
		CacheTTL:     a.conf.Cache.TTLDuration(),
	})
	if err != nil {
		closer()
		return nil, nil, nil, err
	}
	return o, model, closer, nil
}

// render writes v as JSON or through pretty, depending on the output format.
func (a *app) render(v any, pretty func(io.Writer)) error {
	if a.conf.Output.Format == constants.OutputFormatJSON {
		return output.JSON(a.out, v)
	}
	pretty(a.out)
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

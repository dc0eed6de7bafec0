package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/iwvelando/brrrr-analyzer/internal/brrrr"
	"github.com/iwvelando/brrrr-analyzer/internal/config"
	"github.com/iwvelando/brrrr-analyzer/pkg/constants"
	"github.com/iwvelando/brrrr-analyzer/pkg/output"
	"github.com/iwvelando/brrrr-analyzer/pkg/rules"
	"github.com/iwvelando/brrrr-analyzer/pkg/validation"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// app holds what every command shares once the configuration is loaded.
type app struct {
	configPath   string
	logLevel     string
	outputFormat string

	conf   *config.Configuration
	logger *zap.Logger
	store  *rules.Store
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "brrrr-analyzer",
		Short: "Analyze BRRRR real-estate deals under Canadian mortgage rules",
		Long: `Analyze Buy-Rehab-Rent-Refinance-Repeat deals under BSIF B-20 and CMHC
rules with Québec transfer taxes: full phase-by-phase projections, quick
estimates, sensitivity matrices, timelines and an HTTP API.`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&a.configPath, "config", constants.DefaultConfigFile, "path to configuration file")
	f.StringVar(&a.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	f.StringVarP(&a.outputFormat, "output-format", "o", "", "type of output override: pretty, csv, json")

	root.AddCommand(
		a.analyzeCmd(),
		a.quickCmd(),
		a.helocCmd(),
		a.transferTaxCmd(),
		a.sensitivityCmd(),
		a.timelineCmd(),
		a.optimizeCmd(),
		a.scheduleCmd(),
		a.extractCmd(),
		a.rulesCmd(),
		a.serveCmd(),
	)
	return root
}

// setup loads the configuration and builds the logger and rules store.
// The output format flag takes precedence over the configured one.
func (a *app) setup(*cobra.Command, []string) error {
	conf, err := config.LoadConfiguration(a.configPath)
	if err != nil {
		return eris.Wrapf(err, "failed to load configuration at %s", a.configPath)
	}

	logger, err := config.NewLogger(conf.Logging, a.logLevel)
	if err != nil {
		return eris.Wrap(err, "failed to initialize logger")
	}

	if a.outputFormat == "" {
		a.outputFormat = conf.Output.Format
	}
	a.outputFormat = strings.ToLower(a.outputFormat)
	if err := validation.ValidateOutputFormat(a.outputFormat); err != nil {
		return err
	}

	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	store, err := rules.NewStore(logger, conf.Rules)
	if err != nil {
		return eris.Wrap(err, "failed to load rules")
	}

	a.conf, a.logger, a.store = conf, logger, store
	return nil
}

func (a *app) engine() *brrrr.Engine {
	return brrrr.NewEngine(a.logger, a.store, a.conf.Assumptions)
}

func (a *app) render(cmd *cobra.Command, v any) error {
	return output.Render(cmd.OutOrStdout(), a.outputFormat, v)
}

// encodingFor picks YAML for .yaml and .yml files and JSON otherwise.
func encodingFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return validation.EncodingYAML
	}
	return validation.EncodingJSON
}

// readInput decodes the file at path into v; "-" reads JSON from stdin.
func readInput(cmd *cobra.Command, path string, v any) error {
	var r io.Reader
	encoding := encodingFor(path)
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return eris.Wrapf(err, "failed to open %s", path)
		}
		defer func() {
			_ = f.Close()
		}()
		r = f
	}
	if err := validation.Decode(r, encoding, v); err != nil {
		return eris.Wrapf(err, "failed to read %s", path)
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "{\"op\": \"main\", \"level\": \"fatal\", \"error\": %q}\n", err.Error())
		stop()
		os.Exit(1)
	}
}

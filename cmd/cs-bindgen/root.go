package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/cs-bindgen/config"
	"github.com/wippyai/cs-bindgen/generator"
	"github.com/wippyai/cs-bindgen/loader"
	"github.com/wippyai/cs-bindgen/pipeline"
)

// defaultConfigFile is read when present and no --config is given.
const defaultConfigFile = "cs-bindgen.yaml"

var (
	// Global flags
	cfgFile   string
	logLevel  string
	logFormat string
	source    string
	engine    string

	// cfg is loaded before any subcommand runs.
	cfg *config.Config
	log *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "cs-bindgen",
	Short: "Generate C# bindings for WebAssembly modules",
	Long: `cs-bindgen recovers the declarations embedded in a compiled WebAssembly
module and generates a C# source file that calls the exported functions
through P/Invoke.

Commands:
  cs-bindgen generate <module.wasm>   # write C# bindings
  cs-bindgen inspect <module.wasm>    # list declarations
  cs-bindgen wit <module.wasm>        # print the WIT projection
  cs-bindgen embed <module.wasm>      # bake declarations into a custom section`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, paint(os.Stderr, errorStyle, "error:"), err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", "", "config file path (yaml or toml)")
	pf.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&logFormat, "log-format", "", "log format: console or json")
	pf.StringVar(&source, "source", "", "declaration source: auto, execute or section")
	pf.StringVar(&engine, "engine", "", "wazero engine: interpreter or compiler")
}

// setup loads configuration, applies flag overrides and installs the logger.
func setup(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			path = defaultConfigFile
		}
	}

	var err error
	if path != "" {
		cfg, err = config.Load(path)
		if err != nil {
			return err
		}
	} else {
		cfg = config.Default()
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	if source != "" {
		cfg.Loader.Source = source
	}
	if engine != "" {
		cfg.Loader.Engine = engine
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err = newLogger(cfg.Logging)
	if err != nil {
		return err
	}
	installLogger(log)
	return nil
}

func installLogger(l *zap.Logger) {
	loader.SetLogger(l.Named("loader"))
	generator.SetLogger(l.Named("generator"))
	pipeline.SetLogger(l.Named("pipeline"))
}

// moduleArg resolves the module path from the arguments or the config.
func moduleArg(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if cfg.Module != "" {
		return cfg.Module, nil
	}
	return "", fmt.Errorf("no module given: pass <module.wasm> or set module in the config")
}

// pipelineOptions builds the run options for module from the config. A
// library name derived from the configured module does not carry over to a
// different module given on the command line.
func pipelineOptions(module string) pipeline.Options {
	gen := cfg.GeneratorConfig()
	if module != cfg.Module && cfg.Module != "" && gen.Library == stem(cfg.Module) {
		gen.Library = ""
	}
	return pipeline.Options{
		Module:    module,
		Output:    cfg.Output,
		Stdout:    os.Stdout,
		Loader:    cfg.LoaderOptions(),
		Generator: gen,
	}
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

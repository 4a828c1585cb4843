package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/cs-bindgen/pipeline"
)

var (
	genOutput    string
	genNamespace string
	genClass     string
	genLibrary   string
	genWatch     bool
)

var generateCmd = &cobra.Command{
	Use:   "generate [module.wasm]",
	Short: "Generate C# bindings for a module",
	Long: `Generate loads the module, recovers its declarations and writes one C#
source file. Without --output the bindings go to stdout.

With --watch the command keeps running and regenerates the bindings each
time the module file changes. A failed run is logged and leaves the
previous output in place.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.StringVarP(&genOutput, "output", "o", "", "output file (default stdout)")
	f.StringVar(&genNamespace, "namespace", "", "C# namespace of the generated code")
	f.StringVar(&genClass, "class", "", "name of the static bindings class")
	f.StringVar(&genLibrary, "library", "", "native library name used in DllImport")
	f.BoolVarP(&genWatch, "watch", "w", false, "regenerate when the module changes")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	module, err := moduleArg(args)
	if err != nil {
		return err
	}
	opts := generateOptions(module)

	if !genWatch {
		res, err := pipeline.Run(cmd.Context(), opts)
		if err != nil {
			return err
		}
		report(res)
		return nil
	}

	if opts.Output == "" {
		return fmt.Errorf("--watch requires --output")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	regenerate := func(ctx context.Context) error {
		res, err := pipeline.Run(ctx, opts)
		if err != nil {
			return err
		}
		report(res)
		return nil
	}
	if err := regenerate(ctx); err != nil {
		log.Error("initial generation failed", zap.Error(err))
	}

	w := &fileWatcher{path: module, fn: regenerate, logger: log}
	return w.Watch(ctx)
}

// generateOptions applies the command line flags over the config.
func generateOptions(module string) pipeline.Options {
	opts := pipelineOptions(module)
	if genOutput != "" {
		opts.Output = genOutput
	}
	if genNamespace != "" {
		opts.Generator.Namespace = genNamespace
	}
	if genClass != "" {
		opts.Generator.ClassName = genClass
	}
	if genLibrary != "" {
		opts.Generator.Library = genLibrary
	}
	return opts
}

func report(res *pipeline.Result) {
	if res.Output == "" {
		return
	}
	fmt.Fprintf(os.Stderr, "%s %s (%d types, %d functions, %d methods, %d bytes)\n",
		paint(os.Stderr, resultStyle, "wrote"), res.Output,
		res.Types, res.Functions, res.Methods, res.Bytes)
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wippyai/cs-bindgen/pipeline"
)

var embedOutput string

var embedCmd = &cobra.Command{
	Use:   "embed [module.wasm]",
	Short: "Write a copy of the module with its declarations in a custom section",
	Long: `Embed runs the declaration entry points of the module once and writes a
copy that carries the decoded declarations in a custom section. Loading the
copy reads the section and never executes module code.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		module, err := moduleArg(args)
		if err != nil {
			return err
		}
		opts := pipelineOptions(module)
		opts.Output = embedOutput

		res, err := pipeline.Embed(cmd.Context(), opts)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "%s %s (%d declarations, %d bytes)\n",
			paint(os.Stderr, resultStyle, "wrote"), res.Output, res.Declarations, res.Bytes)
		return nil
	},
}

func init() {
	embedCmd.Flags().StringVarP(&embedOutput, "output", "o", "", "output module path")
	_ = embedCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(embedCmd)
}

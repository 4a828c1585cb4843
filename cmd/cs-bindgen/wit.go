package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wippyai/cs-bindgen/pipeline"
)

var witInterface string

var witCmd = &cobra.Command{
	Use:   "wit [module.wasm]",
	Short: "Print the declarations as a WIT interface",
	Long: `Wit projects the recovered declarations onto the WebAssembly Interface
Type model and prints one interface. Handle types become resources, value
structs become records and enums become enums or variants.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		module, err := moduleArg(args)
		if err != nil {
			return err
		}
		text, err := pipeline.WIT(cmd.Context(), pipelineOptions(module), witInterface)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), text)
		return err
	},
}

func init() {
	witCmd.Flags().StringVar(&witInterface, "interface", "", "interface name (default: module file name)")
	rootCmd.AddCommand(witCmd)
}

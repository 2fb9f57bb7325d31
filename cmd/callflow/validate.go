package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dialgraph/callflow/pkg/script"
)

var validateCmd = &cobra.Command{
	Use:   "validate <script-file>",
	Short: "Validate a script document",
	Long:  `Parses a YAML or JSON script document and checks its flow graph: a greeting stage must exist, every next_stage must resolve, terminal stages carry no rules, and extraction patterns must compile.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scr, err := script.LoadFile(args[0])
		if err != nil {
			return err
		}

		if scr.IsLegacy() {
			fmt.Printf("%s: valid (legacy flat script)\n", args[0])
			return nil
		}
		fmt.Printf("%s: valid (%d stages)\n", args[0], len(scr.Stages))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "callflow",
	Short: "callflow is a conversation flow engine for scripted voice calls",
	Long:  `callflow interprets campaign dialog graphs: it matches caller speech against scripted response patterns, extracts structured facts, and decides what the automated agent says next.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

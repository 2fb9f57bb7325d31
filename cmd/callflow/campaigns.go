package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dialgraph/callflow/pkg/script"
)

var campaignsCmd = &cobra.Command{
	Use:   "campaigns",
	Short: "List the built-in campaigns and industry templates",
	Run: func(cmd *cobra.Command, args []string) {
		repo := script.NewRepository()

		fmt.Println("Campaigns:")
		for _, c := range repo.Campaigns() {
			fmt.Printf("  %-14s %-32s industry=%s\n", c.ID, c.Name, c.Industry)
		}

		fmt.Println("\nIndustries:")
		for _, ind := range repo.Industries() {
			fmt.Printf("  %-14s %s\n", ind.ID, ind.Name)
		}
	},
}

func init() {
	rootCmd.AddCommand(campaignsCmd)
}

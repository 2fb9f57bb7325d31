package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dialgraph/callflow"
)

// simulateCmd drives one scripted conversation from the terminal, standing in
// for the telephony provider: each line typed is treated as a transcribed
// caller utterance.
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run an interactive conversation in the terminal",
	Long:  `Starts a conversation against the in-memory engine and reads caller utterances from stdin, printing what the agent would say on each turn.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		campaignID, _ := cmd.Flags().GetString("campaign")

		stack := callflow.New()
		callID := uuid.NewString()
		ctx := cmd.Context()

		result, err := stack.Engine.Greeting(ctx, callID, campaignID)
		if err != nil {
			return fmt.Errorf("failed to start conversation: %w", err)
		}
		fmt.Printf("agent: %s\n", result.Message)

		scanner := bufio.NewScanner(os.Stdin)
		for !result.EndCall {
			fmt.Print("caller: ")
			if !scanner.Scan() {
				break
			}
			input := strings.TrimSpace(scanner.Text())

			result, err = stack.Engine.Process(ctx, callID, campaignID, input)
			if err != nil {
				return fmt.Errorf("failed to process turn: %w", err)
			}
			fmt.Printf("agent: %s\n", result.Message)
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}

		sess, err := stack.Sessions.Get(ctx, callID)
		if err == nil {
			fmt.Printf("\nstages visited: %s\n", strings.Join(append(sess.PreviousStages, sess.Stage), " -> "))
			if len(sess.Data) > 0 {
				fmt.Println("collected data:")
				for k, v := range sess.Data {
					fmt.Printf("  %s: %s\n", k, v)
				}
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().StringP("campaign", "c", "campaign_001", "Campaign to run")
}

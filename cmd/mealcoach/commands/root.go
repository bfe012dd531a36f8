// ABOUTME: Root command wiring for the meal coach CLI
// ABOUTME: Subcommands cover serving, profile management, and meal history
package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mealcoach",
		Short: "Personal meal recommendation assistant",
		Long: `Meal Coach suggests healthier meals from what you ate or what you
have on hand, generates full recipes, and learns your preferences
from feedback over time.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewProfileCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the CLI
func Execute() error {
	return NewRootCmd().Execute()
}

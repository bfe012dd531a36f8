// ABOUTME: CLI command to list past meals with their feedback
// ABOUTME: Shows saved recipes and whether they were liked or cooked again
package commands

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	historyFormat string
	historyLimit  int
)

// NewHistoryCmd creates the history command
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past meals and feedback",
		Long: `List past meals with any feedback you gave on them.

Examples:
  mealcoach history
  mealcoach history --limit 50
  mealcoach history --format json`,
		RunE: runHistory,
	}

	cmd.Flags().StringVar(&historyFormat, "format", "table", "Output format (table or json)")
	cmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of meals to show")

	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	cfg, store, cleanup, err := openStore()
	if err != nil {
		return err
	}
	defer cleanup()

	entries, err := store.Meals.History(cfg.DefaultUserID, historyLimit, 0)
	if err != nil {
		return fmt.Errorf("getting meal history: %w", err)
	}

	if historyFormat == "json" {
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding history: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No meals yet")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "TITLE\tTAGS\tLIKED\tCOOKED AGAIN\tWHEN\n")
	fmt.Fprintf(w, "-----\t----\t-----\t------------\t----\n")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			truncate(e.Title, 35),
			truncate(strings.Join(e.Tags, ","), 25),
			outcomeMark(e.Liked),
			outcomeMark(e.CookedAgain),
			formatAge(e.CreatedAt))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nTotal: %d meal(s)\n", len(entries))
	return nil
}

// outcomeMark renders a tri-state feedback value
func outcomeMark(v *bool) string {
	switch {
	case v == nil:
		return "-"
	case *v:
		return "yes"
	default:
		return "no"
	}
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

func formatAge(t time.Time) string {
	diff := time.Since(t)

	if diff < time.Minute {
		return "just now"
	} else if diff < time.Hour {
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	} else if diff < 24*time.Hour {
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	} else if diff < 7*24*time.Hour {
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	}
	return t.Format("2006-01-02")
}

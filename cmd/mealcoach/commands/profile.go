// ABOUTME: CLI command to view and update the user profile
// ABOUTME: Shows diet style, constraints, and learned preference facts
package commands

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tweakmymeal/mealcoach/internal/config"
	"github.com/tweakmymeal/mealcoach/internal/models"
	"github.com/tweakmymeal/mealcoach/internal/storage/sqlite"
)

var (
	profileFormat    string
	profileName      string
	profileDiet      string
	profileSkill     string
	profileAllergies []string
	profileDislikes  []string
	profileLikes     []string
	profileGoals     []string
)

// NewProfileCmd creates the profile command
func NewProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "View and manage your profile",
		Long: `View and manage your profile.

The profile stores your diet style, allergies, likes and dislikes,
cooking skill, and goals, which shape every suggestion and recipe.

Examples:
  mealcoach profile
  mealcoach profile --format json
  mealcoach profile set --name "Alex" --diet vegetarian
  mealcoach profile set --allergy peanuts --dislike mushrooms`,
		RunE: runProfileShow,
	}

	cmd.Flags().StringVar(&profileFormat, "format", "table", "Output format (table or json)")

	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Update profile fields",
		Long: `Update profile fields.

Examples:
  mealcoach profile set --name "Alex"
  mealcoach profile set --diet pescatarian --skill beginner
  mealcoach profile set --goal "more protein" --goal "less sugar"`,
		RunE: runProfileSet,
	}

	setCmd.Flags().StringVar(&profileName, "name", "", "Set display name")
	setCmd.Flags().StringVar(&profileDiet, "diet", "", "Set diet style")
	setCmd.Flags().StringVar(&profileSkill, "skill", "", "Set cooking skill (beginner, intermediate, advanced)")
	setCmd.Flags().StringArrayVar(&profileAllergies, "allergy", nil, "Add an allergy (can be repeated)")
	setCmd.Flags().StringArrayVar(&profileDislikes, "dislike", nil, "Add a dislike (can be repeated)")
	setCmd.Flags().StringArrayVar(&profileLikes, "like", nil, "Add a like (can be repeated)")
	setCmd.Flags().StringArrayVar(&profileGoals, "goal", nil, "Add a goal (can be repeated)")

	cmd.AddCommand(setCmd)

	return cmd
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	cfg, store, cleanup, err := openStore()
	if err != nil {
		return err
	}
	defer cleanup()

	profile, err := store.Profiles.Get(cfg.DefaultUserID)
	if err != nil {
		return fmt.Errorf("getting profile: %w", err)
	}

	if profileFormat == "json" {
		if profile == nil {
			profile = &models.Profile{UserID: cfg.DefaultUserID}
		}
		data, err := json.MarshalIndent(profile, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding profile: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	out := cmd.OutOrStdout()
	if profile == nil {
		fmt.Fprintln(out, "No profile yet. Create one with: mealcoach profile set")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 2, 2, ' ', 0)
	fmt.Fprintf(w, "Name:\t%s\n", profile.DisplayName)
	fmt.Fprintf(w, "Diet:\t%s\n", profile.DietStyle)
	fmt.Fprintf(w, "Skill:\t%s\n", profile.CookingSkill)
	fmt.Fprintf(w, "Allergies:\t%s\n", strings.Join(profile.Allergies, ", "))
	fmt.Fprintf(w, "Likes:\t%s\n", strings.Join(profile.Likes, ", "))
	fmt.Fprintf(w, "Dislikes:\t%s\n", strings.Join(profile.Dislikes, ", "))
	fmt.Fprintf(w, "Goals:\t%s\n", strings.Join(profile.Goals, ", "))
	if err := w.Flush(); err != nil {
		return err
	}

	facts, err := store.Facts.Top(cfg.DefaultUserID, 10)
	if err != nil {
		return fmt.Errorf("getting preference facts: %w", err)
	}
	if len(facts) > 0 {
		fmt.Fprintln(out, "\nLearned preferences:")
		for _, f := range facts {
			fmt.Fprintf(out, "  %s (%.1f)\n", f.FactKey, f.Strength)
		}
	}

	return nil
}

func runProfileSet(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	cfg, store, cleanup, err := openStore()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := store.Users.Ensure(cfg.DefaultUserID); err != nil {
		return fmt.Errorf("ensuring user: %w", err)
	}

	profile, err := store.Profiles.Get(cfg.DefaultUserID)
	if err != nil {
		return fmt.Errorf("getting profile: %w", err)
	}
	if profile == nil {
		profile = &models.Profile{UserID: cfg.DefaultUserID}
	}

	if profileName != "" {
		profile.DisplayName = profileName
	}
	if profileDiet != "" {
		profile.DietStyle = profileDiet
	}
	if profileSkill != "" {
		profile.CookingSkill = profileSkill
	}
	profile.ApplyPatch(models.ProfilePatch{
		LikesAdd:    profileLikes,
		DislikesAdd: profileDislikes,
	})
	for _, a := range profileAllergies {
		if !containsFold(profile.Allergies, a) {
			profile.Allergies = append(profile.Allergies, a)
		}
	}
	for _, g := range profileGoals {
		if !containsFold(profile.Goals, g) {
			profile.Goals = append(profile.Goals, g)
		}
	}

	if err := store.Profiles.Upsert(profile); err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Profile updated: %s\n", profile.Summary())
	return nil
}

// openStore opens the configured database and returns the store facade
func openStore() (*config.Config, *sqlite.Store, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading configuration: %w", err)
	}

	db, err := sqlite.Open(cfg.DBPath())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening database: %w", err)
	}

	return cfg, sqlite.New(db), func() { _ = db.Close() }, nil
}

// containsFold checks slice membership case-insensitively
func containsFold(slice []string, item string) bool {
	for _, s := range slice {
		if strings.EqualFold(s, item) {
			return true
		}
	}
	return false
}

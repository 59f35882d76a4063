package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"newsdiet/internal/api"
)

func newPrefsCommand(ctx *commandContext) *cobra.Command {
	prefsCmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or change reader preferences",
	}

	var showJSON bool
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show interests, excludes, and thresholds",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLibrary(func(lib library) error {
				prefs, err := lib.Preferences(cmd.Context())
				if err != nil {
					return err
				}
				if showJSON {
					return writeJSON(cmd, prefs)
				}
				renderPreferences(cmd, prefs)
				return nil
			})
		},
	}
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Output as JSON")

	var (
		interests []string
		excludes  []string
		minScore  int
		pruneDays int
	)
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Change preferences; omitted flags keep their value",
		Long: "Replaces the listed preferences. Interests and excludes apply to articles\n" +
			"scored afterwards; run `newsdiet reprocess` to apply them to stored articles.\n" +
			"A new --min-score re-evaluates which stored articles are hidden immediately.",
		Example: "  newsdiet prefs set --interests Go,Kubernetes --exclude Crypto --min-score 6",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.NFlag() == 0 {
				return fmt.Errorf("nothing to change; pass at least one flag")
			}
			return ctx.withLibrary(func(lib library) error {
				prefs, err := lib.Preferences(cmd.Context())
				if err != nil {
					return err
				}
				if flags.Changed("interests") {
					prefs.Interests = interests
				}
				if flags.Changed("exclude") {
					prefs.Excludes = excludes
				}
				if flags.Changed("min-score") {
					prefs.MinRelevanceScore = minScore
				}
				if flags.Changed("prune-days") {
					prefs.PruneAfterDays = pruneDays
				}
				updated, err := lib.SetPreferences(cmd.Context(), prefs)
				if err != nil {
					return err
				}
				renderPreferences(cmd, updated)
				return nil
			})
		},
	}
	setCmd.Flags().StringSliceVar(&interests, "interests", nil, "Comma-separated interest topics")
	setCmd.Flags().StringSliceVar(&excludes, "exclude", nil, "Comma-separated topics to score down")
	setCmd.Flags().IntVar(&minScore, "min-score", 0, "Hide articles scored below this (0-10)")
	setCmd.Flags().IntVar(&pruneDays, "prune-days", 0, "Delete unstarred articles older than this many days")

	prefsCmd.AddCommand(showCmd, setCmd)
	return prefsCmd
}

func renderPreferences(cmd *cobra.Command, prefs api.Preferences) {
	rows := [][]string{
		{"Interests", orNone(strings.Join(prefs.Interests, ", "))},
		{"Excludes", orNone(strings.Join(prefs.Excludes, ", "))},
		{"Min relevance score", strconv.Itoa(prefs.MinRelevanceScore)},
		{"Prune after days", strconv.Itoa(prefs.PruneAfterDays)},
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Preference", "Value"}, rows, nil))
}

func orNone(value string) string {
	if value == "" {
		return "(none)"
	}
	return value
}

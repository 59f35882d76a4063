package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"newsdiet/internal/api"
)

func newFeedsCommand(ctx *commandContext) *cobra.Command {
	feedsCmd := &cobra.Command{
		Use:   "feeds",
		Short: "Manage RSS and Atom feeds",
	}

	var listJSON bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List registered feeds",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLibrary(func(lib library) error {
				feeds, err := lib.ListFeeds(cmd.Context())
				if err != nil {
					return err
				}
				if listJSON {
					return writeJSON(cmd, feeds)
				}
				out := cmd.OutOrStdout()
				if len(feeds) == 0 {
					fmt.Fprintln(out, "No feeds registered")
					return nil
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Name", "URL", "Enabled", "Errors", "Last Fetch"},
					feedRows(feeds),
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output as JSON")

	var addName string
	var addDisabled bool
	addCmd := &cobra.Command{
		Use:   "add <url>",
		Short: "Register a feed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLibrary(func(lib library) error {
				req := api.CreateFeedRequest{URL: args[0], Name: addName}
				if addDisabled {
					enabled := false
					req.Enabled = &enabled
				}
				feed, err := lib.AddFeed(cmd.Context(), req)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added feed %d: %s\n", feed.ID, feed.Name)
				return nil
			})
		},
	}
	addCmd.Flags().StringVar(&addName, "name", "", "Display name (defaults to the URL)")
	addCmd.Flags().BoolVar(&addDisabled, "disabled", false, "Register without fetching it")

	removeCmd := &cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm"},
		Short:   "Remove a feed",
		Long: "Removes a feed. Its articles are deleted too when\n" +
			"ingest.delete_articles_on_feed_removal is enabled; otherwise they are kept.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return ctx.withLibrary(func(lib library) error {
				removed, err := lib.RemoveFeed(cmd.Context(), id)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Removed feed %d\n", id)
				if removed > 0 {
					fmt.Fprintf(out, "Deleted %d articles\n", removed)
				}
				return nil
			})
		},
	}

	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Register every feed listed in a YAML file",
		Long: "Reads a YAML list of feeds, either a top-level sequence or a `feeds:` key.\n" +
			"Each entry has a url and optional name and enabled fields. Use - for stdin.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if args[0] == "-" {
				data, err = readAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("read feed list: %w", err)
			}
			entries, err := api.ParseFeedList(data)
			if err != nil {
				return err
			}
			return ctx.withLibrary(func(lib library) error {
				report, err := lib.ImportFeeds(cmd.Context(), entries)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Added %d, already registered %d, invalid %d\n",
					len(report.Added), len(report.Existing), len(report.Invalid))
				for _, line := range report.Invalid {
					fmt.Fprintf(out, "  invalid: %s\n", line)
				}
				return nil
			})
		},
	}

	feedsCmd.AddCommand(listCmd, addCmd, removeCmd, importCmd,
		newFeedToggleCommand(ctx, "enable", true),
		newFeedToggleCommand(ctx, "disable", false),
	)
	return feedsCmd
}

func newFeedToggleCommand(ctx *commandContext, verb string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <id>",
		Short: capitalize(verb) + " a feed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return ctx.withLibrary(func(lib library) error {
				feed, err := lib.UpdateFeed(cmd.Context(), id, api.UpdateFeedRequest{Enabled: &enabled})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Feed %d (%s) %sd\n", feed.ID, feed.Name, verb)
				return nil
			})
		},
	}
}

func feedRows(feeds []api.Feed) [][]string {
	rows := make([][]string, 0, len(feeds))
	for _, feed := range feeds {
		lastFetch := "never"
		if feed.LastFetchedAt != "" {
			lastFetch = feed.LastFetchedAt
		}
		errorsCol := strconv.Itoa(feed.ErrorCount)
		if feed.Failing && feed.LastError != "" {
			errorsCol += " (" + truncate(feed.LastError, 40) + ")"
		}
		rows = append(rows, []string{
			strconv.FormatInt(feed.ID, 10),
			truncate(feed.Name, 32),
			truncate(feed.URL, 48),
			yesNo(feed.Enabled),
			errorsCol,
			lastFetch,
		})
	}
	return rows
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("id must be a positive integer")
	}
	return id, nil
}

package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"newsdiet/internal/api"
)

func newArticlesCommand(ctx *commandContext) *cobra.Command {
	articlesCmd := &cobra.Command{
		Use:   "articles",
		Short: "Browse and curate scored articles",
	}

	var (
		query    api.ArticleQuery
		listJSON bool
	)
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List articles, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLibrary(func(lib library) error {
				articles, err := lib.ListArticles(cmd.Context(), query)
				if err != nil {
					return err
				}
				if listJSON {
					return writeJSON(cmd, articles)
				}
				out := cmd.OutOrStdout()
				if len(articles) == 0 {
					fmt.Fprintln(out, "No articles")
					return nil
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Score", "Title", "Tags", "Feed", "Flags"},
					articleRows(articles),
					[]columnAlignment{alignRight, alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
	listCmd.Flags().BoolVar(&query.ShowAll, "all", false, "Include articles below the relevance threshold")
	listCmd.Flags().BoolVar(&query.UnreadOnly, "unread", false, "Only unread articles")
	listCmd.Flags().BoolVar(&query.StarredOnly, "starred", false, "Only starred articles")
	listCmd.Flags().Int64Var(&query.FeedID, "feed", 0, "Only articles of this feed id")
	listCmd.Flags().IntVar(&query.Limit, "limit", 0, "Maximum number of articles (default 50)")
	listCmd.Flags().IntVar(&query.Offset, "offset", 0, "Skip this many articles")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output as JSON")

	var unread bool
	readCmd := &cobra.Command{
		Use:   "read <id>",
		Short: "Mark an article read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return ctx.withLibrary(func(lib library) error {
				article, err := lib.MarkRead(cmd.Context(), id, !unread)
				if err != nil {
					return err
				}
				state := "read"
				if !article.IsRead {
					state = "unread"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Article %d marked %s\n", article.ID, state)
				return nil
			})
		},
	}
	readCmd.Flags().BoolVar(&unread, "unset", false, "Mark unread instead")

	var unstar bool
	starCmd := &cobra.Command{
		Use:   "star <id>",
		Short: "Star an article so pruning keeps it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return ctx.withLibrary(func(lib library) error {
				article, err := lib.SetStarred(cmd.Context(), id, !unstar)
				if err != nil {
					return err
				}
				state := "starred"
				if !article.IsStarred {
					state = "unstarred"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Article %d %s\n", article.ID, state)
				return nil
			})
		},
	}
	starCmd.Flags().BoolVar(&unstar, "unset", false, "Remove the star instead")

	var assumeYes bool
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every article, starred ones included",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !assumeYes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "Delete all articles?") {
				fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
				return nil
			}
			return ctx.withLibrary(func(lib library) error {
				removed, err := lib.ClearArticles(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d articles\n", removed)
				return nil
			})
		},
	}
	clearCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation")

	articlesCmd.AddCommand(listCmd, readCmd, starCmd, clearCmd)
	return articlesCmd
}

func articleRows(articles []api.Article) [][]string {
	rows := make([][]string, 0, len(articles))
	for _, article := range articles {
		flags := make([]string, 0, 4)
		if article.IsStarred {
			flags = append(flags, "starred")
		}
		if !article.IsRead {
			flags = append(flags, "new")
		}
		if article.IsHidden {
			flags = append(flags, "hidden")
		}
		if article.Degraded {
			flags = append(flags, "degraded")
		}
		rows = append(rows, []string{
			strconv.FormatInt(article.ID, 10),
			strconv.Itoa(article.Score),
			truncate(article.Title, 56),
			truncate(strings.Join(article.Tags, ", "), 32),
			truncate(article.FeedName, 24),
			strings.Join(flags, " "),
		})
	}
	return rows
}

func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N] ", prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func readAll(r io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, 1<<20))
}

package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"newsdiet/internal/daemonctl"
	"newsdiet/internal/daemonrun"
	"newsdiet/internal/ingest"
)

const stopGracePeriod = 35 * time.Second

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the newsdiet daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return daemonrun.Run(cmd.Context(), cfg)
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.StopAndTerminate(ctx.configValue(), stopGracePeriod)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if result.ForcedKill {
				fmt.Fprintf(stdout, "Daemon (pid %d) did not exit in time and was killed\n", result.PID)
				return nil
			}
			fmt.Fprintf(stdout, "Daemon stopped (pid %d)\n", result.PID)
			return nil
		},
	}

	var statusJSON bool
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, ingestion, and library status",
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshot, err := daemonctl.BuildStatusSnapshot(cmd.Context(), ctx.configValue())
			if err != nil {
				return err
			}
			if statusJSON {
				return writeJSON(cmd, snapshot)
			}
			renderStatus(cmd.OutOrStdout(), snapshot, shouldColorize(cmd.OutOrStdout()))
			return nil
		},
	}
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output as JSON")

	refreshCmd := &cobra.Command{
		Use:   "refresh",
		Short: "Fetch and score all enabled feeds now",
		Long: "Asks the daemon to start an ingestion cycle. Without a running daemon\n" +
			"the cycle runs in this process and its report is printed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			client, ok, err := ctx.dialDaemon()
			if err != nil {
				return err
			}
			if ok {
				defer client.Close()
				resp, err := client.Refresh()
				if err != nil {
					return err
				}
				fmt.Fprintln(stdout, capitalize(resp.Detail))
				return nil
			}

			rt, err := openLocal(ctx.configValue())
			if err != nil {
				return err
			}
			defer rt.Close()
			fmt.Fprintln(stdout, "Daemon not running; refreshing in the foreground")
			report, err := rt.orch.RunCycle(cmd.Context())
			renderCycleReport(stdout, report)
			return err
		},
	}

	var reprocessFeed int64
	reprocessCmd := &cobra.Command{
		Use:   "reprocess",
		Short: "Score stored articles again with the current preferences",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			client, ok, err := ctx.dialDaemon()
			if err != nil {
				return err
			}
			if ok {
				defer client.Close()
				resp, err := client.Reprocess(reprocessFeed)
				if err != nil {
					return err
				}
				fmt.Fprintln(stdout, capitalize(resp.Detail))
				return nil
			}

			rt, err := openLocal(ctx.configValue())
			if err != nil {
				return err
			}
			defer rt.Close()
			if reprocessFeed > 0 {
				if _, err := rt.store.GetFeed(cmd.Context(), reprocessFeed); err != nil {
					return fmt.Errorf("feed %d: %w", reprocessFeed, err)
				}
			}
			report, err := rt.orch.Reprocess(cmd.Context(), reprocessFeed)
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Rescored %d of %d articles (%d degraded)\n", report.Rescored, report.Total, report.Degraded)
			return nil
		},
	}
	reprocessCmd.Flags().Int64Var(&reprocessFeed, "feed", 0, "Only reprocess articles of this feed id")

	pruneCmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete unstarred articles older than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			var report ingest.PruneReport
			client, ok, err := ctx.dialDaemon()
			if err != nil {
				return err
			}
			if ok {
				defer client.Close()
				resp, err := client.Prune()
				if err != nil {
					return err
				}
				report = *resp
			} else {
				rt, err := openLocal(ctx.configValue())
				if err != nil {
					return err
				}
				defer rt.Close()
				if report, err = rt.orch.Prune(cmd.Context()); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d articles ingested before %s\n",
				report.Removed, report.Cutoff.Local().Format(time.DateOnly))
			return nil
		},
	}

	return []*cobra.Command{runCmd, stopCmd, statusCmd, refreshCmd, reprocessCmd, pruneCmd}
}

func renderCycleReport(out io.Writer, report ingest.CycleReport) {
	rows := make([][]string, 0, len(report.Feeds))
	for _, feed := range report.Feeds {
		result := "ok"
		if feed.Failed() {
			result = feed.FailureKind + ": " + truncate(feed.Error, 60)
		}
		rows = append(rows, []string{
			feed.FeedName,
			strconv.Itoa(feed.NewArticles),
			strconv.Itoa(feed.Duplicates),
			strconv.Itoa(feed.Degraded),
			result,
		})
	}
	if len(rows) > 0 {
		fmt.Fprint(out, renderTable(
			[]string{"Feed", "New", "Seen", "Degraded", "Result"},
			rows,
			[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignLeft},
		))
		fmt.Fprintln(out)
	}
	totals := report.Totals()
	fmt.Fprintf(out, "%d feeds, %d new articles, %d failed feeds in %s\n",
		totals.Feeds, totals.NewArticles, totals.FailedFeeds, report.Duration().Round(time.Millisecond))
	if report.Error != "" {
		fmt.Fprintf(out, "Cycle stopped: %s\n", report.Error)
	}
}

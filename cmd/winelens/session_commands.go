package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"winelens/internal/recognizer"
	"winelens/internal/scan"
	"winelens/internal/wine"
)

func newSessionCommand(ctx *commandContext) *cobra.Command {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect and archive scan sessions",
	}
	sessionCmd.AddCommand(newSessionShowCommand(ctx))
	sessionCmd.AddCommand(newSessionSaveCommand(ctx))
	sessionCmd.AddCommand(newSessionClearCommand(ctx))
	sessionCmd.AddCommand(newSessionHistoryCommand(ctx))
	return sessionCmd
}

// withSessionTracker opens a tracker over the stored session without
// starting a scan.
func withSessionTracker(cmd *cobra.Command, ctx *commandContext, fn func(*scan.Tracker) error) error {
	svc, err := ctx.openServices(true)
	if err != nil {
		return err
	}
	defer svc.Close()
	tracker := scan.New(recognizer.JSONRecognizer{}, svc.matcher, svc.sessions, scan.OptionsFromConfig(svc.cfg), svc.logger)
	defer tracker.Close()
	return fn(tracker)
}

func newSessionShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the wines in the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.openServices(true)
			if err != nil {
				return err
			}
			defer svc.Close()

			session, err := svc.sessions.LoadCurrent(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, session)
			}
			out := cmd.OutOrStdout()
			if session == nil || len(session.Wines) == 0 {
				fmt.Fprintln(out, "Current session is empty")
				return nil
			}
			fmt.Fprintf(out, "Session %s started %s%s\n", session.ID, formatTimestamp(session.StartedAt), locationSuffix(session.Location))
			fmt.Fprintln(out, renderTable(wineColumns, wineRows(session.Wines, time.Now()), wineFooter(session.Wines)...))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the session as JSON")
	return cmd
}

func newSessionSaveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Move the current session into history and start a new one",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSessionTracker(cmd, ctx, func(tracker *scan.Tracker) error {
				finished, err := tracker.SaveSessionToHistory(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved session %s with %d wines to history\n", finished.ID, len(finished.Wines))
				return nil
			})
		},
	}
}

func newSessionClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Discard the current session without saving it",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSessionTracker(cmd, ctx, func(tracker *scan.Tracker) error {
				if err := tracker.ClearSession(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Current session cleared")
				return nil
			})
		},
	}
}

func newSessionHistoryCommand(ctx *commandContext) *cobra.Command {
	var (
		limit      int
		jsonOutput bool
		clearAll   bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List saved sessions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.openServices(true)
			if err != nil {
				return err
			}
			defer svc.Close()

			out := cmd.OutOrStdout()
			if clearAll {
				if err := svc.sessions.ClearHistory(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(out, "Session history cleared")
				return nil
			}
			history, err := svc.sessions.History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, history)
			}
			if len(history) == 0 {
				fmt.Fprintln(out, "No saved sessions")
				return nil
			}
			rows := make([][]string, 0, len(history))
			for _, entry := range history {
				rows = append(rows, []string{
					entry.Session.ID,
					formatTimestamp(entry.Session.StartedAt),
					formatTimestamp(entry.EndedAt),
					locationLabel(entry.Session.Location),
					strconv.Itoa(len(entry.Session.Wines)),
				})
			}
			fmt.Fprintln(out, renderTable(historyColumns, rows))
			if total, err := svc.sessions.HistoryCount(cmd.Context()); err == nil {
				fmt.Fprintf(out, "%d of %d saved sessions (keeping the latest %d)\n", len(history), total, svc.sessions.HistoryLimit())
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum sessions to list (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output history as JSON")
	cmd.Flags().BoolVar(&clearAll, "clear", false, "Delete all saved sessions")
	return cmd
}

func locationLabel(loc *wine.Location) string {
	if loc == nil {
		return "-"
	}
	if loc.Label != "" {
		return loc.Label
	}
	return fmt.Sprintf("%.4f, %.4f", loc.Latitude, loc.Longitude)
}

func locationSuffix(loc *wine.Location) string {
	if loc == nil {
		return ""
	}
	return " at " + locationLabel(loc)
}

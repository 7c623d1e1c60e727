package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"winelens/internal/matching"
	"winelens/internal/wine"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Maintain the local match index",
	}
	cacheCmd.AddCommand(newCacheImportCommand(ctx))
	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCacheLookupCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	return cacheCmd
}

func newCacheImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <records.json>",
		Short: "Add wine records from a JSON array to the index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read records: %w", err)
			}
			var records []wine.Record
			if err := json.Unmarshal(data, &records); err != nil {
				return fmt.Errorf("parse records: %w", err)
			}
			valid := records[:0]
			for _, rec := range records {
				if strings.TrimSpace(rec.ID) == "" || strings.TrimSpace(rec.FullName()) == "" {
					continue
				}
				valid = append(valid, rec)
			}

			svc, err := ctx.openServices(false)
			if err != nil {
				return err
			}
			svc.index.Upsert(valid...)
			if err := svc.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d records (%d skipped); index holds %d\n",
				len(valid), len(records)-len(valid), svc.index.Len())
			return nil
		},
	}
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List indexed wine records",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.openServices(false)
			if err != nil {
				return err
			}
			defer svc.Close()

			records := svc.index.List()
			if jsonOutput {
				return writeJSON(cmd, records)
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "Match index is empty")
				return nil
			}
			fmt.Fprintln(out, renderTable(recordColumns, recordRows(records), "", fmt.Sprintf("%d records", len(records))))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output records as JSON")
	return cmd
}

func newCacheLookupCommand(ctx *commandContext) *cobra.Command {
	var (
		jsonOutput bool
		localOnly  bool
	)
	cmd := &cobra.Command{
		Use:   "lookup <text>...",
		Short: "Match wine-list text against the index and remote search",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.openServices(false)
			if err != nil {
				return err
			}
			defer svc.Close()

			text := strings.Join(args, " ")
			var result *wine.MatchResult
			if localOnly {
				result = svc.matcher.MatchLocal(cmd.Context(), matching.Parse(text))
			} else {
				result = svc.matcher.MatchWine(cmd.Context(), text)
			}
			if jsonOutput {
				return writeJSON(cmd, result)
			}
			out := cmd.OutOrStdout()
			if result == nil {
				fmt.Fprintf(out, "No match for %q\n", text)
				return nil
			}
			fmt.Fprintf(out, "%s\n  id: %s\n  tier: %s\n  confidence: %.2f\n",
				result.Record.DisplayName(), result.Record.ID, result.Tier, result.Confidence)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the match as JSON")
	cmd.Flags().BoolVar(&localOnly, "local", false, "Skip remote search")
	return cmd
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every record and the snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.openServices(false)
			if err != nil {
				return err
			}
			defer svc.Close()
			if err := svc.index.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Match index cleared")
			return nil
		},
	}
}

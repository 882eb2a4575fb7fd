package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/pdiddy/research-radar/internal/state"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect and maintain the seen-paper state file",
	Long: `State manages the JSON file recording which papers have been mailed.
Show lists the entries, prune drops entries older than a cutoff, and reset
clears the file entirely (every known paper becomes eligible again).`,
}

var stateShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List the papers recorded as sent",
	RunE:  runStateShow,
}

var statePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Drop entries sent before the cutoff",
	Long: `Prune removes entries whose sent date is older than --days. A pruned
paper becomes eligible for the digest again if a search returns it, so keep
the window comfortably larger than the search lookback.`,
	RunE: runStatePrune,
}

var stateResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear all state; every paper becomes eligible again",
	RunE:  runStateReset,
}

func init() {
	stateShowCmd.Flags().Bool("json", false, "output entries as JSON")

	statePruneCmd.Flags().Int("days", 30, "drop entries older than this many days")

	stateResetCmd.Flags().Bool("force", false, "reset without confirmation")

	stateCmd.AddCommand(stateShowCmd)
	stateCmd.AddCommand(statePruneCmd)
	stateCmd.AddCommand(stateResetCmd)

	rootCmd.AddCommand(stateCmd)
}

func openState() (*state.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return state.Open(cfg.State.Path, os.Stderr)
}

func runStateShow(cmd *cobra.Command, args []string) error {
	store, err := openState()
	if err != nil {
		return err
	}
	defer store.Close()

	entries := store.Entries()

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Println("State is empty.")
		return nil
	}

	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if !entries[ids[i]].SentDate.Equal(entries[ids[j]].SentDate) {
			return entries[ids[i]].SentDate.After(entries[ids[j]].SentDate)
		}
		return ids[i] < ids[j]
	})

	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Sent", "ID", "Title"})
	for _, id := range ids {
		e := entries[id]
		title := e.Title
		if len(title) > 60 {
			title = title[:57] + "..."
		}
		tw.AppendRow(table.Row{e.SentDate.Format("2006-01-02"), id, title})
	}
	tw.Render()

	fmt.Printf("\n%d entries", len(entries))
	if lr := store.LastRun(); !lr.IsZero() {
		fmt.Printf(", last run %s", lr.Format(time.RFC3339))
	}
	fmt.Println()
	return nil
}

func runStatePrune(cmd *cobra.Command, args []string) error {
	days, _ := cmd.Flags().GetInt("days")
	if days <= 0 {
		return fmt.Errorf("--days must be positive")
	}

	store, err := openState()
	if err != nil {
		return err
	}
	defer store.Close()

	removed := store.Prune(time.Now().UTC().AddDate(0, 0, -days))
	if removed == 0 {
		fmt.Println("Nothing to prune.")
		return nil
	}
	if err := store.Save(); err != nil {
		return err
	}
	fmt.Printf("Pruned %d entries older than %d days\n", removed, days)
	return nil
}

func runStateReset(cmd *cobra.Command, args []string) error {
	if force, _ := cmd.Flags().GetBool("force"); !force {
		return fmt.Errorf("reset clears all sent-paper state; re-run with --force to confirm")
	}

	store, err := openState()
	if err != nil {
		return err
	}
	defer store.Close()

	store.Reset()
	if err := store.Save(); err != nil {
		return err
	}
	fmt.Println("State reset.")
	return nil
}

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/pdiddy/research-radar/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse the archive of sent digests",
	Long: `History reads the SQLite archive of delivered digests. List shows past
runs, show prints the papers of one run, and search finds archived papers
by title. The archive is informational; deleting it never causes a paper
to be re-sent.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sent digests, newest first",
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Show the papers of one digest",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historySearchCmd = &cobra.Command{
	Use:   "search [term]",
	Short: "Find archived papers by title",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runHistorySearch,
}

func init() {
	historyListCmd.Flags().Int("limit", 20, "maximum runs to list (0 = all)")
	historyListCmd.Flags().Bool("json", false, "output runs as JSON")

	historyShowCmd.Flags().Bool("json", false, "output papers as JSON")

	historySearchCmd.Flags().Int("limit", 50, "maximum papers to return (0 = all)")
	historySearchCmd.Flags().Bool("json", false, "output papers as JSON")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historySearchCmd)

	rootCmd.AddCommand(historyCmd)
}

func openHistory() (*history.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return history.NewStore(cfg.History)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.Runs(limit)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Println("No digests sent yet.")
		return nil
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Run", "Sent", "Papers", "Recipients", "Subject"})
	for _, r := range runs {
		tw.AppendRow(table.Row{r.ID, r.SentAt.Format("2006-01-02 15:04"), r.PaperCount, r.Recipients, r.Subject})
	}
	tw.Render()
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	runID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid run ID %q", args[0])
	}

	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	papers, err := store.Papers(runID)
	if err != nil {
		return err
	}
	if len(papers) == 0 {
		return fmt.Errorf("no papers recorded for run %d", runID)
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(papers)
	}

	printArchiveTable(papers, false)
	return nil
}

func runHistorySearch(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	papers, err := store.SearchTitles(strings.Join(args, " "), limit)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(papers)
	}

	if len(papers) == 0 {
		fmt.Println("No matching papers.")
		return nil
	}
	printArchiveTable(papers, true)
	return nil
}

func printArchiveTable(papers []history.ArchivedPaper, withRun bool) {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.SetStyle(table.StyleRounded)

	header := table.Row{"Title", "Date", "Source", "Score", "ID"}
	if withRun {
		header = append(table.Row{"Run"}, header...)
	}
	tw.AppendHeader(header)

	for _, p := range papers {
		title := p.Title
		if len(title) > 60 {
			title = title[:57] + "..."
		}
		score := ""
		if p.RelevanceScore > 0 {
			score = fmt.Sprintf("%.1f", p.RelevanceScore)
		}
		row := table.Row{title, p.Date, p.Source, score, p.PaperID}
		if withRun {
			row = append(table.Row{p.RunID}, row...)
		}
		tw.AppendRow(row)
	}
	tw.Render()

	fmt.Printf("\n%d papers\n", len(papers))
}

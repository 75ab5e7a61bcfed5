package main

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/fanout-cli/internal/model"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect the session's fan-out history",
	Long:  "Commands for listing, searching, tagging, and removing history entries of a running serve session.",
}

// -- history ls --

var historyLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List history entries, most recent first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		query, _ := cmd.Flags().GetString("query")
		tag, _ := cmd.Flags().GetString("tag")

		params := url.Values{}
		if query != "" {
			params.Set("q", query)
		}
		if tag != "" {
			params.Set("tag", tag)
		}
		path := "/api/history"
		if len(params) > 0 {
			path += "?" + params.Encode()
		}

		var entries []model.HistoryEntry
		if err := newAPIClient().do(cmd.Context(), "GET", path, nil, &entries); err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Fprintln(os.Stderr, "No history entries found.")
			return nil
		}

		formatHistory(os.Stdout, entries)
		return nil
	},
}

// -- history rm --

var historyRmCmd = &cobra.Command{
	Use:   "rm <entry-id>",
	Short: "Remove a history entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newAPIClient().do(cmd.Context(), "DELETE", "/api/history/"+args[0], nil, nil); err != nil {
			return err
		}
		fmt.Printf("Removed history entry %s.\n", truncateID(args[0]))
		return nil
	},
}

// -- history tag --

var historyTagCmd = &cobra.Command{
	Use:   "tag <entry-id> <tag>...",
	Short: "Replace a history entry's tags",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body := map[string][]string{"tags": args[1:]}
		if err := newAPIClient().do(cmd.Context(), "PUT", "/api/history/"+args[0]+"/tags", body, nil); err != nil {
			return err
		}
		fmt.Printf("Tagged %s with [%s].\n", truncateID(args[0]), strings.Join(args[1:], ", "))
		return nil
	},
}

func init() {
	historyLsCmd.Flags().String("query", "", "free-text filter over prompts, tags, and providers")
	historyLsCmd.Flags().String("tag", "", "exact tag filter")

	historyCmd.PersistentFlags().StringVar(&serveAddr, "addr", "http://localhost:8080", "address of the running serve session")
	historyCmd.AddCommand(historyLsCmd)
	historyCmd.AddCommand(historyRmCmd)
	historyCmd.AddCommand(historyTagCmd)
	rootCmd.AddCommand(historyCmd)
}

// formatHistory writes a tabular history list to w.
func formatHistory(out io.Writer, entries []model.HistoryEntry) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tPROMPT\tPROVIDERS\tTAGS\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t------\t---------\t----\t-------")

	for _, e := range entries {
		prompt := e.Prompt
		if len(prompt) > 40 {
			prompt = prompt[:37] + "..."
		}

		providers := make([]string, 0, len(e.Providers))
		for _, p := range e.Providers {
			providers = append(providers, p.String())
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			truncateID(e.ID),
			prompt,
			strings.Join(providers, ","),
			strings.Join(e.Tags, ","),
			e.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

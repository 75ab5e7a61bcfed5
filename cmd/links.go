package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/fanout-cli/internal/model"
)

var linksCmd = &cobra.Command{
	Use:   "links",
	Short: "Manage correction links between responses",
	Long:  "Commands for creating, listing, completing, and removing correction links in a running serve session.",
}

// -- links add --

var linksAddCmd = &cobra.Command{
	Use:   "add <source-node-id> <target-node-id> <kind>",
	Short: "Create a correction link between two response nodes",
	Long:  "Creates a pending link asserting the source response should review the target. Kind is one of: code-review, fact-check, optimization.",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := model.ParseLinkKind(args[2]); err != nil {
			return err
		}

		body := map[string]string{
			"source_node_id": args[0],
			"target_node_id": args[1],
			"kind":           args[2],
		}
		var link model.CorrectionLink
		if err := newAPIClient().do(cmd.Context(), "POST", "/api/links", body, &link); err != nil {
			return err
		}

		fmt.Printf("Created %s link %s: %s -> %s\n",
			link.Kind, truncateID(link.ID), link.SourceProvider, link.TargetProvider)
		return nil
	},
}

// -- links ls --

var linksLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List correction links",
	RunE: func(cmd *cobra.Command, _ []string) error {
		var links []model.CorrectionLink
		if err := newAPIClient().do(cmd.Context(), "GET", "/api/links", nil, &links); err != nil {
			return err
		}

		if len(links) == 0 {
			fmt.Fprintln(os.Stderr, "No links found.")
			return nil
		}

		formatLinks(os.Stdout, links)
		return nil
	},
}

// -- links done --

var linksDoneCmd = &cobra.Command{
	Use:   "done <link-id>",
	Short: "Mark a link completed, optionally attaching feedback",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		feedback, _ := cmd.Flags().GetString("feedback")

		body := map[string]any{"status": string(model.LinkStatusCompleted)}
		if feedback != "" {
			body["feedback"] = feedback
		}

		var link model.CorrectionLink
		if err := newAPIClient().do(cmd.Context(), "PATCH", "/api/links/"+args[0], body, &link); err != nil {
			return err
		}
		fmt.Printf("Link %s marked %s.\n", truncateID(link.ID), link.Status)
		return nil
	},
}

// -- links rm --

var linksRmCmd = &cobra.Command{
	Use:   "rm <link-id>",
	Short: "Remove a correction link",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newAPIClient().do(cmd.Context(), "DELETE", "/api/links/"+args[0], nil, nil); err != nil {
			return err
		}
		fmt.Printf("Removed link %s.\n", truncateID(args[0]))
		return nil
	},
}

func init() {
	linksDoneCmd.Flags().String("feedback", "", "reviewer feedback to attach")

	linksCmd.PersistentFlags().StringVar(&serveAddr, "addr", "http://localhost:8080", "address of the running serve session")
	linksCmd.AddCommand(linksAddCmd)
	linksCmd.AddCommand(linksLsCmd)
	linksCmd.AddCommand(linksDoneCmd)
	linksCmd.AddCommand(linksRmCmd)
	rootCmd.AddCommand(linksCmd)
}

// formatLinks writes a tabular link list to w.
func formatLinks(out io.Writer, links []model.CorrectionLink) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tKIND\tSOURCE\tTARGET\tSTATUS\tFEEDBACK")
	_, _ = fmt.Fprintln(w, "--\t----\t------\t------\t------\t--------")

	for _, l := range links {
		feedback := l.Feedback
		if len(feedback) > 30 {
			feedback = feedback[:27] + "..."
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s (%s)\t%s (%s)\t%s\t%s\n",
			truncateID(l.ID),
			l.Kind,
			truncateID(l.SourceNodeID), l.SourceProvider,
			truncateID(l.TargetNodeID), l.TargetProvider,
			l.Status,
			feedback,
		)
	}
	_ = w.Flush()
}

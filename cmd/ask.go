package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/fanout-cli/internal/model"
	"github.com/sells-group/fanout-cli/internal/orchestrator"
)

var (
	askProviders []string
	askTags      []string
	askJSON      bool
)

var askCmd = &cobra.Command{
	Use:   "ask <prompt>",
	Short: "Fan a prompt out to the selected providers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		providers := make([]model.Provider, 0, len(askProviders))
		for _, raw := range askProviders {
			p, err := model.ParseProvider(raw)
			if err != nil {
				return err
			}
			providers = append(providers, p)
		}
		if len(providers) == 0 {
			providers = env.Orc.ListCredentials()
			if len(providers) == 0 {
				return eris.New("no providers selected and no credentials stored; run `fanout-cli keys set` first")
			}
		}

		entry, err := env.Orc.FanOut(ctx, orchestrator.FanOutRequest{
			Prompt:    args[0],
			Providers: providers,
			Tags:      askTags,
		})
		if err != nil {
			return err
		}

		batchID := entry.Responses[0].BatchID
		nodes, err := waitForBatch(ctx, env, batchID)
		if err != nil {
			return err
		}

		if askJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(nodes)
		}

		for _, n := range nodes {
			fmt.Printf("=== %s [%s]\n", n.Provider, n.Status)
			if n.Status == model.NodeStatusFailed {
				fmt.Printf("error: %s\n\n", n.Reason)
				continue
			}
			fmt.Printf("%s\n", strings.TrimRight(n.Output, "\n"))
			fmt.Printf("(tokens in=%d out=%d, cost $%.4f)\n\n",
				n.Usage.InputTokens, n.Usage.OutputTokens, n.CostUSD)
		}
		return nil
	},
}

// waitForBatch blocks until every node of the batch has settled.
func waitForBatch(ctx context.Context, env *appEnv, batchID string) ([]model.ResponseNode, error) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, eris.New("interrupted while waiting for responses")
		case <-ticker.C:
			nodes := env.Orc.BatchNodes(batchID)
			settled := true
			for _, n := range nodes {
				if !n.Status.Terminal() {
					settled = false
					break
				}
			}
			if settled {
				return nodes, nil
			}
		}
	}
}

func init() {
	askCmd.Flags().StringSliceVar(&askProviders, "providers", nil, "providers to dispatch to (openai, anthropic, gemini, deepseek); defaults to all with stored credentials")
	askCmd.Flags().StringSliceVar(&askTags, "tags", nil, "tags to attach to the history entry")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "emit raw JSON response nodes")
	rootCmd.AddCommand(askCmd)
}

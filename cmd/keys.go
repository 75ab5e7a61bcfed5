package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/fanout-cli/internal/model"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage provider API credentials",
	Long:  "Commands for storing, listing, removing, and live-checking provider API keys.",
}

// -- keys set --

var keysSetCmd = &cobra.Command{
	Use:   "set <provider> [key]",
	Short: "Store an API key for a provider",
	Long:  "Stores an API key, overwriting any previous one. When the key argument is omitted it is read from stdin so it stays out of shell history.",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		provider, err := model.ParseProvider(args[0])
		if err != nil {
			return err
		}

		var secret string
		if len(args) == 2 {
			secret = args[1]
		} else {
			fmt.Fprintf(os.Stderr, "Enter API key for %s: ", provider)
			line, err := bufio.NewReader(os.Stdin).ReadString('\n')
			if err != nil && line == "" {
				return err
			}
			secret = strings.TrimSpace(line)
		}

		if err := env.Orc.SaveCredential(provider, secret); err != nil {
			return err
		}
		fmt.Printf("Stored key for %s.\n", provider)
		return nil
	},
}

// -- keys rm --

var keysRmCmd = &cobra.Command{
	Use:   "rm <provider>",
	Short: "Remove a provider's stored API key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		provider, err := model.ParseProvider(args[0])
		if err != nil {
			return err
		}

		if !env.Orc.DeleteCredential(provider) {
			fmt.Fprintf(os.Stderr, "No key stored for %s.\n", provider)
			return nil
		}
		fmt.Printf("Removed key for %s.\n", provider)
		return nil
	},
}

// -- keys ls --

var keysLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List providers and whether a key is stored",
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		stored := map[model.Provider]bool{}
		for _, p := range env.Orc.ListCredentials() {
			stored[p] = true
		}

		for _, p := range model.AllProviders() {
			mark := "-"
			if stored[p] {
				mark = "stored"
			}
			fmt.Printf("%-10s %s\n", p, mark)
		}
		return nil
	},
}

// -- keys check --

var keysCheckCmd = &cobra.Command{
	Use:   "check [provider]",
	Short: "Validate stored keys against the live provider APIs",
	Long:  "Performs one authenticated exchange per provider to prove the stored key is accepted. With no argument, every provider with a stored key is checked.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		var providers []model.Provider
		if len(args) == 1 {
			p, err := model.ParseProvider(args[0])
			if err != nil {
				return err
			}
			providers = []model.Provider{p}
		} else {
			providers = env.Orc.ListCredentials()
			if len(providers) == 0 {
				fmt.Fprintln(os.Stderr, "No keys stored.")
				return nil
			}
		}

		failed := 0
		for _, p := range providers {
			outcome := env.Orc.ValidateCredential(ctx, p)
			if outcome.OK {
				fmt.Printf("%-10s ok\n", p)
			} else {
				fmt.Printf("%-10s failed: %s\n", p, outcome.Reason)
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d keys failed validation", failed, len(providers))
		}
		return nil
	},
}

func init() {
	keysCmd.AddCommand(keysSetCmd)
	keysCmd.AddCommand(keysRmCmd)
	keysCmd.AddCommand(keysLsCmd)
	keysCmd.AddCommand(keysCheckCmd)
	rootCmd.AddCommand(keysCmd)
}

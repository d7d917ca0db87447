// Package main is the entry point for the yard command: an interactive
// infix-to-postfix translator with HTTP and gRPC servers.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/lemonberrylabs/shunting-yard/pkg/expr"
	"github.com/lemonberrylabs/shunting-yard/pkg/runtime"
	"github.com/spf13/cobra"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "yard",
		Short:        "Translate infix arithmetic to postfix, one line at a time",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         runREPL,
	}
	rootCmd.Version = version + " (commit=" + commit + ", built=" + date + ")"
	rootCmd.SetVersionTemplate("yard version {{.Version}}\n")

	rootCmd.Flags().String("prompt", runtime.DefaultPrompt, "Prompt printed before each line")
	rootCmd.Flags().Int("max-depth", 0, "Operator stack depth limit (default 1000, env MAX_DEPTH)")
	rootCmd.Flags().Bool("evaluate", false, "Print the value of every well-formed line")
	rootCmd.Flags().Bool("infix", false, "Print the fully parenthesized form of every well-formed line")

	rootCmd.AddCommand(newServeCmd(), newBatchCmd(), newPrimesCmd())
	return rootCmd
}

func runREPL(cmd *cobra.Command, args []string) error {
	depth, err := maxDepth(cmd)
	if err != nil {
		return err
	}

	engine := runtime.NewEngine(nil, expr.WithMaxDepth(depth))
	sess := runtime.NewSession(engine, cmd.InOrStdin(), cmd.OutOrStdout())
	sess.Prompt, _ = cmd.Flags().GetString("prompt")
	sess.Evaluate, _ = cmd.Flags().GetBool("evaluate")
	sess.Infix, _ = cmd.Flags().GetBool("infix")
	return sess.Run()
}

// maxDepth resolves the operator stack bound from --max-depth or MAX_DEPTH.
// Zero selects the translator default.
func maxDepth(cmd *cobra.Command) (int, error) {
	if v, _ := cmd.Flags().GetInt("max-depth"); v != 0 {
		if v < 0 {
			return 0, fmt.Errorf("--max-depth must be positive, got %d", v)
		}
		return v, nil
	}
	raw := envOrDefault("MAX_DEPTH", "0")
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("MAX_DEPTH must be a positive integer, got %q", raw)
	}
	return v, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

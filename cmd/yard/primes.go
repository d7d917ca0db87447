package main

import (
	"fmt"
	"strconv"

	"github.com/lemonberrylabs/shunting-yard/pkg/sieve"
	"github.com/spf13/cobra"
)

func newPrimesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "primes N",
		Short: "Print the primes below N",
		Args:  cobra.ExactArgs(1),
		RunE:  runPrimes,
	}
}

func runPrimes(cmd *cobra.Command, args []string) error {
	limit, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("limit must be an integer, got %q", args[0])
	}
	if err := sieve.CheckLimit(limit); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, p := range sieve.Primes(limit) {
		fmt.Fprintln(out, p)
	}
	return nil
}

package main

import (
	"github.com/mynextid/private-score/cmd/scorezk"
	"github.com/spf13/cobra"
)

// Init the cmd
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "scorezk",
		Short: "Private credit score service",
		Long:  `Tools and an API for scoring wallets and proving credit predicates in zero knowledge`,
	}

	rootCmd.AddCommand(
		scorezk.NewServeCmd(),
		scorezk.NewCompileCmd(),
		scorezk.NewScoreCmd(),
		scorezk.NewCommitCmd(),
		scorezk.NewTokenCmd(),
		NewVersionCmd(),
	)

	return rootCmd
}

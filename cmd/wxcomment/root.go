package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "wxcomment",
		Short:         "Weather comment generation service",
		Long:          "wxcomment generates short Japanese weather comment pairs from forecasts and a past-comment corpus, validated by a rule pipeline.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newServeCmd(), newGenerateCmd(), newBatchCmd())
	return root
}

package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wxcomment/wxcomment-go/history"
	"github.com/wxcomment/wxcomment-go/workflow"
)

func newGenerateCmd() *cobra.Command {
	var (
		locationName string
		providerName string
		targetStr    string
		temperature  float64
		unified      bool
		classic      bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate one comment pair and print it as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			req := workflow.Request{
				LocationName: locationName,
				Provider:     providerName,
				Temperature:  temperature,
			}
			if targetStr != "" {
				target, err := time.Parse(time.RFC3339, targetStr)
				if err != nil {
					return fmt.Errorf("--target must be RFC 3339: %w", err)
				}
				req.TargetTime = target
			}
			if unified {
				v := true
				req.UseUnifiedPath = &v
			}
			if classic {
				v := false
				req.UseUnifiedPath = &v
			}

			res, err := a.gen.Generate(ctx, req)
			if err != nil {
				return err
			}
			if err := a.hist.Append(ctx, history.FromResult(res)); err != nil {
				a.log.Warn("history append failed", zap.Error(err))
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}

	cmd.Flags().StringVarP(&locationName, "location", "l", "", "location name (required)")
	cmd.Flags().StringVarP(&providerName, "provider", "p", "", "llm provider (default from config)")
	cmd.Flags().StringVar(&targetStr, "target", "", "target datetime, RFC 3339 (default tomorrow 09:00 JST)")
	cmd.Flags().Float64Var(&temperature, "temperature", 0, "llm sampling temperature")
	cmd.Flags().BoolVar(&unified, "unified", false, "force the single-call unified path")
	cmd.Flags().BoolVar(&classic, "classic", false, "force the classic select/evaluate/generate path")
	_ = cmd.MarkFlagRequired("location")
	cmd.MarkFlagsMutuallyExclusive("unified", "classic")
	return cmd
}

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wxcomment/wxcomment-go/batch"
	"github.com/wxcomment/wxcomment-go/history"
	"github.com/wxcomment/wxcomment-go/workflow"
)

func newBatchCmd() *cobra.Command {
	var (
		filePath     string
		providerName string
		targetStr    string
	)

	cmd := &cobra.Command{
		Use:   "batch [location ...]",
		Short: "Generate comments for many locations, streaming results as JSON lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := args
			if filePath != "" {
				fromFile, err := readLocationFile(filePath)
				if err != nil {
					return err
				}
				names = append(names, fromFile...)
			}
			if len(names) == 0 {
				return fmt.Errorf("no locations given: pass names as arguments or --file")
			}

			var target time.Time
			if targetStr != "" {
				t, err := time.Parse(time.RFC3339, targetStr)
				if err != nil {
					return fmt.Errorf("--target must be RFC 3339: %w", err)
				}
				target = t
			}

			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			reqs := make([]workflow.Request, len(names))
			for i, name := range names {
				reqs[i] = workflow.Request{
					LocationName: name,
					Provider:     providerName,
					TargetTime:   target,
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			report, err := a.orch.Run(ctx, reqs, func(item batch.ItemResult) {
				_ = enc.Encode(item)
			})
			if err != nil {
				return err
			}

			for _, item := range report.Results {
				if item.Result == nil {
					continue
				}
				if err := a.hist.Append(ctx, history.FromResult(item.Result)); err != nil {
					a.log.Warn("history append failed", zap.Error(err))
				}
			}

			if err := enc.Encode(report.Stats); err != nil {
				return err
			}
			if report.Stats.Succeeded == 0 {
				return fmt.Errorf("all %d items failed", report.Stats.Processed)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&filePath, "file", "f", "", "JSON file holding an array of location names")
	cmd.Flags().StringVarP(&providerName, "provider", "p", "", "llm provider (default from config)")
	cmd.Flags().StringVar(&targetStr, "target", "", "target datetime, RFC 3339 (default tomorrow 09:00 JST)")
	return cmd
}

func readLocationFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("location file: %w", err)
	}
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("location file %s: %w", path, err)
	}
	return names, nil
}

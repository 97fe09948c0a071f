package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Jainesh24/cwi-backend/internal/contracts"
	"github.com/Jainesh24/cwi-backend/internal/risk"
)

var (
	scoreFile     string
	scoreBaseline string
	scoreTables   string
	scoreFormat   string
)

func init() {
	rootCmd.AddCommand(scoreCmd)
	scoreCmd.Flags().StringVar(&scoreFile, "file", "", "Path to waste event JSON (required)")
	scoreCmd.Flags().StringVar(&scoreBaseline, "baseline", "", "Path to department baseline JSON (optional)")
	scoreCmd.Flags().StringVar(&scoreTables, "tables", "", "Path to risk tables YAML (optional)")
	scoreCmd.Flags().StringVarP(&scoreFormat, "format", "f", "json", "Output format (json|text)")
	_ = scoreCmd.MarkFlagRequired("file")
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score one waste event without a database or network",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runScore(cmd.Context(), cmd.OutOrStdout(), scoreFile, scoreBaseline, scoreTables, scoreFormat)
	},
}

// offlineStore serves one optional baseline and no history.
type offlineStore struct {
	baseline *contracts.Baseline
}

func (s offlineStore) FindBaseline(_ context.Context, _ string, department contracts.Department) (*contracts.Baseline, error) {
	if s.baseline == nil || s.baseline.Department != department {
		return nil, nil
	}
	b := *s.baseline
	return &b, nil
}

func (offlineStore) FindRecentEvents(context.Context, string, contracts.Department, time.Time) ([]contracts.WasteEvent, error) {
	return nil, nil
}

func runScore(ctx context.Context, out io.Writer, eventPath, baselinePath, tablesPath, format string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var submission contracts.WasteSubmission
	if err := readJSON(eventPath, &submission); err != nil {
		return err
	}
	if err := contracts.Validate(submission); err != nil {
		return fmt.Errorf("invalid event: %w", err)
	}
	event := submission.Event()
	event.Timestamp = time.Now().UTC()

	store := offlineStore{}
	if baselinePath != "" {
		var in contracts.BaselineInput
		if err := readJSON(baselinePath, &in); err != nil {
			return err
		}
		if err := contracts.Validate(in); err != nil {
			return fmt.Errorf("invalid baseline: %w", err)
		}
		b := in.Baseline("local")
		store.baseline = &b
	}

	tables, err := risk.LoadTables(tablesPath)
	if err != nil {
		return err
	}

	engine := risk.NewEngine(store, store, risk.NewScorer(tables), nil)
	result, err := engine.Analyze(ctx, event, "local")
	if err != nil {
		return err
	}

	switch format {
	case "text":
		fmt.Fprintf(out, "Risk score: %d/100 (anomaly: %t)\n", result.RiskScore, result.AnomalyDetected)
		for _, f := range result.Factors {
			fmt.Fprintf(out, "  - %s\n", f)
		}
		fmt.Fprintf(out, "\n%s\n\n%s\n", result.Assessment, result.RecommendedAction)
		if result.AlertMessage != nil {
			fmt.Fprintf(out, "\nALERT: %s\n", *result.AlertMessage)
		}
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	return nil
}

func readJSON(path string, dst any) error {
	body, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

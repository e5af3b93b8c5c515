package cmd

import (
	"log/slog"
	"sort"
	"strconv"

	"github.com/edgeflag/edgeflag/internal/output"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats <environment-api-key>",
	Short: "Show override analytics for an environment",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	envKey := args[0]

	a, err := buildApp(ctx, slog.Default())
	if err != nil {
		return err
	}

	output.Info("scanning environment overrides...")

	counts, err := a.analytics.OverrideCountsByFeature(ctx, envKey)
	if err != nil {
		output.Error("failed to count overrides: %v", err)
		return err
	}

	// The total (identity, feature) pair count is the sum of the
	// per-feature identity counts; one scan answers both questions.
	total := 0
	for _, n := range counts {
		total += n
	}

	output.Header("Override analytics: " + envKey)
	output.KeyValue("Total overrides", strconv.Itoa(total))
	output.KeyValue("Overridden features", strconv.Itoa(len(counts)))
	output.Blank()

	featureIDs := make([]int64, 0, len(counts))
	for id := range counts {
		featureIDs = append(featureIDs, id)
	}
	sort.Slice(featureIDs, func(i, j int) bool { return featureIDs[i] < featureIDs[j] })

	for _, id := range featureIDs {
		label := "feature " + strconv.FormatInt(id, 10)
		if id == 0 {
			label = "unknown feature"
		}
		output.KeyValue(label, strconv.Itoa(counts[id])+" identities")
	}

	return nil
}

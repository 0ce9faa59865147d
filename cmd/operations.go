package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/spigell/selection-pipeline/internal/funnel"
	"github.com/spigell/selection-pipeline/internal/logger"
	"github.com/spigell/selection-pipeline/internal/pipeline"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

// runOperation is the shared body of the batch commands: build the pipeline,
// optionally ask for confirmation, execute, report the summary.
func runOperation(cmd *cobra.Command, withAI, confirm bool, op func(context.Context, *pipeline.Pipeline) (*pipeline.Summary, error)) {
	ctx := context.Background()

	zlog, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		zlog.Fatal("getting a config", zap.Error(err))
	}
	if config == nil {
		zlog.Fatal("config is required")
	}

	zlog.Info("starting the selection-pipeline",
		zap.String("version", version),
		zap.String("operation", cmd.Name()),
	)

	pretty, _ := json.MarshalIndent(config, "", "  ")
	zlog.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	p, err := newPipeline(ctx, config, zlog, withAI)
	if err != nil {
		zlog.Fatal("building the pipeline", zap.Error(err))
	}

	if confirm && !viper.GetBool("dry-run") && cmd.Flag("auto-aprove").Value.String() == "false" {
		counts, err := p.Status(ctx)
		if err != nil {
			zlog.Fatal("reading current stage counts", zap.Error(err))
		}
		printStatus(counts)

		prompt := promptui.Select{
			Label: fmt.Sprintf("Commit the %s round?", cmd.Name()),
			Items: []string{PromptYes, PromptNo},
		}
		_, action, err := prompt.Run()
		if err != nil {
			zlog.Fatal("exiting", zap.Error(err))
		}
		if action != PromptYes {
			zlog.Info("exiting", zap.String("reason", "got no from prompt"))
			return
		}
	}

	summary, err := op(ctx, p)
	if err != nil {
		if summary != nil {
			reportSummary(zlog, summary)
		}
		zlog.Fatal("operation failed", zap.Error(err))
	}

	reportSummary(zlog, summary)
}

func reportSummary(zlog *zap.Logger, summary *pipeline.Summary) {
	zlog.Info("operation summary",
		zap.String("operation", summary.Operation),
		zap.Int("total", summary.Total()),
		zap.Int("succeeded", len(summary.Succeeded)),
		zap.Int("partial", len(summary.Partial)),
		zap.Int("failed", len(summary.Failed)),
	)

	for _, outcome := range summary.Partial {
		zlog.Warn("partial result",
			zap.String("candidate_id", outcome.CandidateID),
			zap.String("reason", outcome.Reason),
		)
	}
	for _, outcome := range summary.Failed {
		zlog.Warn("failed candidate",
			zap.String("candidate_id", outcome.CandidateID),
			zap.String("reason", outcome.Reason),
		)
	}

	if summary.Ranking != nil {
		for _, entry := range summary.Ranking.Entries {
			zlog.Info("ranking entry",
				zap.Int("rank", entry.Rank),
				zap.String("candidate_id", entry.CandidateID),
				zap.Float64("score", entry.Score),
			)
		}
	}
}

func printStatus(counts map[funnel.Stage]int) {
	for _, stage := range funnel.Stages {
		fmt.Printf("%-18s %d\n", stage, counts[stage])
	}
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate quiz submissions of registered candidates",
	Run: func(cmd *cobra.Command, _ []string) {
		runOperation(cmd, false, false, func(ctx context.Context, p *pipeline.Pipeline) (*pipeline.Summary, error) {
			return p.EvaluateQuizzes(ctx)
		})
	},
}

var shortlistCmd = &cobra.Command{
	Use:   "shortlist",
	Short: "Shortlist the top candidates by quiz score and notify them",
	Run: func(cmd *cobra.Command, _ []string) {
		runOperation(cmd, false, true, func(ctx context.Context, p *pipeline.Pipeline) (*pipeline.Summary, error) {
			return p.ShortlistTop(ctx)
		})
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Transcribe and score the video interviews of shortlisted candidates",
	Run: func(cmd *cobra.Command, _ []string) {
		runOperation(cmd, true, false, func(ctx context.Context, p *pipeline.Pipeline) (*pipeline.Summary, error) {
			return p.AnalyzeVideos(ctx)
		})
	},
}

var finalizeCmd = &cobra.Command{
	Use:   "finalize",
	Short: "Select the final candidates by composite score and notify them",
	Run: func(cmd *cobra.Command, _ []string) {
		runOperation(cmd, false, true, func(ctx context.Context, p *pipeline.Pipeline) (*pipeline.Summary, error) {
			return p.MakeFinalSelection(ctx)
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the number of candidates at every stage",
	Run: func(_ *cobra.Command, _ []string) {
		ctx := context.Background()

		zlog, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
		if err != nil {
			log.Fatalf("creating a logger: %s", err)
		}

		config, err := getConfig()
		if err != nil {
			zlog.Fatal("getting a config", zap.Error(err))
		}

		p, err := newPipeline(ctx, config, zlog, false)
		if err != nil {
			zlog.Fatal("building the pipeline", zap.Error(err))
		}

		counts, err := p.Status(ctx)
		if err != nil {
			zlog.Fatal("reading current stage counts", zap.Error(err))
		}

		printStatus(counts)
	},
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(shortlistCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(finalizeCmd)
	rootCmd.AddCommand(statusCmd)
}

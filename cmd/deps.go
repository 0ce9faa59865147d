package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spigell/selection-pipeline/internal/ai/assemblyai"
	"github.com/spigell/selection-pipeline/internal/ai/gemini"
	"github.com/spigell/selection-pipeline/internal/funnel"
	"github.com/spigell/selection-pipeline/internal/logger"
	"github.com/spigell/selection-pipeline/internal/notify"
	gmailnotify "github.com/spigell/selection-pipeline/internal/notify/gmail"
	"github.com/spigell/selection-pipeline/internal/pipeline"
	"github.com/spigell/selection-pipeline/internal/secrets"
	"github.com/spigell/selection-pipeline/internal/store"
	"github.com/spigell/selection-pipeline/internal/store/sheets"
	"github.com/spigell/selection-pipeline/internal/store/sqlite"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

func newStore(ctx context.Context, config *Config, log *zap.Logger) (store.RecordStore, error) {
	if config.Store == nil {
		return nil, fmt.Errorf("store configuration is required")
	}

	driver := strings.TrimSpace(strings.ToLower(config.Store.Driver))
	switch driver {
	case "", "sheets":
		if config.Store.Sheets == nil {
			return nil, fmt.Errorf("sheets configuration is required for the sheets store")
		}
		s, err := sheets.New(ctx,
			config.Store.Sheets.SpreadsheetID,
			config.Store.Sheets.CredentialsFile,
			log,
		)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "sqlite":
		if config.Store.SQLite == nil || config.Store.SQLite.Path == "" {
			return nil, fmt.Errorf("sqlite path is required for the sqlite store")
		}
		s, err := sqlite.Open(config.Store.SQLite.Path, log)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", config.Store.Driver)
	}
}

func newAnalyzer(ctx context.Context, config *AIConfig, log *zap.Logger) (*gemini.Analyzer, error) {
	if config == nil || config.Gemini == nil {
		return nil, fmt.Errorf("gemini configuration is required for video analysis")
	}

	provider := strings.TrimSpace(strings.ToLower(config.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", config.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: config.Gemini.APIKeyFile,
		Env:  "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	genLogger := logger.WithProvider(log, "gemini", config.Gemini.Model)

	generator, err := gemini.NewGenerator(ctx, apiKey, config.Gemini.Model, config.Gemini.MaxRetries, genLogger)
	if err != nil {
		return nil, err
	}

	return gemini.NewAnalyzer(generator, genLogger, config.Gemini.MaxLogLength), nil
}

func newTranscriber(config *TranscribeConfig, log *zap.Logger) (*assemblyai.Client, error) {
	if config == nil {
		return nil, fmt.Errorf("transcribe configuration is required for video analysis")
	}

	provider := strings.TrimSpace(strings.ToLower(config.Provider))
	if provider != "" && provider != "assemblyai" {
		return nil, fmt.Errorf("unsupported transcription provider: %s", config.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "assemblyai api key",
		File: config.APIKeyFile,
		Env:  "ASSEMBLYAI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set transcribe.api-key-file or ASSEMBLYAI_API_KEY_FILE)", err)
	}

	client := assemblyai.New(logger.WithProvider(log, "assemblyai", ""), apiKey)
	if config.PollIntervalSeconds > 0 {
		client.PollInterval = time.Duration(config.PollIntervalSeconds) * time.Second
	}
	if config.TimeoutSeconds > 0 {
		client.Timeout = time.Duration(config.TimeoutSeconds) * time.Second
	}

	return client, nil
}

func newNotifier(ctx context.Context, config *NotifyConfig, log *zap.Logger) (notify.Notifier, error) {
	if config == nil || !config.Enabled {
		return nil, nil
	}

	data, err := os.ReadFile(config.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("reading gmail token from file %q: %w", config.TokenFile, err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("parsing gmail token: %w", err)
	}

	notifier, err := gmailnotify.New(ctx, oauth2.StaticTokenSource(&token), config.Sender, log)
	if err != nil {
		return nil, err
	}

	return notifier, nil
}

// newPipeline assembles the orchestrator for one command invocation. Video
// analysis collaborators are built only when the operation needs them.
func newPipeline(ctx context.Context, config *Config, log *zap.Logger, withAI bool) (*pipeline.Pipeline, error) {
	recordStore, err := newStore(ctx, config, log)
	if err != nil {
		return nil, fmt.Errorf("building record store: %w", err)
	}

	deps := pipeline.Deps{
		Store:  recordStore,
		Logger: log,
	}

	cfg := pipeline.Config{
		DryRun: viper.GetBool("dry-run"),
	}

	if config.Selection != nil {
		cfg.MaxShortlist = config.Selection.MaxShortlist
		cfg.MaxFinal = config.Selection.MaxFinal
		cfg.DriveLink = config.Selection.DriveLink
		cfg.DeadlineDays = config.Selection.DeadlineDays
		if w := config.Selection.VideoWeights; w != nil {
			cfg.VideoWeights = funnel.VideoWeights{
				Confidence:    w.Confidence,
				Communication: w.Communication,
				Technical:     w.Technical,
			}
		}
		if w := config.Selection.FinalWeights; w != nil {
			cfg.FinalWeights = funnel.FinalWeights{Quiz: w.Quiz, Video: w.Video}
		}
	}

	if config.AI != nil {
		cfg.RequestsPerMinute = config.AI.RequestsPerMinute
		cfg.AITimeout = time.Duration(config.AI.TimeoutSeconds) * time.Second
	}

	if withAI {
		analyzer, err := newAnalyzer(ctx, config.AI, log)
		if err != nil {
			return nil, fmt.Errorf("building analyzer: %w", err)
		}
		transcriber, err := newTranscriber(config.Transcribe, log)
		if err != nil {
			return nil, fmt.Errorf("building transcriber: %w", err)
		}
		deps.Analyzer = analyzer
		deps.Transcriber = transcriber
	}

	notifier, err := newNotifier(ctx, config.Notify, log)
	if err != nil {
		return nil, fmt.Errorf("building notifier: %w", err)
	}
	deps.Notifier = notifier

	return pipeline.New(cfg, deps), nil
}

package cmd

import (
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "selection-pipeline"
)

type Config struct {
	Store      *StoreConfig      `mapstructure:"store"`
	Selection  *SelectionConfig  `mapstructure:"selection"`
	AI         *AIConfig         `mapstructure:"ai"`
	Transcribe *TranscribeConfig `mapstructure:"transcribe"`
	Notify     *NotifyConfig     `mapstructure:"notify"`
}

type StoreConfig struct {
	Driver string             `mapstructure:"driver"`
	Sheets *SheetsStoreConfig `mapstructure:"sheets"`
	SQLite *SQLiteStoreConfig `mapstructure:"sqlite"`
}

type SheetsStoreConfig struct {
	SpreadsheetID   string `mapstructure:"spreadsheet-id"`
	CredentialsFile string `mapstructure:"credentials-file"`
}

type SQLiteStoreConfig struct {
	Path string `mapstructure:"path"`
}

type SelectionConfig struct {
	MaxShortlist int                 `mapstructure:"max-shortlist"`
	MaxFinal     int                 `mapstructure:"max-final"`
	VideoWeights *VideoWeightsConfig `mapstructure:"video-weights"`
	FinalWeights *FinalWeightsConfig `mapstructure:"final-weights"`
	DriveLink    string              `mapstructure:"drive-link"`
	DeadlineDays int                 `mapstructure:"deadline-days"`
}

type VideoWeightsConfig struct {
	Confidence    float64 `mapstructure:"confidence"`
	Communication float64 `mapstructure:"communication"`
	Technical     float64 `mapstructure:"technical"`
}

type FinalWeightsConfig struct {
	Quiz  float64 `mapstructure:"quiz"`
	Video float64 `mapstructure:"video"`
}

type AIConfig struct {
	Provider          string        `mapstructure:"provider"`
	RequestsPerMinute int           `mapstructure:"requests-per-minute"`
	TimeoutSeconds    int           `mapstructure:"timeout-seconds"`
	Gemini            *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type TranscribeConfig struct {
	Provider            string `mapstructure:"provider"`
	APIKeyFile          string `mapstructure:"api-key-file"`
	PollIntervalSeconds int    `mapstructure:"poll-interval-seconds"`
	TimeoutSeconds      int    `mapstructure:"timeout-seconds"`
}

type NotifyConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Sender    string `mapstructure:"sender"`
	TokenFile string `mapstructure:"token-file"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "selection-pipeline is a cli for driving candidates through a multi-stage selection funnel",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("transcribe.api-key-file", "ASSEMBLYAI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding ASSEMBLYAI_API_KEY_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is selection-pipeline.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().Bool("dry-run", false, "compute everything but write and send nothing")
	rootCmd.PersistentFlags().BoolP("auto-aprove", "y", false, "do not ask for confirmation before committing a selection round")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("dry-run", rootCmd.PersistentFlags().Lookup("dry-run"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// We can't proceed if the config file parsed with error.
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}

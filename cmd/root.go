package cmd

import (
	"errors"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "retentioniq"
)

type Config struct {
	Model   *ModelConfig   `mapstructure:"model"`
	Dataset *DatasetConfig `mapstructure:"dataset"`
	Server  *ServerConfig  `mapstructure:"server"`
	AI      *AIConfig      `mapstructure:"ai"`
}

type ModelConfig struct {
	Dir         string `mapstructure:"dir"`
	ONNXLibrary string `mapstructure:"onnx-library"`
}

type DatasetConfig struct {
	Path        string `mapstructure:"path"`
	PreviewRows int    `mapstructure:"preview-rows"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type AIConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Provider string        `mapstructure:"provider"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	BaseURL      string `mapstructure:"base-url"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "retentioniq predicts employee attrition risk and explains it",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	setDefaults()

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is retentioniq.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("model-dir", "", "directory with the model artifacts")
	rootCmd.PersistentFlags().String("dataset", "", "path to the HR attrition CSV")
	rootCmd.PersistentFlags().Bool("no-ai", false, "do not call the generative model")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("model.dir", rootCmd.PersistentFlags().Lookup("model-dir"))
	viper.BindPFlag("dataset.path", rootCmd.PersistentFlags().Lookup("dataset"))
	viper.BindPFlag("no-ai", rootCmd.PersistentFlags().Lookup("no-ai"))
}

func setDefaults() {
	viper.SetDefault("model.dir", "models")
	viper.SetDefault("model.onnx-library", "")
	viper.SetDefault("dataset.path", "data/WA_Fn-UseC_-HR-Employee-Attrition.csv")
	viper.SetDefault("dataset.preview-rows", 5)
	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("ai.enabled", true)
	viper.SetDefault("ai.provider", "gemini")
	viper.SetDefault("ai.timeout", 60*time.Second)
	viper.SetDefault("ai.gemini.api-key", "")
	viper.SetDefault("ai.gemini.api-key-file", "")
	viper.SetDefault("ai.gemini.model", "gemma-3n-e4b-it")
	viper.SetDefault("ai.gemini.base-url", "")
	viper.SetDefault("ai.gemini.max-log-length", 200)
}

func initConfig() {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env file: %v", err)
	}

	viper.SetEnvPrefix(strings.ToUpper(app))
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// Without --config the file is optional; defaults and env are enough.
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if viper.GetBool("no-ai") && config.AI != nil {
		config.AI.Enabled = false
	}

	return config, nil
}

package commands

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sushydev/byte_ring_go/internal/config"
)

var (
	cfgFile   string
	capacity  string
	chunkSize string
	logLevel  string
	logFormat string
)

// settings is resolved once per invocation by the root PersistentPreRunE.
type settings struct {
	capacity  int
	chunkSize int
	logger    *zap.Logger
}

var current settings

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "byte_ring",
	Short: "Fixed capacity byte ring buffer tools",
	Long: `byte_ring drives the byte_ring_go ring buffer.

Settings come from an optional YAML file (--config) and can be overridden
with flags. Sizes accept human readable values such as 15B, 4KiB or 1MB.`,
	SilenceUsage:      true,
	PersistentPreRunE: resolveSettings,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if current.logger != nil {
			_ = current.logger.Sync()
		}
	},
}

// Command returns the root cobra command for mounting into a parent CLI.
func Command() *cobra.Command {
	return rootCmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&capacity, "capacity", config.DefaultCapacity, "ring capacity")
	rootCmd.PersistentFlags().StringVar(&chunkSize, "chunk", config.DefaultChunkSize, "transfer chunk size")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log format (console, json)")

	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(pipeCmd)
	rootCmd.AddCommand(framesCmd)
}

func resolveSettings(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("capacity") {
		cfg.Capacity = capacity
	}
	if flags.Changed("chunk") {
		cfg.ChunkSize = chunkSize
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = logFormat
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	if current.capacity, err = cfg.CapacityBytes(); err != nil {
		return err
	}
	if current.chunkSize, err = cfg.ChunkBytes(); err != nil {
		return err
	}

	current.logger, err = newLogger(cfg.Log)
	if err != nil {
		return err
	}

	return nil
}

func newLogger(cfg config.Log) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, errors.Wrap(err, "log level")
	}

	var zc zap.Config
	if cfg.Format == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
		zc.DisableStacktrace = true
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}

	logger, err := zc.Build()
	if err != nil {
		return nil, errors.Wrap(err, "build logger")
	}
	return logger.Named("byte_ring"), nil
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/maxleiko/oxcc"
)

var (
	flagConfig  string
	flagVerbose bool
	flagNoColor bool
)

// errorHandled is set when a command already reported its failure, so main()
// doesn't double-print.
var errorHandled bool

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		stop()
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "oxcc",
	Short:         "Transpile TypeScript and JavaScript to plain JavaScript",
	Long:          "oxcc strips TypeScript syntax, lowers enums, namespaces and parameter properties, and rewrites relative import extensions.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if flagNoColor {
			color.NoColor = true
		}
	},
	// No Run; prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "TOML configuration file (default: built-in defaults)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log stage timings and per-file progress")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colored diagnostics")

	rootCmd.AddCommand(transpileCmd)
	rootCmd.AddCommand(classifyCmd)
}

// newLogger builds the console logger used for progress output.
func newLogger(w io.Writer) *zap.Logger {
	level := zap.InfoLevel
	if flagVerbose {
		level = zap.DebugLevel
	}
	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = ""
	if !color.NoColor {
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(zapcore.AddSync(w)), level)
	return zap.New(core)
}

func loadConfig() (oxcc.Config, error) {
	if flagConfig == "" {
		return oxcc.DefaultConfig(), nil
	}
	return oxcc.LoadConfig(flagConfig)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

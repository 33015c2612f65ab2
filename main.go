package main

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	envPrefix  = "GOADVICE"
	configName = ".goadvice"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type app struct {
	config *viper.Viper
	logger zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{config: viper.New(), logger: zerolog.Nop()}
	root := &cobra.Command{
		Use:           "goadvice",
		Short:         "Generate and inspect advised interface wrappers",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loadConfig(); err != nil {
				return err
			}
			a.logger = newLogger(cmd.ErrOrStderr(), a.config.GetString("log-level"))
			return nil
		},
	}
	root.PersistentFlags().String("log-level", "info", "log level: trace, debug, info, warn, error, disabled")
	_ = a.config.BindPFlag("log-level", root.PersistentFlags().Lookup("log-level"))

	root.AddCommand(a.newGenCmd(), a.newInspectCmd())
	return root
}

// loadConfig reads the optional .goadvice.yaml of the working directory and
// GOADVICE_* environment variables.
func (a *app) loadConfig() error {
	a.config.SetConfigName(configName)
	a.config.SetConfigType("yaml")
	a.config.AddConfigPath(".")
	a.config.SetEnvPrefix(envPrefix)
	a.config.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	a.config.AutomaticEnv()
	err := a.config.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return errors.Wrap(err, "read config")
	}
	return nil
}

func newLogger(out io.Writer, level string) zerolog.Logger {
	lvl, ok := parseLevel(level)
	if !ok {
		lvl = zerolog.InfoLevel
	}
	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).Level(lvl).With().Timestamp().Str("app", "goadvice").Logger()
}

func parseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace", "diagnostics":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "disable", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

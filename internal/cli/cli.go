package cli

import (
	"errors"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/vk/liveui/internal/config"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(err error) *ExitError {
	return &ExitError{Code: 2, Message: err.Error()}
}

// flags holds the values of the persistent flags shared by every command.
type flags struct {
	configPath      string
	roots           []string
	debounceMS      int
	logLevel        string
	logFormat       string
	healthcheckPort int
}

func (f *flags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.configPath, "config", "c", "", "Path to a YAML or TOML config file.")
	fs.StringSliceVarP(&f.roots, "root", "r", nil, "Directory to watch; repeatable.")
	fs.IntVar(&f.debounceMS, "debounce", 0, "Debounce window in milliseconds.")
	fs.StringVar(&f.logLevel, "log-level", "", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	fs.StringVar(&f.logFormat, "log-format", "", "Log output format. Options: 'auto', 'text' or 'json'.")
	fs.IntVar(&f.healthcheckPort, "healthcheck-port", 0, "Port for the HTTP health and debug server. 0 is disabled.")
}

// resolve loads the config file and applies every flag the user set on top.
func (f *flags) resolve(fs *pflag.FlagSet) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, usageError(err)
	}
	if fs.Changed("root") {
		cfg.Roots = f.roots
	}
	if fs.Changed("debounce") {
		cfg.DebounceMS = f.debounceMS
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = strings.ToLower(f.logLevel)
	}
	if fs.Changed("log-format") {
		cfg.LogFormat = strings.ToLower(f.logFormat)
	}
	if fs.Changed("healthcheck-port") {
		cfg.HealthcheckPort = f.healthcheckPort
	}
	if err := cfg.Validate(); err != nil {
		return nil, usageError(err)
	}
	return cfg, nil
}

// NewRootCmd creates the root liveui command with all subcommands registered.
// Command output goes to outW.
func NewRootCmd(outW io.Writer) *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:           "liveui",
		Short:         "liveui - live-update engine for declarative UI sources",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetOut(outW)
	f.register(root.PersistentFlags())

	root.AddCommand(newWatchCmd(f))
	root.AddCommand(newCheckCmd(f))
	root.AddCommand(newTreeCmd(f))
	return root
}

// Execute runs the command tree with args and maps failures to *ExitError.
func Execute(cmd *cobra.Command, args []string) error {
	cmd.SetArgs(args)
	err := cmd.Execute()
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	return usageError(err)
}

package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/homemade/hubsync/sync"
)

const (
	ExitCodeOK          = 0
	ExitCodeFailure     = 1
	ExitCodeConfigError = 2
)

// App holds the process configuration and its collaborators.
type App struct {
	config *Config
	env    sync.CompositeEnvVar
	logger zerolog.Logger
	stdout io.Writer
	newID  func() string
}

type Option func(*App)

// WithStdout redirects the report, stdout by default.
func WithStdout(w io.Writer) Option {
	return func(a *App) {
		a.stdout = w
	}
}

// WithLogger replaces the logger built from LOG_* variables.
func WithLogger(logger zerolog.Logger) Option {
	return func(a *App) {
		a.logger = logger
	}
}

// WithRunID fixes the run ID instead of generating one per run.
func WithRunID(id string) Option {
	return func(a *App) {
		a.newID = func() string { return id }
	}
}

func New(opts ...Option) (*App, error) {
	v := viper.New()
	config := LoadConfig(v)
	a := &App{
		config: config,
		env:    NewViperEnvironment(v),
		logger: NewLogger(config),
		stdout: os.Stdout,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

func (a *App) Logger() zerolog.Logger {
	return a.logger
}

// Execute runs the hubsync command with the given arguments.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

func (a *App) createRootCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hubsync",
		Short: "Sync contacts from the source API into HubSpot",
		Long: `hubsync fetches every contact from the source API and upserts each one
into HubSpot CRM, matching existing contacts by email address.

Configuration is read from the environment, after loading .env.local and .env:
  HUBSPOT_API_KEY   HubSpot private app token (required)
  AWS_API_URL       source API endpoint (required)
  AWS_BEARER_TOKEN  source API bearer token (required)
  HUBSYNC_CONFIG    optional YAML file layered over the built-in settings`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd.Context())
		},
	}
}

func (a *App) run(ctx context.Context) error {
	config, err := sync.LoadConfigFromEnvironment(a.env, sync.ConfigWithOverlayFile(a.config.ConfigFile))
	if err != nil {
		return err
	}

	runID := a.newID()
	sc := &sync.SyncContext{
		Config:         config,
		RunID:          runID,
		RecordRequests: a.config.RecordRequests,
		Logger:         a.logger.With().Str("run_id", runID).Logger(),
	}

	report, err := sync.Run(ctx, sc)
	if err != nil {
		return err
	}

	output, err := report.Format(config.Report.Format)
	if err != nil {
		return fmt.Errorf("failed to format report %w", err)
	}
	_, err = io.WriteString(a.stdout, output)
	return err
}

// ExitCode maps an error returned by Execute to a process exit code.
// Configuration errors exit with 2, any other error with 1.
func ExitCode(err error) int {
	if err == nil {
		return ExitCodeOK
	}
	var configErr *sync.ConfigError
	if errors.As(err, &configErr) {
		return ExitCodeConfigError
	}
	return ExitCodeFailure
}

// ExitOnError prints err to stderr and exits with its exit code.
func ExitOnError(err error) {
	if err != nil {
		_, _ = os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(ExitCode(err))
	}
}

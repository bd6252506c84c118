package cli

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/macropower/filemon/internal/otel"
	"github.com/macropower/filemon/pkg/config"
	"github.com/macropower/filemon/pkg/dispatch"
	"github.com/macropower/filemon/pkg/inotify"
	"github.com/macropower/filemon/pkg/watch"
)

const cmdExamples = `  # Rebuild when anything in the current directory settles:
  filemon -c 'make build'

  # Watch several directories:
  filemon -c 'systemctl reload nginx' /etc/nginx/conf.d /etc/nginx/sites-enabled

  # Run the command directly, bypassing the shell:
  filemon --no-shell -c 'logger -t filemon' /var/spool/uploads

  # Print the active configuration and exit:
  filemon --show-config`

type RunArgs struct {
	*RootArgs

	Command     string
	ConfigPath  string
	Paths       []string
	NoShell     bool
	WriteConfig bool
	ShowConfig  bool
}

func NewRunArgs(rootArgs *RootArgs) *RunArgs {
	return &RunArgs{
		RootArgs: rootArgs,
	}
}

func (ra *RunArgs) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&ra.Command, "command", "c", "", "Command to run when a watched file settles")
	cmd.Flags().StringArrayVarP(&ra.Paths, "path", "p", nil, "Directory to watch, repeatable")
	cmd.Flags().StringVar(&ra.ConfigPath, "config", "", "Path to the filemon configuration file")
	cmd.Flags().BoolVar(&ra.NoShell, "no-shell", false, "Run the command directly instead of through sh -c")
	cmd.Flags().BoolVar(&ra.WriteConfig, "write-config", false, "Write the default configuration file and exit")
	cmd.Flags().BoolVar(&ra.ShowConfig, "show-config", false, "Print the active configuration and exit")

	err := cmd.MarkFlagFilename("config", "yaml", "yml")
	if err != nil {
		panic(fmt.Errorf("mark config flag: %w", err))
	}

	err = cmd.MarkFlagDirname("path")
	if err != nil {
		panic(fmt.Errorf("mark path flag: %w", err))
	}
}

func NewRunCmd(ra *RunArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run [path]...",
		Short:   "Default command, watches paths and dispatches the configured command",
		Example: cmdExamples,
		Args:    cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Positional arguments are additional paths to watch.
			ra.Paths = append(ra.Paths, args...)

			return run(cmd, ra)
		},
	}
	ra.AddFlags(cmd)

	bindEnvVars(cmd)

	return cmd
}

func run(cmd *cobra.Command, rc *RunArgs) error {
	cfg, err := loadConfig(rc)
	if err != nil {
		return err
	}
	if rc.WriteConfig {
		// Exit early after writing the default config.
		return nil
	}

	applyOverrides(cfg, rc)

	if rc.ShowConfig {
		yamlBytes, err := cfg.MarshalYAML()
		if err != nil {
			return fmt.Errorf("marshal config yaml: %w", err)
		}

		mustN(fmt.Fprint(cmd.OutOrStdout(), string(yamlBytes)))

		return nil
	}

	if cfg.Command == "" {
		return fmt.Errorf("invalid argument: no command given, set --command or the config file")
	}
	if len(cfg.Paths) == 0 {
		return fmt.Errorf("invalid argument: no paths given, set --path or the config file")
	}

	paths, err := resolvePaths(cfg.Paths)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	shutdownTracing, err := otel.SetupSDK(ctx)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		err := shutdownTracing(ctx)
		if err != nil {
			slog.Error("shutdown tracing", slog.Any("error", err))
		}
	}()

	dispatcher, err := newDispatcher(cfg)
	if err != nil {
		return err
	}

	ch, err := inotify.Open()
	if err != nil {
		return fmt.Errorf("open notification channel: %w", err)
	}

	engine := watch.NewEngine(ch, dispatcher)
	defer func() {
		err := engine.Close()
		if err != nil {
			slog.Error("close engine", slog.Any("error", err))
		}
	}()

	err = engine.Watch(ctx, paths)
	if err != nil {
		return fmt.Errorf("watch paths: %w", err)
	}

	slog.Info("starting",
		slog.Any("paths", paths),
		slog.String("command", cfg.Command),
		slog.Bool("shell", cfg.UseShell()),
	)

	return engine.Run(ctx)
}

// loadConfig resolves the config path, writes the default config when absent,
// and loads the file. A missing or unreadable file is not fatal unless
// --write-config was given.
func loadConfig(rc *RunArgs) (*config.Config, error) {
	configPath := rc.ConfigPath
	if configPath == "" {
		configPath = config.GetPath()
	}

	err := config.WriteDefault(configPath)
	if err != nil {
		slog.Error("write default config", slog.Any("error", err))
	}
	if rc.WriteConfig {
		return nil, err
	}

	cl, err := config.NewLoaderFromFile(configPath)
	if err != nil {
		slog.Warn("could not read config, using defaults", slog.Any("error", err))

		return config.NewConfig(), nil
	}

	cfg, err := cl.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid config %q: %w", configPath, err)
	}

	return cfg, nil
}

// applyOverrides layers command line flags over the loaded configuration.
func applyOverrides(cfg *config.Config, rc *RunArgs) {
	if rc.Command != "" {
		cfg.Command = rc.Command
	}
	if len(rc.Paths) > 0 {
		cfg.Paths = rc.Paths
	}
	if rc.NoShell {
		useShell := false
		cfg.Shell = &useShell
	}
}

func resolvePaths(paths []string) ([]string, error) {
	absPaths := make([]string, 0, len(paths))
	for _, p := range paths {
		absPath, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolve path %q: %w", p, err)
		}

		absPaths = append(absPaths, absPath)
	}

	return absPaths, nil
}

//nolint:ireturn // Dispatcher implementations are selected at runtime.
func newDispatcher(cfg *config.Config) (watch.Dispatcher, error) {
	if cfg.UseShell() {
		d, err := dispatch.NewShell(cfg.Command, dispatch.WithMaxCommandLen(cfg.MaxCommandLength))
		if err != nil {
			return nil, fmt.Errorf("create dispatcher: %w", err)
		}

		return d, nil
	}

	d, err := dispatch.NewExec(cfg.Command, dispatch.WithExecMaxCommandLen(cfg.MaxCommandLength))
	if err != nil {
		return nil, fmt.Errorf("create dispatcher: %w", err)
	}

	return d, nil
}

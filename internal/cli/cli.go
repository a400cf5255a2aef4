// Package cli is the waveseek command-line host for the player engine.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"waveseek.click/internal/config"
	"waveseek.click/internal/media"
	"waveseek.click/internal/notify"
	"waveseek.click/internal/player"
	"waveseek.click/internal/waveform"
)

const Version = "0.4.0"

// CLI represents the command-line interface
type CLI struct {
	rootCmd          *cobra.Command
	configManager    *config.ConfigManager
	outputFactory    media.OutputFactory
	terminalDetector TerminalDetector
	fs               afero.Fs
	extractorOpts    []waveform.ExtractorOption
}

type cliKey struct{}

// NewCLI creates a CLI working on the OS filesystem
func NewCLI() *CLI {
	return NewCLIWithFilesystem(afero.NewOsFs())
}

// NewCLIWithFilesystem creates a CLI whose config, media files and output images
// all go through fs
func NewCLIWithFilesystem(fs afero.Fs) *CLI {
	slog.Debug("creating new CLI instance")

	rootCmd := &cobra.Command{
		Use:           "waveseek",
		Short:         "Audio player with a seekable waveform",
		Long:          "waveseek decodes audio into a 70-bar amplitude waveform, renders it against playback state and plays it.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runRootE,
	}

	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("output", "", "Audio output (auto, malgo, oto, null)")
	rootCmd.PersistentFlags().String("theme", "", "Waveform theme (light, dark)")
	rootCmd.Flags().BoolP("version", "v", false, "Show version information")

	rootCmd.AddCommand(newEnvelopeCommand())
	rootCmd.AddCommand(newRenderCommand())
	rootCmd.AddCommand(newPlayCommand())

	return &CLI{
		rootCmd:          rootCmd,
		configManager:    config.NewConfigManagerWithFilesystem(fs),
		outputFactory:    media.NewOutputFactory(),
		terminalDetector: &DefaultTerminalDetector{},
		fs:               fs,
	}
}

// Run executes the CLI with the given arguments and I/O streams
func (c *CLI) Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	slog.Debug("CLI run started", "args", args)

	if len(args) > 1 && (args[1] == "--version" || args[1] == "-v") {
		c.printVersion(stdout)
		return 0
	}

	var cmdArgs []string
	if len(args) > 1 {
		cmdArgs = args[1:]
	}
	c.rootCmd.SetArgs(cmdArgs)
	c.rootCmd.SetIn(stdin)
	c.rootCmd.SetOut(stdout)
	c.rootCmd.SetErr(stderr)

	ctx := context.WithValue(context.Background(), cliKey{}, c)
	if err := c.rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		slog.Debug("command failed", "error", err)
		return 1
	}
	return 0
}

// cliFromCommand extracts the CLI instance stored by Run
func cliFromCommand(cmd *cobra.Command) (*CLI, error) {
	if cmd.Context() != nil {
		if c, ok := cmd.Context().Value(cliKey{}).(*CLI); ok {
			return c, nil
		}
	}
	return nil, errors.New("CLI instance not found in context")
}

func runRootE(cmd *cobra.Command, args []string) error {
	if version, _ := cmd.Flags().GetBool("version"); version {
		c, err := cliFromCommand(cmd)
		if err != nil {
			return err
		}
		c.printVersion(cmd.OutOrStdout())
		return nil
	}
	return cmd.Help()
}

func (c *CLI) printVersion(w io.Writer) {
	fmt.Fprintf(w, "waveseek version %s\n", Version)
}

// loadConfig loads the config file, applies environment and flag overrides,
// validates the result and sets up logging
func (c *CLI) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configFile, _ := cmd.Flags().GetString("config")

	var cfg *config.Config
	var err error
	if configFile != "" {
		var fileCfg *config.Config
		fileCfg, err = c.configManager.LoadFromFile(configFile)
		if err == nil {
			cfg = c.configManager.MergeConfigs(c.configManager.GetDefaultConfig(), fileCfg)
		}
	} else {
		cfg, err = c.configManager.LoadConfig()
	}
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}

	cfg = c.configManager.ApplyEnvironmentOverrides(cfg)

	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if v, _ := cmd.Flags().GetString("output"); v != "" {
		cfg.OutputBackend = v
	}
	if v, _ := cmd.Flags().GetString("theme"); v != "" {
		cfg.Theme = v
	}

	if err := c.configManager.ValidateConfig(cfg); err != nil {
		return nil, err
	}

	setupLogging(c.fs, c.configManager, cfg, cmd.ErrOrStderr())
	return cfg, nil
}

// newEngine builds a player engine whose media elements play through output
func (c *CLI) newEngine(cfg *config.Config, src player.Source, output media.Output, stderr io.Writer, opts ...player.Option) *player.Engine {
	factory := func(sources []string) media.Element {
		return media.NewPlayer(sources, output,
			media.WithFilesystem(c.fs),
			media.WithVolume(cfg.GetVolume()))
	}

	notifier := notify.Func(func(n notify.Notification) {
		notify.LogNotifier{}.Notify(n)
		fmt.Fprintf(stderr, "%s: %s\n", n.Level, n.Message)
	})

	base := []player.Option{
		player.WithSettleDelay(cfg.SettleDelay()),
		player.WithNotifier(notifier),
		player.WithExtractor(waveform.NewExtractor(c.extractorOpts...)),
	}
	return player.New(src, factory, append(base, opts...)...)
}

// waitReady blocks until the engine has an envelope and the element has either
// loaded metadata or failed
func waitReady(ctx context.Context, e *player.Engine, changed <-chan struct{}) error {
	for {
		_, origin := e.Envelope()
		state := e.State()
		loaded := state.Duration > 0 || !state.IsAvailable
		if origin != player.OriginPending && loaded {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changed:
		}
	}
}

// changeSignal returns a channel that receives after every engine change
func changeSignal(e *player.Engine) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	remove := e.OnChange(func() {
		select {
		case ch <- struct{}{}:
		default:
		}
	})
	return ch, remove
}

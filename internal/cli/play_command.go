package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"waveseek.click/internal/config"
	"waveseek.click/internal/playback"
	"waveseek.click/internal/player"
	"waveseek.click/internal/render"
)

const textRows = 3

func newPlayCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "play URL [ALTERNATE...]",
		Short: "Play a source while drawing its waveform in the terminal",
		Long: `Plays the first source that loads. In a terminal the waveform is redrawn as
playback advances. The command exits when playback ends, fails or is interrupted.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runPlayCommand,
	}
}

func runPlayCommand(cmd *cobra.Command, args []string) error {
	c, err := cliFromCommand(cmd)
	if err != nil {
		return err
	}
	cfg, err := c.loadConfig(cmd)
	if err != nil {
		return err
	}
	theme, err := render.ParseTheme(cfg.Theme)
	if err != nil {
		return err
	}

	output, err := c.outputFactory.CreateOutput(cfg.OutputBackend)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src := player.Source{URL: args[0], Alternates: args[1:]}
	engine := c.newEngine(cfg, src, output, cmd.ErrOrStderr())

	changed, remove := changeSignal(engine)
	defer remove()

	engine.Mount(ctx)
	defer engine.Unmount()

	if err := waitReady(ctx, engine, changed); err != nil {
		return nil
	}
	if !engine.View().Available {
		fmt.Fprintln(cmd.ErrOrStderr(), player.UnavailableMessage)
		return player.ErrUnavailable
	}

	if err := engine.TogglePlay(ctx); err != nil {
		return fmt.Errorf("failed to start playback: %w", err)
	}

	return c.followPlayback(ctx, engine, changed, theme, cfg, cmd.OutOrStdout())
}

// followPlayback redraws on every change until playback ends, fails or ctx is cancelled
func (c *CLI) followPlayback(ctx context.Context, engine *player.Engine, changed <-chan struct{}, theme render.Theme, cfg *config.Config, stdout io.Writer) error {
	interactive := c.isInteractive(stdout)
	canvas := render.NewTextCanvas(terminalWidth(stdout, cfg.CanvasWidth/10), textRows)
	drawn := false

	for {
		state := engine.State()
		if interactive {
			engine.Draw(canvas, theme)
			if drawn {
				fmt.Fprintf(stdout, "\x1b[%dA", textRows+1)
			}
			fmt.Fprintln(stdout, canvas.Render())
			fmt.Fprintf(stdout, "\x1b[2K%s / %s\n",
				player.FormatDuration(state.CurrentTime),
				engine.View().DurationLabel)
			drawn = true
		}

		switch state.Phase {
		case playback.Ended:
			slog.Info("playback finished")
			return nil
		case playback.Errored:
			return fmt.Errorf("playback failed: %w", player.ErrUnavailable)
		}

		select {
		case <-ctx.Done():
			slog.Debug("playback interrupted")
			return nil
		case <-changed:
		}
	}
}

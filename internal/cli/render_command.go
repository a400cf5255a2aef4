package cli

import (
	"context"
	"fmt"
	"image/color"
	"io"
	"log/slog"
	"math/rand"
	"time"

	"github.com/spf13/cobra"
	"waveseek.click/internal/config"
	"waveseek.click/internal/fs"
	"waveseek.click/internal/media"
	"waveseek.click/internal/player"
	"waveseek.click/internal/render"
)

const renderTimeout = 30 * time.Second

func newRenderCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render URL [ALTERNATE...]",
		Short: "Render the waveform of a source to a PNG image",
		Long: `Loads the source the way the player does, then draws its waveform with the
played and hovered portions colored as they would be at the given position.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runRenderCommand,
	}
	cmd.Flags().StringP("out", "o", "waveform.png", "Output PNG path")
	cmd.Flags().Float64("position", 0, "Playback position in seconds")
	cmd.Flags().Float64("hover", -1, "Hover time in seconds (negative = none)")
	cmd.Flags().Int("width", 0, "Image width in pixels (0 = config)")
	cmd.Flags().Int("height", 0, "Image height in pixels (0 = config)")
	cmd.Flags().Int64("seed", 0, "Random seed for fallback envelopes (0 = time based)")
	return cmd
}

func runRenderCommand(cmd *cobra.Command, args []string) error {
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

	width, height := canvasSize(cmd, cfg)
	position, _ := cmd.Flags().GetFloat64("position")
	hover, _ := cmd.Flags().GetFloat64("hover")
	outPath, _ := cmd.Flags().GetString("out")
	seed, _ := cmd.Flags().GetInt64("seed")
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	src := player.Source{URL: args[0], Alternates: args[1:]}
	engine := c.newEngine(cfg, src, media.NewNullOutput(), cmd.ErrOrStderr(),
		player.WithSettleDelay(0),
		player.WithRand(rand.New(rand.NewSource(seed))))

	changed, remove := changeSignal(engine)
	defer remove()

	ctx, cancel := context.WithTimeout(cmd.Context(), renderTimeout)
	defer cancel()

	engine.Mount(ctx)
	defer engine.Unmount()

	if err := waitReady(ctx, engine, changed); err != nil {
		return fmt.Errorf("source did not load: %w", err)
	}

	env, origin := engine.Envelope()
	state := engine.State()
	state.CurrentTime = clamp(position, 0, state.Duration)

	canvas := render.NewImageCanvas(width, height, color.Transparent)
	render.Draw(canvas, env, state, hover, theme)

	if err := fs.WriteAtomic(c.fs, outPath, func(w io.Writer) error {
		return canvas.EncodePNG(w)
	}); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}

	view := engine.View()
	slog.Info("waveform rendered",
		"path", outPath,
		"origin", origin.String(),
		"available", view.Available)

	fmt.Fprintf(cmd.OutOrStdout(), "%s (%s, %s)\n", outPath, origin, view.DurationLabel)
	if view.Message != "" {
		fmt.Fprintln(cmd.OutOrStdout(), view.Message)
	}
	return nil
}

func canvasSize(cmd *cobra.Command, cfg *config.Config) (int, int) {
	width, _ := cmd.Flags().GetInt("width")
	height, _ := cmd.Flags().GetInt("height")
	if width <= 0 {
		width = cfg.CanvasWidth
	}
	if height <= 0 {
		height = cfg.CanvasHeight
	}
	return width, height
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/spf13/cobra"
	"waveseek.click/internal/waveform"
)

// envelopeReport is the JSON printed by the envelope command
type envelopeReport struct {
	URL     string    `json:"url"`
	Origin  string    `json:"origin"`
	Reason  string    `json:"reason,omitempty"`
	Samples []float64 `json:"samples"`
}

func newEnvelopeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "envelope URL",
		Short: "Print the waveform envelope of an audio URL as JSON",
		Long: `Fetches and decodes the audio at URL and prints its 70-value amplitude envelope.
When the source cannot be analyzed a smooth random envelope is printed instead
and the reason is reported.`,
		Args: cobra.ExactArgs(1),
		RunE: runEnvelopeCommand,
	}
	cmd.Flags().Int64("seed", 0, "Random seed for fallback envelopes (0 = time based)")
	return cmd
}

func runEnvelopeCommand(cmd *cobra.Command, args []string) error {
	c, err := cliFromCommand(cmd)
	if err != nil {
		return err
	}
	if _, err := c.loadConfig(cmd); err != nil {
		return err
	}

	seed, _ := cmd.Flags().GetInt64("seed")
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	rawURL := args[0]
	report := envelopeReport{URL: rawURL, Origin: "decoded"}

	env, err := waveform.NewExtractor(c.extractorOpts...).Extract(cmd.Context(), rawURL)
	if err != nil {
		slog.Info("using fallback envelope", "url", rawURL, "error", err)
		env = waveform.Fallback(rand.New(rand.NewSource(seed)))
		report.Origin = "fallback"
		report.Reason = err.Error()
	}
	report.Samples = env

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode envelope: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

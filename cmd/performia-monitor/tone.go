package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yok-tottii/performia-monitor/internal/render"
)

var (
	toneOptions = render.DefaultOptions()
	argToneOut  string

	toneCmd = &cobra.Command{
		Use:   "tone",
		Short: "Render the test tone to a WAV file",
		Long: "Render the test tone through the signal path into a WAV file, " +
			"for checking what reaches the outputs without a sound card.",

		RunE: func(cmd *cobra.Command, args []string) error {
			if argToneOut == "" {
				return errors.New("--out is required")
			}

			result, err := render.ToneToFile(cmd.Context(), argToneOut, toneOptions, cliLogger())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d frames to %s (peak %.3f)\n", result.Frames, argToneOut, result.Peak)
			return nil
		},
	}
)

func init() {
	toneCmd.Flags().StringVarP(&argToneOut, "out", "o", "", "Output WAV file")
	toneCmd.Flags().DurationVarP(&toneOptions.Duration, "duration", "d", toneOptions.Duration, "Length of the render")
	toneCmd.Flags().Float64VarP(&toneOptions.Frequency, "frequency", "f", toneOptions.Frequency, "Tone frequency in Hz (100-1000)")
	toneCmd.Flags().Float64VarP(&toneOptions.Volume, "volume", "", toneOptions.Volume, "Output volume (0-100)")
	toneCmd.Flags().IntVarP(&toneOptions.SampleRate, "rate", "r", toneOptions.SampleRate, "Sample rate in Hz")
	toneCmd.Flags().IntVarP(&toneOptions.BitDepth, "bits", "b", toneOptions.BitDepth, "Bit depth (16 or 24)")
	toneCmd.Flags().IntVarP(&toneOptions.Channels, "channels", "", toneOptions.Channels, "Channel count (1 or 2)")
	toneCmd.Flags().IntVarP(&toneOptions.FramesPerBuffer, "frames", "", toneOptions.FramesPerBuffer, "Frames per block")

	rootCmd.AddCommand(toneCmd)
}

package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yok-tottii/performia-monitor/internal/audio"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List the audio devices known to the host",

	RunE: func(cmd *cobra.Command, args []string) error {
		driver, err := audio.NewPortAudioDriver()
		if err != nil {
			return err
		}
		defer driver.Close()

		devices, err := driver.ListDevices()
		if err != nil {
			return err
		}
		return printDevices(cmd.OutOrStdout(), devices)
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}

// printDevices writes one aligned row per device
func printDevices(out io.Writer, devices []audio.Device) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tHOST API\tIN\tOUT\tDEFAULT")
	for _, d := range devices {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%s\n",
			d.ID, d.Name, d.HostAPI, d.MaxInputChannels, d.MaxOutputChannels, defaultMarks(d))
	}
	return w.Flush()
}

func defaultMarks(d audio.Device) string {
	switch {
	case d.IsDefaultInput && d.IsDefaultOutput:
		return "in,out"
	case d.IsDefaultInput:
		return "in"
	case d.IsDefaultOutput:
		return "out"
	}
	return ""
}

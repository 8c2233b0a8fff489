package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "fotag %s\n", Version)
			fmt.Fprintln(out, "Flickr tag gallery")
			fmt.Fprintln(out, "github.com/pders01/fotag")
		},
	}
}

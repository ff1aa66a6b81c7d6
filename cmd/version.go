package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the orderedview engine version, bumped independently of the
// view's on-disk classVersion (see view.CurrentClassVersion).
const Version = "0.1.0"

func init() {
	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "version",
			Short: "Print the version number of orderedview",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Println(Version)
			},
		})
}

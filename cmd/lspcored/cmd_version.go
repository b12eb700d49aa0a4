package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// buildVersion is overridden at link time via -ldflags.
var buildVersion = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print build metadata",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("lspcored " + buildVersion)
		return nil
	},
}

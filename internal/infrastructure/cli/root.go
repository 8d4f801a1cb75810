package cli

import (
	"github.com/spf13/cobra"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:     "speckit",
	Version: Version,
	Short:   "Clarification tooling for feature specifications",
	Long: `Speckit drives the clarification step of spec-driven development.
It locates the active feature's specification, scans it for ambiguity,
asks one targeted question at a time, and integrates every accepted
answer back into the document.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() error {
	return RootCmd.Execute()
}

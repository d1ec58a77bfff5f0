package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for deadlinks.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deadlinks",
		Short: "Find broken links on websites",
		Long: `deadlinks crawls a website and reports broken links.

It walks every internal page breadth-first starting from the given URL,
collects all links (internal and external), verifies each unique link
once, and prints the invalid links together with the pages they were
found on.

The exit status is 0 when every link is valid and 1 otherwise, so the
tool can gate CI jobs.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewCheckCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command. Broken links exit with status 1 like
// any other failure, but without the error prefix since the report
// already lists them.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		if !errors.Is(err, ErrBrokenLinks) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

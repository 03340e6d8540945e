package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codeready-toolchain/docmask/pkg/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.Get()
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", info.App, info.Commit)
			fmt.Fprintf(cmd.OutOrStdout(), "Go: %s\n", info.Go)
			return nil
		},
	}
}

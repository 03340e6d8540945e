package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codeready-toolchain/docmask/pkg/masking"
	"github.com/codeready-toolchain/docmask/pkg/pii"
)

func newClassifyCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "classify <text>...",
		Short: "Classify each argument and print its category and mask",
		Example: `  docmask classify john.doe@example.com 555-123-4567 Confidential
  docmask --categories ssn classify 123-45-6789`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := pii.NewRegistry(o.cfg.Categories)
			out := cmd.OutOrStdout()
			for _, text := range args {
				cat, ok := registry.Classify(text)
				if !ok {
					fmt.Fprintf(out, "%s\tnone\n", text)
					continue
				}
				fmt.Fprintf(out, "%s\t%s\t%s\n", text, cat, masking.Mask(text, cat))
			}
			return nil
		},
	}
}

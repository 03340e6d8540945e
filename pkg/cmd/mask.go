package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codeready-toolchain/docmask/pkg/masking"
	"github.com/codeready-toolchain/docmask/pkg/pii"
)

func newMaskCmd(_ *options) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:     "mask <text>",
		Short:   "Apply one category's masking rule to text",
		Example: `  docmask mask --category "Credit Card" 4532015112830366`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := pii.ParseCategory(category)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), masking.Mask(args[0], cat))
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "category whose rule to apply")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

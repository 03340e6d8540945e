package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/codeready-toolchain/docmask/pkg/models"
	"github.com/codeready-toolchain/docmask/pkg/redaction"
)

func newRedactTextCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "redact-text <input> [output]",
		Short: "Mask every PII occurrence in a plain-text file",
		Long: `Scans the whole input file and writes a copy with every detected
occurrence replaced by its mask. The output defaults to
<input>_redacted.<ext> and is written atomically; the input is never modified.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := args[0]
			out := defaultOutputPath(in, "redacted", "")
			if len(args) == 2 {
				out = args[1]
			}
			if err := checkDistinct(in, out); err != nil {
				return err
			}

			data, err := os.ReadFile(in)
			if err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}

			ctx := cmd.Context()
			eng, err := newEngine(ctx, o.cfg)
			if err != nil {
				return err
			}
			defer eng.Close()

			r := eng.redactor(o.cfg.Categories)
			runID := eng.recorder.Start(ctx, in, models.RunModeText, o.cfg.Categories)

			redacted, directives, err := r.RedactText(ctx, string(data))
			if err == nil {
				err = writeFileAtomic(out, func(w io.Writer) error {
					_, werr := io.WriteString(w, redacted)
					return werr
				})
			}
			if err != nil {
				eng.recorder.Fail(ctx, runID, err)
				return err
			}
			counts := redaction.CountByCategory(directives)
			eng.recorder.Complete(ctx, runID, 1, counts)

			slog.Info("Text redacted", "output", out, "directives", len(directives))
			for cat, n := range counts {
				slog.Debug("Category count", "category", cat, "count", n)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d redaction(s)\n", out, len(directives))
			return nil
		},
	}
}

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/codeready-toolchain/docmask/pkg/api"
	"github.com/codeready-toolchain/docmask/pkg/extract"
	"github.com/codeready-toolchain/docmask/pkg/models"
)

func newDirectivesCmd(o *options) *cobra.Command {
	var stdout bool

	cmd := &cobra.Command{
		Use:   "directives <input.pdf|input.json> [output.json]",
		Short: "Emit redaction directives and render instructions for a document",
		Long: `Extracts word tokens from a PDF (or reads a token JSON document), runs
them through the redaction pipeline and writes the directives together with
render instructions as JSON. The output defaults to <input>_directives.json.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := args[0]
			out := defaultOutputPath(in, "directives", ".json")
			if len(args) == 2 {
				out = args[1]
			}
			if !stdout {
				if err := checkDistinct(in, out); err != nil {
					return err
				}
			}

			ctx := cmd.Context()
			doc, err := extract.LoadFile(ctx, in, o.cfg.Processing.Spans)
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", in, err)
			}

			eng, err := newEngine(ctx, o.cfg)
			if err != nil {
				return err
			}
			defer eng.Close()

			r := eng.redactor(o.cfg.Categories)
			runID := eng.recorder.Start(ctx, in, models.RunModeDocument, o.cfg.Categories)

			res, err := r.ProcessDocument(ctx, doc)
			if err != nil {
				eng.recorder.Fail(ctx, runID, err)
				return err
			}
			resp := api.NewDocumentResponse(runID, res, r.RenderConfig())

			encode := func(w io.Writer) error {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}
			if stdout {
				err = encode(cmd.OutOrStdout())
			} else {
				err = writeFileAtomic(out, encode)
			}
			if err != nil {
				eng.recorder.Fail(ctx, runID, err)
				return err
			}
			eng.recorder.Complete(ctx, runID, len(doc.Pages), res.Counts)

			slog.Info("Document processed", "pages", len(doc.Pages), "directives", res.Total)
			if !stdout {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d directive(s) on %d page(s)\n", out, res.Total, len(doc.Pages))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&stdout, "stdout", false, "write JSON to stdout instead of a file")
	return cmd
}

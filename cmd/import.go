package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/homematch/internal/ingest"
	"github.com/sells-group/homematch/internal/model"
)

var (
	importXLSXPath string
	importSheet    string
	importColumn   int
	importSkipRows int
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import transcripts from an XLSX export and run the pipeline for each",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		transcripts, err := ingest.ReadTranscriptsXLSX(importXLSXPath, ingest.XLSXOptions{
			SheetName: importSheet,
			Column:    importColumn,
			SkipRows:  importSkipRows,
		})
		if err != nil {
			return err
		}
		if len(transcripts) == 0 {
			return eris.New("no transcripts found in file")
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		var completed, failed int
		for i, text := range transcripts {
			run, err := env.Pipeline.Start(ctx, text, model.UploadMethodImport)
			if err != nil {
				return eris.Wrapf(err, "import row %d", i+1)
			}
			if run.Status == model.RunStatusFailed {
				failed++
				zap.L().Warn("imported transcript failed",
					zap.Int("row", i+1),
					zap.String("run_id", run.ID),
					zap.String("error", run.ErrorMessage))
				continue
			}
			completed++
			zap.L().Info("imported transcript processed",
				zap.Int("row", i+1),
				zap.String("run_id", run.ID))
		}

		zap.L().Info("import complete",
			zap.Int("total", len(transcripts)),
			zap.Int("completed", completed),
			zap.Int("failed", failed),
			zap.String("xlsx", importXLSXPath))
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importXLSXPath, "xlsx", "", "path to XLSX file (required)")
	importCmd.Flags().StringVar(&importSheet, "sheet", "", "sheet name (default first sheet)")
	importCmd.Flags().IntVar(&importColumn, "column", 0, "zero-based column holding transcript text")
	importCmd.Flags().IntVar(&importSkipRows, "skip-rows", 1, "header rows to skip")
	_ = importCmd.MarkFlagRequired("xlsx")
	rootCmd.AddCommand(importCmd)
}

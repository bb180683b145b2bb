package main

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/homematch/internal/model"
)

var (
	runFile string
	runText string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the matching pipeline for a single transcript",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		rawText := runText
		if runFile != "" {
			data, err := os.ReadFile(runFile)
			if err != nil {
				return eris.Wrap(err, "read transcript file")
			}
			rawText = string(data)
		}
		if strings.TrimSpace(rawText) == "" {
			return eris.New("a transcript is required (--file or --text)")
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		run, err := env.Pipeline.Start(ctx, rawText, model.UploadMethodUpload)
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		zap.L().Info("run finished",
			zap.String("run_id", run.ID),
			zap.String("status", string(run.Status)),
			zap.String("stage", string(run.CurrentStage)))

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	},
}

func init() {
	runCmd.Flags().StringVar(&runFile, "file", "", "path to a transcript text file")
	runCmd.Flags().StringVar(&runText, "text", "", "transcript text inline")
	rootCmd.AddCommand(runCmd)
}

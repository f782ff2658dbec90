package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"resumepilot/internal/common"
	"resumepilot/internal/enhance"
	"resumepilot/internal/resume"
	"resumepilot/internal/types"

	"github.com/spf13/cobra"
)

var matchCmd = &cobra.Command{
	Use:   "match [resume-json-file] [job-description-file]",
	Short: "Score a normalized resume against a job description",
	Long: `Score a resume against a job description using the configured enhancement
strategy. The first argument is a JSON file holding the resume record (the
output of the extract command); the second is a plain text job description.

Remote strategies fall back to the deterministic local scorer on failure, so
the command always produces an analysis when the inputs are valid.`,
	Args: cobra.ExactArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return applyFormatDefaults(cmd.Context(), &matchConfig)
	},
	RunE: runMatch,
}

var matchConfig common.CommandConfig

var (
	matchStrategy string
	matchFileID   string
)

func init() {
	matchCmd.Flags().StringVarP(&matchConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	matchCmd.Flags().StringVar(&matchConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	matchCmd.Flags().StringVar(&matchStrategy, "strategy", "", "Override the configured strategy with 'local' for this call")
	matchCmd.Flags().StringVar(&matchFileID, "file-id", "", "Correlation id linking this analysis to an extraction")

	_ = matchCmd.RegisterFlagCompletionFunc("format", formatCompletion)
}

type matchInput struct {
	Record         *types.ResumeRecord
	JobDescription string
}

func runMatch(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	service, err := enhance.NewService(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create enhancement service: %w", err)
	}

	createInput := func(contents []string) (matchInput, error) {
		if len(contents) != 2 {
			return matchInput{}, fmt.Errorf("expected 2 file paths, got %d", len(contents))
		}
		var raw any
		if err := json.Unmarshal([]byte(contents[0]), &raw); err != nil {
			return matchInput{}, fmt.Errorf("resume file is not valid JSON: %w", err)
		}
		record, err := resume.Normalize(raw)
		if err != nil {
			return matchInput{}, err
		}
		return matchInput{
			Record:         record,
			JobDescription: contents[1],
		}, nil
	}

	logDetails := func(input matchInput, cfg common.CommandConfig) {
		logger.Info("Starting resume match analysis",
			"strategy", service.Strategy(),
			"job_chars", len(input.JobDescription),
			"output_format", cfg.OutputFormat)
	}

	matchOperation := func(ctx context.Context, input matchInput) (*types.EnhancementResult, error) {
		return service.Enhance(ctx, input.Record, input.JobDescription, enhance.Options{
			FileID:   matchFileID,
			Strategy: matchStrategy,
		})
	}

	err = common.RunFileCommand(
		cmd.Context(),
		logger,
		matchConfig,
		args,
		createInput,
		matchOperation,
		logDetails,
	)

	if err != nil {
		return fmt.Errorf("failed to analyze resume: %w", err)
	}
	logger.Info("Resume match analysis completed successfully")
	return nil
}

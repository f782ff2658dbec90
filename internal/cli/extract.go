package cli

import (
	"fmt"

	"resumepilot/internal/common"
	"resumepilot/internal/extract"

	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract [resume-file]",
	Short: "Extract a resume file into a normalized JSON record",
	Long: `Extract structured data from a resume file (PDF, DOC, DOCX) using the
extraction service. The output is a normalized record where every field is
present with a type-correct default, ready to feed into the match command.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return applyFormatDefaults(cmd.Context(), &extractConfig)
	},
	RunE: runExtract,
}

var extractConfig common.CommandConfig

var (
	extractFileID    string
	extractModel     string
	extractModelType string
)

func init() {
	extractCmd.Flags().StringVarP(&extractConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	extractCmd.Flags().StringVar(&extractConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	extractCmd.Flags().StringVar(&extractFileID, "file-id", "", "Correlation id for this extraction (default: generated)")
	extractCmd.Flags().StringVar(&extractModel, "model", "", "Extraction model override")
	extractCmd.Flags().StringVar(&extractModelType, "model-type", "", "Extraction model type override")

	_ = extractCmd.RegisterFlagCompletionFunc("format", formatCompletion)
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	fileProcessor := common.NewFileProcessor(logger)
	upload, err := fileProcessor.ReadResumeUpload(args[0])
	if err != nil {
		return err
	}

	logger.Info("Starting resume extraction",
		"file", args[0],
		"mime_type", upload.MIMEType,
		"size_bytes", len(upload.Data),
		"output_format", extractConfig.OutputFormat)

	client := extract.NewClient(cfg, logger)
	result, extractErr := client.Extract(cmd.Context(), *upload, extract.Options{
		FileID:    extractFileID,
		ModelType: extractModelType,
		Model:     extractModel,
	})

	// A classified failure still carries a result worth showing. Render it,
	// then surface the error so the exit code reflects the failure.
	if result != nil {
		outputHandler := common.NewOutputHandler(logger)
		if outErr := outputHandler.HandleOutput(result, extractConfig); outErr != nil {
			return outErr
		}
	}
	if extractErr != nil {
		return fmt.Errorf("failed to extract resume: %w", extractErr)
	}

	logger.Info("Resume extraction completed successfully")
	return nil
}

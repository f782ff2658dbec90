package cli

import (
	"fmt"

	"resumepilot/internal/common"
	"resumepilot/internal/docs"

	"github.com/spf13/cobra"
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize [resume-file] [job-description-file]",
	Short: "Generate an optimized resume and cover letter",
	Long: `Send a resume file and a job description to the conversion backend, which
extracts the resume text, analyzes the match and generates an optimized
resume and cover letter. Use --save-resume and --save-cover-letter to
download the generated documents directly.`,
	Args: cobra.ExactArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return applyFormatDefaults(cmd.Context(), &optimizeConfig)
	},
	RunE: runOptimize,
}

var optimizeConfig common.CommandConfig

var (
	optimizeSaveResume      string
	optimizeSaveCoverLetter string
)

func init() {
	optimizeCmd.Flags().StringVarP(&optimizeConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	optimizeCmd.Flags().StringVar(&optimizeConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	optimizeCmd.Flags().StringVar(&optimizeSaveResume, "save-resume", "", "Download the optimized resume to this path")
	optimizeCmd.Flags().StringVar(&optimizeSaveCoverLetter, "save-cover-letter", "", "Download the cover letter to this path")

	_ = optimizeCmd.RegisterFlagCompletionFunc("format", formatCompletion)
}

func runOptimize(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	fileProcessor := common.NewFileProcessor(logger)
	upload, err := fileProcessor.ReadResumeUpload(args[0])
	if err != nil {
		return err
	}
	jobDescription, err := fileProcessor.ReadFile(args[1])
	if err != nil {
		return err
	}

	logger.Info("Starting resume optimization",
		"file", args[0],
		"mime_type", upload.MIMEType,
		"job_chars", len(jobDescription),
		"output_format", optimizeConfig.OutputFormat)

	client := docs.NewClient(cfg, logger)
	result, err := client.ExtractAndOptimize(cmd.Context(), *upload, jobDescription)
	if err != nil {
		return fmt.Errorf("failed to optimize resume: %w", err)
	}

	outputHandler := common.NewOutputHandler(logger)
	if err := outputHandler.HandleOutput(result, optimizeConfig); err != nil {
		return err
	}

	if optimizeSaveResume != "" {
		data, err := client.DownloadResume(cmd.Context(), result.FileID)
		if err != nil {
			return fmt.Errorf("failed to download optimized resume: %w", err)
		}
		if err := fileProcessor.WriteFileBytes(optimizeSaveResume, data); err != nil {
			return err
		}
		logger.Info("Optimized resume saved", "file", optimizeSaveResume)
	}
	if optimizeSaveCoverLetter != "" {
		data, err := client.DownloadCoverLetter(cmd.Context(), result.FileID)
		if err != nil {
			return fmt.Errorf("failed to download cover letter: %w", err)
		}
		if err := fileProcessor.WriteFileBytes(optimizeSaveCoverLetter, data); err != nil {
			return err
		}
		logger.Info("Cover letter saved", "file", optimizeSaveCoverLetter)
	}

	logger.Info("Resume optimization completed successfully")
	return nil
}

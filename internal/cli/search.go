package cli

import (
	"fmt"

	"resumepilot/internal/common"
	"resumepilot/internal/jobsearch"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search job listings for a profile and location",
	Long: `Search job listings through the configured job-search provider.
Requires a job profile, an experience level and a location. The provider
API key must be configured or loaded from Vault.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return applyFormatDefaults(cmd.Context(), &searchConfig)
	},
	RunE: runSearch,
}

var searchConfig common.CommandConfig

var searchParams jobsearch.SearchParams

func init() {
	searchCmd.Flags().StringVarP(&searchConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	searchCmd.Flags().StringVar(&searchConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	searchCmd.Flags().StringVar(&searchParams.JobProfile, "profile", "", "Job profile to search for, e.g. 'Golang Developer'")
	searchCmd.Flags().StringVar(&searchParams.Experience, "experience", "", "Experience level, e.g. 'Fresher' or '5 years'")
	searchCmd.Flags().StringVar(&searchParams.Location, "location", "", "Location to search in, e.g. 'Austin, TX'")
	searchCmd.Flags().IntVar(&searchParams.NumPages, "pages", 0, "Number of result pages to fetch (default from config)")

	_ = searchCmd.MarkFlagRequired("profile")
	_ = searchCmd.MarkFlagRequired("experience")
	_ = searchCmd.MarkFlagRequired("location")
	_ = searchCmd.RegisterFlagCompletionFunc("format", formatCompletion)
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	logger.Info("Starting job search",
		"profile", searchParams.JobProfile,
		"experience", searchParams.Experience,
		"location", searchParams.Location,
		"output_format", searchConfig.OutputFormat)

	client := jobsearch.NewClient(cfg, logger)
	result, err := client.Search(cmd.Context(), searchParams)
	if err != nil {
		return fmt.Errorf("failed to search jobs: %w", err)
	}

	outputHandler := common.NewOutputHandler(logger)
	if err := outputHandler.HandleOutput(result, searchConfig); err != nil {
		return err
	}

	logger.Info("Job search completed successfully", "jobs_found", result.Total)
	return nil
}

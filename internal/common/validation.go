package common

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"resumepilot/internal/errors"
)

// MaxResumeFileSize is the upload ceiling; a file of exactly this size passes.
const MaxResumeFileSize = 10 << 20 // 10 MiB

// MinJobDescriptionLength is the shortest job description worth analyzing.
const MinJobDescriptionLength = 50

// DefaultResumeMIMETypes lists the document types the extraction service accepts.
var DefaultResumeMIMETypes = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"text/plain",
}

// ValidateResumeFile checks MIME type and size constraints before any
// network call. Pure and synchronous.
func ValidateResumeFile(mimeType string, sizeBytes int64) error {
	return ValidateResumeFileTypes(mimeType, sizeBytes, DefaultResumeMIMETypes)
}

// ValidateResumeFileTypes is ValidateResumeFile with a caller-supplied
// MIME allow-list (plain text is optional for some callers).
func ValidateResumeFileTypes(mimeType string, sizeBytes int64, allowedTypes []string) error {
	if !slices.Contains(allowedTypes, mimeType) {
		return errors.NewValidationError(errors.ErrCodeInvalidFile,
			fmt.Sprintf("Unsupported file type %q. Supported types: PDF, Word documents", mimeType), nil)
	}
	if sizeBytes == 0 {
		return errors.NewValidationError(errors.ErrCodeInvalidFile,
			"File is empty", nil)
	}
	if sizeBytes > MaxResumeFileSize {
		return errors.NewValidationError(errors.ErrCodeInvalidFile,
			fmt.Sprintf("File is too large (%d bytes). Maximum size is 10 MiB", sizeBytes), nil)
	}
	return nil
}

// ValidateJobDescription rejects job descriptions too short to analyze.
// Runs before any network I/O.
func ValidateJobDescription(jobDescription string) error {
	trimmed := strings.TrimSpace(jobDescription)
	// Count characters, not bytes, so multibyte text is not over-counted.
	length := utf8.RuneCountInString(trimmed)
	if length < MinJobDescriptionLength {
		return errors.NewValidationError(errors.ErrCodeJobDescriptionTooShort,
			fmt.Sprintf("Job description must be at least %d characters (got %d)",
				MinJobDescriptionLength, length), nil)
	}
	return nil
}

// ValidateOutputFormat validates format against configured supported formats
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) == 0 {
		return nil // No restrictions configured
	}

	if slices.Contains(supportedFormats, format) {
		return nil
	}

	return fmt.Errorf("unsupported output format '%s'. Supported formats: %v",
		format, supportedFormats)
}

// GetSupportedFormats returns the list of supported formats
func GetSupportedFormats(supportedFormats []string) []string {
	return supportedFormats
}

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"tutor-import-service/pkg/errors"
	"tutor-import-service/pkg/logger"
)

// CLIErrorHandler provides user-friendly error handling for CLI operations
type CLIErrorHandler struct {
	logger  logger.Logger
	verbose bool
}

// NewCLIErrorHandler creates a new CLI error handler
func NewCLIErrorHandler() *CLIErrorHandler {
	return &CLIErrorHandler{
		logger:  logger.GetGlobalLogger().WithComponent("cli"),
		verbose: viper.GetBool("verbose"),
	}
}

// HandleError prints a friendly rendering of the error and returns the
// process exit code.
func (h *CLIErrorHandler) HandleError(err error) int {
	if err == nil {
		return 0
	}

	h.logger.WithError(err).Error("Command failed")

	if importErr, ok := errors.AsImportError(err); ok {
		return h.handleImportError(importErr)
	}

	return h.handleGenericError(err)
}

// handleImportError handles ImportError with detailed context
func (h *CLIErrorHandler) handleImportError(err *errors.ImportError) int {
	fmt.Fprintf(os.Stderr, "Error: %s\n", err.Message)

	if len(err.Context) > 0 {
		fmt.Fprintf(os.Stderr, "\nContext:\n")
		for key, value := range err.Context {
			fmt.Fprintf(os.Stderr, "  %s: %v\n", key, value)
		}
	}

	if err.Suggestion != "" {
		fmt.Fprintf(os.Stderr, "\nSuggestion: %s\n", err.Suggestion)
	}

	fmt.Fprintf(os.Stderr, "\n%s\n", h.getCategoryHelp(err.Category))

	if h.verbose && err.Cause != nil {
		fmt.Fprintf(os.Stderr, "\nUnderlying error: %v\n", err.Cause)
	}

	return err.GetExitCode()
}

// handleGenericError handles non-ImportError types
func (h *CLIErrorHandler) handleGenericError(err error) int {
	if os.IsNotExist(err) || strings.Contains(err.Error(), "no such file or directory") {
		fmt.Fprintf(os.Stderr, "Error: File not found\n")
		fmt.Fprintf(os.Stderr, "Suggestion: Check if the file path is correct and the file exists\n")
		return 2
	}

	if os.IsPermission(err) || strings.Contains(err.Error(), "permission denied") {
		fmt.Fprintf(os.Stderr, "Error: Permission denied\n")
		fmt.Fprintf(os.Stderr, "Suggestion: Check file permissions and ensure you have read access\n")
		return 2
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)

	if !h.verbose {
		fmt.Fprintf(os.Stderr, "\nRun with --verbose for more detail\n")
	}

	return 1
}

// getCategoryHelp returns category-specific help text
func (h *CLIErrorHandler) getCategoryHelp(category errors.ErrorCategory) string {
	switch category {
	case errors.CategoryFile:
		return `File error help:
• Check if the file exists and is readable
• Verify the file path is correct (use absolute paths if needed)
• Upload files must be .csv or .xlsx; re-save legacy .xls files as .xlsx`

	case errors.CategoryParse:
		return `Parse error help:
• Ensure the first row of the file contains column headers
• Check for broken quoting or stray delimiters around the reported line
• Ensure the file is saved in UTF-8 encoding
• Use 'tutorimport template' to get a file with the expected layout`

	case errors.CategoryValidation:
		return `Validation error help:
• Check that required columns (name, email, phone) have values
• Dates are day-first: 15/03/1990 means 15 March 1990
• Phone numbers may start with 0, 62 or +62
• Run with --dry-run to see all validation problems without importing`

	case errors.CategoryPersistence:
		return `Persistence error help:
• Verify the DSN and that the database is reachable
• Check for duplicate emails already registered
• Rows imported before a failure are kept; re-run with the remaining rows`

	case errors.CategoryConfiguration:
		return `Configuration error help:
• Check your command-line flags and arguments
• Set the connection string via --dsn or TUTORIMPORT_DSN
• Use 'tutorimport import --help' to see all available options`

	default:
		return `For more help:
• Use 'tutorimport --help' for general help
• Use 'tutorimport import --help' for command-specific help
• Run with --verbose for detailed logs`
	}
}

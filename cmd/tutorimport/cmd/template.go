package cmd

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tutor-import-service/internal/validator"
)

var templateOutput string

// templateCmd writes the upload template so operators start from headers
// the importer is guaranteed to recognize.
var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Write the upload template CSV",
	Long: `Template writes a CSV with the expected column headers, a marker row
showing which columns are required, and one example row. The template is
generated from the same field table the importer validates against.

Examples:
  tutorimport template
  tutorimport template --output template.csv`,
	RunE: runTemplate,
}

func init() {
	rootCmd.AddCommand(templateCmd)

	templateCmd.Flags().StringVarP(&templateOutput, "output", "o", "", "template file path (default: stdout)")
}

func runTemplate(cmd *cobra.Command, args []string) error {
	output := os.Stdout
	if templateOutput != "" {
		f, err := os.Create(templateOutput)
		if err != nil {
			return fmt.Errorf("failed to create template file: %w", err)
		}
		defer f.Close()
		output = f
	}

	writer := csv.NewWriter(output)
	for _, row := range validator.TemplateRows() {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write template: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

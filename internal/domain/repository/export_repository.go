package repository

import (
	"io"

	"github.com/diillson/aws-cost-report-go/internal/domain/entity"
)

// ExportRepository writes a cost report to files.
type ExportRepository interface {
	ExportToCSV(report *entity.Report, filename string, outputDir string) (string, error)
	ExportToJSON(report *entity.Report, filename string, outputDir string) (string, error)
	ExportToPDF(report *entity.Report, filename string, outputDir string) (string, error)

	// WriteJSON writes the JSON document of the report to w.
	WriteJSON(w io.Writer, report *entity.Report) error
}

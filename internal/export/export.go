package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"

	"go-cheque-batch/internal/model"
	"go-cheque-batch/pkg/utils"
)

// Exporter writes finalized batch reports to downloadable files under the
// per-batch output directory.
type Exporter struct {
	om *utils.OutputManager
}

// NewExporter creates an exporter rooted at baseOutputDir.
func NewExporter(baseOutputDir string) *Exporter {
	return &Exporter{om: utils.NewOutputManager(baseOutputDir)}
}

// WriteReport writes the report as report.json and report.csv.
func (e *Exporter) WriteReport(batchID string, report *model.BatchReport) error {
	if report == nil {
		return nil
	}
	if err := e.writeJSON(batchID, report); err != nil {
		return err
	}
	return e.writeCSV(batchID, report)
}

// DownloadURLs lists the download URLs of a batch's exported files.
func (e *Exporter) DownloadURLs(batchID string) []string {
	return []string{
		e.om.DownloadURL(batchID, "report.json"),
		e.om.DownloadURL(batchID, "report.csv"),
	}
}

// FilePath resolves a previously exported file for the download handler.
func (e *Exporter) FilePath(batchID, fileName string) (string, error) {
	return e.om.OutputFilePath(batchID, fileName)
}

func (e *Exporter) writeJSON(batchID string, report *model.BatchReport) error {
	path, err := e.om.OutputFilePath(batchID, "report.json")
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// writeCSV writes one summary row per counterpart plus a totals section.
func (e *Exporter) writeCSV(batchID string, report *model.BatchReport) error {
	path, err := e.om.OutputFilePath(batchID, "report.csv")
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"counterpart", "count"}); err != nil {
		return err
	}
	names := make([]string, 0, len(report.CounterpartCounts))
	for name := range report.CounterpartCounts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := w.Write([]string{name, strconv.Itoa(report.CounterpartCounts[name])}); err != nil {
			return err
		}
	}

	rows := [][]string{
		{"risk_high", strconv.Itoa(report.RiskBuckets.High)},
		{"risk_medium", strconv.Itoa(report.RiskBuckets.Medium)},
		{"risk_low", strconv.Itoa(report.RiskBuckets.Low)},
		{"reportable", strconv.Itoa(report.ReportableCount)},
		{"total_amount", strconv.FormatFloat(report.TotalAmount, 'f', 2, 64)},
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

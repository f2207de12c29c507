package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

// OutputManager handles per-batch output file organization.
type OutputManager struct {
	BaseOutputDir string
}

// NewOutputManager creates a new output manager rooted at baseOutputDir.
func NewOutputManager(baseOutputDir string) *OutputManager {
	return &OutputManager{BaseOutputDir: baseOutputDir}
}

// CreateBatchOutputDir creates the directory for one batch's exported files.
func (om *OutputManager) CreateBatchOutputDir(batchID string) (string, error) {
	batchDir := filepath.Join(om.BaseOutputDir, batchID)
	if err := os.MkdirAll(batchDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create batch output directory: %w", err)
	}
	return batchDir, nil
}

// OutputFilePath generates the full path for an output file, stripping any
// path separators from the file name.
func (om *OutputManager) OutputFilePath(batchID, fileName string) (string, error) {
	batchDir, err := om.CreateBatchOutputDir(batchID)
	if err != nil {
		return "", err
	}
	return filepath.Join(batchDir, filepath.Base(fileName)), nil
}

// DownloadURL generates the download URL for an exported file.
func (om *OutputManager) DownloadURL(batchID, fileName string) string {
	return fmt.Sprintf("/api/v1/download/%s/%s", batchID, filepath.Base(fileName))
}

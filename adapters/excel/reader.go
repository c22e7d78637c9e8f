// Package excel reads observation files (.xlsx and .csv) into the domain's
// observation records. Column headers are matched case-insensitively against
// a small set of accepted names.
package excel

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"baymv/domain/core"
	"baymv/domain/energy"
	"baymv/ports"
)

// Accepted header names per column, lowercase.
var (
	timestampHeaders   = []string{"timestamp", "date", "period", "reading_date"}
	temperatureHeaders = []string{"temperature", "temp", "oat", "outdoor_temp"}
	energyHeaders      = []string{"energy", "usage", "consumption", "kwh", "load"}
)

// Accepted timestamp layouts, tried in order.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"1/2/2006",
}

// DataReader handles reading Excel and CSV observation files
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(filePath string) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &DataReader{filePath: filePath, fileType: fileType}
}

// Read parses the file into observations in file order.
func (r *DataReader) Read(path string) ([]energy.Observation, error) {
	reader := NewDataReader(path)
	return reader.ReadObservations()
}

// ReadObservations reads the configured file into observations.
func (r *DataReader) ReadObservations() ([]energy.Observation, error) {
	log.Printf("[DataReader] Starting to read %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	switch r.fileType {
	case "csv":
		return r.readCSVRows()
	case "xlsx":
		return r.readExcelRows()
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
}

func (r *DataReader) readExcelRows() ([]energy.Observation, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()
	log.Printf("[DataReader] Excel file opened in %.2fms", float64(time.Since(startTime).Nanoseconds())/1e6)

	// Always use the first sheet.
	sheet := f.GetSheetName(0)
	readStart := time.Now()
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	log.Printf("[DataReader] Sheet %s read in %.2fms (%d rows)", sheet, float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))

	return r.processRows(rows)
}

func (r *DataReader) readCSVRows() ([]energy.Observation, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	readStart := time.Now()
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	log.Printf("[DataReader] CSV file read in %.2fms (%d rows)", float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))

	return r.processRows(rows)
}

// processRows locates the required columns and converts string rows into
// observations. Rows with unparseable numbers are skipped with a warning
// rather than failing the whole file.
func (r *DataReader) processRows(rows [][]string) ([]energy.Observation, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("%s file must have at least a header row and one data row", strings.ToUpper(r.fileType))
	}

	tempCol := findColumn(rows[0], temperatureHeaders)
	energyCol := findColumn(rows[0], energyHeaders)
	timestampCol := findColumn(rows[0], timestampHeaders)
	if tempCol < 0 || energyCol < 0 {
		return nil, fmt.Errorf("missing required columns: need one of %v and one of %v, got %v",
			temperatureHeaders, energyHeaders, rows[0])
	}

	var observations []energy.Observation
	skipped := 0
	for i, row := range rows[1:] {
		if tempCol >= len(row) || energyCol >= len(row) {
			skipped++
			continue
		}

		temp, err := strconv.ParseFloat(strings.TrimSpace(row[tempCol]), 64)
		if err != nil {
			log.Printf("[DataReader] Skipping row %d: bad temperature %q", i+2, row[tempCol])
			skipped++
			continue
		}
		load, err := strconv.ParseFloat(strings.TrimSpace(row[energyCol]), 64)
		if err != nil {
			log.Printf("[DataReader] Skipping row %d: bad energy %q", i+2, row[energyCol])
			skipped++
			continue
		}

		obs := energy.Observation{Temperature: temp, Energy: load}
		if timestampCol >= 0 && timestampCol < len(row) {
			if ts, ok := parseTimestamp(strings.TrimSpace(row[timestampCol])); ok {
				obs.Timestamp = core.Timestamp(ts)
			}
		}
		observations = append(observations, obs)
	}

	if len(observations) == 0 {
		return nil, fmt.Errorf("no valid observation rows in %s", r.filePath)
	}

	log.Printf("[DataReader] %s file processed (%d observations, %d skipped)",
		strings.ToUpper(r.fileType), len(observations), skipped)
	return observations, nil
}

func findColumn(header []string, accepted []string) int {
	for i, cell := range header {
		name := strings.ToLower(strings.TrimSpace(cell))
		for _, candidate := range accepted {
			if name == candidate {
				return i
			}
		}
	}
	return -1
}

func parseTimestamp(value string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

var _ ports.ObservationReader = (*DataReader)(nil)

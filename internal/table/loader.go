package table

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned for files that are neither delimited text nor spreadsheets
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Format is a recognised dataset file type
type Format string

const (
	FormatCSV   Format = "csv"
	FormatTSV   Format = "tsv"
	FormatExcel Format = "excel"
)

// DetectFormat maps a file extension to a Format
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".tsv":
		return FormatTSV, nil
	case ".xlsx", ".xls", ".xlsm":
		return FormatExcel, nil
	default:
		return "", ErrUnsupportedFormat
	}
}

// Load reads a dataset from disk
func Load(path string) (*Table, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatExcel:
		return loadExcel(path)
	case FormatTSV:
		return loadDelimited(path, '\t')
	default:
		return loadDelimited(path, ',')
	}
}

func loadDelimited(path string, delimiter rune) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	df := dataframe.ReadCSV(f,
		dataframe.WithDelimiter(delimiter),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.NaNValues([]string{"", "NA", "NaN", "nan", "null", "NULL", "N/A"}),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("failed to read delimited file: %w", df.Err)
	}
	return New(df)
}

func loadExcel(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet '%s': %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet '%s' is empty", sheets[0])
	}
	return FromRecords(rows)
}

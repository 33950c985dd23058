// Package dataset loads the mileage/price samples used for training.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/carprice/pkg/errors"
)

const (
	// MileageColumn is the header of the mileage column.
	MileageColumn = "km"
	// PriceColumn is the header of the price column.
	PriceColumn = "price"
)

// Dataset holds two parallel sequences of equal length.
type Dataset struct {
	Mileage []float64
	Price   []float64
}

// Len returns the number of samples.
func (d Dataset) Len() int {
	return len(d.Mileage)
}

// Load reads a CSV file with a header row containing the km and price columns.
func Load(path string) (Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return Dataset{}, errors.Wrapf(err, "open dataset %s", path)
	}
	defer f.Close()

	ds, err := Read(f)
	if err != nil {
		return Dataset{}, errors.Wrapf(err, "load dataset %s", path)
	}
	return ds, nil
}

// Read parses CSV from r. Columns may appear in any order and extra columns are
// ignored. Rows are numbered from 1 for the header in error messages.
func Read(r io.Reader) (Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return Dataset{}, errors.NewEmptyInputError("dataset.Read")
	}
	if err != nil {
		return Dataset{}, errors.Wrap(err, "read CSV header")
	}

	kmIdx, priceIdx := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))) {
		case MileageColumn:
			kmIdx = i
		case PriceColumn:
			priceIdx = i
		}
	}
	if kmIdx < 0 || priceIdx < 0 {
		return Dataset{}, errors.NewValueError("dataset.Read",
			fmt.Sprintf("CSV must contain %q and %q columns, got %v", MileageColumn, PriceColumn, header))
	}

	var ds Dataset
	for row := 2; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Dataset{}, errors.Wrapf(err, "read CSV row %d", row)
		}
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}

		km, err := parseCell(record, kmIdx, row, MileageColumn)
		if err != nil {
			return Dataset{}, err
		}
		price, err := parseCell(record, priceIdx, row, PriceColumn)
		if err != nil {
			return Dataset{}, err
		}
		ds.Mileage = append(ds.Mileage, km)
		ds.Price = append(ds.Price, price)
	}

	if ds.Len() == 0 {
		return Dataset{}, errors.NewEmptyInputError("dataset.Read")
	}
	return ds, nil
}

func parseCell(record []string, idx, row int, column string) (float64, error) {
	if idx >= len(record) {
		return 0, errors.NewValueError("dataset.Read",
			fmt.Sprintf("row %d: missing %q value", row, column))
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(record[idx]), 64)
	if err != nil || !errors.IsFinite(v) {
		return 0, errors.NewValueError("dataset.Read",
			fmt.Sprintf("row %d: %q value %q is not a finite number", row, column, record[idx]))
	}
	return v, nil
}

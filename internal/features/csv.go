package features

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// ColumnNames returns the feature column names, e.g. "O1_7.5Hz", in vector order.
func ColumnNames(channels []string, targets []float64) []string {
	names := make([]string, 0, len(channels)*len(targets))
	for _, ch := range channels {
		for _, f := range targets {
			names = append(names, fmt.Sprintf("%s_%sHz", ch, strconv.FormatFloat(f, 'f', -1, 64)))
		}
	}
	return names
}

// WriteCSV writes ds as CSV with a header row. Columns are record, trial,
// label (when present) and one column per feature.
func WriteCSV(w io.Writer, ds *Dataset, columns []string) error {
	cw := csv.NewWriter(w)
	labeled := len(ds.Y) == ds.Len()

	header := []string{"record", "trial"}
	if labeled {
		header = append(header, "label")
	}
	if err := cw.Write(append(header, columns...)); err != nil {
		return err
	}

	row := make([]string, 0, len(header)+len(columns))
	for i, vec := range ds.X {
		row = append(row[:0], ds.Records[i], strconv.Itoa(ds.Trials[i]))
		if labeled {
			row = append(row, strconv.FormatFloat(ds.Y[i], 'f', -1, 64))
		}
		for _, v := range vec {
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

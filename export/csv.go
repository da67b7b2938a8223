package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/use-agent/brandscrape/models"
)

// Filename is the fixed name offered for every CSV download.
const Filename = "scraped_products.csv"

// ContentType is the MIME type of the CSV export.
const ContentType = "text/csv; charset=utf-8"

// WriteCSV writes a header row followed by one row per record, columns in
// models.RecordColumns order. Output is UTF-8 with no byte order mark.
func WriteCSV(w io.Writer, records []models.ScrapedRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(models.RecordColumns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i, rec := range records {
		if err := cw.Write(rec.Row()); err != nil {
			return fmt.Errorf("write csv row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// CSV renders records to an in-memory CSV document.
func CSV(records []models.ScrapedRecord) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

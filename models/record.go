package models

// Stock values. Stock is a keyword heuristic over the product text,
// not a parsed field.
const (
	StockIn  = "In Stock"
	StockOut = "Out of Stock"
)

// NotAvailable fills optional fields missing from a product element.
const NotAvailable = "N/A"

// RecordColumns lists the export columns in order.
var RecordColumns = []string{"Title", "Description", "Price", "Stock", "Tags", "Images", "URL"}

// ScrapedRecord is one product element flattened into export columns.
// Records carry no identity beyond their position in a run.
type ScrapedRecord struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Stock       string `json:"stock"`
	Tags        string `json:"tags"`
	Images      string `json:"images"`
	URL         string `json:"url"`
}

// Row returns the record's values in RecordColumns order.
func (r ScrapedRecord) Row() []string {
	return []string{r.Title, r.Description, r.Price, r.Stock, r.Tags, r.Images, r.URL}
}

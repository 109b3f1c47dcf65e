package importer

import (
	"io"

	"github.com/mgoncalv/quotedesk/internal/pricebook"
)

// Source identifies the price-list format being imported.
type Source string

const (
	SourceCSV Source = "csv"
)

type Importer interface {
	Parse(r io.Reader) ([]pricebook.Entry, error)
}

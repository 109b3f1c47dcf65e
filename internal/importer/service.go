package importer

import (
	"fmt"
	"io"

	"github.com/mgoncalv/quotedesk/internal/importer/pricecsv"
	"github.com/mgoncalv/quotedesk/internal/pricebook"
)

type Service struct {
	csvImporter Importer
}

func NewService() *Service {
	return &Service{
		csvImporter: pricecsv.NewParser(),
	}
}

func (s *Service) Import(source Source, r io.Reader) ([]pricebook.Entry, error) {
	var imp Importer

	switch source {
	case SourceCSV:
		imp = s.csvImporter
	default:
		return nil, fmt.Errorf("unknown price list source: %s", source)
	}

	return imp.Parse(r)
}

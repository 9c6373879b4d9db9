package emit

import (
	"encoding/xml"
	"fmt"

	"github.com/cuemby/docpipeline/pkg/types"
)

// document is the XML shape written to xml/<item_id>.xml for accounting
// kinds.
type document struct {
	XMLName xml.Name `xml:"Document"`
	ItemID  string   `xml:"ItemId,attr"`
	Kind    string   `xml:"Kind,attr"`
	Field   []field  `xml:"Field"`
}

type field struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

// Emit renders fields as the normalized XML payload for itemID/kind. It
// is a pure function: no I/O, no shared state. Callers that need the
// payload on disk hand the returned bytes to workstore.Store.WriteXML.
func Emit(itemID string, kind types.DocumentKind, fields map[string]string) ([]byte, error) {
	if !types.AccountingKinds[kind] {
		return nil, fmt.Errorf("emit: kind %q is not an accounting kind", kind)
	}

	doc := document{ItemID: itemID, Kind: string(kind)}
	for _, name := range types.FieldNames {
		v, ok := fields[name]
		if !ok {
			continue
		}
		doc.Field = append(doc.Field, field{Name: name, Value: v})
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("emit: marshal: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

package handlers

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/EO-DataHub/eodhp-scim-services/models"
)

// resourceRow is one resource as shown in the HTML views.
type resourceRow struct {
	ID         string
	Label      string
	Attributes []attribute
}

type attribute struct {
	Name  string
	Value string
}

// toRows flattens documents for display. labelKey names the attribute shown next to the
// id; documents without it are labelled by their id.
func toRows(docs []models.Document, labelKey string) []resourceRow {
	rows := make([]resourceRow, 0, len(docs))
	for _, doc := range docs {
		row := resourceRow{ID: doc.ID()}

		row.Label, _ = doc[labelKey].(string)
		if row.Label == "" {
			row.Label = row.ID
		}

		names := make([]string, 0, len(doc))
		for name := range doc {
			if name == "id" || name == labelKey {
				continue
			}
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			row.Attributes = append(row.Attributes, attribute{Name: name, Value: formatValue(doc[name])})
		}
		rows = append(rows, row)
	}
	return rows
}

func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case nil:
		return "null"
	}

	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

package output

import (
	"encoding/json"
)

// JSONFormatter renders tables as a list of objects keyed by header.
type JSONFormatter struct {
	Indent bool
}

// Format renders t as JSON.
func (f *JSONFormatter) Format(t *Table) (string, error) {
	if t == nil {
		return "", nil
	}

	records := make([]map[string]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		record := make(map[string]string, len(t.Header))
		for i, key := range t.Header {
			if i < len(row) {
				record[key] = row[i]
			}
		}
		records = append(records, record)
	}

	var (
		data []byte
		err  error
	)

	if f.Indent {
		data, err = json.MarshalIndent(records, "", "  ")
	} else {
		data, err = json.Marshal(records)
	}
	if err != nil {
		return "", err
	}

	return string(data), nil
}

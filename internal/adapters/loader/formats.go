package loader

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/jsamuelsen/eda-panel/internal/domain"
)

func parseCSV(text string) (table, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return table{}, domain.ErrEmptyDataset
	}

	if err != nil {
		return table{}, domain.NewValidationError("file", "malformed CSV header: "+err.Error())
	}

	var rows [][]string

	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return table{}, domain.NewValidationError("file", "malformed CSV: "+err.Error())
		}

		if len(row) == 1 && row[0] == "" {
			continue
		}

		rows = append(rows, row)
	}

	return table{header: header, rows: rows}, nil
}

func parseExcel(data []byte) (table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return table{}, domain.NewValidationError("file", "cannot read workbook: "+err.Error())
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return table{}, domain.ErrEmptyDataset
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return table{}, domain.NewValidationError("file", fmt.Sprintf("cannot read sheet %q: %v", sheets[0], err))
	}

	if len(rows) == 0 {
		return table{}, domain.ErrEmptyDataset
	}

	return table{header: rows[0], rows: rows[1:]}, nil
}

// parseJSON accepts an array of records, an object wrapping one under
// "data" or "records", or a single record. Columns appear in first-seen order.
func parseJSON(text string) (table, error) {
	raw := bytes.TrimSpace([]byte(text))
	if len(raw) == 0 {
		return table{}, domain.ErrEmptyDataset
	}

	var items []json.RawMessage

	switch raw[0] {
	case '[':
		if err := json.Unmarshal(raw, &items); err != nil {
			return table{}, domain.NewValidationError("file", "malformed JSON: "+err.Error())
		}
	case '{':
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(raw, &wrapper); err != nil {
			return table{}, domain.NewValidationError("file", "malformed JSON: "+err.Error())
		}

		items = []json.RawMessage{raw}

		for _, key := range []string{"data", "records"} {
			var inner []json.RawMessage
			if body, ok := wrapper[key]; ok && json.Unmarshal(body, &inner) == nil {
				items = inner
				break
			}
		}
	default:
		return table{}, domain.NewValidationError("file", "unsupported JSON layout")
	}

	var (
		header []string
		index  = make(map[string]int)
		rows   = make([][]string, 0, len(items))
	)

	for _, item := range items {
		rec, err := decodeRecord(item)
		if err != nil {
			return table{}, err
		}

		for _, k := range rec.keys {
			if _, seen := index[k]; !seen {
				index[k] = len(header)
				header = append(header, k)
			}
		}

		row := make([]string, len(header))
		for k, v := range rec.values {
			row[index[k]] = v
		}

		rows = append(rows, row)
	}

	return table{header: header, rows: rows}, nil
}

type record struct {
	keys   []string
	values map[string]string
}

// decodeRecord reads one JSON object keeping its key order.
func decodeRecord(data []byte) (record, error) {
	layoutErr := domain.NewValidationError("file", "unsupported JSON layout")

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil || tok != json.Delim('{') {
		return record{}, layoutErr
	}

	rec := record{values: make(map[string]string)}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return record{}, domain.NewValidationError("file", "malformed JSON: "+err.Error())
		}

		key, _ := tok.(string)

		var v any
		if err := dec.Decode(&v); err != nil {
			return record{}, domain.NewValidationError("file", "malformed JSON: "+err.Error())
		}

		if _, dup := rec.values[key]; !dup {
			rec.keys = append(rec.keys, key)
		}

		rec.values[key] = jsonCell(v)
	}

	return rec, nil
}

func jsonCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}

		return string(b)
	}
}

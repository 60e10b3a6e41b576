package circulation

import (
	"bytes"
	"math"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var legacyJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// LegacyRecord is one row of a legacy catalog dump. Each record stands for one physical copy.
// Fields the catalog does not know (old IDs, borrower names, dates) are ignored.
type LegacyRecord struct {
	Name      string      `json:"name"`
	Author    *string     `json:"author"`
	Category  *string     `json:"category"`
	Pages     FlexibleInt `json:"pages"`
	Available *bool       `json:"available"`
}

// IsAvailable reports whether the copy was on the shelf. Only an explicit false means lent out.
func (r LegacyRecord) IsAvailable() bool {
	return r.Available == nil || *r.Available
}

type legacyRecordJSON struct {
	Name      jsoniter.RawMessage `json:"name"`
	Author    jsoniter.RawMessage `json:"author"`
	Category  jsoniter.RawMessage `json:"category"`
	Pages     FlexibleInt         `json:"pages"`
	Available jsoniter.RawMessage `json:"available"`
}

// UnmarshalJSON implements json.Unmarshaler. Legacy dumps are loosely typed, so a single odd
// value never fails the batch: numbers and booleans in text fields become their text, objects
// and arrays there count as absent, and availability is false only for a JSON false.
// An element that is not an object decodes as a record without a name.
func (r *LegacyRecord) UnmarshalJSON(data []byte) error {
	*r = LegacyRecord{}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}

	var raw legacyRecordJSON
	if err := legacyJSON.Unmarshal(trimmed, &raw); err != nil {
		return err
	}

	if name := looseText(raw.Name); name != nil {
		r.Name = *name
	}

	r.Author = looseText(raw.Author)
	r.Category = looseText(raw.Category)
	r.Pages = raw.Pages

	switch string(bytes.TrimSpace(raw.Available)) {
	case "false":
		r.Available = new(bool)
	case "":
	default:
		available := true
		r.Available = &available
	}

	return nil
}

// looseText renders a JSON scalar as text: strings as they are, numbers in their shortest
// decimal form, booleans as true or false. null, objects and arrays yield nil.
func looseText(raw jsoniter.RawMessage) *string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil
	}

	var text string

	switch trimmed[0] {
	case '"':
		if err := legacyJSON.Unmarshal(trimmed, &text); err != nil {
			return nil
		}

	case 't', 'f':
		text = string(trimmed)

	case 'n', '{', '[':
		return nil

	default:
		number, err := strconv.ParseFloat(string(trimmed), 64)
		if err != nil {
			return nil
		}

		text = strconv.FormatFloat(number, 'f', -1, 64)
	}

	return &text
}

// FlexibleInt decodes a positive whole JSON number or numeric string. Anything else decodes as absent.
type FlexibleInt struct {
	Value int
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexibleInt) UnmarshalJSON(data []byte) error {
	*f = FlexibleInt{}

	raw := strings.TrimSpace(string(bytes.Trim(data, `"`)))
	if raw == "" || raw == "null" {
		return nil
	}

	number, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(number) || math.IsInf(number, 0) {
		return nil
	}

	if number != math.Trunc(number) || number <= 0 || number > math.MaxInt32 {
		return nil
	}

	f.Value = int(number)
	f.Valid = true

	return nil
}

// ImportGroup is the aggregate of all legacy records sharing one normalized title.
type ImportGroup struct {
	Title           string
	TitleNorm       string
	Author          *string
	Category        *string
	Pages           *int
	CopiesTotal     int
	CopiesAvailable int
}

// GroupLegacyRecords folds records into one group per normalized title, in order of first appearance.
// Records with a blank name are skipped. The display title is the trimmed name of the first record,
// author, category and pages are the first non-empty value seen, and every record adds one copy.
func GroupLegacyRecords(records []LegacyRecord) []ImportGroup {
	groups := make([]ImportGroup, 0)
	index := make(map[string]int)

	for _, record := range records {
		title := strings.TrimSpace(record.Name)
		if title == "" {
			continue
		}

		norm := NormalizeTitle(title)

		position, known := index[norm]
		if !known {
			position = len(groups)
			index[norm] = position
			groups = append(groups, ImportGroup{Title: title, TitleNorm: norm})
		}

		group := &groups[position]

		if group.Author == nil {
			group.Author = trimmedOrNil(record.Author)
		}

		if group.Category == nil {
			group.Category = trimmedOrNil(record.Category)
		}

		if group.Pages == nil && record.Pages.Valid {
			pages := record.Pages.Value
			group.Pages = &pages
		}

		group.CopiesTotal++

		if record.IsAvailable() {
			group.CopiesAvailable++
		}
	}

	return groups
}

// ImportStats summarizes one legacy import run.
type ImportStats struct {
	Groups           int `json:"unique_titles"`
	Inserted         int `json:"inserted"`
	Updated          int `json:"updated"`
	RecordsProcessed int `json:"total_rows"`
}

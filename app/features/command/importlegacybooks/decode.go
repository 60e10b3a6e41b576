package importlegacybooks

import (
	"bytes"
	"errors"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type wrappedBatch struct {
	Items *[]circulation.LegacyRecord `json:"items"`
}

// DecodeLegacyBatch accepts either a JSON array of records or an object with an "items" array.
// Anything else fails with circulation.ErrMalformedImportPayload.
func DecodeLegacyBatch(payload []byte) ([]circulation.LegacyRecord, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return nil, circulation.ErrMalformedImportPayload
	}

	switch trimmed[0] {
	case '[':
		var records []circulation.LegacyRecord
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, errors.Join(circulation.ErrMalformedImportPayload, err)
		}

		return records, nil

	case '{':
		var batch wrappedBatch
		if err := json.Unmarshal(trimmed, &batch); err != nil {
			return nil, errors.Join(circulation.ErrMalformedImportPayload, err)
		}

		if batch.Items == nil {
			return nil, circulation.ErrMalformedImportPayload
		}

		return *batch.Items, nil

	default:
		return nil, circulation.ErrMalformedImportPayload
	}
}

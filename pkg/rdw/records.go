package rdw

import (
	"encoding/json"
	"errors"

	"cloud.google.com/go/civil"
)

const (
	fieldLicensePlate = "kenteken"
	fieldExpiration   = "vervaldatum_keuring"
)

// ExaminationRecord is one dataset row, values exactly as returned by the source.
type ExaminationRecord struct {
	LicensePlate   string `json:"kenteken"`
	ExpirationDate string `json:"vervaldatum_keuring"`
}

// Expiration parses the record's expiration date.
func (r ExaminationRecord) Expiration() (civil.Date, error) {
	return ParseDate(r.ExpirationDate)
}

// ExpirationMap maps the raw plate returned by the source to its expiration date.
type ExpirationMap map[string]civil.Date

// decodeRows splits a response body into its array elements.
func decodeRows(doc json.RawMessage) ([]json.RawMessage, error) {
	var rows []json.RawMessage
	if err := json.Unmarshal(doc, &rows); err != nil {
		return nil, &FormatError{Err: errors.New("response is not a JSON array")}
	}
	return rows, nil
}

// decodeRecord reads both fields of a row. ok is false when the row is not an
// object or either field is absent or not a string.
func decodeRecord(row json.RawMessage) (ExaminationRecord, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(row, &obj); err != nil || obj == nil {
		return ExaminationRecord{}, false
	}
	plate, ok := stringField(obj, fieldLicensePlate)
	if !ok {
		return ExaminationRecord{}, false
	}
	date, ok := stringField(obj, fieldExpiration)
	if !ok {
		return ExaminationRecord{}, false
	}
	return ExaminationRecord{LicensePlate: plate, ExpirationDate: date}, true
}

// expirationField reads only the expiration date of a row.
func expirationField(row json.RawMessage) (string, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(row, &obj); err != nil || obj == nil {
		return "", false
	}
	return stringField(obj, fieldExpiration)
}

func stringField(obj map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := obj[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// decodeRecords keeps only well-formed rows.
func decodeRecords(doc json.RawMessage) ([]ExaminationRecord, error) {
	rows, err := decodeRows(doc)
	if err != nil {
		return nil, err
	}
	records := make([]ExaminationRecord, 0, len(rows))
	for _, row := range rows {
		if rec, ok := decodeRecord(row); ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

// buildExpirationMap parses every record; later duplicates overwrite earlier ones.
func buildExpirationMap(records []ExaminationRecord) (ExpirationMap, error) {
	out := make(ExpirationMap, len(records))
	for _, rec := range records {
		date, err := rec.Expiration()
		if err != nil {
			return nil, err
		}
		out[rec.LicensePlate] = date
	}
	return out, nil
}

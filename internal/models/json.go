package models

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// StringList decodes a JSON array column; malformed or empty values yield nil.
func StringList(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

// FloatList decodes a JSON array of numbers.
func FloatList(raw datatypes.JSON) []float64 {
	if len(raw) == 0 {
		return nil
	}
	var out []float64
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

// JSONValue encodes v for a JSON column. Nil slices are stored as [].
func JSONValue(v interface{}) datatypes.JSON {
	switch t := v.(type) {
	case []string:
		if t == nil {
			return datatypes.JSON("[]")
		}
	case []float64:
		if t == nil {
			return datatypes.JSON("[]")
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(b)
}

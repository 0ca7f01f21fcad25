package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONData holds a jsonb column verbatim.
type JSONData []byte

func NewJSONData(v interface{}) (JSONData, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return JSONData(b), nil
}

func (j JSONData) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return string(j), nil
}

func (j *JSONData) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*j = nil
	case []byte:
		*j = append((*j)[:0], v...)
	case string:
		*j = JSONData(v)
	default:
		return fmt.Errorf("unsupported type %T for JSONData", src)
	}
	return nil
}

func (j JSONData) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return j, nil
}

func (j *JSONData) UnmarshalJSON(data []byte) error {
	*j = append((*j)[:0], data...)
	return nil
}

func (j JSONData) Decode(v interface{}) error {
	if len(j) == 0 {
		return fmt.Errorf("empty json payload")
	}
	return json.Unmarshal(j, v)
}

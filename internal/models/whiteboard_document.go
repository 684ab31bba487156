package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Document is an opaque serialized drawing. Stored as text, replaced wholesale on every update.
type Document json.RawMessage

func (d *Document) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*d = nil
	case []byte:
		*d = append(Document(nil), v...)
	case string:
		*d = Document(v)
	default:
		return fmt.Errorf("document: unsupported column type %T", value)
	}
	return nil
}

func (d Document) Value() (driver.Value, error) {
	if len(d) == 0 {
		return nil, nil
	}
	return string(d), nil
}

func (d Document) MarshalJSON() ([]byte, error) {
	if len(d) == 0 {
		return []byte("null"), nil
	}
	return json.RawMessage(d).MarshalJSON()
}

func (d *Document) UnmarshalJSON(data []byte) error {
	if d == nil {
		return fmt.Errorf("document: UnmarshalJSON on nil pointer")
	}
	*d = append((*d)[0:0], data...)
	return nil
}

package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Draft is what the wizard submits. Meta, Items, Attachments and Clauses
// belong to the wizard; the core only packs them into the record metadata.
type Draft struct {
	Title    string
	PONumber string
	Summary  string

	Meta        json.RawMessage
	Items       json.RawMessage
	Attachments json.RawMessage
	Clauses     json.RawMessage
}

// Payload is the JSON layout of PoRecord.Metadata.
type Payload struct {
	Meta        json.RawMessage `json:"meta"`
	Items       json.RawMessage `json:"items"`
	Attachments json.RawMessage `json:"attachments"`
	Clauses     json.RawMessage `json:"clauses"`
}

// EncodeMetadata packs the wizard sections into the opaque record blob. The
// sections are copied verbatim so Payload returns them byte for byte; empty
// sections become null.
func (d Draft) EncodeMetadata() ([]byte, error) {
	sections := []struct {
		name string
		raw  json.RawMessage
	}{
		{"meta", d.Meta},
		{"items", d.Items},
		{"attachments", d.Attachments},
		{"clauses", d.Clauses},
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, sec := range sections {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(`"` + sec.name + `":`)
		if len(sec.raw) == 0 {
			buf.WriteString("null")
			continue
		}
		if !json.Valid(sec.raw) {
			return nil, fmt.Errorf("%s is not valid JSON", sec.name)
		}
		buf.Write(sec.raw)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

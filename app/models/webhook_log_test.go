package models

import (
	"encoding/json"
	"testing"
)

func TestJSONPayloadScan(t *testing.T) {
	var p JSONPayload
	if err := p.Scan([]byte(`{"a":1}`)); err != nil {
		t.Fatalf("Scan bytes: %v", err)
	}
	if string(p) != `{"a":1}` {
		t.Fatalf("unexpected payload %s", p)
	}

	if err := p.Scan(nil); err != nil {
		t.Fatalf("Scan nil: %v", err)
	}
	if p != nil {
		t.Fatalf("expected nil payload from NULL column")
	}

	if err := p.Scan(3.14); err == nil {
		t.Fatalf("expected error for unsupported column type")
	}
}

func TestJSONPayloadPreservesBytes(t *testing.T) {
	// The stored snapshot must be the exact dispatched bytes at the driver
	// boundary, including key order and whitespace. encoding/json compacts
	// embedded marshaler output, so only key order survives a re-encode.
	raw := `{"b": 2, "a": 1}`
	p := JSONPayload(raw)

	v, err := p.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if string(v.([]byte)) != raw {
		t.Fatalf("payload was reformatted: %s", v)
	}

	encoded, err := json.Marshal(struct {
		Payload JSONPayload `json:"payload"`
	}{Payload: p})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(encoded) != `{"payload":{"b":2,"a":1}}` {
		t.Fatalf("unexpected encoding %s", encoded)
	}
}

func TestJSONPayloadEmpty(t *testing.T) {
	var p JSONPayload
	v, err := p.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if string(v.([]byte)) != "null" {
		t.Fatalf("expected null for empty payload, got %s", v)
	}

	encoded, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(encoded) != "null" {
		t.Fatalf("expected null encoding, got %s", encoded)
	}
}

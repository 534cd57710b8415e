package utils

import "testing"

func TestJSONRoundTrip(t *testing.T) {
	type payload struct {
		Path string         `json:"path"`
		Body map[string]any `json:"body"`
	}
	in := payload{
		Path: "expenses/e1",
		Body: map[string]any{"description": "fuel", "amount": "12.5"},
	}

	encoded, err := MarshalToJSON(in)
	if err != nil {
		t.Fatal(err)
	}

	var out payload
	if err := UnmarshalFromJSON([]byte(encoded), &out); err != nil {
		t.Fatal(err)
	}
	if out.Path != in.Path {
		t.Errorf("path = %q, want %q", out.Path, in.Path)
	}
	if out.Body["description"] != "fuel" || out.Body["amount"] != "12.5" {
		t.Errorf("body = %v", out.Body)
	}
}

func TestMarshalToJSONRejectsUnencodable(t *testing.T) {
	if _, err := MarshalToJSON(map[string]any{"fn": func() {}}); err == nil {
		t.Error("expected error for unencodable value")
	}
}

func TestUnmarshalFromJSONInvalidInput(t *testing.T) {
	var out map[string]any
	if err := UnmarshalFromJSON([]byte("{not json"), &out); err == nil {
		t.Error("expected error for malformed input")
	}
}

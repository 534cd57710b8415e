package models

import (
	"encoding/json"
	"testing"
)

func TestNormalizeEpoch(t *testing.T) {
	cases := []struct {
		name string
		raw  int64
		want Millis
	}{
		{"zero stays zero", 0, 0},
		{"seconds scale up", 1_700_000_000, 1_700_000_000_000},
		{"millis pass through", 1_700_000_000_000, 1_700_000_000_000},
		{"just above threshold is millis", millisThreshold + 1, Millis(millisThreshold + 1)},
		{"at threshold is seconds", millisThreshold, Millis(millisThreshold * 1000)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeEpoch(tc.raw); got != tc.want {
				t.Errorf("NormalizeEpoch(%d) = %d, want %d", tc.raw, got, tc.want)
			}
		})
	}
}

func TestMillisJSONAlwaysEmitsMillis(t *testing.T) {
	raw, err := json.Marshal(Millis(1_700_000_000_000))
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != "1700000000000" {
		t.Errorf("marshal = %s, want 1700000000000", raw)
	}
}

func TestMillisUnmarshalNormalizes(t *testing.T) {
	cases := []struct {
		in   string
		want Millis
	}{
		{"1700000000", 1_700_000_000_000},
		{"1700000000000", 1_700_000_000_000},
		{"1.7e9", 1_700_000_000_000},
		{"null", 0},
	}
	for _, tc := range cases {
		var m Millis
		if err := json.Unmarshal([]byte(tc.in), &m); err != nil {
			t.Fatalf("unmarshal %q: %v", tc.in, err)
		}
		if m != tc.want {
			t.Errorf("unmarshal %q = %d, want %d", tc.in, m, tc.want)
		}
	}

	var m Millis
	if err := json.Unmarshal([]byte(`"nope"`), &m); err == nil {
		t.Error("expected error for non-numeric timestamp")
	}
}

func TestMillisFromAny(t *testing.T) {
	cases := []struct {
		in   any
		want Millis
	}{
		{nil, 0},
		{float64(1_700_000_000), 1_700_000_000_000},
		{int64(1_700_000_000_000), 1_700_000_000_000},
		{"1700000000", 1_700_000_000_000},
		{"garbage", 0},
		{Millis(42_000), 42_000},
	}
	for _, tc := range cases {
		if got := MillisFromAny(tc.in); got != tc.want {
			t.Errorf("MillisFromAny(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

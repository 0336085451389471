package result

import (
	"encoding/json"
	"testing"
)

func TestFromHits_Empty(t *testing.T) {
	if got := FromHits(nil); len(got) != 0 {
		t.Errorf("nil hits: got %d records, want 0", len(got))
	}
	if got := FromHits([]Hit{}); len(got) != 0 {
		t.Errorf("empty hits: got %d records, want 0", len(got))
	}
}

func TestFromHits_PreservesOrder(t *testing.T) {
	hits := []Hit{
		{ID: "3", Score: 2.5, Source: json.RawMessage(`{"title":"c"}`)},
		{ID: "1", Score: 1.5, Source: json.RawMessage(`{"title":"a"}`)},
		{ID: "2", Score: 0.5, Source: json.RawMessage(`{"title":"b"}`)},
	}

	got := FromHits(hits)
	if len(got) != len(hits) {
		t.Fatalf("got %d records, want %d", len(got), len(hits))
	}
	for i := range hits {
		if string(got[i]) != string(hits[i].Source) {
			t.Errorf("record %d: got %s, want %s", i, got[i], hits[i].Source)
		}
	}
}

func TestFromHits_MissingSourceKeepsPosition(t *testing.T) {
	hits := []Hit{
		{ID: "1", Source: json.RawMessage(`{"title":"a"}`)},
		{ID: "2"},
		{ID: "3", Source: json.RawMessage(`null`)},
		{ID: "4", Source: json.RawMessage(`{"title":"d"}`)},
	}

	got := FromHits(hits)
	if len(got) != len(hits) {
		t.Fatalf("got %d records, want %d", len(got), len(hits))
	}
	want := []string{`{"title":"a"}`, `null`, `null`, `{"title":"d"}`}
	for i := range want {
		if string(got[i]) != want[i] {
			t.Errorf("record %d: got %s, want %s", i, got[i], want[i])
		}
	}

	data, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `[{"title":"a"},null,null,{"title":"d"}]` {
		t.Errorf("unexpected encoding: %s", data)
	}
}

func TestFromDocument(t *testing.T) {
	got := FromDocument(json.RawMessage(`{"title":"a"}`))
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}
	if string(got[0]) != `{"title":"a"}` {
		t.Errorf("got %s", got[0])
	}

	for _, raw := range []string{"", "null", "  "} {
		if got := FromDocument(json.RawMessage(raw)); len(got) != 0 {
			t.Errorf("FromDocument(%q): got %d records, want 0", raw, len(got))
		}
	}
}

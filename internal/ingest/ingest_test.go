package ingest

import (
	"path/filepath"
	"testing"
)

func TestSampleRecords_KnownRegion(t *testing.T) {
	raws := SampleRecords("tokyo", "salon")
	if len(raws) != 5 {
		t.Fatalf("expected 5 records, got %d", len(raws))
	}

	seen := make(map[string]bool)
	for _, r := range raws {
		if r.ID == "" {
			t.Error("sample record without id")
		}
		if seen[r.ID] {
			t.Errorf("duplicate sample id %s", r.ID)
		}
		seen[r.ID] = true
		if r.Region != "tokyo" || r.Category != "salon" {
			t.Errorf("unexpected region/category: %s/%s", r.Region, r.Category)
		}
		if r.Rating < 0 || r.Rating > 5 {
			t.Errorf("sample rating out of range: %v", r.Rating)
		}
		if r.NameLocalized == "" || r.DescriptionLocalized == "" {
			t.Error("sample records must carry localized fields")
		}
		if len(r.Services) == 0 {
			t.Error("sample records must list services")
		}
	}
}

func TestSampleRecords_UnknownRegionAndCategory(t *testing.T) {
	raws := SampleRecords("sapporo", "massage")
	if len(raws) == 0 {
		t.Fatal("expected fallback sample records")
	}
	for _, r := range raws {
		if len(r.Services) == 0 {
			t.Error("fallback services must not be empty")
		}
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	want := SampleRecords("osaka", "nail")

	if err := SaveFile(path, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if len(got) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(got))
	}
	if got[0].ID != want[0].ID || got[0].NameLocalized != want[0].NameLocalized {
		t.Errorf("round trip mismatch: %+v", got[0])
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

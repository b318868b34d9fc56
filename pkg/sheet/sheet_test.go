package sheet

import "testing"

func TestFindValue_ExactBeatsPartial(t *testing.T) {
	rec := Record{
		"nasabah_id_lama": "OLD-1",
		"id_nasabah":      "N-001",
	}
	v, ok := FindValue(rec, []string{"id_nasabah"})
	if !ok {
		t.Fatal("expected a match")
	}
	if v != "N-001" {
		t.Fatalf("FindValue = %v, want N-001 (exact match must win)", v)
	}
}

func TestFindValue_NormalizedMatching(t *testing.T) {
	rec := Record{"ID Nasabah": "N-002"}
	v, ok := FindValue(rec, []string{"id_nasabah"})
	if !ok || v != "N-002" {
		t.Fatalf("FindValue = %v ok=%v, want N-002 via normalized key", v, ok)
	}
}

func TestFindValue_PartialBothDirections(t *testing.T) {
	// key contains pattern
	rec := Record{"jumlah_bayar_total": 5000.0}
	if v, ok := FindValue(rec, []string{"jumlah_bayar"}); !ok || v != 5000.0 {
		t.Fatalf("key-contains-pattern: got %v ok=%v", v, ok)
	}
	// pattern contains key
	rec = Record{"bayar": 7000.0}
	if v, ok := FindValue(rec, []string{"jumlah_bayar"}); !ok || v != 7000.0 {
		t.Fatalf("pattern-contains-key: got %v ok=%v", v, ok)
	}
}

func TestFindValue_NoMatch(t *testing.T) {
	rec := Record{"foo": 1}
	if _, ok := FindValue(rec, []string{"tanggal"}); ok {
		t.Fatal("unexpected match")
	}
	if _, ok := FindValue(nil, []string{"tanggal"}); ok {
		t.Fatal("match on nil record")
	}
}

func TestCleanNumber(t *testing.T) {
	cases := []struct {
		in   any
		want float64
	}{
		{"Rp 1.250.000", 1250000},
		{"1,250,000.50", 1250000.5},
		{"1.250.000,50", 1250000.5},
		{"", 0},
		{nil, 0},
		{25000, 25000},
		{25000.75, 25000.75},
		{"25.000", 25000},
		{"25,000", 25000},
		// the ",-" suffix leaves a dangling minus after residue
		// stripping, which is unparseable
		{"Rp25.000,-", 0},
		{"150000", 150000},
		{"12.5", 12.5},
		{"garbage", 0},
	}
	for _, tc := range cases {
		if got := CleanNumber(tc.in); got != tc.want {
			t.Errorf("CleanNumber(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestTables(t *testing.T) {
	data := map[string]any{
		"nasabah": []any{
			map[string]any{"id_nasabah": "NS-001"},
			"not a row",
		},
		"meta": "not a table",
	}
	got := Tables(data)
	if len(got["nasabah"]) != 1 {
		t.Fatalf("nasabah rows = %d, want 1", len(got["nasabah"]))
	}
	if _, ok := got["meta"]; ok {
		t.Fatal("scalar value should not become a table")
	}
}

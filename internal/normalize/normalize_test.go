package normalize

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLotNumber(t *testing.T) {
	tests := []struct {
		input, expected string
	}{
		{"123", "123"},
		{"00123", "123"},
		{"123.0", "123"},
		{"LOT-0045A", "45"},
		{"  7788 ", "7788"},
		{"abc", ""},
		{"", ""},
		{"000", ""},
	}
	for _, tt := range tests {
		if got := LotNumber(tt.input); got != tt.expected {
			t.Errorf("LotNumber(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}

func TestPalletID(t *testing.T) {
	tests := []struct {
		input, expected string
	}{
		{"JTL00496", "JTL00496"},
		{" 123.0 ", "123"},
		{"00123", "00123"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := PalletID(tt.input); got != tt.expected {
			t.Errorf("PalletID(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
	if PalletKey("jtl00496") != PalletKey("JTL00496 ") {
		t.Error("PalletKey should be case-insensitive")
	}
}

func TestQuantity(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"12", 12},
		{"6.5", 6.5},
		{"1,200", 1200},
		{"", 0},
		{"n/a", 0},
		{"NaN", 0},
	}
	for _, tt := range tests {
		if got := Quantity(tt.input); got != tt.expected {
			t.Errorf("Quantity(%q) = %v, expected %v", tt.input, got, tt.expected)
		}
	}
}

func TestHeaderKey(t *testing.T) {
	if HeaderKey(" Location Name ") != HeaderKey("location_name") {
		t.Errorf("expected header keys to match: %q vs %q", HeaderKey(" Location Name "), HeaderKey("location_name"))
	}
}

func TestToInventoryRecord(t *testing.T) {
	cells := map[string]string{
		ColLocation: " 11400801 ",
		ColSKU:      "SKU-1",
		ColPalletID: "456.0",
		ColLot:      "0099",
		ColQty:      "4",
	}
	rec, err := ToInventoryRecord(func(col string) string { return cells[col] }, 7)
	if err != nil {
		t.Fatalf("ToInventoryRecord: %v", err)
	}
	if rec.Location != "11400801" || rec.PalletID != "456" || rec.Lot != "99" || rec.Qty != 4 || rec.SourceRow != 7 {
		t.Errorf("unexpected record: %+v", rec)
	}
	if rec.PalletCount != 0 {
		t.Errorf("absent PalletCount should be 0, got %v", rec.PalletCount)
	}

	_, err = ToInventoryRecord(func(col string) string {
		if col == ColSKU {
			return "SKU-2"
		}
		return ""
	}, 8)
	if !errors.Is(err, ErrMissingLocation) {
		t.Fatalf("expected ErrMissingLocation, got %v", err)
	}
}

func TestFileHashAndRowKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.bin")
	if err := os.WriteFile(path, []byte("abc"), 0o644); err != nil {
		t.Fatal(err)
	}
	sum, err := FileHash(path)
	if err != nil {
		t.Fatalf("FileHash: %v", err)
	}
	if sum != "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad" {
		t.Errorf("unexpected sha256: %s", sum)
	}
	if _, err := FileHash(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for missing file")
	}

	a := RowKey("partial", "11400801", "P1")
	b := RowKey("partial", " 11400801", "P1 ")
	c := RowKey("bulk", "11400801", "P1")
	if a != b {
		t.Error("RowKey should ignore surrounding whitespace")
	}
	if a == c {
		t.Error("RowKey should depend on kind")
	}
}

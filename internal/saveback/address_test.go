package saveback

import (
	"errors"
	"testing"

	"form_sheets/internal/rowspec"
)

func TestParseAddressesSingle(t *testing.T) {
	addrs, err := ParseAddresses("last-1x4:total")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(addrs) != 1 {
		t.Fatalf("Expected 1 address, got %d", len(addrs))
	}
	addr := addrs[0]
	if addr.Row.String() != "last-1" || addr.Column != 3 || addr.FieldName != "total" {
		t.Errorf("Unexpected address: row=%q column=%d field=%q", addr.Row, addr.Column, addr.FieldName)
	}
	if addr.Row.Resolve(5) != 3 {
		t.Errorf("Expected row to resolve to 3, got %d", addr.Row.Resolve(5))
	}
}

func TestParseAddressesForms(t *testing.T) {
	tests := []struct {
		raw    string
		row    string
		column int
		field  string
	}{
		{"%last%:5:jumlah_donasi", "%last%", 4, "jumlah_donasi"},
		{" %last% - 1 x 4 : total ", "%last% - 1", 3, "total"},
		{"first+2×1:name", "first+2", 0, "name"},
		{"7X2:literal", "7", 1, "literal"},
	}

	for _, test := range tests {
		addrs, err := ParseAddresses(test.raw)
		if err != nil {
			t.Errorf("ParseAddresses(%q) returned error: %v", test.raw, err)
			continue
		}
		if len(addrs) != 1 {
			t.Errorf("ParseAddresses(%q) expected 1 address, got %d", test.raw, len(addrs))
			continue
		}
		got := addrs[0]
		if got.Row.String() != test.row || got.Column != test.column || got.FieldName != test.field {
			t.Errorf("ParseAddresses(%q) = {%q %d %q}, expected {%q %d %q}",
				test.raw, got.Row, got.Column, got.FieldName, test.row, test.column, test.field)
		}
	}
}

func TestParseAddressesListDropsEmptyFieldNames(t *testing.T) {
	addrs, err := ParseAddresses("%last%-1x4:total, %last%x4:, first:2:\nlast:1:name")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(addrs) != 2 {
		t.Fatalf("Expected 2 addresses, got %d: %+v", len(addrs), addrs)
	}
	if addrs[0].FieldName != "total" || addrs[1].FieldName != "name" {
		t.Errorf("Unexpected fields: %q, %q", addrs[0].FieldName, addrs[1].FieldName)
	}
}

func TestParseAddressesEmpty(t *testing.T) {
	addrs, err := ParseAddresses("  ")
	if err != nil || len(addrs) != 0 {
		t.Errorf("Expected no addresses and no error, got %v, %v", addrs, err)
	}
}

func TestParseAddressesMalformed(t *testing.T) {
	tests := []string{
		"last4:total",
		"last:4",
		"last:4:total:extra",
		"lastxfour:total",
		"lastx0:total",
		"last:-1:total",
		"middlex4:total",
		"last+1-1x4:total",
	}

	for _, raw := range tests {
		_, err := ParseAddresses(raw)
		if !errors.Is(err, ErrMalformedSaveMapping) {
			t.Errorf("ParseAddresses(%q) expected ErrMalformedSaveMapping, got %v", raw, err)
		}
	}

	_, err := ParseAddresses("middlex4:total")
	if !errors.Is(err, rowspec.ErrMalformedRowSpecifier) {
		t.Errorf("Expected row specifier error to be wrapped, got %v", err)
	}
}

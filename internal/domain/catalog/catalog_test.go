package catalog

import (
	"errors"
	"testing"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/kailas-cloud/kitfinder/internal/domain"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"$129.00", "129"},
		{"1,299", "1299"},
		{"$1,234.50", "1234.5"},
		{" $89 ", "89"},
		{"0", "0"},
		{"$12,345,678.99", "12345678.99"},
	}
	for _, tc := range tests {
		got, err := ParsePrice(tc.raw)
		if err != nil {
			t.Errorf("ParsePrice(%q): unexpected error: %v", tc.raw, err)
			continue
		}
		if !got.Equal(decimal.RequireFromString(tc.want)) {
			t.Errorf("ParsePrice(%q) = %s, want %s", tc.raw, got, tc.want)
		}
	}
}

func TestParsePrice_RoundTripTwoDecimals(t *testing.T) {
	for _, cents := range []int64{0, 1, 99, 12345, 123450, 99999999} {
		want := decimal.New(cents, -2)
		raw := "$" + want.StringFixed(2)
		got, err := ParsePrice(raw)
		if err != nil {
			t.Fatalf("ParsePrice(%q): %v", raw, err)
		}
		if !got.Equal(want) {
			t.Errorf("ParsePrice(%q) = %s, want %s", raw, got, want)
		}
	}
}

func TestParsePrice_Malformed(t *testing.T) {
	for _, raw := range []string{"", "$", "free", "$12abc", "-5", ",,"} {
		if _, err := ParsePrice(raw); err == nil {
			t.Errorf("ParsePrice(%q): expected error", raw)
		}
	}
}

func TestFromRecords_MalformedPriceFailsWholeLoad(t *testing.T) {
	records := []Record{
		{Keyboard: "A", Price: "$100"},
		{Keyboard: "B", Price: "call us"},
		{Keyboard: "C", Price: "$300"},
	}

	items, err := FromRecords(records)
	if items != nil {
		t.Errorf("expected no partial catalog, got %d items", len(items))
	}
	if !errors.Is(err, domain.ErrMalformedPrice) {
		t.Fatalf("expected ErrMalformedPrice, got %v", err)
	}
	var mpe *MalformedPriceError
	if !errors.As(err, &mpe) {
		t.Fatalf("expected *MalformedPriceError, got %T", err)
	}
	if mpe.Index != 1 || mpe.Name != "B" {
		t.Errorf("expected record 1 (B), got %d (%s)", mpe.Index, mpe.Name)
	}
}

func TestFromRecords_DuplicateName(t *testing.T) {
	records := []Record{
		{Keyboard: "A", Price: "$100"},
		{Keyboard: "A", Price: "$200"},
	}
	if _, err := FromRecords(records); !errors.Is(err, domain.ErrDuplicateItem) {
		t.Fatalf("expected ErrDuplicateItem, got %v", err)
	}
}

func TestFromRecord_PassesFieldsThrough(t *testing.T) {
	r := &Record{
		Keyboard:      "Tofu60",
		Layout:        "60%",
		MountingStyle: "Tray mount",
		Price:         "$129.00",
		Features:      "hotswap PCB",
		Description:   "aluminium case",
		Colors:        "grey, black",
	}

	item, err := FromRecord(0, r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.Name() != "Tofu60" || item.Layout() != "60%" || item.MountingStyle() != "Tray mount" {
		t.Errorf("unexpected identity fields: %+v", item)
	}
	if item.Features() != "hotswap PCB" || item.Description() != "aluminium case" || item.Colors() != "grey, black" {
		t.Errorf("unexpected text fields: %+v", item)
	}
	if item.Document() != "Tofu60 aluminium case 60% hotswap PCB" {
		t.Errorf("unexpected document text %q", item.Document())
	}
}

func TestRawPrice_UnmarshalStringAndNumber(t *testing.T) {
	var records []Record
	data := `[{"keyboard":"A","price":"$1,099.00"},{"keyboard":"B","price":250},{"keyboard":"C","price":null}]`
	if err := json.Unmarshal([]byte(data), &records); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if records[0].Price != "$1,099.00" {
		t.Errorf("expected string price, got %q", records[0].Price)
	}
	if records[1].Price != "250" {
		t.Errorf("expected numeric price, got %q", records[1].Price)
	}
	if records[2].Price != "" {
		t.Errorf("expected empty price for null, got %q", records[2].Price)
	}
}

package excel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alkana/warehouse-go/internal/domain"
)

func TestNormalizeHeader(t *testing.T) {
	cases := map[string]string{
		"Purch. Order":        "purchorder",
		"  Purch Order  ":     "purchorder",
		"Release date (actual)": "releasedateactual",
		"Qty in Un. of Entry": "qtyinunofentry",
		"G/L Account":         "glaccount",
		"Target > 180 Days":   "target>180days",
		"":                    "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeHeader(in), "header %q", in)
	}
}

func TestCleanCellNullSpellings(t *testing.T) {
	assert.Equal(t, "", CleanCell("nan"))
	assert.Equal(t, "", CleanCell(" NaN "))
	assert.Equal(t, "", CleanCell("None"))
	assert.Equal(t, "", CleanCell("null"))
	assert.Equal(t, "PC", CleanCell(" PC "))
}

func TestFloatDecimalComma(t *testing.T) {
	cases := map[string]float64{
		"1234.5":    1234.5,
		"1234,5":    1234.5,
		"1.234,56":  1234.56,
		"1,234.56":  1234.56,
		"-12,5":     -12.5,
		"0":         0,
	}
	for in, want := range cases {
		got := Float(in)
		require.NotNil(t, got, "value %q", in)
		assert.InDelta(t, want, *got, 1e-9, "value %q", in)
	}
	assert.Nil(t, Float(""))
	assert.Nil(t, Float("nan"))
	assert.Nil(t, Float("abc"))
}

func TestIntTruncatesFloatRendering(t *testing.T) {
	got := Int("1201.0")
	require.NotNil(t, got)
	assert.Equal(t, 1201, *got)
	assert.Nil(t, Int(""))
	assert.Nil(t, Int("plant"))
}

func TestDateLayouts(t *testing.T) {
	for _, in := range []string{
		"2025-03-14 00:00:00",
		"2025-03-14",
		"14.03.2025",
		"14/03/2025",
	} {
		got := Date(in)
		require.NotNil(t, got, "value %q", in)
		assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
			time.Date(got.Year(), got.Month(), got.Day(), 0, 0, 0, 0, time.UTC), "value %q", in)
	}
	assert.Nil(t, Date(""))
	assert.Nil(t, Date("not a date"))
}

func TestStripLeadingZeros(t *testing.T) {
	assert.Equal(t, "1003352", StripLeadingZeros("000000001003352"))
	assert.Equal(t, "0", StripLeadingZeros("0000"))
	assert.Equal(t, "B-0042", StripLeadingZeros("B-0042")) // non-numeric untouched
	assert.Equal(t, "", StripLeadingZeros(""))
}

func TestRowHashStableAndSensitive(t *testing.T) {
	a := domain.Payload{"Order": "1000123", "Batch": "B1"}
	b := domain.Payload{"Batch": "B1", "Order": "1000123"}
	c := domain.Payload{"Order": "1000124", "Batch": "B1"}

	assert.Len(t, RowHash(a), 32)
	assert.Equal(t, RowHash(a), RowHash(b))
	assert.NotEqual(t, RowHash(a), RowHash(c))

	// same content from different files hashes differently
	assert.NotEqual(t, RowHashWithFile(a, "jan.xlsx"), RowHashWithFile(a, "feb.xlsx"))
	assert.NotEqual(t, RowHash(a), RowHashWithFile(a, "jan.xlsx"))
}

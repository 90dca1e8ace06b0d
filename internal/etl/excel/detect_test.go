package excel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alkana/warehouse-go/internal/domain"
)

func TestDetectFromHeaders(t *testing.T) {
	cases := []struct {
		name    string
		headers []string
		want    domain.FileType
	}{
		{
			name:    "production orders",
			headers: []string{"plant", "sales order", "order", "order type", "material number", "batch"},
			want:    domain.FileTypeCooispi,
		},
		{
			name:    "material movements",
			headers: []string{"posting date", "movement type", "plant", "material", "material document"},
			want:    domain.FileTypeMb51,
		},
		{
			name:    "purchase orders",
			headers: []string{"purch. order", "item", "purch.date"},
			want:    domain.FileTypeZrmm024,
		},
		{
			name:    "purchase orders without dot",
			headers: []string{"purch order", "item"},
			want:    domain.FileTypeZrmm024,
		},
		{
			name:    "billing",
			headers: []string{"billing date", "billing document", "billing item"},
			want:    domain.FileTypeZrsd002,
		},
		{
			name:    "delivery",
			headers: []string{"delivery date", "delivery", "sold-to party", "ship-to party"},
			want:    domain.FileTypeZrsd004,
		},
		{
			name:    "material channel master",
			headers: []string{"material code", "mat. description", "distribution channel", "ph 1", "ph 2"},
			want:    domain.FileTypeZrsd006,
		},
		{
			name:    "ar aging",
			headers: []string{"customer name", "salesman name", "total target", "total realization"},
			want:    domain.FileTypeZrfi005,
		},
		{
			name:    "sales target",
			headers: []string{"salesman name", "semester", "year", "target"},
			want:    domain.FileTypeTarget,
		},
		{
			name:    "production performance",
			headers: []string{"process order", "batch", "tonase alkana(0201)", "lossess fg result (kg)"},
			want:    domain.FileTypeZrpp062,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := detectFromHeaders(tc.headers)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDetectUnknownHeaders(t *testing.T) {
	_, err := detectFromHeaders([]string{"foo", "bar", "baz"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownFileType)
	assert.Contains(t, err.Error(), "foo, bar, baz")
}

func TestDetectPriorityOrder(t *testing.T) {
	// a sheet carrying both production and movement markers classifies
	// as production orders because that rule runs first
	got, err := detectFromHeaders([]string{"order", "batch", "material number", "material document", "material"})
	require.NoError(t, err)
	assert.Equal(t, domain.FileTypeCooispi, got)
}

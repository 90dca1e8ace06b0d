package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alkana/warehouse-go/internal/domain"
)

func TestRegistryCoversEveryFileType(t *testing.T) {
	r := NewRegistry(nil)
	for _, ft := range domain.FileTypes() {
		l, ok := r.For(ft)
		require.True(t, ok, "no loader registered for %s", ft)
		assert.Equal(t, ft, l.FileType())
	}
}

func TestRegistryUnknownType(t *testing.T) {
	r := NewRegistry(nil)
	_, ok := r.For(domain.FileType("BOGUS"))
	assert.False(t, ok)
}

func TestStatsTotal(t *testing.T) {
	s := Stats{Loaded: 3, Updated: 2, Skipped: 4, Failed: 1}
	assert.Equal(t, 10, s.Total())
}

func TestAssignedColumnCounts(t *testing.T) {
	// Positional layouts must match the exports exactly; a miscount
	// shifts every column to the right of the mistake.
	assert.Len(t, mb51Columns, 16)
	assert.Len(t, zrsd004Columns, 34)
}

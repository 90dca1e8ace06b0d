package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripOrderRef(t *testing.T) {
	assert.Nil(t, stripOrderRef(nil))

	got := stripOrderRef(strPtr("000001000123"))
	require.NotNil(t, got)
	assert.Equal(t, "1000123", *got, "SAP zero padding is dropped so orders join across sources")
}

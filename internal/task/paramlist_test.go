package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewParamList_RejectsSeparator(t *testing.T) {
	_, err := NewParamList([]string{"ok", "bad,value"})
	assert.Error(t, err)
}

func TestNewParamList_Valid(t *testing.T) {
	pl, err := NewParamList([]string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, pl.List())
}

func TestParseParamList_Empty(t *testing.T) {
	pl := ParseParamList("")
	assert.Empty(t, pl.List())
}

func TestParseParamList_RoundTrip(t *testing.T) {
	pl, err := NewParamList([]string{"alpha", "beta"})
	require.NoError(t, err)
	str := pl.String()
	assert.Equal(t, "alpha,beta", str)

	parsed := ParseParamList(str)
	assert.Equal(t, pl.List(), parsed.List())
}

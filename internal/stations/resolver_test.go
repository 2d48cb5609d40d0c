package stations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	toolerr "railway-gateway/internal/common/errors"
)

func TestResolve_CityExpansionOrder(t *testing.T) {
	d := NewDirectory(nil, nil)

	want := []Code{"NDLS", "ANVT", "DLI", "DEE", "DEC", "SZM"}
	for i := 0; i < 5; i++ {
		got, err := d.Resolve("Delhi")
		require.NoError(t, err)
		assert.Equal(t, want, got, "resolution must be deterministic and ordered")
	}
}

func TestResolve_CaseInsensitiveCity(t *testing.T) {
	d := NewDirectory(nil, nil)

	for _, input := range []string{"delhi", "DELHI", "  Delhi "} {
		got, err := d.Resolve(input)
		require.NoError(t, err)
		assert.Equal(t, Code("NDLS"), got[0], "input %q", input)
	}
}

func TestResolve_CodePassThrough(t *testing.T) {
	d := NewDirectory(nil, nil)

	got, err := d.Resolve("NDLS")
	require.NoError(t, err)
	assert.Equal(t, []Code{"NDLS"}, got)

	// Codes outside every city list still pass through.
	got, err = d.Resolve("HJP")
	require.NoError(t, err)
	assert.Equal(t, []Code{"HJP"}, got)
}

func TestResolve_UnknownName(t *testing.T) {
	d := NewDirectory(nil, nil)

	_, err := d.Resolve("Atlantis")
	require.Error(t, err)

	te, ok := toolerr.AsToolError(err)
	require.True(t, ok)
	assert.Equal(t, toolerr.ErrCodeStationResolutionFailed, te.Code)
	assert.False(t, te.Retryable)
}

func TestResolve_ConfigOverrideReplacesList(t *testing.T) {
	d := NewDirectory(map[string][]string{
		"delhi":  {"NDLS", "ANVT"},
		"indore": {"INDB"},
	}, []string{"KGP"})

	got, err := d.Resolve("Delhi")
	require.NoError(t, err)
	assert.Equal(t, []Code{"NDLS", "ANVT"}, got)

	got, err = d.Resolve("Indore")
	require.NoError(t, err)
	assert.Equal(t, []Code{"INDB"}, got)

	assert.True(t, d.IsCode("KGP"))
}

func TestResolveFirst(t *testing.T) {
	d := NewDirectory(nil, nil)

	code, err := d.ResolveFirst("Mumbai")
	require.NoError(t, err)
	assert.Equal(t, Code("CSMT"), code)

	_, err = d.ResolveFirst("Atlantis")
	assert.Error(t, err)
}

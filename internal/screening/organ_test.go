package screening

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSuggestOrgan(t *testing.T) {
	got, ok := SuggestOrgan("Livr", KnownOrgans)
	require.True(t, ok)
	require.Equal(t, "Liver", got)

	got, ok = SuggestOrgan("  kidny ", KnownOrgans)
	require.True(t, ok)
	require.Equal(t, "Kidney", got)

	_, ok = SuggestOrgan("liver", KnownOrgans)
	require.False(t, ok, "exact match needs no hint")

	_, ok = SuggestOrgan("", KnownOrgans)
	require.False(t, ok)

	_, ok = SuggestOrgan("mediastinum", KnownOrgans)
	require.False(t, ok)
}

package screening

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	require.Equal(t, 2, c.Len())
	require.Equal(t, "SR", c.Default().Tag)

	jr, ok := c.Tier("jr")
	require.True(t, ok)
	require.Equal(t, "JR PathoAI", jr.Variant.Title)
	require.Equal(t, 1, jr.Quota.Used())
	require.Equal(t, 7, jr.Quota.Limit())
	require.Equal(t, 0, c.Index("JR"))
	require.Equal(t, -1, c.Index("XX"))
}

func TestNewCatalogExtendsTiers(t *testing.T) {
	q, err := NewQuota(0, 5)
	require.NoError(t, err)
	c, err := NewCatalog([]Tier{
		{Variant: Variant{Tag: "jr"}, Quota: q},
		{Variant: Variant{Tag: "sr"}, Quota: q},
		{Variant: Variant{Tag: " att ", Title: "Attending"}, Quota: q},
	}, "")
	require.NoError(t, err)
	require.Equal(t, "JR", c.Default().Tag)
	v, ok := c.Lookup("ATT")
	require.True(t, ok)
	require.Equal(t, "Attending", v.Title)
	v, _ = c.Lookup("sr")
	require.Equal(t, "SR", v.Title)
}

func TestNewCatalogRejects(t *testing.T) {
	q, _ := NewQuota(0, 1)
	_, err := NewCatalog(nil, "")
	require.Error(t, err)
	_, err = NewCatalog([]Tier{{Variant: Variant{Tag: "A"}, Quota: q}, {Variant: Variant{Tag: "a"}, Quota: q}}, "")
	require.ErrorContains(t, err, "duplicate")
	_, err = NewCatalog([]Tier{{Variant: Variant{Tag: "A"}}}, "")
	require.ErrorIs(t, err, ErrInvalidQuota)
	_, err = NewCatalog([]Tier{{Variant: Variant{Tag: "A"}, Quota: q}}, "B")
	require.Error(t, err)
}

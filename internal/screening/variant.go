package screening

import (
	"fmt"
	"strings"
)

// Variant is one selectable model tier. Tag is the value sent on the wire.
type Variant struct {
	Tag         string
	Title       string
	Description string
}

// Tier pairs a variant with its daily quota as loaded at startup.
type Tier struct {
	Variant Variant
	Quota   Quota
}

// Catalog is the ordered, closed set of variants offered on the screen.
type Catalog struct {
	tiers      []Tier
	defaultTag string
}

// NewCatalog validates tiers and the default tag. Tags are matched case-insensitively
// and stored upper-case.
func NewCatalog(tiers []Tier, defaultTag string) (Catalog, error) {
	if len(tiers) == 0 {
		return Catalog{}, fmt.Errorf("catalog: no variants")
	}
	seen := make(map[string]struct{}, len(tiers))
	out := make([]Tier, 0, len(tiers))
	for _, t := range tiers {
		tag := normTag(t.Variant.Tag)
		if tag == "" {
			return Catalog{}, fmt.Errorf("catalog: variant %q has empty tag", t.Variant.Title)
		}
		if _, dup := seen[tag]; dup {
			return Catalog{}, fmt.Errorf("catalog: duplicate variant %s", tag)
		}
		if t.Quota.Limit() <= 0 {
			return Catalog{}, fmt.Errorf("catalog: variant %s: %w", tag, ErrInvalidQuota)
		}
		seen[tag] = struct{}{}
		t.Variant.Tag = tag
		if t.Variant.Title == "" {
			t.Variant.Title = tag
		}
		out = append(out, t)
	}
	def := normTag(defaultTag)
	if def == "" {
		def = out[0].Variant.Tag
	}
	if _, ok := seen[def]; !ok {
		return Catalog{}, fmt.Errorf("catalog: default variant %s not in catalog", def)
	}
	return Catalog{tiers: out, defaultTag: def}, nil
}

// DefaultCatalog is the built-in junior/senior pair.
func DefaultCatalog() Catalog {
	c, err := NewCatalog([]Tier{
		{
			Variant: Variant{Tag: "JR", Title: "JR PathoAI", Description: "For junior residents"},
			Quota:   mustQuota(1, 7),
		},
		{
			Variant: Variant{Tag: "SR", Title: "SR PathoAI", Description: "For senior residents"},
			Quota:   mustQuota(2, 3),
		},
	}, "SR")
	if err != nil {
		panic(err)
	}
	return c
}

// Tiers returns a copy of the catalogue in display order.
func (c Catalog) Tiers() []Tier {
	out := make([]Tier, len(c.tiers))
	copy(out, c.tiers)
	return out
}

func (c Catalog) Len() int { return len(c.tiers) }

// Default returns the variant selected on a fresh screen.
func (c Catalog) Default() Variant {
	v, _ := c.Lookup(c.defaultTag)
	return v
}

// Lookup finds a variant by tag.
func (c Catalog) Lookup(tag string) (Variant, bool) {
	t, ok := c.Tier(tag)
	return t.Variant, ok
}

// Tier finds the tier for a tag.
func (c Catalog) Tier(tag string) (Tier, bool) {
	tag = normTag(tag)
	for _, t := range c.tiers {
		if t.Variant.Tag == tag {
			return t, true
		}
	}
	return Tier{}, false
}

// Index returns the display position of tag, or -1.
func (c Catalog) Index(tag string) int {
	tag = normTag(tag)
	for i, t := range c.tiers {
		if t.Variant.Tag == tag {
			return i
		}
	}
	return -1
}

func normTag(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Package catalog loads the variant catalogue from a TOML file.
//
// A missing file means the built-in junior/senior pair. Usage counters in the
// file are what the screen shows; nothing here writes them back.
package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jask/pathoscreen/internal/screening"
)

type VariantConfig struct {
	Tag         string `toml:"tag"`
	Title       string `toml:"title"`
	Description string `toml:"description"`
	Used        int    `toml:"used"`
	Limit       int    `toml:"limit"`
}

type File struct {
	Version int             `toml:"version"`
	Default string          `toml:"default"`
	Variant []VariantConfig `toml:"variant"`
}

// Load reads path. An empty path or a missing file yields the default catalogue.
func Load(path string) (screening.Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return screening.DefaultCatalog(), nil
	}
	var f File
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return screening.DefaultCatalog(), nil
		}
		return screening.Catalog{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return screening.Catalog{}, fmt.Errorf("parse %s: unknown key %s", path, undecoded[0])
	}
	c, err := Build(f)
	if err != nil {
		return screening.Catalog{}, fmt.Errorf("validate %s: %w", path, err)
	}
	return c, nil
}

// Build validates decoded variants into a catalogue.
func Build(f File) (screening.Catalog, error) {
	if f.Version > 1 {
		return screening.Catalog{}, fmt.Errorf("unsupported catalog version %d", f.Version)
	}
	tiers := make([]screening.Tier, 0, len(f.Variant))
	for i, v := range f.Variant {
		q, err := screening.NewQuota(v.Used, v.Limit)
		if err != nil {
			return screening.Catalog{}, fmt.Errorf("variant %d (%s): %w", i, v.Tag, err)
		}
		tiers = append(tiers, screening.Tier{
			Variant: screening.Variant{Tag: v.Tag, Title: v.Title, Description: v.Description},
			Quota:   q,
		})
	}
	return screening.NewCatalog(tiers, f.Default)
}

// Render writes a catalogue back as TOML. The init command scaffolds the variants file with it.
func Render(c screening.Catalog) (string, error) {
	f := File{Version: 1, Default: c.Default().Tag}
	for _, t := range c.Tiers() {
		f.Variant = append(f.Variant, VariantConfig{
			Tag:         t.Variant.Tag,
			Title:       t.Variant.Title,
			Description: t.Variant.Description,
			Used:        t.Quota.Used(),
			Limit:       t.Quota.Limit(),
		})
	}
	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(f); err != nil {
		return "", err
	}
	return b.String(), nil
}

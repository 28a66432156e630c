package images

import (
	"sort"

	"github.com/angelmondragon/fridge-monitor/pkg/validators"
)

var assets = map[string]string{
	"asian pear":  "/images/asian-pear.png",
	"cucumber":    "/images/cucumber.png",
	"eggs":        "/images/eggs.png",
	"leafy green": "/images/leafy-green.png",
	"leftovers":   "/images/leftovers.png",
	"orange":      "/images/orange.png",
	"sauce":       "/images/sauce.png",
	"soda":        "/images/soda.png",
	"tomato":      "/images/tomato.png",
}

// Lookup returns the asset path for a label or category, case-insensitive.
func Lookup(labelOrCategory string) (string, bool) {
	path, ok := assets[validators.NormalizeLabel(labelOrCategory)]
	return path, ok
}

// Entry is one row of the asset table.
type Entry struct {
	Key  string `json:"key"`
	Path string `json:"path"`
}

// List returns the whole table sorted by key.
func List() []Entry {
	out := make([]Entry, 0, len(assets))
	for key, path := range assets {
		out = append(out, Entry{Key: key, Path: path})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

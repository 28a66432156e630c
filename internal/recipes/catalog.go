package recipes

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	pkgerrors "github.com/angelmondragon/fridge-monitor/pkg/errors"
	"github.com/angelmondragon/fridge-monitor/pkg/validators"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Macros are per-serving nutrition totals for a recipe or a target.
type Macros struct {
	Calories float64 `json:"calories" yaml:"calories" validate:"gte=0"`
	Protein  float64 `json:"protein" yaml:"protein" validate:"gte=0"`
	Carbs    float64 `json:"carbs" yaml:"carbs" validate:"gte=0"`
	Fat      float64 `json:"fat" yaml:"fat" validate:"gte=0"`
}

// Recipe is immutable once a catalog is built.
type Recipe struct {
	ID          string   `json:"id" yaml:"id" validate:"required"`
	Name        string   `json:"name" yaml:"name" validate:"required"`
	Ingredients []string `json:"ingredients" yaml:"ingredients" validate:"required,min=1,dive,required"`
	Macros      Macros   `json:"macros" yaml:"macros"`
	Steps       []string `json:"steps" yaml:"steps" validate:"dive,required"`
}

type catalogFile struct {
	Recipes []Recipe `yaml:"recipes" validate:"required,min=1,dive"`
}

// Catalog is an ordered, read-only recipe list.
type Catalog struct {
	recipes []Recipe
}

// NewCatalog validates recipes and keeps them in the given order.
func NewCatalog(recipes []Recipe) (*Catalog, error) {
	file := catalogFile{Recipes: recipes}
	if err := validators.Struct(&file); err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(recipes))
	out := make([]Recipe, 0, len(recipes))
	for _, r := range recipes {
		if _, dup := seen[r.ID]; dup {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "duplicate recipe id").
				WithDetails(map[string]any{"id": r.ID})
		}
		seen[r.ID] = struct{}{}
		out = append(out, r.clone())
	}
	return &Catalog{recipes: out}, nil
}

// DefaultCatalog returns the built-in five-recipe catalog.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(bytes.NewReader(defaultCatalog))
}

// LoadCatalog reads a YAML catalog from path, or the built-in one when path
// is empty.
func LoadCatalog(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultCatalog()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "open recipe catalog").
			WithDetails(map[string]any{"path": path})
	}
	defer f.Close()
	return ParseCatalog(f)
}

// ParseCatalog decodes a YAML catalog with a top-level "recipes" list.
// Unknown keys are rejected.
func ParseCatalog(r io.Reader) (*Catalog, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	var file catalogFile
	if err := decoder.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipe catalog is empty")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid recipe catalog")
	}
	return NewCatalog(file.Recipes)
}

// Recipes returns the catalog in order.
func (c *Catalog) Recipes() []Recipe {
	out := make([]Recipe, len(c.recipes))
	for i, r := range c.recipes {
		out[i] = r.clone()
	}
	return out
}

// Get returns the recipe with id.
func (c *Catalog) Get(id string) (Recipe, error) {
	for _, r := range c.recipes {
		if r.ID == id {
			return r.clone(), nil
		}
	}
	return Recipe{}, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("recipe %q not found", id))
}

func (r Recipe) clone() Recipe {
	r.Ingredients = append([]string(nil), r.Ingredients...)
	r.Steps = append([]string(nil), r.Steps...)
	return r
}

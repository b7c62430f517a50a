package metadata

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed catalog_default.yaml
var defaultCatalogYAML []byte

var validate = validator.New()

// DefaultCatalog returns the built-in member field catalog.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalogYAML)
}

// LoadCatalogFile reads and validates a YAML catalog.
func LoadCatalogFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes a YAML catalog and validates it.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.Prepare(); err != nil {
		return nil, err
	}
	return &c, nil
}

// NewCatalog builds a validated catalog from Go values.
func NewCatalog(fields []FieldDefinition, contexts []Context) (*Catalog, error) {
	c := &Catalog{Fields: fields, Contexts: contexts}
	if err := c.Prepare(); err != nil {
		return nil, err
	}
	return c, nil
}

// Prepare applies defaults, validates the catalog and builds its lookup
// indexes. It must run before the catalog is used.
func (c *Catalog) Prepare() error {
	c.applyDefaults()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid catalog: %w", err)
	}
	if err := c.checkReferences(); err != nil {
		return fmt.Errorf("invalid catalog: %w", err)
	}
	c.buildIndex()
	return nil
}

func (c *Catalog) checkReferences() error {
	var errs []error

	keys := make(map[string]struct{}, len(c.Fields))
	for _, f := range c.Fields {
		if _, dup := keys[f.Key]; dup {
			errs = append(errs, fmt.Errorf("duplicate field %q", f.Key))
		}
		keys[f.Key] = struct{}{}

		for _, r := range append(append([]ConditionalRule{}, f.ShowWhen...), f.HideWhen...) {
			if err := checkRule(f.Key, r); err != nil {
				errs = append(errs, err)
			}
		}
		if f.ConditionalEdit != nil {
			if err := checkRule(f.Key, f.ConditionalEdit.Condition); err != nil {
				errs = append(errs, err)
			}
		}
	}

	names := make(map[string]struct{}, len(c.Contexts))
	for _, ctx := range c.Contexts {
		if _, dup := names[ctx.Name]; dup {
			errs = append(errs, fmt.Errorf("duplicate context %q", ctx.Name))
		}
		names[ctx.Name] = struct{}{}

		for _, key := range ctx.FieldKeys() {
			if _, ok := keys[key]; !ok {
				errs = append(errs, fmt.Errorf("context %q references unknown field %q", ctx.Name, key))
			}
		}
	}

	return errors.Join(errs...)
}

func checkRule(field string, r ConditionalRule) error {
	if r.Expression != "" {
		return nil
	}
	if r.Operator == "" || r.Field == "" {
		return fmt.Errorf("field %q: rule needs field and operator, or an expression", field)
	}
	return nil
}

package fields

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// Entry is the catalog definition of a single field.
type Entry struct {
	Question    string   `yaml:"question"`
	Kind        Kind     `yaml:"kind"`
	Options     []string `yaml:"options"`
	AllowCustom *bool    `yaml:"allowCustom"`
	MinLength   int      `yaml:"minLength"`
}

// Catalog maps field ids to their questions and options.
type Catalog struct {
	Fields map[string]Entry `yaml:"fields"`
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() *Catalog {
	c, err := parseCatalog(defaultCatalogYAML)
	if err != nil {
		panic(fmt.Sprintf("fields: embedded catalog: %v", err))
	}
	return c
}

// LoadCatalog returns the built-in catalog overlaid with the entries in the
// YAML file at path. An empty path returns the built-in catalog.
func LoadCatalog(path string) (*Catalog, error) {
	base := DefaultCatalog()
	if path == "" {
		return base, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	override, err := parseCatalog(raw)
	if err != nil {
		return nil, fmt.Errorf("catalog: %s: %w", path, err)
	}
	base.Overlay(override)
	return base, nil
}

// LoadCatalogBytes overlays the YAML in data on the built-in catalog.
func LoadCatalogBytes(data []byte) (*Catalog, error) {
	override, err := parseCatalog(data)
	if err != nil {
		return nil, err
	}
	base := DefaultCatalog()
	base.Overlay(override)
	return base, nil
}

func parseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if c.Fields == nil {
		c.Fields = make(map[string]Entry)
	}
	for id, e := range c.Fields {
		switch e.Kind {
		case "", KindText, KindSingle, KindMulti, KindList, KindBudget, KindName, KindCompany:
		default:
			return nil, fmt.Errorf("field %q: unknown kind %q", id, e.Kind)
		}
	}
	return &c, nil
}

// Overlay replaces, per field, every value set in o.
func (c *Catalog) Overlay(o *Catalog) {
	for id, e := range o.Fields {
		cur := c.Fields[id]
		if e.Question != "" {
			cur.Question = e.Question
		}
		if e.Kind != "" {
			cur.Kind = e.Kind
		}
		if e.Options != nil {
			cur.Options = e.Options
		}
		if e.AllowCustom != nil {
			cur.AllowCustom = e.AllowCustom
		}
		if e.MinLength > 0 {
			cur.MinLength = e.MinLength
		}
		c.Fields[id] = cur
	}
}

// Descriptor builds the descriptor for id. Unknown ids produce a free-text
// descriptor asking for the field by name.
func (c *Catalog) Descriptor(id string) Descriptor {
	e, ok := c.Fields[id]
	if !ok {
		e = Entry{Question: fmt.Sprintf("Could you tell me about the %s?", id), Kind: KindText}
	}
	kind := e.Kind
	if kind == "" {
		kind = KindText
	}
	allowCustom := true
	if e.AllowCustom != nil {
		allowCustom = *e.AllowCustom
	}
	return Descriptor{
		ID:            id,
		Question:      strings.TrimSpace(e.Question),
		Options:       append([]string(nil), e.Options...),
		AllowCustom:   allowCustom,
		Kind:          kind,
		MinLength:     e.MinLength,
		RemoteHandled: IsRemoteHandled(id),
	}
}

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} with the environment value; missing
// variables expand to "".
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})
}

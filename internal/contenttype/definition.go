// Package contenttype rebuilds score content types from field-group
// definition files.
package contenttype

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/openjobspec/wp2ctf/internal/contentful"
)

// MaxLength is the longest id or label Contentful accepts for a field.
const MaxLength = 50

// Field is one scored field of a group.
type Field struct {
	ID    string `yaml:"id" json:"id"`
	Label string `yaml:"label" json:"label"`
}

// Group becomes one content type: its id is the content type id and its
// label the display name.
type Group struct {
	ID    string  `yaml:"id" json:"id"`
	Label string  `yaml:"label" json:"label"`
	Data  []Field `yaml:"data" json:"data"`
}

// Definition is the contents of a <type>_formatted file.
type Definition struct {
	Groups []Group `yaml:"groups" json:"groups"`
}

var extensions = []string{".json", ".yaml", ".yml"}

// Load reads the first of base.json, base.yaml and base.yml that exists.
func Load(base string) (*Definition, string, error) {
	for _, ext := range extensions {
		path := base + ext
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, path, fmt.Errorf("read field groups: %w", err)
		}
		def, err := Parse(data)
		if err != nil {
			return nil, path, fmt.Errorf("parse %s: %w", path, err)
		}
		return def, path, nil
	}
	return nil, "", fmt.Errorf("no field groups found at %s{.json,.yaml,.yml}", base)
}

// Parse decodes a definition. JSON input is accepted as YAML.
func Parse(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, err
	}
	return &def, nil
}

// Validate reports every group or field that Contentful would reject.
func (d *Definition) Validate() error {
	var errs []error
	if len(d.Groups) == 0 {
		errs = append(errs, errors.New("no groups defined"))
	}
	for i, g := range d.Groups {
		if g.ID == "" {
			errs = append(errs, fmt.Errorf("group %d: missing id", i))
		}
		for _, f := range g.Data {
			if n := utf8.RuneCountInString(f.ID); n > MaxLength {
				errs = append(errs, fmt.Errorf("group %s: id too long: %s - length: %d", g.ID, f.ID, n))
			}
			if n := utf8.RuneCountInString(f.Label); n > MaxLength {
				errs = append(errs, fmt.Errorf("group %s: label too long: %s - length: %d", g.ID, f.Label, n))
			}
		}
	}
	return errors.Join(errs...)
}

// Fields returns the content type fields for g: optional localized integers.
func (g Group) Fields() []contentful.ContentTypeField {
	fields := make([]contentful.ContentTypeField, 0, len(g.Data))
	for _, f := range g.Data {
		fields = append(fields, contentful.ContentTypeField{
			ID:          f.ID,
			Name:        f.Label,
			Type:        "Integer",
			Localized:   true,
			Validations: []any{},
		})
	}
	return fields
}

package regions

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidTemplate is returned when a template fails validation.
var ErrInvalidTemplate = errors.New("invalid region template")

// Well-known region names of the default grade sheet layout.
const (
	NameRegion  = "name"
	IDRegion    = "id"
	GradeRegion = "grade"
)

// fracTolerance absorbs float error so 0.7*30 truncates to 21, not 20.
const fracTolerance = 1e-9

// Fraction is a rectangle expressed as fractions of the image width and height.
type Fraction struct {
	Left   float64 `yaml:"left" json:"left"`
	Top    float64 `yaml:"top" json:"top"`
	Right  float64 `yaml:"right" json:"right"`
	Bottom float64 `yaml:"bottom" json:"bottom"`
}

// Apply scales the fraction to a width x height image.
func (f Fraction) Apply(width, height int) Region {
	return Region{
		Left:   scale(f.Left, width),
		Top:    scale(f.Top, height),
		Right:  scale(f.Right, width),
		Bottom: scale(f.Bottom, height),
	}
}

func scale(f float64, dim int) int {
	return int(math.Floor(f*float64(dim) + fracTolerance))
}

// Entry is one named region of a template.
type Entry struct {
	Name     string `yaml:"name" json:"name"`
	Fraction `yaml:",inline"`
}

// Template is an ordered set of named regions for one document layout.
type Template struct {
	Regions []Entry `yaml:"regions" json:"regions"`
}

// DefaultTemplate is the grade sheet layout: name top-left, ID top-right,
// grade bottom-right.
func DefaultTemplate() Template {
	return Template{Regions: []Entry{
		{Name: NameRegion, Fraction: Fraction{Left: 0, Top: 0, Right: 0.5, Bottom: 0.10}},
		{Name: IDRegion, Fraction: Fraction{Left: 0.7, Top: 0, Right: 1.0, Bottom: 0.15}},
		{Name: GradeRegion, Fraction: Fraction{Left: 0.8, Top: 0.85, Right: 1.0, Bottom: 1.0}},
	}}
}

// Lookup returns the entry called name.
func (t Template) Lookup(name string) (Entry, bool) {
	for _, e := range t.Regions {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Region computes a single named region for a width x height image.
func (t Template) Region(name string, width, height int) (Region, bool) {
	e, ok := t.Lookup(name)
	if !ok {
		return Region{}, false
	}
	return e.Fraction.Apply(width, height), true
}

// Names lists region names in template order.
func (t Template) Names() []string {
	out := make([]string, len(t.Regions))
	for i, e := range t.Regions {
		out[i] = e.Name
	}
	return out
}

// Validate checks bounds and name uniqueness.
func (t Template) Validate() error {
	if len(t.Regions) == 0 {
		return fmt.Errorf("%w: no regions", ErrInvalidTemplate)
	}
	seen := make(map[string]struct{}, len(t.Regions))
	for i, e := range t.Regions {
		if e.Name == "" {
			return fmt.Errorf("%w: region %d has no name", ErrInvalidTemplate, i)
		}
		if _, dup := seen[e.Name]; dup {
			return fmt.Errorf("%w: duplicate region %q", ErrInvalidTemplate, e.Name)
		}
		seen[e.Name] = struct{}{}
		for _, v := range []float64{e.Left, e.Top, e.Right, e.Bottom} {
			if v < 0 || v > 1 || math.IsNaN(v) {
				return fmt.Errorf("%w: region %q fraction %v outside [0,1]", ErrInvalidTemplate, e.Name, v)
			}
		}
		if e.Left >= e.Right || e.Top >= e.Bottom {
			return fmt.Errorf("%w: region %q has no area", ErrInvalidTemplate, e.Name)
		}
	}
	return nil
}

// ParseTemplate decodes and validates a YAML template.
func ParseTemplate(data []byte) (Template, error) {
	var t Template
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Template{}, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}
	if err := t.Validate(); err != nil {
		return Template{}, err
	}
	return t, nil
}

// LoadTemplate reads a YAML template file. An empty path yields DefaultTemplate.
func LoadTemplate(path string) (Template, error) {
	if path == "" {
		return DefaultTemplate(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Template{}, fmt.Errorf("read template: %w", err)
	}
	return ParseTemplate(data)
}

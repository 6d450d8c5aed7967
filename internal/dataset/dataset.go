// Package dataset loads and validates the static geometry behind the public
// map: area polygons, flow points and TJSL points of interest.
package dataset

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/petrogas-holding/corpsite/internal/geo"
)

//go:embed default.yaml
var defaultYAML []byte

// ErrNotFound is returned by Find when no feature matches.
var ErrNotFound = eris.New("dataset: feature not found")

// Dataset is the immutable per-load collection of map features.
type Dataset struct {
	Areas []geo.AreaFeature     `yaml:"areas"`
	Flows []geo.FlowPoint       `yaml:"flows"`
	POIs  []geo.PointOfInterest `yaml:"pois"`
}

// Default returns the built-in dataset.
func Default() (*Dataset, error) {
	return Parse(defaultYAML)
}

// Load reads a dataset from a YAML file.
func Load(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: read %s", path)
	}
	return Parse(data)
}

// Parse decodes a YAML dataset and assigns indexes and stable keys.
func Parse(data []byte) (*Dataset, error) {
	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, eris.Wrap(err, "dataset: parse yaml")
	}
	ds.index()
	return &ds, nil
}

// index stamps source-order positions and content-derived keys on every item.
func (d *Dataset) index() {
	for i := range d.Areas {
		a := &d.Areas[i]
		a.Index = i
		a.Key = geo.StableKey(geo.TypeArea, a.Name, a.Ring()...)
	}
	for i := range d.Flows {
		f := &d.Flows[i]
		f.Index = i
		f.Key = geo.StableKey(geo.TypeFlow, f.ID+"/"+f.Name, f.Position)
	}
	for i := range d.POIs {
		p := &d.POIs[i]
		p.Index = i
		p.Key = geo.StableKey(geo.TypeTJSL, p.Name, p.Position)
	}
}

// Validate checks every feature and reports all violations together.
func (d *Dataset) Validate() error {
	var errs []string
	for i := range d.Areas {
		if err := d.Areas[i].Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("area %d (%s): %v", i+1, d.Areas[i].Name, err))
		}
	}
	for i := range d.Flows {
		if err := d.Flows[i].Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("flow point %d (%s): %v", i+1, d.Flows[i].Name, err))
		}
	}
	for i := range d.POIs {
		if err := d.POIs[i].Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("tjsl point %d (%s): %v", i+1, d.POIs[i].Name, err))
		}
	}
	seen := make(map[string]string)
	for _, f := range d.Features() {
		if prev, ok := seen[f.FeatureKey()]; ok {
			errs = append(errs, fmt.Sprintf("%s %s duplicates %s", f.FeatureType(), f.Label(), prev))
			continue
		}
		seen[f.FeatureKey()] = string(f.FeatureType()) + " " + f.Label()
	}
	if len(errs) > 0 {
		return eris.Errorf("dataset: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Features returns every feature in type order (areas, flows, points).
func (d *Dataset) Features() []geo.Feature {
	out := make([]geo.Feature, 0, len(d.Areas)+len(d.Flows)+len(d.POIs))
	for i := range d.Areas {
		out = append(out, &d.Areas[i])
	}
	for i := range d.Flows {
		out = append(out, &d.Flows[i])
	}
	for i := range d.POIs {
		out = append(out, &d.POIs[i])
	}
	return out
}

// Find looks up a feature by type and key.
func (d *Dataset) Find(t geo.FeatureType, key string) (geo.Feature, error) {
	switch t {
	case geo.TypeArea:
		for i := range d.Areas {
			if d.Areas[i].Key == key {
				return &d.Areas[i], nil
			}
		}
	case geo.TypeFlow:
		for i := range d.Flows {
			if d.Flows[i].Key == key {
				return &d.Flows[i], nil
			}
		}
	case geo.TypeTJSL:
		for i := range d.POIs {
			if d.POIs[i].Key == key {
				return &d.POIs[i], nil
			}
		}
	}
	return nil, ErrNotFound
}

// Counts summarises the dataset size per feature type.
func (d *Dataset) Counts() map[geo.FeatureType]int {
	return map[geo.FeatureType]int{
		geo.TypeArea: len(d.Areas),
		geo.TypeFlow: len(d.Flows),
		geo.TypeTJSL: len(d.POIs),
	}
}

// WriteYAML encodes the dataset in the same format Load reads.
func (d *Dataset) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return eris.Wrap(err, "dataset: encode yaml")
	}
	return eris.Wrap(enc.Close(), "dataset: flush yaml")
}

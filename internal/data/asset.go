package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ModelAsset is a model with its materials and animation channels.
type ModelAsset struct {
	Name      string             `yaml:"name"`
	Materials []string           `yaml:"materials"`
	Channels  []AnimationChannel `yaml:"animations"`
}

// AnimationChannel is keyframe data for one node. Exactly one of
// Translations, Rotations or Scales carries the values.
type AnimationChannel struct {
	TargetNode    int32        `yaml:"target_node"`
	Interpolation string       `yaml:"interpolation"` // linear, step, cubic_spline
	Times         []float64    `yaml:"times"`
	Translations  [][3]float64 `yaml:"translations"`
	Rotations     [][4]float64 `yaml:"rotations"`
	Scales        [][3]float64 `yaml:"scales"`
}

type TextureAsset struct {
	Name string `yaml:"name"`
}

type assetFile struct {
	Models   []ModelAsset   `yaml:"models"`
	Textures []TextureAsset `yaml:"textures"`
}

// Interpolations lists the accepted interpolation names in ordinal order.
var Interpolations = []string{"linear", "step", "cubic_spline"}

// InterpolationOrdinal returns the ordinal of an interpolation name. An empty
// name means linear.
func InterpolationOrdinal(name string) int {
	if name == "" {
		return 0
	}
	return indexOf(Interpolations, name)
}

// AssetTable holds the session's models and textures indexed by name.
type AssetTable struct {
	models   map[string]*ModelAsset
	textures map[string]*TextureAsset
	order    []string
}

// LoadAssetTable loads assets.yaml.
func LoadAssetTable(path string) (*AssetTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read assets: %w", err)
	}
	var f assetFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse assets: %w", err)
	}
	t := &AssetTable{
		models:   make(map[string]*ModelAsset, len(f.Models)),
		textures: make(map[string]*TextureAsset, len(f.Textures)),
	}
	for i := range f.Models {
		m := &f.Models[i]
		if err := m.validate(); err != nil {
			return nil, err
		}
		if _, dup := t.models[m.Name]; dup {
			return nil, fmt.Errorf("duplicate model %q", m.Name)
		}
		t.models[m.Name] = m
		t.order = append(t.order, m.Name)
	}
	for i := range f.Textures {
		tx := &f.Textures[i]
		if _, dup := t.textures[tx.Name]; dup {
			return nil, fmt.Errorf("duplicate texture %q", tx.Name)
		}
		t.textures[tx.Name] = tx
		t.order = append(t.order, tx.Name)
	}
	return t, nil
}

func (m *ModelAsset) validate() error {
	for i, c := range m.Channels {
		if InterpolationOrdinal(c.Interpolation) < 0 {
			return fmt.Errorf("model %q channel %d: unknown interpolation %q", m.Name, i, c.Interpolation)
		}
		kinds := 0
		n := 0
		if len(c.Translations) > 0 {
			kinds, n = kinds+1, len(c.Translations)
		}
		if len(c.Rotations) > 0 {
			kinds, n = kinds+1, len(c.Rotations)
		}
		if len(c.Scales) > 0 {
			kinds, n = kinds+1, len(c.Scales)
		}
		if kinds != 1 {
			return fmt.Errorf("model %q channel %d: exactly one of translations, rotations or scales required", m.Name, i)
		}
		if n != len(c.Times) {
			return fmt.Errorf("model %q channel %d: %d keyframes for %d times", m.Name, i, n, len(c.Times))
		}
	}
	return nil
}

// Model returns the named model, or nil if none.
func (t *AssetTable) Model(name string) *ModelAsset {
	return t.models[name]
}

// Texture returns the named texture, or nil if none.
func (t *AssetTable) Texture(name string) *TextureAsset {
	return t.textures[name]
}

// Names returns models then textures in file order.
func (t *AssetTable) Names() []string {
	return t.order
}

// Count returns the total number of assets loaded.
func (t *AssetTable) Count() int {
	return len(t.models) + len(t.textures)
}

package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TagEntry binds a tag to the scripts instantiated for it, in order.
type TagEntry struct {
	Tag     string   `yaml:"tag"`
	Scripts []string `yaml:"scripts"`
}

type scriptManifestFile struct {
	Tags []TagEntry `yaml:"tags"`
}

// ScriptManifest is the tag to script lookup table.
type ScriptManifest struct {
	entries map[string]*TagEntry
	order   []string
}

// LoadScriptManifest loads scripts.yaml.
func LoadScriptManifest(path string) (*ScriptManifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script manifest: %w", err)
	}
	return ParseScriptManifest(raw)
}

// ParseScriptManifest parses manifest bytes already in memory.
func ParseScriptManifest(raw []byte) (*ScriptManifest, error) {
	var f scriptManifestFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse script manifest: %w", err)
	}
	m := &ScriptManifest{entries: make(map[string]*TagEntry, len(f.Tags))}
	for i := range f.Tags {
		e := &f.Tags[i]
		if e.Tag == "" {
			return nil, fmt.Errorf("script manifest entry %d: empty tag", i)
		}
		if _, dup := m.entries[e.Tag]; dup {
			return nil, fmt.Errorf("script manifest: duplicate tag %q", e.Tag)
		}
		m.entries[e.Tag] = e
		m.order = append(m.order, e.Tag)
	}
	return m, nil
}

// Scripts returns the scripts bound to tag, or nil if the tag is unknown.
func (m *ScriptManifest) Scripts(tag string) []string {
	if e := m.entries[tag]; e != nil {
		return e.Scripts
	}
	return nil
}

// Has reports whether tag is declared.
func (m *ScriptManifest) Has(tag string) bool {
	_, ok := m.entries[tag]
	return ok
}

// Tags returns the declared tags in file order.
func (m *ScriptManifest) Tags() []string {
	return m.order
}

// Count returns the number of declared tags.
func (m *ScriptManifest) Count() int {
	return len(m.entries)
}

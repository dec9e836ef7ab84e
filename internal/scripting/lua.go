package scripting

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dropbear/bridge/internal/data"
	"github.com/yuin/gopher-lua/parse"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// LuaRegistry builds one Lua VM per script listed for a tag in the YAML
// script manifest. Sources are read and syntax-checked up front, and a
// registry never changes after construction: Reload returns a new one, so a
// broken edit is rejected before any running instance is discarded.
type LuaRegistry struct {
	manifestPath string
	dir          string
	log          *zap.Logger

	manifest *data.ScriptManifest
	sources  map[string][]byte
	source   []byte
}

// NewLuaRegistry reads the manifest and every script it lists.
func NewLuaRegistry(manifestPath, scriptsDir string, log *zap.Logger) (*LuaRegistry, error) {
	if log == nil {
		log = zap.NewNop()
	}
	r := &LuaRegistry{manifestPath: manifestPath, dir: scriptsDir, log: log}
	if err := r.read(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload re-reads the manifest and scripts into a new registry. The receiver
// keeps serving its own sources.
func (r *LuaRegistry) Reload() (Registry, error) {
	next, err := NewLuaRegistry(r.manifestPath, r.dir, r.log)
	if err != nil {
		return nil, err
	}
	return next, nil
}

func (r *LuaRegistry) read() error {
	raw, err := os.ReadFile(r.manifestPath)
	if err != nil {
		return fmt.Errorf("read script manifest: %w", err)
	}
	m, err := data.ParseScriptManifest(raw)
	if err != nil {
		return err
	}

	sources := make(map[string][]byte)
	var digest bytes.Buffer
	digest.Write(raw)
	for _, tag := range m.Tags() {
		for _, file := range m.Scripts(tag) {
			if _, seen := sources[file]; seen {
				continue
			}
			path := filepath.Join(r.dir, file)
			src, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read script %s: %w", file, err)
			}
			if _, err := parse.Parse(bytes.NewReader(src), file); err != nil {
				return fmt.Errorf("parse script %s: %w", file, err)
			}
			sources[file] = src
			digest.WriteString(file)
			digest.Write(src)
		}
	}

	r.manifest = m
	r.sources = sources
	r.source = digest.Bytes()
	r.log.Info("lua scripts loaded", zap.Int("tags", m.Count()), zap.Int("scripts", len(sources)))
	return nil
}

// Instantiate starts a fresh VM for each script of tag. Scripts that fail to
// start are reported; the rest are returned.
func (r *LuaRegistry) Instantiate(tag string) ([]Script, error) {
	files := r.manifest.Scripts(tag)
	var (
		out  []Script
		errs error
	)
	for _, file := range files {
		s, err := newLuaScript(file, r.sources[file], r.log)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("instantiate %s for %q: %w", file, tag, err))
			continue
		}
		out = append(out, s)
	}
	return out, errs
}

// Tags lists the manifest's tags in file order.
func (r *LuaRegistry) Tags() []string { return r.manifest.Tags() }

// Source is the manifest followed by every script, in manifest order.
func (r *LuaRegistry) Source() []byte { return r.source }

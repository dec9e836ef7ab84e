package system

import (
	"fmt"

	"github.com/dropbear/bridge/internal/core/event"
	"github.com/dropbear/bridge/internal/data"
	"github.com/dropbear/bridge/internal/host"
	"github.com/dropbear/bridge/internal/scripting"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Stage tracks the active scene and the script tags it activated. Scene
// tags dispatch once per call; entity tags dispatch once per tagged entity.
type Stage struct {
	host    *host.Host
	scripts *scripting.Host
	log     *zap.Logger

	scene      string
	sceneTags  []string
	entityTags []string
}

func NewStage(h *host.Host, scripts *scripting.Host, log *zap.Logger) *Stage {
	if log == nil {
		log = zap.NewNop()
	}
	return &Stage{host: h, scripts: scripts, log: log}
}

// Scene returns the name of the active scene, or "" before the first Enter.
func (s *Stage) Scene() string { return s.scene }

// Tags returns every tag the active scene activated.
func (s *Stage) Tags() []string {
	return append(append([]string(nil), s.sceneTags...), s.entityTags...)
}

// Enter destroys the systems of the current scene, applies m and loads the
// systems of its tags. Destroyed systems keep their state and are loaded
// again if a later scene uses the same tag. An invalid m is rejected before
// anything is torn down. Load failures are returned after every tag has been
// loaded; the scene is entered regardless.
func (s *Stage) Enter(m *data.SceneManifest) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("enter scene %s: %w", m.Name, err)
	}
	from := s.scene
	for _, tag := range s.Tags() {
		s.scripts.DestroySystemsByTag(tag)
	}
	s.scene, s.sceneTags, s.entityTags = "", nil, nil

	if err := s.host.ApplyScene(m); err != nil {
		return fmt.Errorf("enter scene: %w", err)
	}
	s.scene = m.Name
	s.sceneTags = append([]string(nil), m.Tags...)
	for _, tag := range m.AllTags() {
		if !contains(s.sceneTags, tag) {
			s.entityTags = append(s.entityTags, tag)
		}
	}

	var errs error
	for _, tag := range s.Tags() {
		if err := s.scripts.LoadSystemsForTag(tag); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("tag %s: %w", tag, err))
		}
	}
	event.Emit(s.host.Bus(), event.SceneSwitched{From: from, To: m.Name})
	s.log.Info("scene entered",
		zap.String("from", from),
		zap.String("scene", m.Name),
		zap.Strings("scene_tags", s.sceneTags),
		zap.Strings("entity_tags", s.entityTags),
		zap.Int("systems", s.scripts.TotalSystems()),
	)
	return errs
}

func (s *Stage) update(dt float64) {
	for _, tag := range s.sceneTags {
		s.scripts.UpdateSystemsByTag(tag, dt)
	}
	for _, tag := range s.entityTags {
		s.scripts.UpdateSystemsForEntities(tag, s.host.EntitiesWithTag(tag), dt)
	}
}

func (s *Stage) physicsUpdate(dt float64) {
	for _, tag := range s.sceneTags {
		s.scripts.PhysicsUpdateSystemsByTag(tag, dt)
	}
	for _, tag := range s.entityTags {
		s.scripts.PhysicsUpdateSystemsForEntities(tag, s.host.EntitiesWithTag(tag), dt)
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

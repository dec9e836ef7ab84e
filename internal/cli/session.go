package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/dropbear/bridge/internal/config"
	coresys "github.com/dropbear/bridge/internal/core/system"
	"github.com/dropbear/bridge/internal/data"
	"github.com/dropbear/bridge/internal/facade"
	"github.com/dropbear/bridge/internal/ffi"
	"github.com/dropbear/bridge/internal/handles"
	"github.com/dropbear/bridge/internal/host"
	"github.com/dropbear/bridge/internal/persist"
	"github.com/dropbear/bridge/internal/scripting"
	"github.com/dropbear/bridge/internal/scripts"
	"github.com/dropbear/bridge/internal/system"
	"go.uber.org/zap"
)

// journalInterval is how much simulated time passes between fault journal
// flushes.
const journalInterval = 5 * time.Second

// session is one assembled bridge: the reference host, the handle registry,
// the script host and the frame loop driving them.
type session struct {
	cfg     *config.Config
	log     *zap.Logger
	host    *host.Host
	handles *handles.Registry
	scripts *scripting.Host
	stage   *system.Stage
	loop    *system.Loop
	input   chan system.InputEvent
	db      *persist.DB
	journal *persist.FaultJournal
}

// newRegistry builds the script registry named by cfg.
func newRegistry(cfg config.ScriptingConfig, log *zap.Logger) (scripting.Registry, error) {
	switch cfg.Registry {
	case "static":
		return scripts.Registry(), nil
	case "lua":
		reg, err := scripting.NewLuaRegistry(cfg.Manifest, cfg.ScriptsDir, log)
		if err != nil {
			return nil, fmt.Errorf("lua registry: %w", err)
		}
		return reg, nil
	}
	return nil, fmt.Errorf("unknown script registry %q", cfg.Registry)
}

func openSession(ctx context.Context, cfg *config.Config, log *zap.Logger) (*session, error) {
	assets, err := data.LoadAssetTable(cfg.Scenes.Assets)
	if err != nil {
		return nil, fmt.Errorf("assets: %w", err)
	}
	registry, err := newRegistry(cfg.Scripting, log)
	if err != nil {
		return nil, err
	}

	s := &session{cfg: cfg, log: log, input: make(chan system.InputEvent, 64)}
	s.host = host.New(host.Options{
		ScenesDir:   cfg.Scenes.Dir,
		Assets:      assets,
		LoadWorkers: cfg.Scenes.LoadWorkers,
		LoadDelay:   cfg.Scenes.LoadDelay,
	}, log.Named("host"))

	var hs handles.Session
	s.handles, err = hs.Init(s.host.Handles(), ffi.Policy{Strict: cfg.Bridge.StrictMode()}, log)
	if err != nil {
		s.host.Close()
		return nil, fmt.Errorf("handles: %w", err)
	}
	engine := facade.New(s.host, s.handles)
	s.scripts = scripting.NewHost(registry, engine, log.Named("scripts"))

	if cfg.Database.Enabled {
		if err := s.openJournal(ctx); err != nil {
			s.host.Close()
			return nil, err
		}
	}

	s.stage = system.NewStage(s.host, s.scripts, log)
	runner := coresys.NewRunner()
	s.loop = system.NewLoop(runner, cfg.Simulation.FrameTime(), log)
	runner.Register(system.NewInputSystem(s.host, s.input, 64))
	runner.Register(system.NewPhysicsSystem(s.host, s.stage, cfg.Simulation.PhysicsStep, cfg.Simulation.MaxPhysicsSteps, log))
	runner.Register(system.NewUpdateSystem(s.stage))
	runner.Register(system.NewEventSystem(s.host.Bus(), s.host, s.scripts, log))
	runner.Register(system.NewCommandSystem(s.host, s.stage, s.loop.Stop, log))
	if s.journal != nil {
		runner.Register(system.NewPersistenceSystem(s.journal, journalInterval, log))
	}
	runner.Register(system.NewCleanupSystem(s.host, log))

	log.Info("session ready",
		zap.Stringer("session", s.handles.Session()),
		zap.Bool("strict", cfg.Bridge.StrictMode()),
		zap.String("registry", cfg.Scripting.Registry),
		zap.String("version", s.scripts.Version()),
		zap.Int("systems", runner.Len()),
	)
	return s, nil
}

func (s *session) openJournal(ctx context.Context) error {
	dbCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	db, err := persist.NewDB(dbCtx, s.cfg.Database, s.log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := persist.RunMigrations(dbCtx, db.Pool); err != nil {
		db.Close()
		return fmt.Errorf("migrations: %w", err)
	}
	s.db = db
	s.journal = persist.NewFaultJournal(persist.NewFaultRepo(db), s.handles.Session(), s.cfg.Database.FlushBatch, s.log)
	s.scripts.SetFaultSink(s.journal)
	return nil
}

// enter applies the initial scene. Script load failures are logged; the
// session runs with whatever loaded.
func (s *session) enter(name string) error {
	scene, err := s.host.LoadScene(name)
	if err != nil {
		return fmt.Errorf("initial scene: %w", err)
	}
	if err := s.stage.Enter(scene); err != nil {
		s.log.Warn("initial scene entered with script errors", zap.Error(err))
	}
	return nil
}

// close unloads every script, writes out pending faults and releases the
// host.
func (s *session) close() {
	s.scripts.UnloadAll()
	if s.journal != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.journal.Flush(ctx); err != nil {
			s.log.Warn("final journal flush failed", zap.Error(err))
		}
		cancel()
	}
	if s.db != nil {
		s.db.Close()
	}
	s.host.Close()
}

package host

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"github.com/dropbear/bridge/internal/data"
	"github.com/dropbear/bridge/internal/ffi"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

const loadStages = 3

type progress struct {
	current, total uint64
	message        string
}

type sceneLoad struct {
	id       int64
	name     string
	status   ffi.SceneLoadStatus
	progress progress
	scene    *data.SceneManifest
}

var errLoaderClosed = errors.New("scene loader closed")

// sceneLoader reads scene manifests in the background. Each load gets its own
// goroutine, and at most workers of them read at once. Workers publish status
// and progress under mu; the boundary side only reads.
type sceneLoader struct {
	mu      sync.Mutex
	dir     string
	delay   time.Duration
	nextID  int64
	loads   map[int64]*sceneLoad
	pending map[string]int64
	closed  bool
	slots   *semaphore.Weighted
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	log     *zap.Logger
}

func newSceneLoader(dir string, workers int, delay time.Duration, log *zap.Logger) *sceneLoader {
	if workers <= 0 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &sceneLoader{
		dir:     dir,
		delay:   delay,
		loads:   make(map[int64]*sceneLoad),
		pending: make(map[string]int64),
		slots:   semaphore.NewWeighted(int64(workers)),
		ctx:     ctx,
		cancel:  cancel,
		log:     log,
	}
}

// close abandons queued loads and waits for running ones to stop.
func (l *sceneLoader) close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.mu.Unlock()
	l.cancel()
	l.wg.Wait()
}

// register returns the pending load of name if there is one, otherwise a new
// load started in the background. It never waits for a free worker.
func (l *sceneLoader) register(name string) (*sceneLoad, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, false, errLoaderClosed
	}
	if id, ok := l.pending[name]; ok {
		return l.loads[id], false, nil
	}
	l.nextID++
	ld := &sceneLoad{
		id:       l.nextID,
		name:     name,
		status:   ffi.ScenePending,
		progress: progress{current: 0, total: 1, message: "Idle"},
	}
	l.loads[ld.id] = ld
	l.pending[name] = ld.id
	l.wg.Add(1)
	go l.run(ld)
	return ld, true, nil
}

func (l *sceneLoader) run(ld *sceneLoad) {
	defer l.wg.Done()
	if err := l.slots.Acquire(l.ctx, 1); err != nil {
		l.finish(ld, nil, fmt.Errorf("abandoned: %w", err))
		return
	}
	defer l.slots.Release(1)

	l.report(ld, 0, "Reading "+ld.name)
	l.pause()
	scene, err := data.LoadScene(data.ScenePath(l.dir, ld.name))
	if err != nil {
		l.finish(ld, nil, err)
		return
	}
	l.report(ld, 1, fmt.Sprintf("Preparing %d entities", scene.EntityCount()))
	l.pause()
	l.report(ld, 2, "Finalizing")
	l.pause()
	l.finish(ld, scene, nil)
}

func (l *sceneLoader) pause() {
	if l.delay <= 0 {
		return
	}
	t := time.NewTimer(l.delay)
	defer t.Stop()
	select {
	case <-t.C:
	case <-l.ctx.Done():
	}
}

// report only moves progress forward while the load is pending.
func (l *sceneLoader) report(ld *sceneLoad, current uint64, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if ld.status != ffi.ScenePending || current < ld.progress.current {
		return
	}
	ld.progress = progress{current: current, total: loadStages, message: msg}
}

func (l *sceneLoader) finish(ld *sceneLoad, scene *data.SceneManifest, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pending[ld.name] == ld.id {
		delete(l.pending, ld.name)
	}
	if err != nil {
		ld.status = ffi.SceneFailed
		ld.progress.message = err.Error()
		l.log.Warn("scene load failed", zap.String("scene", ld.name), zap.Int64("load_id", ld.id), zap.Error(err))
		return
	}
	ld.status = ffi.SceneReady
	ld.scene = scene
	ld.progress = progress{current: loadStages, total: loadStages, message: "Ready"}
	l.log.Debug("scene load ready", zap.String("scene", ld.name), zap.Int64("load_id", ld.id))
}

func (l *sceneLoader) get(id int64) (sceneLoad, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ld, ok := l.loads[id]
	if !ok {
		return sceneLoad{}, false
	}
	return *ld, true
}

// consume removes a ready load so its handle cannot be switched twice.
func (l *sceneLoader) consume(id int64) {
	l.mu.Lock()
	delete(l.loads, id)
	l.mu.Unlock()
}

// loadNow reads a manifest on the caller's goroutine.
func (l *sceneLoader) loadNow(name string) (*data.SceneManifest, ffi.Status, error) {
	scene, err := data.LoadScene(data.ScenePath(l.dir, name))
	if err == nil {
		return scene, ffi.StatusOK, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ffi.StatusAssetNotFound, err
	}
	return nil, ffi.StatusGenericAsset, err
}

// LoadSceneAsync queues a background load. A non-empty loading scene is read
// synchronously and switched to right away so it shows while name loads.
func (h *Host) LoadSceneAsync(commands, loader ffi.Handle, name, loading ffi.Bytes, out *ffi.NativeSceneLoadHandle) ffi.Status {
	const op = "load_scene_async"
	if out == nil {
		return ffi.StatusNullPointer
	}
	if st := h.checkHandle(op, commands, resCommands); st != ffi.StatusOK {
		return st
	}
	if st := h.checkHandle(op, loader, resSceneLoader); st != ffi.StatusOK {
		return st
	}
	target, st := h.copyIn(op, name)
	if st != ffi.StatusOK {
		return st
	}
	if target == "" {
		return h.fail(op, ffi.StatusInvalidArgument, "empty scene name")
	}
	interim, st := h.copyIn(op, loading)
	if st != ffi.StatusOK {
		return st
	}
	ld, fresh, err := h.loader.register(target)
	if err != nil {
		return h.fail(op, ffi.StatusGeneric, "scene %q: %v", target, err)
	}
	if fresh && interim != "" {
		scene, st, err := h.loader.loadNow(interim)
		if st != ffi.StatusOK {
			return h.fail(op, st, "loading scene %q: %v", interim, err)
		}
		h.pushCommand(Command{Kind: CommandSwitchScene, Scene: scene})
	}
	*out = ffi.NativeSceneLoadHandle{ID: ld.id, Name: h.scratchBytes(target)}
	return ffi.StatusOK
}

func (h *Host) GetSceneLoadStatus(loader ffi.Handle, id int64, out *ffi.SceneLoadStatus) ffi.Status {
	const op = "get_scene_load_status"
	if out == nil {
		return ffi.StatusNullPointer
	}
	if st := h.checkHandle(op, loader, resSceneLoader); st != ffi.StatusOK {
		return st
	}
	ld, ok := h.loader.get(id)
	if !ok {
		return h.fail(op, ffi.StatusNoSuchHandle, "scene load %d", id)
	}
	*out = ld.status
	return ffi.StatusOK
}

func (h *Host) GetSceneLoadProgress(loader ffi.Handle, id int64, out *ffi.NativeProgress) ffi.Status {
	const op = "get_scene_load_progress"
	if out == nil {
		return ffi.StatusNullPointer
	}
	if st := h.checkHandle(op, loader, resSceneLoader); st != ffi.StatusOK {
		return st
	}
	ld, ok := h.loader.get(id)
	if !ok {
		return h.fail(op, ffi.StatusNoSuchHandle, "scene load %d", id)
	}
	*out = ffi.NativeProgress{
		Current: ld.progress.current,
		Total:   ld.progress.total,
		Message: h.scratchBytes(ld.progress.message),
	}
	return ffi.StatusOK
}

// SwitchToSceneAsync queues the switch to a ready load and retires its id.
func (h *Host) SwitchToSceneAsync(commands, loader ffi.Handle, id int64) ffi.Status {
	const op = "switch_to_scene_async"
	if st := h.checkHandle(op, commands, resCommands); st != ffi.StatusOK {
		return st
	}
	if st := h.checkHandle(op, loader, resSceneLoader); st != ffi.StatusOK {
		return st
	}
	ld, ok := h.loader.get(id)
	if !ok {
		return h.fail(op, ffi.StatusNoSuchHandle, "scene load %d", id)
	}
	switch ld.status {
	case ffi.ScenePending:
		return h.fail(op, ffi.StatusPrematureSceneSwitch, "scene %q is still loading", ld.name)
	case ffi.SceneFailed:
		return h.fail(op, ffi.StatusGenericAsset, "scene %q failed to load: %s", ld.name, ld.progress.message)
	}
	h.loader.consume(id)
	h.pushCommand(Command{Kind: CommandSwitchScene, Scene: ld.scene})
	return ffi.StatusOK
}

// SwitchToSceneImmediate reads the scene on the calling goroutine and queues
// the switch. The caller is blocked for the whole read.
func (h *Host) SwitchToSceneImmediate(commands, loader ffi.Handle, name ffi.Bytes) ffi.Status {
	const op = "switch_to_scene_immediate"
	if st := h.checkHandle(op, commands, resCommands); st != ffi.StatusOK {
		return st
	}
	if st := h.checkHandle(op, loader, resSceneLoader); st != ffi.StatusOK {
		return st
	}
	target, st := h.copyIn(op, name)
	if st != ffi.StatusOK {
		return st
	}
	scene, st, err := h.loader.loadNow(target)
	if st != ffi.StatusOK {
		return h.fail(op, st, "scene %q: %v", target, err)
	}
	h.pushCommand(Command{Kind: CommandSwitchScene, Scene: scene})
	return ffi.StatusOK
}

// LoadScene reads a scene synchronously, for the initial scene of a session.
func (h *Host) LoadScene(name string) (*data.SceneManifest, error) {
	scene, _, err := h.loader.loadNow(name)
	return scene, err
}

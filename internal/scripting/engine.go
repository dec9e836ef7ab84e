package scripting

import (
	"bytes"
	"fmt"

	"github.com/dropbear/bridge/internal/core/event"
	"github.com/dropbear/bridge/internal/facade"
	"github.com/dropbear/bridge/internal/ffi"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

const apiVersion = 1

// luaScript wraps one gopher-lua VM running one script file. Globals are the
// instance state, so a destroyed-then-loaded script keeps them.
// Single-goroutine access only (frame loop).
type luaScript struct {
	name     string
	vm       *lua.LState
	log      *zap.Logger
	eng      *facade.Engine
	builtins map[string]lua.LValue
}

// callbacks are the globals a script may define. Some share a name with a
// standard library global (load), which must not count as defined.
var callbacks = []string{"load", "update", "physics_update", "destroy", "on_collision", "on_collision_force"}

func newLuaScript(name string, src []byte, log *zap.Logger) (*luaScript, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(apiVersion))

	s := &luaScript{name: name, vm: vm, log: log, builtins: make(map[string]lua.LValue)}
	for _, fn := range callbacks {
		if v := vm.GetGlobal(fn); v != lua.LNil {
			s.builtins[fn] = v
		}
	}
	vm.SetGlobal("engine", s.engineTable())

	chunk, err := vm.Load(bytes.NewReader(src), name)
	if err != nil {
		vm.Close()
		return nil, fmt.Errorf("compile %s: %w", name, err)
	}
	if err := vm.CallByParam(lua.P{Fn: chunk, NRet: 0, Protect: true}); err != nil {
		vm.Close()
		return nil, fmt.Errorf("run %s: %w", name, err)
	}
	return s, nil
}

func (s *luaScript) Name() string { return s.name }

// call invokes a global function if the script defines it. The engine is
// only reachable from Lua for the duration of the call.
func (s *luaScript) call(e *facade.Engine, fn string, args ...lua.LValue) error {
	f := s.vm.GetGlobal(fn)
	if f == lua.LNil || f == s.builtins[fn] {
		return nil
	}
	s.eng = e
	defer func() { s.eng = nil }()
	if err := s.vm.CallByParam(lua.P{
		Fn:      f,
		NRet:    0,
		Protect: true,
	}, args...); err != nil {
		return fmt.Errorf("lua %s: %w", fn, err)
	}
	return nil
}

func (s *luaScript) Load(e *facade.Engine) error { return s.call(e, "load") }

func (s *luaScript) Update(e *facade.Engine, dt float64) error {
	return s.call(e, "update", lua.LNumber(dt))
}

func (s *luaScript) PhysicsUpdate(e *facade.Engine, dt float64) error {
	return s.call(e, "physics_update", lua.LNumber(dt))
}

func (s *luaScript) Destroy(e *facade.Engine) error { return s.call(e, "destroy") }

func (s *luaScript) CollisionEvent(e *facade.Engine, ev event.Collision) error {
	t := s.vm.NewTable()
	t.RawSetString("kind", lua.LString(ev.Kind.String()))
	t.RawSetString("a", lua.LNumber(ev.A.Entity))
	t.RawSetString("b", lua.LNumber(ev.B.Entity))
	t.RawSetString("sensor", lua.LBool(ev.Sensor))
	return s.call(e, "on_collision", t)
}

func (s *luaScript) CollisionForceEvent(e *facade.Engine, ev event.CollisionForce) error {
	t := s.vm.NewTable()
	t.RawSetString("a", lua.LNumber(ev.A.Entity))
	t.RawSetString("b", lua.LNumber(ev.B.Entity))
	t.RawSetString("total_magnitude", lua.LNumber(ev.TotalMagnitude))
	t.RawSetString("max_magnitude", lua.LNumber(ev.MaxMagnitude))
	t.RawSetString("total_force", s.vec3(ev.TotalForce))
	return s.call(e, "on_collision_force", t)
}

// Close releases the VM once the instance is discarded.
func (s *luaScript) Close() { s.vm.Close() }

// ── engine table ────────────────────────────────────────────────────

func (s *luaScript) engineTable() *lua.LTable {
	return s.vm.SetFuncs(s.vm.NewTable(), map[string]lua.LGFunction{
		"entity":         s.luaEntity,
		"current_entity": s.luaCurrentEntity,
		"label":          s.luaLabel,
		"get_property":   s.luaGetProperty,
		"set_property":   s.luaSetProperty,
		"position":       s.luaPosition,
		"translate":      s.luaTranslate,
		"key_pressed":    s.luaKeyPressed,
		"quit":           s.luaQuit,
		"log":            s.luaLog,
	})
}

func (s *luaScript) engine(L *lua.LState) *facade.Engine {
	if s.eng == nil {
		L.RaiseError("engine is only available inside callbacks")
	}
	return s.eng
}

func (s *luaScript) check(L *lua.LState, err error) {
	if err != nil {
		L.RaiseError("%s", err.Error())
	}
}

func (s *luaScript) entityArg(L *lua.LState, n int) facade.Entity {
	return s.engine(L).EntityByID(ffi.EntityID(L.CheckInt64(n)))
}

func (s *luaScript) vec3(v ffi.Vec3) *lua.LTable {
	t := s.vm.NewTable()
	t.RawSetString("x", lua.LNumber(v.X))
	t.RawSetString("y", lua.LNumber(v.Y))
	t.RawSetString("z", lua.LNumber(v.Z))
	return t
}

// entity(label) -> id | nil
func (s *luaScript) luaEntity(L *lua.LState) int {
	ent, found, err := s.engine(L).Entity(L.CheckString(1))
	s.check(L, err)
	if !found {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(ent.ID))
	return 1
}

// current_entity() -> id | nil
func (s *luaScript) luaCurrentEntity(L *lua.LState) int {
	ent, ok := s.engine(L).CurrentEntity()
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(ent.ID))
	return 1
}

// label(id) -> string
func (s *luaScript) luaLabel(L *lua.LState) int {
	label, err := s.entityArg(L, 1).Label()
	s.check(L, err)
	L.Push(lua.LString(label))
	return 1
}

func (s *luaScript) properties(L *lua.LState) facade.Properties {
	props, ok, err := s.entityArg(L, 1).Properties()
	s.check(L, err)
	if !ok {
		L.RaiseError("entity %d has no properties", L.CheckInt64(1))
	}
	return props
}

// get_property(id, label, kind) -> value | nil
func (s *luaScript) luaGetProperty(L *lua.LState) int {
	props := s.properties(L)
	label := L.CheckString(2)
	kind, ok := facade.ParsePropertyKind(L.OptString(3, "double"))
	if !ok {
		L.ArgError(3, "unknown property kind")
	}
	v, found, err := props.Get(label, kind)
	s.check(L, err)
	if !found {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(s.toLua(v))
	return 1
}

func (s *luaScript) toLua(v any) lua.LValue {
	switch v := v.(type) {
	case string:
		return lua.LString(v)
	case int32:
		return lua.LNumber(v)
	case int64:
		return lua.LNumber(v)
	case float64:
		return lua.LNumber(v)
	case float32:
		return lua.LNumber(v)
	case bool:
		return lua.LBool(v)
	case ffi.Vec3:
		return s.vec3(v)
	}
	return lua.LNil
}

// set_property(id, label, value [, kind]). Numbers default to double; a
// table with x, y, z is a vec3.
func (s *luaScript) luaSetProperty(L *lua.LState) int {
	props := s.properties(L)
	label := L.CheckString(2)
	var v any
	switch lv := L.CheckAny(3).(type) {
	case lua.LString:
		v = string(lv)
	case lua.LBool:
		v = bool(lv)
	case *lua.LTable:
		v = ffi.Vec3{
			X: float64(lua.LVAsNumber(lv.RawGetString("x"))),
			Y: float64(lua.LVAsNumber(lv.RawGetString("y"))),
			Z: float64(lua.LVAsNumber(lv.RawGetString("z"))),
		}
	case lua.LNumber:
		switch L.OptString(4, "double") {
		case "int":
			v = int32(lv)
		case "long":
			v = int64(lv)
		case "float":
			v = float32(lv)
		case "double":
			v = float64(lv)
		default:
			L.ArgError(4, "unknown numeric property kind")
		}
	default:
		L.ArgError(3, "unsupported property value "+lv.Type().String())
	}
	s.check(L, props.Set(label, v))
	return 0
}

// position(id) -> x, y, z in world space
func (s *luaScript) luaPosition(L *lua.LState) int {
	tr, ok, err := s.entityArg(L, 1).Transform()
	s.check(L, err)
	if !ok {
		L.RaiseError("entity %d has no transform", L.CheckInt64(1))
	}
	w, err := tr.World()
	s.check(L, err)
	L.Push(lua.LNumber(w.Position.X))
	L.Push(lua.LNumber(w.Position.Y))
	L.Push(lua.LNumber(w.Position.Z))
	return 3
}

// translate(id, dx, dy, dz) moves the local position and propagates.
func (s *luaScript) luaTranslate(L *lua.LState) int {
	tr, ok, err := s.entityArg(L, 1).Transform()
	s.check(L, err)
	if !ok {
		L.RaiseError("entity %d has no transform", L.CheckInt64(1))
	}
	local, err := tr.Local()
	s.check(L, err)
	local.Position.X += float64(L.CheckNumber(2))
	local.Position.Y += float64(L.CheckNumber(3))
	local.Position.Z += float64(L.CheckNumber(4))
	s.check(L, tr.SetLocal(local))
	_, err = tr.Propagate()
	s.check(L, err)
	return 0
}

// key_pressed(code) -> bool
func (s *luaScript) luaKeyPressed(L *lua.LState) int {
	down, err := s.engine(L).Input().IsKeyPressed(ffi.KeyCode(L.CheckInt(1)))
	s.check(L, err)
	L.Push(lua.LBool(down))
	return 1
}

func (s *luaScript) luaQuit(L *lua.LState) int {
	s.check(L, s.engine(L).Quit())
	return 0
}

func (s *luaScript) luaLog(L *lua.LState) int {
	s.log.Info("lua", zap.String("script", s.name), zap.String("msg", L.CheckString(1)))
	return 0
}

package scripting

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/temporaldebt/core/internal/temporal"
)

// Engine wraps a single gopher-lua VM for designer tuning hooks.
// Single-goroutine access only (frame loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads all scripts from the given directory.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}

	for _, sub := range []string{"core", "echo", "debt"} {
		p := filepath.Join(scriptsDir, sub)
		if err := e.loadDir(p); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}

	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// Has reports whether a global Lua function is defined.
func (e *Engine) Has(name string) bool {
	_, ok := e.vm.GetGlobal(name).(*lua.LFunction)
	return ok
}

// EchoAccuracy calls echo_accuracy(tier). The second result is false when
// the hook is missing or fails.
func (e *Engine) EchoAccuracy(tier int) (float64, bool) {
	return e.callNumberFunc("echo_accuracy", float64(tier))
}

// AccuracyCurve returns the scripted echo accuracy curve, or fallback when
// no script defines one. A failing call falls back per tier.
func (e *Engine) AccuracyCurve(fallback temporal.AccuracyCurve) temporal.AccuracyCurve {
	if !e.Has("echo_accuracy") {
		return fallback
	}
	return func(tier int) float64 {
		if v, ok := e.EchoAccuracy(tier); ok {
			return v
		}
		return fallback(tier)
	}
}

// ShadowLimit calls shadow_limit(debt, spawn_debt) for the number of debt
// shadows allowed at once. Without the hook one shadow is allowed per
// spawnDebt of debt.
func (e *Engine) ShadowLimit(debt, spawnDebt float64) int {
	if e != nil && e.Has("shadow_limit") {
		if v, ok := e.callNumberFunc("shadow_limit", debt, spawnDebt); ok {
			return max(0, int(v))
		}
	}
	return DefaultShadowLimit(debt, spawnDebt)
}

func DefaultShadowLimit(debt, spawnDebt float64) int {
	if spawnDebt <= 0 {
		return 0
	}
	return int(math.Floor(debt / spawnDebt))
}

// --- Lua helpers ---

// callNumberFunc calls a Lua function with number args and returns a number
// result.
func (e *Engine) callNumberFunc(name string, args ...float64) (float64, bool) {
	fn := e.vm.GetGlobal(name)
	if fn == lua.LNil {
		e.log.Error("lua function not found", zap.String("name", name))
		return 0, false
	}

	lArgs := make([]lua.LValue, len(args))
	for i, a := range args {
		lArgs[i] = lua.LNumber(a)
	}

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, lArgs...); err != nil {
		e.log.Error("lua call error", zap.String("func", name), zap.Error(err))
		return 0, false
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)
	n, ok := result.(lua.LNumber)
	if !ok {
		e.log.Error("lua function returned non-number",
			zap.String("func", name),
			zap.String("type", result.Type().String()),
		)
		return 0, false
	}
	return float64(n), true
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}

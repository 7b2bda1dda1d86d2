package bots

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"

	"github.com/MJE43/nearkarts-go/internal/kart"
)

// LogEntry is one message a design script logged.
type LogEntry struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

// VM wraps a goja runtime that runs one bot's design script.
type VM struct {
	runtime *goja.Runtime
	mu      sync.Mutex

	logs    []LogEntry
	logsMu  sync.Mutex
	maxLogs int
}

const (
	scriptInitTimeout = 2 * time.Second
	scriptCallTimeout = 1 * time.Second
)

// ErrNoDesign is returned when a script does not define design().
var ErrNoDesign = errors.New("design() function is not defined")

// NewVM creates a sandboxed runtime with the kart constants and helpers set.
func NewVM() *VM {
	vm := &VM{
		runtime: goja.New(),
		maxLogs: 200,
	}
	vm.injectGlobalFunctions()
	injectConstants(vm.runtime)
	return vm
}

func (vm *VM) injectGlobalFunctions() {
	vm.runtime.Set("log", func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}

		vm.logsMu.Lock()
		if len(vm.logs) >= vm.maxLogs {
			vm.logs = vm.logs[1:]
		}
		vm.logs = append(vm.logs, LogEntry{Time: time.Now(), Message: strings.Join(parts, " ")})
		vm.logsMu.Unlock()

		return goja.Undefined()
	})

	console := vm.runtime.NewObject()
	console.Set("log", vm.runtime.Get("log"))
	vm.runtime.Set("console", console)

	// maxIndex(level) mirrors kart.MaxIndex so scripts can stay within gating.
	vm.runtime.Set("maxIndex", func(call goja.FunctionCall) goja.Value {
		level := call.Argument(0).ToInteger()
		if level < 0 {
			level = 0
		}
		return vm.runtime.ToValue(int(kart.MaxIndex(uint32(level))))
	})

	vm.runtime.Set("require", goja.Undefined())
	vm.runtime.Set("fetch", goja.Undefined())
	vm.runtime.Set("XMLHttpRequest", goja.Undefined())
	vm.runtime.Set("eval", goja.Undefined())
	vm.runtime.Set("Function", goja.Undefined())
}

// injectConstants exposes the category sizes.
func injectConstants(rt *goja.Runtime) {
	rt.Set("NUM_DECALS", kart.NumDecals)
	rt.Set("NUM_WEAPONS", kart.NumWeapons)
	rt.Set("NUM_WEAPONS_MELEE", kart.NumWeaponsMelee)
	rt.Set("NUM_SHIELDS", kart.NumShields)
	rt.Set("NUM_SKINS", kart.NumSkins)
	rt.Set("NUM_TRANSPORTS", kart.NumTransports)
	rt.Set("SHIELD_OFFSET", kart.ShieldOffset)
	rt.Set("FREE_DECAL", kart.FreeDecal)
}

// Execute runs the script source once to register design().
func (vm *VM) Execute(source string) error {
	return vm.runWithTimeout(scriptInitTimeout, func() error {
		vm.mu.Lock()
		defer vm.mu.Unlock()
		if _, err := vm.runtime.RunString(source); err != nil {
			return fmt.Errorf("script execution error: %w", err)
		}
		return nil
	})
}

// Design calls design(level) and converts the returned object to a Config.
// Keys must be Config JSON field names; anything else is an error.
func (vm *VM) Design(level uint32) (kart.Config, error) {
	var out kart.Config
	err := vm.runWithTimeout(scriptCallTimeout, func() error {
		vm.mu.Lock()
		defer vm.mu.Unlock()

		fn := vm.runtime.Get("design")
		if fn == nil || goja.IsUndefined(fn) || goja.IsNull(fn) {
			return ErrNoDesign
		}
		callable, ok := goja.AssertFunction(fn)
		if !ok {
			return fmt.Errorf("design is not a function")
		}

		result, err := callable(goja.Undefined(), vm.runtime.ToValue(level))
		if err != nil {
			return fmt.Errorf("design() error: %w", err)
		}
		if goja.IsUndefined(result) || goja.IsNull(result) {
			return fmt.Errorf("design() returned %s", result.String())
		}
		exported, ok := result.Export().(map[string]any)
		if !ok {
			return fmt.Errorf("design() must return an object, got %T", result.Export())
		}
		return decodeConfig(exported, &out)
	})
	return out, err
}

func decodeConfig(fields map[string]any, out *kart.Config) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("design() result: %w", err)
	}
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("design() result: %w", err)
	}
	return nil
}

// Logs returns a copy of the log buffer.
func (vm *VM) Logs() []LogEntry {
	vm.logsMu.Lock()
	defer vm.logsMu.Unlock()
	out := make([]LogEntry, len(vm.logs))
	copy(out, vm.logs)
	return out
}

func (vm *VM) runWithTimeout(timeout time.Duration, fn func() error) error {
	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		vm.runtime.Interrupt("script execution timeout")
		select {
		case err := <-done:
			if err != nil {
				return fmt.Errorf("script timed out: %w", err)
			}
			return fmt.Errorf("script timed out")
		case <-time.After(200 * time.Millisecond):
			return fmt.Errorf("script timed out")
		}
	}
}

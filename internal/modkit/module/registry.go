package module

import "sync"

// process-wide registry of module port bundles, filled once at bootstrap
// so binaries and tests can look ports up by module name
var (
	mu  sync.RWMutex
	reg = map[string]any{}
)

// Register stores the port bundle for a module name, replacing any previous one
func Register(name string, ports any) {
	mu.Lock()
	reg[name] = ports
	mu.Unlock()
}

// PortsAs fetches the bundle registered under name and asserts it to T
func PortsAs[T any](name string) (T, bool) {
	mu.RLock()
	v, ok := reg[name]
	mu.RUnlock()
	if !ok {
		var zero T
		return zero, false
	}
	out, ok := v.(T)
	return out, ok
}

// Reset clears the registry for tests
func Reset() {
	mu.Lock()
	reg = map[string]any{}
	mu.Unlock()
}

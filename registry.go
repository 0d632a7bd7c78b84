package crossfont

import (
	"fmt"
	"math"
	"slices"
	"sync"
)

// Well-known backend names.
const (
	BackendCoreText    = "coretext"
	BackendDirectWrite = "directwrite"
	BackendSoftware    = "software"
)

var (
	registryMu sync.RWMutex
	backends   = make(map[string]Factory)
	// Priority order for OpenDefault (first registered wins).
	// Platform engines are preferred over the portable software backend.
	backendPriority = []string{BackendCoreText, BackendDirectWrite, BackendSoftware}
)

// Register registers a backend factory with the given name.
// This is typically called from init() functions in backend packages.
// If a backend with the same name is already registered, it is replaced.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[name] = factory
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, name)
}

// Backends returns the sorted names of the registered backends.
func Backends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := backends[name]
	return ok
}

// Open constructs the named backend.
func Open(name string, devicePixelRatio float32) (Rasterizer, error) {
	if err := ValidateDPR(devicePixelRatio); err != nil {
		return nil, err
	}

	registryMu.RLock()
	factory, ok := backends[name]
	registryMu.RUnlock()
	if !ok {
		return nil, NewPlatformError(fmt.Sprintf("backend %q is not registered", name))
	}

	Logger().Debug("crossfont: opening backend", "backend", name, "dpr", devicePixelRatio)
	return factory(devicePixelRatio)
}

// OpenDefault constructs the best registered backend: a platform engine if one
// is registered, the software backend otherwise.
func OpenDefault(devicePixelRatio float32) (Rasterizer, error) {
	name, ok := defaultBackend()
	if !ok {
		return nil, NewPlatformError("no backend registered")
	}
	return Open(name, devicePixelRatio)
}

func defaultBackend() (string, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	for _, name := range backendPriority {
		if _, ok := backends[name]; ok {
			return name, true
		}
	}

	// Fallback: first registered by name
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	if len(names) == 0 {
		return "", false
	}
	slices.Sort(names)
	return names[0], true
}

// ValidateDPR returns a *PlatformError unless dpr is a finite positive number.
// Backends use it in their constructors.
func ValidateDPR(dpr float32) error {
	v := float64(dpr)
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return NewPlatformError(fmt.Sprintf("invalid device pixel ratio %v", dpr))
	}
	return nil
}

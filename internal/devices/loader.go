package devices

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/KevinKickass/ModbusCore/internal/types"
)

// ProfileLoader löst Profilnamen über die konfigurierten Suchpfade auf und
// cached das Ergebnis pro Name. Jedes Profil wird vor dem Unmarshal gegen das
// eingebettete Schema validiert.
type ProfileLoader struct {
	cache       sync.Map // Profilname -> *types.DeviceProfileDefinition
	validator   *Validator
	searchPaths []string
}

func NewProfileLoader(searchPaths []string) (*ProfileLoader, error) {
	validator, err := NewValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create validator: %w", err)
	}

	return &ProfileLoader{
		validator:   validator,
		searchPaths: searchPaths,
	}, nil
}

// Load liefert das Profil zu einem Namen ("generic-io" -> generic-io.json im
// ersten Suchpfad der die Datei enthält). Wiederholte Loads kommen aus dem
// Cache.
func (l *ProfileLoader) Load(name string) (*types.DeviceProfileDefinition, error) {
	if cached, ok := l.cache.Load(name); ok {
		return cached.(*types.DeviceProfileDefinition), nil
	}

	data, foundPath, err := l.resolve(name)
	if err != nil {
		return nil, err
	}

	if err := l.validator.ValidateProfile(data); err != nil {
		return nil, fmt.Errorf("validation failed for %s: %w", foundPath, err)
	}

	var profile types.DeviceProfileDefinition
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}

	l.cache.Store(name, &profile)

	return &profile, nil
}

// resolve probiert die Suchpfade in Reihenfolge, der erste Treffer gewinnt.
func (l *ProfileLoader) resolve(name string) ([]byte, string, error) {
	for _, searchPath := range l.searchPaths {
		fullPath := filepath.Join(searchPath, name+".json")
		data, err := os.ReadFile(fullPath)
		if err == nil {
			return data, fullPath, nil
		}
	}

	return nil, "", fmt.Errorf("profile not found: %s (searched in: %v)", name, l.searchPaths)
}

// ClearCache verwirft alle gecachten Profile, etwa nach Profil-Updates auf
// der Platte.
func (l *ProfileLoader) ClearCache() {
	l.cache.Range(func(key, value any) bool {
		l.cache.Delete(key)
		return true
	})
}

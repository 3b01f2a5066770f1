package devices

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/KevinKickass/ModbusCore/internal/config"
	"github.com/KevinKickass/ModbusCore/internal/modbus"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Manager verwaltet Geräteinstanzen und ihre Poller. Instanzen kommen aus der
// Konfiguration, Profile aus dem Loader.
type Manager struct {
	loader  *ProfileLoader
	devices map[uuid.UUID]*modbus.Device
	pollers map[uuid.UUID]*modbus.Poller
	mu      sync.RWMutex
	logger  *zap.Logger
}

func NewManager(searchPaths []string, logger *zap.Logger) (*Manager, error) {
	loader, err := NewProfileLoader(searchPaths)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile loader: %w", err)
	}

	return &Manager{
		loader:  loader,
		devices: make(map[uuid.UUID]*modbus.Device),
		pollers: make(map[uuid.UUID]*modbus.Poller),
		logger:  logger,
	}, nil
}

// LoadDevice lädt ein Profil, erstellt die Geräteinstanz und verbindet sie.
func (m *Manager) LoadDevice(cfg config.DeviceConfig, timeout time.Duration) (*modbus.Device, error) {
	profile, err := m.loader.Load(cfg.Profile)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile %s: %w", cfg.Profile, err)
	}

	port := cfg.Port
	if port == 0 {
		port = profile.Connection.Port
	}
	if cfg.UnitID != 0 {
		// Config überschreibt die Unit ID des Profils
		p := *profile
		p.Connection.UnitID = cfg.UnitID
		profile = &p
	}

	device, err := modbus.NewDevice(cfg.Name, cfg.Host, port, profile, timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to create device: %w", err)
	}

	if err := device.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect device: %w", err)
	}

	m.mu.Lock()
	m.devices[device.ID] = device
	m.mu.Unlock()

	m.logger.Info("Device loaded",
		zap.String("name", cfg.Name),
		zap.String("profile", cfg.Profile),
		zap.String("address", cfg.Host))

	return device, nil
}

// StartPoller startet den Poller für ein Gerät.
func (m *Manager) StartPoller(deviceID uuid.UUID, interval time.Duration, sink modbus.Sink) error {
	m.mu.RLock()
	device, exists := m.devices[deviceID]
	m.mu.RUnlock()

	if !exists {
		return fmt.Errorf("device not found: %s", deviceID)
	}

	poller := modbus.NewPoller(device, interval, m.logger, sink)
	if err := poller.Start(); err != nil {
		return fmt.Errorf("failed to start poller: %w", err)
	}

	m.mu.Lock()
	m.pollers[deviceID] = poller
	m.mu.Unlock()

	return nil
}

// GetDevice returns device by ID
func (m *Manager) GetDevice(deviceID uuid.UUID) (*modbus.Device, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	device, exists := m.devices[deviceID]
	return device, exists
}

// GetDeviceByName returns device by name
func (m *Manager) GetDeviceByName(name string) (*modbus.Device, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, device := range m.devices {
		if device.Name == name {
			return device, true
		}
	}

	return nil, false
}

// StopAll stops all pollers and disconnects all devices
func (m *Manager) StopAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, poller := range m.pollers {
		poller.Stop()
	}

	for _, device := range m.devices {
		if err := device.Disconnect(); err != nil {
			m.logger.Error("Failed to disconnect device",
				zap.String("device", device.Name),
				zap.Error(err))
		}
	}

	return nil
}

// ListDevices returns all devices
func (m *Manager) ListDevices() []*modbus.Device {
	m.mu.RLock()
	defer m.mu.RUnlock()

	devices := make([]*modbus.Device, 0, len(m.devices))
	for _, device := range m.devices {
		devices = append(devices, device)
	}

	return devices
}

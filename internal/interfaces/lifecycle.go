package interfaces

import (
	"context"

	"github.com/KevinKickass/ModbusCore/internal/config"
	"github.com/KevinKickass/ModbusCore/internal/devices"
	"github.com/KevinKickass/ModbusCore/internal/storage"
)

// SystemStatus represents the current system state
type SystemStatus struct {
	State            string `json:"state"`
	DeviceCount      int    `json:"device_count"`
	ConnectedDevices int    `json:"connected_devices"`
	HistoryEnabled   bool   `json:"history_enabled"`
}

type LifecycleManager interface {
	Config() *config.Config
	Storage() *storage.PostgresClient // nil wenn Historie deaktiviert
	DeviceManager() *devices.Manager
	GetCurrentStatus() SystemStatus
	Shutdown(ctx context.Context) error
}

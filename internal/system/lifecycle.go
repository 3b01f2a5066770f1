package system

import (
	"context"
	"fmt"
	"sync"

	"github.com/KevinKickass/ModbusCore/internal/api/websocket"
	"github.com/KevinKickass/ModbusCore/internal/config"
	"github.com/KevinKickass/ModbusCore/internal/devices"
	"github.com/KevinKickass/ModbusCore/internal/interfaces"
	"github.com/KevinKickass/ModbusCore/internal/storage"
	"go.uber.org/zap"
)

// LifecycleManager fährt die Gateway-Komponenten in fester Reihenfolge hoch
// und wieder herunter: Hub -> Geräte -> Poller, Shutdown umgekehrt.
type LifecycleManager struct {
	config        *config.Config
	storage       *storage.PostgresClient
	deviceManager *devices.Manager
	hub           *websocket.Hub
	logger        *zap.Logger

	stateMu      sync.RWMutex
	currentState SystemState

	shutdownOnce sync.Once
}

func NewLifecycleManager(
	store *storage.PostgresClient,
	cfg *config.Config,
	logger *zap.Logger,
) (*LifecycleManager, error) {
	deviceManager, err := devices.NewManager(cfg.Profiles.SearchPaths, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create device manager: %w", err)
	}

	return &LifecycleManager{
		config:        cfg,
		storage:       store,
		deviceManager: deviceManager,
		hub:           websocket.NewHub(logger),
		logger:        logger,
		currentState:  StateInitializing,
	}, nil
}

// Start verbindet alle konfigurierten Geräte und startet ihre Poller.
// Geräte die nicht erreichbar sind brechen den Start nicht ab.
func (lm *LifecycleManager) Start() error {
	go lm.hub.Run()

	if lm.storage != nil {
		if err := lm.storage.EnsureSampleSchema(context.Background()); err != nil {
			return fmt.Errorf("failed to prepare sample schema: %w", err)
		}
	}

	sink := NewSampleSink(lm.hub, lm.storage, lm.logger)

	for _, devCfg := range lm.config.Devices {
		device, err := lm.deviceManager.LoadDevice(devCfg, lm.config.Modbus.DefaultTimeout)
		if err != nil {
			lm.logger.Error("Failed to load device",
				zap.String("device", devCfg.Name),
				zap.Error(err))
			lm.hub.Broadcast(websocket.NewDeviceErrorMessage(devCfg.Name, err.Error()))
			continue
		}

		lm.hub.Broadcast(websocket.NewDeviceConnectedMessage(device.Name))

		if err := lm.deviceManager.StartPoller(device.ID, lm.config.Modbus.DefaultPollInterval, sink); err != nil {
			lm.logger.Warn("Failed to start poller",
				zap.String("device", devCfg.Name),
				zap.Error(err))
		}
	}

	return lm.setState(StateRunning)
}

func (lm *LifecycleManager) Config() *config.Config { return lm.config }

func (lm *LifecycleManager) Storage() *storage.PostgresClient { return lm.storage }

func (lm *LifecycleManager) DeviceManager() *devices.Manager { return lm.deviceManager }

func (lm *LifecycleManager) Hub() *websocket.Hub { return lm.hub }

func (lm *LifecycleManager) GetCurrentStatus() interfaces.SystemStatus {
	lm.stateMu.RLock()
	state := lm.currentState
	lm.stateMu.RUnlock()

	allDevices := lm.deviceManager.ListDevices()
	connected := 0
	for _, d := range allDevices {
		if d.Connected() {
			connected++
		}
	}

	return interfaces.SystemStatus{
		State:            state.String(),
		DeviceCount:      len(allDevices),
		ConnectedDevices: connected,
		HistoryEnabled:   lm.storage != nil,
	}
}

// Shutdown stoppt Poller und trennt Geräte, danach die Datenbank.
func (lm *LifecycleManager) Shutdown(ctx context.Context) error {
	var shutdownErr error

	lm.shutdownOnce.Do(func() {
		if err := lm.setState(StateStopping); err != nil {
			lm.logger.Warn("Irregular shutdown transition", zap.Error(err))
		}

		if err := lm.deviceManager.StopAll(ctx); err != nil {
			shutdownErr = err
		}

		if lm.storage != nil {
			lm.storage.Close()
		}

		if err := lm.setState(StateStopped); err != nil {
			lm.logger.Warn("Irregular shutdown transition", zap.Error(err))
		}
	})

	return shutdownErr
}

func (lm *LifecycleManager) setState(to SystemState) error {
	lm.stateMu.Lock()
	defer lm.stateMu.Unlock()

	if err := ValidateTransition(lm.currentState, to); err != nil {
		lm.currentState = StateError
		return err
	}

	lm.logger.Info("System state changed",
		zap.String("from", lm.currentState.String()),
		zap.String("to", to.String()))
	lm.currentState = to

	return nil
}

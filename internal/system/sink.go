package system

import (
	"context"
	"time"

	"github.com/KevinKickass/ModbusCore/internal/api/websocket"
	"github.com/KevinKickass/ModbusCore/internal/storage"
	"github.com/KevinKickass/ModbusCore/internal/types"
	"go.uber.org/zap"
)

// SampleSink fächert Poll-Messwerte auf: Live-Broadcast über den WebSocket
// Hub und optional Persistenz in der Historie. Darf den Poll-Loop nicht
// blockieren.
type SampleSink struct {
	hub     *websocket.Hub
	storage *storage.PostgresClient
	logger  *zap.Logger
}

func NewSampleSink(hub *websocket.Hub, storage *storage.PostgresClient, logger *zap.Logger) *SampleSink {
	return &SampleSink{
		hub:     hub,
		storage: storage,
		logger:  logger,
	}
}

func (s *SampleSink) PublishSample(sample types.Sample) {
	if s.hub != nil {
		s.hub.Broadcast(websocket.NewSampleMessage(sample))
	}

	if s.storage != nil {
		// Insert asynchron, der Poller wartet nicht auf die Datenbank
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := s.storage.InsertSample(ctx, sample); err != nil {
				s.logger.Error("Failed to persist sample",
					zap.String("device", sample.DeviceName),
					zap.String("register", sample.Register),
					zap.Error(err))
			}
		}()
	}
}

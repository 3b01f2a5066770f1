package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/KevinKickass/ModbusCore/internal/types"
	"github.com/google/uuid"
)

// SampleRecord ist eine persistierte Poll-Messung.
type SampleRecord struct {
	ID         int64     `json:"id"`
	DeviceID   uuid.UUID `json:"device_id"`
	DeviceName string    `json:"device_name"`
	Register   string    `json:"register"`
	Value      float64   `json:"value"`
	SampledAt  time.Time `json:"sampled_at"`
}

// EnsureSampleSchema legt die Historien-Tabelle an falls sie fehlt.
func (p *PostgresClient) EnsureSampleSchema(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS register_samples (
			id          BIGSERIAL PRIMARY KEY,
			device_id   UUID NOT NULL,
			device_name TEXT NOT NULL,
			register    TEXT NOT NULL,
			value       DOUBLE PRECISION NOT NULL,
			sampled_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create register_samples table: %w", err)
	}

	_, err = p.pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS idx_register_samples_device
		ON register_samples (device_id, register, sampled_at DESC)
	`)
	if err != nil {
		return fmt.Errorf("failed to create register_samples index: %w", err)
	}

	return nil
}

// InsertSample schreibt eine Messung in die Historie. Bool-Werte werden als
// 0/1 abgelegt, nicht-numerische Werte verworfen.
func (p *PostgresClient) InsertSample(ctx context.Context, sample types.Sample) error {
	value, ok := numericValue(sample.Value)
	if !ok {
		return nil
	}

	_, err := p.pool.Exec(ctx, `
		INSERT INTO register_samples (device_id, device_name, register, value)
		VALUES ($1, $2, $3, $4)
	`, sample.DeviceID, sample.DeviceName, sample.Register, value)

	if err != nil {
		return fmt.Errorf("failed to insert sample: %w", err)
	}

	return nil
}

// RecentSamples liefert die jüngsten Messungen eines Geräts, optional auf ein
// Register eingeschränkt, neueste zuerst.
func (p *PostgresClient) RecentSamples(ctx context.Context, deviceID uuid.UUID, register string, limit int) ([]SampleRecord, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	rows, err := p.pool.Query(ctx, `
		SELECT id, device_id, device_name, register, value, sampled_at
		FROM register_samples
		WHERE device_id = $1 AND ($2 = '' OR register = $2)
		ORDER BY sampled_at DESC
		LIMIT $3
	`, deviceID, register, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	samples := make([]SampleRecord, 0, limit)
	for rows.Next() {
		var s SampleRecord
		if err := rows.Scan(&s.ID, &s.DeviceID, &s.DeviceName, &s.Register, &s.Value, &s.SampledAt); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		samples = append(samples, s)
	}

	return samples, rows.Err()
}

func numericValue(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int16:
		return float64(val), true
	case int:
		return float64(val), true
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

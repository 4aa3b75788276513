// Package cache guarda el último reporte de reconciliación por alcance
// con la regla "último completado gana" (comparando requested_at).
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/stock-reconciler/internal/application/dto"
	"github.com/jhoicas/stock-reconciler/internal/application/reconciliation"
	"github.com/jhoicas/stock-reconciler/internal/domain"
)

const (
	reportKeyPrefix = "stock:report:"
	maxWatchRetries = 32
)

var _ reconciliation.ReportStore = (*RedisReportStore)(nil)

// RedisReportStore guarda el reporte como JSON en Redis. La comparación y escritura
// se hacen dentro de WATCH/MULTI para que API y worker no se pisen.
type RedisReportStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisReportStore crea el store. ttl <= 0 = sin expiración.
func NewRedisReportStore(client *redis.Client, ttl time.Duration) *RedisReportStore {
	if ttl < 0 {
		ttl = 0
	}
	return &RedisReportStore{client: client, ttl: ttl}
}

// redisKey acota el largo de la clave (los alcances pueden traer cientos de ítems).
func redisKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return reportKeyPrefix + hex.EncodeToString(sum[:16])
}

// SaveIfNewer guarda report salvo que el almacenado tenga un requested_at posterior.
func (s *RedisReportStore) SaveIfNewer(ctx context.Context, key string, report *dto.ReconciliationReport) (bool, error) {
	raw, err := json.Marshal(report)
	if err != nil {
		return false, fmt.Errorf("cache: serializar reporte: %w", err)
	}
	rkey := redisKey(key)

	var saved bool
	txf := func(tx *redis.Tx) error {
		saved = false
		current, err := tx.Get(ctx, rkey).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if err == nil {
			var existing struct {
				RequestedAt time.Time `json:"requested_at"`
			}
			if json.Unmarshal(current, &existing) == nil && existing.RequestedAt.After(report.RequestedAt) {
				return nil
			}
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, rkey, raw, s.ttl)
			return nil
		})
		if err == nil {
			saved = true
		}
		return err
	}

	for i := 0; i < maxWatchRetries; i++ {
		err := s.client.Watch(ctx, txf, rkey)
		if err == nil {
			return saved, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return false, fmt.Errorf("cache: guardar reporte: %w", err)
	}
	return false, fmt.Errorf("cache: guardar reporte: %d conflictos consecutivos", maxWatchRetries)
}

// Latest devuelve el reporte guardado o domain.ErrNotFound.
func (s *RedisReportStore) Latest(ctx context.Context, key string) (*dto.ReconciliationReport, error) {
	raw, err := s.client.Get(ctx, redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("cache: leer reporte: %w", err)
	}
	var report dto.ReconciliationReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, fmt.Errorf("cache: reporte corrupto: %w", err)
	}
	return &report, nil
}

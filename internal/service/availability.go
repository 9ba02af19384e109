package service

import (
	"context"
	"fmt"
	"time"

	"honey-fulfillment/internal/models"
	"honey-fulfillment/internal/redisclient"
	"honey-fulfillment/internal/store"
	"honey-fulfillment/internal/util"

	"go.uber.org/zap"
)

// AvailabilityMirror copies pool availability from the database into Redis
// so capacity reads for display never touch the stock rows. The mirror is
// advisory; reservations always read the database.
type AvailabilityMirror struct {
	store  *store.Store
	redis  *redisclient.Client
	logger *zap.Logger
}

// NewAvailabilityMirror creates a new availability mirror
func NewAvailabilityMirror(store *store.Store, redis *redisclient.Client) *AvailabilityMirror {
	return &AvailabilityMirror{
		store:  store,
		redis:  redis,
		logger: util.GetLogger(),
	}
}

// Sync mirrors all four pools once.
func (m *AvailabilityMirror) Sync(ctx context.Context) error {
	for _, flavor := range models.Flavors {
		kg, err := m.store.Honey().AvailableKg(ctx, flavor)
		if err != nil {
			return fmt.Errorf("honey availability for %s: %w", flavor, err)
		}
		if err := m.redis.SetHoneyAvailability(ctx, string(flavor), kg.String()); err != nil {
			return fmt.Errorf("mirror honey availability for %s: %w", flavor, err)
		}
	}

	jars, err := m.store.Jars().Available(ctx)
	if err != nil {
		return fmt.Errorf("jar availability: %w", err)
	}
	if err := m.redis.SetAvailability(ctx, "JARS", jarCountsByName(jars)); err != nil {
		return fmt.Errorf("mirror jar availability: %w", err)
	}

	labels, err := m.store.Labels().Available(ctx)
	if err != nil {
		return fmt.Errorf("label availability: %w", err)
	}
	if err := m.redis.SetAvailability(ctx, "LABELS", jarCountsByName(labels)); err != nil {
		return fmt.Errorf("mirror label availability: %w", err)
	}

	crates, err := m.store.Crates().Available(ctx)
	if err != nil {
		return fmt.Errorf("crate availability: %w", err)
	}
	crateCounts := make(map[string]int, len(crates))
	for size, count := range crates {
		crateCounts[string(size)] = count
	}
	if err := m.redis.SetAvailability(ctx, "CRATES", crateCounts); err != nil {
		return fmt.Errorf("mirror crate availability: %w", err)
	}

	return nil
}

// Run syncs on the given interval until ctx is cancelled.
func (m *AvailabilityMirror) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.Sync(ctx); err != nil {
				m.logger.Warn("Availability mirror sync failed", zap.Error(err))
			}
		}
	}
}

// AvailabilitySnapshot is the cached view served to clients.
type AvailabilitySnapshot struct {
	HoneyKg map[string]string `json:"honey_kg"`
	Jars    map[string]int    `json:"jars"`
	Labels  map[string]int    `json:"labels"`
	Crates  map[string]int    `json:"crates"`
}

// Snapshot reads the cached availability. Pools never mirrored come back
// empty rather than erroring.
func (m *AvailabilityMirror) Snapshot(ctx context.Context) (*AvailabilitySnapshot, error) {
	snapshot := &AvailabilitySnapshot{HoneyKg: make(map[string]string, len(models.Flavors))}

	for _, flavor := range models.Flavors {
		kg, err := m.redis.GetHoneyAvailability(ctx, string(flavor))
		if err != nil {
			return nil, fmt.Errorf("cached honey availability for %s: %w", flavor, err)
		}
		if kg == "" {
			kg = "0"
		}
		snapshot.HoneyKg[string(flavor)] = kg
	}

	var err error
	if snapshot.Jars, err = m.redis.GetAvailability(ctx, "JARS"); err != nil {
		return nil, fmt.Errorf("cached jar availability: %w", err)
	}
	if snapshot.Labels, err = m.redis.GetAvailability(ctx, "LABELS"); err != nil {
		return nil, fmt.Errorf("cached label availability: %w", err)
	}
	if snapshot.Crates, err = m.redis.GetAvailability(ctx, "CRATES"); err != nil {
		return nil, fmt.Errorf("cached crate availability: %w", err)
	}

	return snapshot, nil
}

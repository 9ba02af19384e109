package store

import (
	"context"
	"errors"
	"fmt"

	"honey-fulfillment/internal/models"
	"honey-fulfillment/internal/util"

	"go.uber.org/zap"
)

// The three discrete packaging pools share one table shape: a versioned
// stock row per item type with available/ordered/delivered unit counters.
// Delivery is the same protocol as honey: record the order's demand, then
// cap the delivery to what is available inside a conditional update on
// row_version.

type unitRow struct {
	Available  int   `db:"available"`
	RowVersion int64 `db:"row_version"`
}

// readUnits loads available counts keyed by the table's item column.
func readUnits(ctx context.Context, s *Store, table, keyColumn string) (map[string]int, error) {
	rows := []struct {
		Key       string `db:"item_key"`
		Available int    `db:"available"`
	}{}
	query := fmt.Sprintf("SELECT %s AS item_key, available FROM %s", keyColumn, table)
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", table, err)
	}
	out := make(map[string]int, len(rows))
	for _, r := range rows {
		out[r.Key] = r.Available
	}
	return out, nil
}

// deliverUnits runs the capped conditional delivery for one item row and
// returns the delivered count. The ordered counter is bumped first so the
// row records demand even when delivery is partial.
func deliverUnits(ctx context.Context, s *Store, pool, table, keyColumn, key string, orderNumber int64, requested int) (int, error) {
	if requested <= 0 {
		return 0, nil
	}

	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s
		                SET ordered = ordered + $1, row_version = row_version + 1, updated_at = NOW()
		              WHERE %s = $2`, table, keyColumn),
		requested, key)
	if err != nil {
		return 0, fmt.Errorf("failed to record order on %s/%s: %w", table, key, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return 0, fmt.Errorf("stock row missing: %s/%s", table, key)
	}

	var delivered int
	err = s.runWithVersionRetry(pool, func(int) (bool, error) {
		var row unitRow
		query := fmt.Sprintf("SELECT available, row_version FROM %s WHERE %s = $1", table, keyColumn)
		if err := s.db.GetContext(ctx, &row, query, key); err != nil {
			return false, fmt.Errorf("failed to read %s/%s: %w", table, key, err)
		}

		willDeliver := requested
		if row.Available < willDeliver {
			willDeliver = row.Available
		}
		if willDeliver < 0 {
			willDeliver = 0
		}

		res, err := s.db.ExecContext(ctx,
			fmt.Sprintf(`UPDATE %s
			                SET delivered   = delivered + $1,
			                    available   = available - $1,
			                    row_version = row_version + 1,
			                    updated_at  = NOW()
			              WHERE %s = $2 AND row_version = $3 AND available >= $1`, table, keyColumn),
			willDeliver, key, row.RowVersion)
		if err != nil {
			return false, fmt.Errorf("failed to deliver from %s/%s: %w", table, key, err)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return false, nil
		}

		reason := "FULL_DELIVERY"
		if willDeliver < requested {
			reason = "PARTIAL_DELIVERY"
		}
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO processing_log (order_number, pool, item_key, requested_qty, delivered_qty, reason)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			orderNumber, pool, key, requested, willDeliver, reason); err != nil {
			util.GetLogger().Error("Failed to write processing log",
				zap.Int64("order_number", orderNumber),
				zap.String("pool", pool),
				zap.Error(err))
		}
		delivered = willDeliver
		return true, nil
	})
	if errors.Is(err, ErrConcurrentUpdate) {
		return 0, fmt.Errorf("%s delivery for %s: %w", pool, key, err)
	}
	if err != nil {
		return 0, err
	}
	return delivered, nil
}

// JarStore is the empty-jar pool, one stock row per jar size.
type JarStore struct {
	s      *Store
	logger *zap.Logger
}

// Jars returns the jar pool view of the store.
func (s *Store) Jars() *JarStore {
	return &JarStore{s: s, logger: util.GetLogger()}
}

// Available returns available jar counts per size.
func (j *JarStore) Available(ctx context.Context) (map[models.JarSize]int, error) {
	raw, err := readUnits(ctx, j.s, "jar_stock", "jar_size")
	if err != nil {
		return nil, err
	}
	out := make(map[models.JarSize]int, len(raw))
	for key, count := range raw {
		out[models.JarSize(key)] = count
	}
	return out, nil
}

// Deliver commits capped jar deliveries per size and returns what was
// actually delivered.
func (j *JarStore) Deliver(ctx context.Context, orderNumber int64, jars map[models.JarSize]int) (map[models.JarSize]int, error) {
	delivered := make(map[models.JarSize]int, len(jars))
	for _, size := range models.JarSizes {
		qty := jars[size]
		if qty <= 0 {
			continue
		}
		got, err := deliverUnits(ctx, j.s, "JARS", "jar_stock", "jar_size", string(size), orderNumber, qty)
		if err != nil {
			return delivered, err
		}
		delivered[size] = got
		j.logger.Info("Jar delivery",
			zap.Int64("order_number", orderNumber),
			zap.String("jar_size", string(size)),
			zap.Int("requested", qty),
			zap.Int("delivered", got))
	}
	return delivered, nil
}

// LabelStore is the label pool, one stock row per label size.
type LabelStore struct {
	s      *Store
	logger *zap.Logger
}

// Labels returns the label pool view of the store.
func (s *Store) Labels() *LabelStore {
	return &LabelStore{s: s, logger: util.GetLogger()}
}

// Available returns available label counts keyed by the jar size they fit
// (1 label = 1 jar).
func (l *LabelStore) Available(ctx context.Context) (map[models.JarSize]int, error) {
	raw, err := readUnits(ctx, l.s, "label_stock", "label_size")
	if err != nil {
		return nil, err
	}
	out := make(map[models.JarSize]int, len(raw))
	for key, count := range raw {
		out[models.JarFor(models.LabelSize(key))] = count
	}
	return out, nil
}

// Deliver commits capped label deliveries, one label per approved jar.
func (l *LabelStore) Deliver(ctx context.Context, orderNumber int64, jars map[models.JarSize]int) (map[models.JarSize]int, error) {
	delivered := make(map[models.JarSize]int, len(jars))
	for _, size := range models.JarSizes {
		qty := jars[size]
		if qty <= 0 {
			continue
		}
		label := models.LabelFor(size)
		got, err := deliverUnits(ctx, l.s, "LABELS", "label_stock", "label_size", string(label), orderNumber, qty)
		if err != nil {
			return delivered, err
		}
		delivered[size] = got
		l.logger.Info("Label delivery",
			zap.Int64("order_number", orderNumber),
			zap.String("label_size", string(label)),
			zap.Int("requested", qty),
			zap.Int("delivered", got))
	}
	return delivered, nil
}

// CrateStore is the shipping-crate pool, one stock row per crate size.
type CrateStore struct {
	s      *Store
	logger *zap.Logger
}

// Crates returns the crate pool view of the store.
func (s *Store) Crates() *CrateStore {
	return &CrateStore{s: s, logger: util.GetLogger()}
}

// Available returns available crate counts per crate size.
func (c *CrateStore) Available(ctx context.Context) (map[models.CrateSize]int, error) {
	raw, err := readUnits(ctx, c.s, "crate_stock", "crate_size")
	if err != nil {
		return nil, err
	}
	out := make(map[models.CrateSize]int, len(raw))
	for key, count := range raw {
		out[models.CrateSize(key)] = count
	}
	return out, nil
}

// Deliver translates approved jar quantities to crate counts (ceil per
// crate size) and commits capped crate deliveries.
func (c *CrateStore) Deliver(ctx context.Context, orderNumber int64, jars map[models.JarSize]int) (map[models.CrateSize]int, error) {
	needed := make(map[models.CrateSize]int)
	for _, size := range models.JarSizes {
		qty := jars[size]
		if qty <= 0 {
			continue
		}
		crate := models.CrateFor(size)
		needed[crate] += crate.CratesNeededForJars(qty)
	}

	delivered := make(map[models.CrateSize]int, len(needed))
	for _, crate := range models.CrateSizes {
		count := needed[crate]
		if count <= 0 {
			continue
		}
		got, err := deliverUnits(ctx, c.s, "CRATES", "crate_stock", "crate_size", string(crate), orderNumber, count)
		if err != nil {
			return delivered, err
		}
		delivered[crate] = got
		c.logger.Info("Crate delivery",
			zap.Int64("order_number", orderNumber),
			zap.String("crate_size", string(crate)),
			zap.Int("requested", count),
			zap.Int("delivered", got))
	}
	return delivered, nil
}

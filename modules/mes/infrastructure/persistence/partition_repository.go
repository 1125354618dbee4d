package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/iota-uz/mes/modules/mes/domain/partition"
	"github.com/iota-uz/mes/pkg/composables"
)

type PartitionRepository struct{}

func NewPartitionRepository() partition.Repository {
	return &PartitionRepository{}
}

func partitionTableName(monthStart time.Time) string {
	return fmt.Sprintf("sensor_readings_y%dm%02d", monthStart.Year(), int(monthStart.Month()))
}

// EnsureMonth is plain DDL guarded by IF NOT EXISTS, so concurrent
// provisioning calls are safe.
func (r *PartitionRepository) EnsureMonth(ctx context.Context, monthStart time.Time) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	monthStart = partition.MonthStart(monthStart)
	monthEnd := monthStart.AddDate(0, 1, 0)
	tableName := partitionTableName(monthStart)

	ddl := fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s PARTITION OF sensor_readings FOR VALUES FROM ('%s') TO ('%s')`,
		tableName,
		monthStart.Format("2006-01-02"),
		monthEnd.Format("2006-01-02"),
	)
	if _, err := tx.Exec(ctx, ddl); err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO sensor_partitions (month_start, table_name)
		VALUES ($1, $2)
		ON CONFLICT (month_start) DO NOTHING
	`, monthStart, tableName)
	return err
}

func (r *PartitionRepository) ProvisionedRange(ctx context.Context) (time.Time, time.Time, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	var from, lastMonth *time.Time
	err = tx.QueryRow(ctx, `
		SELECT MIN(month_start), MAX(month_start) FROM sensor_partitions
	`).Scan(&from, &lastMonth)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if from == nil || lastMonth == nil {
		return time.Time{}, time.Time{}, nil
	}
	return from.UTC(), lastMonth.UTC().AddDate(0, 1, 0), nil
}

func (r *PartitionRepository) List(ctx context.Context) ([]*partition.Partition, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT month_start, table_name, created_at
		FROM sensor_partitions
		ORDER BY month_start
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*partition.Partition
	for rows.Next() {
		var p partition.Partition
		if err := rows.Scan(&p.MonthStart, &p.TableName, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.MonthStart = p.MonthStart.UTC()
		results = append(results, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *PartitionRepository) DropOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}

	partitions, err := r.List(ctx)
	if err != nil {
		return 0, err
	}

	dropped := 0
	for _, p := range partitions {
		// Only drop partitions whose whole range is before the cutoff.
		if !p.MonthStart.AddDate(0, 1, 0).Before(cutoff) {
			continue
		}
		if _, err := tx.Exec(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, p.TableName)); err != nil {
			return dropped, err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM sensor_partitions WHERE month_start = $1`, p.MonthStart); err != nil {
			return dropped, err
		}
		dropped++
	}
	return dropped, nil
}

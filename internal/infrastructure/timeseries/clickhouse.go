// Package timeseries archives energy and space readings to ClickHouse for
// long-range analysis outside the transactional store.
package timeseries

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/smartspace/backend/internal/domain/workspace"
	"github.com/smartspace/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Sink receives readings appended by the processor
type Sink interface {
	ArchiveEnergy(ctx context.Context, readings ...*workspace.EnergyReading) error
	ArchiveSpace(ctx context.Context, readings ...*workspace.SpaceReading) error
	Close() error
}

const createEnergyTable = `
CREATE TABLE IF NOT EXISTS energy_readings (
	id                    UUID,
	company_id            LowCardinality(String),
	timestamp             DateTime64(3, 'UTC'),
	total_consumption     Float64,
	hvac_consumption      Float64,
	lighting_consumption  Float64,
	equipment_consumption Float64,
	cost_per_hour         Decimal(18, 4),
	efficiency_score      Float64,
	carbon_footprint      Float64
) ENGINE = MergeTree()
ORDER BY (company_id, timestamp)`

const createSpaceTable = `
CREATE TABLE IF NOT EXISTS space_readings (
	id                  UUID,
	company_id          LowCardinality(String),
	timestamp           DateTime64(3, 'UTC'),
	overall_utilization Float64,
	total_occupancy     Int32,
	total_capacity      Int32,
	average_temperature Float64,
	average_humidity    Float64,
	average_co2         Float64,
	average_noise       Float64
) ENGINE = MergeTree()
ORDER BY (company_id, timestamp)`

const insertEnergy = `INSERT INTO energy_readings (id, company_id, timestamp, total_consumption, hvac_consumption, lighting_consumption, equipment_consumption, cost_per_hour, efficiency_score, carbon_footprint)`

const insertSpace = `INSERT INTO space_readings (id, company_id, timestamp, overall_utilization, total_occupancy, total_capacity, average_temperature, average_humidity, average_co2, average_noise)`

// ClickHouseSink writes readings in batches through database/sql
type ClickHouseSink struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ Sink = (*ClickHouseSink)(nil)

// Open connects to ClickHouse and prepares the schema
func Open(ctx context.Context, cfg config.ClickHouseConfig, logger *zap.Logger) (*ClickHouseSink, error) {
	db := clickhouse.OpenDB(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout: 5 * time.Second,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	sink := NewClickHouseSink(db, logger)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}
	if err := sink.CreateSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Info("ClickHouse archive connected",
		zap.String("addr", cfg.Addr),
		zap.String("database", cfg.Database),
	)
	return sink, nil
}

// NewClickHouseSink wraps an already opened connection
func NewClickHouseSink(db *sql.DB, logger *zap.Logger) *ClickHouseSink {
	return &ClickHouseSink{db: db, logger: logger.Named("timeseries")}
}

// CreateSchema creates the reading tables when missing
func (s *ClickHouseSink) CreateSchema(ctx context.Context) error {
	for _, ddl := range []string{createEnergyTable, createSpaceTable} {
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("failed to create clickhouse schema: %w", err)
		}
	}
	return nil
}

// ArchiveEnergy inserts energy readings as one batch
func (s *ClickHouseSink) ArchiveEnergy(ctx context.Context, readings ...*workspace.EnergyReading) error {
	if len(readings) == 0 {
		return nil
	}
	return s.batch(ctx, insertEnergy, len(readings), func(stmt *sql.Stmt) error {
		for _, r := range readings {
			if _, err := stmt.ExecContext(ctx,
				r.ID,
				r.CompanyID,
				r.Timestamp.UTC(),
				r.TotalConsumption,
				r.HVACConsumption,
				r.LightingConsumption,
				r.EquipmentConsumption,
				r.CostPerHour.String(),
				r.EfficiencyScore,
				r.CarbonFootprint,
			); err != nil {
				return err
			}
		}
		return nil
	})
}

// ArchiveSpace inserts space readings as one batch
func (s *ClickHouseSink) ArchiveSpace(ctx context.Context, readings ...*workspace.SpaceReading) error {
	if len(readings) == 0 {
		return nil
	}
	return s.batch(ctx, insertSpace, len(readings), func(stmt *sql.Stmt) error {
		for _, r := range readings {
			if _, err := stmt.ExecContext(ctx,
				r.ID,
				r.CompanyID,
				r.Timestamp.UTC(),
				r.OverallUtilization,
				int32(r.TotalOccupancy),
				int32(r.TotalCapacity),
				r.AverageTemperature,
				r.AverageHumidity,
				r.AverageCO2,
				r.AverageNoise,
			); err != nil {
				return err
			}
		}
		return nil
	})
}

// batch follows the clickhouse database/sql convention: rows appended to a
// prepared statement inside a transaction are sent on Commit.
func (s *ClickHouseSink) batch(ctx context.Context, query string, rows int, appendRows func(*sql.Stmt) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin clickhouse batch: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to prepare clickhouse batch: %w", err)
	}
	defer stmt.Close()

	if err := appendRows(stmt); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to append clickhouse rows: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to send clickhouse batch: %w", err)
	}
	s.logger.Debug("Readings archived", zap.Int("rows", rows))
	return nil
}

// Close releases the connection pool
func (s *ClickHouseSink) Close() error {
	return s.db.Close()
}

// NopSink discards readings when no archive is configured
type NopSink struct{}

func (NopSink) ArchiveEnergy(context.Context, ...*workspace.EnergyReading) error { return nil }
func (NopSink) ArchiveSpace(context.Context, ...*workspace.SpaceReading) error   { return nil }
func (NopSink) Close() error                                                     { return nil }

// Package postgres archives each reading as a row when a database is configured.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/gr-butler/envnode/sensors"
	_ "github.com/lib/pq"
	logger "github.com/sirupsen/logrus"
)

const createReadings = `
CREATE TABLE IF NOT EXISTS readings (
	id          BIGSERIAL PRIMARY KEY,
	taken_at    TIMESTAMPTZ NOT NULL,
	temperature DOUBLE PRECISION,
	humidity    DOUBLE PRECISION,
	pressure    DOUBLE PRECISION,
	illuminance DOUBLE PRECISION,
	rain        INTEGER
)`

const insertReading = `
INSERT INTO readings (taken_at, temperature, humidity, pressure, illuminance, rain)
VALUES ($1, $2, $3, $4, $5, $6)`

type Archive struct {
	db *sql.DB
}

// Open connects to url and makes sure the readings table exists.
func Open(ctx context.Context, url string) (*Archive, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, createReadings); err != nil {
		db.Close()
		return nil, fmt.Errorf("create readings table: %w", err)
	}
	logger.Info("Archiving readings to postgres")
	return &Archive{db: db}, nil
}

type WriteRecordParams struct {
	TakenAt     sql.NullTime
	Temperature sql.NullFloat64
	Humidity    sql.NullFloat64
	Pressure    sql.NullFloat64
	Illuminance sql.NullFloat64
	Rain        sql.NullInt32
}

// paramsFor maps a reading to a row. Metrics not read this cycle are NULL.
func paramsFor(r sensors.Reading) WriteRecordParams {
	return WriteRecordParams{
		TakenAt:     sql.NullTime{Time: r.Time, Valid: true},
		Temperature: sql.NullFloat64{Float64: r.Temperature.Float64(), Valid: r.IsValid(sensors.MetricTemperature)},
		Humidity:    sql.NullFloat64{Float64: r.Humidity.Float64(), Valid: r.IsValid(sensors.MetricHumidity)},
		Pressure:    sql.NullFloat64{Float64: r.Pressure.Float64(), Valid: r.IsValid(sensors.MetricPressure)},
		Illuminance: sql.NullFloat64{Float64: r.Illuminance.Float64(), Valid: r.IsValid(sensors.MetricIlluminance)},
		Rain:        sql.NullInt32{Int32: int32(r.Rain), Valid: r.IsValid(sensors.MetricRain)},
	}
}

func (a *Archive) WriteRecord(ctx context.Context, arg WriteRecordParams) error {
	_, err := a.db.ExecContext(ctx, insertReading,
		arg.TakenAt, arg.Temperature, arg.Humidity, arg.Pressure, arg.Illuminance, arg.Rain)
	if err != nil {
		return fmt.Errorf("insert reading: %w", err)
	}
	return nil
}

// Record saves r. Cycles where nothing was read are not stored.
func (a *Archive) Record(ctx context.Context, r sensors.Reading) error {
	if r.Valid == 0 {
		return nil
	}
	logger.Debug("Saving record to db")
	return a.WriteRecord(ctx, paramsFor(r))
}

func (a *Archive) Close() error {
	return a.db.Close()
}

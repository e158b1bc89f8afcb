package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/greenstack-labs/envmon-controller/internal/model"
)

// TickRecord is one persisted evaluation step: the sampled flags, the level
// the decoder ran with, the level latched for the next tick, and the outputs
// produced. InlineDuctFanDemand keeps the suppressed airflow rule output
// visible for audit.
type TickRecord struct {
	ID                  string                `json:"id"`
	CreatedAt           time.Time             `json:"created_at"`
	Reading             model.SensorReading   `json:"reading"`
	AbnormalCount       int                   `json:"abnormal_count"`
	Level               model.SeverityLevel   `json:"-"`
	NextLevel           model.SeverityLevel   `json:"-"`
	LevelName           string                `json:"level"`
	NextLevelName       string                `json:"next_level"`
	WasReset            bool                  `json:"was_reset"`
	Command             model.ActuatorCommand `json:"command"`
	InlineDuctFanDemand bool                  `json:"inline_duct_fan_demand"`
}

// NewTickID returns a fresh sortable record ID.
func NewTickID() string {
	return xid.New().String()
}

// InsertTick stores one tick record.
func InsertTick(db *sql.DB, rec TickRecord) error {
	if rec.ID == "" {
		rec.ID = NewTickID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	_, err := db.Exec(`INSERT INTO ticks
		(id, created_at,
		 temperature_ok, humidity_ok, voc_ok, dust_ok, airflow_ok, light_ok,
		 abnormal_count, level, next_level, was_reset,
		 exhaust_fan, inline_duct_fan, humidifier, dehumidifier, cooling_system, led_light,
		 inline_duct_fan_demand)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.CreatedAt.Format(time.RFC3339Nano),
		rec.Reading.Temperature, rec.Reading.Humidity, rec.Reading.VOC,
		rec.Reading.Dust, rec.Reading.Airflow, rec.Reading.Light,
		rec.AbnormalCount, rec.Level.String(), rec.NextLevel.String(), rec.WasReset,
		rec.Command.ExhaustFan, rec.Command.InlineDuctFan, rec.Command.Humidifier,
		rec.Command.Dehumidifier, rec.Command.CoolingSystem, rec.Command.LEDLight,
		rec.InlineDuctFanDemand)
	if err != nil {
		return fmt.Errorf("failed to insert tick record: %w", err)
	}
	return nil
}

// GetLatestTick returns the most recent tick record, or nil when no tick has
// been recorded yet.
func GetLatestTick(db *sql.DB) (*TickRecord, error) {
	rows, err := db.Query(selectTicks + ` ORDER BY id DESC LIMIT 1`)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest tick: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	rec, err := scanTick(rows)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetRecentTicks returns up to limit tick records, newest first.
func GetRecentTicks(db *sql.DB, limit int) ([]TickRecord, error) {
	rows, err := db.Query(selectTicks+` ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query tick history: %w", err)
	}
	defer rows.Close()

	var records []TickRecord
	for rows.Next() {
		rec, err := scanTick(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetLevelCounts returns how many recorded ticks latched each severity
// level.
func GetLevelCounts(db *sql.DB) (map[string]int, error) {
	rows, err := db.Query(`SELECT next_level, COUNT(*) FROM ticks GROUP BY next_level`)
	if err != nil {
		return nil, fmt.Errorf("failed to query level counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var level string
		var count int
		if err := rows.Scan(&level, &count); err != nil {
			return nil, fmt.Errorf("failed to scan level count: %w", err)
		}
		counts[level] = count
	}
	return counts, rows.Err()
}

const selectTicks = `SELECT id, created_at,
	temperature_ok, humidity_ok, voc_ok, dust_ok, airflow_ok, light_ok,
	abnormal_count, level, next_level, was_reset,
	exhaust_fan, inline_duct_fan, humidifier, dehumidifier, cooling_system, led_light,
	inline_duct_fan_demand
	FROM ticks`

func scanTick(rows *sql.Rows) (TickRecord, error) {
	var rec TickRecord
	var createdAt, level, nextLevel string

	err := rows.Scan(&rec.ID, &createdAt,
		&rec.Reading.Temperature, &rec.Reading.Humidity, &rec.Reading.VOC,
		&rec.Reading.Dust, &rec.Reading.Airflow, &rec.Reading.Light,
		&rec.AbnormalCount, &level, &nextLevel, &rec.WasReset,
		&rec.Command.ExhaustFan, &rec.Command.InlineDuctFan, &rec.Command.Humidifier,
		&rec.Command.Dehumidifier, &rec.Command.CoolingSystem, &rec.Command.LEDLight,
		&rec.InlineDuctFanDemand)
	if err != nil {
		return rec, fmt.Errorf("failed to scan tick record: %w", err)
	}

	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	rec.Level, _ = model.LevelFromName(level)
	rec.NextLevel, _ = model.LevelFromName(nextLevel)
	rec.LevelName = level
	rec.NextLevelName = nextLevel
	return rec, nil
}

package recorder

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"GarchSentinel/internal/model"
)

// SQLiteRecorder persists prediction history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS predictions (
			id                   TEXT PRIMARY KEY,
			timestamp            INTEGER NOT NULL,
			asset                TEXT NOT NULL,
			current_price        REAL NOT NULL,
			predicted_volatility REAL NOT NULL,
			signal               TEXT NOT NULL,
			policy               TEXT,
			threshold_low        REAL,
			threshold_high       REAL,
			model                TEXT,
			model_params         TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_predictions_ts ON predictions(timestamp)`,

		`CREATE TABLE IF NOT EXISTS notifications (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp     INTEGER NOT NULL,
			prediction_id TEXT,
			channel       TEXT NOT NULL,
			signal        TEXT,
			delivered     INTEGER NOT NULL,
			error         TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_ts ON notifications(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordPrediction(ctx context.Context, p *model.Prediction) error {
	params, err := json.Marshal(p.ModelParams)
	if err != nil {
		return fmt.Errorf("encode model params: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, err = r.db.ExecContext(ctx, `INSERT INTO predictions
		(id, timestamp, asset, current_price, predicted_volatility, signal,
		 policy, threshold_low, threshold_high, model, model_params)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		p.ID, p.Timestamp.UnixMilli(), p.Asset, p.Price, p.PredictedVolatility, string(p.Signal),
		p.Policy, finite(p.ThresholdLow), finite(p.ThresholdHigh), p.Model, string(params),
	)
	return err
}

func (r *SQLiteRecorder) RecordNotification(ctx context.Context, evt *NotificationEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delivered := 0
	if evt.Delivered {
		delivered = 1
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO notifications
		(timestamp, prediction_id, channel, signal, delivered, error)
		VALUES (?,?,?,?,?,?)`,
		evt.Timestamp.UnixMilli(), evt.PredictionID, evt.Channel, string(evt.Signal), delivered, evt.Error,
	)
	return err
}

const selectPredictions = `SELECT id, timestamp, asset, current_price, predicted_volatility, signal,
	policy, threshold_low, threshold_high, model, model_params FROM predictions`

func (r *SQLiteRecorder) RecentPredictions(ctx context.Context, limit int) ([]model.Prediction, error) {
	if limit <= 0 {
		limit = math.MaxInt32
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.QueryContext(ctx, selectPredictions+` ORDER BY timestamp DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query predictions: %w", err)
	}
	defer rows.Close()

	var out []model.Prediction
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// newest first from the query; callers want chronological order
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (r *SQLiteRecorder) LastPrediction(ctx context.Context) (*model.Prediction, error) {
	preds, err := r.RecentPredictions(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(preds) == 0 {
		return nil, nil
	}
	return &preds[0], nil
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPrediction(s scanner) (model.Prediction, error) {
	var (
		p       model.Prediction
		ts      int64
		signal  string
		policy  sql.NullString
		low     sql.NullFloat64
		high    sql.NullFloat64
		modelNm sql.NullString
		params  sql.NullString
	)
	if err := s.Scan(&p.ID, &ts, &p.Asset, &p.Price, &p.PredictedVolatility, &signal,
		&policy, &low, &high, &modelNm, &params); err != nil {
		return p, fmt.Errorf("scan prediction: %w", err)
	}
	p.Timestamp = time.UnixMilli(ts).UTC()
	p.Signal = model.Signal(signal)
	p.Policy = policy.String
	p.ThresholdLow = low.Float64
	p.ThresholdHigh = high.Float64
	p.Model = modelNm.String
	if params.Valid && params.String != "" && params.String != "null" {
		if err := json.Unmarshal([]byte(params.String), &p.ModelParams); err != nil {
			return p, fmt.Errorf("decode model params: %w", err)
		}
	}
	return p, nil
}

// finite maps NaN and infinities to NULL.
func finite(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

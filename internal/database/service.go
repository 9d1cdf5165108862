package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"

	"barter-trade-go/internal/models"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Service owns the SQLite connection and the schema. It is the single
// transactional boundary: trade, ledger and credit operations all run inside
// transactions begun here.
type Service struct {
	db *sql.DB
}

func NewService(ctx context.Context, cfg models.DatabaseConfig) (*Service, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if cfg.MaxOpenConns <= 0 {
		return nil, fmt.Errorf("max open connections must be positive, got %d", cfg.MaxOpenConns)
	}
	if cfg.PingTimeout <= 0 {
		return nil, fmt.Errorf("ping timeout must be positive, got %v", cfg.PingTimeout)
	}

	zap.L().Info("Opening SQLite database", zap.String("file", cfg.Path))
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	service := &Service{db: db}
	if err := service.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("unable to initialize schema: %w", err)
	}

	zap.L().Info("Database service initialized")
	return service, nil
}

// testDBCounter gives each test database a unique shared-cache name so the
// in-memory schema survives across pooled connections.
var testDBCounter atomic.Int64

// NewTestService opens an in-memory database with the full schema. Test helper.
func NewTestService() (*Service, error) {
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", testDBCounter.Add(1))
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	service := &Service{db: db}
	if err := service.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return service, nil
}

func (s *Service) Close() {
	if err := s.db.Close(); err != nil {
		zap.L().Warn("Failed to close database connection", zap.Error(err))
	}
}

// DB exposes the underlying handle for services that begin their own
// transactions.
func (s *Service) DB() *sql.DB {
	return s.db
}

func (s *Service) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		credit_score INTEGER NOT NULL DEFAULT 100,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		owner_id INTEGER NOT NULL REFERENCES users(id),
		status TEXT NOT NULL DEFAULT 'AVAILABLE',
		previous_owner_id INTEGER REFERENCES users(id),
		traded_for_item_id INTEGER REFERENCES items(id),
		traded_at TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_items_owner ON items(owner_id);
	CREATE INDEX IF NOT EXISTS idx_items_status ON items(status);

	CREATE TABLE IF NOT EXISTS trade_requests (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		requester_id INTEGER NOT NULL REFERENCES users(id),
		target_item_id INTEGER NOT NULL REFERENCES items(id),
		offered_item_id INTEGER NOT NULL REFERENCES items(id),
		target_owner_id INTEGER NOT NULL REFERENCES users(id),
		message TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'PENDING',
		trade_mode TEXT NOT NULL DEFAULT 'IN_PERSON',
		estimated_value TEXT NOT NULL DEFAULT '0',
		confirm_state TEXT NOT NULL DEFAULT 'NONE',
		requester_tracking_no TEXT NOT NULL DEFAULT '',
		target_tracking_no TEXT NOT NULL DEFAULT '',
		requester_shipped_at TIMESTAMP,
		target_shipped_at TIMESTAMP,
		requester_deposit_paid INTEGER NOT NULL DEFAULT 0,
		target_deposit_paid INTEGER NOT NULL DEFAULT 0,
		version INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_trades_requester ON trade_requests(requester_id);
	CREATE INDEX IF NOT EXISTS idx_trades_target_owner ON trade_requests(target_owner_id);
	CREATE INDEX IF NOT EXISTS idx_trades_target_item ON trade_requests(target_item_id);
	CREATE INDEX IF NOT EXISTS idx_trades_status ON trade_requests(status);

	CREATE TABLE IF NOT EXISTS trade_deposits (
		id TEXT PRIMARY KEY,
		trade_id INTEGER NOT NULL REFERENCES trade_requests(id),
		user_id INTEGER NOT NULL REFERENCES users(id),
		points_amount INTEGER NOT NULL DEFAULT 0,
		cash_amount TEXT NOT NULL DEFAULT '0',
		status TEXT NOT NULL DEFAULT 'PENDING',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		released_at TIMESTAMP,
		UNIQUE(trade_id, user_id)
	);

	CREATE INDEX IF NOT EXISTS idx_deposits_trade ON trade_deposits(trade_id);

	CREATE TABLE IF NOT EXISTS wallets (
		user_id INTEGER PRIMARY KEY REFERENCES users(id),
		points INTEGER NOT NULL DEFAULT 0,
		balance TEXT NOT NULL DEFAULT '0',
		frozen_points INTEGER NOT NULL DEFAULT 0,
		frozen_balance TEXT NOT NULL DEFAULT '0',
		last_sign_in_day TEXT NOT NULL DEFAULT '',
		sign_in_streak INTEGER NOT NULL DEFAULT 0,
		version INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS wallet_transactions (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES users(id),
		type TEXT NOT NULL,
		points_change INTEGER NOT NULL DEFAULT 0,
		balance_change TEXT NOT NULL DEFAULT '0',
		points_after INTEGER NOT NULL DEFAULT 0,
		balance_after TEXT NOT NULL DEFAULT '0',
		description TEXT NOT NULL DEFAULT '',
		related_id INTEGER,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_wallet_txns_user ON wallet_transactions(user_id, created_at);

	CREATE TABLE IF NOT EXISTS credit_records (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES users(id),
		type TEXT NOT NULL,
		score_change INTEGER NOT NULL,
		score_after INTEGER NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		related_id INTEGER,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_credit_records_user ON credit_records(user_id, created_at);

	CREATE TABLE IF NOT EXISTS notifications (
		id TEXT PRIMARY KEY,
		recipient_id INTEGER NOT NULL REFERENCES users(id),
		kind TEXT NOT NULL DEFAULT 'TRADE',
		title TEXT NOT NULL,
		body TEXT NOT NULL DEFAULT '',
		related_id INTEGER,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications(recipient_id, created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

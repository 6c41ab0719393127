package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3" // SQLite driver and error codes

	"tradeJournal/internal/domain"
	"tradeJournal/internal/ports"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Repository implements ports.LedgerStore using SQLite.
type Repository struct {
	*queries
	db *sql.DB
}

// queries implements ports.LedgerTx over either the pool or an open transaction.
type queries struct {
	q      querier
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository opens (creating if needed) the database file and initializes the schema.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/trade_journal.db" // Default path
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// One connection serialises writers; the ledger assumes a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cfg.Logger.Info(context.Background(), "SQLite database connection established", map[string]interface{}{"path": dbPath})

	repo := NewRepositoryFromDB(db, cfg.Logger)
	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Info(context.Background(), "Database schema initialized/verified")

	return repo, nil
}

// NewRepositoryFromDB wraps an already open database without touching the schema.
func NewRepositoryFromDB(db *sql.DB, logger ports.Logger) *Repository {
	return &Repository{
		queries: &queries{q: db, logger: logger},
		db:      db,
	}
}

func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS trades (
		id TEXT PRIMARY KEY,
		opened_at TIMESTAMP NOT NULL,
		closed_at TIMESTAMP DEFAULT NULL,
		symbol TEXT NOT NULL,
		side TEXT DEFAULT NULL,
		size REAL DEFAULT NULL,
		entry_price REAL DEFAULT NULL,
		exit_price REAL DEFAULT NULL,
		pnl REAL DEFAULT NULL,
		take_profit REAL DEFAULT NULL,
		stop_loss REAL DEFAULT NULL,
		tier TEXT NOT NULL,
		calculated_fee REAL NOT NULL DEFAULT 0,
		volume_contribution REAL NOT NULL DEFAULT 0,
		CHECK ((closed_at IS NULL) = (exit_price IS NULL))
	);

	CREATE TABLE IF NOT EXISTS balances (
		symbol TEXT PRIMARY KEY,
		amount REAL NOT NULL DEFAULT 0 CHECK (amount >= 0)
	);

	CREATE TABLE IF NOT EXISTS config_values (
		key TEXT PRIMARY KEY,
		value REAL NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_trades_opened_at ON trades (opened_at);
	CREATE INDEX IF NOT EXISTS idx_trades_closed_at ON trades (closed_at);
	CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades (symbol);
	`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", ports.ErrPersistence, err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// WithinTx runs fn inside a database transaction.
func (r *Repository) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.LedgerTx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w: %w", ports.ErrPersistence, err)
	}

	if err := fn(ctx, &queries{q: tx, logger: r.logger}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			r.logger.Error(ctx, rbErr, "Failed to roll back transaction")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w: %w", ports.ErrPersistence, err)
	}
	return nil
}

// --- TradeRepository Implementation ---

const tradeColumns = `id, opened_at, closed_at, symbol, side, size, entry_price, exit_price, pnl,
	take_profit, stop_loss, tier, calculated_fee, volume_contribution`

// GetTrade retrieves a trade by id.
func (r *queries) GetTrade(ctx context.Context, id string) (*domain.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE id = ?`

	trade, err := scanTrade(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Debug(ctx, "Trade not found by ID", map[string]interface{}{"tradeID": id})
			return nil, nil // Not an error, just not found
		}
		return nil, fmt.Errorf("failed to query trade %s: %w: %w", id, ports.ErrPersistence, err)
	}
	return trade, nil
}

// ListTrades returns trades matching filter, newest first.
func (r *queries) ListTrades(ctx context.Context, filter ports.TradeFilter) ([]*domain.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE 1 = 1`
	var args []interface{}
	switch filter.Status {
	case domain.StatusOpen:
		query += ` AND exit_price IS NULL`
	case domain.StatusClosed:
		query += ` AND exit_price IS NOT NULL`
	}
	if filter.Symbol != "" {
		query += ` AND symbol = ?`
		args = append(args, filter.Symbol)
	}
	query += ` ORDER BY opened_at DESC, id DESC`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w: %w", ports.ErrPersistence, err)
	}
	defer rows.Close()

	trades := make([]*domain.Trade, 0)
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade during ListTrades: %w: %w", ports.ErrPersistence, err)
		}
		trades = append(trades, trade)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trade rows: %w: %w", ports.ErrPersistence, err)
	}
	return trades, nil
}

// InsertTrade stores a new trade.
func (r *queries) InsertTrade(ctx context.Context, t *domain.Trade) error {
	query := `INSERT INTO trades (` + tradeColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.q.ExecContext(ctx, query,
		t.ID, t.OpenedAt.UTC(), nullTime(t.ClosedAt), t.Symbol, nullSide(t.Side),
		nullFloat(t.Size), nullFloat(t.EntryPrice), nullFloat(t.ExitPrice), nullFloat(t.PNL),
		nullFloat(t.TakeProfit), nullFloat(t.StopLoss), t.Tier, t.CalculatedFee, t.VolumeContribution)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("trade id %s already exists: %w", t.ID, ports.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to insert trade for symbol %s: %w: %w", t.Symbol, ports.ErrPersistence, err)
	}
	r.logger.Debug(ctx, "Trade inserted", map[string]interface{}{"tradeID": t.ID, "symbol": t.Symbol})
	return nil
}

// UpdateTrade overwrites the mutable columns of a trade.
func (r *queries) UpdateTrade(ctx context.Context, t *domain.Trade) error {
	const query = `
	UPDATE trades
	SET closed_at = ?, symbol = ?, side = ?, size = ?, entry_price = ?, exit_price = ?, pnl = ?,
	    take_profit = ?, stop_loss = ?, calculated_fee = ?, volume_contribution = ?
	WHERE id = ?`

	result, err := r.q.ExecContext(ctx, query,
		nullTime(t.ClosedAt), t.Symbol, nullSide(t.Side), nullFloat(t.Size), nullFloat(t.EntryPrice),
		nullFloat(t.ExitPrice), nullFloat(t.PNL), nullFloat(t.TakeProfit), nullFloat(t.StopLoss),
		t.CalculatedFee, t.VolumeContribution, t.ID)
	if err != nil {
		return fmt.Errorf("failed to update trade %s: %w: %w", t.ID, ports.ErrPersistence, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for update trade %s: %w: %w", t.ID, ports.ErrPersistence, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("trade %s not found for update: %w", t.ID, ports.ErrNotFound)
	}
	r.logger.Debug(ctx, "Trade updated", map[string]interface{}{"tradeID": t.ID, "status": t.Status()})
	return nil
}

// DeleteTrade removes a trade.
func (r *queries) DeleteTrade(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM trades WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete trade %s: %w: %w", id, ports.ErrPersistence, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for delete trade %s: %w: %w", id, ports.ErrPersistence, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("trade %s not found for delete: %w", id, ports.ErrNotFound)
	}
	r.logger.Debug(ctx, "Trade deleted", map[string]interface{}{"tradeID": id})
	return nil
}

// --- BalanceRepository Implementation ---

// GetBalance retrieves the balance row for symbol.
func (r *queries) GetBalance(ctx context.Context, symbol string) (*domain.Balance, error) {
	bal := &domain.Balance{}
	err := r.q.QueryRowContext(ctx, `SELECT symbol, amount FROM balances WHERE symbol = ?`, symbol).
		Scan(&bal.Symbol, &bal.Amount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query balance for %s: %w: %w", symbol, ports.ErrPersistence, err)
	}
	return bal, nil
}

// SaveBalance upserts a balance row.
func (r *queries) SaveBalance(ctx context.Context, bal *domain.Balance) error {
	const query = `
	INSERT INTO balances (symbol, amount) VALUES (?, ?)
	ON CONFLICT(symbol) DO UPDATE SET amount = excluded.amount`

	if _, err := r.q.ExecContext(ctx, query, bal.Symbol, bal.Amount); err != nil {
		return fmt.Errorf("failed to save balance for %s: %w: %w", bal.Symbol, ports.ErrPersistence, err)
	}
	r.logger.Debug(ctx, "Balance saved", map[string]interface{}{"symbol": bal.Symbol, "amount": bal.Amount})
	return nil
}

// ListBalances returns all balance rows ordered by symbol.
func (r *queries) ListBalances(ctx context.Context) ([]*domain.Balance, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT symbol, amount FROM balances ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("failed to query balances: %w: %w", ports.ErrPersistence, err)
	}
	defer rows.Close()

	balances := make([]*domain.Balance, 0)
	for rows.Next() {
		bal := &domain.Balance{}
		if err := rows.Scan(&bal.Symbol, &bal.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan balance: %w: %w", ports.ErrPersistence, err)
		}
		balances = append(balances, bal)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating balance rows: %w: %w", ports.ErrPersistence, err)
	}
	return balances, nil
}

// --- CounterRepository Implementation ---

// GetCounter returns the value stored under key.
func (r *queries) GetCounter(ctx context.Context, key string) (float64, bool, error) {
	var value float64
	err := r.q.QueryRowContext(ctx, `SELECT value FROM config_values WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to read counter %s: %w: %w", key, ports.ErrPersistence, err)
	}
	return value, true, nil
}

// SetCounter upserts the value stored under key.
func (r *queries) SetCounter(ctx context.Context, key string, value float64) error {
	const query = `
	INSERT INTO config_values (key, value) VALUES (?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value`

	if _, err := r.q.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to write counter %s: %w: %w", key, ports.ErrPersistence, err)
	}
	return nil
}

// --- Helper Scan Functions ---

// scanner defines an interface compatible with *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanTrade scans a row selected with tradeColumns into a domain.Trade.
func scanTrade(s scanner) (*domain.Trade, error) {
	t := &domain.Trade{}
	var (
		closedAt                               sql.NullTime
		side                                   sql.NullString
		size, entry, exit, pnl, takeProfit, sl sql.NullFloat64
	)
	err := s.Scan(
		&t.ID, &t.OpenedAt, &closedAt, &t.Symbol, &side, &size, &entry, &exit, &pnl,
		&takeProfit, &sl, &t.Tier, &t.CalculatedFee, &t.VolumeContribution)
	if err != nil {
		return nil, err // Handle sql.ErrNoRows in the caller
	}
	t.OpenedAt = t.OpenedAt.UTC()
	if closedAt.Valid {
		ts := closedAt.Time.UTC()
		t.ClosedAt = &ts
	}
	if side.Valid {
		t.Side = domain.Side(side.String)
	}
	t.Size = floatPtr(size)
	t.EntryPrice = floatPtr(entry)
	t.ExitPrice = floatPtr(exit)
	t.PNL = floatPtr(pnl)
	t.TakeProfit = floatPtr(takeProfit)
	t.StopLoss = floatPtr(sl)
	return t, nil
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func nullTime(p *time.Time) sql.NullTime {
	if p == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: p.UTC(), Valid: true}
}

func nullSide(s domain.Side) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: string(s), Valid: true}
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

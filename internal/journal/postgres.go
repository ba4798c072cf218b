package journal

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// PostgresJournal implements Journal using PostgreSQL.
type PostgresJournal struct {
	db     *sql.DB
	logger *zap.Logger
}

// PostgresConfig holds PostgreSQL configuration.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	Logger   *zap.Logger
}

// NewPostgresJournal creates a new PostgreSQL journal.
func NewPostgresJournal(cfg *PostgresConfig) (*PostgresJournal, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	err = db.Ping()
	if err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	cfg.Logger.Info("postgres-journal-connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return &PostgresJournal{
		db:     db,
		logger: cfg.Logger,
	}, nil
}

// RecordAttempt persists one relay attempt.
func (p *PostgresJournal) RecordAttempt(ctx context.Context, attempt *Attempt) error {
	query := `
		INSERT INTO relay_attempts (
			id, worker, verifying_contract,
			taker_amount_requested, taker_amount_filled, maker_amount_filled,
			gas_limit, gas_price_wei, tx_hash, status, failure_kind, attempted_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)
	`

	_, err := p.db.ExecContext(ctx, query,
		attempt.ID,
		attempt.Worker,
		attempt.VerifyingContract,
		attempt.TakerAmountRequested,
		attempt.TakerAmountFilled,
		attempt.MakerAmountFilled,
		attempt.GasLimit,
		attempt.GasPriceWei,
		attempt.TxHash,
		string(attempt.Status),
		attempt.FailureKind,
		attempt.AttemptedAt,
	)
	if err != nil {
		return fmt.Errorf("insert relay attempt: %w", err)
	}

	p.logger.Debug("relay-attempt-recorded",
		zap.String("id", attempt.ID),
		zap.String("status", string(attempt.Status)))

	return nil
}

// Close closes the database connection.
func (p *PostgresJournal) Close() error {
	return p.db.Close()
}

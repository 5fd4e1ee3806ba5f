package ledger

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/GrimoireLabs/grimoire/pkg"
	cn "github.com/GrimoireLabs/grimoire/pkg/constant"
	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
	"github.com/GrimoireLabs/grimoire/pkg/mopentelemetry"
	"github.com/GrimoireLabs/grimoire/pkg/mpostgres"
	"github.com/google/uuid"
)

// LedgerPostgreSQLRepository is a Postgresql-specific implementation of the ledger Repository.
type LedgerPostgreSQLRepository struct {
	connection *mpostgres.PostgresConnection
}

// NewLedgerPostgreSQLRepository returns a new instance of LedgerPostgreSQLRepository using the given Postgres connection.
func NewLedgerPostgreSQLRepository(pc *mpostgres.PostgresConnection) *LedgerPostgreSQLRepository {
	r := &LedgerPostgreSQLRepository{
		connection: pc,
	}

	_, err := r.connection.GetDB(context.Background())
	if err != nil {
		panic("Failed to connect database")
	}

	return r
}

// Balance returns the user's materialized position, zero-valued when absent.
func (r *LedgerPostgreSQLRepository) Balance(ctx context.Context, userID uuid.UUID) (*mmodel.Balance, error) {
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.ledger.balance")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to get database connection", err)

		return nil, err
	}

	balance := &mmodel.Balance{UserID: userID}

	row := db.QueryRowContext(ctx,
		`SELECT available, on_hold, updated_at, version FROM credit_balance WHERE user_id = $1`,
		userID)

	err = row.Scan(&balance.Available, &balance.OnHold, &balance.UpdatedAt, &balance.Version)
	if errors.Is(err, sql.ErrNoRows) {
		balance.UpdatedAt = time.Now()

		return balance, nil
	}

	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to scan balance", err)

		return nil, err
	}

	return balance, nil
}

// Reserve appends a tentative debit keyed by generationID, linearized on the user's
// balance row. The journal entry carries the debit so that the sum of a user's
// entries always equals their available balance.
func (r *LedgerPostgreSQLRepository) Reserve(ctx context.Context, userID uuid.UUID, amount int64, generationID uuid.UUID) error {
	logger := pkg.NewLoggerFromContext(ctx)
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.ledger.reserve")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to get database connection", err)

		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to begin transaction", err)

		return err
	}
	defer tx.Rollback()

	var existing string

	err = tx.QueryRowContext(ctx,
		`SELECT state FROM credit_reserve WHERE generation_id = $1`, generationID).Scan(&existing)
	if err == nil {
		// Idempotent: the reserve is already admitted.
		return tx.Commit()
	}

	if !errors.Is(err, sql.ErrNoRows) {
		mopentelemetry.HandleSpanError(&span, "Failed to look up reserve", err)

		return err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO credit_balance (user_id, available, on_hold, updated_at, version)
		 VALUES ($1, 0, 0, now(), 0)
		 ON CONFLICT (user_id) DO NOTHING`, userID); err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to ensure balance row", err)

		return err
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE credit_balance
		 SET available = available - $2, on_hold = on_hold + $2, updated_at = now(), version = version + 1
		 WHERE user_id = $1 AND available >= $2`, userID, amount)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to debit balance", err)

		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		logger.Infof("Reserve refused for user %s: insufficient credits for %d", userID, amount)

		return pkg.ValidateBusinessError(cn.ErrInsufficientCredits, "Ledger")
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO credit_reserve (generation_id, user_id, amount, state, created_at)
		 VALUES ($1, $2, $3, $4, now())`, generationID, userID, amount, cn.ReserveHeld); err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to insert reserve", err)

		return err
	}

	if err := r.appendEntry(ctx, tx, userID, -amount, cn.ReasonDebit, &generationID, nil); err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to append reserve entry", err)

		return err
	}

	return tx.Commit()
}

// Commit settles a held reserve: the hold is lifted, at most the reserved amount is
// charged, and any overage flows back to available with a refund entry.
func (r *LedgerPostgreSQLRepository) Commit(ctx context.Context, generationID uuid.UUID, charged int64) error {
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.ledger.commit")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to get database connection", err)

		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	reserve, err := r.lockHeldReserve(ctx, tx, generationID)
	if err != nil {
		return err
	}

	if reserve == nil {
		// Idempotent: already settled or never reserved.
		return tx.Commit()
	}

	if charged > reserve.Amount || charged < 0 {
		charged = reserve.Amount
	}

	refund := reserve.Amount - charged

	if _, err := tx.ExecContext(ctx,
		`UPDATE credit_balance
		 SET on_hold = on_hold - $2, available = available + $3, updated_at = now(), version = version + 1
		 WHERE user_id = $1`, reserve.UserID, reserve.Amount, refund); err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to settle balance", err)

		return err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE credit_reserve SET state = $2, settled_at = now() WHERE generation_id = $1`,
		generationID, cn.ReserveCommitted); err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to mark reserve committed", err)

		return err
	}

	if refund > 0 {
		if err := r.appendEntry(ctx, tx, reserve.UserID, refund, cn.ReasonRefund, &generationID, nil); err != nil {
			mopentelemetry.HandleSpanError(&span, "Failed to append refund entry", err)

			return err
		}
	}

	return tx.Commit()
}

// Release reverses a held reserve, returning the full amount to available.
func (r *LedgerPostgreSQLRepository) Release(ctx context.Context, generationID uuid.UUID, reason string) error {
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.ledger.release")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to get database connection", err)

		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	reserve, err := r.lockHeldReserve(ctx, tx, generationID)
	if err != nil {
		return err
	}

	if reserve == nil {
		return tx.Commit()
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE credit_balance
		 SET on_hold = on_hold - $2, available = available + $2, updated_at = now(), version = version + 1
		 WHERE user_id = $1`, reserve.UserID, reserve.Amount); err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to release balance hold", err)

		return err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE credit_reserve SET state = $2, settled_at = now() WHERE generation_id = $1`,
		generationID, cn.ReserveReleased); err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to mark reserve released", err)

		return err
	}

	if err := r.appendEntry(ctx, tx, reserve.UserID, reserve.Amount, cn.ReasonRefund, &generationID, nil); err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to append release entry", err)

		return err
	}

	return tx.Commit()
}

// Credit appends a deposit-sourced credit keyed by chainEventID. The unique index on
// chain_event_id makes repeated credits of the same event a no-op.
func (r *LedgerPostgreSQLRepository) Credit(ctx context.Context, chainEventID string, userID uuid.UUID, amount int64) error {
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.ledger.credit")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to get database connection", err)

		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO credit_balance (user_id, available, on_hold, updated_at, version)
		 VALUES ($1, 0, 0, now(), 0)
		 ON CONFLICT (user_id) DO NOTHING`, userID); err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to ensure balance row", err)

		return err
	}

	var sequence int64

	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(sequence), 0) + 1 FROM ledger_entry WHERE user_id = $1`, userID).Scan(&sequence); err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to compute sequence", err)

		return err
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO ledger_entry (id, user_id, amount, reason, chain_event_id, sequence, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, now())
		 ON CONFLICT (chain_event_id) DO NOTHING`,
		pkg.GenerateUUIDv7(), userID, amount, cn.ReasonDeposit, chainEventID, sequence)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to insert credit entry", err)

		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		// At-most-once: this chain event already credited the user.
		return tx.Commit()
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE credit_balance
		 SET available = available + $2, updated_at = now(), version = version + 1
		 WHERE user_id = $1`, userID, amount); err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to credit balance", err)

		return err
	}

	return tx.Commit()
}

// Entries lists the journal of a user, newest first.
func (r *LedgerPostgreSQLRepository) Entries(ctx context.Context, userID uuid.UUID, limit int) ([]*mmodel.LedgerEntry, error) {
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.ledger.entries")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to get database connection", err)

		return nil, err
	}

	if limit <= 0 {
		limit = 50
	}

	rows, err := db.QueryContext(ctx,
		`SELECT id, user_id, amount, reason, generation_id, chain_event_id, sequence, created_at
		 FROM ledger_entry WHERE user_id = $1 ORDER BY sequence DESC LIMIT $2`, userID, limit)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to query entries", err)

		return nil, err
	}
	defer rows.Close()

	var entries []*mmodel.LedgerEntry

	for rows.Next() {
		entry := &mmodel.LedgerEntry{}

		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Amount, &entry.Reason,
			&entry.GenerationID, &entry.ChainEventID, &entry.Sequence, &entry.CreatedAt); err != nil {
			return nil, err
		}

		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// StaleReserves returns held reserves created before cutoff, for the janitor.
func (r *LedgerPostgreSQLRepository) StaleReserves(ctx context.Context, cutoff time.Time) ([]*mmodel.Reserve, error) {
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.ledger.stale_reserves")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to get database connection", err)

		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT generation_id, user_id, amount, state, created_at, settled_at
		 FROM credit_reserve WHERE state = $1 AND created_at < $2`, cn.ReserveHeld, cutoff)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to query stale reserves", err)

		return nil, err
	}
	defer rows.Close()

	var reserves []*mmodel.Reserve

	for rows.Next() {
		reserve := &mmodel.Reserve{}

		if err := rows.Scan(&reserve.GenerationID, &reserve.UserID, &reserve.Amount,
			&reserve.State, &reserve.CreatedAt, &reserve.SettledAt); err != nil {
			return nil, err
		}

		reserves = append(reserves, reserve)
	}

	return reserves, rows.Err()
}

// FindReserve returns the reserve keyed by generationID, if any.
func (r *LedgerPostgreSQLRepository) FindReserve(ctx context.Context, generationID uuid.UUID) (*mmodel.Reserve, error) {
	db, err := r.connection.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	reserve := &mmodel.Reserve{}

	err = db.QueryRowContext(ctx,
		`SELECT generation_id, user_id, amount, state, created_at, settled_at
		 FROM credit_reserve WHERE generation_id = $1`, generationID).
		Scan(&reserve.GenerationID, &reserve.UserID, &reserve.Amount,
			&reserve.State, &reserve.CreatedAt, &reserve.SettledAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return reserve, nil
}

// lockHeldReserve loads and row-locks a reserve still in the held state. A nil
// result with nil error means nothing is left to settle.
func (r *LedgerPostgreSQLRepository) lockHeldReserve(ctx context.Context, tx *sql.Tx, generationID uuid.UUID) (*mmodel.Reserve, error) {
	reserve := &mmodel.Reserve{}

	err := tx.QueryRowContext(ctx,
		`SELECT generation_id, user_id, amount, state, created_at
		 FROM credit_reserve WHERE generation_id = $1 AND state = $2 FOR UPDATE`,
		generationID, cn.ReserveHeld).
		Scan(&reserve.GenerationID, &reserve.UserID, &reserve.Amount, &reserve.State, &reserve.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return reserve, nil
}

func (r *LedgerPostgreSQLRepository) appendEntry(ctx context.Context, tx *sql.Tx, userID uuid.UUID, amount int64, reason string, generationID *uuid.UUID, chainEventID *string) error {
	var sequence int64

	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(sequence), 0) + 1 FROM ledger_entry WHERE user_id = $1`, userID).Scan(&sequence); err != nil {
		return err
	}

	_, err := tx.ExecContext(ctx,
		`INSERT INTO ledger_entry (id, user_id, amount, reason, generation_id, chain_event_id, sequence, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, now())`,
		pkg.GenerateUUIDv7(), userID, amount, reason, generationID, chainEventID, sequence)

	return err
}

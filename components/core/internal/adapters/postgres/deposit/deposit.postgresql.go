package deposit

import (
	"context"
	"database/sql"
	"errors"

	"github.com/GrimoireLabs/grimoire/pkg"
	cn "github.com/GrimoireLabs/grimoire/pkg/constant"
	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
	"github.com/GrimoireLabs/grimoire/pkg/mopentelemetry"
	"github.com/GrimoireLabs/grimoire/pkg/mpostgres"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const depositColumns = `event_id, chain, tx_hash, log_index, wallet, asset, raw_amount,
	block_number, amount_usd, credits, state, user_id, reject_reason, created_at, updated_at`

// DepositPostgreSQLRepository is a Postgresql-specific implementation of the deposit Repository.
type DepositPostgreSQLRepository struct {
	connection *mpostgres.PostgresConnection
}

// NewDepositPostgreSQLRepository returns a new instance of DepositPostgreSQLRepository using the given Postgres connection.
func NewDepositPostgreSQLRepository(pc *mpostgres.PostgresConnection) *DepositPostgreSQLRepository {
	r := &DepositPostgreSQLRepository{
		connection: pc,
	}

	_, err := r.connection.GetDB(context.Background())
	if err != nil {
		panic("Failed to connect database")
	}

	return r
}

// InsertSeen records a newly observed event in the seen state, idempotently.
func (r *DepositPostgreSQLRepository) InsertSeen(ctx context.Context, dep *mmodel.Deposit) (bool, error) {
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.deposit.insert_seen")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to get database connection", err)

		return false, err
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO deposit (event_id, chain, tx_hash, log_index, wallet, asset, raw_amount,
			block_number, amount_usd, credits, state, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, '0', 0, $9, now(), now())
		 ON CONFLICT (event_id) DO NOTHING`,
		dep.EventID, dep.Chain, dep.TxHash, dep.LogIndex, dep.Wallet, dep.Asset,
		dep.RawAmount, dep.BlockNumber, cn.DepositSeen)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to insert deposit", err)

		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}

// Find loads a deposit record by its chain event id.
func (r *DepositPostgreSQLRepository) Find(ctx context.Context, eventID string) (*mmodel.Deposit, error) {
	db, err := r.connection.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	row := db.QueryRowContext(ctx, `SELECT `+depositColumns+` FROM deposit WHERE event_id = $1`, eventID)

	dep, err := scanDeposit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ValidateBusinessError(cn.ErrEntityNotFound, "Deposit")
	}

	if err != nil {
		return nil, err
	}

	return dep, nil
}

// Transition advances the record from one state to another under a monotonic guard.
func (r *DepositPostgreSQLRepository) Transition(ctx context.Context, eventID, from, to string, mutate func(*mmodel.Deposit)) (bool, error) {
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.deposit.transition")
	defer span.End()

	if !cn.ValidDepositTransition(from, to) {
		return false, pkg.ValidateBusinessError(cn.ErrAlreadyTerminal, "Deposit")
	}

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to get database connection", err)

		return false, err
	}

	dep, err := r.Find(ctx, eventID)
	if err != nil {
		return false, err
	}

	if mutate != nil {
		mutate(dep)
	}

	result, err := db.ExecContext(ctx,
		`UPDATE deposit
		 SET state = $3, wallet = $4, amount_usd = $5, credits = $6, user_id = $7,
			reject_reason = $8, updated_at = now()
		 WHERE event_id = $1 AND state = $2`,
		eventID, from, to, dep.Wallet, dep.AmountUSD.String(), dep.Credits,
		uuidOrNil(dep.UserID), nullIfEmpty(dep.RejectReason))
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to transition deposit", err)

		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}

// ListUnsettled returns records of a chain still in seen or confirmed state.
func (r *DepositPostgreSQLRepository) ListUnsettled(ctx context.Context, chain string, limit int) ([]*mmodel.Deposit, error) {
	db, err := r.connection.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 200
	}

	rows, err := db.QueryContext(ctx,
		`SELECT `+depositColumns+` FROM deposit
		 WHERE chain = $1 AND state IN ($2, $3) ORDER BY block_number ASC LIMIT $4`,
		chain, cn.DepositSeen, cn.DepositConfirmed, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deposits []*mmodel.Deposit

	for rows.Next() {
		dep, err := scanDeposit(rows)
		if err != nil {
			return nil, err
		}

		deposits = append(deposits, dep)
	}

	return deposits, rows.Err()
}

// Cursor returns the last processed block of a chain, zero when unset.
func (r *DepositPostgreSQLRepository) Cursor(ctx context.Context, chain string) (uint64, error) {
	db, err := r.connection.GetDB(ctx)
	if err != nil {
		return 0, err
	}

	var block uint64

	err = db.QueryRowContext(ctx, `SELECT block FROM chain_cursor WHERE chain = $1`, chain).Scan(&block)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}

	if err != nil {
		return 0, err
	}

	return block, nil
}

// SetCursor advances the chain's high-water mark.
func (r *DepositPostgreSQLRepository) SetCursor(ctx context.Context, chain string, block uint64) error {
	db, err := r.connection.GetDB(ctx)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO chain_cursor (chain, block, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (chain) DO UPDATE SET block = GREATEST(chain_cursor.block, $2), updated_at = now()`,
		chain, block)

	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDeposit(row rowScanner) (*mmodel.Deposit, error) {
	dep := &mmodel.Deposit{}

	var (
		amountUSD    string
		userID       uuid.NullUUID
		rejectReason sql.NullString
	)

	if err := row.Scan(
		&dep.EventID,
		&dep.Chain,
		&dep.TxHash,
		&dep.LogIndex,
		&dep.Wallet,
		&dep.Asset,
		&dep.RawAmount,
		&dep.BlockNumber,
		&amountUSD,
		&dep.Credits,
		&dep.State,
		&userID,
		&rejectReason,
		&dep.CreatedAt,
		&dep.UpdatedAt,
	); err != nil {
		return nil, err
	}

	usd, err := decimal.NewFromString(amountUSD)
	if err != nil {
		return nil, err
	}

	dep.AmountUSD = usd

	if userID.Valid {
		id := userID.UUID
		dep.UserID = &id
	}

	dep.RejectReason = rejectReason.String

	return dep, nil
}

func uuidOrNil(id *uuid.UUID) any {
	if id == nil {
		return nil
	}

	return *id
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}

	return s
}

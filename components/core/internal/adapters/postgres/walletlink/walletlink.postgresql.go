package walletlink

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/GrimoireLabs/grimoire/pkg"
	cn "github.com/GrimoireLabs/grimoire/pkg/constant"
	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
	"github.com/GrimoireLabs/grimoire/pkg/mopentelemetry"
	"github.com/GrimoireLabs/grimoire/pkg/mpostgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// WalletLinkPostgreSQLRepository is a Postgresql-specific implementation of the wallet link Repository.
type WalletLinkPostgreSQLRepository struct {
	connection *mpostgres.PostgresConnection
}

// NewWalletLinkPostgreSQLRepository returns a new instance of WalletLinkPostgreSQLRepository using the given Postgres connection.
func NewWalletLinkPostgreSQLRepository(pc *mpostgres.PostgresConnection) *WalletLinkPostgreSQLRepository {
	r := &WalletLinkPostgreSQLRepository{
		connection: pc,
	}

	_, err := r.connection.GetDB(context.Background())
	if err != nil {
		panic("Failed to connect database")
	}

	return r
}

// CreateUser mints a new user id.
func (r *WalletLinkPostgreSQLRepository) CreateUser(ctx context.Context) (*mmodel.User, error) {
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.create_user")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to get database connection", err)

		return nil, err
	}

	user := &mmodel.User{
		ID:        pkg.GenerateUUIDv7(),
		CreatedAt: time.Now(),
	}

	if _, err := db.ExecContext(ctx,
		`INSERT INTO account_user (id, created_at) VALUES ($1, $2)`, user.ID, user.CreatedAt); err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to insert user", err)

		return nil, err
	}

	return user, nil
}

// Link binds a wallet to a user; a duplicate wallet surfaces as a conflict.
func (r *WalletLinkPostgreSQLRepository) Link(ctx context.Context, wallet string, userID uuid.UUID) error {
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.link_wallet")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to get database connection", err)

		return err
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO wallet_link (wallet, user_id, created_at) VALUES ($1, $2, now())`,
		strings.ToLower(wallet), userID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return pkg.ValidateBusinessError(cn.ErrWalletAlreadyLinked, "WalletLink", wallet)
		}

		mopentelemetry.HandleSpanError(&span, "Failed to insert wallet link", err)

		return err
	}

	return nil
}

// FindUserByWallet resolves the owner of a wallet, nil when unbound.
func (r *WalletLinkPostgreSQLRepository) FindUserByWallet(ctx context.Context, wallet string) (*uuid.UUID, error) {
	db, err := r.connection.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	var userID uuid.UUID

	err = db.QueryRowContext(ctx,
		`SELECT user_id FROM wallet_link WHERE wallet = $1`, strings.ToLower(wallet)).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return &userID, nil
}

// ListWallets returns the wallets bound to a user.
func (r *WalletLinkPostgreSQLRepository) ListWallets(ctx context.Context, userID uuid.UUID) ([]*mmodel.WalletLink, error) {
	db, err := r.connection.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT wallet, user_id, created_at FROM wallet_link WHERE user_id = $1 ORDER BY created_at ASC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []*mmodel.WalletLink

	for rows.Next() {
		link := &mmodel.WalletLink{}

		if err := rows.Scan(&link.Wallet, &link.UserID, &link.CreatedAt); err != nil {
			return nil, err
		}

		links = append(links, link)
	}

	return links, rows.Err()
}

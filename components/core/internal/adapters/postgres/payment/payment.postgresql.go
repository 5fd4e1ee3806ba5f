package payment

import (
	"context"
	"database/sql"
	"errors"

	"github.com/GrimoireLabs/grimoire/pkg"
	cn "github.com/GrimoireLabs/grimoire/pkg/constant"
	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
	"github.com/GrimoireLabs/grimoire/pkg/mopentelemetry"
	"github.com/GrimoireLabs/grimoire/pkg/mpostgres"
	"github.com/jackc/pgx/v5/pgconn"
)

// PaymentPostgreSQLRepository is a Postgresql-specific implementation of the payment Repository.
type PaymentPostgreSQLRepository struct {
	connection *mpostgres.PostgresConnection
}

// NewPaymentPostgreSQLRepository returns a new instance of PaymentPostgreSQLRepository using the given Postgres connection.
func NewPaymentPostgreSQLRepository(pc *mpostgres.PostgresConnection) *PaymentPostgreSQLRepository {
	r := &PaymentPostgreSQLRepository{
		connection: pc,
	}

	_, err := r.connection.GetDB(context.Background())
	if err != nil {
		panic("Failed to connect database")
	}

	return r
}

// Insert records a verified payment against its generation, at most once per signature.
func (r *PaymentPostgreSQLRepository) Insert(ctx context.Context, auth *mmodel.PaymentAuthorization) error {
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.insert_payment")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to get database connection", err)

		return err
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO payment_authorization (signature_hash, generation_id, payer_address, amount_atomic, asset, chain, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, now())`,
		auth.SignatureHash, auth.GenerationID, auth.PayerAddress, auth.AmountAtomic, auth.Asset, auth.Chain)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return pkg.ValidateBusinessError(cn.ErrPaymentAlreadyUsed, "PaymentAuthorization")
		}

		mopentelemetry.HandleSpanError(&span, "Failed to insert payment authorization", err)

		return err
	}

	return nil
}

// Find loads a payment authorization by signature hash.
func (r *PaymentPostgreSQLRepository) Find(ctx context.Context, signatureHash string) (*mmodel.PaymentAuthorization, error) {
	db, err := r.connection.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	auth := &mmodel.PaymentAuthorization{}

	err = db.QueryRowContext(ctx,
		`SELECT signature_hash, generation_id, payer_address, amount_atomic, asset, chain, created_at
		 FROM payment_authorization WHERE signature_hash = $1`, signatureHash).
		Scan(&auth.SignatureHash, &auth.GenerationID, &auth.PayerAddress,
			&auth.AmountAtomic, &auth.Asset, &auth.Chain, &auth.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ValidateBusinessError(cn.ErrEntityNotFound, "PaymentAuthorization")
	}

	if err != nil {
		return nil, err
	}

	return auth, nil
}

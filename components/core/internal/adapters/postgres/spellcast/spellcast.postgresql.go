package spellcast

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/GrimoireLabs/grimoire/pkg"
	cn "github.com/GrimoireLabs/grimoire/pkg/constant"
	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
	"github.com/GrimoireLabs/grimoire/pkg/mopentelemetry"
	"github.com/GrimoireLabs/grimoire/pkg/mpostgres"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const castColumns = `id, spell_id, spell_version, user_id, parameters, generation_ids,
	status, final_generation_id, accumulated_credits, continued_step, failed_step, error,
	delivery_strategy, platform, target, reply_to, webhook_url, webhook_secret,
	created_at, updated_at, version`

// SpellCastPostgreSQLRepository is a Postgresql-specific implementation of the cast Repository.
type SpellCastPostgreSQLRepository struct {
	connection *mpostgres.PostgresConnection
}

// NewSpellCastPostgreSQLRepository returns a new instance of SpellCastPostgreSQLRepository using the given Postgres connection.
func NewSpellCastPostgreSQLRepository(pc *mpostgres.PostgresConnection) *SpellCastPostgreSQLRepository {
	r := &SpellCastPostgreSQLRepository{
		connection: pc,
	}

	_, err := r.connection.GetDB(context.Background())
	if err != nil {
		panic("Failed to connect database")
	}

	return r
}

// Create persists a new spell cast record.
func (r *SpellCastPostgreSQLRepository) Create(ctx context.Context, cast *mmodel.SpellCast) (*mmodel.SpellCast, error) {
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.create_spell_cast")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to get database connection", err)

		return nil, err
	}

	parameters, err := json.Marshal(cast.Parameters)
	if err != nil {
		return nil, err
	}

	var castErr []byte
	if cast.Error != nil {
		if castErr, err = json.Marshal(cast.Error); err != nil {
			return nil, err
		}
	}

	generationIDs := make([]string, 0, len(cast.GenerationIDs))
	for _, id := range cast.GenerationIDs {
		generationIDs = append(generationIDs, id.String())
	}

	_, err = db.ExecContext(ctx, `INSERT INTO spell_cast (`+castColumns+`) VALUES
		($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`,
		cast.ID,
		cast.SpellID,
		cast.SpellVersion,
		cast.UserID,
		parameters,
		pq.Array(generationIDs),
		cast.Status,
		uuidOrNil(cast.FinalGenerationID),
		cast.AccumulatedCredits,
		cast.ContinuedStep,
		intOrNil(cast.FailedStep),
		castErr,
		cast.Delivery.Strategy,
		nullIfEmpty(cast.Delivery.Platform),
		nullIfEmpty(cast.Delivery.Target),
		nullIfEmpty(cast.Delivery.ReplyTo),
		cast.Delivery.WebhookURL,
		cast.Delivery.WebhookSecret,
		cast.CreatedAt,
		cast.UpdatedAt,
		cast.Version,
	)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to execute insert", err)

		return nil, err
	}

	return cast, nil
}

// Find loads a spell cast by id.
func (r *SpellCastPostgreSQLRepository) Find(ctx context.Context, id uuid.UUID) (*mmodel.SpellCast, error) {
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.find_spell_cast")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to get database connection", err)

		return nil, err
	}

	row := db.QueryRowContext(ctx, `SELECT `+castColumns+` FROM spell_cast WHERE id = $1`, id)

	cast, err := scanCast(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ValidateBusinessError(cn.ErrEntityNotFound, "SpellCast")
	}

	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to scan spell cast", err)

		return nil, err
	}

	return cast, nil
}

// AppendGeneration grows the cast's generation id array.
func (r *SpellCastPostgreSQLRepository) AppendGeneration(ctx context.Context, castID, generationID uuid.UUID) error {
	db, err := r.connection.GetDB(ctx)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx,
		`UPDATE spell_cast
		 SET generation_ids = array_append(generation_ids, $2), updated_at = now(), version = version + 1
		 WHERE id = $1 AND NOT ($2 = ANY (generation_ids))`,
		castID, generationID.String())

	return err
}

// Accumulate adds the charged credits of a completed step to the cast total.
func (r *SpellCastPostgreSQLRepository) Accumulate(ctx context.Context, castID uuid.UUID, credits int64) error {
	db, err := r.connection.GetDB(ctx)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx,
		`UPDATE spell_cast
		 SET accumulated_credits = accumulated_credits + $2, updated_at = now(), version = version + 1
		 WHERE id = $1`, castID, credits)

	return err
}

// MarkContinued consumes the completed continuation of stepIndex. The guarded
// advance admits each step's continuation exactly once even though the signal may
// arrive twice (direct notify from the engine plus the dispatcher's event replay).
func (r *SpellCastPostgreSQLRepository) MarkContinued(ctx context.Context, castID uuid.UUID, stepIndex int) (bool, error) {
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.spell_cast.mark_continued")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to get database connection", err)

		return false, err
	}

	result, err := db.ExecContext(ctx,
		`UPDATE spell_cast
		 SET continued_step = $2, updated_at = now(), version = version + 1
		 WHERE id = $1 AND status = $3 AND continued_step < $2`,
		castID, stepIndex, cn.CastRunning)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to mark continuation consumed", err)

		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}

// Finish atomically applies a terminal cast transition. It reports false when the
// cast was already terminal, keeping cascades idempotent.
func (r *SpellCastPostgreSQLRepository) Finish(ctx context.Context, castID uuid.UUID, status string, failedStep *int, castErr *mmodel.GenerationError, finalGenerationID *uuid.UUID) (bool, error) {
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.spell_cast.finish")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to get database connection", err)

		return false, err
	}

	var errRaw []byte
	if castErr != nil {
		if errRaw, err = json.Marshal(castErr); err != nil {
			return false, err
		}
	}

	result, err := db.ExecContext(ctx,
		`UPDATE spell_cast
		 SET status = $2, failed_step = $3, error = $4, final_generation_id = $5,
			updated_at = now(), version = version + 1
		 WHERE id = $1 AND status = $6`,
		castID, status, intOrNil(failedStep), errRaw, uuidOrNil(finalGenerationID), cn.CastRunning)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to finish spell cast", err)

		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}

// ListRunningByUser lists a user's casts still in flight.
func (r *SpellCastPostgreSQLRepository) ListRunningByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*mmodel.SpellCast, error) {
	db, err := r.connection.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 50
	}

	rows, err := db.QueryContext(ctx,
		`SELECT `+castColumns+` FROM spell_cast
		 WHERE user_id = $1 AND status = $2 ORDER BY created_at DESC LIMIT $3`,
		userID, cn.CastRunning, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var casts []*mmodel.SpellCast

	for rows.Next() {
		cast, err := scanCast(rows)
		if err != nil {
			return nil, err
		}

		casts = append(casts, cast)
	}

	return casts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCast(row rowScanner) (*mmodel.SpellCast, error) {
	cast := &mmodel.SpellCast{}

	var (
		parameters, castErr []byte
		generationIDs       pq.StringArray
		finalGenerationID   uuid.NullUUID
		failedStep          sql.NullInt64
		platform, target    sql.NullString
		replyTo             sql.NullString
		webhookURL          sql.NullString
		webhookSecret       sql.NullString
		createdAt           time.Time
		updatedAt           time.Time
	)

	if err := row.Scan(
		&cast.ID,
		&cast.SpellID,
		&cast.SpellVersion,
		&cast.UserID,
		&parameters,
		&generationIDs,
		&cast.Status,
		&finalGenerationID,
		&cast.AccumulatedCredits,
		&cast.ContinuedStep,
		&failedStep,
		&castErr,
		&cast.Delivery.Strategy,
		&platform,
		&target,
		&replyTo,
		&webhookURL,
		&webhookSecret,
		&createdAt,
		&updatedAt,
		&cast.Version,
	); err != nil {
		return nil, err
	}

	if len(parameters) > 0 {
		if err := json.Unmarshal(parameters, &cast.Parameters); err != nil {
			return nil, err
		}
	}

	for _, raw := range generationIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, err
		}

		cast.GenerationIDs = append(cast.GenerationIDs, id)
	}

	if finalGenerationID.Valid {
		id := finalGenerationID.UUID
		cast.FinalGenerationID = &id
	}

	if failedStep.Valid {
		step := int(failedStep.Int64)
		cast.FailedStep = &step
	}

	if len(castErr) > 0 {
		cast.Error = &mmodel.GenerationError{}
		if err := json.Unmarshal(castErr, cast.Error); err != nil {
			return nil, err
		}
	}

	cast.Delivery.Platform = platform.String
	cast.Delivery.Target = target.String
	cast.Delivery.ReplyTo = replyTo.String

	if webhookURL.Valid {
		cast.Delivery.WebhookURL = &webhookURL.String
	}

	if webhookSecret.Valid {
		cast.Delivery.WebhookSecret = &webhookSecret.String
	}

	cast.CreatedAt = createdAt
	cast.UpdatedAt = updatedAt

	return cast, nil
}

func uuidOrNil(id *uuid.UUID) any {
	if id == nil {
		return nil
	}

	return *id
}

func intOrNil(n *int) any {
	if n == nil {
		return nil
	}

	return *n
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}

	return s
}

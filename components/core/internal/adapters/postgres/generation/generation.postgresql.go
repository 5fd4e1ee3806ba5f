package generation

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/GrimoireLabs/grimoire/pkg"
	cn "github.com/GrimoireLabs/grimoire/pkg/constant"
	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
	"github.com/GrimoireLabs/grimoire/pkg/mopentelemetry"
	"github.com/GrimoireLabs/grimoire/pkg/mpostgres"
	"github.com/GrimoireLabs/grimoire/pkg/net/http"
	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const generationColumns = `id, idempotency_key, user_id, tool_id, inputs, status,
	delivery_strategy, platform, target, reply_to, webhook_url, webhook_secret,
	quoted_usd, quoted_credits, charged_credits, backend_mode, backend_job_id,
	outputs, error, parent_cast_id, step_index, delivery_outcome, delivery_attempts,
	poll_attempts, last_polled_at, created_at, started_at, completed_at, version`

// GenerationPostgreSQLModel represents the generation row shape.
type GenerationPostgreSQLModel struct {
	ID               uuid.UUID
	IdempotencyKey   sql.NullString
	UserID           uuid.UUID
	ToolID           string
	Inputs           []byte
	Status           string
	DeliveryStrategy string
	Platform         sql.NullString
	Target           sql.NullString
	ReplyTo          sql.NullString
	WebhookURL       sql.NullString
	WebhookSecret    sql.NullString
	QuotedUSD        string
	QuotedCredits    int64
	ChargedCredits   sql.NullInt64
	BackendMode      string
	BackendJobID     sql.NullString
	Outputs          []byte
	Error            []byte
	ParentCastID     uuid.NullUUID
	StepIndex        sql.NullInt64
	DeliveryOutcome  string
	DeliveryAttempts int
	PollAttempts     int
	LastPolledAt     sql.NullTime
	CreatedAt        time.Time
	StartedAt        sql.NullTime
	CompletedAt      sql.NullTime
	Version          int64
}

// FromEntity fills the row model from the domain entity.
func (m *GenerationPostgreSQLModel) FromEntity(gen *mmodel.Generation) error {
	inputs, err := json.Marshal(gen.Inputs)
	if err != nil {
		return err
	}

	m.ID = gen.ID
	m.UserID = gen.UserID
	m.ToolID = gen.ToolID
	m.Inputs = inputs
	m.Status = gen.Status
	m.DeliveryStrategy = gen.Delivery.Strategy
	m.Platform = nullString(gen.Delivery.Platform)
	m.Target = nullString(gen.Delivery.Target)
	m.ReplyTo = nullString(gen.Delivery.ReplyTo)
	m.QuotedUSD = gen.Cost.QuotedUSD.String()
	m.QuotedCredits = gen.Cost.QuotedCredits
	m.BackendMode = gen.BackendMode
	m.DeliveryOutcome = gen.DeliveryOutcome
	m.DeliveryAttempts = gen.DeliveryAttempts
	m.PollAttempts = gen.PollAttempts
	m.CreatedAt = gen.CreatedAt
	m.Version = gen.Version

	if gen.IdempotencyKey != nil {
		m.IdempotencyKey = sql.NullString{String: *gen.IdempotencyKey, Valid: true}
	}

	if gen.Delivery.WebhookURL != nil {
		m.WebhookURL = sql.NullString{String: *gen.Delivery.WebhookURL, Valid: true}
	}

	if gen.Delivery.WebhookSecret != nil {
		m.WebhookSecret = sql.NullString{String: *gen.Delivery.WebhookSecret, Valid: true}
	}

	if gen.Cost.ChargedCredits != nil {
		m.ChargedCredits = sql.NullInt64{Int64: *gen.Cost.ChargedCredits, Valid: true}
	}

	if gen.BackendJobID != nil {
		m.BackendJobID = sql.NullString{String: *gen.BackendJobID, Valid: true}
	}

	if len(gen.Outputs) > 0 {
		outputs, err := json.Marshal(gen.Outputs)
		if err != nil {
			return err
		}

		m.Outputs = outputs
	}

	if gen.Error != nil {
		genErr, err := json.Marshal(gen.Error)
		if err != nil {
			return err
		}

		m.Error = genErr
	}

	if gen.ParentCastID != nil {
		m.ParentCastID = uuid.NullUUID{UUID: *gen.ParentCastID, Valid: true}
	}

	if gen.StepIndex != nil {
		m.StepIndex = sql.NullInt64{Int64: int64(*gen.StepIndex), Valid: true}
	}

	if gen.LastPolledAt != nil {
		m.LastPolledAt = sql.NullTime{Time: *gen.LastPolledAt, Valid: true}
	}

	if gen.StartedAt != nil {
		m.StartedAt = sql.NullTime{Time: *gen.StartedAt, Valid: true}
	}

	if gen.CompletedAt != nil {
		m.CompletedAt = sql.NullTime{Time: *gen.CompletedAt, Valid: true}
	}

	return nil
}

// ToEntity converts the row model back to the domain entity.
func (m *GenerationPostgreSQLModel) ToEntity() (*mmodel.Generation, error) {
	quoted, err := decimal.NewFromString(m.QuotedUSD)
	if err != nil {
		return nil, err
	}

	gen := &mmodel.Generation{
		ID:     m.ID,
		UserID: m.UserID,
		ToolID: m.ToolID,
		Status: m.Status,
		Delivery: mmodel.DeliveryIntent{
			Strategy: m.DeliveryStrategy,
			Platform: m.Platform.String,
			Target:   m.Target.String,
			ReplyTo:  m.ReplyTo.String,
		},
		Cost: mmodel.Cost{
			QuotedUSD:     quoted,
			QuotedCredits: m.QuotedCredits,
		},
		BackendMode:      m.BackendMode,
		DeliveryOutcome:  m.DeliveryOutcome,
		DeliveryAttempts: m.DeliveryAttempts,
		PollAttempts:     m.PollAttempts,
		CreatedAt:        m.CreatedAt,
		Version:          m.Version,
	}

	if len(m.Inputs) > 0 {
		if err := json.Unmarshal(m.Inputs, &gen.Inputs); err != nil {
			return nil, err
		}
	}

	if m.IdempotencyKey.Valid {
		gen.IdempotencyKey = &m.IdempotencyKey.String
	}

	if m.WebhookURL.Valid {
		gen.Delivery.WebhookURL = &m.WebhookURL.String
	}

	if m.WebhookSecret.Valid {
		gen.Delivery.WebhookSecret = &m.WebhookSecret.String
	}

	if m.ChargedCredits.Valid {
		gen.Cost.ChargedCredits = &m.ChargedCredits.Int64
	}

	if m.BackendJobID.Valid {
		gen.BackendJobID = &m.BackendJobID.String
	}

	if len(m.Outputs) > 0 {
		if err := json.Unmarshal(m.Outputs, &gen.Outputs); err != nil {
			return nil, err
		}
	}

	if len(m.Error) > 0 {
		gen.Error = &mmodel.GenerationError{}
		if err := json.Unmarshal(m.Error, gen.Error); err != nil {
			return nil, err
		}
	}

	if m.ParentCastID.Valid {
		castID := m.ParentCastID.UUID
		gen.ParentCastID = &castID
	}

	if m.StepIndex.Valid {
		step := int(m.StepIndex.Int64)
		gen.StepIndex = &step
	}

	if m.LastPolledAt.Valid {
		at := m.LastPolledAt.Time
		gen.LastPolledAt = &at
	}

	if m.StartedAt.Valid {
		at := m.StartedAt.Time
		gen.StartedAt = &at
	}

	if m.CompletedAt.Valid {
		at := m.CompletedAt.Time
		gen.CompletedAt = &at
	}

	return gen, nil
}

func nullString(s string) sql.NullString {
	if strings.TrimSpace(s) == "" {
		return sql.NullString{}
	}

	return sql.NullString{String: s, Valid: true}
}

// GenerationPostgreSQLRepository is a Postgresql-specific implementation of the generation Repository.
type GenerationPostgreSQLRepository struct {
	connection *mpostgres.PostgresConnection
	tableName  string
}

// NewGenerationPostgreSQLRepository returns a new instance of GenerationPostgreSQLRepository using the given Postgres connection.
func NewGenerationPostgreSQLRepository(pc *mpostgres.PostgresConnection) *GenerationPostgreSQLRepository {
	r := &GenerationPostgreSQLRepository{
		connection: pc,
		tableName:  "generation",
	}

	_, err := r.connection.GetDB(context.Background())
	if err != nil {
		panic("Failed to connect database")
	}

	return r
}

// Create persists a new generation record.
func (r *GenerationPostgreSQLRepository) Create(ctx context.Context, gen *mmodel.Generation) (*mmodel.Generation, error) {
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.create_generation")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to get database connection", err)

		return nil, err
	}

	record := &GenerationPostgreSQLModel{}
	if err := record.FromEntity(gen); err != nil {
		return nil, err
	}

	_, err = db.ExecContext(ctx, `INSERT INTO generation (`+generationColumns+`) VALUES
		($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
		 $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29)`,
		record.ID,
		record.IdempotencyKey,
		record.UserID,
		record.ToolID,
		record.Inputs,
		record.Status,
		record.DeliveryStrategy,
		record.Platform,
		record.Target,
		record.ReplyTo,
		record.WebhookURL,
		record.WebhookSecret,
		record.QuotedUSD,
		record.QuotedCredits,
		record.ChargedCredits,
		record.BackendMode,
		record.BackendJobID,
		record.Outputs,
		record.Error,
		record.ParentCastID,
		record.StepIndex,
		record.DeliveryOutcome,
		record.DeliveryAttempts,
		record.PollAttempts,
		record.LastPolledAt,
		record.CreatedAt,
		record.StartedAt,
		record.CompletedAt,
		record.Version,
	)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to execute insert", err)

		return nil, err
	}

	return gen, nil
}

// Find loads a generation by id.
func (r *GenerationPostgreSQLRepository) Find(ctx context.Context, id uuid.UUID) (*mmodel.Generation, error) {
	return r.findWhere(ctx, "id = $1", id)
}

// FindByIdempotencyKey loads the generation a user already created under key.
func (r *GenerationPostgreSQLRepository) FindByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (*mmodel.Generation, error) {
	return r.findWhere(ctx, "user_id = $1 AND idempotency_key = $2", userID, key)
}

// FindByBackendJobID correlates an inbound backend callback with its record.
func (r *GenerationPostgreSQLRepository) FindByBackendJobID(ctx context.Context, jobID string) (*mmodel.Generation, error) {
	return r.findWhere(ctx, "backend_job_id = $1", jobID)
}

func (r *GenerationPostgreSQLRepository) findWhere(ctx context.Context, where string, args ...any) (*mmodel.Generation, error) {
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.find_generation")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to get database connection", err)

		return nil, err
	}

	row := db.QueryRowContext(ctx, `SELECT `+generationColumns+` FROM generation WHERE `+where, args...)

	record, err := scanGeneration(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ValidateBusinessError(cn.ErrEntityNotFound, "Generation")
	}

	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to scan generation", err)

		return nil, err
	}

	return record.ToEntity()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGeneration(row rowScanner) (*GenerationPostgreSQLModel, error) {
	record := &GenerationPostgreSQLModel{}

	err := row.Scan(
		&record.ID,
		&record.IdempotencyKey,
		&record.UserID,
		&record.ToolID,
		&record.Inputs,
		&record.Status,
		&record.DeliveryStrategy,
		&record.Platform,
		&record.Target,
		&record.ReplyTo,
		&record.WebhookURL,
		&record.WebhookSecret,
		&record.QuotedUSD,
		&record.QuotedCredits,
		&record.ChargedCredits,
		&record.BackendMode,
		&record.BackendJobID,
		&record.Outputs,
		&record.Error,
		&record.ParentCastID,
		&record.StepIndex,
		&record.DeliveryOutcome,
		&record.DeliveryAttempts,
		&record.PollAttempts,
		&record.LastPolledAt,
		&record.CreatedAt,
		&record.StartedAt,
		&record.CompletedAt,
		&record.Version,
	)

	return record, err
}

// Update persists mutable fields under optimistic concurrency on the version column.
func (r *GenerationPostgreSQLRepository) Update(ctx context.Context, gen *mmodel.Generation) error {
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.update_generation")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to get database connection", err)

		return err
	}

	record := &GenerationPostgreSQLModel{}
	if err := record.FromEntity(gen); err != nil {
		return err
	}

	result, err := db.ExecContext(ctx,
		`UPDATE generation SET inputs = $2, status = $3, backend_job_id = $4, outputs = $5,
			error = $6, charged_credits = $7, delivery_outcome = $8, delivery_attempts = $9,
			poll_attempts = $10, last_polled_at = $11, started_at = $12, completed_at = $13,
			version = version + 1
		 WHERE id = $1 AND version = $14`,
		record.ID, record.Inputs, record.Status, record.BackendJobID, record.Outputs,
		record.Error, record.ChargedCredits, record.DeliveryOutcome, record.DeliveryAttempts,
		record.PollAttempts, record.LastPolledAt, record.StartedAt, record.CompletedAt,
		record.Version)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to execute update", err)

		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return pkg.ValidateBusinessError(cn.ErrEntityNotFound, "Generation")
	}

	gen.Version++

	return nil
}

// StartRunning transitions queued -> running, stamping the backend job id.
func (r *GenerationPostgreSQLRepository) StartRunning(ctx context.Context, id uuid.UUID, backendJobID *string) error {
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.generation.start_running")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to get database connection", err)

		return err
	}

	var job sql.NullString
	if backendJobID != nil {
		job = sql.NullString{String: *backendJobID, Valid: true}
	}

	_, err = db.ExecContext(ctx,
		`UPDATE generation SET status = $2, backend_job_id = $3, started_at = now(), version = version + 1
		 WHERE id = $1 AND status = $4`,
		id, cn.StatusRunning, job, cn.StatusQueued)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to transition to running", err)
	}

	return err
}

// FinishTerminal atomically applies a terminal transition, reporting false when the
// record was already terminal. This guard is the settlement idempotency gate.
func (r *GenerationPostgreSQLRepository) FinishTerminal(ctx context.Context, id uuid.UUID, status string, outputs []mmodel.Output, genErr *mmodel.GenerationError, chargedCredits *int64, completedAt time.Time) (bool, error) {
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.generation.finish_terminal")
	defer span.End()

	cn.AssertValidStatusCode(status)

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to get database connection", err)

		return false, err
	}

	var outputsRaw, errRaw []byte

	if len(outputs) > 0 {
		if outputsRaw, err = json.Marshal(outputs); err != nil {
			return false, err
		}
	}

	if genErr != nil {
		if errRaw, err = json.Marshal(genErr); err != nil {
			return false, err
		}
	}

	var charged sql.NullInt64
	if chargedCredits != nil {
		charged = sql.NullInt64{Int64: *chargedCredits, Valid: true}
	}

	result, err := db.ExecContext(ctx,
		`UPDATE generation
		 SET status = $2, outputs = $3, error = $4, charged_credits = $5, completed_at = $6,
			started_at = COALESCE(started_at, $6), version = version + 1
		 WHERE id = $1 AND status IN ($7, $8)`,
		id, status, outputsRaw, errRaw, charged, completedAt, cn.StatusQueued, cn.StatusRunning)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to apply terminal transition", err)

		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}

// MarkDelivery records the delivery outcome without touching the status.
func (r *GenerationPostgreSQLRepository) MarkDelivery(ctx context.Context, id uuid.UUID, outcome string, attempts int) error {
	db, err := r.connection.GetDB(ctx)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx,
		`UPDATE generation SET delivery_outcome = $2, delivery_attempts = $3, version = version + 1 WHERE id = $1`,
		id, outcome, attempts)

	return err
}

// TouchPoll stamps poll bookkeeping on a running poll-mode record.
func (r *GenerationPostgreSQLRepository) TouchPoll(ctx context.Context, id uuid.UUID, attempts int, at time.Time) error {
	db, err := r.connection.GetDB(ctx)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx,
		`UPDATE generation SET poll_attempts = $2, last_polled_at = $3, version = version + 1 WHERE id = $1`,
		id, attempts, at)

	return err
}

// ListByUser pages a user's generations using keyset pagination over the uuidv7 id,
// which is creation-ordered, so no offset scans are ever issued.
func (r *GenerationPostgreSQLRepository) ListByUser(ctx context.Context, userID uuid.UUID, filter *http.QueryHeader) ([]*mmodel.Generation, http.CursorPagination, error) {
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.list_generations_by_user")
	defer span.End()

	pagination := http.CursorPagination{}

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to get database connection", err)

		return nil, pagination, err
	}

	cursor := http.Cursor{PointsNext: true}

	isFirstPage := filter.Cursor == ""
	if !isFirstPage {
		cursor, err = http.DecodeCursor(filter.Cursor)
		if err != nil {
			mopentelemetry.HandleSpanError(&span, "Failed to decode cursor", err)

			return nil, pagination, pkg.ValidateBusinessError(cn.ErrBadRequest, "Generation")
		}
	}

	query := squirrel.Select(strings.Split(generationColumns, ",")...).
		From(r.tableName).
		Where(squirrel.Eq{"user_id": userID}).
		PlaceholderFormat(squirrel.Dollar)

	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"status": filter.Status})
	}

	query, effectiveOrder := http.ApplyCursorPagination(query, cursor, filter.SortOrder, filter.Limit)

	sqlQuery, args, err := query.ToSql()
	if err != nil {
		return nil, pagination, err
	}

	rows, err := db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to query generations", err)

		return nil, pagination, err
	}
	defer rows.Close()

	var generations []*mmodel.Generation

	for rows.Next() {
		record, err := scanGeneration(rows)
		if err != nil {
			return nil, pagination, err
		}

		gen, err := record.ToEntity()
		if err != nil {
			return nil, pagination, err
		}

		generations = append(generations, gen)
	}

	if err := rows.Err(); err != nil {
		return nil, pagination, err
	}

	hasPagination := len(generations) > filter.Limit

	generations = http.PaginateRecords(isFirstPage, hasPagination, cursor.PointsNext, generations, filter.Limit, effectiveOrder)

	if len(generations) > 0 {
		pagination, err = http.CalculateCursor(isFirstPage, hasPagination, cursor.PointsNext,
			generations[0].ID.String(), generations[len(generations)-1].ID.String())
		if err != nil {
			return nil, pagination, err
		}
	}

	return generations, pagination, nil
}

// ListByCast returns the generations of a cast ordered by step index.
func (r *GenerationPostgreSQLRepository) ListByCast(ctx context.Context, castID uuid.UUID) ([]*mmodel.Generation, error) {
	return r.listWhere(ctx, "parent_cast_id = $1 ORDER BY step_index ASC", castID)
}

// ListByIDs returns the named records, skipping unknown ids.
func (r *GenerationPostgreSQLRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*mmodel.Generation, error) {
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.list_generations_by_ids")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to get database connection", err)

		return nil, err
	}

	query, args, err := squirrel.Select(strings.Split(generationColumns, ",")...).
		From(r.tableName).
		Where(squirrel.Eq{"id": ids}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to query generations", err)

		return nil, err
	}
	defer rows.Close()

	return collectGenerations(rows)
}

// ListRunningByMode returns running records of the given backend mode, oldest first.
func (r *GenerationPostgreSQLRepository) ListRunningByMode(ctx context.Context, mode string, limit int) ([]*mmodel.Generation, error) {
	if limit <= 0 {
		limit = 100
	}

	return r.listWhere(ctx, "status = $1 AND backend_mode = $2 ORDER BY created_at ASC LIMIT $3",
		cn.StatusRunning, mode, limit)
}

// ListByStatusAndDelivery serves the dispatcher and the stale sweeper.
func (r *GenerationPostgreSQLRepository) ListByStatusAndDelivery(ctx context.Context, status, deliveryOutcome string, limit int) ([]*mmodel.Generation, error) {
	if limit <= 0 {
		limit = 100
	}

	return r.listWhere(ctx, "status = $1 AND delivery_outcome = $2 ORDER BY created_at ASC LIMIT $3",
		status, deliveryOutcome, limit)
}

func (r *GenerationPostgreSQLRepository) listWhere(ctx context.Context, where string, args ...any) ([]*mmodel.Generation, error) {
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.list_generations")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to get database connection", err)

		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT `+generationColumns+` FROM generation WHERE `+where, args...)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to query generations", err)

		return nil, err
	}
	defer rows.Close()

	return collectGenerations(rows)
}

func collectGenerations(rows *sql.Rows) ([]*mmodel.Generation, error) {
	var generations []*mmodel.Generation

	for rows.Next() {
		record, err := scanGeneration(rows)
		if err != nil {
			return nil, err
		}

		gen, err := record.ToEntity()
		if err != nil {
			return nil, err
		}

		generations = append(generations, gen)
	}

	return generations, rows.Err()
}

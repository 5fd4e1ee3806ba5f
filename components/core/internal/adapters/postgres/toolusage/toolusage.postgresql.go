package toolusage

import (
	"context"

	"github.com/GrimoireLabs/grimoire/pkg"
	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
	"github.com/GrimoireLabs/grimoire/pkg/mopentelemetry"
	"github.com/GrimoireLabs/grimoire/pkg/mpostgres"
)

// Repository aggregates per-tool invocation accounting. The rolling runtime average
// feeds the per-backend-second cost model.
//
//go:generate mockgen --destination=toolusage.mock.go --package=toolusage . Repository
type Repository interface {
	// RecordInvocation folds one observed runtime into the tool's rolling average.
	RecordInvocation(ctx context.Context, toolID string, runtimeSeconds float64) error

	// All returns every tool's usage keyed by tool id.
	All(ctx context.Context) (map[string]*mmodel.ToolUsage, error)
}

// ToolUsagePostgreSQLRepository is a Postgresql-specific implementation of the usage Repository.
type ToolUsagePostgreSQLRepository struct {
	connection *mpostgres.PostgresConnection
}

// NewToolUsagePostgreSQLRepository returns a new instance of ToolUsagePostgreSQLRepository using the given Postgres connection.
func NewToolUsagePostgreSQLRepository(pc *mpostgres.PostgresConnection) *ToolUsagePostgreSQLRepository {
	r := &ToolUsagePostgreSQLRepository{
		connection: pc,
	}

	_, err := r.connection.GetDB(context.Background())
	if err != nil {
		panic("Failed to connect database")
	}

	return r
}

// RecordInvocation folds one observed runtime into the tool's rolling average.
func (r *ToolUsagePostgreSQLRepository) RecordInvocation(ctx context.Context, toolID string, runtimeSeconds float64) error {
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.tool_usage.record")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to get database connection", err)

		return err
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO tool_usage (tool_id, invocations, avg_runtime_seconds)
		 VALUES ($1, 1, $2)
		 ON CONFLICT (tool_id) DO UPDATE SET
			avg_runtime_seconds = (tool_usage.avg_runtime_seconds * tool_usage.invocations + $2) / (tool_usage.invocations + 1),
			invocations = tool_usage.invocations + 1`,
		toolID, runtimeSeconds)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to record invocation", err)
	}

	return err
}

// All returns every tool's usage keyed by tool id.
func (r *ToolUsagePostgreSQLRepository) All(ctx context.Context) (map[string]*mmodel.ToolUsage, error) {
	db, err := r.connection.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT tool_id, invocations, avg_runtime_seconds FROM tool_usage`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	usage := make(map[string]*mmodel.ToolUsage)

	for rows.Next() {
		u := &mmodel.ToolUsage{}

		if err := rows.Scan(&u.ToolID, &u.Invocations, &u.AvgRuntimeSeconds); err != nil {
			return nil, err
		}

		usage[u.ToolID] = u
	}

	return usage, rows.Err()
}

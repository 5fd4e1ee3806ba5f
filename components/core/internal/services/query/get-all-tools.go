package query

import (
	"context"

	"github.com/GrimoireLabs/grimoire/components/core/internal/pricing"
	"github.com/GrimoireLabs/grimoire/components/core/internal/registry"
	"github.com/GrimoireLabs/grimoire/pkg"
	cn "github.com/GrimoireLabs/grimoire/pkg/constant"
	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
)

// GetAllTools lists public tool projections for discovery.
func (uc *UseCase) GetAllTools(ctx context.Context, category string) []mmodel.PublicTool {
	tools := uc.Registry.List(registry.ListFilter{
		Category:   category,
		Visibility: "public",
	})

	projections := make([]mmodel.PublicTool, 0, len(tools))

	for _, tool := range tools {
		projections = append(projections, tool.ToPublic())
	}

	return projections
}

// GetToolByID returns the public projection of one tool.
func (uc *UseCase) GetToolByID(ctx context.Context, toolID string) (*mmodel.PublicTool, error) {
	tool, err := uc.Registry.Get(toolID)
	if err != nil {
		return nil, err
	}

	projection := tool.ToPublic()

	return &projection, nil
}

// QuoteTool validates inputs and prices one invocation without executing it.
func (uc *UseCase) QuoteTool(ctx context.Context, toolID string, inputs map[string]any) (*pricing.Quote, error) {
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "query.quote_tool")
	defer span.End()

	tool, err := uc.Registry.Get(toolID)
	if err != nil {
		return nil, err
	}

	normalized, err := uc.Registry.Validate(tool.ID, inputs)
	if err != nil {
		return nil, err
	}

	avg := 0.0

	if tool.Cost.Kind == cn.CostPerBackendSecond && uc.UsageRepo != nil {
		usage, err := uc.UsageRepo.All(ctx)
		if err == nil {
			if u, ok := usage[tool.ID]; ok {
				avg = u.AvgRuntimeSeconds
			}
		}
	}

	return uc.Quoter.QuoteTool(tool, normalized, avg)
}

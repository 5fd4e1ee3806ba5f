package command

import (
	"context"

	"github.com/GrimoireLabs/grimoire/pkg"
	cn "github.com/GrimoireLabs/grimoire/pkg/constant"
	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
	"github.com/GrimoireLabs/grimoire/pkg/mopentelemetry"
	"github.com/google/uuid"
	"github.com/iancoleman/strcase"
)

// CreateSpellInput carries an authored spell draft.
type CreateSpellInput struct {
	Name        string             `json:"name" validate:"required,max=120"`
	Description string             `json:"description,omitempty" validate:"max=2000"`
	Parameters  map[string]any     `json:"parameters"`
	Steps       []mmodel.SpellStep `json:"steps" validate:"required,min=1,max=20"`
}

// CreateSpell stores a new spell draft. Every step's tool must exist and every
// binding must address a declared input; publication freezes the result.
func (uc *UseCase) CreateSpell(ctx context.Context, ownerID uuid.UUID, input *CreateSpellInput) (*mmodel.Spell, error) {
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.create_spell")
	defer span.End()

	for i, step := range input.Steps {
		tool, err := uc.Registry.Get(step.ToolID)
		if err != nil {
			mopentelemetry.HandleSpanError(&span, "Unknown tool in spell step", err)

			return nil, pkg.ValidateBusinessError(cn.ErrSpellBindingUnresolved, "Spell", i, step.ToolID)
		}

		properties, _ := tool.InputSchema["properties"].(map[string]any)

		for field := range step.Bindings {
			if _, ok := properties[field]; !ok && !tool.AdditionalInputs {
				return nil, pkg.ValidateBusinessError(cn.ErrSpellBindingUnresolved, "Spell", i, field)
			}
		}

		for field, binding := range step.Bindings {
			if binding.Kind == mmodel.BindingStepOutput && binding.Step >= i {
				return nil, pkg.ValidateBusinessError(cn.ErrSpellBindingUnresolved, "Spell", i, field)
			}
		}
	}

	sp := &mmodel.Spell{
		ID:          pkg.GenerateUUIDv7(),
		Slug:        strcase.ToKebab(input.Name),
		Version:     1,
		Name:        input.Name,
		Description: input.Description,
		OwnerID:     ownerID,
		Parameters:  input.Parameters,
		Steps:       input.Steps,
	}

	return uc.SpellRepo.Create(ctx, sp)
}

// PublishSpell freezes a spell draft; published spells are immutable by id.
func (uc *UseCase) PublishSpell(ctx context.Context, ownerID, spellID uuid.UUID) (*mmodel.Spell, error) {
	sp, err := uc.SpellRepo.Find(ctx, spellID)
	if err != nil {
		return nil, err
	}

	if sp.OwnerID != ownerID {
		return nil, pkg.ValidateBusinessError(cn.ErrForbidden, "Spell")
	}

	return uc.SpellRepo.Publish(ctx, spellID)
}

package command

import (
	"github.com/GrimoireLabs/grimoire/pkg"
	cn "github.com/GrimoireLabs/grimoire/pkg/constant"
	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
)

// ResolveStepInputs binds one step's inputs from literals, cast parameters, and
// the named outputs of earlier steps. Step outputs are addressed by their declared
// output name, never by array position. The first binding that cannot resolve
// fails the resolution with a structured error naming it.
func ResolveStepInputs(sp *mmodel.Spell, stepIndex int, params map[string]any, stepOutputs map[int][]mmodel.Output) (map[string]any, error) {
	step := sp.Steps[stepIndex]

	inputs := make(map[string]any, len(step.Bindings))

	for field, binding := range step.Bindings {
		switch binding.Kind {
		case mmodel.BindingLiteral:
			inputs[field] = binding.Value
		case mmodel.BindingParameter:
			value, ok := params[binding.Parameter]
			if !ok {
				return nil, pkg.ValidateBusinessError(cn.ErrSpellBindingUnresolved, "Spell", stepIndex, field)
			}

			inputs[field] = value
		case mmodel.BindingStepOutput:
			if binding.Step >= stepIndex {
				return nil, pkg.ValidateBusinessError(cn.ErrSpellBindingUnresolved, "Spell", stepIndex, field)
			}

			value, ok := lookupOutput(stepOutputs[binding.Step], binding.Output)
			if !ok {
				return nil, pkg.ValidateBusinessError(cn.ErrSpellBindingUnresolved, "Spell", stepIndex, field)
			}

			inputs[field] = value
		default:
			return nil, pkg.ValidateBusinessError(cn.ErrSpellBindingUnresolved, "Spell", stepIndex, field)
		}
	}

	// Declared schema migration: the step may rename inputs when the tool's schema
	// advanced since the spell was published.
	for oldName, newName := range step.Rename {
		if value, ok := inputs[oldName]; ok {
			delete(inputs, oldName)
			inputs[newName] = value
		}
	}

	return inputs, nil
}

func lookupOutput(outputs []mmodel.Output, name string) (any, bool) {
	for _, output := range outputs {
		if output.Name != name {
			continue
		}

		if output.URL != "" {
			return output.URL, true
		}

		if output.Data != nil {
			if text, ok := output.Data["text"]; ok {
				return text, true
			}

			return output.Data, true
		}
	}

	return nil, false
}

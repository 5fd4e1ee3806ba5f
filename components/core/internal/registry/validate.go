package registry

import (
	"fmt"
	"strconv"

	"github.com/GrimoireLabs/grimoire/pkg"
	cn "github.com/GrimoireLabs/grimoire/pkg/constant"
	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
)

// Validate checks inputs against the tool's input schema. It coerces numeric
// strings, applies declared defaults, and rejects unknown fields unless the tool
// opted into additional inputs. The returned map is a normalized copy; callers
// downstream never re-parse.
func (r *Registry) Validate(toolID string, inputs map[string]any) (map[string]any, error) {
	tool, err := r.Get(toolID)
	if err != nil {
		return nil, err
	}

	normalized := make(map[string]any, len(inputs))
	for k, v := range inputs {
		normalized[k] = copyJSONValue(v)
	}

	properties, _ := tool.InputSchema["properties"].(map[string]any)

	if !tool.AdditionalInputs {
		for field := range normalized {
			if _, ok := properties[field]; !ok {
				return nil, pkg.ValidateBusinessError(cn.ErrInvalidToolInput, "Tool",
					fmt.Sprintf("unknown field %q", field))
			}
		}
	}

	for field, rawSpec := range properties {
		spec, ok := rawSpec.(map[string]any)
		if !ok {
			continue
		}

		if value, present := normalized[field]; present {
			normalized[field] = coerce(value, spec)
			continue
		}

		if def, hasDefault := spec["default"]; hasDefault {
			normalized[field] = copyJSONValue(def)
		}
	}

	if schema := r.Schema(toolID); schema != nil {
		if err := schema.Validate(copyJSONValue(normalized)); err != nil {
			return nil, pkg.ValidateBusinessError(cn.ErrInvalidToolInput, "Tool", err.Error())
		}
	}

	return normalized, nil
}

// coerce converts a value toward the declared schema type when the conversion is
// lossless: numeric strings and ints to float64 (for number and integer fields
// alike), boolean strings to bools, and numbers or bools to strings for string fields.
func coerce(value any, spec map[string]any) any {
	declared, _ := spec["type"].(string)

	switch declared {
	case "number", "integer":
		switch v := value.(type) {
		case string:
			if parsed, err := strconv.ParseFloat(v, 64); err == nil {
				return parsed
			}
		case float64:
			return v
		case int:
			return float64(v)
		}
	case "boolean":
		if v, ok := value.(string); ok {
			if parsed, err := strconv.ParseBool(v); err == nil {
				return parsed
			}
		}
	case "string":
		switch v := value.(type) {
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			return strconv.FormatBool(v)
		}
	}

	return value
}

// ValidateForTool is Validate for an already-resolved definition, used by the spell
// runner after binding resolution.
func (r *Registry) ValidateForTool(tool *mmodel.Tool, inputs map[string]any) (map[string]any, error) {
	return r.Validate(tool.ID, inputs)
}

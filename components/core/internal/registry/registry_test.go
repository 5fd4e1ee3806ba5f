package registry

import (
	"context"
	"testing"

	"github.com/GrimoireLabs/grimoire/pkg"
	cn "github.com/GrimoireLabs/grimoire/pkg/constant"
	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func imageTool() *mmodel.Tool {
	return &mmodel.Tool{
		ID:           "make-image",
		Name:         "Make Image",
		Description:  "Text-to-image generation.",
		Category:     "image",
		Visibility:   "public",
		DeliveryMode: cn.ModeWebhook,
		Command:      "make_image",
		Backend:      "comfy",
		Endpoint:     "text2img",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"prompt": map[string]any{"type": "string"},
				"count":  map[string]any{"type": "integer", "default": float64(1)},
			},
			"required": []any{"prompt"},
		},
		Cost: mmodel.CostModel{
			Kind:      cn.CostStatic,
			AmountUSD: decimal.NewFromFloat(0.02),
			Tolerance: 0.25,
		},
	}
}

func captionTool() *mmodel.Tool {
	return &mmodel.Tool{
		ID:           "caption",
		Name:         "Caption",
		Description:  "Short caption for an image.",
		Category:     "text",
		Visibility:   "public",
		DeliveryMode: cn.ModeImmediate,
		Command:      "caption",
		Backend:      "llm",
		Endpoint:     "captioner-v2",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"image_url": map[string]any{"type": "string"},
			},
			"required": []any{"image_url"},
		},
		Cost: mmodel.CostModel{
			Kind:      cn.CostStatic,
			AmountUSD: decimal.NewFromFloat(0.002),
			Tolerance: 0.25,
		},
	}
}

func TestRegistryGetAndList(t *testing.T) {
	reg, err := NewFromTools([]*mmodel.Tool{imageTool(), captionTool()})
	require.NoError(t, err)

	tool, err := reg.Get("make-image")
	require.NoError(t, err)
	assert.Equal(t, "Make Image", tool.Name)

	_, err = reg.Get("unknown")
	require.Error(t, err)

	var notFound pkg.EntityNotFoundError
	assert.ErrorAs(t, err, &notFound)

	all := reg.List(ListFilter{})
	assert.Len(t, all, 2)

	images := reg.List(ListFilter{Category: "image"})
	require.Len(t, images, 1)
	assert.Equal(t, "make-image", images[0].ID)
}

func TestRegistryByCommand(t *testing.T) {
	reg, err := NewFromTools([]*mmodel.Tool{imageTool()})
	require.NoError(t, err)

	tool, err := reg.ByCommand("make_image")
	require.NoError(t, err)
	assert.Equal(t, "make-image", tool.ID)

	_, err = reg.ByCommand("nope")
	assert.Error(t, err)
}

type stubLoader struct {
	tools []*mmodel.Tool
}

func (l *stubLoader) Load(ctx context.Context) ([]*mmodel.Tool, error) {
	return l.tools, nil
}

func TestRegistryReloadSwapsAtomically(t *testing.T) {
	loader := &stubLoader{tools: []*mmodel.Tool{imageTool()}}

	reg, err := New(context.Background(), loader)
	require.NoError(t, err)

	_, err = reg.Get("caption")
	assert.Error(t, err)

	loader.tools = []*mmodel.Tool{imageTool(), captionTool()}
	require.NoError(t, reg.Reload(context.Background()))

	_, err = reg.Get("caption")
	assert.NoError(t, err)
}

func TestRegistryLaterSourceWinsOnConflict(t *testing.T) {
	older := imageTool()
	newer := imageTool()
	newer.Description = "Remote catalog variant."

	reg, err := NewFromTools([]*mmodel.Tool{older, newer})
	require.NoError(t, err)

	tool, err := reg.Get("make-image")
	require.NoError(t, err)
	assert.Equal(t, "Remote catalog variant.", tool.Description)

	assert.Len(t, reg.List(ListFilter{}), 1)
}

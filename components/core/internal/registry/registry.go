package registry

import (
	"context"
	"sort"
	"sync/atomic"

	"github.com/GrimoireLabs/grimoire/pkg"
	cn "github.com/GrimoireLabs/grimoire/pkg/constant"
	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Catalog is one immutable snapshot of the tool registry. Lookups either see the
// whole old catalog or the whole new one, never a torn state.
type Catalog struct {
	tools      map[string]*mmodel.Tool
	compiled   map[string]*jsonschema.Schema
	byCommand  map[string]string
	byCategory map[string][]string
	ordered    []string
}

// ListFilter narrows catalog listings.
type ListFilter struct {
	Category   string
	Visibility string
}

// Registry is the process-wide tool catalog. It is the one justified singleton of
// the component and is swapped atomically on reload.
type Registry struct {
	catalog atomic.Pointer[Catalog]
	loader  Loader
}

// Loader assembles a fresh catalog from its sources.
type Loader interface {
	Load(ctx context.Context) ([]*mmodel.Tool, error)
}

// New builds a registry and performs the initial load.
func New(ctx context.Context, loader Loader) (*Registry, error) {
	r := &Registry{
		loader: loader,
	}

	if err := r.Reload(ctx); err != nil {
		return nil, err
	}

	return r, nil
}

// NewFromTools builds a registry over a fixed tool set, without a loader.
func NewFromTools(tools []*mmodel.Tool) (*Registry, error) {
	catalog, err := buildCatalog(tools)
	if err != nil {
		return nil, err
	}

	r := &Registry{}
	r.catalog.Store(catalog)

	return r, nil
}

// Reload assembles a fresh catalog and swaps it in atomically. In-flight lookups
// keep reading the previous snapshot until the swap lands.
func (r *Registry) Reload(ctx context.Context) error {
	logger := pkg.NewLoggerFromContext(ctx)

	tools, err := r.loader.Load(ctx)
	if err != nil {
		return err
	}

	catalog, err := buildCatalog(tools)
	if err != nil {
		return err
	}

	r.catalog.Store(catalog)

	logger.Infof("Tool registry reloaded with %d tool(s)", len(catalog.ordered))

	return nil
}

func (r *Registry) snapshot() *Catalog {
	return r.catalog.Load()
}

// Get returns the definition of toolID or NOT_FOUND.
func (r *Registry) Get(toolID string) (*mmodel.Tool, error) {
	tool, ok := r.snapshot().tools[toolID]
	if !ok {
		return nil, pkg.ValidateBusinessError(cn.ErrEntityNotFound, "Tool")
	}

	return tool, nil
}

// ByCommand resolves a platform command name to its tool.
func (r *Registry) ByCommand(command string) (*mmodel.Tool, error) {
	catalog := r.snapshot()

	toolID, ok := catalog.byCommand[command]
	if !ok {
		return nil, pkg.ValidateBusinessError(cn.ErrEntityNotFound, "Tool")
	}

	return catalog.tools[toolID], nil
}

// List returns an ordered listing for discovery, narrowed by the filter.
func (r *Registry) List(filter ListFilter) []*mmodel.Tool {
	catalog := r.snapshot()

	ids := catalog.ordered
	if filter.Category != "" {
		ids = catalog.byCategory[filter.Category]
	}

	tools := make([]*mmodel.Tool, 0, len(ids))

	for _, id := range ids {
		tool := catalog.tools[id]

		if filter.Visibility != "" && tool.Visibility != filter.Visibility {
			continue
		}

		tools = append(tools, tool)
	}

	return tools
}

// Schema returns the compiled input schema of toolID, nil when the tool declares none.
func (r *Registry) Schema(toolID string) *jsonschema.Schema {
	return r.snapshot().compiled[toolID]
}

func buildCatalog(tools []*mmodel.Tool) (*Catalog, error) {
	catalog := &Catalog{
		tools:      make(map[string]*mmodel.Tool, len(tools)),
		compiled:   make(map[string]*jsonschema.Schema, len(tools)),
		byCommand:  make(map[string]string, len(tools)),
		byCategory: make(map[string][]string),
	}

	for _, tool := range tools {
		if _, ok := catalog.tools[tool.ID]; ok {
			// Later sources win on id conflicts; drop the earlier definition.
			catalog.ordered = removeID(catalog.ordered, tool.ID)
			catalog.byCategory[catalog.tools[tool.ID].Category] = removeID(catalog.byCategory[catalog.tools[tool.ID].Category], tool.ID)
		}

		catalog.tools[tool.ID] = tool
		catalog.ordered = append(catalog.ordered, tool.ID)
		catalog.byCategory[tool.Category] = append(catalog.byCategory[tool.Category], tool.ID)

		if tool.Command != "" {
			catalog.byCommand[tool.Command] = tool.ID
		}

		if len(tool.InputSchema) > 0 {
			schema, err := compileSchema(tool)
			if err != nil {
				return nil, err
			}

			catalog.compiled[tool.ID] = schema
		}
	}

	sort.Strings(catalog.ordered)

	for category := range catalog.byCategory {
		sort.Strings(catalog.byCategory[category])
	}

	return catalog, nil
}

func compileSchema(tool *mmodel.Tool) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()

	doc := normalizeSchemaDoc(tool.InputSchema)

	if err := compiler.AddResource(tool.ID+".schema.json", doc); err != nil {
		return nil, err
	}

	return compiler.Compile(tool.ID + ".schema.json")
}

// normalizeSchemaDoc deep-copies the schema through plain JSON types so yaml-sourced
// documents (map[string]any with non-string leaves) compile cleanly.
func normalizeSchemaDoc(schema map[string]any) any {
	return copyJSONValue(schema)
}

func copyJSONValue(v any) any {
	switch value := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(value))
		for k, item := range value {
			out[k] = copyJSONValue(item)
		}

		return out
	case map[any]any:
		out := make(map[string]any, len(value))
		for k, item := range value {
			if key, ok := k.(string); ok {
				out[key] = copyJSONValue(item)
			}
		}

		return out
	case []any:
		out := make([]any, len(value))
		for i, item := range value {
			out[i] = copyJSONValue(item)
		}

		return out
	case int:
		return float64(value)
	case int64:
		return float64(value)
	default:
		return value
	}
}

func removeID(ids []string, id string) []string {
	out := ids[:0]

	for _, candidate := range ids {
		if candidate != id {
			out = append(out, candidate)
		}
	}

	return out
}

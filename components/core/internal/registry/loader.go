package registry

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/GrimoireLabs/grimoire/pkg"
	cn "github.com/GrimoireLabs/grimoire/pkg/constant"
	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
	"github.com/iancoleman/strcase"
	"gopkg.in/yaml.v3"
)

// Platform display limits for tool descriptions. Longer descriptions are truncated
// at load time for that platform's variant only.
var platformDescriptionLimits = map[string]int{
	"telegram": 512,
	"discord":  100,
	"web":      2000,
}

// WorkflowCatalog lists tool definitions discovered from a remote backend.
type WorkflowCatalog interface {
	ListWorkflows(ctx context.Context) ([]*mmodel.Tool, error)
}

// CompositeLoader assembles the catalog from static YAML files plus the remote
// workflow catalog. Remote definitions win on id conflicts.
type CompositeLoader struct {
	// StaticPath is the directory of *.yaml tool definition files.
	StaticPath string

	// Remote is optional; nil skips remote discovery.
	Remote WorkflowCatalog
}

// Load assembles the definitions from both sources and normalizes them.
func (l *CompositeLoader) Load(ctx context.Context) ([]*mmodel.Tool, error) {
	logger := pkg.NewLoggerFromContext(ctx)

	var tools []*mmodel.Tool

	if l.StaticPath != "" {
		static, err := loadStaticTools(l.StaticPath)
		if err != nil {
			return nil, err
		}

		tools = append(tools, static...)
	}

	if l.Remote != nil {
		remote, err := l.Remote.ListWorkflows(ctx)
		if err != nil {
			// The static set keeps the service usable when the remote catalog is
			// down; discovery retries on the next reload.
			logger.Warnf("Remote workflow catalog unavailable: %v", err)
		} else {
			tools = append(tools, remote...)
		}
	}

	for _, tool := range tools {
		normalizeTool(tool)
	}

	return tools, nil
}

func loadStaticTools(dir string) ([]*mmodel.Tool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var tools []*mmodel.Tool

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		raw, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}

		// YAML is decoded through plain JSON types so decimal-valued cost fields
		// parse with their JSON unmarshalers.
		var generic any

		if err := yaml.Unmarshal(raw, &generic); err != nil {
			return nil, err
		}

		normalized, err := json.Marshal(copyJSONValue(generic))
		if err != nil {
			return nil, err
		}

		var doc struct {
			Tools []*mmodel.Tool `json:"tools"`
		}

		if err := json.Unmarshal(normalized, &doc); err != nil {
			return nil, err
		}

		tools = append(tools, doc.Tools...)
	}

	return tools, nil
}

// normalizeTool fills derived fields: the platform command name, per-platform
// description truncation, and timeout defaults.
func normalizeTool(tool *mmodel.Tool) {
	if tool.Command == "" {
		tool.Command = strcase.ToSnake(tool.Name)
	}

	if tool.Visibility == "" {
		tool.Visibility = "public"
	}

	if tool.DeliveryMode == "" {
		tool.DeliveryMode = cn.ModeImmediate
	}

	if tool.SoftTimeoutSeconds <= 0 {
		tool.SoftTimeoutSeconds = 120
	}

	if tool.HardTimeoutSeconds <= tool.SoftTimeoutSeconds {
		tool.HardTimeoutSeconds = tool.SoftTimeoutSeconds * 5
	}

	if tool.Cost.Tolerance <= 0 {
		tool.Cost.Tolerance = 0.25
	}

	if tool.PlatformHints == nil {
		tool.PlatformHints = make(map[string]string, len(platformDescriptionLimits))
	}

	for platform, limit := range platformDescriptionLimits {
		hint, ok := tool.PlatformHints[platform]
		if !ok {
			hint = tool.Description
		}

		tool.PlatformHints[platform] = pkg.TruncateWithEllipsis(hint, limit)
	}
}

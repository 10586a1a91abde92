package model

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.yaml.in/yaml/v3"

	"github.com/ekisa-team/tabserve/internal/xfs"
)

const artifactSchemaURL = "artifact.v1.schema.json"

//go:embed schema/artifact.v1.schema.json
var artifactSchemaJSON string

var artifactSchema = jsonschema.MustCompileString(artifactSchemaURL, artifactSchemaJSON)

// Loader reads artifacts and turns them into bundles.
type Loader struct {
	registry *Registry
}

// NewLoader creates a loader that decodes predictors with registry.
func NewLoader(registry *Registry) *Loader {
	return &Loader{registry: registry}
}

// Load loads the artifact at path with the built-in predictor kinds.
func Load(path string) (*Bundle, error) {
	return NewLoader(DefaultRegistry()).Load(path)
}

// Load reads and decodes the artifact at path.
// A missing file yields ErrArtifactNotFound.
func (l *Loader) Load(path string) (*Bundle, error) {
	ok, err := xfs.IsRegularFile(path)
	if err != nil {
		return nil, fmt.Errorf("model: failed to stat artifact %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w at %s", ErrArtifactNotFound, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("model: failed to read artifact: %w", err)
	}

	bundle, err := l.Decode(data)
	if err != nil {
		return nil, err
	}
	bundle.Path = path

	slog.Info("Model artifact loaded",
		"path", path,
		"kind", bundle.Predictor.Kind(),
		"feature_columns", len(bundle.FeatureColumns))

	return bundle, nil
}

// Decode decodes an artifact document. JSON and YAML are both accepted.
// A document with a "model" key is a bundle; any other document is the predictor itself.
func (l *Loader) Decode(data []byte) (*Bundle, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArtifact, err)
	}

	if err := artifactSchema.Validate(raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArtifact, err)
	}

	doc := raw.(map[string]any)
	bundle := &Bundle{LoadedAt: time.Now()}

	predictorDoc := doc
	if m, ok := doc["model"]; ok {
		predictorDoc = m.(map[string]any)

		if cols, ok := doc["feature_columns"].([]any); ok {
			bundle.FeatureColumns = make([]string, len(cols))
			for i, c := range cols {
				bundle.FeatureColumns[i] = c.(string)
			}
		}
	}

	kind := predictorDoc["kind"].(string)
	decode, ok := l.registry.Get(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	params, err := json.Marshal(predictorDoc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArtifact, err)
	}

	predictor, err := decode(params)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidArtifact, kind, err)
	}
	bundle.Predictor = predictor

	return bundle, nil
}

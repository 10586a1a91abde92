package model

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeArtifact(t *testing.T, name, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Bundle(t *testing.T) {
	path := writeArtifact(t, "model.json", `{
		"model": {"kind": "linear", "coefficients": [1, 1, 1], "intercept": 0},
		"feature_columns": ["a", "b", "c"]
	}`)

	bundle, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, path, bundle.Path)
	assert.Equal(t, KindLinear, bundle.Predictor.Kind())
	assert.Equal(t, []string{"a", "b", "c"}, bundle.FeatureColumns)
	assert.True(t, bundle.HasFeatureColumns())
	assert.False(t, bundle.LoadedAt.IsZero())
}

func TestLoad_BarePredictorHasNoFeatureColumns(t *testing.T) {
	path := writeArtifact(t, "model.yaml", `
kind: logistic
coefficients: [0.5, -0.25]
intercept: 0.1
classes: [no, yes]
`)

	bundle, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, KindLogistic, bundle.Predictor.Kind())
	assert.Nil(t, bundle.FeatureColumns)
	assert.False(t, bundle.HasFeatureColumns())
	assert.NoError(t, bundle.CheckWidth(42))
}

func TestLoad_NullFeatureColumnsAreUnconstrained(t *testing.T) {
	path := writeArtifact(t, "model.json", `{"model": {"kind": "linear", "coefficients": [1]}, "feature_columns": null}`)

	bundle, err := Load(path)
	require.NoError(t, err)
	assert.False(t, bundle.HasFeatureColumns())
}

func TestLoad_MissingArtifact(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "model.json"))
	assert.ErrorIs(t, err, ErrArtifactNotFound)
}

func TestLoad_DirectoryIsNotAnArtifact(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.ErrorIs(t, err, ErrArtifactNotFound)
}

func TestDecode_Invalid(t *testing.T) {
	cases := map[string]string{
		"not yaml":           "{",
		"not an object":      "[1, 2, 3]",
		"missing kind":       `{"coefficients": [1]}`,
		"linear no coefs":    `{"kind": "linear"}`,
		"linear ragged":      `{"kind": "linear", "coefficients": [[1, 2], [3]]}`,
		"linear intercepts":  `{"kind": "linear", "coefficients": [[1], [2]], "intercept": [1, 2, 3]}`,
		"logistic 3 classes": `{"kind": "logistic", "coefficients": [1], "classes": [1, 2, 3]}`,
		"logistic threshold": `{"kind": "logistic", "coefficients": [1], "threshold": 1.5}`,
		"tree cycle":         `{"kind": "tree", "nodes": [{"feature": 0, "left": 1, "right": 1}, {"feature": 0, "left": 1, "right": 1}]}`,
		"tree leaf no value": `{"kind": "tree", "nodes": [{"leaf": true}]}`,
		"duplicate columns":  `{"model": {"kind": "linear", "coefficients": [1, 2]}, "feature_columns": ["a", "a"]}`,
	}

	loader := NewLoader(DefaultRegistry())
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := loader.Decode([]byte(body))
			assert.ErrorIs(t, err, ErrInvalidArtifact)
		})
	}
}

func TestDecode_UnknownKind(t *testing.T) {
	_, err := NewLoader(DefaultRegistry()).Decode([]byte(`{"kind": "gbm"}`))
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestDecode_CustomKind(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("constant", func(params json.RawMessage) (Predictor, error) {
		return NewLinear([]float64{0}, 7), nil
	}))

	bundle, err := NewLoader(reg).Decode([]byte(`{"model": {"kind": "constant"}}`))
	require.NoError(t, err)

	out, err := bundle.Predictor.Predict(context.Background(), [][]float64{{1}})
	require.NoError(t, err)
	assert.Equal(t, []any{7.0}, out)
}

func TestBundle_CheckWidth(t *testing.T) {
	bundle := &Bundle{FeatureColumns: []string{"a", "b", "c"}}

	assert.NoError(t, bundle.CheckWidth(3))

	err := bundle.CheckWidth(2)
	var mismatch *FeatureMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 3, mismatch.Expected)
	assert.Equal(t, 2, mismatch.Got)
	assert.EqualError(t, err, "Expected 3 features, got 2")
}

func TestRegistry(t *testing.T) {
	reg := DefaultRegistry()

	assert.Equal(t, []string{KindLinear, KindLogistic, KindTree}, reg.Kinds())

	_, ok := reg.Get(KindTree)
	assert.True(t, ok)

	_, ok = reg.Get("missing")
	assert.False(t, ok)

	err := reg.Register(KindLinear, DecodeLinear)
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
}

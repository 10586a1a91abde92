package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ekisa-team/tabserve/internal/model"
	"github.com/ekisa-team/tabserve/internal/payload"
)

// --- Mock types ---

type MockPredictor struct {
	mock.Mock
}

func (m *MockPredictor) Kind() string {
	return "mock"
}

func (m *MockPredictor) Predict(ctx context.Context, rows [][]float64) ([]any, error) {
	args := m.Called(ctx, rows)
	if out, ok := args.Get(0).([]any); ok {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

type panicPredictor struct{}

func (panicPredictor) Kind() string { return "panic" }

func (panicPredictor) Predict(context.Context, [][]float64) ([]any, error) {
	panic("index out of range")
}

// --- Tests ---

func TestInference_RowSum(t *testing.T) {
	svc := NewInference(&model.Bundle{Predictor: model.NewLinear([]float64{1, 1, 1}, 0)}, nil)

	out, err := svc.Invoke(context.Background(), "text/csv", []byte("1,2,3\n4,5,6\n"))
	require.NoError(t, err)
	assert.Equal(t, []any{6.0, 15.0}, out)
}

func TestInference_FeatureColumns(t *testing.T) {
	pred := new(MockPredictor)
	pred.On("Predict", mock.Anything, [][]float64{{1, 2, 3}}).Return([]any{0.5}, nil).Once()

	svc := NewInference(&model.Bundle{Predictor: pred, FeatureColumns: []string{"a", "b", "c"}}, nil)

	out, err := svc.Invoke(context.Background(), "application/json", []byte(`{"instances": [[1, 2, 3]]}`))
	require.NoError(t, err)
	assert.Equal(t, []any{0.5}, out)

	_, err = svc.Invoke(context.Background(), "application/json", []byte(`[[1, 2]]`))
	var mismatch *model.FeatureMismatchError
	assert.ErrorAs(t, err, &mismatch)

	pred.AssertExpectations(t)
}

func TestInference_InputErrorsNeverReachPredictor(t *testing.T) {
	pred := new(MockPredictor)
	svc := NewInference(&model.Bundle{Predictor: pred}, nil)

	_, err := svc.Invoke(context.Background(), "application/xml", []byte("<x/>"))
	assert.ErrorIs(t, err, payload.ErrUnsupportedMediaType)

	_, err = svc.Invoke(context.Background(), "text/csv", []byte("  "))
	assert.ErrorIs(t, err, payload.ErrEmptyBody)

	_, err = svc.Invoke(context.Background(), "text/csv", []byte("a,b"))
	assert.ErrorIs(t, err, payload.ErrMalformed)

	pred.AssertNotCalled(t, "Predict", mock.Anything, mock.Anything)
}

func TestInference_PredictorError(t *testing.T) {
	pred := new(MockPredictor)
	pred.On("Predict", mock.Anything, mock.Anything).Return(nil, errors.New("boom"))

	svc := NewInference(&model.Bundle{Predictor: pred}, nil)

	_, err := svc.Invoke(context.Background(), "text/csv", []byte("1\n"))
	var perr *PredictionError
	require.ErrorAs(t, err, &perr)
	assert.EqualError(t, err, "Error generating prediction: boom")
}

func TestInference_PredictorOutputCountMismatch(t *testing.T) {
	pred := new(MockPredictor)
	pred.On("Predict", mock.Anything, mock.Anything).Return([]any{1.0}, nil)

	svc := NewInference(&model.Bundle{Predictor: pred}, nil)

	_, err := svc.Invoke(context.Background(), "text/csv", []byte("1\n2\n"))
	var perr *PredictionError
	assert.ErrorAs(t, err, &perr)
}

func TestInference_PredictorPanicIsRecovered(t *testing.T) {
	svc := NewInference(&model.Bundle{Predictor: panicPredictor{}}, nil)

	_, err := svc.Invoke(context.Background(), "text/csv", []byte("1\n"))
	var perr *PredictionError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, err.Error(), "index out of range")
}

func TestInference_NotLoaded(t *testing.T) {
	svc := NewInference(nil, nil)

	assert.ErrorIs(t, svc.Ready(), ErrModelNotLoaded)

	_, err := svc.Invoke(context.Background(), "text/csv", []byte("1\n"))
	assert.ErrorIs(t, err, ErrModelNotLoaded)
}

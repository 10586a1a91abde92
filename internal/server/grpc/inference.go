package grpc

import (
	"context"
	"encoding/json"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ekisa-team/tabserve/internal/payload"
	"github.com/ekisa-team/tabserve/internal/service"
)

const (
	// InferenceServiceName is the fully-qualified name of the inference service.
	InferenceServiceName = "tabserve.v1.Inference"

	predictMethod = "/" + InferenceServiceName + "/Predict"
)

// InferenceServer is the server API of the tabserve.v1.Inference service.
// Requests are {"instances": [[...], ...]}; responses hold one value per instance.
type InferenceServer interface {
	Predict(ctx context.Context, in *structpb.Struct) (*structpb.ListValue, error)
}

var inferenceServiceDesc = grpc.ServiceDesc{
	ServiceName: InferenceServiceName,
	HandlerType: (*InferenceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Predict",
			Handler:    predictHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "tabserve/v1/inference.proto",
}

func predictHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InferenceServer).Predict(ctx, in)
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: predictMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(InferenceServer).Predict(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// InferenceClient calls the tabserve.v1.Inference service.
type InferenceClient struct {
	cc grpc.ClientConnInterface
}

// NewInferenceClient creates a client on top of cc.
func NewInferenceClient(cc grpc.ClientConnInterface) *InferenceClient {
	return &InferenceClient{cc: cc}
}

// Predict sends instances and returns the predictions.
func (c *InferenceClient) Predict(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, predictMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// inferenceService adapts service.Inference to InferenceServer.
type inferenceService struct {
	service *service.Inference
}

// Predict runs the same inference path as POST /invocations.
func (s *inferenceService) Predict(ctx context.Context, in *structpb.Struct) (*structpb.ListValue, error) {
	if err := s.service.Ready(); err != nil {
		return nil, status.Error(codes.Unavailable, err.Error())
	}

	instances, ok := in.GetFields()["instances"]
	if !ok {
		return nil, status.Error(codes.InvalidArgument, `request must have an "instances" field`)
	}

	table, err := payload.FromValues(instances.AsInterface())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if len(table) == 0 {
		return nil, status.Error(codes.InvalidArgument, payload.ErrEmptyBody.Error())
	}

	preds, err := s.service.Predict(ctx, table)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, status.FromContextError(err).Err()
		}
		return nil, status.Error(codes.Internal, err.Error())
	}

	return toListValue(preds)
}

// toListValue converts predictions into a ListValue. Predictions are normalized
// through JSON first since structpb only accepts []any and map[string]any containers.
func toListValue(preds []any) (*structpb.ListValue, error) {
	data, err := json.Marshal(preds)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode predictions: %v", err)
	}

	var values []any
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode predictions: %v", err)
	}

	list, err := structpb.NewList(values)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode predictions: %v", err)
	}
	return list, nil
}

package grpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	longrunningpb "cloud.google.com/go/longrunning/autogen/longrunningpb"
)

// ServiceName is the fully qualified name of the translator service.
const ServiceName = "yard.v1.Translator"

const (
	translateMethod = "/" + ServiceName + "/Translate"
	runBatchMethod  = "/" + ServiceName + "/RunBatch"
)

// TranslatorServer is the server API for the yard.v1.Translator service.
// Requests and responses are well-known protobuf types, so no generated
// code is needed on either side.
type TranslatorServer interface {
	// Translate takes one line of infix text and returns the translation
	// record.
	Translate(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	// RunBatch takes a YAML or JSON suite definition and returns the
	// completed batch operation.
	RunBatch(context.Context, *wrapperspb.StringValue) (*longrunningpb.Operation, error)
}

// RegisterTranslatorServer registers srv on s.
func RegisterTranslatorServer(s grpc.ServiceRegistrar, srv TranslatorServer) {
	s.RegisterService(&translatorServiceDesc, srv)
}

var translatorServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TranslatorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Translate", Handler: translateHandler},
		{MethodName: "RunBatch", Handler: runBatchHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "yard/v1/translator.proto",
}

func translateHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TranslatorServer).Translate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: translateMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(TranslatorServer).Translate(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func runBatchHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TranslatorServer).RunBatch(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: runBatchMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(TranslatorServer).RunBatch(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// TranslatorClient calls the yard.v1.Translator service.
type TranslatorClient struct {
	cc grpc.ClientConnInterface
}

// NewTranslatorClient creates a client on cc.
func NewTranslatorClient(cc grpc.ClientConnInterface) *TranslatorClient {
	return &TranslatorClient{cc: cc}
}

// Translate translates one line.
func (c *TranslatorClient) Translate(ctx context.Context, expression string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, translateMethod, wrapperspb.String(expression), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// RunBatch runs a suite definition.
func (c *TranslatorClient) RunBatch(ctx context.Context, source string, opts ...grpc.CallOption) (*longrunningpb.Operation, error) {
	out := new(longrunningpb.Operation)
	if err := c.cc.Invoke(ctx, runBatchMethod, wrapperspb.String(source), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

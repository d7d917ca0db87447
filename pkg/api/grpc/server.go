// Package grpcapi implements the gRPC translator service and the
// google.longrunning Operations service over stored batch runs.
package grpcapi

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/anypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	longrunningpb "cloud.google.com/go/longrunning/autogen/longrunningpb"

	"github.com/lemonberrylabs/shunting-yard/pkg/expr"
	"github.com/lemonberrylabs/shunting-yard/pkg/parser"
	"github.com/lemonberrylabs/shunting-yard/pkg/runtime"
	"github.com/lemonberrylabs/shunting-yard/pkg/store"
)

// defaultPageSize applies to ListOperations requests without a page size.
const defaultPageSize = 50

// Server implements the Translator and Operations gRPC services.
type Server struct {
	longrunningpb.UnimplementedOperationsServer

	engine *runtime.Engine
	store  *store.Store
	grpc   *grpc.Server
}

// New creates a new gRPC server around engine. The engine must have a store.
func New(engine *runtime.Engine) *Server {
	srv := &Server{
		engine: engine,
		store:  engine.Store(),
	}

	gs := grpc.NewServer()
	RegisterTranslatorServer(gs, srv)
	longrunningpb.RegisterOperationsServer(gs, srv)
	srv.grpc = gs

	return srv
}

// Serve starts listening on the given address and serves gRPC requests.
func (s *Server) Serve(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	return s.ServeListener(lis)
}

// ServeListener serves gRPC requests on an existing listener.
func (s *Server) ServeListener(lis net.Listener) error {
	return s.grpc.Serve(lis)
}

// GracefulStop gracefully stops the gRPC server.
func (s *Server) GracefulStop() {
	s.grpc.GracefulStop()
}

// --- Translator Service ---

// Translate translates one line and returns the recorded translation.
func (s *Server) Translate(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	input := req.GetValue()
	if err := expr.CheckLine(input); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	tr := s.engine.Translate(input, runtime.SourceGRPC)
	out, err := structpb.NewStruct(tr.ToMap())
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode translation: %v", err)
	}
	return out, nil
}

// RunBatch parses a suite definition, runs it and returns the completed
// operation.
func (s *Server) RunBatch(ctx context.Context, req *wrapperspb.StringValue) (*longrunningpb.Operation, error) {
	src := req.GetValue()
	if src == "" {
		return nil, status.Error(codes.InvalidArgument, "suite source is required")
	}

	suite, err := parser.Parse([]byte(src))
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid suite definition: %v", err)
	}

	batch := s.store.CreateBatch(suite.Name, src)
	report, err := s.engine.RunSuite(ctx, suite, batch.Name)
	if err != nil {
		if ctx.Err() != nil {
			return nil, status.FromContextError(ctx.Err()).Err()
		}
		return nil, status.Error(codes.Internal, err.Error())
	}

	done, err := s.store.GetBatch(batch.Name)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	response := done.ToMap()
	response["results"] = report.ToMap()["results"]
	return batchOperation(done, response)
}

// --- Operations Service ---

// GetOperation returns the operation of a stored batch.
func (s *Server) GetOperation(ctx context.Context, req *longrunningpb.GetOperationRequest) (*longrunningpb.Operation, error) {
	b, err := s.store.GetBatch(req.GetName())
	if err != nil {
		return nil, status.Error(codes.NotFound, err.Error())
	}
	return batchOperation(b, b.ToMap())
}

// ListOperations lists batch operations in creation order. The page token
// is the offset of the first operation to return.
func (s *Server) ListOperations(ctx context.Context, req *longrunningpb.ListOperationsRequest) (*longrunningpb.ListOperationsResponse, error) {
	batches := s.store.ListBatches()

	start := 0
	if tok := req.GetPageToken(); tok != "" {
		n, err := strconv.Atoi(tok)
		if err != nil || n < 0 || n > len(batches) {
			return nil, status.Errorf(codes.InvalidArgument, "invalid page token %q", tok)
		}
		start = n
	}
	size := int(req.GetPageSize())
	if size <= 0 {
		size = defaultPageSize
	}
	end := start + size
	if end > len(batches) {
		end = len(batches)
	}

	resp := &longrunningpb.ListOperationsResponse{}
	for _, b := range batches[start:end] {
		op, err := batchOperation(b, b.ToMap())
		if err != nil {
			return nil, err
		}
		resp.Operations = append(resp.Operations, op)
	}
	if end < len(batches) {
		resp.NextPageToken = strconv.Itoa(end)
	}
	return resp, nil
}

// --- Internal helpers ---

// batchOperation wraps a batch in an LRO Operation. A finished batch
// carries response unless it ended with an error.
func batchOperation(b *store.Batch, response map[string]interface{}) (*longrunningpb.Operation, error) {
	metadata, err := packStruct(b.Metadata())
	if err != nil {
		return nil, err
	}
	op := &longrunningpb.Operation{
		Name:     b.Name,
		Done:     b.Done(),
		Metadata: metadata,
	}
	if !b.Done() {
		return op, nil
	}

	if b.Error != "" {
		op.Result = &longrunningpb.Operation_Error{
			Error: status.New(codes.Aborted, b.Error).Proto(),
		}
		return op, nil
	}

	any, err := packStruct(response)
	if err != nil {
		return nil, err
	}
	op.Result = &longrunningpb.Operation_Response{
		Response: any,
	}
	return op, nil
}

func packStruct(m map[string]interface{}) (*anypb.Any, error) {
	st, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode operation: %v", err)
	}
	any, err := anypb.New(st)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to marshal operation result: %v", err)
	}
	return any, nil
}

package grpcapi

import (
	"context"
	"net"
	"strings"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	longrunningpb "cloud.google.com/go/longrunning/autogen/longrunningpb"

	"github.com/lemonberrylabs/shunting-yard/pkg/runtime"
	"github.com/lemonberrylabs/shunting-yard/pkg/store"
)

func startTestServer(t *testing.T) (string, *store.Store, func()) {
	t.Helper()
	s := store.New()
	srv := New(runtime.NewEngine(s))

	lis, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	go srv.grpc.Serve(lis)

	return lis.Addr().String(), s, func() {
		srv.grpc.Stop()
	}
}

func dial(t *testing.T, addr string) *grpc.ClientConn {
	t.Helper()
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	return conn
}

func unpackResponse(t *testing.T, op *longrunningpb.Operation) map[string]interface{} {
	t.Helper()
	resp := op.GetResponse()
	if resp == nil {
		t.Fatalf("operation %s has no response", op.GetName())
	}
	st := new(structpb.Struct)
	if err := resp.UnmarshalTo(st); err != nil {
		t.Fatalf("unpacking response: %v", err)
	}
	return st.AsMap()
}

func TestTranslate(t *testing.T) {
	addr, s, cleanup := startTestServer(t)
	defer cleanup()

	conn := dial(t, addr)
	defer conn.Close()

	client := NewTranslatorClient(conn)
	ctx := context.Background()

	tests := []struct {
		input  string
		output string
		state  string
	}{
		{"3 + 4 * 5", "3 4 5 MUL ADD", "SUCCEEDED"},
		{"( 3 + 4 ) * 5", "3 4 ADD 5 MUL", "SUCCEEDED"},
		{"( 1 + 2", "MALFORMED EQ", "MALFORMED"},
		{"1 + 2 )", "1 2 ADD MALFORMED EQ", "MALFORMED"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			resp, err := client.Translate(ctx, tt.input)
			if err != nil {
				t.Fatalf("Translate: %v", err)
			}
			m := resp.AsMap()
			if m["output"] != tt.output {
				t.Errorf("output: got %v, want %q", m["output"], tt.output)
			}
			if m["state"] != tt.state {
				t.Errorf("state: got %v, want %s", m["state"], tt.state)
			}
			if m["source"] != runtime.SourceGRPC {
				t.Errorf("expected source grpc, got %v", m["source"])
			}
		})
	}

	if n := len(s.ListTranslations()); n != len(tests) {
		t.Errorf("expected %d recorded translations, got %d", len(tests), n)
	}
}

func TestTranslateValue(t *testing.T) {
	addr, _, cleanup := startTestServer(t)
	defer cleanup()

	conn := dial(t, addr)
	defer conn.Close()

	resp, err := NewTranslatorClient(conn).Translate(context.Background(), "2 ^ 3 ^ 2")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	m := resp.AsMap()
	if m["value"] != float64(512) {
		t.Errorf("expected value 512, got %v", m["value"])
	}
	if m["infix"] != "(2 ^ (3 ^ 2))" {
		t.Errorf("unexpected infix %v", m["infix"])
	}
}

func TestTranslateInvalidArgument(t *testing.T) {
	addr, _, cleanup := startTestServer(t)
	defer cleanup()

	conn := dial(t, addr)
	defer conn.Close()

	client := NewTranslatorClient(conn)
	for _, input := range []string{"1\n2", strings.Repeat("9", 5000)} {
		_, err := client.Translate(context.Background(), input)
		if status.Code(err) != codes.InvalidArgument {
			t.Errorf("expected InvalidArgument, got %v", err)
		}
	}
}

func TestRunBatchAndGetOperation(t *testing.T) {
	addr, _, cleanup := startTestServer(t)
	defer cleanup()

	conn := dial(t, addr)
	defer conn.Close()

	ctx := context.Background()
	op, err := NewTranslatorClient(conn).RunBatch(ctx, `
name: grpc
cases:
  - input: "1 + 2"
    want: "1 2 ADD"
  - input: "4 / ( 1 - 1 )"
    wantError: ZeroDivisionError
`)
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if !op.GetDone() {
		t.Fatal("expected operation to be done")
	}
	if op.GetName() != "operations/batch-1" {
		t.Errorf("unexpected operation name %s", op.GetName())
	}

	resp := unpackResponse(t, op)
	if resp["state"] != "SUCCEEDED" || resp["passed"] != float64(2) {
		t.Errorf("unexpected response %v", resp)
	}
	if results, ok := resp["results"].([]interface{}); !ok || len(results) != 2 {
		t.Errorf("expected 2 case results, got %v", resp["results"])
	}

	ops := longrunningpb.NewOperationsClient(conn)
	got, err := ops.GetOperation(ctx, &longrunningpb.GetOperationRequest{Name: op.GetName()})
	if err != nil {
		t.Fatalf("GetOperation: %v", err)
	}
	if !got.GetDone() {
		t.Error("expected stored operation to be done")
	}
	stored := unpackResponse(t, got)
	if translations, ok := stored["translations"].([]interface{}); !ok || len(translations) != 2 {
		t.Errorf("expected 2 translations, got %v", stored["translations"])
	}

	_, err = ops.GetOperation(ctx, &longrunningpb.GetOperationRequest{Name: "operations/batch-99"})
	if status.Code(err) != codes.NotFound {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestRunBatchInvalidSuite(t *testing.T) {
	addr, s, cleanup := startTestServer(t)
	defer cleanup()

	conn := dial(t, addr)
	defer conn.Close()

	client := NewTranslatorClient(conn)
	for _, src := range []string{"", "cases: []", "cases:\n  - input: '1'\n    wantError: Nope\n"} {
		_, err := client.RunBatch(context.Background(), src)
		if status.Code(err) != codes.InvalidArgument {
			t.Errorf("%q: expected InvalidArgument, got %v", src, err)
		}
	}
	if len(s.ListBatches()) != 0 {
		t.Error("rejected suites must not create batches")
	}
}

func TestListOperationsPaging(t *testing.T) {
	addr, _, cleanup := startTestServer(t)
	defer cleanup()

	conn := dial(t, addr)
	defer conn.Close()

	ctx := context.Background()
	client := NewTranslatorClient(conn)
	for i := 0; i < 3; i++ {
		if _, err := client.RunBatch(ctx, "- '1 + 1'\n"); err != nil {
			t.Fatalf("RunBatch: %v", err)
		}
	}

	ops := longrunningpb.NewOperationsClient(conn)
	first, err := ops.ListOperations(ctx, &longrunningpb.ListOperationsRequest{PageSize: 2})
	if err != nil {
		t.Fatalf("ListOperations: %v", err)
	}
	if len(first.GetOperations()) != 2 || first.GetNextPageToken() == "" {
		t.Fatalf("unexpected first page: %d operations, token %q", len(first.GetOperations()), first.GetNextPageToken())
	}
	if first.GetOperations()[0].GetName() != "operations/batch-1" {
		t.Errorf("expected creation order, got %s", first.GetOperations()[0].GetName())
	}

	second, err := ops.ListOperations(ctx, &longrunningpb.ListOperationsRequest{PageSize: 2, PageToken: first.GetNextPageToken()})
	if err != nil {
		t.Fatalf("ListOperations: %v", err)
	}
	if len(second.GetOperations()) != 1 || second.GetNextPageToken() != "" {
		t.Errorf("unexpected second page: %d operations, token %q", len(second.GetOperations()), second.GetNextPageToken())
	}

	_, err = ops.ListOperations(ctx, &longrunningpb.ListOperationsRequest{PageToken: "bogus"})
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("expected InvalidArgument for a bad token, got %v", err)
	}
}

func TestFailedBatchOperation(t *testing.T) {
	s := store.New()
	b := s.CreateBatch("cancelled", "")
	s.FailBatch(b.Name, context.Canceled)
	b, _ = s.GetBatch(b.Name)

	op, err := batchOperation(b, b.ToMap())
	if err != nil {
		t.Fatalf("batchOperation: %v", err)
	}
	if !op.GetDone() {
		t.Error("expected a failed batch to be done")
	}
	if op.GetError() == nil || op.GetError().GetCode() != int32(codes.Aborted) {
		t.Errorf("expected an Aborted error result, got %v", op.GetResult())
	}
	if op.GetResponse() != nil {
		t.Error("a failed batch has no response")
	}
}

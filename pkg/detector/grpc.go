package detector

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/codeready-toolchain/docmask/pkg/pii"
)

// GRPCSource calls a remote detector service over gRPC.
type GRPCSource struct {
	conn   *grpc.ClientConn
	active pii.CategorySet
	owned  bool
}

// NewGRPCSource creates a client for the detector listening at addr.
func NewGRPCSource(addr string, active pii.CategorySet) (*GRPCSource, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to detector service at %s: %w", addr, err)
	}
	return &GRPCSource{conn: conn, active: active, owned: true}, nil
}

// NewGRPCSourceFromConn wraps an existing connection. Close does not close conn.
func NewGRPCSourceFromConn(conn *grpc.ClientConn, active pii.CategorySet) *GRPCSource {
	return &GRPCSource{conn: conn, active: active}
}

// ForCategories returns a source over the same connection restricted to
// active. The returned source does not own the connection.
func (s *GRPCSource) ForCategories(active pii.CategorySet) *GRPCSource {
	return &GRPCSource{conn: s.conn, active: active}
}

// Name returns "grpc".
func (s *GRPCSource) Name() string { return "grpc" }

// FindCandidates asks the remote detector for candidates in text.
func (s *GRPCSource) FindCandidates(ctx context.Context, text string) ([]Candidate, error) {
	req, err := toRequest(text, s.active)
	if err != nil {
		return nil, fmt.Errorf("failed to build detector request: %w", err)
	}

	resp := &structpb.Struct{}
	if err := s.conn.Invoke(ctx, findCandidatesMethod, req, resp); err != nil {
		return nil, fmt.Errorf("gRPC FindCandidates call failed: %w", err)
	}

	return fromResponse(text, resp, s.active)
}

// Close releases the gRPC connection if this source created it.
func (s *GRPCSource) Close() error {
	if !s.owned {
		return nil
	}
	return s.conn.Close()
}

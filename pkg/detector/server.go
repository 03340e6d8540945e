package detector

import (
	"context"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/codeready-toolchain/docmask/pkg/pii"
)

// DetectorServer is the server API for the detector service.
type DetectorServer interface {
	FindCandidates(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// Server exposes the local registry as a detector service for other processes.
type Server struct {
	defaults pii.CategorySet
}

// NewServer creates a detector server. Requests that name no categories use defaults.
func NewServer(defaults pii.CategorySet) *Server {
	return &Server{defaults: defaults}
}

// FindCandidates handles a single detection request.
func (s *Server) FindCandidates(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	text, names := fromRequest(req)

	active := s.defaults
	if len(names) > 0 {
		set, err := pii.ParseCategorySet(names)
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		active = set
	}

	cands, err := NewLocalSource(pii.NewRegistry(active)).FindCandidates(ctx, text)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}

	slog.Debug("Detector request served",
		"text_len", len(text),
		"categories", active.Len(),
		"candidates", len(cands))

	resp, err := toResponse(cands)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return resp, nil
}

// RegisterDetectorServer registers srv with the gRPC server.
func RegisterDetectorServer(s grpc.ServiceRegistrar, srv DetectorServer) {
	s.RegisterService(&DetectorServiceDesc, srv)
}

// DetectorServiceDesc is the grpc.ServiceDesc for the detector service.
var DetectorServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DetectorServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "FindCandidates",
			Handler:    findCandidatesHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "docmask/detector/v1/detector.proto",
}

func findCandidatesHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DetectorServer).FindCandidates(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: findCandidatesMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DetectorServer).FindCandidates(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

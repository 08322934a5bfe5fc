package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/viralforge/tshirtstore/internal/application"
	"github.com/viralforge/tshirtstore/internal/domain"
)

const (
	serviceName           = "tshirtstore.session.v1.SessionInternalService"
	validateSessionMethod = "/" + serviceName + "/ValidateSession"
)

// SessionInternalService lets sibling services check a session artifact without sharing the secret.
type SessionInternalService interface {
	ValidateSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// Authenticator is the Authenticate stage of the gate.
type Authenticator interface {
	Authenticate(ctx context.Context, rawToken string) (application.Principal, error)
}

type SessionInternalServer struct {
	gate Authenticator
}

func NewSessionInternalServer(gate Authenticator) *SessionInternalServer {
	return &SessionInternalServer{gate: gate}
}

func Register(server grpc.ServiceRegistrar, svc SessionInternalService) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*SessionInternalService)(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: "ValidateSession",
				Handler:    validateSessionHandler(svc),
			},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "tshirtstore/session/v1/session_internal.proto",
	}, svc)
}

func (s *SessionInternalServer) ValidateSession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	token := req.GetFields()["token"].GetStringValue()
	if token == "" {
		return nil, status.Error(codes.InvalidArgument, "missing token")
	}

	principal, err := s.gate.Authenticate(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrAuthentication) {
			return nil, status.Error(codes.Unauthenticated, "invalid session")
		}
		return nil, status.Error(codes.Unavailable, "session check unavailable")
	}

	resp, err := structpb.NewStruct(map[string]any{
		"valid":      true,
		"account_id": principal.AccountID.String(),
		"role":       string(principal.Role),
		"expires_at": principal.SessionExpiresAt.Unix(),
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "build response: %v", err)
	}
	return resp, nil
}

func validateSessionHandler(svc SessionInternalService) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		req := &structpb.Struct{}
		if err := dec(req); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return svc.ValidateSession(ctx, req)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: validateSessionMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			typed, ok := req.(*structpb.Struct)
			if !ok {
				return nil, status.Error(codes.InvalidArgument, "invalid request type")
			}
			return svc.ValidateSession(ctx, typed)
		}
		return interceptor(ctx, req, info, handler)
	}
}

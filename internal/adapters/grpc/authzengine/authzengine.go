// Package authzengine implements authz.Engine against the external
// relationship-based authorization engine over gRPC (spec.md §1/§6.3: a
// SpiceDB/Zanzibar-style collaborator whose own schema and evaluation are
// out of scope here). Connection setup follows common/mgrpc/grpc.go's
// GRPCConnection shape (TLS by default; Config.Insecure=true selects a
// plaintext dev transport); every RPC is invoked generically against
// authzengine.proto's service surface using google.golang.org/protobuf's
// well-known Struct type as both request and response message — see
// DESIGN.md for why no protoc-generated stubs are vendored.
package authzengine

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/kartohq/iam/internal/authz"
	"github.com/kartohq/iam/internal/domainerr"
)

const (
	methodWrite       = "/karto.authz.v1.AuthorizationEngine/WriteRelationship"
	methodDelete      = "/karto.authz.v1.AuthorizationEngine/DeleteRelationship"
	methodDeleteAll   = "/karto.authz.v1.AuthorizationEngine/DeleteAllRelationships"
	methodCheck       = "/karto.authz.v1.AuthorizationEngine/CheckPermission"
)

// Config configures the connection to the external engine (spec.md §6.4:
// grpc.authz_engine_addr, grpc.authz_engine_insecure).
type Config struct {
	Addr     string
	Insecure bool
}

// Client is the gRPC-backed authz.Engine implementation.
type Client struct {
	conn *grpc.ClientConn
}

// Connect dials the engine, mirroring common/mgrpc/grpc.go's
// Connect/GetNewClient split: a single long-lived *grpc.ClientConn is
// reused by every request (grpc.ClientConn pools and multiplexes its own
// HTTP/2 transport, so there is no connection pool to manage here).
func Connect(cfg Config) (*Client, error) {
	var creds credentials.TransportCredentials
	if cfg.Insecure {
		creds = insecure.NewCredentials()
	} else {
		creds = credentials.NewTLS(nil)
	}

	conn, err := grpc.NewClient(cfg.Addr, grpc.WithTransportCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("authzengine: dial %s: %w", cfg.Addr, err)
	}

	return &Client{conn: conn}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

var _ authz.Engine = (*Client)(nil)

// Apply dispatches op to the matching RPC.
func (c *Client) Apply(ctx context.Context, op authz.Op) error {
	switch o := op.(type) {
	case authz.WriteRelationship:
		return c.invoke(ctx, methodWrite, map[string]any{
			"resource": o.Resource, "relation": o.Relation, "subject": o.Subject,
		})
	case authz.DeleteRelationship:
		return c.invoke(ctx, methodDelete, map[string]any{
			"resource": o.Resource, "relation": o.Relation, "subject": o.Subject,
		})
	case authz.DeleteAllRelationships:
		return c.invoke(ctx, methodDeleteAll, map[string]any{
			"resource": o.Resource,
		})
	default:
		return domainerr.NewAuthorizationEngineError(fmt.Errorf("authzengine: unsupported op %T", op), true)
	}
}

// CheckPermission asks the engine whether subject holds permission on
// resource (spec.md §4.5 stage 4's tenant-binding check).
func (c *Client) CheckPermission(ctx context.Context, resource, permission, subject string) (bool, error) {
	req, err := structpb.NewStruct(map[string]any{
		"resource": resource, "permission": permission, "subject": subject,
	})
	if err != nil {
		return false, domainerr.NewAuthorizationEngineError(err, true)
	}

	resp := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, methodCheck, req, resp); err != nil {
		return false, domainerr.NewAuthorizationEngineError(err, isPermanent(err))
	}

	allowed, ok := resp.Fields["allowed"]
	return ok && allowed.GetBoolValue(), nil
}

func (c *Client) invoke(ctx context.Context, method string, fields map[string]any) error {
	req, err := structpb.NewStruct(fields)
	if err != nil {
		return domainerr.NewAuthorizationEngineError(err, true)
	}

	resp := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, method, req, resp); err != nil {
		return domainerr.NewAuthorizationEngineError(err, isPermanent(err))
	}

	return nil
}

// isPermanent classifies a gRPC failure as retryable or not. Anything
// other than a clearly transient transport/availability code is treated
// as permanent so the outbox worker doesn't spin forever on a malformed
// request (spec.md §4.3).
func isPermanent(err error) bool {
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted:
		return false
	default:
		return true
	}
}

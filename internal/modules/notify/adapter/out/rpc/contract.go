// Package rpc is the wire contract between saferun and an out-of-process
// notification gateway served with hashicorp/go-plugin over gRPC. Payloads are
// JSON encoded so plugins need no generated code.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-plugin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

const (
	PluginMapKey      = "gateway"
	serviceName       = "saferun.gateway.v1.Gateway"
	jsonCodecName     = "json"
	methodGetMetadata = "/" + serviceName + "/GetMetadata"
	methodDeliver     = "/" + serviceName + "/Deliver"
)

var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "SAFERUN_GATEWAY_PLUGIN",
	MagicCookieValue: "saferun",
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return jsonCodecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type Empty struct{}

type Metadata struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type DeliverRequest struct {
	Kind        string `json:"kind"`
	SessionID   string `json:"session_id"`
	OwnerID     string `json:"owner_id"`
	To          string `json:"to"`
	ContactName string `json:"contact_name"`
	Body        string `json:"body"`
	CreatedAt   string `json:"created_at"`
}

// DeliverResponse carries a provider reference on success. Accepted=false with
// Reason is a delivery refusal, distinct from a transport error.
type DeliverResponse struct {
	Accepted  bool   `json:"accepted"`
	Reference string `json:"reference"`
	Reason    string `json:"reason"`
}

type GatewayServer interface {
	GetMetadata(ctx context.Context, in *Empty) (*Metadata, error)
	Deliver(ctx context.Context, in *DeliverRequest) (*DeliverResponse, error)
}

type GatewayClient interface {
	GetMetadata(ctx context.Context) (*Metadata, error)
	Deliver(ctx context.Context, in *DeliverRequest) (*DeliverResponse, error)
}

type gatewayClient struct {
	conn *grpc.ClientConn
}

func NewGatewayClient(conn *grpc.ClientConn) GatewayClient {
	return &gatewayClient{conn: conn}
}

func (c *gatewayClient) GetMetadata(ctx context.Context) (*Metadata, error) {
	out := &Metadata{}
	if err := c.conn.Invoke(ctx, methodGetMetadata, &Empty{}, out, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *gatewayClient) Deliver(ctx context.Context, in *DeliverRequest) (*DeliverResponse, error) {
	out := &DeliverResponse{}
	if err := c.conn.Invoke(ctx, methodDeliver, in, out, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

func RegisterGatewayServer(server grpc.ServiceRegistrar, impl GatewayServer) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*GatewayServer)(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: "GetMetadata",
				Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
					in := &Empty{}
					if err := dec(in); err != nil {
						return nil, err
					}
					if interceptor == nil {
						return impl.GetMetadata(ctx, in)
					}
					info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodGetMetadata}
					return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
						empty, ok := req.(*Empty)
						if !ok {
							return nil, fmt.Errorf("invalid request type %T", req)
						}
						return impl.GetMetadata(ctx, empty)
					})
				},
			},
			{
				MethodName: "Deliver",
				Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
					in := &DeliverRequest{}
					if err := dec(in); err != nil {
						return nil, err
					}
					if interceptor == nil {
						return impl.Deliver(ctx, in)
					}
					info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodDeliver}
					return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
						deliver, ok := req.(*DeliverRequest)
						if !ok {
							return nil, fmt.Errorf("invalid request type %T", req)
						}
						return impl.Deliver(ctx, deliver)
					})
				},
			},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "saferun/gateway-rpc-v1",
	}, impl)
}

type GRPCPlugin struct {
	plugin.NetRPCUnsupportedPlugin
	Impl GatewayServer
}

func (p *GRPCPlugin) GRPCServer(_ *plugin.GRPCBroker, server *grpc.Server) error {
	RegisterGatewayServer(server, p.Impl)
	return nil
}

func (p *GRPCPlugin) GRPCClient(_ context.Context, _ *plugin.GRPCBroker, conn *grpc.ClientConn) (any, error) {
	return NewGatewayClient(conn), nil
}

func PluginMap(impl GatewayServer) map[string]plugin.Plugin {
	return map[string]plugin.Plugin{
		PluginMapKey: &GRPCPlugin{Impl: impl},
	}
}

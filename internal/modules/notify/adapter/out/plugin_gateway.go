package out

import (
	"context"
	"fmt"
	"os/exec"
	"sync"
	"time"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
	"github.com/rs/zerolog/log"

	gatewayrpc "saferun/internal/modules/notify/adapter/out/rpc"
	"saferun/internal/modules/notify/domain"
	notifyout "saferun/internal/modules/notify/port/out"
)

const defaultStartTimeout = 3 * time.Second

// PluginGateway hands messages to an external gateway binary speaking the
// rpc contract. The plugin process is started on first use and restarted if
// it exits.
type PluginGateway struct {
	binary       string
	startTimeout time.Duration

	mu     sync.Mutex
	client *plugin.Client
	rpc    gatewayrpc.GatewayClient
}

var _ notifyout.Gateway = (*PluginGateway)(nil)

func NewPluginGateway(binary string) *PluginGateway {
	return &PluginGateway{binary: binary, startTimeout: defaultStartTimeout}
}

func (g *PluginGateway) Name() string { return "plugin" }

func (g *PluginGateway) Metadata(ctx context.Context) (gatewayrpc.Metadata, error) {
	client, err := g.connect()
	if err != nil {
		return gatewayrpc.Metadata{}, err
	}
	meta, err := client.GetMetadata(ctx)
	if err != nil {
		return gatewayrpc.Metadata{}, fmt.Errorf("get metadata: %w", err)
	}
	return *meta, nil
}

func (g *PluginGateway) Send(ctx context.Context, msg domain.Message) error {
	client, err := g.connect()
	if err != nil {
		return err
	}
	resp, err := client.Deliver(ctx, &gatewayrpc.DeliverRequest{
		Kind:        string(msg.Kind),
		SessionID:   msg.SessionID,
		OwnerID:     msg.OwnerID,
		To:          msg.To,
		ContactName: msg.ContactName,
		Body:        msg.Body,
		CreatedAt:   msg.CreatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("plugin deliver timed out: %w", ctx.Err())
		}
		return fmt.Errorf("plugin deliver: %w", err)
	}
	if !resp.Accepted {
		return fmt.Errorf("plugin refused message: %s", resp.Reason)
	}
	log.Ctx(ctx).Debug().Str("reference", resp.Reference).Msg("plugin accepted message")
	return nil
}

func (g *PluginGateway) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client != nil {
		g.client.Kill()
		g.client = nil
		g.rpc = nil
	}
}

func (g *PluginGateway) connect() (gatewayrpc.GatewayClient, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client != nil && !g.client.Exited() {
		return g.rpc, nil
	}
	if g.binary == "" {
		return nil, fmt.Errorf("plugin gateway binary is not configured")
	}

	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  gatewayrpc.HandshakeConfig,
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolGRPC},
		Plugins:          gatewayrpc.PluginMap(nil),
		Cmd:              exec.Command(g.binary),
		Managed:          true,
		StartTimeout:     g.startTimeout,
		Logger: hclog.New(&hclog.LoggerOptions{
			Name:   "gateway-plugin",
			Output: log.Logger.With().Str("component", "gateway-plugin").Logger(),
			Level:  hclog.Warn,
		}),
	})
	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("start plugin client: %w", err)
	}
	raw, err := rpcClient.Dispense(gatewayrpc.PluginMapKey)
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("dispense plugin: %w", err)
	}
	typed, ok := raw.(gatewayrpc.GatewayClient)
	if !ok {
		client.Kill()
		return nil, fmt.Errorf("plugin rpc client type mismatch")
	}
	g.client = client
	g.rpc = typed
	return typed, nil
}

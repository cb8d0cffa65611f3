// Command smslog is a reference notification gateway plugin. It accepts any
// message addressed to an E.164 number and appends it as a JSON line to the
// file named by SAFERUN_SMSLOG_PATH, or to stderr when that is unset.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-plugin"

	gatewayrpc "saferun/internal/modules/notify/adapter/out/rpc"
)

const pathEnv = "SAFERUN_SMSLOG_PATH"

type server struct {
	mu  sync.Mutex
	out io.Writer
	seq atomic.Int64
}

func (s *server) GetMetadata(_ context.Context, _ *gatewayrpc.Empty) (*gatewayrpc.Metadata, error) {
	return &gatewayrpc.Metadata{Name: "smslog", Version: "1.0.0"}, nil
}

func (s *server) Deliver(_ context.Context, in *gatewayrpc.DeliverRequest) (*gatewayrpc.DeliverResponse, error) {
	if !strings.HasPrefix(in.To, "+") {
		return &gatewayrpc.DeliverResponse{Accepted: false, Reason: fmt.Sprintf("recipient %q is not an E.164 number", in.To)}, nil
	}
	line, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintf(s.out, "%s\n", line); err != nil {
		return nil, fmt.Errorf("write message: %w", err)
	}
	return &gatewayrpc.DeliverResponse{Accepted: true, Reference: fmt.Sprintf("smslog-%d", s.seq.Add(1))}, nil
}

func main() {
	var out io.Writer = os.Stderr
	if path := os.Getenv(pathEnv); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open %s: %v\n", path, err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: gatewayrpc.HandshakeConfig,
		Plugins:         gatewayrpc.PluginMap(&server{out: out}),
		GRPCServer:      plugin.DefaultGRPCServer,
	})
}

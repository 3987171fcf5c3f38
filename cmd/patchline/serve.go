package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/viant/mcp-protocol/schema"
	mcpsrv "github.com/viant/mcp/server"

	pmcp "github.com/viant/patchline/mcp"
	"github.com/viant/patchline/service"
)

func serveCmd(args []string) {
	flags := flag.NewFlagSet("serve", flag.ExitOnError)
	sf := addStoreFlags(flags)
	mcpAddr := flags.String("mcp-addr", "", "MCP server address (default from config or 127.0.0.1:6061)")
	metricsLog := flags.Bool("metrics-log", false, "log mcp metric lines")
	flags.Parse(args)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	maybeDebugSleep("serve", *sf.debugSleep)

	svc, cfg := newService(sf)
	defer func() { _ = svc.Close() }()

	addr := resolveMCPAddr(*mcpAddr, cfg)
	startReplicaLoops(ctx, svc, cfg)

	server, err := mcpsrv.New(
		mcpsrv.WithImplementation(schema.Implementation{Name: "patchline-mcp", Version: "0.1.0"}),
		mcpsrv.WithNewHandler(pmcp.NewHandler(svc, *metricsLog)),
		mcpsrv.WithEndpointAddress(addr),
		mcpsrv.WithRootRedirect(true),
		mcpsrv.WithStreamableURI("/mcp"),
	)
	if err != nil {
		log.Fatal(err)
	}

	server.UseStreamableHTTP(true)
	httpServer := server.HTTP(ctx, addr)
	httpServer.ReadHeaderTimeout = 10 * time.Second
	httpServer.ReadTimeout = 60 * time.Second
	httpServer.WriteTimeout = 60 * time.Second
	httpServer.IdleTimeout = 120 * time.Second

	log.Printf("patchline-mcp listening on %s", httpServer.Addr)

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh
	cancel()
	log.Printf("shutdown signal received: %v", sig)

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(ctxShutdown); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
	if err := <-errCh; err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
	log.Printf("patchline-mcp stopped")
}

func resolveMCPAddr(flagAddr string, cfg *service.Config) string {
	if flagAddr != "" {
		return flagAddr
	}
	if cfg != nil {
		if cfg.MCPServer.Addr != "" {
			return cfg.MCPServer.Addr
		}
		if cfg.MCPServer.Port > 0 {
			return fmt.Sprintf("127.0.0.1:%d", cfg.MCPServer.Port)
		}
	}
	return "127.0.0.1:6061"
}

// startReplicaLoops pushes the local history to each configured replica,
// continuously for replicas with an interval boundary, once otherwise.
func startReplicaLoops(ctx context.Context, svc *service.Service, cfg *service.Config) {
	if cfg == nil || len(cfg.Replicas) == 0 {
		return
	}
	for _, replica := range cfg.Replicas {
		if strings.TrimSpace(replica.DSN) == "" || strings.TrimSpace(replica.Driver) == "" {
			log.Printf("replicate: replica %q missing driver/dsn", replica.Name)
			continue
		}
		replica := replica
		go runReplicaLoop(ctx, svc, replica)
	}
}

func runReplicaLoop(ctx context.Context, svc *service.Service, replica service.ReplicaConfig) {
	runOnce := func() {
		result, err := svc.Replicate(ctx, service.ReplicateRequest{
			Driver: replica.Driver,
			DSN:    replica.DSN,
			Batch:  replica.Batch,
			Logf:   log.Printf,
		})
		if err != nil {
			log.Printf("replicate: replica=%s err=%v", replica.Name, err)
			return
		}
		if result.Documents > 0 || result.Patches > 0 {
			log.Printf("replicate: replica=%s documents=%d patches=%d", replica.Name, result.Documents, result.Patches)
		}
	}
	runOnce()
	if replica.IntervalSeconds <= 0 {
		return
	}
	ticker := time.NewTicker(time.Duration(replica.IntervalSeconds) * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}

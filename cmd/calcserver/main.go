// calcserver is the worker binary: it serves the calculator tool catalog
// over stdin/stdout until the host closes the channel.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/calcbridge/go-mcp-host/internal/calc"
	"github.com/calcbridge/go-mcp-host/internal/logging"
	"github.com/calcbridge/go-mcp-host/pkg/protocol"
	"github.com/calcbridge/go-mcp-host/pkg/server"
)

func main() {
	debug := flag.Bool("debug", false, "enable debug logging on stderr")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}

	loggerFactory := logging.NewLoggerFactory()
	loggerFactory.SetLevel(level)
	logger := loggerFactory.CreateLogger("main")

	options := []server.ServerOption{
		server.WithServerName("calculator"),
		server.WithServerVersion("1.0.0"),
		server.WithLoggerFactory(loggerFactory),
		server.WithTransports(protocol.TransportTypeStdio),
	}
	for _, tool := range calc.Tools() {
		options = append(options, server.WithTool(tool))
	}

	srv := server.NewServer(options...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		cancel()
	}()

	logging.Debug(logger, "calculator server starting", "tools", srv.Tools().Count())

	// Serve blocks until the host closes stdin or a signal arrives
	if err := srv.Serve(ctx, protocol.TransportTypeStdio); err != nil {
		logging.Error(logger, "server stopped", "error", err)
		os.Exit(1)
	}
}

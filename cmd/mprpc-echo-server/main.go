// Command mprpc-echo-server is the Go-native echo_server.cpp example
// (spec §8 scenario 1): registers an echo(string) -> string method over TCP
// and runs until interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nishisan-dev/mprpc/codec"
	"github.com/nishisan-dev/mprpc/internal/logging"
	"github.com/nishisan-dev/mprpc/pool"
	"github.com/nishisan-dev/mprpc/rpc"
	"github.com/nishisan-dev/mprpc/transport"
)

func main() {
	host := flag.String("host", "127.0.0.1", "address to listen on")
	port := flag.Int("port", 3780, "port to listen on")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	level := "info"
	if *verbose {
		level = "debug"
	}
	logger, closer := logging.NewLogger(level, "text", "")
	defer closer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	workers := pool.New(logger, 1, 64)
	workers.Start()
	defer workers.Stop()

	dispatcher := rpc.NewDispatcher(logger, workers)
	if err := dispatcher.RegisterFunc("echo", func(s string) (string, error) { return s, nil }); err != nil {
		fmt.Fprintf(os.Stderr, "Error registering echo: %v\n", err)
		os.Exit(1)
	}

	acceptor := transport.NewTCPAcceptor(logger, codec.Config{Type: codec.TypeNone}, 0)
	if err := acceptor.Listen(*host, *port); err != nil {
		fmt.Fprintf(os.Stderr, "Error listening: %v\n", err)
		os.Exit(1)
	}

	logger.Info("mprpc echo server listening", "addr", acceptor.Addr().String())
	if err := acceptor.AcceptLoop(ctx, func(p transport.Peer) {
		logger.Info("accepted session", "session", p.ID(), "remote", p.RemoteAddr().String())
		dispatcher.Serve(p)
	}); err != nil {
		logger.Error("accept loop exited with error", "error", err)
		os.Exit(1)
	}
}

// Command mprpc-echo-client is the Go-native echo_client.cpp example (spec
// §8 scenario 1): dials an mprpc-echo-server and issues one synchronous
// echo(string) -> string call.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/nishisan-dev/mprpc/codec"
	"github.com/nishisan-dev/mprpc/internal/logging"
	"github.com/nishisan-dev/mprpc/rpc"
	"github.com/nishisan-dev/mprpc/transport"
)

func main() {
	host := flag.String("host", "127.0.0.1", "server address")
	port := flag.Int("port", 3780, "server port")
	data := flag.String("data", "abc", "string to echo")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	level := "info"
	if *verbose {
		level = "debug"
	}
	logger, closer := logging.NewLogger(level, "text", "")
	defer closer.Close()

	ctx := context.Background()
	peer, err := transport.DialTCP(ctx, logger, *host, *port, codec.Config{Type: codec.TypeNone}, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting: %v\n", err)
		os.Exit(1)
	}

	client := rpc.NewClient(logger, peer, 3*time.Second)
	defer client.Close()

	logger.Info("send", "data", *data)
	response, err := rpc.Request[string](client, ctx, "echo", *data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error calling echo: %v\n", err)
		os.Exit(1)
	}
	logger.Info("received", "data", response)
}

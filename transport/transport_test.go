package transport

import (
	"context"
	"io"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nishisan-dev/mprpc/codec"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTCP_ClientServerRoundTrip(t *testing.T) {
	cfg := codec.Config{Type: codec.TypeNone}
	require.NoError(t, cfg.Validate())

	acceptor := NewTCPAcceptor(testLogger(), cfg, 0)
	require.NoError(t, acceptor.Listen("127.0.0.1", 0))
	addr := acceptor.Addr()
	host, port := splitHostPort(t, addr.String())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverGotMsg := make(chan []byte, 1)
	go func() {
		_ = acceptor.AcceptLoop(ctx, func(p Peer) {
			p.Serve(func(raw []byte) {
				serverGotMsg <- raw
				require.NoError(t, p.Write(raw, nil))
			}, func(err error) {})
		})
	}()

	// Give the acceptor goroutine a chance to block on Accept.
	time.Sleep(10 * time.Millisecond)

	client, err := DialTCP(ctx, testLogger(), host, port, cfg, 0)
	require.NoError(t, err)

	clientGotMsg := make(chan []byte, 1)
	client.Serve(func(raw []byte) { clientGotMsg <- raw }, func(err error) {})

	require.NoError(t, client.Write([]byte("\xa5hello"), nil)) // fixstr "hello"

	select {
	case msg := <-serverGotMsg:
		require.Equal(t, "\xa5hello", string(msg))
	case <-time.After(2 * time.Second):
		t.Fatal("server never received message")
	}

	select {
	case msg := <-clientGotMsg:
		require.Equal(t, "\xa5hello", string(msg))
	case <-time.After(2 * time.Second):
		t.Fatal("client never received echo")
	}

	client.Shutdown()
}

func TestTCP_WritesPreserveOrder(t *testing.T) {
	cfg := codec.Config{Type: codec.TypeNone}
	require.NoError(t, cfg.Validate())

	acceptor := NewTCPAcceptor(testLogger(), cfg, 0)
	require.NoError(t, acceptor.Listen("127.0.0.1", 0))
	addr := acceptor.Addr()
	host, port := splitHostPort(t, addr.String())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var received []string
	done := make(chan struct{})

	go func() {
		_ = acceptor.AcceptLoop(ctx, func(p Peer) {
			p.Serve(func(raw []byte) {
				mu.Lock()
				received = append(received, string(raw))
				if len(received) == 5 {
					close(done)
				}
				mu.Unlock()
			}, func(err error) {})
		})
	}()
	time.Sleep(10 * time.Millisecond)

	client, err := DialTCP(ctx, testLogger(), host, port, cfg, 0)
	require.NoError(t, err)
	client.Serve(func(raw []byte) {}, func(err error) {})

	for i := 0; i < 5; i++ {
		require.NoError(t, client.Write([]byte{byte('a' + i)}, nil))
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("did not receive all 5 messages")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"a", "b", "c", "d", "e"}, received)
}

func TestUDP_ClientServerRoundTrip(t *testing.T) {
	cfg := codec.Config{Type: codec.TypeNone}
	require.NoError(t, cfg.Validate())
	nonStreaming, err := cfg.NewNonStreamingCodec()
	require.NoError(t, err)

	acceptor := NewUDPAcceptor(testLogger(), nonStreaming, 0)
	require.NoError(t, acceptor.Listen("127.0.0.1", 0))
	addr := acceptor.Addr()
	host, port := splitHostPort(t, addr.String())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverGotMsg := make(chan []byte, 1)
	go func() {
		_ = acceptor.AcceptLoop(ctx, func(p Peer) {
			p.Serve(func(raw []byte) {
				serverGotMsg <- raw
				require.NoError(t, p.Write(raw, nil))
			}, func(err error) {})
		})
	}()
	time.Sleep(10 * time.Millisecond)

	client, err := DialUDP(testLogger(), host, port, nonStreaming, 0)
	require.NoError(t, err)

	clientGotMsg := make(chan []byte, 1)
	client.Serve(func(raw []byte) { clientGotMsg <- raw }, func(err error) {})

	require.NoError(t, client.Write([]byte("ping"), nil))

	select {
	case msg := <-serverGotMsg:
		require.Equal(t, "ping", string(msg))
	case <-time.After(2 * time.Second):
		t.Fatal("server never received datagram")
	}

	select {
	case msg := <-clientGotMsg:
		require.Equal(t, "ping", string(msg))
	case <-time.After(2 * time.Second):
		t.Fatal("client never received reply datagram")
	}

	client.Shutdown()
}

func splitHostPort(t *testing.T, addr string) (string, int) {
	t.Helper()
	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return host, port
}

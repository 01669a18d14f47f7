package transport

import (
	"context"
	"log/slog"
	"net"
	"strconv"

	"github.com/nishisan-dev/mprpc/codec"
	"github.com/nishisan-dev/mprpc/mprpcerr"
)

// DialTCP connects to host:port and wraps the resulting connection in a
// Peer, per spec §4.7 (client connector). The caller is responsible for
// calling Serve on the returned Peer.
func DialTCP(ctx context.Context, logger *slog.Logger, host string, port int, codecCfg codec.Config, minBufSize int) (Peer, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, mprpcerr.Wrap(mprpcerr.KindFailedToConnect, "dialing tcp", err)
	}

	parser, err := codecCfg.NewStreamParser()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	compressor, err := codecCfg.NewStreamCompressor()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	compressor.Init()

	return NewTCPSession(conn, logger, parser, compressor, minBufSize), nil
}

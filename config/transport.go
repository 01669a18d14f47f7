// Package config defines the validated option structs that describe how a
// Server or Client is wired up: transport addresses, compression, buffer
// sizing, thread counts, and timeouts. Every struct is YAML-tagged and
// carries a Validate() error method that fills in defaults and rejects
// out-of-range values.
package config

import (
	"github.com/nishisan-dev/mprpc/codec"
	"github.com/nishisan-dev/mprpc/mprpcerr"
)

const (
	// DefaultStreamingMinBufSize is spec §6's default for TCP acceptor/connector.
	DefaultStreamingMinBufSize = 1024
	// DefaultDatagramBufSize is spec §6's default for UDP acceptor/connector.
	DefaultDatagramBufSize = 65527
)

// TCPAcceptorConfig is spec §6's `{host, port, compression, streaming_min_buf_size}`.
type TCPAcceptorConfig struct {
	Host                string       `yaml:"host"`
	Port                uint16       `yaml:"port"`
	Compression         codec.Config `yaml:"compression"`
	StreamingMinBufSize int          `yaml:"streaming_min_buf_size"`
}

func (c *TCPAcceptorConfig) Validate() error {
	if c.Host == "" {
		return mprpcerr.New(mprpcerr.KindInvalidConfigValue, "tcp_acceptor.host must not be empty")
	}
	if c.StreamingMinBufSize == 0 {
		c.StreamingMinBufSize = DefaultStreamingMinBufSize
	}
	if c.StreamingMinBufSize < 0 {
		return mprpcerr.New(mprpcerr.KindInvalidConfigValue, "tcp_acceptor.streaming_min_buf_size must be positive")
	}
	return c.Compression.Validate()
}

// TCPConnectorConfig is spec §6's client-side TCP connector block.
type TCPConnectorConfig struct {
	Host                string       `yaml:"host"`
	Port                uint16       `yaml:"port"`
	Compression         codec.Config `yaml:"compression"`
	StreamingMinBufSize int          `yaml:"streaming_min_buf_size"`
}

func (c *TCPConnectorConfig) Validate() error {
	if c.Host == "" {
		return mprpcerr.New(mprpcerr.KindInvalidConfigValue, "tcp_connector.host must not be empty")
	}
	if c.StreamingMinBufSize == 0 {
		c.StreamingMinBufSize = DefaultStreamingMinBufSize
	}
	if c.StreamingMinBufSize < 0 {
		return mprpcerr.New(mprpcerr.KindInvalidConfigValue, "tcp_connector.streaming_min_buf_size must be positive")
	}
	return c.Compression.Validate()
}

// UDPAcceptorConfig is spec §6's `{host, port, compression, datagram_buf_size}`.
type UDPAcceptorConfig struct {
	Host           string       `yaml:"host"`
	Port           uint16       `yaml:"port"`
	Compression    codec.Config `yaml:"compression"`
	DatagramBufSize int         `yaml:"datagram_buf_size"`
}

func (c *UDPAcceptorConfig) Validate() error {
	if c.Host == "" {
		return mprpcerr.New(mprpcerr.KindInvalidConfigValue, "udp_acceptor.host must not be empty")
	}
	if c.DatagramBufSize == 0 {
		c.DatagramBufSize = DefaultDatagramBufSize
	}
	if c.DatagramBufSize < 0 {
		return mprpcerr.New(mprpcerr.KindInvalidConfigValue, "udp_acceptor.datagram_buf_size must be positive")
	}
	return c.Compression.Validate()
}

// UDPConnectorConfig is spec §6's client-side UDP connector block.
type UDPConnectorConfig struct {
	Host            string       `yaml:"host"`
	Port            uint16       `yaml:"port"`
	Compression     codec.Config `yaml:"compression"`
	DatagramBufSize int          `yaml:"datagram_buf_size"`
}

func (c *UDPConnectorConfig) Validate() error {
	if c.Host == "" {
		return mprpcerr.New(mprpcerr.KindInvalidConfigValue, "udp_connector.host must not be empty")
	}
	if c.DatagramBufSize == 0 {
		c.DatagramBufSize = DefaultDatagramBufSize
	}
	if c.DatagramBufSize < 0 {
		return mprpcerr.New(mprpcerr.KindInvalidConfigValue, "udp_connector.datagram_buf_size must be positive")
	}
	return c.Compression.Validate()
}

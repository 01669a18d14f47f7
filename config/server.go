package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nishisan-dev/mprpc/mprpcerr"
)

// DefaultNumThreads is spec §6's default num_threads for both server and
// client (the worker pool size, spec §4.8).
const DefaultNumThreads = 1

// ServerConfig is spec §6's `{num_threads, tcp_acceptors, udp_acceptors}`.
type ServerConfig struct {
	NumThreads   int                 `yaml:"num_threads"`
	TCPAcceptors []TCPAcceptorConfig `yaml:"tcp_acceptors"`
	UDPAcceptors []UDPAcceptorConfig `yaml:"udp_acceptors"`
}

func (c *ServerConfig) Validate() error {
	if c.NumThreads == 0 {
		c.NumThreads = DefaultNumThreads
	}
	if c.NumThreads < 0 {
		return mprpcerr.New(mprpcerr.KindInvalidConfigValue, "server.num_threads must be positive")
	}
	for i := range c.TCPAcceptors {
		if err := c.TCPAcceptors[i].Validate(); err != nil {
			return err
		}
	}
	for i := range c.UDPAcceptors {
		if err := c.UDPAcceptors[i].Validate(); err != nil {
			return err
		}
	}
	if len(c.TCPAcceptors) == 0 && len(c.UDPAcceptors) == 0 {
		return mprpcerr.New(mprpcerr.KindInvalidConfigValue, "server must configure at least one acceptor")
	}
	return nil
}

// LoadServerConfig reads a YAML document from path, decodes it into a
// ServerConfig, and validates it (spec §6).
func LoadServerConfig(path string) (*ServerConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, mprpcerr.Wrap(mprpcerr.KindInvalidConfigValue, "reading server config", err)
	}
	var cfg ServerConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, mprpcerr.Wrap(mprpcerr.KindInvalidConfigValue, "parsing server config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

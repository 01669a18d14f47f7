package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nishisan-dev/mprpc/mprpcerr"
)

// DefaultSyncRequestTimeoutMs is spec §6's default sync_request_timeout_ms.
const DefaultSyncRequestTimeoutMs = 3000

// ConnectorType selects which transport a Client dials, spec §6's
// `connector_type ∈ {tcp, udp}`.
type ConnectorType string

const (
	ConnectorTCP ConnectorType = "tcp"
	ConnectorUDP ConnectorType = "udp"
)

// ClientConfig is spec §6's `{num_threads, sync_request_timeout_ms,
// connector_type, tcp_connector, udp_connector}`.
type ClientConfig struct {
	NumThreads           int                 `yaml:"num_threads"`
	SyncRequestTimeoutMs  uint32              `yaml:"sync_request_timeout_ms"`
	ConnectorType        ConnectorType       `yaml:"connector_type"`
	TCPConnector         *TCPConnectorConfig `yaml:"tcp_connector,omitempty"`
	UDPConnector         *UDPConnectorConfig `yaml:"udp_connector,omitempty"`
}

func (c *ClientConfig) Validate() error {
	if c.NumThreads == 0 {
		c.NumThreads = DefaultNumThreads
	}
	if c.NumThreads < 0 {
		return mprpcerr.New(mprpcerr.KindInvalidConfigValue, "client.num_threads must be positive")
	}
	if c.SyncRequestTimeoutMs == 0 {
		c.SyncRequestTimeoutMs = DefaultSyncRequestTimeoutMs
	}
	switch c.ConnectorType {
	case ConnectorTCP:
		if c.TCPConnector == nil {
			return mprpcerr.New(mprpcerr.KindInvalidConfigValue, "client.tcp_connector required when connector_type is tcp")
		}
		return c.TCPConnector.Validate()
	case ConnectorUDP:
		if c.UDPConnector == nil {
			return mprpcerr.New(mprpcerr.KindInvalidConfigValue, "client.udp_connector required when connector_type is udp")
		}
		return c.UDPConnector.Validate()
	default:
		return mprpcerr.New(mprpcerr.KindInvalidConfigValue, "client.connector_type must be \"tcp\" or \"udp\"")
	}
}

// LoadClientConfig reads a YAML document from path, decodes it into a
// ClientConfig, and validates it (spec §6).
func LoadClientConfig(path string) (*ClientConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, mprpcerr.Wrap(mprpcerr.KindInvalidConfigValue, "reading client config", err)
	}
	var cfg ClientConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, mprpcerr.Wrap(mprpcerr.KindInvalidConfigValue, "parsing client config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

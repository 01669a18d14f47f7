package codec

import "github.com/nishisan-dev/mprpc/mprpcerr"

// Type selects which codec a transport config wires up.
type Type string

const (
	TypeNone Type = "none"
	TypeZstd Type = "zstd"
)

// DefaultZstdLevel is spec §6's default zstd_compression_level.
const DefaultZstdLevel = 3

// Config is the compression option block shared by TCP and UDP transport
// configs (spec §6).
type Config struct {
	Type  Type `yaml:"type"`
	Level int  `yaml:"zstd_compression_level"`
}

// Validate checks the compression type and level, filling in the default
// level when Type is zstd and Level is unset. Returns an
// mprpcerr.KindInvalidConfigValue error on any problem, per spec §6.
func (c *Config) Validate() error {
	switch c.Type {
	case "", TypeNone:
		c.Type = TypeNone
		return nil
	case TypeZstd:
		if c.Level == 0 {
			c.Level = DefaultZstdLevel
		}
		if _, err := zstdLevel(c.Level); err != nil {
			return err
		}
		return nil
	default:
		return mprpcerr.New(mprpcerr.KindInvalidConfigValue, "compression.type must be \"none\" or \"zstd\"")
	}
}

// NewStreamCompressor builds the StreamCompressor a TCP session/connector
// should use for this configuration.
func (c Config) NewStreamCompressor() (StreamCompressor, error) {
	switch c.Type {
	case TypeZstd:
		return NewZstdStreamCompressor(c.Level)
	default:
		return &IdentityStreamCompressor{}, nil
	}
}

// NewStreamParser builds the StreamParser a TCP session/connector should
// use for this configuration.
func (c Config) NewStreamParser() (StreamParser, error) {
	switch c.Type {
	case TypeZstd:
		return NewZstdStreamParser()
	default:
		return NewIdentityStreamParser(), nil
	}
}

// NewNonStreamingCodec builds the NonStreamingCodec a UDP session/connector
// should use for this configuration.
func (c Config) NewNonStreamingCodec() (NonStreamingCodec, error) {
	switch c.Type {
	case TypeZstd:
		return NewZstdCodec(c.Level)
	default:
		return IdentityCodec{}, nil
	}
}

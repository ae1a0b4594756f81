// Package config loads the settings of the resp3cat command from TOML files.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/nussjustin/resp3/v2"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// DefaultBufferSize is the size of the read buffer used when buffer_size is not set.
const DefaultBufferSize = 4096

// Config holds connection and codec settings.
type Config struct {
	// Addr is the server address. If empty, units are read from stdin instead.
	Addr string
	// Network is one of tcp, tcp4, tcp6 or unix. If empty it is derived from Addr.
	Network string
	// Hello is the protocol version sent in a HELLO command after connecting. 0 disables the handshake.
	Hello int

	// BufferSize is the size of the buffer between the connection (or stdin) and the frame reader. Frames are
	// always read starting with the shortest possible unit, so replies of any size can follow each other.
	BufferSize int

	MaxDepth    int
	ReadLimit   int
	BulkStrings bool

	LogLevel string
}

type fileConfig struct {
	Addr        string `toml:"addr"`
	Network     string `toml:"network"`
	Hello       int    `toml:"hello"`
	BufferSize  int    `toml:"buffer_size"`
	MaxDepth    int    `toml:"max_depth"`
	ReadLimit   int    `toml:"read_limit"`
	BulkStrings bool   `toml:"bulk_strings"`
	LogLevel    string `toml:"log_level"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Hello:      3,
		BufferSize: DefaultBufferSize,
		MaxDepth:   resp3.DefaultMaxDepth,
		ReadLimit:  resp3.DefaultSingleReadSizeLimit,
		LogLevel:   "info",
	}
}

// Load reads path and applies every key it defines on top of Default.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load resp3cat config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("load resp3cat config: %w: unknown key %q", ErrInvalidConfig, undecoded[0].String())
	}

	if meta.IsDefined("addr") {
		cfg.Addr = strings.TrimSpace(raw.Addr)
	}
	if meta.IsDefined("network") {
		cfg.Network = strings.ToLower(strings.TrimSpace(raw.Network))
	}
	if meta.IsDefined("hello") {
		cfg.Hello = raw.Hello
	}
	if meta.IsDefined("buffer_size") {
		cfg.BufferSize = raw.BufferSize
	}
	if meta.IsDefined("max_depth") {
		cfg.MaxDepth = raw.MaxDepth
	}
	if meta.IsDefined("read_limit") {
		cfg.ReadLimit = raw.ReadLimit
	}
	if meta.IsDefined("bulk_strings") {
		cfg.BulkStrings = raw.BulkStrings
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("load resp3cat config: %w", err)
	}
	return cfg, nil
}

// Validate checks that all values are usable.
func (c Config) Validate() error {
	switch c.Network {
	case "", "tcp", "tcp4", "tcp6", "unix":
	default:
		return fmt.Errorf("%w: unsupported network %q", ErrInvalidConfig, c.Network)
	}
	if c.Hello != 0 && c.Hello != 2 && c.Hello != 3 {
		return fmt.Errorf("%w: unsupported protocol version %d", ErrInvalidConfig, c.Hello)
	}
	if c.BufferSize < 1 {
		return fmt.Errorf("%w: buffer_size must be positive, got %d", ErrInvalidConfig, c.BufferSize)
	}
	return nil
}

// DialNetwork returns Network, or unix for addresses that look like a socket path and tcp otherwise.
func (c Config) DialNetwork() string {
	if c.Network != "" {
		return c.Network
	}
	if strings.HasPrefix(c.Addr, "/") {
		return "unix"
	}
	return "tcp"
}

// BufferedReader wraps r in a buffer of BufferSize bytes.
func (c Config) BufferedReader(r io.Reader) *bufio.Reader {
	return bufio.NewReaderSize(r, c.BufferSize)
}

// Apply copies the codec settings to rrw. The initial read size of rrw is left at its default, so the frame reader
// never reads past the end of a reply.
func (c Config) Apply(rrw *resp3.ReadWriter) {
	rrw.Reader.MaxDepth = c.MaxDepth
	rrw.Reader.SingleReadSizeLimit = c.ReadLimit
	rrw.Writer.Encoder.BulkStrings = c.BulkStrings
}

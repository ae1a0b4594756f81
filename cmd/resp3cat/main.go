// Command resp3cat sends commands to a RESP3 server, or decodes RESP3 units read from stdin, and prints the replies.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/nussjustin/resp3/v2"
	"github.com/nussjustin/resp3/v2/internal/config"
	"github.com/nussjustin/resp3/v2/internal/logging"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "resp3cat: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("resp3cat", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configPath := fs.String("config", "", "path to a TOML config file")
	addr := fs.String("addr", "", "server address, reads units from stdin if empty")
	network := fs.String("network", "", "network used to dial addr (tcp, tcp4, tcp6 or unix)")
	hello := fs.Int("hello", 0, "protocol version sent with HELLO after connecting, 0 disables")
	bufferSize := fs.Int("buffer-size", 0, "size of the read buffer")
	maxDepth := fs.Int("max-depth", 0, "maximum nesting depth of aggregates, negative disables the limit")
	readLimit := fs.Int("read-limit", 0, "maximum size of a single line or blob, negative disables the limit")
	bulkStrings := fs.Bool("bulk-strings", false, "encode all strings as bulk strings")
	logLevel := fs.String("log-level", "", "log level (trace, debug, info, warn, error, off)")
	raw := fs.Bool("raw", false, "print raw units instead of decoded values")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Addr = *addr
		case "network":
			cfg.Network = *network
		case "hello":
			cfg.Hello = *hello
		case "buffer-size":
			cfg.BufferSize = *bufferSize
		case "max-depth":
			cfg.MaxDepth = *maxDepth
		case "read-limit":
			cfg.ReadLimit = *readLimit
		case "bulk-strings":
			cfg.BulkStrings = *bulkStrings
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.New("resp3cat", cfg.LogLevel, stderr)

	p := printer{out: stdout, raw: *raw}

	if cfg.Addr == "" {
		rr := resp3.NewReader(cfg.BufferedReader(stdin))
		rr.MaxDepth = cfg.MaxDepth
		rr.SingleReadSizeLimit = cfg.ReadLimit
		rr.Logger = &logger
		return decodeStream(rr, p)
	}

	conn, err := net.Dial(cfg.DialNetwork(), cfg.Addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", cfg.Addr, err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			logger.Warn().Err(err).Msg("close connection")
		}
	}()
	logger.Debug().Str("network", cfg.DialNetwork()).Str("addr", cfg.Addr).Msg("connected")

	rrw := newReadWriter(conn, cfg)
	rrw.Logger = &logger

	if cfg.Hello != 0 {
		g, err := rrw.Hello(cfg.Hello)
		if err != nil {
			return fmt.Errorf("hello: %w", err)
		}
		logger.Info().
			Str("server", g.Server).
			Str("version", g.Version).
			Int64("proto", g.Proto).
			Int64("id", g.ID).
			Str("mode", g.Mode).
			Str("role", g.Role).
			Msg("handshake complete")
	}

	if cmd := fs.Args(); len(cmd) > 0 {
		return do(rrw, p, cmd)
	}
	return doLines(rrw, p, stdin, &logger)
}

// newReadWriter buffers reads from conn and configures the codec from cfg.
func newReadWriter(conn io.ReadWriter, cfg config.Config) *resp3.ReadWriter {
	rrw := resp3.NewReadWriter(struct {
		io.Reader
		io.Writer
	}{cfg.BufferedReader(conn), conn})
	cfg.Apply(rrw)
	return rrw
}

// decodeStream prints every unit read from rr until the stream ends.
func decodeStream(rr *resp3.Reader, p printer) error {
	for {
		frame, err := rr.ReadFrame(resp3.DefaultBufferSize)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := p.print(frame); err != nil {
			return err
		}
	}
}

// doLines runs one command per line read from r. Arguments are separated by whitespace.
func doLines(rrw *resp3.ReadWriter, p printer, r io.Reader, logger *zerolog.Logger) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		args := strings.Fields(sc.Text())
		if len(args) == 0 {
			continue
		}
		if err := do(rrw, p, args); err != nil {
			return err
		}
		logger.Debug().Strs("args", args).Msg("command done")
	}
	return sc.Err()
}

func do(rrw *resp3.ReadWriter, p printer, args []string) error {
	if err := rrw.WriteCommand(args...); err != nil {
		return fmt.Errorf("write %s: %w", args[0], err)
	}
	frame, err := rrw.ReadFrame(resp3.DefaultBufferSize)
	if err != nil {
		return fmt.Errorf("read reply to %s: %w", args[0], err)
	}
	return p.print(frame)
}

type printer struct {
	out io.Writer
	raw bool
}

func (p printer) print(frame []byte) error {
	if p.raw {
		_, err := fmt.Fprintf(p.out, "%q\n", frame)
		return err
	}
	v, err := resp3.Decode(frame)
	if err != nil {
		return fmt.Errorf("decode %q: %w", frame, err)
	}
	return printValue(p.out, v)
}

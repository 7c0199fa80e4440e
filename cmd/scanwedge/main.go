// Command scanwedge turns a keyboard-wedge barcode scanner attached to a till
// into cart additions. It reads the terminal in raw mode, frames fast
// keystroke bursts into codes and posts each code to the server.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"shoppos/internal/config"
	"shoppos/internal/scan"
)

const ctrlC = 0x03

func main() {
	cfg, err := config.LoadScanner(filepath.Join(".", ".env"))
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	flag.StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "server base URL")
	flag.StringVar(&cfg.Token, "token", cfg.Token, "session token of the cashier")
	flag.DurationVar(&cfg.Gap, "gap", cfg.Gap, "maximum pause between keystrokes of one scan")
	flag.Parse()

	zlog, err := newTerminalLogger()
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if cfg.Token == "" {
		zlog.Fatal("a session token is required (-token or SCAN_TOKEN)")
	}

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		state, err := term.MakeRaw(fd)
		if err != nil {
			zlog.Fatal("enter raw mode", zap.Error(err))
		}
		defer func() { _ = term.Restore(fd, state) }()
	}

	zlog.Info("scanner ready", zap.String("server", cfg.ServerURL), zap.Duration("gap", cfg.Gap))
	if err := run(os.Stdin, scan.NewFramer(cfg.Gap), scan.NewClient(cfg.ServerURL, cfg.Token), zlog); err != nil {
		zlog.Error("scanner stopped", zap.Error(err))
	}
}

func run(in io.Reader, framer *scan.Framer, client *scan.Client, zlog *zap.Logger) error {
	reader := bufio.NewReader(in)
	for {
		r, _, err := reader.ReadRune()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		if r == ctrlC {
			return nil
		}
		code, ok := framer.Key(scan.KeyName(r), time.Now())
		if !ok {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		res, err := client.Submit(ctx, code)
		cancel()
		if err != nil {
			zlog.Error("scan not delivered", zap.String("code", code), zap.Error(err))
			continue
		}
		if res.Status != http.StatusOK {
			zlog.Warn("scan rejected", zap.String("code", code), zap.Int("status", res.Status), zap.String("reason", res.Message))
			continue
		}
		zlog.Info("added",
			zap.String("code", code),
			zap.String("product", res.Name),
			zap.Int("items", res.Items),
			zap.String("total", res.Total),
		)
	}
}

// newTerminalLogger writes console lines ending in CRLF, which raw mode
// needs to return the cursor.
func newTerminalLogger() (*zap.Logger, error) {
	zcfg := zap.NewDevelopmentConfig()
	zcfg.DisableStacktrace = true
	zcfg.EncoderConfig.LineEnding = "\r\n"
	zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zcfg.Build()
}

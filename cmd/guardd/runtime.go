package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/go-guard-companion/internal/config"
	"github.com/jrsteele09/go-guard-companion/realtime"
	"github.com/jrsteele09/go-guard-companion/session"
	"github.com/jrsteele09/go-guard-companion/storage"
	"github.com/jrsteele09/go-guard-companion/storage/filestore"
	"github.com/jrsteele09/go-guard-companion/storage/redisstore"
	"github.com/jrsteele09/go-guard-companion/translation"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func setupLogging(c config.EnvConfig) {
	level, err := zerolog.ParseLevel(strings.ToLower(c.GetLogLevel()))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if c.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

func newStore(c config.StorageConfig) (storage.Repo, error) {
	switch c.GetStorageBackend() {
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: c.GetRedisAddr()})
		return redisstore.New(rdb, c.GetRedisPrefix()), nil
	case "file", "":
		var opts []filestore.Option
		if key := c.GetStorageKey(); key != "" {
			opts = append(opts, filestore.WithPassphrase(key))
		}
		return filestore.New(c.GetDataFolder(), opts...)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", c.GetStorageBackend())
	}
}

type logNavigator struct{}

func (logNavigator) Replace(area session.Area) {
	log.Info().Stringer("area", area).Msg("Navigate")
}

// consoleAlerter prints emergency alerts and waits for the guard to press Enter.
// Alerts queue behind the one on screen.
type consoleAlerter struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
	tr  *translation.Translator
}

func newConsoleAlerter(in io.Reader, out io.Writer, tr *translation.Translator) *consoleAlerter {
	return &consoleAlerter{in: bufio.NewReader(in), out: out, tr: tr}
}

func (a *consoleAlerter) Vibrate() {
	fmt.Fprint(a.out, "\a")
}

func (a *consoleAlerter) Alert(alert realtime.EmergencyAlert) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fmt.Fprintf(a.out, "\n%s\n%s\n\n[%s] %s ", alert.Title(), alert.Message(),
		a.tr.T("acknowledge"), a.tr.T("pressEnterToAcknowledge"))
	if _, err := a.in.ReadString('\n'); err != nil {
		log.Warn().Err(err).Msg("Alert input closed")
		return
	}
	log.Info().Str("type", alert.Type).Msg("Emergency alert acknowledged")
}

package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const (
	green      = "\033[32m"
	blue       = "\033[34m"
	cyan       = "\033[36m"
	yellow     = "\033[33m"
	magenta    = "\033[35m"
	gray       = "\033[90m"
	resetColor = "\033[0m"
)

var methodColors = map[string]string{
	http.MethodGet:    green,
	http.MethodPost:   blue,
	http.MethodPut:    cyan,
	http.MethodDelete: yellow,
	http.MethodPatch:  magenta,
}

// WithRequestLog logs every request and its outcome to logger at debug level.
// colour pads and colours the method for a terminal.
func WithRequestLog(logger zerolog.Logger, colour bool) Option {
	return func(o *options) {
		o.base = &loggingTransport{next: o.base, logger: logger, colour: colour}
	}
}

type loggingTransport struct {
	next   http.RoundTripper
	logger zerolog.Logger
	colour bool
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.next.RoundTrip(req)
	event := t.logger.Debug().
		Str("method", t.method(req.Method)).
		Str("path", req.URL.Path).
		Dur("took", time.Since(start))
	if err != nil {
		event.Err(err).Msg("API request failed")
		return resp, err
	}
	event.Int("status", resp.StatusCode).Msg("API request")
	return resp, nil
}

func (t *loggingTransport) method(m string) string {
	if !t.colour {
		return m
	}
	padded := fmt.Sprintf(" %-7s", m)
	if c, ok := methodColors[m]; ok {
		return c + padded + resetColor
	}
	return gray + padded + resetColor
}

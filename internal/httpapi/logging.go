package httpapi

import (
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// zlog is an optional structured logger. Nothing is logged while it is unset.
var zlog *zerolog.Logger

// SetLogger installs a structured logger used by the HTTP layer.
func SetLogger(l zerolog.Logger) {
	l = l.With().Str("component", "httpapi").Logger()
	zlog = &l
}

// LogLevel controls per-request logging behavior.
type LogLevel int

const (
	LevelOff LogLevel = iota
	LevelError
	LevelInfo
	LevelDebug
)

func parseLevel(s string) LogLevel {
	switch s {
	case "off", "":
		return LevelOff
	case "error":
		return LevelError
	case "info":
		return LevelInfo
	case "debug":
		return LevelDebug
	default:
		return LevelInfo
	}
}

// global default, read once
var defaultLogLevel = parseLevel(os.Getenv("LLMBENCH_HTTP_LOG_LEVEL"))

func requestLogLevel(r *http.Request) LogLevel {
	if v := r.URL.Query().Get("log"); v != "" {
		if v == "1" {
			return LevelDebug
		}
		return parseLevel(v)
	}
	if v := r.Header.Get("X-Log-Level"); v != "" {
		return parseLevel(v)
	}
	return defaultLogLevel
}

// RequestLogger logs one line per request at the level chosen by
// requestLogLevel. Errors are logged from LevelError, everything from
// LevelInfo.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lvl := requestLogLevel(r)
		if zlog == nil || lvl == LevelOff {
			next.ServeHTTP(w, r)
			return
		}
		sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(sr, r)
		if lvl < LevelInfo && sr.status < http.StatusInternalServerError {
			return
		}
		ev := zlog.Info()
		if sr.status >= http.StatusInternalServerError {
			ev = zlog.Error()
		}
		if rid := middleware.GetReqID(r.Context()); rid != "" {
			ev = ev.Str("request_id", rid)
		}
		if lvl >= LevelDebug {
			ev = ev.Str("query", r.URL.RawQuery).Str("remote", r.RemoteAddr)
		}
		ev.Str("method", r.Method).Str("path", r.URL.Path).Int("status", sr.status).
			Dur("dur", time.Since(start)).Msg("request")
	})
}

func logRequestError(r *http.Request, err error) {
	if zlog == nil {
		return
	}
	ev := zlog.Error().Err(err).Str("path", r.URL.Path)
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		ev = ev.Str("request_id", rid)
	}
	ev.Msg("request failed")
}

// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package admin

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/nftstaker/nftstaker/api/restutil"
	"github.com/nftstaker/nftstaker/health"
	"github.com/nftstaker/nftstaker/log"
)

type logLevelRequest struct {
	Level string `json:"level"`
}

type logLevelResponse struct {
	CurrentLevel string `json:"currentLevel"`
}

type apiLogsRequest struct {
	Enabled bool `json:"enabled"`
}

type apiLogsResponse struct {
	Enabled bool `json:"enabled"`
}

var levels = map[string]slog.Level{
	"trace": log.LevelTrace,
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
	"crit":  log.LevelCrit,
}

func getLogLevelHandler(logLevel *slog.LevelVar) restutil.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) error {
		return restutil.WriteJSON(w, &logLevelResponse{CurrentLevel: log.LevelString(logLevel.Level())})
	}
}

func postLogLevelHandler(logLevel *slog.LevelVar) restutil.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		var req logLevelRequest
		if err := restutil.ParseJSON(r.Body, &req); err != nil {
			return restutil.BadRequest(errors.WithMessage(err, "body"))
		}
		level, ok := levels[req.Level]
		if !ok {
			return restutil.BadRequest(errors.Errorf("invalid verbosity level %q", req.Level))
		}
		logLevel.Set(level)
		logger.Info("log level changed", "level", req.Level)
		return restutil.WriteJSON(w, &logLevelResponse{CurrentLevel: log.LevelString(level)})
	}
}

func getAPILogsHandler(enabled *atomic.Bool) restutil.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) error {
		return restutil.WriteJSON(w, &apiLogsResponse{Enabled: enabled.Load()})
	}
}

func postAPILogsHandler(enabled *atomic.Bool) restutil.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		var req apiLogsRequest
		if err := restutil.ParseJSON(r.Body, &req); err != nil {
			return restutil.BadRequest(errors.WithMessage(err, "body"))
		}
		enabled.Store(req.Enabled)
		logger.Info("api logs toggled", "enabled", req.Enabled)
		return restutil.WriteJSON(w, &apiLogsResponse{Enabled: req.Enabled})
	}
}

func getHealthHandler(h *health.Health) restutil.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) error {
		status := h.Status()
		w.Header().Set("Content-Type", restutil.JSONContentType)
		if !status.Healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		return json.NewEncoder(w).Encode(status)
	}
}

// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/nftstaker/nftstaker/api/accounts"
	"github.com/nftstaker/nftstaker/api/debug"
	"github.com/nftstaker/nftstaker/api/doc"
	"github.com/nftstaker/nftstaker/api/events"
	"github.com/nftstaker/nftstaker/api/middleware"
	"github.com/nftstaker/nftstaker/api/registry"
	"github.com/nftstaker/nftstaker/api/staker"
	"github.com/nftstaker/nftstaker/api/subscriptions"
	"github.com/nftstaker/nftstaker/api/transactions"
	"github.com/nftstaker/nftstaker/log"
	"github.com/nftstaker/nftstaker/logdb"
	"github.com/nftstaker/nftstaker/runtime"
)

var logger = log.WithContext("pkg", "api")

const versionHeader = "X-Nftstaker-Ver"

type Options struct {
	AllowedOrigins       string
	SkipLogs             bool
	EnableReqLogger      *atomic.Bool
	SlowQueriesThreshold time.Duration
	Log5xxErrors         bool
	EnableMetrics        bool
	EnableDebug          bool
	LogsLimit            uint64
}

// New return api router
func New(
	rt *runtime.Runtime,
	logDB *logdb.LogDB,
	opts Options,
) (http.HandlerFunc, func()) {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	router.PathPrefix("/doc").Handler(
		http.StripPrefix("/doc/", http.FileServer(http.FS(doc.FS))),
	)
	router.Path("/").HandlerFunc(
		func(w http.ResponseWriter, req *http.Request) {
			http.Redirect(w, req, "doc/nftstaker.yaml", http.StatusTemporaryRedirect)
		})

	accounts.New(rt).
		Mount(router, "/accounts")
	transactions.New(rt).
		Mount(router, "/transactions")
	registry.New(rt).
		Mount(router, "/registry")
	staker.New(rt).
		Mount(router, "/staker")
	if !opts.SkipLogs {
		events.New(logDB, opts.LogsLimit).
			Mount(router, "/logs/event")
	}
	if opts.EnableDebug {
		debug.New(rt.Clock()).
			Mount(router, "/debug")
	}

	subs := subscriptions.New(origins)
	subs.Mount(router, "/subscriptions")
	rt.AddReceiptWriter(subs)

	if opts.EnableMetrics {
		router.Use(metricsMiddleware)
	}
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(versionHeader, doc.Version())
			next.ServeHTTP(w, r)
		})
	})

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type", "x-genesis-id", "x-request-id"}),
		handlers.ExposedHeaders([]string{"x-genesis-id", "x-request-id", strings.ToLower(versionHeader)}),
	)(handler)

	enabled := opts.EnableReqLogger
	if enabled == nil {
		enabled = &atomic.Bool{}
	}
	handler = middleware.RequestLoggerMiddleware(logger, enabled, opts.SlowQueriesThreshold, opts.Log5xxErrors)(handler)
	handler = middleware.RequestIDMiddleware(handler)

	return handler.ServeHTTP, subs.Close // subscriptions handles hijacked conns, which need to be closed
}

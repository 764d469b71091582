// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package admin

import (
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/nftstaker/nftstaker/api/restutil"
	"github.com/nftstaker/nftstaker/health"
	"github.com/nftstaker/nftstaker/log"
)

var logger = log.WithContext("pkg", "admin")

// HTTPHandler serves the runtime controls of the node (log verbosity, api request logs) and its health.
func HTTPHandler(logLevel *slog.LevelVar, apiLogs *atomic.Bool, health *health.Health) http.Handler {
	router := mux.NewRouter()
	sub := router.PathPrefix("/admin").Subrouter()

	sub.Path("/loglevel").
		Methods(http.MethodGet).
		HandlerFunc(restutil.WrapHandlerFunc(getLogLevelHandler(logLevel)))
	sub.Path("/loglevel").
		Methods(http.MethodPost).
		HandlerFunc(restutil.WrapHandlerFunc(postLogLevelHandler(logLevel)))
	sub.Path("/apilogs").
		Methods(http.MethodGet).
		HandlerFunc(restutil.WrapHandlerFunc(getAPILogsHandler(apiLogs)))
	sub.Path("/apilogs").
		Methods(http.MethodPost).
		HandlerFunc(restutil.WrapHandlerFunc(postAPILogsHandler(apiLogs)))
	sub.Path("/health").
		Methods(http.MethodGet).
		HandlerFunc(restutil.WrapHandlerFunc(getHealthHandler(health)))

	return handlers.CompressHandler(router)
}

// StartServer serves the admin api on addr. It returns the base url and a function stopping the server.
func StartServer(addr string, logLevel *slog.LevelVar, apiLogs *atomic.Bool, health *health.Health) (string, func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, errors.Wrapf(err, "listen admin API addr [%v]", addr)
	}

	srv := &http.Server{Handler: HTTPHandler(logLevel, apiLogs, health), ReadHeaderTimeout: time.Second, ReadTimeout: 5 * time.Second}
	var g errgroup.Group
	g.Go(func() error {
		return srv.Serve(listener)
	})
	return "http://" + listener.Addr().String() + "/admin", func() {
		srv.Close()
		g.Wait()
	}, nil
}

// Copyright 2025 Alibaba Group Holding Ltd.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "go.uber.org/automaxprocs/maxprocs"

	"github.com/openbridge/sftpgated/pkg/flag"
	"github.com/openbridge/sftpgated/pkg/log"
	"github.com/openbridge/sftpgated/pkg/remote"
	"github.com/openbridge/sftpgated/pkg/session"
	"github.com/openbridge/sftpgated/pkg/store"
	_ "github.com/openbridge/sftpgated/pkg/util/safego"
	"github.com/openbridge/sftpgated/pkg/web"
	"github.com/openbridge/sftpgated/pkg/web/controller"
)

// main initializes and starts the gateway server.
func main() {
	flag.InitFlags()

	log.SetLevel(flag.ServerLogLevel)

	st, err := store.Open(flag.DataPath)
	if err != nil {
		log.Error("failed to open connection store at %s: %v", flag.DataPath, err)
		os.Exit(1)
	}

	registry := session.NewRegistry(flag.SessionIdleTimeout, func(cfg remote.DialConfig) (session.Conn, error) {
		return remote.Dial(cfg)
	})
	monitor := session.NewMonitor(registry, flag.KeepAliveInterval)
	monitor.Start()

	engine := web.NewRouter(flag.ServerAccessToken, st, registry, controller.DialSettings{
		ConnectTimeout: flag.ConnectTimeout,
		HostKeyPolicy:  remote.HostKeyPolicy(flag.HostKeyPolicy),
		KnownHostsPath: flag.KnownHostsPath,
	})

	addr := fmt.Sprintf(":%d", flag.ServerPort)
	server := &http.Server{Addr: addr, Handler: engine}

	go func() {
		log.Info("sftpgated listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start sftpgated server: %v", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutdown signal received, draining requests")

	ctx, cancel := context.WithTimeout(context.Background(), flag.ApiGracefulShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("forced shutdown: %v", err)
	}

	monitor.Stop()
	registry.CloseAll()
	log.Sync()
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/jrsteele09/atelier-console/backend"
	"github.com/jrsteele09/atelier-console/backend/backendfake"
	"github.com/jrsteele09/atelier-console/internal/config"
	"github.com/jrsteele09/atelier-console/internal/logging"
	"github.com/jrsteele09/atelier-console/server"
	"github.com/jrsteele09/atelier-console/session"
	"github.com/jrsteele09/atelier-console/session/redisstore"
	"github.com/rs/zerolog/log"
)

func main() {
	fakeBackend := flag.String("fake-backend", "", "serve a seeded in-memory backend on this address (e.g. :8000) and point the console at it")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Error loading .env: %s\n", err)
	}

	for {
		if err := run(*fakeBackend); err != nil {
			log.Fatal().Err(err).Msg("Error running server")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("Server stopped")
}

func run(fakeBackendAddr string) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	logging.Setup(c)
	displayAppname(c.GetAppName())

	ctx := context.Background()
	backendURL := c.GetBackendURL()
	if fakeBackendAddr != "" {
		fake, err := startFakeBackend(fakeBackendAddr)
		if err != nil {
			return err
		}
		defer fake.Close()
		backendURL = "http://" + fakeBackendAddr
		if strings.HasPrefix(fakeBackendAddr, ":") {
			backendURL = "http://localhost" + fakeBackendAddr
		}
	}

	sessions, closer, err := newSessionBinder(ctx, c)
	if err != nil {
		return err
	}
	defer closer.Close()

	backendClient := backend.New(backendURL, c.GetBackendTimeout(), backend.WithScheme(backend.ParseScheme(c.GetAuthScheme())))
	handler, err := server.New(c, backendClient, sessions)
	if err != nil {
		return err
	}

	log.Info().
		Str("backend", backendURL).
		Str("sessions", c.GetSessionBackend()).
		Msg("Console configured")

	httpServer := &http.Server{Addr: c.GetPort(), Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	serveErr := make(chan error, 1)
	go func() { serveErr <- listenAndServe(httpServer) }()

	select {
	case err := <-serveErr:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(httpServer)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func newSessionBinder(ctx context.Context, c config.Config) (session.Binder, io.Closer, error) {
	switch c.GetSessionBackend() {
	case config.SessionBackendRedis:
		client, err := redisstore.OpenPool(ctx, c.GetRedisURL())
		if err != nil {
			return nil, nil, err
		}
		return redisstore.NewBinder(client, c.GetRememberMeDuration(), c.GetEphemeralTTL()), client, nil
	case config.SessionBackendCookie:
		if !c.IsSessionSecretSet() {
			log.Warn().Msg("SESSION_SECRET is not set, signing cookies with a random per-process secret; sessions end on restart")
		}
		return session.NewCookieBinder(c.GetSessionSecret(), c.GetRememberMeDuration(), c.GetEphemeralTTL()), nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("unknown SESSION_BACKEND %q", c.GetSessionBackend())
	}
}

func startFakeBackend(addr string) (*http.Server, error) {
	fake := backendfake.New()
	if err := backendfake.Seed(fake); err != nil {
		return nil, err
	}
	fakeServer := &http.Server{Addr: addr, Handler: fake, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := fakeServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Err(err).Msg("Fake backend stopped")
		}
	}()
	log.Warn().Str("addr", addr).Msg("Serving seeded fake backend (admin/admin123, tech1/secret1)")
	return fakeServer, nil
}

func listenAndServe(server *http.Server) error {
	log.Info().Msgf("Server listening on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}

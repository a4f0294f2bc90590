package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"hookci/internal/config"
	"hookci/internal/core"
	"hookci/internal/log"
	"hookci/internal/storage"
	"hookci/internal/telemetry"
	"hookci/internal/webhook"
)

// payloads above this size are rejected before authentication
const maxPayloadBytes = 10 << 20

const shutdownTimeout = 10 * time.Second

type Server struct {
	d *webhook.Dispatcher
	l *slog.Logger
}

func New(d *webhook.Dispatcher, l *slog.Logger) *Server {
	return &Server{d: d, l: l}
}

func (s *Server) Router() http.Handler {
	mux := chi.NewRouter()
	mux.Use(LoggingMiddleware(s.l))

	mux.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Post("/webhooks/gitlab/{pipeline}", s.GitlabWebhook)

	return otelhttp.NewHandler(mux, "hookci")
}

// GitlabWebhook authenticates and classifies a GitLab webhook and triggers
// the pipeline named in the path. The response status only reflects the
// dispatch; the pipeline's own outcome is logged.
func (s *Server) GitlabWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := log.FromContext(ctx)
	pipeline := chi.URLParam(r, "pipeline")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeStatus(w, http.StatusRequestEntityTooLarge)
			return
		}
		writeStatus(w, http.StatusBadRequest)
		return
	}
	if !json.Valid(body) {
		l.Warn("invalid gitlab webhook", "pipeline", pipeline, "error", "body is not json")
		writeStatus(w, http.StatusBadRequest)
		return
	}

	trigger, err := s.d.HandleWebhook(ctx, r.Header, pipeline, json.RawMessage(body))
	if err != nil {
		l.Warn("invalid gitlab webhook", "pipeline", pipeline, "error", err)
		writeStatus(w, webhook.StatusCode(err))
		return
	}

	if err := s.d.TriggerPipeline(ctx, trigger); err != nil {
		l.Error("cannot trigger pipeline", "pipeline", pipeline, "error", err)
		writeStatus(w, webhook.StatusCode(err))
		return
	}

	writeStatus(w, http.StatusAccepted)
}

func writeStatus(w http.ResponseWriter, status int) {
	http.Error(w, http.StatusText(status), status)
}

// Run loads the configuration from the environment and serves webhooks
// until ctx is cancelled.
func Run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := log.SetLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	logger := log.New("hookci")
	ctx = log.IntoContext(ctx, logger)

	if cfg.Server.Tracing {
		shutdown, err := telemetry.InitTracer("hookci", os.Stdout, logger)
		if err != nil {
			return fmt.Errorf("failed to setup tracing: %w", err)
		}
		defer shutdown(context.Background())
	}

	layout := storage.NewLayout(cfg.Pipelines.Dir)
	ids, err := layout.List()
	if err != nil {
		logger.Warn("cannot list pipelines", "dir", cfg.Pipelines.Dir, "error", err)
	}
	logger.Info("pipelines found", "dir", cfg.Pipelines.Dir, "ids", ids)

	source, err := tokenSource(cfg, layout, logger)
	if err != nil {
		return err
	}

	var executor webhook.Executor
	if cfg.Pipelines.Execute {
		pe := &PipelineExecutor{Runner: core.NewRunner(), Layout: layout}
		if cfg.Pipelines.LogDir != "" {
			pe.Logs = storage.NewLogStorage(cfg.Pipelines.LogDir)
		}
		defer pe.Wait()
		executor = pe
	} else {
		logger.Info("pipeline execution disabled, triggers are only logged")
	}

	d := webhook.NewDispatcher(webhook.NewGate(source), executor)
	srv := &http.Server{
		Handler:           New(d, log.SubLogger(logger, "http")).Router(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	ln, err := net.Listen("tcp", cfg.Server.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	logger.Info("starting hookci server", "address", ln.Addr().String())
	if err := serve(ctx, srv, ln, logger); err != nil {
		return err
	}
	logger.Info("server stopped, waiting for running pipelines")
	return nil
}

// serve runs srv on ln until ctx is cancelled. It returns only after every
// in-flight request has finished, so no handler can start a pipeline run
// once the caller begins waiting for them.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, l *slog.Logger) error {
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			l.Error("shutdown", "error", err)
		}
	}()

	if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-drained
	return nil
}

func tokenSource(cfg *config.Config, layout *storage.Layout, l *slog.Logger) (webhook.TokenSource, error) {
	switch cfg.Webhook.TokenSource {
	case config.TokenSourceManifest:
		return webhook.NewManifestTokenSource(layout), nil
	case config.TokenSourceEnv:
		if cfg.Webhook.Token == "" {
			l.Warn("HOOKCI_WEBHOOK_TOKEN is empty, every webhook will be rejected")
		}
		return webhook.NewStaticTokenSource(cfg.Webhook.Token), nil
	}
	return nil, fmt.Errorf("unknown webhook token source %q", cfg.Webhook.TokenSource)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the research workflow over HTTP: submit a query,
// fetch the current snapshot, or follow progress as server-sent events.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/pdiddy/trendscope/internal/store"
	"github.com/pdiddy/trendscope/internal/stream"
	"github.com/pdiddy/trendscope/internal/workflow"
	"github.com/pdiddy/trendscope/pkg/types"
)

// Server wires the HTTP surface to the workflow runner and state store.
type Server struct {
	echo   *echo.Echo
	runner *workflow.Runner
	store  store.Store
	cfg    types.ServerConfig
	logger *zap.Logger
}

// New builds the server and registers its routes.
func New(runner *workflow.Runner, st store.Store, cfg types.ServerConfig, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{echo: e, runner: runner, store: st, cfg: cfg, logger: logger}

	e.POST("/api/research", s.submit)
	e.GET("/api/research", s.usage)
	e.GET("/api/research/:id", s.fetch)
	e.GET("/api/research/:id/stream", s.streamProgress)

	return s
}

// Start listens on the configured address until Shutdown or a listener error.
func (s *Server) Start() error {
	s.logger.Info("http server listening", zap.String("addr", s.cfg.Addr))
	if err := s.echo.Start(s.cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler exposes the routing tree for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

type submitRequest struct {
	Query string `json:"query"`
}

type submitResponse struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
}

func (s *Server) submit(c echo.Context) error {
	var req submitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	id, err := s.runner.Submit(c.Request().Context(), req.Query)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	s.logger.Info("research submitted", zap.String("id", id), zap.String("query", req.Query))
	return c.JSON(http.StatusAccepted, submitResponse{
		RequestID: id,
		Status:    string(types.StatusInitialized),
	})
}

func (s *Server) usage(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Use POST to submit research queries",
		"status":  "ready",
	})
}

// fetchResponse is the snapshot shape returned to clients. Nil slices
// render as empty collections so consumers never branch on null.
type fetchResponse struct {
	RequestID   string               `json:"request_id"`
	Query       string               `json:"query"`
	Status      types.ResearchStatus `json:"status"`
	RawResults  []types.SearchResult `json:"raw_results"`
	Clusters    []types.ClusterInfo  `json:"clusters"`
	Insights    *types.InsightResult `json:"insights,omitempty"`
	Error       string               `json:"error,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
	CompletedAt *time.Time           `json:"completed_at,omitempty"`
}

func (s *Server) fetch(c echo.Context) error {
	id := c.Param("id")
	state, err := s.store.Get(c.Request().Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Research request not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := fetchResponse{
		RequestID:  id,
		Query:      state.Query,
		Status:     state.Status,
		RawResults: state.RawResults,
		Clusters:   state.Clusters,
		Insights:   state.Insights,
		Error:      state.Error,
		CreatedAt:  state.CreatedAt,
	}
	if resp.RawResults == nil {
		resp.RawResults = []types.SearchResult{}
	}
	if resp.Clusters == nil {
		resp.Clusters = []types.ClusterInfo{}
	}
	if !state.CompletedAt.IsZero() {
		t := state.CompletedAt
		resp.CompletedAt = &t
	}
	return c.JSON(http.StatusOK, resp)
}

// streamProgress follows one session as server-sent events, one `data:`
// frame per status change, and closes after the terminal event.
func (s *Server) streamProgress(c echo.Context) error {
	id := c.Param("id")
	ctx := c.Request().Context()

	if _, err := s.store.Get(ctx, id); errors.Is(err, store.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Research request not found")
	} else if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)
	resp.Flush()

	for update := range stream.Subscribe(ctx, s.store, id, s.cfg.PollInterval) {
		payload, err := json.Marshal(update)
		if err != nil {
			s.logger.Error("encoding progress event", zap.String("id", id), zap.Error(err))
			continue
		}
		if _, err := fmt.Fprintf(resp, "data: %s\n\n", payload); err != nil {
			// Client went away; Subscribe notices via the request context.
			return nil
		}
		resp.Flush()
	}
	return nil
}

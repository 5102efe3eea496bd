// Package server exposes the process registry over HTTP so the panel can be
// driven remotely or from the CLI.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/driveops/pitcrew/internal/config"
	"github.com/driveops/pitcrew/internal/history"
	"github.com/driveops/pitcrew/internal/metrics"
	"github.com/driveops/pitcrew/internal/scan"
	"github.com/driveops/pitcrew/internal/supervisor"
)

// Router provides embeddable HTTP handlers for the process registry.
// Endpoints (under basePath):
//
//	POST /start        query: name=...
//	POST /stop         query: name=...
//	POST /stop-all
//	GET  /status       query: name=... (single) or empty (all)
//	GET  /events       server-sent event stream of registry events
//	GET  /highscores   query: env=... (defaults to configured environment)
//	GET  /checkpoints  query: limit=N
//	GET  /history      query: name=...&limit=N
//	GET  /config       query: key=...
//	POST /config       body: {"key": ..., "value": ...}
//	GET  /metrics      prometheus exposition
type Router struct {
	reg      *supervisor.Registry
	cfg      *config.Config
	store    history.Store
	basePath string
}

// NewRouter constructs a Router. store may be nil when history is disabled.
func NewRouter(reg *supervisor.Registry, cfg *config.Config, store history.Store, basePath string) *Router {
	return &Router{reg: reg, cfg: cfg, store: store, basePath: sanitizeBase(basePath)}
}

// Handler returns an http.Handler powered by gin that can be mounted in any mux.
func (r *Router) Handler() http.Handler {
	g := gin.New()
	g.Use(gin.Recovery())
	group := g.Group(r.basePath)
	group.POST("/start", r.handleStart)
	group.POST("/stop", r.handleStop)
	group.POST("/stop-all", r.handleStopAll)
	group.GET("/status", r.handleStatus)
	group.GET("/events", r.handleEvents)
	group.GET("/highscores", r.handleHighscores)
	group.GET("/checkpoints", r.handleCheckpoints)
	group.GET("/history", r.handleHistory)
	group.GET("/config", r.handleConfigGet)
	group.POST("/config", r.handleConfigSet)
	group.GET("/metrics", gin.WrapH(metrics.Handler()))
	return g
}

// NewServer starts a standalone HTTP server on addr using this router.
func NewServer(addr string, r *Router) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      0, // /events streams indefinitely
		IdleTimeout:       60 * time.Second,
	}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}

type errorResp struct {
	Error string `json:"error"`
}

type okResp struct {
	OK bool `json:"ok"`
}

func (r *Router) handleStart(c *gin.Context) {
	name := c.Query("name")
	if !isSafeName(name) {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid name: allowed [A-Za-z0-9._-]"})
		return
	}
	spec, err := r.cfg.LaunchSpec(name)
	if err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: err.Error()})
		return
	}
	proc := r.reg.CreateOrGet(name)
	if err := proc.Start(spec); err != nil {
		code := http.StatusBadRequest
		if errors.Is(err, supervisor.ErrAlreadyRunning) {
			code = http.StatusConflict
		}
		writeJSON(c, code, errorResp{Error: err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, okResp{OK: true})
}

func (r *Router) handleStop(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "name query param required"})
		return
	}
	proc, ok := r.reg.Get(name)
	if !ok {
		writeJSON(c, http.StatusNotFound, errorResp{Error: fmt.Sprintf("unknown process: %s", name)})
		return
	}
	proc.Stop()
	writeJSON(c, http.StatusOK, okResp{OK: true})
}

func (r *Router) handleStopAll(c *gin.Context) {
	r.reg.StopAll()
	writeJSON(c, http.StatusOK, okResp{OK: true})
}

func (r *Router) handleStatus(c *gin.Context) {
	name := c.Query("name")
	if name != "" {
		proc, ok := r.reg.Get(name)
		if !ok {
			writeJSON(c, http.StatusNotFound, errorResp{Error: fmt.Sprintf("unknown process: %s", name)})
			return
		}
		writeJSON(c, http.StatusOK, proc.Snapshot())
		return
	}
	names := r.reg.Names()
	out := make([]supervisor.Status, 0, len(names))
	for _, n := range names {
		if proc, ok := r.reg.Get(n); ok {
			out = append(out, proc.Snapshot())
		}
	}
	writeJSON(c, http.StatusOK, out)
}

// handleEvents streams registry events as server-sent events until the client
// disconnects. Slow clients drop events rather than stalling publishers.
func (r *Router) handleEvents(c *gin.Context) {
	ch, cancel := r.reg.SubscribeChan(256)
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Writer.Flush()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			c.SSEvent(e.Kind.String(), e)
			c.Writer.Flush()
		}
	}
}

func (r *Router) handleHighscores(c *gin.Context) {
	env := c.Query("env")
	if env == "" {
		env = r.cfg.GetString("environment.name", "")
	}
	logsDir := r.logsDir()
	laps, err := scan.Highscores(logsDir, env)
	if err != nil {
		writeJSON(c, http.StatusInternalServerError, errorResp{Error: err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, laps)
}

func (r *Router) handleCheckpoints(c *gin.Context) {
	limit := 20
	if s := c.Query("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = n
		}
	}
	modelsDir := r.cfg.GetString("paths.models_dir", "./logs/")
	if !filepath.IsAbs(modelsDir) {
		modelsDir = filepath.Join(r.cfg.GetString("paths.repo_root", "."), modelsDir)
	}
	cps, err := scan.Checkpoints(modelsDir, limit)
	if err != nil {
		writeJSON(c, http.StatusInternalServerError, errorResp{Error: err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, cps)
}

func (r *Router) handleHistory(c *gin.Context) {
	if r.store == nil {
		writeJSON(c, http.StatusNotFound, errorResp{Error: "history is disabled"})
		return
	}
	name := c.Query("name")
	if name == "" {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "name query param required"})
		return
	}
	limit := 50
	if s := c.Query("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = n
		}
	}
	ctx, cancelCtx := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancelCtx()
	recs, err := r.store.GetByName(ctx, name, limit)
	if err != nil {
		writeJSON(c, http.StatusInternalServerError, errorResp{Error: err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, recs)
}

type configEntry struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

func (r *Router) handleConfigGet(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "key query param required"})
		return
	}
	writeJSON(c, http.StatusOK, configEntry{Key: key, Value: r.cfg.Get(key, nil)})
}

func (r *Router) handleConfigSet(c *gin.Context) {
	var entry configEntry
	if err := c.ShouldBindJSON(&entry); err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid JSON: " + err.Error()})
		return
	}
	if entry.Key == "" {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "key required"})
		return
	}
	r.cfg.Set(entry.Key, entry.Value)
	writeJSON(c, http.StatusOK, okResp{OK: true})
}

func (r *Router) logsDir() string {
	dir := r.cfg.GetString("paths.logs_dir", "./logs/")
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(r.cfg.GetString("paths.repo_root", "."), dir)
	}
	return dir
}

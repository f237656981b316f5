package ui

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Southclaws/fault/fmsg"
	"github.com/gin-gonic/gin"

	"github.com/cwbudde/theremotion/internal/logging"
	"github.com/cwbudde/theremotion/internal/queue"
	"github.com/cwbudde/theremotion/settings"
)

// Web serves a model over HTTP. Handlers hand their work to the goroutine
// running Run, which owns the model:
//
//	GET  /api/snapshot        latest View
//	GET  /api/settings        current settings
//	PUT  /api/settings        partial settings file applied onto the current ones
//	POST /api/controls/:path  {"value": v} overrides one engine control
type Web struct {
	model  *Model
	log    *slog.Logger
	engine *gin.Engine

	reqs    chan func(*Model)
	stopped chan struct{}
}

type controlRequest struct {
	Value *float32 `json:"value"`
}

// NewWeb builds the router. The gin mode is left to the caller.
func NewWeb(m *Model, logger *slog.Logger) *Web {
	w := &Web{
		model:   m,
		log:     logging.OrDefault(logger),
		reqs:    make(chan func(*Model)),
		stopped: make(chan struct{}),
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/api/snapshot", w.getSnapshot)
	r.GET("/api/settings", w.getSettings)
	r.PUT("/api/settings", w.putSettings)
	r.POST("/api/controls/:path", w.postControl)
	w.engine = r
	return w
}

// Handler returns the router. Requests are answered while Run is running.
func (w *Web) Handler() http.Handler {
	return w.engine
}

// Run takes snapshots and runs handler requests one at a time until ctx is
// done, then closes the model.
func (w *Web) Run(ctx context.Context) {
	defer close(w.stopped)
	defer w.model.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.model.Updates():
			w.model.Refresh()
		case f := <-w.reqs:
			w.model.Refresh()
			f(w.model)
		}
	}
}

// do runs f on the model goroutine and waits for it.
func (w *Web) do(c *gin.Context, f func(m *Model)) error {
	done := make(chan struct{})
	select {
	case w.reqs <- func(m *Model) {
		defer close(done)
		f(m)
	}:
	case <-w.stopped:
		return queue.ErrClosed
	case <-c.Request.Context().Done():
		return c.Request.Context().Err()
	}
	<-done
	return nil
}

// Serve runs the model goroutine and listens on addr until ctx is done.
func (w *Web) Serve(ctx context.Context, addr string) error {
	go w.Run(ctx)
	srv := &http.Server{Addr: addr, Handler: w.engine, ReadHeaderTimeout: 5 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	w.log.Info("http surface listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (w *Web) getSnapshot(c *gin.Context) {
	var v View
	var ok bool
	if err := w.do(c, func(m *Model) { v, ok = m.View() }); err != nil {
		w.fail(c, http.StatusServiceUnavailable, err)
		return
	}
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no snapshot yet"})
		return
	}
	c.JSON(http.StatusOK, v)
}

func (w *Web) getSettings(c *gin.Context) {
	var s settings.Settings
	if err := w.do(c, func(m *Model) { s = m.Settings() }); err != nil {
		w.fail(c, http.StatusServiceUnavailable, err)
		return
	}
	c.JSON(http.StatusOK, settings.ToFile(s))
}

func (w *Web) putSettings(c *gin.Context) {
	var f settings.File
	if err := c.ShouldBindJSON(&f); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed settings: " + err.Error()})
		return
	}
	var s settings.Settings
	var invalid, sendErr error
	err := w.do(c, func(m *Model) {
		s = m.Settings()
		if invalid = settings.ApplyFile(&s, &f); invalid == nil {
			sendErr = m.SetSettings(s)
		}
	})
	switch {
	case err != nil:
		w.fail(c, http.StatusServiceUnavailable, err)
		return
	case invalid != nil:
		c.JSON(http.StatusBadRequest, gin.H{"error": invalid.Error()})
		return
	case sendErr != nil:
		w.fail(c, http.StatusBadRequest, sendErr)
		return
	}
	w.log.Debug("settings from http", "preset", s.Preset.Name)
	c.JSON(http.StatusOK, settings.ToFile(s))
}

func (w *Web) postControl(c *gin.Context) {
	var req controlRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Value == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": `expected {"value": number}`})
		return
	}
	path := c.Param("path")
	var setErr error
	if err := w.do(c, func(m *Model) { setErr = m.SetControl(path, *req.Value) }); err != nil {
		w.fail(c, http.StatusServiceUnavailable, err)
		return
	}
	if setErr != nil {
		w.fail(c, http.StatusNotFound, setErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"path": path, "value": *req.Value})
}

// fail reports err with status, or 503 once the conductor is gone.
func (w *Web) fail(c *gin.Context, status int, err error) {
	if errors.Is(err, queue.ErrClosed) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "instrument stopped"})
		return
	}
	msg := fmsg.GetIssue(err)
	if msg == "" {
		msg = err.Error()
	}
	c.JSON(status, gin.H{"error": msg})
}

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/vk/liveui/internal/ctxlog"
	"github.com/vk/liveui/internal/nodeid"
	"github.com/vk/liveui/internal/tree"
)

// router serves the health check and the debug views.
func (a *App) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", a.healthHandler)
	r.Route("/debug", func(r chi.Router) {
		r.Get("/scene", a.sceneHandler)
		r.Get("/stats", a.statsHandler)
		r.Get("/node/{id}", a.nodeHandler)
	})
	return r
}

func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	if err := a.scene.ValidateHierarchy(); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

type nodeView struct {
	ID       string            `json:"id"`
	Type     string            `json:"type"`
	Props    map[string]string `json:"props,omitempty"`
	Children []nodeView        `json:"children,omitempty"`
}

func viewOf(n *tree.Node) nodeView {
	v := nodeView{ID: string(n.ID), Type: n.Type}
	if attrs := n.Attributes(); len(attrs) > 0 {
		v.Props = make(map[string]string, len(attrs))
		for _, p := range attrs {
			v.Props[p.Name] = p.Value.String()
		}
	}
	for _, ch := range n.Children {
		v.Children = append(v.Children, viewOf(ch))
	}
	return v
}

func (a *App) sceneHandler(w http.ResponseWriter, r *http.Request) {
	t, err := a.scene.Tree()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	var body any = struct{}{}
	if t != nil {
		body = viewOf(t.Root)
	}
	writeJSON(w, body)
}

type sceneNodeView struct {
	ID       string            `json:"id"`
	Type     string            `json:"type"`
	Parent   string            `json:"parent,omitempty"`
	Children []string          `json:"children,omitempty"`
	Props    map[string]string `json:"props,omitempty"`
}

func (a *App) nodeHandler(w http.ResponseWriter, r *http.Request) {
	raw, err := url.PathUnescape(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	addr, err := nodeid.Parse(raw)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	n, ok := a.scene.Node(addr.ID())
	if !ok {
		http.Error(w, fmt.Sprintf("no scene node %s", addr.ID()), http.StatusNotFound)
		return
	}
	v := sceneNodeView{ID: string(n.ID), Type: n.Type, Parent: string(n.Parent)}
	for _, id := range n.Children {
		v.Children = append(v.Children, string(id))
	}
	if len(n.Props) > 0 {
		v.Props = make(map[string]string, len(n.Props))
		for _, p := range n.Props {
			v.Props[p.Name] = p.Value.String()
		}
	}
	writeJSON(w, v)
}

func (a *App) statsHandler(w http.ResponseWriter, r *http.Request) {
	stats := map[string]any{
		"engine":    a.engine.Stats(),
		"compiler":  a.compiler.Stats(),
		"scene":     a.scene.Stats(),
		"published": a.bus.Published(),
	}
	if a.detector != nil {
		stats["detector"] = a.detector.Stats()
	}
	writeJSON(w, stats)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// startServer runs the HTTP server inside g and shuts it down when ctx ends.
func (a *App) startServer(ctx context.Context, g *errgroup.Group) {
	logger := ctxlog.FromContext(ctx)
	addr := fmt.Sprintf(":%d", a.config.HealthcheckPort)
	a.httpServer = &http.Server{Addr: addr, Handler: a.router()}

	g.Go(func() error {
		logger.Info("🩺 Health check server starting", "address", fmt.Sprintf("http://localhost%s/health", addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("health check server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Info("🩺 Shutting down health check server...")
		return a.httpServer.Shutdown(shutdownCtx)
	})
}

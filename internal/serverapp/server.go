// Package serverapp wires the boot-time collaborators (world, save
// file, broadcast bus, auth service) into a single http.Handler: static
// assets, health check, login, and the hijacked game connection
// endpoint, all behind the ambient request-id/recover/access-log chain.
package serverapp

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/darxtarr/txxt/internal/auth"
	"github.com/darxtarr/txxt/internal/broadcast"
	"github.com/darxtarr/txxt/internal/httpmw"
	"github.com/darxtarr/txxt/internal/session"
	"github.com/darxtarr/txxt/internal/store"
	"github.com/darxtarr/txxt/internal/world"
	"github.com/darxtarr/txxt/static"
)

// Options configures the assembled handler. World, Save, Bus, and Auth
// are boot-time collaborators constructed by cmd/server/main.go; the
// rest are presentation-layer plumbing.
type Options struct {
	World         *world.World
	Save          *store.SaveFile
	Bus           *broadcast.Bus
	Auth          *auth.Service
	StaticDir     string
	UseDiskStatic bool
	Logger        *log.Logger
}

// NewHandler assembles the full routing table and wraps it in the
// ambient middleware chain.
func NewHandler(opts Options) (http.Handler, error) {
	if opts.World == nil {
		return nil, errors.New("serverapp: World is required")
	}
	if opts.Save == nil {
		return nil, errors.New("serverapp: Save is required")
	}
	if opts.Bus == nil {
		return nil, errors.New("serverapp: Bus is required")
	}
	if opts.Auth == nil {
		return nil, errors.New("serverapp: Auth is required")
	}
	if strings.TrimSpace(opts.StaticDir) == "" {
		opts.StaticDir = "static"
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	mux := http.NewServeMux()

	staticHandler := http.FileServer(http.FS(staticfiles.EmbeddedFS()))
	if opts.UseDiskStatic {
		staticHandler = http.FileServer(http.Dir(opts.StaticDir))
	}
	mux.Handle("/static/", http.StripPrefix("/static/", staticHandler))

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "txxt",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	authHandler := auth.NewHandler(opts.Auth)
	mux.Handle("/api/auth/login", authHandler)

	gameHandler := &session.Handler{
		World:  opts.World,
		Save:   opts.Save,
		Bus:    opts.Bus,
		Auth:   opts.Auth,
		Logger: opts.Logger,
	}
	mux.Handle("/api/game", gameHandler)

	return httpmw.Chain(
		mux,
		httpmw.WithAccessLog(opts.Logger),
		httpmw.WithRequestID,
		httpmw.WithRecover(opts.Logger),
	), nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const tilesetIndexFile = "tileset.json"

// server wires the four core components into the HTTP surface.
type server struct {
	config Config
	meta   *MetaCache
	body   *BodyCache
	stat   *Stat
	access *DecisionCache
}

// newServer constructs a server from an already-resolved config.
func newServer(cfg Config, meta *MetaCache, body *BodyCache, stat *Stat, access *DecisionCache) *server {
	return &server{config: cfg, meta: meta, body: body, stat: stat, access: access}
}

// router builds the full chi.Router: the tile/stat/ping surface mounted
// under base_path, plus a /metrics scrape endpoint outside it.
func (s *server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Mount("/metrics", promhttp.Handler())

	r.Route(s.config.BasePath, func(r chi.Router) {
		r.Get("/models/{object}/{name}/*", s.handleTile)
		r.Get("/stat", s.handleStat)
		r.Get("/stat/{object}", s.handleStat)
		r.Get("/stat/{object}/{model}", s.handleStat)
		r.Get("/ping", s.handlePing)
	})

	return r
}

// requestLogger logs one structured line per request, grounded on the
// teacher's request-scoped logging shape, adapted to zerolog.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
		mHTTPRequestsTotal.WithLabelValues(routeLabel(r), statusClass(ww.Status())).Inc()
	})
}

func routeLabel(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
		return rc.RoutePattern()
	}
	return r.URL.Path
}

func statusClass(status int) string {
	return fmt.Sprintf("%dxx", status/100)
}

func sessionFromRequest(cookieName string, r *http.Request) SessionID {
	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return SessionID{}
	}
	value := cookie.Value
	return NewSessionID(&value)
}

// handleTile implements the tile endpoint: GET {base}/models/{object}/{name}/{tail...}
func (s *server) handleTile(w http.ResponseWriter, r *http.Request) {
	object := chi.URLParam(r, "object")
	name := chi.URLParam(r, "name")
	tail := chi.URLParam(r, "*")

	session := sessionFromRequest(s.config.Access.CookieName, r)
	model := NewModel(&object, &name)

	mode := s.access.Check(r.Context(), AccessKey{Model: model, Session: session})
	mAccessChecksTotal.WithLabelValues(mode.String()).Inc()
	if mode == Denied {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	path := filepath.Join(s.config.Storage.Root, object, name, tail)

	meta, err := s.meta.Metadata(path)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if meta.IsDir {
		path = filepath.Join(path, tilesetIndexFile)
		meta, err = s.meta.Metadata(path)
		if err != nil {
			http.NotFound(w, r)
			return
		}
	}

	resolved, err := s.body.OpenWithCache(path, meta)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Error().Err(err).Str("path", path).Msg("tile: opening file")
		}
		http.NotFound(w, r)
		return
	}

	s.stat.Insert(NewStatKey(&object, &name), Metrics{
		Hits:   1,
		Cached: boolUint64(resolved.Kind == ResolvedMemory),
		Bytes:  meta.Len,
	})

	writeTile(w, path, resolved, s.config.Storage.MaxAgeSec)
}

func boolUint64(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func writeTile(w http.ResponseWriter, path string, resolved Resolved, maxAgeSec int) {
	w.Header().Set("Cache-Control", fmt.Sprintf("private, max-age=%d", maxAgeSec))

	switch resolved.Kind {
	case ResolvedMemory:
		w.Header().Set("Content-Type", resolved.Memory.MIME)
		w.Header().Set("Cache-Status", "rtiles; hit")
		w.Header().Set("Content-Length", fmt.Sprintf("%d", len(resolved.Memory.Data)))
		mBodyCacheRequestsTotal.Inc()
		mBodyCacheHitTotal.Inc()
		mBodyCacheBytesTotal.Add(float64(len(resolved.Memory.Data)))
		mBodyCacheHitBytes.Add(float64(len(resolved.Memory.Data)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(resolved.Memory.Data)

	case ResolvedDisk:
		defer resolved.Disk.Close()
		mime, ok := mimeFromPath(path)
		if !ok {
			mime = defaultMIME
		}
		w.Header().Set("Content-Type", mime)
		w.Header().Set("Content-Length", fmt.Sprintf("%d", resolved.Meta.Len))
		mBodyCacheRequestsTotal.Inc()
		mBodyCacheMissTotal.Inc()
		w.WriteHeader(http.StatusOK)

		cr := &countingReader{r: resolved.Disk, sink: func(n int) {
			mBodyCacheBytesTotal.Add(float64(n))
			mBodyCacheMissBytes.Add(float64(n))
		}}
		_, _ = io.Copy(w, cr)
	}
}

// handleStat implements GET {base}/stat[/{object}[/{model}]].
func (s *server) handleStat(w http.ResponseWriter, r *http.Request) {
	var object, model *string
	if v := chi.URLParam(r, "object"); v != "" {
		object = &v
	}
	if v := chi.URLParam(r, "model"); v != "" {
		model = &v
	}

	session := sessionFromRequest(s.config.Access.CookieName, r)
	mode := s.access.Check(r.Context(), AccessKey{Model: NewModel(object, model), Session: session})
	mAccessChecksTotal.WithLabelValues(mode.String()).Inc()
	if mode == Denied {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	metrics := s.stat.Get(NewStatKey(object, model))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(metrics)
}

// handlePing is the unconditional liveness endpoint.
func (s *server) handlePing(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = io.WriteString(w, "pong")
}

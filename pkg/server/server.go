// Package server exposes compilation over a local HTTP API.
//
// An editing surface posts its current graph as a JSON document and gets
// the compiled [compile.Result] back; the command is also written to the
// buffer store, exactly as the CLI would. The API mirrors the CLI:
//
//	POST /compile/tree           compile from the render target
//	POST /compile/node/{id}      compile a single node
//	GET  /buffers                list buffer names
//	GET  /buffers/{name}         read a buffer (text/plain)
//	DELETE /buffers/{name}       delete a buffer
//	POST /recompile              ask the watch loop for an immediate tick
//	GET  /remote/{cluster}?dir=  list a remote directory
//	GET  /metrics                Prometheus metrics
//	GET  /healthz                liveness
//
// Errors are JSON objects with "code" and "error". Configuration errors
// (no render target, bad node fields, unknown kinds) map to 422.
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/braas-hpc/hscompose/pkg/buffer"
	"github.com/braas-hpc/hscompose/pkg/compile"
	"github.com/braas-hpc/hscompose/pkg/errors"
	"github.com/braas-hpc/hscompose/pkg/graph"
	hsio "github.com/braas-hpc/hscompose/pkg/io"
	"github.com/braas-hpc/hscompose/pkg/remote"
	"github.com/braas-hpc/hscompose/pkg/settings"
	"github.com/braas-hpc/hscompose/pkg/watch"
)

// DefaultGraphName names posted documents that carry no name.
const DefaultGraphName = "untitled"

// maxBodyBytes bounds posted graph documents.
const maxBodyBytes = 8 << 20

// Server holds the dependencies of the HTTP handlers. Compiler and Store
// are required; the rest are optional and their routes answer 503 when
// unset.
type Server struct {
	Compiler *compile.Compiler
	Store    buffer.Store
	Watch    *watch.Loop
	Lister   *remote.Lister
	Clusters []settings.Cluster
	Gatherer prometheus.Gatherer
	Logger   *log.Logger
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/compile/tree", s.compileTree)
	r.Post("/compile/node/{id}", s.compileNode)
	r.Get("/buffers", s.listBuffers)
	r.Get("/buffers/{name}", s.readBuffer)
	r.Delete("/buffers/{name}", s.deleteBuffer)
	r.Post("/recompile", s.recompile)
	r.Get("/remote/{cluster}", s.listRemote)

	gatherer := s.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return r
}

// ListenAndServe serves the API on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger().Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) logger() *log.Logger {
	if s.Logger == nil {
		return log.Default()
	}
	return s.Logger
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger().Debug("request", "method", r.Method, "path", r.URL.Path, "took", time.Since(start))
	})
}

func (s *Server) compileTree(w http.ResponseWriter, r *http.Request) {
	g, err := s.readGraph(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.Compiler.CompileTree(r.Context(), g)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) compileNode(w http.ResponseWriter, r *http.Request) {
	g, err := s.readGraph(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.Compiler.CompileNode(r.Context(), g, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// readGraph decodes the request body. The ?graph= query parameter
// overrides the document's name.
func (s *Server) readGraph(r *http.Request) (*graph.Graph, error) {
	g, err := hsio.ReadJSON(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	if name := r.URL.Query().Get("graph"); name != "" {
		g.SetName(name)
	}
	if g.Name() == "" {
		g.SetName(DefaultGraphName)
	}
	if err := errors.ValidateGraphName(g.Name()); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *Server) listBuffers(w http.ResponseWriter, r *http.Request) {
	names, err := s.Store.List(r.Context())
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeBuffer, err, "list buffers"))
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"buffers": names})
}

func (s *Server) readBuffer(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	data, err := s.Store.Read(r.Context(), name)
	if err != nil {
		s.writeError(w, bufferError(err, name))
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) deleteBuffer(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.Store.Delete(r.Context(), name); err != nil {
		s.writeError(w, bufferError(err, name))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func bufferError(err error, name string) error {
	if stderrors.Is(err, buffer.ErrNotFound) {
		return errors.New(errors.ErrCodeNotFound, "buffer %q not found", name)
	}
	if errors.GetCode(err) != "" {
		return err
	}
	return errors.Wrap(errors.ErrCodeBuffer, err, "buffer %q", name)
}

func (s *Server) recompile(w http.ResponseWriter, _ *http.Request) {
	if s.Watch == nil {
		s.writeError(w, errors.New(errors.ErrCodeUnsupported, "no watch loop is running"))
		return
	}
	s.Watch.Request()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (s *Server) listRemote(w http.ResponseWriter, r *http.Request) {
	if s.Lister == nil {
		s.writeError(w, errors.New(errors.ErrCodeUnsupported, "remote browsing is not configured"))
		return
	}
	preset, err := settings.Settings{Clusters: s.Clusters}.Cluster(chi.URLParam(r, "cluster"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	dir := r.URL.Query().Get("dir")
	if dir == "" {
		dir = preset.RemoteDir
	}
	if dir == "" {
		dir = "/"
	}
	entries, err := s.Lister.List(r.Context(), preset, dir)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"dir": dir, "entries": entries})
}

type errorBody struct {
	Code  errors.Code `json:"code"`
	Error string      `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger().Error("request failed", "err", err)
	}
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, status, errorBody{Code: code, Error: errors.UserMessage(err)})
}

func statusFor(err error) int {
	var maxErr *http.MaxBytesError
	if stderrors.As(err, &maxErr) {
		return http.StatusRequestEntityTooLarge
	}
	if errors.IsConfiguration(err) {
		return http.StatusUnprocessableEntity
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidName:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeUnsupported:
		return http.StatusServiceUnavailable
	case errors.ErrCodeRemote:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

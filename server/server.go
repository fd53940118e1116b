/*
	The HTTP face of the foreman.

	Short jobs are answered in the same request that submits them;
	`improve` jobs are started and then polled for.  Every job's result
	stays reachable at `/<id>.<kind>/result.json` for as long as the
	foreman remembers the job.
*/
package server

import (
	"bufio"
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/inconshreveable/log15"
	"github.com/ugorji/go/codec"

	"polydawn.net/fperr/actors/foreman"
	"polydawn.net/fperr/executor"
)

const maxBodyBytes = 64 << 20 // samples can be big

type Server struct {
	man *foreman.Foreman
	log log15.Logger
	mux *http.ServeMux

	closing   chan struct{} // closed on shutdown; ends open feeds
	closeOnce sync.Once
}

func New(man *foreman.Foreman, log log15.Logger) *Server {
	if log == nil {
		log = log15.New()
		log.SetHandler(log15.DiscardHandler())
	}
	s := &Server{
		man: man,
		log: log.New("module", "server"),
		mux: http.NewServeMux(),

		closing: make(chan struct{}),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /api/{kind}", s.handleAPI)
	s.mux.HandleFunc("GET /improve", s.handleImprove)
	s.mux.HandleFunc("POST /improve-start", s.handleImproveStart)
	s.mux.HandleFunc("GET /check-status/{id}", s.handleCheckStatus)
	s.mux.HandleFunc("GET /timeline/{id}", s.handleTimeline)
	s.mux.HandleFunc("GET /results.json", s.handleResults)
	s.mux.HandleFunc("GET /results/feed", s.handleResultsFeed)
	s.mux.HandleFunc("GET /up", s.handleUp)
	s.mux.HandleFunc("GET /{job}/{file}", s.handleJobFile)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	defer func() {
		if p := recover(); p != nil {
			s.log.Error("panic serving request", "path", r.URL.Path, "panic", p)
			if !rec.wrote {
				s.writeError(rec, r, executor.UnknownError.New("internal error: %v", p))
			}
		}
		s.log.Info("request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "elapsed", time.Since(start))
	}()
	s.mux.ServeHTTP(rec, r)
}

/*
	Serve on addr until the context ends, then stop taking connections and
	give in-flight requests a grace period to finish.
*/
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
		// No write timeout: `/improve` holds its response until the search is done.
	}
	srv.RegisterOnShutdown(s.Close)
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close ends any open results feeds.  Plain requests are unaffected.
func (s *Server) Close() {
	s.closeOnce.Do(func() { close(s.closing) })
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	var buf []byte
	codec.NewEncoderBytes(&buf, jsonHandle).MustEncode(v)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(buf)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	wrote  bool
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.wrote = true
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	sr.wrote = true
	return sr.ResponseWriter.Write(b)
}

func (sr *statusRecorder) Flush() {
	sr.wrote = true
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (sr *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	sr.wrote = true
	hj, ok := sr.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, http.ErrNotSupported
	}
	return hj.Hijack()
}

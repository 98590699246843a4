// Package live serves a mounted VM over HTTP. Browsers or scripts drive it
// through a websocket: every message is a field write or an input event and
// is answered with the re-rendered markup.
package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cast"

	"github.com/delaneyj/signalbind/reactive"
	"github.com/delaneyj/signalbind/vm"
)

const (
	OpSet   = "set"
	OpInput = "input"
)

type Message struct {
	Op       string `json:"op"`
	Key      string `json:"key,omitempty"`
	Selector string `json:"selector,omitempty"`
	Value    any    `json:"value"`
}

type Reply struct {
	HTML        string `json:"html"`
	Fingerprint uint64 `json:"fingerprint"`
	Error       string `json:"error,omitempty"`
}

type Server struct {
	vm       *vm.VM
	gatherer prometheus.Gatherer
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

type Option func(*Server)

func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func New(v *vm.VM, opts ...Option) *Server {
	s := &Server{
		vm:       v,
		gatherer: prometheus.DefaultGatherer,
		logger:   slog.Default(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", s.handlePage)
	r.Get("/state", s.handleState)
	r.Get("/ws", s.handleSocket)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return r
}

// Serve listens on addr until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("serving", "addr", addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	html, fp := s.vm.Render()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("ETag", fmt.Sprintf(`"%x"`, fp))
	_, _ = w.Write([]byte(html))
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.vm.Snapshot()); err != nil {
		s.logger.Warn("encode state", "error", err)
	}
}

func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade", "error", err)
		return
	}
	defer conn.Close()

	if err := conn.WriteJSON(s.reply(nil)); err != nil {
		return
	}
	for {
		msg, err := readMessage(conn)
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("websocket read", "error", err)
			}
			return
		}
		if err := conn.WriteJSON(s.reply(s.apply(msg))); err != nil {
			s.logger.Debug("websocket write", "error", err)
			return
		}
	}
}

func (s *Server) apply(msg Message) error {
	switch msg.Op {
	case OpSet:
		return s.vm.SetFunc(msg.Key, func(current any) (any, error) {
			return coerce(current, msg.Value)
		})
	case OpInput:
		return s.vm.Input(msg.Selector, reactive.Display(msg.Value))
	default:
		return fmt.Errorf("signalbind: unknown op %q", msg.Op)
	}
}

func (s *Server) reply(err error) Reply {
	html, fp := s.vm.Render()
	rep := Reply{HTML: html, Fingerprint: fp}
	if err != nil {
		rep.Error = err.Error()
	}
	return rep
}

// readMessage decodes one websocket message, keeping numbers as json.Number
// so they can be matched to the field's type.
func readMessage(conn *websocket.Conn) (Message, error) {
	var msg Message
	_, r, err := conn.NextReader()
	if err != nil {
		return msg, err
	}
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&msg); err != nil {
		return msg, err
	}
	return msg, nil
}

// coerce converts a JSON number to the numeric type the field already holds,
// so re-sending the current value is a no-op write.
func coerce(current, value any) (any, error) {
	n, ok := value.(json.Number)
	if !ok {
		return value, nil
	}
	s := n.String()
	switch current.(type) {
	case int:
		return cast.ToIntE(s)
	case int64:
		return cast.ToInt64E(s)
	case int32:
		return cast.ToInt32E(s)
	case uint:
		return cast.ToUintE(s)
	case uint64:
		return cast.ToUint64E(s)
	case float32:
		return cast.ToFloat32E(s)
	case float64:
		return cast.ToFloat64E(s)
	case string:
		return s, nil
	}
	if i, err := cast.ToIntE(s); err == nil {
		return i, nil
	}
	return cast.ToFloat64E(s)
}

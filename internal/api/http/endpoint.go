// Package httpapi implements the callback dispatch endpoint: a single HTTP
// listener shared by all concurrently-running pipelines in a process.
// Pipelines claim paths by registering one-shot handlers; inbound callbacks
// from the counterpart under test are routed to the first matching
// registration.
package httpapi

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/negotiation-tck/negotiation-tck/internal/message"
)

// Handler consumes a deserialized callback message and optionally returns a
// response message to serialize into the 200 body.
type Handler func(msg message.Message) (message.Message, error)

type patternEntry struct {
	raw     string
	re      *regexp.Regexp
	handler Handler
}

// Endpoint is the callback dispatch endpoint. Handler registrations are
// mutated concurrently by multiple pipelines; routing gives literal paths
// precedence over patterns, and patterns match in registration order.
type Endpoint struct {
	address    string
	listenAddr string
	logger     zerolog.Logger

	mu       sync.RWMutex
	exact    map[string]Handler
	patterns []patternEntry

	server *http.Server
}

// metaChars marks a registration as a regular expression rather than a
// literal path.
const metaChars = `[]()|?*+^$\`

// NewEndpoint creates an endpoint listening on listenAddr and externally
// reachable at address. An empty address is derived from the bound listener
// when the endpoint opens.
func NewEndpoint(address, listenAddr string, logger zerolog.Logger) *Endpoint {
	return &Endpoint{
		address:    strings.TrimSuffix(address, "/"),
		listenAddr: listenAddr,
		logger:     logger.With().Str("service", "callback-endpoint").Logger(),
		exact:      make(map[string]Handler),
	}
}

// Address returns the externally-reachable base URL the counterpart under
// test must call back to.
func (e *Endpoint) Address() string {
	return e.address
}

// RegisterHandler claims a path for a handler. The path is either a literal
// or a regular expression matched against the full normalized request path.
func (e *Endpoint) RegisterHandler(path string, handler Handler) error {
	path = normalizePath(path)
	if !strings.ContainsAny(path, metaChars) {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.exact[path] = handler
		return nil
	}
	re, err := regexp.Compile("^" + path + "$")
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.patterns = append(e.patterns, patternEntry{raw: path, re: re, handler: handler})
	return nil
}

// DeregisterHandler releases a previously claimed path; unknown paths are a
// no-op.
func (e *Endpoint) DeregisterHandler(path string) {
	path = normalizePath(path)
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.exact[path]; ok {
		delete(e.exact, path)
		return
	}
	for i, entry := range e.patterns {
		if entry.raw == path {
			e.patterns = append(e.patterns[:i], e.patterns[i+1:]...)
			return
		}
	}
}

// HandlesPath reports whether a registration matches the given request path.
func (e *Endpoint) HandlesPath(path string) bool {
	_, ok := e.lookup(normalizePath(path))
	return ok
}

// Open starts the HTTP listener. It returns once the listener is bound, so a
// caller may send callbacks immediately after.
func (e *Endpoint) Open() error {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.HandleFunc("/*", e.dispatch)

	listener, err := net.Listen("tcp", e.listenAddr)
	if err != nil {
		return err
	}
	if e.address == "" {
		e.address = "http://" + listener.Addr().String()
	}
	e.server = &http.Server{Handler: router}
	go func() {
		if err := e.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.logger.Error().Err(err).Msg("callback listener stopped")
		}
	}()
	e.logger.Debug().Str("addr", e.listenAddr).Msg("callback listener started")
	return nil
}

// Close stops the HTTP listener.
func (e *Endpoint) Close() error {
	if e.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return e.server.Shutdown(ctx)
}

func (e *Endpoint) dispatch(w http.ResponseWriter, r *http.Request) {
	path := normalizePath(r.URL.Path)
	handler, ok := e.lookup(path)
	if !ok {
		e.logger.Debug().Str("path", path).Msg("no handler for callback path")
		w.WriteHeader(http.StatusNotFound)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	msg := message.Message{}
	if len(body) > 0 {
		msg, err = message.Parse(body)
		if err != nil {
			e.logger.Debug().Err(err).Str("path", path).Msg("rejecting malformed callback body")
			w.WriteHeader(http.StatusBadRequest)
			return
		}
	}

	response, err := handler(msg)
	if err != nil {
		e.logger.Debug().Err(err).Str("path", path).Msg("callback handler failed")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if response == nil {
		w.WriteHeader(http.StatusOK)
		return
	}
	data, err := message.Serialize(response)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// lookup resolves a handler for a normalized path: literals first, then
// patterns in registration order.
func (e *Endpoint) lookup(path string) (Handler, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if h, ok := e.exact[path]; ok {
		return h, true
	}
	for _, entry := range e.patterns {
		if entry.re.MatchString(path) {
			return entry.handler, true
		}
	}
	return nil, false
}

func normalizePath(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	return path
}

// Package evtest provides an in-process fake of the EmailVision REST API.
// It issues real session tokens, checks them on every call and records the
// requests it receives so tests can assert on the wire traffic.
package evtest

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// ClosedConfirmation is the result text returned by a successful close.
const ClosedConfirmation = "connection closed"

// Credentials is the account the fake server accepts on connect/open/.
type Credentials struct {
	Login    string
	Password string
	Key      string
}

// Request is one call recorded by the server.
type Request struct {
	Method string
	Path   string
	Query  map[string]string
	Body   string
}

type cannedResponse struct {
	status int
	body   string
}

// Server is a fake EmailVision API mounted under /{api}/services/rest/.
type Server struct {
	API   string
	Creds Credentials

	mu          sync.Mutex
	sessions    map[string]bool
	requests    []Request
	canned      map[string]cannedResponse
	closeResult string
	router      chi.Router
}

// NewServer creates a fake for the given API namespace.
func NewServer(api string, creds Credentials) *Server {
	s := &Server{
		API:      api,
		Creds:    creds,
		sessions: make(map[string]bool),
		canned:   make(map[string]cannedResponse),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.record)
	r.Route("/"+api+"/services/rest", func(r chi.Router) {
		r.Get("/connect/open/", s.handleOpen)
		r.Get("/connect/close/", s.handleClose)
		r.Get("/*", s.handleCall)
		r.Post("/*", s.handleCall)
	})
	s.router = r
	return s
}

// ServeHTTP lets the Server be used directly as an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SetResponse makes the server answer every request to path (relative to
// the REST root, e.g. "connect/open/") with the given status and body.
func (s *Server) SetResponse(path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.canned[strings.TrimPrefix(path, "/")] = cannedResponse{status: status, body: body}
}

// SetCloseResult replaces the result text of connect/close/. An empty
// string restores the normal behaviour.
func (s *Server) SetCloseResult(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeResult = text
}

// Requests returns a copy of everything received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// ActiveSessions returns the number of tokens issued and not yet closed.
func (s *Server) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// ResultXML renders the response document the API uses for a single result.
func ResultXML(result string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><response><result>`)
	_ = xml.EscapeText(&b, []byte(result))
	b.WriteString(`</result></response>`)
	return b.String()
}

func (s *Server) restPath(r *http.Request) string {
	return strings.TrimPrefix(r.URL.Path, "/"+s.API+"/services/rest/")
}

// record logs the request and short-circuits canned responses.
func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		query := make(map[string]string)
		for k := range r.URL.Query() {
			query[k] = r.URL.Query().Get(k)
		}

		path := s.restPath(r)
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: r.Method,
			Path:   path,
			Query:  query,
			Body:   string(body),
		})
		canned, ok := s.canned[path]
		s.mu.Unlock()

		if ok {
			writeXML(w, canned.status, canned.body)
			return
		}
		r.Body = io.NopCloser(strings.NewReader(string(body)))
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("login") != s.Creds.Login || q.Get("pwd") != s.Creds.Password || q.Get("key") != s.Creds.Key {
		writeXML(w, http.StatusUnauthorized, statusXML("CHECK_CREDENTIALS", "invalid login, password or key"))
		return
	}

	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	s.mu.Lock()
	s.sessions[token] = true
	s.mu.Unlock()

	writeXML(w, http.StatusOK, ResultXML(token))
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")

	s.mu.Lock()
	override := s.closeResult
	known := s.sessions[token]
	if known && override == "" {
		delete(s.sessions, token)
	}
	s.mu.Unlock()

	switch {
	case override != "":
		writeXML(w, http.StatusOK, ResultXML(override))
	case !known:
		writeXML(w, http.StatusOK, ResultXML("error: session not found"))
	default:
		writeXML(w, http.StatusOK, ResultXML(ClosedConfirmation))
	}
}

// handleCall answers any other endpoint once the session token checks out.
// GET carries the token as a parameter; POST carries it as the last path
// segment.
func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
	var token string
	if r.Method == http.MethodPost {
		path := s.restPath(r)
		token = path[strings.LastIndex(path, "/")+1:]
	} else {
		token = r.URL.Query().Get("token")
	}

	s.mu.Lock()
	known := s.sessions[token]
	s.mu.Unlock()

	if !known {
		writeXML(w, http.StatusForbidden, statusXML("SESSION_RETRIEVING_FAILED", "invalid token"))
		return
	}
	writeXML(w, http.StatusOK, ResultXML(fmt.Sprintf("%s %s", r.Method, s.restPath(r))))
}

func statusXML(status, description string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><response><status>`)
	_ = xml.EscapeText(&b, []byte(status))
	b.WriteString(`</status><description>`)
	_ = xml.EscapeText(&b, []byte(description))
	b.WriteString(`</description></response>`)
	return b.String()
}

func writeXML(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

// Package fakebackend is an in-process stand-in for the visitor-management
// backend: a JSON REST API and a socket.io push channel. It is used by tests.
package fakebackend

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/buger/jsonparser"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/jrsteele09/go-guard-companion/realtime"
	"github.com/jrsteele09/go-guard-companion/users"
)

// Account is a user the fake accepts at /auth/login
type Account struct {
	Password string
	Token    string
	User     users.User
}

// Request is a recorded REST call
type Request struct {
	Method        string
	Path          string
	Query         string
	Authorization string
	Body          []byte
}

type canned struct {
	status int
	body   []byte
}

type socket struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	token   string
}

type Backend struct {
	server   *httptest.Server
	upgrader websocket.Upgrader

	mu           sync.Mutex
	accounts     map[string]Account
	responses    map[string]canned
	requests     []Request
	sockets      map[*socket]struct{}
	socketTokens []string
	rejectReason string
	pongs        int
	pingInterval int
}

// New starts a backend that is shut down when the test ends
func New(tb testing.TB) *Backend {
	tb.Helper()
	b := &Backend{
		accounts:     make(map[string]Account),
		responses:    make(map[string]canned),
		sockets:      make(map[*socket]struct{}),
		pingInterval: 25000,
	}
	b.upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

	r := mux.NewRouter()
	r.HandleFunc("/socket.io/", b.serveSocket)
	r.HandleFunc("/auth/login", b.login).Methods(http.MethodPost)
	r.PathPrefix("/").HandlerFunc(b.serveCanned)

	b.server = httptest.NewServer(r)
	tb.Cleanup(b.Close)
	return b
}

// URL is the base URL of the REST API and the socket.io server
func (b *Backend) URL() string {
	return b.server.URL
}

// Close disconnects every socket and stops the server
func (b *Backend) Close() {
	b.DropSockets()
	b.server.Close()
}

// AddAccount registers credentials for /auth/login
func (b *Backend) AddAccount(email string, account Account) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.accounts[email] = account
}

// Respond makes METHOD path answer with status and body marshalled as JSON
func (b *Backend) Respond(method, path string, status int, body any) {
	raw, err := json.Marshal(body)
	if err != nil {
		panic(err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.responses[method+" "+path] = canned{status: status, body: raw}
}

// Requests returns the recorded REST calls, login excluded
func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Request(nil), b.requests...)
}

// LastRequest returns the most recent call to METHOD path
func (b *Backend) LastRequest(method, path string) (Request, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.requests) - 1; i >= 0; i-- {
		if b.requests[i].Method == method && b.requests[i].Path == path {
			return b.requests[i], true
		}
	}
	return Request{}, false
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Malformed body", "statusCode": 400})
		return
	}
	b.mu.Lock()
	account, ok := b.accounts[creds.Email]
	b.mu.Unlock()
	if !ok || account.Password != creds.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Invalid credentials", "statusCode": 401})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"access_token": account.Token, "user": account.User})
}

func (b *Backend) serveCanned(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	b.mu.Lock()
	b.requests = append(b.requests, Request{
		Method:        r.Method,
		Path:          r.URL.Path,
		Query:         r.URL.RawQuery,
		Authorization: r.Header.Get("Authorization"),
		Body:          body,
	})
	resp, ok := b.responses[r.Method+" "+r.URL.Path]
	b.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": fmt.Sprintf("Cannot %s %s", r.Method, r.URL.Path), "statusCode": 404})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.status)
	_, _ = w.Write(resp.body)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// RejectSockets makes new socket.io connections fail with reason; "" accepts again
func (b *Backend) RejectSockets(reason string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rejectReason = reason
}

// SetPingInterval changes the interval advertised to new connections
func (b *Backend) SetPingInterval(ms int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pingInterval = ms
}

func (b *Backend) serveSocket(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("EIO") != "4" || r.URL.Query().Get("transport") != "websocket" {
		http.Error(w, "unsupported transport", http.StatusBadRequest)
		return
	}
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	b.mu.Lock()
	open := fmt.Sprintf(`0{"sid":%q,"upgrades":[],"pingInterval":%d,"pingTimeout":20000,"maxPayload":1000000}`,
		uuid.NewString(), b.pingInterval)
	reject := b.rejectReason
	b.mu.Unlock()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(open)); err != nil {
		return
	}

	_, msg, err := conn.ReadMessage()
	if err != nil || len(msg) < 2 || string(msg[:2]) != "40" {
		return
	}
	token, _ := jsonparser.GetString(msg[2:], "token")
	if reject != "" {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(fmt.Sprintf(`44{"message":%q}`, reject)))
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(fmt.Sprintf(`40{"sid":%q}`, uuid.NewString()))); err != nil {
		return
	}

	s := &socket{conn: conn, token: token}
	b.mu.Lock()
	b.sockets[s] = struct{}{}
	b.socketTokens = append(b.socketTokens, token)
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		delete(b.sockets, s)
		b.mu.Unlock()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		switch string(msg) {
		case "3":
			b.mu.Lock()
			b.pongs++
			b.mu.Unlock()
		case "41":
			return
		}
	}
}

// Sockets is the number of connected socket.io clients
func (b *Backend) Sockets() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sockets)
}

// SocketTokens lists the auth tokens presented by every accepted connection
func (b *Backend) SocketTokens() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.socketTokens...)
}

// Pongs counts pong packets received
func (b *Backend) Pongs() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pongs
}

func (b *Backend) broadcast(frame []byte) error {
	b.mu.Lock()
	targets := make([]*socket, 0, len(b.sockets))
	for s := range b.sockets {
		targets = append(targets, s)
	}
	b.mu.Unlock()

	for _, s := range targets {
		s.writeMu.Lock()
		err := s.conn.WriteMessage(websocket.TextMessage, frame)
		s.writeMu.Unlock()
		if err != nil {
			return err
		}
	}
	return nil
}

// Emit sends event to every connected client
func (b *Backend) Emit(event string, payload any) error {
	frame, err := realtime.EncodeEvent(event, payload)
	if err != nil {
		return err
	}
	return b.broadcast(frame)
}

// EmitRaw sends an arbitrary text frame to every connected client
func (b *Backend) EmitRaw(frame string) error {
	return b.broadcast([]byte(frame))
}

// Ping sends an Engine.IO ping to every connected client
func (b *Backend) Ping() error {
	return b.broadcast([]byte("2"))
}

// DropSockets closes every socket without a goodbye
func (b *Backend) DropSockets() {
	b.mu.Lock()
	targets := make([]*socket, 0, len(b.sockets))
	for s := range b.sockets {
		targets = append(targets, s)
	}
	b.mu.Unlock()
	for _, s := range targets {
		_ = s.conn.Close()
	}
}

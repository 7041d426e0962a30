// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package monitor streams flight events to browsers during bench runs.
package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/altitude_logger/internal/flight"
)

const (
	writeWait   = 2 * time.Second
	clientQueue = 64
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // bench tool on a local network
	},
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans events out to websocket clients and keeps the latest one for
// the status endpoint. OnEvent never blocks: a client that falls behind
// is dropped.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	last    *flight.Event
	events  int
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

// OnEvent implements flight.Observer.
func (h *Hub) OnEvent(e flight.Event) {
	msg, err := json.Marshal(e)
	if err != nil {
		log.Printf("monitor: marshal event: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = &e
	h.events++
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			log.Printf("monitor: client %s too slow, dropping", c.conn.RemoteAddr())
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// Clients returns the number of connected websocket clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Status is the body of /api/status.
type Status struct {
	Events int           `json:"events"`
	Last   *flight.Event `json:"last,omitempty"`
}

// HandleStatus serves the latest event.
func (h *Hub) HandleStatus(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	st := Status{Events: h.events}
	if h.last != nil {
		e := *h.last
		st.Last = &e
	}
	h.mu.RUnlock()

	if st.Last == nil {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(st); err != nil {
		log.Printf("monitor: json encode error: %v", err)
	}
}

// HandleWS upgrades the request and streams events until the client goes
// away.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("monitor: websocket upgrade error: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientQueue)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	log.Printf("monitor: client %s connected", conn.RemoteAddr())

	go h.readLoop(c)
	h.writeLoop(c)
}

// readLoop discards client messages and unregisters on close.
func (h *Hub) readLoop(c *client) {
	defer h.remove(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Printf("monitor: websocket write error: %v", err)
			h.remove(c)
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session over"),
		time.Now().Add(writeWait))
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// Handler returns the monitor routes.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.HandleWS)
	mux.HandleFunc("/api/status", h.HandleStatus)
	return mux
}

// Serve runs the monitor on addr until ctx is done.
func (h *Hub) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: h.Handler()}
	go func() {
		<-ctx.Done()
		h.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("monitor: listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

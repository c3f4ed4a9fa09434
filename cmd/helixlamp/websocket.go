package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ============================================================================
// WebSocket command server
// ============================================================================
//
// The wireless bridge (or any other remote) connects here and sends command
// strings as text frames, one command per frame. Each accepted frame is
// echoed back verbatim so the sender can confirm what the sculpture actually
// received - the transport-level read-back contract.
//
// Frames are only ever ENQUEUED for the tick loop; no engine state is
// touched from connection goroutines.
// ============================================================================

const (
	wsWriteWait = 5 * time.Second
	wsPongWait  = 30 * time.Second
	wsPing      = 20 * time.Second
)

var upgrader = websocket.Upgrader{
	// The daemon binds to loopback/LAN by default; origin policy belongs to
	// whatever fronts it.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// CommandSink is where transports deliver raw command strings.
type CommandSink interface {
	Submit(raw string) bool
}

// runCommandServer serves the websocket endpoint until ctx is canceled.
func runCommandServer(ctx context.Context, addr string, sink CommandSink, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/commands", func(w http.ResponseWriter, r *http.Request) {
		handleCommandWS(w, r, sink, logger)
	})

	srv := &http.Server{Addr: addr, Handler: mux}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	logger.Info("websocket command server listening", "addr", addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// handleCommandWS upgrades one connection and pumps commands until it dies.
func handleCommandWS(w http.ResponseWriter, r *http.Request, sink CommandSink, logger *slog.Logger) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	logger.Info("ws client connected", "remote_addr", r.RemoteAddr)

	// Writes happen from both the read loop (echo) and the ping ticker.
	var writeMu sync.Mutex
	writeText := func(msg []byte) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		return conn.WriteMessage(websocket.TextMessage, msg)
	}

	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(wsPing)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				writeMu.Lock()
				conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				err := conn.WriteMessage(websocket.PingMessage, nil)
				writeMu.Unlock()
				if err != nil {
					return
				}
			}
		}
	}()

	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			var ce *websocket.CloseError
			if errors.As(err, &ce) {
				logger.Info("ws client disconnected", "remote_addr", r.RemoteAddr, "code", ce.Code)
			} else {
				logger.Info("ws read ended", "remote_addr", r.RemoteAddr, "error", err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		raw := string(msg)
		accepted := sink.Submit(raw)
		if !accepted {
			logger.Warn("ws command not accepted", "command", raw)
		}

		// Echo the received value back for read-back confirmation.
		if err := writeText(msg); err != nil {
			logger.Warn("ws echo failed", "error", err)
			return
		}
	}
}

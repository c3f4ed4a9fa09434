package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
)

// ============================================================================
// IPC server - Unix domain socket command interface
// ============================================================================
//
// Local tools (helixctl, cron jobs, show launchers) send commands over a
// unix socket, one command string per line. The server answers each line
// with a small JSON status so callers can tell a dropped command from an
// accepted one.
//
// Protocol: line-delimited text commands in, line-delimited JSON out:
//   {"status":"ok","echo":"motor_speed:600"}
//   {"status":"error","error":"command queue full"}
// ============================================================================

// IPCResponse is the per-line response to IPC clients.
type IPCResponse struct {
	Status string `json:"status"`
	Echo   string `json:"echo,omitempty"`
	Error  string `json:"error,omitempty"`
}

// runIPCServer accepts connections until ctx is canceled.
func runIPCServer(ctx context.Context, socketPath string, sink CommandSink, logger *slog.Logger) error {
	if err := os.RemoveAll(socketPath); err != nil {
		return fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", socketPath, err)
	}
	defer listener.Close()
	defer os.Remove(socketPath)

	if err := os.Chmod(socketPath, 0o666); err != nil {
		return fmt.Errorf("chmod socket: %w", err)
	}

	logger.Info("IPC listening", "socket", socketPath)

	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				logger.Debug("IPC listener closed (shutdown)")
				return nil
			}
			if errors.Is(err, net.ErrClosed) || strings.Contains(err.Error(), "use of closed network connection") {
				logger.Debug("IPC listener closed")
				return nil
			}
			logger.Error("IPC accept error", "error", err)
			continue
		}

		go handleIPCConnection(conn, sink, logger)
	}
}

func handleIPCConnection(conn net.Conn, sink CommandSink, logger *slog.Logger) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	encoder := json.NewEncoder(conn)

	for scanner.Scan() {
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		logger.Debug("IPC received", "command", raw)

		var resp IPCResponse
		if sink.Submit(raw) {
			resp = IPCResponse{Status: "ok", Echo: raw}
		} else {
			resp = IPCResponse{Status: "error", Error: "command queue full"}
		}
		if err := encoder.Encode(resp); err != nil {
			logger.Error("IPC response failed", "error", err)
			return
		}
	}
}

// SendIPCCommand delivers one command to a running daemon and returns its
// echo. Used by helixctl and tests.
func SendIPCCommand(socketPath, raw string) (string, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return "", fmt.Errorf("connect to %s: %w", socketPath, err)
	}
	defer conn.Close()

	if _, err := fmt.Fprintf(conn, "%s\n", strings.TrimSpace(raw)); err != nil {
		return "", fmt.Errorf("send command: %w", err)
	}

	var resp IPCResponse
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if resp.Status != "ok" {
		return "", fmt.Errorf("ipc error: %s", resp.Error)
	}
	return resp.Echo, nil
}

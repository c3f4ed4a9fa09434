package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// ============================================================================
// helixctl - Command-line client for the helixlamp daemon
// ============================================================================
// Sends wire commands to a running helixlamp daemon, over the unix socket by
// default or over the websocket endpoint with -ws.
//
// Usage:
//   helixctl motor_speed:600
//   helixctl motor_start led_tails:160,12,3
//   helixctl -socket /var/run/helixlamp.sock system_off
//   helixctl -ws ws://sculpture.local:8137 auto_mode:30
//   helixctl -stdin            (one command per line from stdin)
// ============================================================================

// IPCResponse mirrors the daemon's per-line response (duplicated from the
// daemon package for a standalone binary).
type IPCResponse struct {
	Status string `json:"status"`
	Echo   string `json:"echo,omitempty"`
	Error  string `json:"error,omitempty"`
}

func main() {
	socketPath := "/tmp/helixlamp.sock"
	wsURL := ""
	fromStdin := false

	args := os.Args[1:]
	for len(args) > 0 && strings.HasPrefix(args[0], "-") {
		switch args[0] {
		case "-socket", "--socket":
			if len(args) < 2 {
				fmt.Fprintln(os.Stderr, "error: -socket requires an argument")
				os.Exit(1)
			}
			socketPath = args[1]
			args = args[2:]
		case "-ws", "--ws":
			if len(args) < 2 {
				fmt.Fprintln(os.Stderr, "error: -ws requires an argument")
				os.Exit(1)
			}
			wsURL = args[1]
			args = args[2:]
		case "-stdin", "--stdin":
			fromStdin = true
			args = args[1:]
		case "-h", "--help", "help":
			printUsage()
			return
		default:
			fmt.Fprintf(os.Stderr, "error: unknown option: %s\n", args[0])
			printUsage()
			os.Exit(1)
		}
	}

	commands := args
	if fromStdin {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line != "" {
				commands = append(commands, line)
			}
		}
	}
	if len(commands) == 0 {
		printUsage()
		os.Exit(1)
	}

	var err error
	if wsURL != "" {
		err = sendOverWebsocket(wsURL, commands)
	} else {
		err = sendOverIPC(socketPath, commands)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// sendOverIPC delivers commands one per line over the unix socket and checks
// each JSON response.
func sendOverIPC(socketPath string, commands []string) error {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", socketPath, err)
	}
	defer conn.Close()

	decoder := json.NewDecoder(conn)
	for _, cmd := range commands {
		if _, err := fmt.Fprintf(conn, "%s\n", cmd); err != nil {
			return fmt.Errorf("send %q: %w", cmd, err)
		}
		var resp IPCResponse
		if err := decoder.Decode(&resp); err != nil {
			return fmt.Errorf("decode response for %q: %w", cmd, err)
		}
		if resp.Status != "ok" {
			return fmt.Errorf("daemon rejected %q: %s", cmd, resp.Error)
		}
		fmt.Println(resp.Echo)
	}
	return nil
}

// sendOverWebsocket delivers commands as text frames and prints the daemon's
// echo frame for each, the same read-back the wireless bridge relies on.
func sendOverWebsocket(wsURL string, commands []string) error {
	if !strings.Contains(wsURL, "/commands") {
		wsURL = strings.TrimRight(wsURL, "/") + "/commands"
	}

	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, _, err := dialer.Dial(wsURL, nil)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", wsURL, err)
	}
	defer conn.Close()

	for _, cmd := range commands {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, []byte(cmd)); err != nil {
			return fmt.Errorf("send %q: %w", cmd, err)
		}
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, echo, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read echo for %q: %w", cmd, err)
		}
		fmt.Println(string(echo))
	}

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	conn.SetWriteDeadline(time.Now().Add(time.Second))
	_ = conn.WriteMessage(websocket.CloseMessage, msg)
	return nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `helixctl - Send commands to a running helixlamp daemon

Usage:
  helixctl [options] <command> [command ...]

Options:
  -socket PATH    Unix domain socket path (default: /tmp/helixlamp.sock)
  -ws URL         Use the websocket endpoint instead (e.g. ws://host:8137)
  -stdin          Read additional commands from stdin, one per line
  -h, --help      Show this help message

Commands are helixlamp wire commands, for example:
  motor_speed:600        ramp the motor to speed 600
  motor_reverse          reverse rotation direction
  led_tails:160,12,3     3 comet tails, hue 160, length 12
  led_effect:fire        switch to the fire effect
  auto_mode:30           run a generated 30 minute show
  system_off             stop everything

Examples:
  helixctl motor_start
  helixctl motor_speed:700 led_cycle_time:2000
  cat show.txt | helixctl -stdin
`)
}

// Command ws_smoke logs in over the REST API, opens a websocket and sends a
// single message, printing everything it receives until the timeout. Useful
// for poking at a running server without a browser client.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/klatch-chat/klatch-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "http://localhost:3000", "server base URL")
	username := flag.String("user", "tester", "username to log in with")
	password := flag.String("password", "password", "password to log in with")
	chatID := flag.String("chat", "", "chat id to post into")
	members := flag.String("members", "", "comma-separated member ids for the fan-out")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	token, err := login(ctx, *addr, *username, *password)
	if err != nil {
		return err
	}

	wsURL := strings.Replace(*addr, "http", "ws", 1) + "/ws?token=" + token
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	if *chatID != "" {
		payload, err := json.Marshal(proto.NewMessageData{
			ChatID:  *chatID,
			Members: strings.Split(*members, ","),
			Message: *text,
		})
		if err != nil {
			return fmt.Errorf("marshal message: %w", err)
		}
		if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.EventNewMessage, Data: payload}); err != nil {
			return fmt.Errorf("send: %w", err)
		}
		log.Printf("sent %q to chat %s", *text, *chatID)
	}

	for {
		var out map[string]any
		if err := wsjson.Read(ctx, conn, &out); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		log.Printf("received: %v", out)
	}
}

func login(ctx context.Context, addr, username, password string) (string, error) {
	body, err := json.Marshal(map[string]string{"username": username, "password": password})
	if err != nil {
		return "", fmt.Errorf("marshal login: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, addr+"/api/v1/user/login", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login failed with status %d", resp.StatusCode)
	}

	var auth struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}
	return auth.Token, nil
}

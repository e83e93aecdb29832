package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/DaveMcBlame1/chatroom/internal/proto"
)

type wireOutbound struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	server := flag.String("server", "http://localhost:8080", "chat server base URL")
	user := flag.String("user", "", "username")
	password := flag.String("password", "", "password")
	register := flag.Bool("register", false, "register the user before connecting")
	flag.Parse()

	if *user == "" || *password == "" {
		return errors.New("-user and -password are required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	endpoint := "/api/login"
	if *register {
		endpoint = "/api/register"
	}
	token, err := authenticate(ctx, *server+endpoint, *user, *password)
	if err != nil {
		return err
	}

	wsURL := strings.Replace(*server, "http", "ws", 1) + "/ws?token=" + token
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.CloseNow()

	fmt.Printf("Connected to %s as %s\n", *server, *user)
	fmt.Println("Type messages and press Enter. /delete <id>, /ban <user>, /unban <user>. Ctrl+C to exit.")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		defer cancel()
		readLoop(ctx, conn)
	}()

	writeLoop(ctx, conn)

	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	return nil
}

func authenticate(ctx context.Context, url, user, password string) (string, error) {
	body, err := json.Marshal(map[string]string{"username": user, "password": password})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("auth request: %w", err)
	}
	defer resp.Body.Close()

	var out struct {
		Token string `json:"token"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode auth response: %w", err)
	}
	if out.Token == "" {
		return "", fmt.Errorf("auth failed: %s (%d)", out.Error, resp.StatusCode)
	}
	return out.Token, nil
}

func readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var out wireOutbound
		if err := wsjson.Read(ctx, conn, &out); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				fmt.Println("connection closed by server")
				return
			}
			log.Printf("read error: %v", err)
			return
		}
		if out.Type == proto.OutboundTypeError && out.Error != nil {
			fmt.Printf("! %s: %s\n", out.Error.Code, out.Error.Msg)
			continue
		}
		printEvent(out)
	}
}

func printEvent(out wireOutbound) {
	switch out.Event {
	case proto.EventMessage:
		var msg proto.ChatMessage
		if json.Unmarshal(out.Data, &msg) == nil {
			printMessage(msg)
		}
	case proto.EventHistory:
		var page proto.EventHistoryData
		if json.Unmarshal(out.Data, &page) == nil {
			for _, msg := range page.Messages {
				printMessage(msg)
			}
		}
	case proto.EventMessageDeleted:
		var data proto.EventMessageDeletedData
		if json.Unmarshal(out.Data, &data) == nil {
			fmt.Printf("-- message #%d deleted\n", data.MessageID)
		}
	case proto.EventPresenceList:
		var data proto.EventPresenceData
		if json.Unmarshal(out.Data, &data) == nil {
			fmt.Printf("-- online: %s\n", strings.Join(data.Users, ", "))
		}
	case proto.EventUserTyping:
		var data proto.EventUserData
		if json.Unmarshal(out.Data, &data) == nil {
			fmt.Printf("-- %s is typing\n", data.User)
		}
	case proto.EventForceDisconnect:
		var data proto.EventForceDisconnectData
		if json.Unmarshal(out.Data, &data) == nil {
			fmt.Printf("-- disconnected: %s\n", data.Reason)
		}
	}
}

func printMessage(msg proto.ChatMessage) {
	ts := time.Unix(msg.TS, 0).Format("15:04")
	if msg.System {
		fmt.Printf("%s * %s\n", ts, msg.Text)
		return
	}
	fmt.Printf("%s #%d %s: %s\n", ts, msg.ID, msg.User, msg.Text)
}

func writeLoop(ctx context.Context, conn *websocket.Conn) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		data, err := json.Marshal(proto.MessageData{Text: text})
		if err != nil {
			log.Printf("marshal message: %v", err)
			continue
		}
		if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeMessage, Data: data}); err != nil {
			log.Printf("send failed: %v", err)
			return
		}
	}
	if err := scanner.Err(); err != nil {
		log.Printf("stdin error: %v", err)
	}
}

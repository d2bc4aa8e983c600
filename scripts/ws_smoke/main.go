package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"

	"github.com/vovakirdan/roomchat/internal/client"
	"github.com/vovakirdan/roomchat/internal/core"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	user := flag.String("user", "tester", "display name to log in with")
	room := flag.String("room", "smoke", "room to create and post to")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	chat := client.New(websocket.NetConn(ctx, conn, websocket.MessageText))
	defer chat.Close()

	if err := chat.Login(ctx, *user); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	fmt.Printf("Logged in as %s\n", *user)

	target := *room
	switch err := chat.CreateRoom(ctx, target, "smoke test room"); {
	case err == nil:
		fmt.Printf("Created room %s\n", target)
	case errors.Is(err, client.ErrRoomExists):
		if err := chat.Join(ctx, target); err != nil {
			return fmt.Errorf("join: %w", err)
		}
		fmt.Printf("Joined existing room %s\n", target)
	default:
		fmt.Printf("Create failed (%v), falling back to %s\n", err, core.DefaultRoom)
		target = core.DefaultRoom
	}

	rooms, err := chat.ListRooms(ctx)
	if err != nil {
		return fmt.Errorf("list rooms: %w", err)
	}
	for _, r := range rooms {
		fmt.Printf("Room: name=%s owner=%s description=%q\n", r.Name, r.Owner, r.Description)
	}

	if err := chat.Post(ctx, target, *text); err != nil {
		return fmt.Errorf("post: %w", err)
	}

	for {
		select {
		case p, ok := <-chat.Pushes():
			if !ok {
				return fmt.Errorf("connection closed before echo: %v", chat.Err())
			}
			fmt.Printf("Push: room=%s from=%s text=%q\n", p.Room, p.From, p.Text)
			if p.Room == target && p.From == *user && p.Text == *text {
				return nil
			}
		case <-ctx.Done():
			return fmt.Errorf("waiting for echo: %w", ctx.Err())
		}
	}
}

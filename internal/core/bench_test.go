package core

import (
	"context"
	"fmt"
	"testing"
)

func benchmarkRoomBroadcast(b *testing.B, recipients int) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	go hub.Run(ctx)

	login := func(c *Client, name string) {
		hub.RegisterClient(c)
		hub.Submit(c, &Command{Kind: CommandLogin, Name: name})
		<-c.Events
		hub.Submit(c, &Command{Kind: CommandJoinRoom, Room: "bench"})
		<-c.Events
	}

	sender := NewClient("sender", "sender", 64)
	hub.RegisterClient(sender)
	hub.Submit(sender, &Command{Kind: CommandLogin, Name: "sender"})
	<-sender.Events
	hub.Submit(sender, &Command{Kind: CommandCreateRoom, Room: "bench"})
	<-sender.Events

	clients := make([]*Client, 0, recipients)
	for i := 0; i < recipients; i++ {
		c := NewClient(fmt.Sprintf("c%d", i), "client", 64)
		login(c, fmt.Sprintf("user%d", i))
		clients = append(clients, c)
	}

	// Drain everyone except the target so no outbox overflows.
	target := clients[0]
	for _, c := range append(clients[1:], sender) {
		go func(cl *Client) {
			for range cl.Events {
			}
		}(c)
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		hub.Submit(sender, &Command{Kind: CommandPost, Room: "bench", Text: "payload"})
		<-target.Events
	}
}

func BenchmarkRoomBroadcast_10(b *testing.B)  { benchmarkRoomBroadcast(b, 10) }
func BenchmarkRoomBroadcast_100(b *testing.B) { benchmarkRoomBroadcast(b, 100) }
func BenchmarkRoomBroadcast_500(b *testing.B) { benchmarkRoomBroadcast(b, 500) }

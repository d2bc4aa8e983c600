package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/vovakirdan/roomchat/internal/client"
	"github.com/vovakirdan/roomchat/internal/core"
	"github.com/vovakirdan/roomchat/internal/social"
)

const requestTimeout = 10 * time.Second

var menuText = []string{
	"< 1 > Close the connection and quit.",
	"< 2 > List the logged in users.",
	"< 3 > Login.",
	"< 4 > List the rooms.",
	"< 5 > Post messages to a room.",
	"< 6 > Create a new room.",
	"< 7 > Join a room.",
	"< 8 > Leave a room.",
	"< 9 > Send a direct message.",
	"< T1 > List social direct messages.",
	"< T2 > List social followers.",
	"< T3 > Send a social direct message.",
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// menu is the interactive front end over one chat connection.
type menu struct {
	lines <-chan string
	out   io.Writer
	chat  *client.Client
	api   *social.Client

	// room is the room posts go to; it follows the last join or create.
	room string
	// timeout bounds each request, never the time spent typing.
	timeout time.Duration
}

func newMenu(in io.Reader, out io.Writer, chat *client.Client, api *social.Client) *menu {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- strings.TrimSpace(scanner.Text())
		}
	}()
	return &menu{
		lines:   lines,
		out:     &syncWriter{w: out},
		chat:    chat,
		api:     api,
		room:    core.DefaultRoom,
		timeout: requestTimeout,
	}
}

func (m *menu) printf(format string, args ...any) {
	fmt.Fprintf(m.out, format, args...)
}

func (m *menu) run(ctx context.Context) error {
	pushesDone := make(chan struct{})
	go func() {
		defer close(pushesDone)
		for p := range m.chat.Pushes() {
			m.printf("\n\n\t\tReceived Message: %s\n", p.Raw)
		}
	}()

	quit := false
	for !quit {
		m.printf("\n\n%s\n", strings.Join(menuText, "\n"))
		choice, ok := m.prompt(ctx, "\tchoice: ")
		if !ok {
			break
		}
		quit = m.dispatch(ctx, choice)
	}

	m.chat.Close()
	<-pushesDone
	m.printf("Disconnected.\n")
	return nil
}

// prompt reads one input line. ok is false when input ends or the session is over.
func (m *menu) prompt(ctx context.Context, label string) (string, bool) {
	m.printf("%s", label)
	select {
	case line, ok := <-m.lines:
		return line, ok
	case <-m.chat.Done():
		m.printf("\nConnection closed by server.\n")
		return "", false
	case <-ctx.Done():
		return "", false
	}
}

func (m *menu) dispatch(ctx context.Context, choice string) bool {
	switch strings.ToUpper(choice) {
	case "1":
		return true
	case "2":
		m.listUsers(ctx)
	case "3":
		m.login(ctx)
	case "4":
		m.listRooms(ctx)
	case "5":
		m.post(ctx)
	case "6":
		m.createRoom(ctx)
	case "7":
		m.join(ctx)
	case "8":
		m.leave(ctx)
	case "9":
		m.direct(ctx)
	case "T1":
		m.socialMessages(ctx)
	case "T2":
		m.socialFollowers(ctx)
	case "T3":
		m.socialSend(ctx)
	default:
		m.printf("Unknown choice %q.\n", choice)
	}
	return false
}

func (m *menu) requestCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, m.timeout)
}

func (m *menu) requireLogin(action string) bool {
	if m.chat.Name() == "" {
		m.printf("You are not logged in. Log in first to %s!\n", action)
		return false
	}
	return true
}

func (m *menu) listUsers(ctx context.Context) {
	rctx, cancel := m.requestCtx(ctx)
	users, err := m.chat.ListUsers(rctx)
	cancel()
	if err != nil {
		m.printf("Could not list users: %v\n", err)
		return
	}
	m.printf("Logged-in users: %s\n", strings.Join(users, ", "))
}

func (m *menu) login(ctx context.Context) {
	name, ok := m.prompt(ctx, "Enter login-name: ")
	if !ok {
		return
	}
	rctx, cancel := m.requestCtx(ctx)
	err := m.chat.Login(rctx, name)
	cancel()
	switch {
	case err == nil:
		m.printf("Logged-in as %s\n", name)
	case errors.Is(err, client.ErrLoginConflict):
		m.printf("Login name already exists, please pick another name.\n")
	default:
		m.printf("Error logging in, try again: %v\n", err)
	}
}

func (m *menu) listRooms(ctx context.Context) {
	rctx, cancel := m.requestCtx(ctx)
	rooms, err := m.chat.ListRooms(rctx)
	cancel()
	if err != nil {
		m.printf("Could not list rooms: %v\n", err)
		return
	}
	for _, r := range rooms {
		m.printf("\n\t\tName of Room (%s), Owner (%s): %s\n", r.Name, r.Owner, r.Description)
	}
}

func (m *menu) post(ctx context.Context) {
	if !m.requireLogin("post") {
		return
	}
	text, ok := m.prompt(ctx, fmt.Sprintf("enter your message for %s: ", m.room))
	if !ok {
		return
	}
	rctx, cancel := m.requestCtx(ctx)
	err := m.chat.Post(rctx, m.room, text)
	cancel()
	if err != nil {
		m.printf("There was an error posting a message: %v\n", err)
	}
}

func (m *menu) createRoom(ctx context.Context) {
	if !m.requireLogin("create a room") {
		return
	}
	room, ok := m.prompt(ctx, "Enter the name of the room: ")
	if !ok {
		return
	}
	description, ok := m.prompt(ctx, "Please give the room description: ")
	if !ok {
		return
	}
	rctx, cancel := m.requestCtx(ctx)
	err := m.chat.CreateRoom(rctx, room, description)
	cancel()
	switch {
	case err == nil:
		m.room = room
		m.printf("Room created\n")
	case errors.Is(err, client.ErrRoomExists):
		m.printf("Room already exists!\n")
	default:
		m.printf("There was an error creating your room: %v\n", err)
	}
}

func (m *menu) join(ctx context.Context) {
	if !m.requireLogin("join a room") {
		return
	}
	rctx, cancel := m.requestCtx(ctx)
	rooms, err := m.chat.ListRooms(rctx)
	cancel()
	if err == nil {
		for _, r := range rooms {
			m.printf("\n\t\tName of Room (%s)\n", r.Name)
		}
	}
	room, ok := m.prompt(ctx, "\nChoose a room to enter: ")
	if !ok {
		return
	}
	rctx, cancel = m.requestCtx(ctx)
	err = m.chat.Join(rctx, room)
	cancel()
	switch {
	case err == nil:
		m.room = room
		m.printf("Congratulations! You have joined the room successfully\n")
	case errors.Is(err, client.ErrRoomNotFound):
		m.printf("The room you are trying to join does not exist\n")
	default:
		m.printf("There was an error joining the room: %v\n", err)
	}
}

func (m *menu) leave(ctx context.Context) {
	if !m.requireLogin("leave a room") {
		return
	}
	room, ok := m.prompt(ctx, fmt.Sprintf("Room to leave [%s]: ", m.room))
	if !ok {
		return
	}
	if room == "" {
		room = m.room
	}
	rctx, cancel := m.requestCtx(ctx)
	err := m.chat.Leave(rctx, room)
	cancel()
	switch {
	case err == nil:
		if room == m.room {
			m.room = core.DefaultRoom
		}
		m.printf("Bye! You left the room successfully\n")
	case errors.Is(err, client.ErrNotMember):
		m.printf("You are not a member of that room\n")
	default:
		m.printf("There was a problem exiting the room: %v\n", err)
	}
}

func (m *menu) direct(ctx context.Context) {
	if !m.requireLogin("send a message") {
		return
	}
	rctx, cancel := m.requestCtx(ctx)
	users, err := m.chat.ListUsers(rctx)
	cancel()
	if err == nil {
		m.printf("\nThe logged-in users are: %s\n", strings.Join(users, ", "))
	}
	to, ok := m.prompt(ctx, "\nChoose a user to send a message to: ")
	if !ok {
		return
	}
	text, ok := m.prompt(ctx, "\nPlease enter a message to send: ")
	if !ok {
		return
	}
	rctx, cancel = m.requestCtx(ctx)
	err = m.chat.Direct(rctx, to, text)
	cancel()
	switch {
	case err == nil:
		m.printf("Your message has been sent\n")
	case errors.Is(err, client.ErrUnknownRecipient):
		m.printf("I am sorry, I do not recognize that user\n")
	default:
		m.printf("There was an error sending the message: %v\n", err)
	}
}

func (m *menu) requireSocial() bool {
	if !m.requireLogin("use the social API") {
		return false
	}
	if m.api == nil {
		m.printf("The social API is not configured.\n")
		return false
	}
	return true
}

func (m *menu) socialMessages(ctx context.Context) {
	if !m.requireSocial() {
		return
	}
	rctx, cancel := m.requestCtx(ctx)
	msgs, err := m.api.ListDirectMessages(rctx)
	cancel()
	if err != nil {
		m.printf("Something went wrong: %v\n", err)
		return
	}
	for _, msg := range msgs {
		m.printf("\t%s: %s\n", msg.ID, msg.Text)
	}
}

func (m *menu) socialFollowers(ctx context.Context) {
	if !m.requireSocial() {
		return
	}
	rctx, cancel := m.requestCtx(ctx)
	followers, err := m.api.ListFollowers(rctx)
	cancel()
	if err != nil {
		m.printf("Something went wrong: %v\n", err)
		return
	}
	for _, f := range followers {
		m.printf("\t@%s (%s)\n", f.ScreenName, f.Name)
	}
}

func (m *menu) socialSend(ctx context.Context) {
	if !m.requireSocial() {
		return
	}
	recipient, ok := m.prompt(ctx, "Recipient id: ")
	if !ok {
		return
	}
	text, ok := m.prompt(ctx, "Please type your message: ")
	if !ok {
		return
	}
	rctx, cancel := m.requestCtx(ctx)
	id, err := m.api.SendDirectMessage(rctx, recipient, text)
	cancel()
	if err != nil {
		m.printf("Something went wrong: %v\n", err)
		return
	}
	m.printf("Sent message %s\n", id)
}

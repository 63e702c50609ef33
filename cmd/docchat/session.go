package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"

	"docsearch-console/internal/entity"
	"docsearch-console/internal/service"
	"docsearch-console/pkg/chat"
	"docsearch-console/pkg/events"

	"github.com/fatih/color"
)

const helpText = `Commands:
  /new                 start a new conversation
  /list                list saved conversations
  /open <id|#n>        open a conversation (n from /list)
  /delete <id|#n>      delete a conversation
  /history             print the open conversation again
  /rag on|off          toggle document retrieval
  /main on|off         switch between the main and secondary backend
  /provider [name]     pick a provider, or the backend default without a name
  /providers           list the active providers of the current backend
  /retry               resend the last message that failed
  /settings            show the current session settings
  /events              show the latest session events
  /quit                leave
Anything else is sent as a message.`

var (
	promptColor    = color.New(color.FgHiBlue, color.Bold)
	assistantColor = color.New(color.FgGreen)
	userColor      = color.New(color.FgHiWhite)
	infoColor      = color.New(color.FgYellow)
	errorColor     = color.New(color.FgRed)
	faintColor     = color.New(color.Faint)
)

const maxRecentEvents = 20

type eventSource interface {
	Subscribe(ctx context.Context) (<-chan events.Event, error)
}

// session is one interactive chat view bound to a terminal. Turns are printed
// as the Store reports them, not from the send result.
type session struct {
	chat   service.IChatService
	bus    eventSource
	out    io.Writer
	failed string

	mu        sync.Mutex
	viewID    string
	shown     int
	listed    []entity.ConversationSummary
	listStale bool
	recent    []events.Event
}

func newSession(svc service.IChatService, bus eventSource, out io.Writer) *session {
	return &session{chat: svc, bus: bus, out: out}
}

// attach subscribes the view to the chat state. The returned func detaches it.
func (s *session) attach() func() {
	unsubscribe := s.chat.Subscribe(s.render)
	unsubscribeList := s.chat.SubscribeConversations(s.markListStale)
	return func() {
		unsubscribe()
		unsubscribeList()
	}
}

// watch records the events published on the bus until the returned func is called.
func (s *session) watch(ctx context.Context) (func(), error) {
	if s.bus == nil {
		return func() {}, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	stream, err := s.bus.Subscribe(ctx)
	if err != nil {
		cancel()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range stream {
			s.record(e)
		}
	}()
	return func() {
		cancel()
		<-done
	}, nil
}

func (s *session) run(ctx context.Context, in io.Reader) error {
	stopWatch, err := s.watch(ctx)
	if err != nil {
		return err
	}
	defer stopWatch()
	defer s.attach()()

	s.chat.Reset()
	infoColor.Fprintln(s.out, "New conversation. Type /help for commands.")

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		promptColor.Fprint(s.out, s.prompt())
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}

		quit, err := s.handle(ctx, scanner.Text())
		if err != nil {
			errorColor.Fprintf(s.out, "error: %v\n", err)
		}
		if quit || ctx.Err() != nil {
			return nil
		}
	}
}

func (s *session) prompt() string {
	id := s.chat.ActiveConversation()
	if id == "" {
		id = "new"
	}
	return fmt.Sprintf("[%s] > ", id)
}

// handle executes one input line. It reports whether the session should end.
func (s *session) handle(ctx context.Context, line string) (bool, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, nil
	}
	if !strings.HasPrefix(line, "/") {
		return false, s.send(ctx, line)
	}

	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/quit", "/exit":
		return true, nil
	case "/help":
		fmt.Fprintln(s.out, helpText)
	case "/new":
		s.chat.StartNew()
		s.failed = ""
		infoColor.Fprintln(s.out, "New conversation.")
	case "/list":
		items, err := s.chat.Conversations(ctx)
		if err != nil {
			return false, err
		}
		s.mu.Lock()
		s.listed = items
		s.listStale = false
		s.mu.Unlock()
		printConversations(s.out, items)
	case "/open":
		id, err := s.resolve(arg)
		if err != nil {
			return false, err
		}
		reopen := s.chat.ActiveConversation() == id
		if err := s.chat.Select(ctx, id); err != nil {
			return false, err
		}
		s.failed = ""
		if reopen {
			s.printHistory()
		}
	case "/delete":
		id, err := s.resolve(arg)
		if err != nil {
			return false, err
		}
		if err := s.chat.Delete(ctx, id); err != nil {
			return false, err
		}
		infoColor.Fprintf(s.out, "Deleted %s.\n", id)
	case "/history":
		s.printHistory()
	case "/rag":
		on, err := parseSwitch(arg)
		if err != nil {
			return false, err
		}
		s.chat.Settings().SetUseRetrieval(on)
		s.printSettings()
	case "/main":
		on, err := parseSwitch(arg)
		if err != nil {
			return false, err
		}
		settings := s.chat.Settings()
		if settings.Snapshot().UseMainBackend != on {
			// Provider names belong to one backend.
			settings.SetProvider("")
		}
		settings.SetUseMainBackend(on)
		s.printSettings()
	case "/provider":
		if err := s.pickProvider(ctx, arg); err != nil {
			return false, err
		}
		s.printSettings()
	case "/providers":
		providers, err := s.chat.Providers(ctx)
		if err != nil {
			return false, err
		}
		printProviders(s.out, providers, s.chat.Settings().Snapshot().ProviderName)
	case "/retry":
		if s.failed == "" {
			return false, fmt.Errorf("nothing to retry")
		}
		return false, s.send(ctx, s.failed)
	case "/settings":
		s.printSettings()
	case "/events":
		printEvents(s.out, s.recentEvents())
	default:
		return false, fmt.Errorf("unknown command %s, try /help", cmd)
	}
	return false, nil
}

func (s *session) send(ctx context.Context, text string) error {
	out, err := s.chat.Send(ctx, text)
	if err != nil {
		var failed *chat.SendFailedError
		if errors.As(err, &failed) {
			s.failed = failed.Text
			return fmt.Errorf("%w (use /retry to send it again)", err)
		}
		return err
	}
	s.failed = ""

	if out.Discarded {
		infoColor.Fprintf(s.out, "The answer arrived after you left that conversation; it is saved as %s.\n", out.ConversationID)
		return nil
	}
	provider := out.Provider
	if provider == "" {
		provider = "default"
	}
	if out.Promoted {
		faintColor.Fprintf(s.out, "via %s, saved as %s\n", provider, out.ConversationID)
		return nil
	}
	faintColor.Fprintf(s.out, "via %s\n", provider)
	return nil
}

// render prints the turns of snap the view has not shown yet. A draft that
// gets its id keeps the turns already on screen.
func (s *session) render(snap chat.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap.ConversationID != s.viewID {
		if s.viewID != "" {
			s.shown = 0
		}
		s.viewID = snap.ConversationID
	}
	if s.shown > len(snap.Messages) {
		s.shown = len(snap.Messages)
	}
	for _, msg := range snap.Messages[s.shown:] {
		printMessage(s.out, msg)
	}
	s.shown = len(snap.Messages)
}

func (s *session) markListStale() {
	s.mu.Lock()
	s.listStale = true
	s.mu.Unlock()
}

func (s *session) record(e events.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recent = append(s.recent, e)
	if len(s.recent) > maxRecentEvents {
		s.recent = s.recent[len(s.recent)-maxRecentEvents:]
	}
}

func (s *session) recentEvents() []events.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]events.Event(nil), s.recent...)
}

func (s *session) pickProvider(ctx context.Context, name string) error {
	if name == "" {
		s.chat.Settings().SetProvider("")
		return nil
	}

	providers, err := s.chat.Providers(ctx)
	if err != nil {
		return err
	}
	for _, p := range providers {
		if strings.EqualFold(p.Name, name) {
			s.chat.Settings().SetProvider(p.Name)
			return nil
		}
	}
	return fmt.Errorf("provider %q is not active on this backend", name)
}

// resolve accepts a conversation id or a #n index into the last /list.
func (s *session) resolve(arg string) (string, error) {
	if arg == "" {
		return "", fmt.Errorf("missing conversation id")
	}
	if !strings.HasPrefix(arg, "#") {
		return arg, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := strconv.Atoi(arg[1:])
	if err != nil || n < 1 || n > len(s.listed) {
		return "", fmt.Errorf("no conversation %s in the last /list", arg)
	}
	if s.listStale {
		return "", fmt.Errorf("the conversation list changed since /list, run it again")
	}
	return s.listed[n-1].ID, nil
}

func (s *session) printHistory() {
	snap := s.chat.History()
	if len(snap.Messages) == 0 {
		faintColor.Fprintln(s.out, "(no messages)")
		return
	}
	for _, msg := range snap.Messages {
		printMessage(s.out, msg)
	}
}

func (s *session) printSettings() {
	cfg := s.chat.Settings().Snapshot()
	backend := "main"
	if !cfg.UseMainBackend {
		backend = "secondary"
	}
	provider := cfg.ProviderName
	if provider == "" {
		provider = "default"
	}
	faintColor.Fprintf(s.out, "rag=%s backend=%s provider=%s\n", onOff(cfg.UseRetrievalAugmentation), backend, provider)
}

func parseSwitch(arg string) (bool, error) {
	switch strings.ToLower(arg) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", arg)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func printMessage(w io.Writer, msg entity.Message) {
	if msg.Role == "user" {
		userColor.Fprintf(w, "you: %s\n", msg.Content)
		return
	}

	assistantColor.Fprint(w, "assistant: ")
	fmt.Fprintln(w, msg.Content)
	for _, src := range msg.Sources {
		faintColor.Fprintf(w, "  - %s#%d (score %.2f)\n", src.DocumentID, src.ChunkIndex, src.Score)
	}
}

func printConversations(w io.Writer, items []entity.ConversationSummary) {
	if len(items) == 0 {
		faintColor.Fprintln(w, "(no conversations)")
		return
	}
	for i, c := range items {
		fmt.Fprintf(w, "#%-3d %-28s %s", i+1, c.ID, c.Title)
		if !c.UpdatedAt.IsZero() {
			faintColor.Fprintf(w, "  %s", c.UpdatedAt.Local().Format("2006-01-02 15:04"))
		}
		fmt.Fprintln(w)
	}
}

func printProviders(w io.Writer, providers []entity.Provider, selected string) {
	if len(providers) == 0 {
		faintColor.Fprintln(w, "(no active providers)")
		return
	}
	for _, p := range providers {
		marker := " "
		if p.Name == selected {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %-14s %s\n", marker, p.Name, p.ModelName)
	}
}

func printEvents(w io.Writer, recent []events.Event) {
	if len(recent) == 0 {
		faintColor.Fprintln(w, "(no events)")
		return
	}
	for _, e := range recent {
		payload := e.Payload()
		keys := make([]string, 0, len(payload))
		for k := range payload {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		faintColor.Fprintf(w, "%s ", e.Timestamp().Local().Format("15:04:05"))
		fmt.Fprintf(w, "%-28s", e.EventType())
		for _, k := range keys {
			fmt.Fprintf(w, " %s=%v", k, payload[k])
		}
		fmt.Fprintln(w)
	}
}

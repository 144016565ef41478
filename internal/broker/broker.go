// Package broker is the long-lived coordinator that owns the auth token
// source and relays change notifications to shelf views.
package broker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mmcdole/tubeshelf/internal/domain"
)

// Kind identifies a request type
type Kind string

const (
	GetAuthToken     Kind = "GET_AUTH_TOKEN"
	ClearAuthToken   Kind = "CLEAR_AUTH_TOKEN"
	PlaylistsUpdated Kind = "PLAYLISTS_UPDATED"
	Ping             Kind = "PING"
)

// TokenTimeout bounds how long Token waits for the coordinator
const TokenTimeout = 3 * time.Second

const (
	requestQueueSize = 16
	eventBufferSize  = 8
)

// ErrStopped is returned for requests sent after the broker stopped
var ErrStopped = errors.New("broker stopped")

// Message is one request to the coordinator
type Message struct {
	ID          string
	Kind        Kind
	Interactive bool // GET_AUTH_TOKEN only

	reply chan Response
}

// Response answers exactly one Message
type Response struct {
	ID    string
	OK    bool
	Token string
	Error string
}

// Event is delivered to subscribers when playlists change
type Event struct {
	ID   string
	Kind Kind
	At   time.Time
}

// Broker runs a single goroutine that serves requests in order.
// Every request gets a response, including failed ones.
type Broker struct {
	source       domain.TokenSource
	requests     chan Message
	done         chan struct{}
	tokenTimeout time.Duration
	logger       *slog.Logger

	mu          sync.Mutex
	subscribers map[string]chan Event
}

// Option configures a Broker
type Option func(*Broker)

// WithTokenTimeout overrides TokenTimeout
func WithTokenTimeout(d time.Duration) Option {
	return func(b *Broker) {
		if d > 0 {
			b.tokenTimeout = d
		}
	}
}

// New creates a broker. Call Run to start serving.
func New(source domain.TokenSource, logger *slog.Logger, opts ...Option) *Broker {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Broker{
		source:       source,
		requests:     make(chan Message, requestQueueSize),
		done:         make(chan struct{}),
		tokenTimeout: TokenTimeout,
		logger:       logger,
		subscribers:  make(map[string]chan Event),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run serves requests until ctx is cancelled, then closes every
// subscription.
func (b *Broker) Run(ctx context.Context) {
	defer func() {
		close(b.done)
		b.mu.Lock()
		for id, ch := range b.subscribers {
			close(ch)
			delete(b.subscribers, id)
		}
		b.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-b.requests:
			msg.reply <- b.handle(ctx, msg)
		}
	}
}

func (b *Broker) handle(ctx context.Context, msg Message) (resp Response) {
	resp = Response{ID: msg.ID}
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("broker handler panicked", "kind", msg.Kind, "id", msg.ID, "panic", r)
			resp = Response{ID: msg.ID, Error: fmt.Sprint(r)}
		}
	}()

	switch msg.Kind {
	case GetAuthToken:
		token, err := b.source.GetToken(ctx, msg.Interactive)
		if err != nil {
			resp.Error = err.Error()
			return resp
		}
		resp.OK, resp.Token = token != "", token
		if !resp.OK {
			resp.Error = domain.ErrNoToken.Error()
		}
	case ClearAuthToken:
		if err := b.source.SignOut(); err != nil {
			resp.Error = err.Error()
			return resp
		}
		resp.OK = true
	case PlaylistsUpdated:
		b.publish(Event{ID: msg.ID, Kind: PlaylistsUpdated, At: time.Now()})
		resp.OK = true
	case Ping:
		resp.OK = true
	default:
		resp.Error = fmt.Sprintf("unknown message kind %q", msg.Kind)
	}
	return resp
}

// Send delivers a request and waits for its response. The ID is filled in
// when empty.
func (b *Broker) Send(ctx context.Context, msg Message) (Response, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	msg.reply = make(chan Response, 1)

	select {
	case b.requests <- msg:
	case <-b.done:
		return Response{}, ErrStopped
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}

	select {
	case resp := <-msg.reply:
		return resp, nil
	case <-b.done:
		return Response{}, ErrStopped
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
}

// Token asks for a non-interactive token, waiting at most the token timeout.
// A timeout or any failure reads as domain.ErrNoToken.
func (b *Broker) Token(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, b.tokenTimeout)
	defer cancel()

	resp, err := b.Send(ctx, Message{Kind: GetAuthToken})
	if err != nil {
		b.logger.Warn("token request failed", "error", err)
		return "", fmt.Errorf("%w: %v", domain.ErrNoToken, err)
	}
	if !resp.OK {
		b.logger.Debug("no token available", "reason", resp.Error)
		return "", fmt.Errorf("%w: %s", domain.ErrNoToken, resp.Error)
	}
	return resp.Token, nil
}

// ClearToken signs the user out
func (b *Broker) ClearToken(ctx context.Context) error {
	return b.expectOK(ctx, ClearAuthToken)
}

// PlaylistsUpdated announces a selection or settings change to subscribers
func (b *Broker) PlaylistsUpdated(ctx context.Context) error {
	return b.expectOK(ctx, PlaylistsUpdated)
}

// Ping checks that the coordinator is serving
func (b *Broker) Ping(ctx context.Context) error {
	return b.expectOK(ctx, Ping)
}

func (b *Broker) expectOK(ctx context.Context, kind Kind) error {
	resp, err := b.Send(ctx, Message{Kind: kind})
	if err != nil {
		return err
	}
	if !resp.OK {
		return fmt.Errorf("%s: %s", kind, resp.Error)
	}
	return nil
}

// Subscribe registers for change events. The channel closes when the
// subscription is cancelled or the broker stops.
func (b *Broker) Subscribe() (<-chan Event, func()) {
	id := uuid.NewString()
	ch := make(chan Event, eventBufferSize)

	b.mu.Lock()
	select {
	case <-b.done:
		close(ch)
		b.mu.Unlock()
		return ch, func() {}
	default:
	}
	b.subscribers[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if c, ok := b.subscribers[id]; ok {
				close(c)
				delete(b.subscribers, id)
			}
		})
	}
}

// publish never blocks: a subscriber with a full buffer misses the event
func (b *Broker) publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subscribers {
		select {
		case ch <- ev:
		default:
			b.logger.Warn("subscriber not keeping up, dropping event", "subscriber", id, "event", ev.ID)
		}
	}
}

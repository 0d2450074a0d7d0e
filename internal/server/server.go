// Package server exposes hunt sessions to remote renderers over WebSocket.
package server

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/verte-zerg/huehunt/internal/generator"
	"github.com/verte-zerg/huehunt/internal/model"
	"github.com/verte-zerg/huehunt/internal/session"
)

const (
	actionBuffer    = 16
	writeTimeout    = 5 * time.Second
	shutdownTimeout = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Options configures the sessions created for each connection.
type Options struct {
	Params generator.Params
	// Seed seeds each connection's generator; 0 seeds from the clock.
	Seed         int64
	Mode         string
	Ledger       session.Ledger
	Picker       generator.ColorPicker
	TickInterval time.Duration
	AdvanceDelay time.Duration
}

// Server runs one session per WebSocket connection. Every session call and
// every write for a connection happens on that connection's loop goroutine.
type Server struct {
	opts  Options
	conns sync.WaitGroup
}

// New constructs a server.
func New(opts Options) *Server {
	if opts.TickInterval <= 0 {
		opts.TickInterval = session.DefaultTickInterval
	}
	if opts.AdvanceDelay <= 0 {
		opts.AdvanceDelay = session.PresentationDelay
	}
	if opts.Mode == "" {
		opts.Mode = model.ModeHead
	}
	return &Server{opts: opts}
}

// Handler returns the HTTP handler serving /ws.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	return mux
}

// ListenAndServe listens on addr and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled. Open sessions are
// closed and their loops have exited by the time Serve returns.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler: s.Handler(),
		// Hijacked connections outlive Shutdown; their loops stop with ctx.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	log.Printf("huehunt server listening on %s\n", ln.Addr())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		s.conns.Wait()
		return err
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.conns.Add(1)
	defer s.conns.Done()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("upgrade error:", err)
		return
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			// Best-effort connection close.
			_ = cerr
		}
	}()
	log.Println("new connection from:", r.RemoteAddr)

	actions := make(chan ClientMessage, actionBuffer)
	done := make(chan struct{})
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		defer close(done)
		for {
			var msg ClientMessage
			if err := conn.ReadJSON(&msg); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Println("read error:", err)
				}
				return
			}
			select {
			case actions <- msg:
			case <-stop:
				return
			}
		}
	}()

	c := newConnection(conn, s.newSession(), s.opts)
	if err := c.run(r.Context(), actions, done); err != nil {
		log.Println("write error:", err)
	}
}

func (s *Server) newSession() *session.Session {
	seed := s.opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return session.New(session.Options{
		Generator: generator.NewWithSeed(s.opts.Params, seed),
		Mode:      s.opts.Mode,
		Ledger:    s.opts.Ledger,
		Picker:    s.opts.Picker,
		Logf:      log.Printf,
	})
}

// connection owns one session and its socket writes.
type connection struct {
	conn     *websocket.Conn
	sess     *session.Session
	opts     Options
	lastTick time.Time
	advance  *time.Timer
}

func newConnection(conn *websocket.Conn, sess *session.Session, opts Options) *connection {
	return &connection{conn: conn, sess: sess, opts: opts}
}

func (c *connection) run(ctx context.Context, actions <-chan ClientMessage, done <-chan struct{}) error {
	ticker := time.NewTicker(c.opts.TickInterval)
	defer ticker.Stop()
	defer c.stopAdvance()

	if err := c.write(stateMessage(c.sess.Snapshot())); err != nil {
		return err
	}
	for {
		var advanceC <-chan time.Time
		if c.advance != nil {
			advanceC = c.advance.C
		}
		select {
		case <-ctx.Done():
			closing := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
			if err := c.conn.WriteControl(websocket.CloseMessage, closing, time.Now().Add(writeTimeout)); err != nil {
				// Best-effort close frame; the socket is closed regardless.
				_ = err
			}
			return nil
		case <-done:
			return nil
		case now := <-ticker.C:
			if err := c.tick(now); err != nil {
				return err
			}
		case <-advanceC:
			c.advance = nil
			if err := c.send(c.sess.Advance()); err != nil {
				return err
			}
		case msg := <-actions:
			if err := c.handle(msg); err != nil {
				return err
			}
		}
	}
}

func (c *connection) tick(now time.Time) error {
	if c.sess.State() != session.InProgress {
		c.lastTick = time.Time{}
		return nil
	}
	delta := c.opts.TickInterval.Seconds()
	if !c.lastTick.IsZero() {
		delta = now.Sub(c.lastTick).Seconds()
	}
	c.lastTick = now
	return c.send(c.sess.Tick(delta))
}

func (c *connection) handle(msg ClientMessage) error {
	switch msg.Action {
	case ActionStart:
		d, err := model.ParseDifficulty(msg.Difficulty)
		if err != nil {
			return c.write(ServerMessage{Type: TypeError, Error: err.Error()})
		}
		c.stopAdvance()
		c.lastTick = time.Time{}
		return c.send(c.sess.Start(d))
	case ActionPlace:
		var anchor model.Vec3
		if msg.Anchor != nil {
			anchor = *msg.Anchor
		}
		c.lastTick = time.Time{}
		return c.send(c.sess.Place(anchor, msg.Vertical))
	case ActionTap:
		return c.send(c.sess.Tap(msg.ID))
	case ActionReset:
		c.stopAdvance()
		return c.send(c.sess.Reset())
	default:
		return c.write(ServerMessage{Type: TypeError, Error: "unknown action " + msg.Action})
	}
}

// send writes effects in order and schedules the delayed advance after a
// cleared level.
func (c *connection) send(effects []session.Effect) error {
	for _, eff := range effects {
		if _, ok := eff.(session.LevelCleared); ok {
			c.stopAdvance()
			c.advance = time.NewTimer(c.opts.AdvanceDelay)
		}
		msg, ok := effectMessage(eff)
		if !ok {
			continue
		}
		if err := c.write(msg); err != nil {
			return err
		}
	}
	return nil
}

func (c *connection) write(msg ServerMessage) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return c.conn.WriteJSON(msg)
}

func (c *connection) stopAdvance() {
	if c.advance != nil {
		c.advance.Stop()
		c.advance = nil
	}
}

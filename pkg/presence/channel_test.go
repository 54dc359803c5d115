package presence

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collabboard/collabboard/pkg/models"
)

// stubTimer replaces afterFunc so tests control when a scheduled
// reconnect fires, and records every scheduled delay.
type stubTimer struct {
	mu     sync.Mutex
	delays []time.Duration
	next   func()
}

func (s *stubTimer) afterFunc(d time.Duration, f func()) *time.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	s.next = f
	return time.NewTimer(time.Hour)
}

func (s *stubTimer) fire() {
	s.mu.Lock()
	f := s.next
	s.mu.Unlock()
	f()
}

func (s *stubTimer) scheduled() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

// newWSTestServer upgrades every request and parks the connection,
// collecting whatever the client sends.
func newWSTestServer(t *testing.T) (*httptest.Server, *receivedFrames) {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	frames := &receivedFrames{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		frames.setConn(conn)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			frames.add(data)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, frames
}

type receivedFrames struct {
	mu     sync.Mutex
	frames [][]byte
	conn   *websocket.Conn
}

func (r *receivedFrames) setConn(c *websocket.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conn = c
}

func (r *receivedFrames) add(data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, data)
}

func (r *receivedFrames) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

func (r *receivedFrames) closeConn() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn != nil {
		r.conn.Close()
	}
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func TestReconnectBackoffDoublesAndCaps(t *testing.T) {
	timer := &stubTimer{}
	c := NewChannel("ws://relay.invalid/ws")
	c.afterFunc = timer.afterFunc
	c.dial = func(string) (*websocket.Conn, error) {
		return nil, errors.New("connection refused")
	}

	c.connect()
	for i := 0; i < 7; i++ {
		timer.fire()
	}

	want := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		30 * time.Second,
		30 * time.Second,
		30 * time.Second,
	}
	assert.Equal(t, want, timer.scheduled())
	assert.Equal(t, StateDisconnected, c.State())
}

func TestBackoffResetsAfterSuccessfulConnect(t *testing.T) {
	srv, frames := newWSTestServer(t)

	timer := &stubTimer{}
	c := NewChannel(wsURL(srv))
	c.afterFunc = timer.afterFunc
	defer c.Disconnect()

	// Fail a few times first to grow the delay.
	realDial := c.dial
	c.dial = func(string) (*websocket.Conn, error) {
		return nil, errors.New("connection refused")
	}
	c.connect()
	timer.fire()
	timer.fire()
	require.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, timer.scheduled())

	// Now let the dial succeed.
	c.dial = realDial
	timer.fire()
	require.Eventually(t, func() bool {
		return c.State() == StateConnected
	}, 2*time.Second, 10*time.Millisecond)

	// Kill the connection server-side; the next scheduled delay must be
	// back at the start of the schedule.
	frames.closeConn()
	require.Eventually(t, func() bool {
		return len(timer.scheduled()) == 5
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, time.Second, timer.scheduled()[4])
}

func TestDisconnectCancelsPendingReconnect(t *testing.T) {
	timer := &stubTimer{}
	attempts := 0
	c := NewChannel("ws://relay.invalid/ws")
	c.afterFunc = timer.afterFunc
	c.dial = func(string) (*websocket.Conn, error) {
		attempts++
		return nil, errors.New("connection refused")
	}

	c.connect()
	require.Equal(t, 1, attempts)
	require.Len(t, timer.scheduled(), 1)

	c.Disconnect()

	// Simulate the armed timer going off after the fact anyway; the
	// closed channel must not dial again.
	timer.fire()
	assert.Equal(t, 1, attempts)
	assert.Equal(t, StateDisconnected, c.State())

	// Nothing new gets scheduled either.
	assert.Len(t, timer.scheduled(), 1)
}

func TestDisconnectRacingDialDropsFreshConnection(t *testing.T) {
	srv, _ := newWSTestServer(t)

	dialed := make(chan struct{})
	release := make(chan struct{})
	c := NewChannel(wsURL(srv))
	realDial := c.dial
	c.dial = func(url string) (*websocket.Conn, error) {
		close(dialed)
		<-release
		return realDial(url)
	}

	go c.connect()
	<-dialed
	c.Disconnect()
	close(release)

	// The dial completes after Disconnect; the channel must stay down.
	assert.Never(t, func() bool {
		return c.State() == StateConnected
	}, 200*time.Millisecond, 20*time.Millisecond)
}

func TestSendIsNoOpWhenDisconnected(t *testing.T) {
	c := NewChannel("ws://relay.invalid/ws")

	// Must not panic or block.
	c.SendCursorPosition(models.CursorPosition{UserID: "u1", X: 1, Y: 2})
	c.SendCursorLeave("u1")
}

func TestSendCursorPositionReachesRelay(t *testing.T) {
	srv, frames := newWSTestServer(t)

	c := NewChannel(wsURL(srv))
	c.Connect()
	defer c.Disconnect()

	require.Eventually(t, func() bool {
		return c.State() == StateConnected
	}, 2*time.Second, 10*time.Millisecond)

	c.SendCursorPosition(models.CursorPosition{UserID: "u1", UserName: "Alice", X: 10, Y: 20, Timestamp: 123})
	c.SendCursorLeave("u1")

	require.Eventually(t, func() bool {
		return frames.count() == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSendIntervalThrottles(t *testing.T) {
	srv, frames := newWSTestServer(t)

	c := NewChannel(wsURL(srv), WithSendInterval(time.Hour))
	c.Connect()
	defer c.Disconnect()

	require.Eventually(t, func() bool {
		return c.State() == StateConnected
	}, 2*time.Second, 10*time.Millisecond)

	for i := 0; i < 5; i++ {
		c.SendCursorPosition(models.CursorPosition{UserID: "u1", X: float64(i)})
	}

	require.Eventually(t, func() bool {
		return frames.count() == 1
	}, 2*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, frames.count())
}

func TestHandleMessageDispatch(t *testing.T) {
	c := NewChannel("ws://relay.invalid/ws")

	var gotCursor models.CursorPosition
	var gotLeave string
	c.OnMessage(
		func(cur models.CursorPosition) { gotCursor = cur },
		func(userID string) { gotLeave = userID },
	)

	move, err := EncodeCursorMove(models.CursorPosition{UserID: "u2", UserName: "Bob", X: 3, Y: 4, Color: "#FF6B6B", Timestamp: 99})
	require.NoError(t, err)
	c.handleMessage(move)
	assert.Equal(t, "u2", gotCursor.UserID)
	assert.Equal(t, "Bob", gotCursor.UserName)
	assert.Equal(t, 3.0, gotCursor.X)
	assert.Equal(t, int64(99), gotCursor.Timestamp)

	leave, err := EncodeCursorLeave("u2")
	require.NoError(t, err)
	c.handleMessage(leave)
	assert.Equal(t, "u2", gotLeave)
}

func TestHandleMessageDropsMalformed(t *testing.T) {
	c := NewChannel("ws://relay.invalid/ws")

	called := false
	c.OnMessage(
		func(models.CursorPosition) { called = true },
		func(string) { called = true },
	)

	c.handleMessage([]byte("not json at all"))
	c.handleMessage([]byte(`{"type":"cursor_move","data":"not an object"}`))
	c.handleMessage([]byte(`{"type":"board_sync","data":{}}`))

	assert.False(t, called)
}

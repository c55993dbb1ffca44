package runner

import (
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"

	"github.com/halverson/marionette/internal/model"
)

// ConnLink is a Link over a single net.Conn to an animator process. A read
// loop dispatches finished frames into the orchestrator's token registry and
// reports peer loss when the connection drops.
type ConnLink struct {
	conn    net.Conn
	acks    Acker
	logger  *slog.Logger
	deaths  *DeathWatcher
	writeMu sync.Mutex
	closed  sync.Once
}

// NewConnLink wraps conn and starts its read loop. The acks registry
// receives every finished acknowledgement sent by the animator.
func NewConnLink(conn net.Conn, acks Acker, logger *slog.Logger) *ConnLink {
	l := &ConnLink{
		conn:   conn,
		acks:   acks,
		logger: logger,
		deaths: NewDeathWatcher(),
	}
	go l.readLoop()
	return l
}

// StartAnimation sends the target batch to the animator.
func (l *ConnLink) StartAnimation(app, aux []*model.Target, token string) error {
	return l.write(&Frame{
		Type: FrameStart,
		Start: &StartPayload{
			Token: token,
			App:   app,
			Aux:   aux,
		},
	})
}

// CancelAnimation notifies the animator that the batch was canceled.
func (l *ConnLink) CancelAnimation() error {
	return l.write(&Frame{Type: FrameCancel})
}

// Watch subscribes to loss of the animator connection.
func (l *ConnLink) Watch(fn func()) SubID {
	return l.deaths.Subscribe(fn)
}

// Unwatch cancels a liveness subscription.
func (l *ConnLink) Unwatch(id SubID) {
	l.deaths.Unsubscribe(id)
}

// Close tears the connection down. The read loop then reports peer loss.
func (l *ConnLink) Close() error {
	var err error
	l.closed.Do(func() {
		err = l.conn.Close()
	})
	return err
}

func (l *ConnLink) write(f *Frame) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	return WriteFrame(l.conn, f)
}

// readLoop consumes animator frames until the connection drops. Finished
// acknowledgements run on this goroutine; the token registry serializes them
// against the orchestrator lock before any state changes.
func (l *ConnLink) readLoop() {
	defer l.deaths.NotifyDeath()

	for {
		f, err := ReadFrame(l.conn)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				l.logger.Warn("animator connection lost", "error", err)
			}
			return
		}

		switch f.Type {
		case FrameFinished:
			if !l.acks.Dispatch(f.Token) {
				l.logger.Debug("stale finished acknowledgement ignored", "token", f.Token)
			}
		default:
			l.logger.Warn("unexpected frame from animator", "type", f.Type)
		}
	}
}

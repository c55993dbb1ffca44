// Command puppet is a reference animator. It connects to the orchestrator's
// animator socket, receives batches of leashed surfaces, plays a simple
// eased slide-in for each target, and acknowledges completion with the
// batch token.
//
// It exists for local development and end-to-end testing; a production
// animator would drive a real compositor instead of logging frames.
package main

import (
	"context"
	"log"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/fogleman/ease"

	"github.com/halverson/marionette/internal/model"
	"github.com/halverson/marionette/internal/runner"
)

const (
	defaultSocketPath = "/tmp/marionette.sock"
	defaultDurationMS = 300
	frameInterval     = 16 * time.Millisecond // ~60fps

	envSocketPath = "PUPPET_SOCKET_PATH"
	envDurationMS = "PUPPET_DURATION_MS"
	envVsockCID   = "PUPPET_VSOCK_CID"
	envVsockPort  = "PUPPET_VSOCK_PORT"
)

func main() {
	socketPath := defaultSocketPath
	if v := os.Getenv(envSocketPath); v != "" {
		socketPath = v
	}

	duration := time.Duration(defaultDurationMS) * time.Millisecond
	if v := os.Getenv(envDurationMS); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			duration = time.Duration(ms) * time.Millisecond
		}
	}

	conn, err := dial(socketPath)
	if err != nil {
		log.Fatalf("connect to orchestrator: %v", err)
	}
	defer conn.Close()

	log.Printf("puppet connected to %s", conn.RemoteAddr())

	p := &puppet{conn: conn, duration: duration}
	if err := p.serve(); err != nil {
		log.Fatalf("serve: %v", err)
	}
}

// dial connects over vsock when PUPPET_VSOCK_CID is set, otherwise over the
// unix socket.
func dial(socketPath string) (net.Conn, error) {
	if v := os.Getenv(envVsockCID); v != "" {
		cid, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			log.Fatalf("invalid %s: %v", envVsockCID, err)
		}
		port := uint64(9000)
		if pv := os.Getenv(envVsockPort); pv != "" {
			port, err = strconv.ParseUint(pv, 10, 32)
			if err != nil {
				log.Fatalf("invalid %s: %v", envVsockPort, err)
			}
		}
		return runner.DialVsock(uint32(cid), uint32(port))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return runner.DialUnix(ctx, socketPath)
}

// puppet reads frames from the orchestrator and plays one batch at a time.
type puppet struct {
	conn     net.Conn
	duration time.Duration

	writeMu sync.Mutex

	mu         sync.Mutex
	cancelPlay context.CancelFunc
}

func (p *puppet) serve() error {
	for {
		f, err := runner.ReadFrame(p.conn)
		if err != nil {
			return err
		}

		switch f.Type {
		case runner.FrameStart:
			if f.Start == nil {
				log.Printf("start frame without payload, ignoring")
				continue
			}
			p.startBatch(f.Start)
		case runner.FrameCancel:
			p.cancelBatch()
		default:
			log.Printf("unknown frame type %q, ignoring", f.Type)
		}
	}
}

// startBatch begins playing a batch. A batch already in flight is abandoned;
// the orchestrator never overlaps batches on one link, so this is defensive
// only.
func (p *puppet) startBatch(start *runner.StartPayload) {
	ctx, cancel := context.WithCancel(context.Background())

	p.mu.Lock()
	if p.cancelPlay != nil {
		p.cancelPlay()
	}
	p.cancelPlay = cancel
	p.mu.Unlock()

	log.Printf("starting batch token=%s app=%d aux=%d", start.Token, len(start.App), len(start.Aux))

	go func() {
		targets := make([]*model.Target, 0, len(start.App)+len(start.Aux))
		targets = append(targets, start.App...)
		targets = append(targets, start.Aux...)

		if !p.play(ctx, targets) {
			log.Printf("batch token=%s canceled", start.Token)
			return
		}

		if err := p.writeFinished(start.Token); err != nil {
			log.Printf("send finished for token=%s: %v", start.Token, err)
			return
		}
		log.Printf("batch token=%s finished", start.Token)
	}()
}

func (p *puppet) cancelBatch() {
	p.mu.Lock()
	if p.cancelPlay != nil {
		p.cancelPlay()
		p.cancelPlay = nil
	}
	p.mu.Unlock()
}

// play runs the animation loop for all targets, slides each one from
// off-screen left to its final position with an eased curve. It reports
// whether the animation ran to completion.
func (p *puppet) play(ctx context.Context, targets []*model.Target) bool {
	starts := make([]model.Point, len(targets))
	for i, t := range targets {
		starts[i] = model.Point{X: t.Position.X - t.Bounds.Width(), Y: t.Position.Y}
		if t.StartBounds != nil {
			starts[i] = model.Point{X: t.StartBounds.Left, Y: t.StartBounds.Top}
		}
	}

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	begin := time.Now()
	for {
		select {
		case <-ctx.Done():
			return false
		case now := <-ticker.C:
			progress := float64(now.Sub(begin)) / float64(p.duration)
			if progress >= 1.0 {
				for _, t := range targets {
					log.Printf("frame leash=%s x=%d y=%d", t.Leash.ID, t.Position.X, t.Position.Y)
				}
				return true
			}

			eased := ease.OutCubic(progress)
			for i, t := range targets {
				x := starts[i].X + int32(eased*float64(t.Position.X-starts[i].X))
				y := starts[i].Y + int32(eased*float64(t.Position.Y-starts[i].Y))
				log.Printf("frame leash=%s x=%d y=%d", t.Leash.ID, x, y)
			}
		}
	}
}

func (p *puppet) writeFinished(token string) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	return runner.WriteFrame(p.conn, &runner.Frame{Type: runner.FrameFinished, Token: token})
}

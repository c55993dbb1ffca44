// Package proc tracks per-process control records. Scheduling collaborators
// read the running-remote-animation flag to boost the animating process.
package proc

import (
	"log/slog"
	"sync"
)

type key struct {
	pid int
	uid int
}

// Record is the control record for one remote process.
type Record struct {
	PID int
	UID int

	mu                     sync.Mutex
	runningRemoteAnimation bool
}

// SetRunningRemoteAnimation flags whether the process is currently driving a
// remote animation.
func (r *Record) SetRunningRemoteAnimation(running bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runningRemoteAnimation = running
}

// RunningRemoteAnimation reports whether the process is currently driving a
// remote animation.
func (r *Record) RunningRemoteAnimation() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runningRemoteAnimation
}

// Controller is the registry of known process records.
type Controller struct {
	mu     sync.Mutex
	logger *slog.Logger
	procs  map[key]*Record
}

// NewController creates an empty process registry.
func NewController(logger *slog.Logger) *Controller {
	return &Controller{
		logger: logger,
		procs:  make(map[key]*Record),
	}
}

// Register adds (or returns the existing) record for the process.
func (c *Controller) Register(pid, uid int) *Record {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := key{pid: pid, uid: uid}
	if r, ok := c.procs[k]; ok {
		return r
	}
	r := &Record{PID: pid, UID: uid}
	c.procs[k] = r
	return r
}

// Lookup returns the record for the process, or nil if it was never
// registered.
func (c *Controller) Lookup(pid, uid int) *Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.procs[key{pid: pid, uid: uid}]
}

// Unregister removes the record for the process.
func (c *Controller) Unregister(pid, uid int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.procs, key{pid: pid, uid: uid})
}

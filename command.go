package ngl

import (
	"runtime"
)

// worker executes commands posted by the controller, one at a time, on a
// goroutine locked to its OS thread. Every graph and GPU operation runs
// here.
func (c *Context) worker() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(c.exited)

	for fn := range c.cmd {
		c.ret <- fn()
	}
}

// exec posts fn to the worker and blocks until it returns.
//
// The mutex guards the command slot only: at most one command is in flight
// and commands complete in the order they were posted.
func (c *Context) exec(fn func() error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.cmd <- fn
	return <-c.ret
}

// shutdown runs fn as the last command, then stops the worker.
func (c *Context) shutdown(fn func() error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.cmd <- fn
	err := <-c.ret
	c.closed = true
	close(c.cmd)
	<-c.exited
	return err
}

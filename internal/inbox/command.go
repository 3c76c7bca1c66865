package inbox

import "context"

// Command is an optimistic mutation: Apply changes local state at once,
// Remote confirms it with the server, and Revert undoes Apply when Remote
// fails. Apply and Revert run under the inbox lock.
type Command struct {
	Name string
	// FailureMessage is shown to the user when Remote fails.
	FailureMessage string
	Apply          func(s *State)
	Revert         func(s *State)
	Remote         func(ctx context.Context) error
}

// Pending tracks the remote half of an executed command.
type Pending struct {
	done chan struct{}
	err  error
}

func newPending() *Pending { return &Pending{done: make(chan struct{})} }

func (p *Pending) finish(err error) {
	p.err = err
	close(p.done)
}

// Done is closed once the remote call and any rollback have finished.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Wait blocks until the command settles and returns the remote error, if
// any. The local state has already been rolled back when it returns an
// error.
func (p *Pending) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// settled returns an already finished Pending.
func settled(err error) *Pending {
	p := newPending()
	p.finish(err)
	return p
}

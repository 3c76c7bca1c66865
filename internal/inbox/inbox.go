// Package inbox keeps the admin's local view of contact submissions in
// sync with the server using optimistic commands.
package inbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/folio/backend/internal/client"
	"github.com/folio/backend/internal/model"
)

var (
	// ErrNotAdmin is returned by Load when the session lacks the admin capability.
	ErrNotAdmin = errors.New("inbox: admin capability required")
	// ErrUnknownSubmission is returned for ids not in the local list.
	ErrUnknownSubmission = errors.New("inbox: unknown submission")
	// ErrNothingSelected is returned by DeleteSelected with an empty selection.
	ErrNothingSelected = errors.New("inbox: nothing selected")
)

const defaultRemoteTimeout = 30 * time.Second

// API is the part of the server API the inbox needs.
type API interface {
	ListSubmissions(ctx context.Context) ([]*model.Submission, error)
	UpdateSubmission(ctx context.Context, id string, upd model.SubmissionUpdate) error
	DeleteSubmissions(ctx context.Context, ids []string) error
}

// Inbox is safe for concurrent use.
type Inbox struct {
	api      API
	authz    *client.AuthContext
	notifier Notifier
	logger   *slog.Logger
	timeout  time.Duration

	mu    sync.Mutex
	state State
	query string
	wg    sync.WaitGroup
}

// New creates an empty Inbox. Call Load to fetch submissions.
func New(api API, authz *client.AuthContext, notifier Notifier, logger *slog.Logger) *Inbox {
	if logger == nil {
		logger = slog.Default()
	}
	if notifier == nil {
		notifier = LogNotifier{Logger: logger}
	}
	return &Inbox{
		api:      api,
		authz:    authz,
		notifier: notifier,
		logger:   logger.With("component", "inbox"),
		timeout:  defaultRemoteTimeout,
		state:    State{Selected: map[string]bool{}},
	}
}

// SetRemoteTimeout bounds each background API call.
func (i *Inbox) SetRemoteTimeout(d time.Duration) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.timeout = d
}

// Load replaces the local list with the server's. It refuses to call the
// API without the admin capability.
func (i *Inbox) Load(ctx context.Context) error {
	if !i.authz.Can(client.CapabilityAdmin) {
		return ErrNotAdmin
	}
	subs, err := i.api.ListSubmissions(ctx)
	if err != nil {
		return fmt.Errorf("load submissions: %w", err)
	}

	items := make([]model.Submission, 0, len(subs))
	for _, s := range subs {
		if s != nil {
			items = append(items, *s)
		}
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	i.state.Items = items
	present := make(map[string]bool, len(items))
	for _, it := range items {
		present[it.ID] = true
	}
	for id := range i.state.Selected {
		if !present[id] {
			delete(i.state.Selected, id)
		}
	}
	if !present[i.state.OpenID] {
		i.state.OpenID = ""
	}
	return nil
}

// Execute applies cmd locally, then runs its remote half in the
// background. On failure the command is reverted and a notification is
// raised.
func (i *Inbox) Execute(ctx context.Context, cmd Command) *Pending {
	i.mu.Lock()
	cmd.Apply(&i.state)
	timeout := i.timeout
	i.mu.Unlock()

	p := newPending()
	i.wg.Add(1)
	go func() {
		defer i.wg.Done()
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()

		err := cmd.Remote(rctx)
		if err != nil {
			i.mu.Lock()
			cmd.Revert(&i.state)
			i.mu.Unlock()

			i.logger.Warn("remote change failed, reverted", "command", cmd.Name, "error", err)
			i.notifier.Notify(Notification{Level: LevelError, Message: cmd.FailureMessage, Err: err})
		}
		p.finish(err)
	}()
	return p
}

// Wait blocks until every command issued so far has settled.
func (i *Inbox) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		i.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// MarkRead sets the read flag of one submission.
func (i *Inbox) MarkRead(ctx context.Context, id string, read bool) *Pending {
	i.mu.Lock()
	idx := i.state.index(id)
	var prev bool
	if idx >= 0 {
		prev = i.state.Items[idx].IsRead
	}
	i.mu.Unlock()
	if idx < 0 {
		return settled(ErrUnknownSubmission)
	}

	setRead := func(v bool) func(*State) {
		return func(s *State) {
			if j := s.index(id); j >= 0 {
				s.Items[j].IsRead = v
			}
		}
	}
	msg := "Could not mark the message as read."
	if !read {
		msg = "Could not mark the message as unread."
	}
	return i.Execute(ctx, Command{
		Name:           "mark_read",
		FailureMessage: msg,
		Apply:          setRead(read),
		Revert:         setRead(prev),
		Remote: func(ctx context.Context) error {
			return i.api.UpdateSubmission(ctx, id, model.SubmissionUpdate{IsRead: &read})
		},
	})
}

// Delete removes ids locally and then on the server in one batch. A failed
// batch restores every removed record.
func (i *Inbox) Delete(ctx context.Context, ids ...string) *Pending {
	set := make(map[string]bool, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || set[id] {
			continue
		}
		set[id] = true
		unique = append(unique, id)
	}
	if len(unique) == 0 {
		return settled(ErrNothingSelected)
	}

	var removed []model.Submission
	var wasOpen string
	wasSelected := map[string]bool{}
	return i.Execute(ctx, Command{
		Name:           "delete",
		FailureMessage: fmt.Sprintf("Could not delete %d message(s); they have been restored.", len(unique)),
		Apply: func(s *State) {
			for id := range set {
				if s.Selected[id] {
					wasSelected[id] = true
				}
			}
			if set[s.OpenID] {
				wasOpen = s.OpenID
			}
			removed = s.remove(set)
		},
		Revert: func(s *State) {
			s.restore(removed)
			for id := range wasSelected {
				s.Selected[id] = true
			}
			if wasOpen != "" && s.OpenID == "" {
				s.OpenID = wasOpen
			}
		},
		Remote: func(ctx context.Context) error {
			return i.api.DeleteSubmissions(ctx, unique)
		},
	})
}

// DeleteSelected deletes the current selection.
func (i *Inbox) DeleteSelected(ctx context.Context) *Pending {
	return i.Delete(ctx, i.Selected()...)
}

// Open shows a submission in the detail view and marks it read. The
// returned Pending is nil when nothing needed to be sent.
func (i *Inbox) Open(ctx context.Context, id string) (*Pending, error) {
	i.mu.Lock()
	idx := i.state.index(id)
	if idx < 0 {
		i.mu.Unlock()
		return nil, ErrUnknownSubmission
	}
	i.state.OpenID = id
	unread := !i.state.Items[idx].IsRead
	i.mu.Unlock()

	if !unread {
		return nil, nil
	}
	return i.MarkRead(ctx, id, true), nil
}

// CloseDetail clears the detail view.
func (i *Inbox) CloseDetail() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.state.OpenID = ""
}

// OpenSubmission returns the record in the detail view.
func (i *Inbox) OpenSubmission() (model.Submission, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if idx := i.state.index(i.state.OpenID); idx >= 0 {
		return i.state.Items[idx], true
	}
	return model.Submission{}, false
}

// SetQuery changes the local search filter.
func (i *Inbox) SetQuery(q string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.query = q
}

// All returns a copy of the full local list.
func (i *Inbox) All() []model.Submission {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]model.Submission(nil), i.state.Items...)
}

// Visible returns the submissions matching the current query.
func (i *Inbox) Visible() []model.Submission {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.visibleLocked()
}

func (i *Inbox) visibleLocked() []model.Submission {
	out := []model.Submission{}
	for _, s := range i.state.Items {
		if Matches(s, i.query) {
			out = append(out, s)
		}
	}
	return out
}

// UnreadCount counts unread submissions in the full list.
func (i *Inbox) UnreadCount() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	n := 0
	for _, s := range i.state.Items {
		if !s.IsRead {
			n++
		}
	}
	return n
}

// SelectAll selects exactly the visible submissions.
func (i *Inbox) SelectAll() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.state.Selected = map[string]bool{}
	for _, s := range i.visibleLocked() {
		i.state.Selected[s.ID] = true
	}
}

// SelectNone clears the selection.
func (i *Inbox) SelectNone() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.state.Selected = map[string]bool{}
}

// Toggle flips the selection of one visible submission. Hidden ids are
// ignored.
func (i *Inbox) Toggle(id string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, s := range i.visibleLocked() {
		if s.ID == id {
			if i.state.Selected[id] {
				delete(i.state.Selected, id)
			} else {
				i.state.Selected[id] = true
			}
			return true
		}
	}
	return false
}

// Selected returns the selected ids that are currently visible, in list
// order.
func (i *Inbox) Selected() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	var ids []string
	for _, s := range i.visibleLocked() {
		if i.state.Selected[s.ID] {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

package inbox

import (
	"sort"
	"strings"

	"github.com/folio/backend/internal/model"
)

// State is the local copy of the inbox. Items keep server order: most
// recent first, ties broken by id descending.
type State struct {
	Items    []model.Submission
	Selected map[string]bool
	// OpenID is the submission shown in the detail view, or empty.
	OpenID string
}

func (s *State) index(id string) int {
	for i := range s.Items {
		if s.Items[i].ID == id {
			return i
		}
	}
	return -1
}

// remove drops ids and returns the removed records.
func (s *State) remove(ids map[string]bool) []model.Submission {
	var removed []model.Submission
	kept := s.Items[:0:0]
	for _, item := range s.Items {
		if ids[item.ID] {
			removed = append(removed, item)
			continue
		}
		kept = append(kept, item)
	}
	s.Items = kept
	for id := range ids {
		delete(s.Selected, id)
	}
	if ids[s.OpenID] {
		s.OpenID = ""
	}
	return removed
}

// restore puts records back in server order, skipping any already present.
func (s *State) restore(records []model.Submission) {
	for _, r := range records {
		if s.index(r.ID) < 0 {
			s.Items = append(s.Items, r)
		}
	}
	sort.SliceStable(s.Items, func(i, j int) bool {
		a, b := s.Items[i], s.Items[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.After(b.Timestamp)
		}
		return a.ID > b.ID
	})
}

// Matches reports whether sub contains query, ignoring case, in its name,
// email, message or category. An empty query matches everything.
func Matches(sub model.Submission, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	for _, field := range []string{sub.Name, sub.Email, sub.Message, string(sub.Category)} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

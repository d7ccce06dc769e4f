// Package client holds the consumer-side notification state fed by the
// realtime channel: the accumulated unread notices, the unread indicator,
// and the read transition against the REST API.
package client

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/pawsit/pawsit_backend/models"
)

// NotificationState accumulates unread notices for one user session.
type NotificationState struct {
	baseURL    string
	token      string
	httpClient *http.Client

	mu      sync.Mutex
	notices []models.NotificationView
}

// NewNotificationState creates notification state talking to the given API
// base URL. A nil http client gets a sane default.
func NewNotificationState(baseURL, token string, httpClient *http.Client) *NotificationState {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &NotificationState{
		baseURL:    baseURL,
		token:      token,
		httpClient: httpClient,
	}
}

// Receive merges a delivered batch, keeping only notices still unread. A
// notice for a request already held replaces the held one, so a
// resubscribe after reconnect never duplicates entries.
func (s *NotificationState) Receive(batch []models.NotificationView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, view := range batch {
		if view.ReadStatus {
			continue
		}
		if i := s.indexOf(view.RequestID); i >= 0 {
			s.notices[i] = view
			continue
		}
		s.notices = append(s.notices, view)
	}
}

// indexOf returns the position of the held notice for a request, or -1.
// Callers must hold s.mu.
func (s *NotificationState) indexOf(requestID string) int {
	for i, view := range s.notices {
		if view.RequestID == requestID {
			return i
		}
	}
	return -1
}

// Unread reports whether the unread indicator should show.
func (s *NotificationState) Unread() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.notices) > 0
}

// Notices returns a copy of the held notices.
func (s *NotificationState) Notices() []models.NotificationView {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.NotificationView, len(s.notices))
	copy(out, s.notices)
	return out
}

// MarkRead performs the read transition for one notice and drops it from
// local state on success; on failure local state is untouched. Repeating
// the call after success is safe: the server treats the second transition
// as a no-op and still answers 200.
func (s *NotificationState) MarkRead(ctx context.Context, view models.NotificationView) error {
	path := "/requests/" + view.RequestID + "/readBySitter"
	if view.IsConfirmation() {
		path = "/requests/" + view.RequestID + "/readByOwner"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.baseURL+path, nil)
	if err != nil {
		return err
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mark read %s: unexpected status %d", view.RequestID, resp.StatusCode)
	}

	s.remove(view.RequestID)
	return nil
}

// Clear resets local state, used after navigating to the full list view.
func (s *NotificationState) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = nil
}

func (s *NotificationState) remove(requestID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.notices[:0]
	for _, view := range s.notices {
		if view.RequestID != requestID {
			kept = append(kept, view)
		}
	}
	s.notices = kept
}

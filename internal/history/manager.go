// Package history owns the live session state: it sends user messages,
// archives and deletes conversations, and persists after every mutation.
package history

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"mindmend/internal/fallback"
	"mindmend/internal/logger"
	"mindmend/internal/persistence"
	"mindmend/internal/session"
	"mindmend/pkg/mindtypes"
)

// PreviewRunes is how much of the first user turn an archive summary shows.
const PreviewRunes = 30

// EmptyReplyReason is reported when the inference service succeeds without a reply.
const EmptyReplyReason = "empty reply from inference service"

var (
	// ErrEmptyInput is returned when the message is empty after trimming.
	ErrEmptyInput = errors.New("message is empty")
	// ErrBusy is returned when a send is already in flight.
	ErrBusy = errors.New("a message is already being sent")
	// ErrViewingArchive is returned when sending while an archived conversation is displayed.
	ErrViewingArchive = errors.New("an archived conversation is open; return to the active conversation first")
)

// Saver persists a full session state.
type Saver interface {
	Save(state mindtypes.SessionState) persistence.Result
}

// SendResult describes a completed send.
type SendResult struct {
	// Reply is the assistant turn that was appended, remote or fallback.
	Reply string
	// Fallback is set when the reply was generated locally.
	Fallback bool
	// FailureReason explains why the remote reply was not used.
	FailureReason string
	Persist       persistence.Result
}

// Manager coordinates the session store, persistence, inference and fallback.
// It is safe for concurrent use; at most one Send is in flight at a time.
type Manager struct {
	mu         sync.Mutex
	busy       atomic.Bool
	store      *session.Store
	saver      Saver
	inferencer mindtypes.Inferencer
	fallback   *fallback.Generator

	// viewIndex is the archive index on display, or -1 for the active conversation.
	viewIndex int
	view      mindtypes.Conversation
}

// NewManager creates a Manager over an already-restored store.
func NewManager(store *session.Store, saver Saver, inferencer mindtypes.Inferencer, gen *fallback.Generator) *Manager {
	if gen == nil {
		gen = fallback.New()
	}
	return &Manager{
		store:      store,
		saver:      saver,
		inferencer: inferencer,
		fallback:   gen,
		viewIndex:  -1,
	}
}

// Send submits text to the inference service and appends the exchange to the
// active conversation. Remote failures never surface as errors: a fallback
// reply is appended instead and SendResult reports the reason.
func (m *Manager) Send(ctx context.Context, text string, allowExtraContext bool) (SendResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return SendResult{}, ErrEmptyInput
	}

	// The flag is claimed under mu so NewConversation never sees a stale "idle".
	m.mu.Lock()
	if !m.busy.CompareAndSwap(false, true) {
		m.mu.Unlock()
		logger.Debug("Send rejected while busy")
		return SendResult{}, ErrBusy
	}
	defer m.busy.Store(false)

	if m.viewIndex >= 0 {
		m.mu.Unlock()
		return SendResult{}, ErrViewingArchive
	}
	history := m.store.Active()
	m.mu.Unlock()

	logger.Debug("Sending message", "provider", m.inferencer.ProviderName(), "history_turns", len(history))
	outcome := m.inferencer.Send(ctx, history, text, allowExtraContext)

	result := SendResult{Reply: outcome.Reply()}
	switch {
	case !outcome.OK():
		result.Fallback = true
		result.FailureReason = outcome.Reason()
	case outcome.Reply() == "":
		result.Fallback = true
		result.FailureReason = EmptyReplyReason
	}
	if result.Fallback {
		result.Reply = m.fallback.Generate(text)
		logger.Warn("Inference unavailable, using fallback reply", "reason", result.FailureReason)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.store.AppendToActive(mindtypes.UserTurn(text))
	m.store.AppendToActive(mindtypes.AssistantTurn(result.Reply))
	result.Persist = m.persistLocked()
	return result, nil
}

// NewConversation archives the active conversation when it has turns and starts
// an empty one. Any open archive view is closed. It returns ErrBusy while a send
// is in flight, since the reply belongs to the current conversation.
func (m *Manager) NewConversation() (persistence.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.busy.Load() {
		return persistence.Result{}, ErrBusy
	}
	m.closeViewLocked()
	if m.store.ActiveLen() == 0 {
		logger.Debug("New conversation requested with empty active conversation")
		return m.persistLocked(), nil
	}
	m.store.ArchiveActiveIfNonEmpty()
	m.store.ClearActive()
	logger.Debug("Active conversation archived", "archived", m.store.ArchiveLen())
	return m.persistLocked(), nil
}

// LoadArchived displays a copy of archive[index]. State is not modified.
func (m *Manager) LoadArchived(index int) (mindtypes.Conversation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conv, ok := m.store.Archived(index)
	if !ok {
		return nil, false
	}
	m.viewIndex = index
	m.view = conv
	return conv.Clone(), true
}

// CloseArchived returns the display to the active conversation.
func (m *Manager) CloseArchived() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeViewLocked()
}

// DeleteArchived removes archive[index] and persists. It reports false without
// touching state when index is out of range. An open view of the deleted
// conversation is closed; a view of a later one follows its new index.
func (m *Manager) DeleteArchived(index int) (bool, persistence.Result) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.store.RemoveArchived(index) {
		return false, persistence.Result{}
	}
	switch {
	case m.viewIndex == index:
		m.closeViewLocked()
	case m.viewIndex > index:
		m.viewIndex--
	}
	logger.Debug("Archived conversation deleted", "index", index, "remaining", m.store.ArchiveLen())
	return true, m.persistLocked()
}

// Summaries lists the archive in order.
func (m *Manager) Summaries() []mindtypes.Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := m.store.ArchiveLen()
	summaries := make([]mindtypes.Summary, 0, n)
	for i := 0; i < n; i++ {
		conv, _ := m.store.Archived(i)
		summaries = append(summaries, mindtypes.Summary{
			Index:     i,
			Preview:   conv.Preview(PreviewRunes),
			TurnCount: conv.Len(),
		})
	}
	return summaries
}

// Active returns a copy of the active conversation.
func (m *Manager) Active() mindtypes.Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.Active()
}

// Displayed returns a copy of what the UI should show: the open archived
// conversation, or the active one.
func (m *Manager) Displayed() mindtypes.Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.viewIndex >= 0 {
		return m.view.Clone()
	}
	return m.store.Active()
}

// Viewing reports the archive index on display, if any.
func (m *Manager) Viewing() (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.viewIndex, m.viewIndex >= 0
}

// Busy reports whether a send is in flight.
func (m *Manager) Busy() bool {
	return m.busy.Load()
}

// Snapshot returns a copy of the full session state.
func (m *Manager) Snapshot() mindtypes.SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.Snapshot()
}

// ProviderName names the inference backend in use.
func (m *Manager) ProviderName() string {
	return m.inferencer.ProviderName()
}

func (m *Manager) closeViewLocked() {
	m.viewIndex = -1
	m.view = nil
}

// persistLocked saves the current state. Degraded results are logged by the persister.
func (m *Manager) persistLocked() persistence.Result {
	if m.saver == nil {
		return persistence.Result{Status: persistence.Saved}
	}
	return m.saver.Save(m.store.Snapshot())
}

package conversation

import (
	"container/list"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/vietclinic/chatbot-service/pkg/logging"
)

// Driver owns one live model session per user and turns raw model replies
// into TurnResults. It never returns an error: transport failures during a
// turn become apology texts so a single bad turn cannot kill the dispatch
// loop.
type Driver struct {
	model  ModelClient
	store  *SessionStore
	logger *logging.Logger

	// Live sessions are bounded the same way the store's memory tier is;
	// an evicted session is resumed from stored history on next contact.
	sessions *sessionCache
}

// DriverOption customizes Driver behavior.
type DriverOption func(*Driver)

// WithSessionLimit bounds the number of live model sessions held in memory.
func WithSessionLimit(limit int) DriverOption {
	return func(d *Driver) {
		if limit > 0 {
			d.sessions = newSessionCache(limit)
		}
	}
}

// NewDriver creates a dialogue driver.
func NewDriver(model ModelClient, store *SessionStore, logger *logging.Logger, opts ...DriverOption) *Driver {
	if model == nil {
		panic("conversation: model client cannot be nil")
	}
	if store == nil {
		panic("conversation: session store cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}

	d := &Driver{
		model:    model,
		store:    store,
		logger:   logger,
		sessions: newSessionCache(defaultSessionCacheSize),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SendUserTurn submits user text to the user's session and interprets the
// reply as text or a tool call.
func (d *Driver) SendUserTurn(ctx context.Context, userID, text string) TurnResult {
	return d.sendTurn(ctx, userID, text)
}

// SendResultTurn feeds a routed tool result back into the session with the
// summary instruction and returns the user-facing text.
func (d *Driver) SendResultTurn(ctx context.Context, userID, functionName string, result any) TurnResult {
	encoded, err := json.Marshal(result)
	if err != nil {
		d.logger.Warn("failed to encode tool result", "error", err, "function", functionName)
		encoded = []byte(fmt.Sprint(result))
	}

	turn := d.sendTurn(ctx, userID, resultPrompt(functionName, string(encoded)))
	if turn.Kind != TurnText {
		// A format turn must end in text; a stray second tool call is dropped.
		d.logger.Warn("model requested another tool during result formatting", "function", turn.Name, "user_id", userID)
		return TurnResult{Kind: TurnText, Content: noReplyText}
	}
	turn.Content = stripCodeFences(turn.Content)
	if turn.Content == "" {
		turn.Content = noReplyText
	}
	return turn
}

// Reset drops the user's live session and stored history. Resetting an
// absent session is a no-op.
func (d *Driver) Reset(ctx context.Context, userID string) {
	d.sessions.remove(userID)
	d.store.Delete(ctx, userID)
	d.logger.Info("chat session reset", "user_id", userID)
}

func (d *Driver) sendTurn(ctx context.Context, userID, text string) TurnResult {
	session := d.session(ctx, userID)

	reply, history, err := session.Send(ctx, text)
	if err != nil {
		d.logger.Error("model turn failed", "error", err, "user_id", userID)
		return TurnResult{Kind: TurnText, Content: fmt.Sprintf(apologyFormat, err)}
	}

	d.store.Put(ctx, userID, history)
	return interpretReply(reply)
}

// session returns the user's live session, resuming from stored history or
// seeding a brand-new dialogue. The seed is persisted before the first model
// call so a crash mid-turn still leaves a resumable session behind.
func (d *Driver) session(ctx context.Context, userID string) ModelSession {
	if session, ok := d.sessions.get(userID); ok {
		return session
	}

	history, ok := d.store.Get(ctx, userID)
	if ok {
		d.logger.Debug("restored chat session from storage", "user_id", userID, "turns", len(history))
	} else {
		history = seedHistory()
		d.store.Put(ctx, userID, history)
		d.logger.Debug("created new chat session", "user_id", userID)
	}

	session := d.model.NewSession(history)
	d.sessions.put(userID, session)
	return session
}

// interpretReply applies the fixed precedence: the first tool-call part of
// the first candidate wins over any text part; then the first text part;
// then the aggregate text; then a fixed fallback.
func interpretReply(reply *ModelReply) TurnResult {
	if reply == nil || len(reply.Candidates) == 0 {
		return TurnResult{Kind: TurnText, Content: noCandidatesText}
	}

	parts := reply.Candidates[0].Parts
	for _, part := range parts {
		if part.FunctionCall != nil && part.FunctionCall.Name != "" {
			return TurnResult{
				Kind: TurnToolCall,
				Name: part.FunctionCall.Name,
				Args: part.FunctionCall.Args,
			}
		}
	}
	for _, part := range parts {
		if part.Text != "" {
			return TurnResult{Kind: TurnText, Content: part.Text}
		}
	}
	if reply.Text != "" {
		return TurnResult{Kind: TurnText, Content: reply.Text}
	}
	return TurnResult{Kind: TurnText, Content: noReplyText}
}

// sessionCache is a small LRU of live model sessions. The map itself is
// guarded; turns within one session are kept sequential by queue partitioning
// (one user's messages land on one worker).
type sessionCache struct {
	mu    sync.Mutex
	index map[string]*list.Element
	order *list.List
	cap   int
}

type sessionEntry struct {
	userID  string
	session ModelSession
}

func newSessionCache(capacity int) *sessionCache {
	return &sessionCache{
		index: make(map[string]*list.Element),
		order: list.New(),
		cap:   capacity,
	}
}

func (c *sessionCache) get(userID string) (ModelSession, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.index[userID]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*sessionEntry).session, true
}

func (c *sessionCache) put(userID string, session ModelSession) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.index[userID]; ok {
		elem.Value.(*sessionEntry).session = session
		c.order.MoveToFront(elem)
		return
	}
	c.index[userID] = c.order.PushFront(&sessionEntry{userID: userID, session: session})
	for c.order.Len() > c.cap {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		entry := c.order.Remove(oldest).(*sessionEntry)
		delete(c.index, entry.userID)
	}
}

func (c *sessionCache) remove(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.index[userID]; ok {
		c.order.Remove(elem)
		delete(c.index, userID)
	}
}

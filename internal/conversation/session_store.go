package conversation

import (
	"container/list"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/vietclinic/chatbot-service/pkg/logging"
)

const (
	defaultHistoryTTL       = time.Hour
	defaultSessionCacheSize = 1024
	probeTimeout            = 5 * time.Second
)

// SessionStore maps user ids to dialogue histories. Reads hit a bounded
// in-process LRU first and fall back to Redis; writes always land in memory
// and mirror to Redis best-effort, so a Redis outage degrades the store to
// memory-only instead of failing callers. The in-process copy stays
// authoritative for the life of the process.
type SessionStore struct {
	mu    sync.Mutex
	index map[string]*list.Element
	order *list.List // front = most recently used
	cap   int

	redis     *redis.Client
	available bool
	ttl       time.Duration

	logger *logging.Logger
	tracer trace.Tracer
}

type storeEntry struct {
	userID  string
	history []Turn
}

// StoreOption customizes SessionStore behavior.
type StoreOption func(*SessionStore)

// WithHistoryTTL sets the Redis persistence TTL.
func WithHistoryTTL(ttl time.Duration) StoreOption {
	return func(s *SessionStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithCacheSize bounds the in-process session tier.
func WithCacheSize(size int) StoreOption {
	return func(s *SessionStore) {
		if size > 0 {
			s.cap = size
		}
	}
}

// WithStoreTracer sets the tracer for persistence spans.
func WithStoreTracer(tracer trace.Tracer) StoreOption {
	return func(s *SessionStore) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// NewSessionStore creates a two-tier store. rdb may be nil for memory-only
// operation; otherwise Redis availability is probed once, and a failed probe
// leaves the store in memory-only mode for the process lifetime.
func NewSessionStore(ctx context.Context, rdb *redis.Client, logger *logging.Logger, opts ...StoreOption) *SessionStore {
	if logger == nil {
		logger = logging.Default()
	}

	s := &SessionStore{
		index:  make(map[string]*list.Element),
		order:  list.New(),
		cap:    defaultSessionCacheSize,
		redis:  rdb,
		ttl:    defaultHistoryTTL,
		logger: logger,
		tracer: otel.Tracer("chatbot.internal.conversation.sessions"),
	}
	for _, opt := range opts {
		opt(s)
	}

	if rdb != nil {
		probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		defer cancel()
		if err := rdb.Ping(probeCtx).Err(); err != nil {
			logger.Warn("redis unavailable, chat history will not persist between restarts", "error", err)
		} else {
			s.available = true
			logger.Info("redis connection successful, chat history will be persistent")
		}
	}

	return s
}

// Persistent reports whether the Redis tier is in use.
func (s *SessionStore) Persistent() bool {
	return s.available
}

// Get returns the stored history for a user, or false if none exists in
// either tier.
func (s *SessionStore) Get(ctx context.Context, userID string) ([]Turn, bool) {
	s.mu.Lock()
	if elem, ok := s.index[userID]; ok {
		s.order.MoveToFront(elem)
		history := elem.Value.(*storeEntry).history
		s.mu.Unlock()
		return history, true
	}
	s.mu.Unlock()

	if !s.available {
		return nil, false
	}

	ctx, span := s.tracer.Start(ctx, "conversation.load_history")
	defer span.End()

	data, err := s.redis.Get(ctx, historyKey(userID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			span.RecordError(err)
			s.logger.Warn("failed to load chat history", "error", err, "user_id", userID)
		}
		return nil, false
	}

	var history []Turn
	if err := json.Unmarshal(data, &history); err != nil {
		span.RecordError(err)
		s.logger.Warn("failed to decode chat history", "error", err, "user_id", userID)
		return nil, false
	}

	s.cache(userID, history)
	return history, true
}

// Put stores the history in memory unconditionally and mirrors it to Redis
// best-effort with the configured TTL.
func (s *SessionStore) Put(ctx context.Context, userID string, history []Turn) {
	s.cache(userID, history)

	if !s.available {
		return
	}

	ctx, span := s.tracer.Start(ctx, "conversation.save_history")
	defer span.End()

	data, err := json.Marshal(history)
	if err != nil {
		span.RecordError(err)
		s.logger.Warn("failed to marshal chat history", "error", err, "user_id", userID)
		return
	}
	if err := s.redis.Set(ctx, historyKey(userID), data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		s.logger.Warn("failed to persist chat history", "error", err, "user_id", userID)
	}
}

// Delete removes the user's history from both tiers. The Redis removal is
// best-effort.
func (s *SessionStore) Delete(ctx context.Context, userID string) {
	s.mu.Lock()
	if elem, ok := s.index[userID]; ok {
		s.order.Remove(elem)
		delete(s.index, userID)
	}
	s.mu.Unlock()

	if !s.available {
		return
	}

	ctx, span := s.tracer.Start(ctx, "conversation.delete_history")
	defer span.End()

	if err := s.redis.Del(ctx, historyKey(userID)).Err(); err != nil {
		span.RecordError(err)
		s.logger.Warn("failed to clear chat history", "error", err, "user_id", userID)
	}
}

// cache inserts or refreshes the in-process entry, evicting the least
// recently used session when over capacity. Evicted sessions survive in the
// Redis mirror and are resumed from history on next contact.
func (s *SessionStore) cache(userID string, history []Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, ok := s.index[userID]; ok {
		elem.Value.(*storeEntry).history = history
		s.order.MoveToFront(elem)
		return
	}

	s.index[userID] = s.order.PushFront(&storeEntry{userID: userID, history: history})

	for s.order.Len() > s.cap {
		oldest := s.order.Back()
		if oldest == nil {
			break
		}
		entry := s.order.Remove(oldest).(*storeEntry)
		delete(s.index, entry.userID)
		s.logger.Debug("evicted session from memory cache", "user_id", entry.userID)
	}
}

func historyKey(userID string) string {
	return fmt.Sprintf("chat_history:%s", userID)
}

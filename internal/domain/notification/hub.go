package notification

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	bannerChannel    = "loyalty:banners"
	subscriberBuffer = 16
)

type bannerMessage struct {
	Banner           Banner `json:"banner"`
	SenderInstanceID string `json:"sender_instance_id"`
}

// Hub keeps unexpired banners per user and pushes new ones to open
// streams. With Redis configured, banners raised on one instance reach
// streams on every instance.
type Hub struct {
	mu          sync.RWMutex
	banners     map[int64][]Banner
	subscribers map[int64]map[chan Banner]struct{}

	redis      *redis.Client
	pubsub     *redis.PubSub
	instanceID string

	ttl time.Duration
	now func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub creates a banner hub. redisClient may be nil.
func NewHub(redisClient *redis.Client, ttl time.Duration) *Hub {
	if ttl <= 0 {
		ttl = 3 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())

	h := &Hub{
		banners:     make(map[int64][]Banner),
		subscribers: make(map[int64]map[chan Banner]struct{}),
		redis:       redisClient,
		instanceID:  uuid.NewString(),
		ttl:         ttl,
		now:         time.Now,
		ctx:         ctx,
		cancel:      cancel,
	}
	if redisClient != nil {
		h.pubsub = redisClient.Subscribe(ctx, bannerChannel)
	}
	return h
}

// Run consumes banners published by other instances until Close. It
// returns at once when Redis is not configured.
func (h *Hub) Run() {
	if h.pubsub == nil {
		return
	}
	ch := h.pubsub.Channel()
	for {
		select {
		case <-h.ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var m bannerMessage
			if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
				log.Warn().Err(err).Msg("Dropping malformed banner message")
				continue
			}
			if m.SenderInstanceID == h.instanceID {
				continue
			}
			h.deliver(m.Banner)
		}
	}
}

// Close stops the Redis subscriber.
func (h *Hub) Close() error {
	h.cancel()
	if h.pubsub != nil {
		return h.pubsub.Close()
	}
	return nil
}

// Notify raises a banner for userID.
func (h *Hub) Notify(ctx context.Context, userID int64, kind, message string) {
	now := h.now()
	b := Banner{
		ID:        uuid.NewString(),
		UserID:    userID,
		Kind:      kind,
		Message:   message,
		CreatedAt: now,
		ExpiresAt: now.Add(h.ttl),
	}
	h.deliver(b)

	if h.redis == nil {
		return
	}
	payload, err := json.Marshal(bannerMessage{Banner: b, SenderInstanceID: h.instanceID})
	if err != nil {
		return
	}
	if err := h.redis.Publish(ctx, bannerChannel, payload).Err(); err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("Failed to publish banner")
	}
}

func (h *Hub) deliver(b Banner) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.banners[b.UserID] = append(h.banners[b.UserID], b)
	for ch := range h.subscribers[b.UserID] {
		select {
		case ch <- b:
		default:
			log.Debug().Int64("user_id", b.UserID).Msg("Banner stream full, dropping banner")
		}
	}
}

// Active returns the user's unexpired banners, oldest first.
func (h *Hub) Active(userID int64) []Banner {
	now := h.now()
	h.mu.RLock()
	defer h.mu.RUnlock()

	active := make([]Banner, 0, len(h.banners[userID]))
	for _, b := range h.banners[userID] {
		if !b.Expired(now) {
			active = append(active, b)
		}
	}
	return active
}

// Subscribe opens a stream of new banners for userID. The returned cancel
// func closes the channel and may be called more than once.
func (h *Hub) Subscribe(userID int64) (<-chan Banner, func()) {
	ch := make(chan Banner, subscriberBuffer)

	h.mu.Lock()
	if h.subscribers[userID] == nil {
		h.subscribers[userID] = make(map[chan Banner]struct{})
	}
	h.subscribers[userID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subscribers[userID], ch)
			if len(h.subscribers[userID]) == 0 {
				delete(h.subscribers, userID)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Sweep drops expired banners and returns how many remain.
func (h *Hub) Sweep() int {
	now := h.now()
	h.mu.Lock()
	defer h.mu.Unlock()

	remaining := 0
	for userID, list := range h.banners {
		kept := list[:0]
		for _, b := range list {
			if !b.Expired(now) {
				kept = append(kept, b)
			}
		}
		if len(kept) == 0 {
			delete(h.banners, userID)
			continue
		}
		h.banners[userID] = kept
		remaining += len(kept)
	}
	return remaining
}

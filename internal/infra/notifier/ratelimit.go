package notifier

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type recipientKey struct{}

// WithRecipient tags ctx with the chat or phone number a call is addressed
// to so that the throttle can apply its per-recipient budget.
func WithRecipient(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, recipientKey{}, id)
}

func recipientFrom(ctx context.Context) string {
	id, _ := ctx.Value(recipientKey{}).(string)
	return id
}

// Throttle combines a platform-wide token bucket with one bucket per
// recipient. Platforms cap both the total send rate and the rate into a
// single conversation; a burst of digest messages must respect both.
type Throttle struct {
	global *rate.Limiter

	mu        sync.Mutex
	perChat   map[string]*chatBucket
	chatRate  rate.Limit
	chatBurst int
	idle      time.Duration
	now       func() time.Time
}

type chatBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewThrottle allows globalRPS calls per second overall. A chatRPS of zero
// disables the per-recipient budget.
func NewThrottle(globalRPS float64, globalBurst int, chatRPS float64, chatBurst int) *Throttle {
	if chatBurst < 1 {
		chatBurst = 1
	}
	return &Throttle{
		global:    rate.NewLimiter(rate.Limit(globalRPS), globalBurst),
		perChat:   make(map[string]*chatBucket),
		chatRate:  rate.Limit(chatRPS),
		chatBurst: chatBurst,
		idle:      10 * time.Minute,
		now:       time.Now,
	}
}

// Wait blocks until both the global and the recipient budget have a token.
// Calls without a recipient only consume the global budget.
func (t *Throttle) Wait(ctx context.Context) error {
	if id := recipientFrom(ctx); id != "" && t.chatRate > 0 {
		if err := t.bucket(id).Wait(ctx); err != nil {
			return err
		}
	}
	return t.global.Wait(ctx)
}

func (t *Throttle) bucket(id string) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	b, ok := t.perChat[id]
	if !ok {
		b = &chatBucket{limiter: rate.NewLimiter(t.chatRate, t.chatBurst)}
		t.perChat[id] = b
	}
	b.lastSeen = now

	// 放置されたチャットの bucket を掃除
	for k, other := range t.perChat {
		if now.Sub(other.lastSeen) > t.idle {
			delete(t.perChat, k)
		}
	}
	return b.limiter
}

// Recipients reports how many per-recipient buckets are live.
func (t *Throttle) Recipients() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.perChat)
}

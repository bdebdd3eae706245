package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueReceipt = "jobs:receipt"
	QueueEmail   = "jobs:email"

	// DelayedKey is a sorted set of jobs waiting for their retry time (score = unix seconds).
	DelayedKey = "jobs:delayed"

	MaxJobAttempts = 5

	popErrorBackoff = time.Second
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Queue    string          `json:"queue"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// Handler processes one job payload. A returned error schedules a retry.
type Handler func(ctx context.Context, payload json.RawMessage) error

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueReceipt pushes a receipt job (PDF + customer email) to Redis.
func (d *Dispatcher) EnqueueReceipt(ctx context.Context, payload ReceiptJobPayload) error {
	return d.enqueue(ctx, QueueReceipt, "receipt", payload)
}

// EnqueueEmail pushes an email job to Redis.
func (d *Dispatcher) EnqueueEmail(ctx context.Context, payload EmailJobPayload) error {
	return d.enqueue(ctx, QueueEmail, "email", payload)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(Job{Type: jobType, Queue: queue, Payload: data})
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// Pool consumes the job queues and routes each job to the handler registered for its queue.
type Pool struct {
	rdb         *redis.Client
	mu          sync.RWMutex
	handlers    map[string]Handler
	maxAttempts int
	now         func() time.Time
	// popBackoff is the pause after a failed BRPOP so a Redis outage does not spin.
	popBackoff time.Duration
}

func NewPool(rdb *redis.Client) *Pool {
	return &Pool{
		rdb:         rdb,
		handlers:    map[string]Handler{},
		maxAttempts: MaxJobAttempts,
		now:         time.Now,
		popBackoff:  popErrorBackoff,
	}
}

// Register binds h to queue. Must be called before Start.
func (p *Pool) Register(queue string, h Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[queue] = h
}

func (p *Pool) queues() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	qs := make([]string, 0, len(p.handlers))
	for q := range p.handlers {
		qs = append(qs, q)
	}
	return qs
}

// Start launches numWorkers goroutines consuming every registered queue.
// Each goroutine blocks on BRPOP: zero CPU when idle.
func (p *Pool) Start(ctx context.Context, numWorkers int) {
	queues := p.queues()
	for i := 0; i < numWorkers; i++ {
		go p.runWorker(ctx, i, queues)
	}
	log.Info().Int("workers", numWorkers).Strs("queues", queues).Msg("worker pool started")
}

func (p *Pool) runWorker(ctx context.Context, id int, queues []string) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Int("worker", id).Msg("worker shutting down")
			return
		default:
			// Blocking pop: waits up to 5s then loops to check ctx
			result, err := p.rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if errors.Is(err, redis.Nil) || (err != nil && ctx.Err() != nil) {
				continue // timeout or context cancelled
			}
			if err != nil {
				log.Warn().Err(err).Int("worker", id).Msg("worker: BRPOP failed, backing off")
				select {
				case <-ctx.Done():
				case <-time.After(p.popBackoff):
				}
				continue
			}
			if len(result) < 2 {
				continue
			}
			p.process(ctx, result[0], result[1])
		}
	}
}

func (p *Pool) process(ctx context.Context, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}
	if job.Queue == "" {
		job.Queue = queue
	}

	p.mu.RLock()
	h, ok := p.handlers[job.Queue]
	p.mu.RUnlock()
	if !ok {
		SendToDLQ(ctx, p.rdb, job, "no handler registered for queue")
		return
	}

	if err := h(ctx, job.Payload); err != nil {
		p.retry(ctx, job, err)
		return
	}
	log.Debug().Str("type", job.Type).Str("queue", job.Queue).Msg("job done")
}

// retry re-schedules job with exponential backoff, or dead-letters it once
// maxAttempts is reached.
func (p *Pool) retry(ctx context.Context, job Job, cause error) {
	job.Attempts++
	if job.Attempts >= p.maxAttempts {
		SendToDLQ(ctx, p.rdb, job, fmt.Sprintf("max attempts (%d) exceeded: %v", p.maxAttempts, cause))
		return
	}

	encoded, err := json.Marshal(job)
	if err != nil {
		log.Error().Err(err).Str("queue", job.Queue).Msg("retry: marshal job")
		return
	}
	due := p.now().Add(computeRetryBackoff(job.Attempts))
	if err := p.rdb.ZAdd(ctx, DelayedKey, redis.Z{Score: float64(due.Unix()), Member: encoded}).Err(); err != nil {
		log.Error().Err(err).Str("queue", job.Queue).Msg("retry: schedule failed")
		return
	}
	log.Warn().
		Err(cause).
		Str("type", job.Type).
		Int("attempt", job.Attempts).
		Time("retry_at", due).
		Msg("job failed, retry scheduled")
}

// PromoteDue moves delayed jobs whose retry time has passed back to their queue.
// ZREM decides ownership, so several instances may run it concurrently. A job
// whose LPUSH fails goes back into the delayed set with its original score.
func (p *Pool) PromoteDue(ctx context.Context) (int, error) {
	due, err := p.rdb.ZRangeByScoreWithScores(ctx, DelayedKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(p.now().Unix(), 10),
		Count: 100,
	}).Result()
	if err != nil {
		return 0, err
	}

	moved := 0
	for _, z := range due {
		m, ok := z.Member.(string)
		if !ok {
			continue
		}
		removed, err := p.rdb.ZRem(ctx, DelayedKey, m).Result()
		if err != nil || removed == 0 {
			continue
		}
		var job Job
		if err := json.Unmarshal([]byte(m), &job); err != nil || job.Queue == "" {
			log.Error().Err(err).Msg("promote: dropping malformed delayed job")
			continue
		}
		if err := p.rdb.LPush(ctx, job.Queue, m).Err(); err != nil {
			if zerr := p.rdb.ZAdd(ctx, DelayedKey, redis.Z{Score: z.Score, Member: m}).Err(); zerr != nil {
				log.Error().Err(zerr).Str("queue", job.Queue).Str("type", job.Type).Msg("promote: job lost, could not return it to the delayed set")
			}
			return moved, err
		}
		moved++
	}
	return moved, nil
}

// computeRetryBackoff returns 10s, 20s, 40s ... capped at 10 minutes.
func computeRetryBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := 10 * time.Second << uint(attempt-1)
	if d > 10*time.Minute || d <= 0 {
		return 10 * time.Minute
	}
	return d
}

package webhookmonitor

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
)

const defaultRedisKeyPrefix = "webhook:monitor"

// RedisStore shares monitor state between processes. Every mutation runs in a
// MULTI/EXEC transaction so concurrent deliveries never lose an increment.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultRedisKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) countersKey() string { return s.prefix + ":counters" }
func (s *RedisStore) typesKey() string { return s.prefix + ":types" }
func (s *RedisStore) lastEventKey() string { return s.prefix + ":last_event" }
func (s *RedisStore) samplesKey() string { return s.prefix + ":samples" }
func (s *RedisStore) errorsKey() string { return s.prefix + ":errors" }

func (s *RedisStore) Append(ctx context.Context, ev Event) error {
	var errEntry []byte
	if ev.Outcome == OutcomeError {
		b, err := json.Marshal(ErrorEntry{EventType: ev.Type, Message: ev.Error, Data: ev.Data, At: ev.At})
		if err != nil {
			return err
		}
		errEntry = b
	}

	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, s.lastEventKey(), ev.At.UnixNano(), 0)
		switch ev.Outcome {
		case OutcomeReceived:
			p.HIncrBy(ctx, s.countersKey(), "received", 1)
			return nil
		case OutcomeSuccess:
			p.HIncrBy(ctx, s.countersKey(), "successful", 1)
			ms := float64(ev.ProcessingTime) / float64(time.Millisecond)
			p.RPush(ctx, s.samplesKey(), strconv.FormatFloat(ms, 'f', 3, 64))
			p.LTrim(ctx, s.samplesKey(), -MaxProcessingSamples, -1)
		case OutcomeError:
			p.HIncrBy(ctx, s.countersKey(), "failed", 1)
			p.RPush(ctx, s.errorsKey(), errEntry)
			p.LTrim(ctx, s.errorsKey(), -MaxRecentErrors, -1)
		default:
			return nil
		}
		p.HIncrBy(ctx, s.countersKey(), "total", 1)
		p.HIncrBy(ctx, s.typesKey(), ev.Type, 1)
		return nil
	})
	return err
}

func (s *RedisStore) Load(ctx context.Context) (State, error) {
	var (
		counters *redis.MapStringStringCmd
		types    *redis.MapStringStringCmd
		last     *redis.StringCmd
		samples  *redis.StringSliceCmd
		recent   *redis.StringSliceCmd
	)
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		counters = p.HGetAll(ctx, s.countersKey())
		types = p.HGetAll(ctx, s.typesKey())
		last = p.Get(ctx, s.lastEventKey())
		samples = p.LRange(ctx, s.samplesKey(), 0, -1)
		recent = p.LRange(ctx, s.errorsKey(), 0, -1)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return State{}, err
	}

	c := counters.Val()
	st := State{
		Total:      parseInt(c["total"]),
		Successful: parseInt(c["successful"]),
		Failed:     parseInt(c["failed"]),
		Received:   parseInt(c["received"]),
		ByType:     map[string]int64{},
	}
	for k, v := range types.Val() {
		st.ByType[k] = parseInt(v)
	}
	if ns, err := last.Int64(); err == nil && ns > 0 {
		t := time.Unix(0, ns)
		st.LastEventAt = &t
	}
	for _, raw := range samples.Val() {
		if ms, err := strconv.ParseFloat(raw, 64); err == nil {
			st.SamplesMs = append(st.SamplesMs, ms)
		}
	}
	for _, raw := range recent.Val() {
		var entry ErrorEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			log.Warnf("[WebhookMonitor] Skipping undecodable error entry: %v", err)
			continue
		}
		st.RecentErrors = append(st.RecentErrors, entry)
	}
	return st, nil
}

func (s *RedisStore) Reset(ctx context.Context) error {
	return s.client.Del(ctx, s.countersKey(), s.typesKey(), s.lastEventKey(), s.samplesKey(), s.errorsKey()).Err()
}

func parseInt(v string) int64 {
	n, _ := strconv.ParseInt(v, 10, 64)
	return n
}

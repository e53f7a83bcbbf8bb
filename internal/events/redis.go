package events

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"botfleet/internal/core"
)

const redisRecordTimeout = 5 * time.Second

// RedisStream appends events to a Redis stream via XADD, for consumers
// outside the process. Delivery is best effort: a failed append is logged
// and dropped, never surfaced to the emitting worker.
type RedisStream struct {
	client *redis.Client
	stream string
}

// NewRedisStream connects to the Redis at url (redis://...) and records into
// the named stream.
func NewRedisStream(url, stream string) (*RedisStream, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &RedisStream{client: redis.NewClient(opt), stream: stream}, nil
}

func (r *RedisStream) Record(e core.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), redisRecordTimeout)
	defer cancel()

	values := map[string]interface{}{
		"type":      string(e.Type),
		"timestamp": e.Timestamp.Format(time.RFC3339Nano),
		"bot_id":    e.BotID,
	}
	if e.ActivityID != "" {
		values["activity_id"] = e.ActivityID
	}
	if e.Attempts > 0 {
		values["attempts"] = e.Attempts
	}
	if e.StatusCode > 0 {
		values["status_code"] = e.StatusCode
	}
	if e.Duration > 0 {
		values["duration_ms"] = e.Duration.Milliseconds()
	}
	if e.Error != "" {
		values["error"] = e.Error
	}

	err := r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: r.stream,
		Values: values,
	}).Err()
	if err != nil {
		log.Printf("events: redis xadd: %v", err)
	}
}

func (r *RedisStream) Close() error {
	return r.client.Close()
}

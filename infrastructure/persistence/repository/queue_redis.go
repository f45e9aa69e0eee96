package repository

import (
	"context"

	"github.com/hilthontt/trio/domain/model"
	"github.com/hilthontt/trio/domain/repository"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	queueListKey = "trio:queue:order"
	queueSetKey  = "trio:queue:members"
)

// The list keeps FIFO order, the set answers membership. Scripts keep both in
// step atomically.
var (
	enqueueScript = redis.NewScript(`
if redis.call('SADD', KEYS[2], ARGV[1]) == 0 then
  return 0
end
redis.call('RPUSH', KEYS[1], ARGV[1])
return 1
`)

	dequeueScript = redis.NewScript(`
local out = {}
for i = 1, tonumber(ARGV[1]) do
  local user = redis.call('LPOP', KEYS[1])
  if not user then
    break
  end
  redis.call('SREM', KEYS[2], user)
  table.insert(out, user)
end
return out
`)

	removeScript = redis.NewScript(`
if redis.call('SREM', KEYS[2], ARGV[1]) == 1 then
  redis.call('LREM', KEYS[1], 0, ARGV[1])
end
return 1
`)
)

type redisWaitQueue struct {
	client *redis.Client
	tracer trace.Tracer
}

func NewRedisWaitQueue(client *redis.Client, tracer trace.Tracer) repository.WaitQueue {
	return &redisWaitQueue{
		client: client,
		tracer: tracer,
	}
}

func (q *redisWaitQueue) keys() []string {
	return []string{queueListKey, queueSetKey}
}

func (q *redisWaitQueue) Enqueue(ctx context.Context, userID string) error {
	ctx, span := q.tracer.Start(ctx, "waitQueue.Enqueue")
	defer span.End()

	span.SetAttributes(attribute.String("user.id", userID))

	added, err := enqueueScript.Run(ctx, q.client, q.keys(), userID).Int()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to enqueue user")
		return translateRedisError(err, "failed to enqueue user")
	}
	if added == 0 {
		span.SetStatus(codes.Ok, "user already queued")
		return model.ErrAlreadyQueued
	}

	span.SetStatus(codes.Ok, "user enqueued")
	return nil
}

func (q *redisWaitQueue) DequeueUpTo(ctx context.Context, n int) ([]string, error) {
	ctx, span := q.tracer.Start(ctx, "waitQueue.DequeueUpTo")
	defer span.End()

	span.SetAttributes(attribute.Int("queue.requested", n))

	if n <= 0 {
		return []string{}, nil
	}

	users, err := dequeueScript.Run(ctx, q.client, q.keys(), n).StringSlice()
	if err != nil && !errors.Is(err, redis.Nil) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to dequeue users")
		return nil, translateRedisError(err, "failed to dequeue users")
	}
	if users == nil {
		users = []string{}
	}

	span.SetAttributes(attribute.Int("queue.dequeued", len(users)))
	span.SetStatus(codes.Ok, "users dequeued")
	return users, nil
}

func (q *redisWaitQueue) Peek(ctx context.Context, n int) ([]string, error) {
	ctx, span := q.tracer.Start(ctx, "waitQueue.Peek")
	defer span.End()

	span.SetAttributes(attribute.Int("queue.requested", n))

	if n <= 0 {
		return []string{}, nil
	}

	users, err := q.client.LRange(ctx, queueListKey, 0, int64(n-1)).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to peek queue")
		return nil, translateRedisError(err, "failed to peek queue")
	}

	span.SetAttributes(attribute.Int("queue.peeked", len(users)))
	span.SetStatus(codes.Ok, "queue peeked")
	return users, nil
}

func (q *redisWaitQueue) Size(ctx context.Context) (int, error) {
	ctx, span := q.tracer.Start(ctx, "waitQueue.Size")
	defer span.End()

	size, err := q.client.LLen(ctx, queueListKey).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read queue size")
		return 0, translateRedisError(err, "failed to read queue size")
	}

	span.SetAttributes(attribute.Int64("queue.size", size))
	span.SetStatus(codes.Ok, "queue size read")
	return int(size), nil
}

func (q *redisWaitQueue) Remove(ctx context.Context, userID string) error {
	ctx, span := q.tracer.Start(ctx, "waitQueue.Remove")
	defer span.End()

	span.SetAttributes(attribute.String("user.id", userID))

	if err := removeScript.Run(ctx, q.client, q.keys(), userID).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to remove user")
		return translateRedisError(err, "failed to remove user from queue")
	}

	span.SetStatus(codes.Ok, "user removed")
	return nil
}

func (q *redisWaitQueue) Contains(ctx context.Context, userID string) (bool, error) {
	ctx, span := q.tracer.Start(ctx, "waitQueue.Contains")
	defer span.End()

	span.SetAttributes(attribute.String("user.id", userID))

	ok, err := q.client.SIsMember(ctx, queueSetKey, userID).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to check queue membership")
		return false, translateRedisError(err, "failed to check queue membership")
	}

	span.SetAttributes(attribute.Bool("queue.contains", ok))
	span.SetStatus(codes.Ok, "queue membership checked")
	return ok, nil
}

func translateRedisError(err error, msg string) error {
	return errors.Wrapf(model.ErrStorageUnavailable, "%s: %v", msg, err)
}

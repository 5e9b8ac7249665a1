package checkpoint

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/storieswithjai/ghostflow/pkg/flow"
)

// RedisStore is a Store backed by Redis, for deployments where sessions need
// to outlive a single process and a shared Redis already exists.
//
// Key structure:
//
//	<prefix>sess:<sessionKey> => gob-encoded redisCheckpointPayload
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ Store = (*RedisStore)(nil)

type redisCheckpointPayload struct {
	State  []byte
	Cursor []byte
}

// NewRedisStore creates a RedisStore.
// prefix is optional but recommended (e.g. "ghostflow:").
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "ghostflow:"
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
	}
}

func (s *RedisStore) key(sessionKey string) string {
	return s.prefix + "sess:" + sessionKey
}

func encodeRedisPayload(cp Checkpoint) ([]byte, error) {
	stateBytes, err := encodeState(cp.State)
	if err != nil {
		return nil, err
	}
	cursorBytes, err := encodeCursor(cp.Cursor)
	if err != nil {
		return nil, err
	}

	payload := redisCheckpointPayload{
		State:  stateBytes,
		Cursor: cursorBytes,
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&payload); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeRedisPayload(data []byte) (Checkpoint, error) {
	if len(data) == 0 {
		return Checkpoint{}, ErrNotFound
	}
	var payload redisCheckpointPayload
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&payload); err != nil {
		return Checkpoint{}, err
	}

	state, err := decodeState(payload.State)
	if err != nil {
		return Checkpoint{}, err
	}
	cursor, err := decodeCursor(payload.Cursor)
	if err != nil {
		return Checkpoint{}, err
	}

	return Checkpoint{State: state, Cursor: cursor}, nil
}

func (s *RedisStore) Get(ctx context.Context, sessionKey string) (Checkpoint, error) {
	data, err := s.client.Get(ctx, s.key(sessionKey)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Checkpoint{}, ErrNotFound
		}
		return Checkpoint{}, err
	}
	return decodeRedisPayload(data)
}

func (s *RedisStore) Put(ctx context.Context, sessionKey string, cp Checkpoint) error {
	data, err := encodeRedisPayload(cp)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(sessionKey), data, 0).Err()
}

func (s *RedisStore) PatchFields(ctx context.Context, sessionKey string, u flow.Update) (flow.State, error) {
	cp, err := s.Get(ctx, sessionKey)
	if err != nil {
		return flow.State{}, err
	}

	// Only the state half of the payload changes; the cursor is re-written
	// unmodified.
	cp.State = cp.State.Merge(u)

	if err := s.Put(ctx, sessionKey, cp); err != nil {
		return flow.State{}, err
	}
	return cp.State, nil
}

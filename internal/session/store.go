package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/redis/go-redis/v9"
)

// ErrStorageUnavailable wraps any failure of the token storage backend
// itself, as opposed to a token simply being absent.
var ErrStorageUnavailable = errors.New("session storage unavailable")

// TokenStore persists the session token under a fixed key.
type TokenStore interface {
	Token(ctx context.Context) (string, bool, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStorageUnavailable, op, err)
}

type MemoryStore struct {
	mu    sync.RWMutex
	token string
}

func NewMemoryStore(token string) *MemoryStore { return &MemoryStore{token: token} }

func (m *MemoryStore) Token(context.Context) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, m.token != "", nil
}

func (m *MemoryStore) Save(_ context.Context, token string) error {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context) error { return m.Save(ctx, "") }

// FileStore keeps tokens in a small JSON object on disk, keyed like the
// device's key-value storage would be.
type FileStore struct {
	Path string
	Key  string

	mu sync.Mutex
}

func NewFileStore(path, key string) *FileStore { return &FileStore{Path: path, Key: key} }

func (f *FileStore) read() (map[string]string, error) {
	b, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	m := map[string]string{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func (f *FileStore) write(m map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return err
	}
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(f.Path, b, 0o600)
}

func (f *FileStore) Token(context.Context) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, err := f.read()
	if err != nil {
		return "", false, unavailable("read", err)
	}
	tok := m[f.Key]
	return tok, tok != "", nil
}

func (f *FileStore) Save(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, err := f.read()
	if err != nil {
		return unavailable("read", err)
	}
	m[f.Key] = token
	if err := f.write(m); err != nil {
		return unavailable("write", err)
	}
	return nil
}

func (f *FileStore) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, err := f.read()
	if err != nil {
		return unavailable("read", err)
	}
	delete(m, f.Key)
	if err := f.write(m); err != nil {
		return unavailable("write", err)
	}
	return nil
}

// RedisStore keeps the token in a redis string.
type RedisStore struct {
	client redis.Cmdable
	key    string
}

func NewRedisStore(addr, password, key string) *RedisStore {
	return &RedisStore{client: redis.NewClient(&redis.Options{Addr: addr, Password: password}), key: key}
}

func NewRedisStoreFromClient(c redis.Cmdable, key string) *RedisStore {
	return &RedisStore{client: c, key: key}
}

func (r *RedisStore) Token(ctx context.Context) (string, bool, error) {
	v, err := r.client.Get(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, unavailable("get", err)
	}
	return v, v != "", nil
}

func (r *RedisStore) Save(ctx context.Context, token string) error {
	if err := r.client.Set(ctx, r.key, token, 0).Err(); err != nil {
		return unavailable("set", err)
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return unavailable("del", err)
	}
	return nil
}

// Close releases the underlying client when it owns one.
func (r *RedisStore) Close() error {
	if c, ok := r.client.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

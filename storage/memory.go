package storage

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/rushteam/servekit/core"
)

// MemoryStore 是内存实现的 ObjectStore，用于测试/开发/原型。
// 没有真实的加密能力：Put 时记录 kmsKeyID，便于测试断言加密参数被正确透传。
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]*object
}

type object struct {
	value    []byte
	kmsKeyID string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects: make(map[string]*object),
	}
}

func (m *MemoryStore) Name() string { return "memory" }

func (m *MemoryStore) Put(ctx context.Context, key string, value []byte, kmsKeyID ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	obj := &object{value: append([]byte(nil), value...)}
	if len(kmsKeyID) > 0 {
		obj.kmsKeyID = kmsKeyID[0]
	}
	m.objects[key] = obj
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[key]
	if !ok {
		return nil, core.ErrObjectNotFound
	}
	// 返回副本：调用方修改返回值不应影响存储内容
	return append([]byte(nil), obj.value...), nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.objects, key)
	return nil
}

func (m *MemoryStore) List(ctx context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0)
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryStore) Close() error { return nil }

// KMSKeyID 返回写入对象时记录的加密密钥 ID（仅测试用）。
func (m *MemoryStore) KMSKeyID(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[key]
	if !ok {
		return "", false
	}
	return obj.kmsKeyID, true
}

var _ core.ObjectStore = (*MemoryStore)(nil)

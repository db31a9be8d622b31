package store

import (
	"context"
	"os"
	"path/filepath"

	"github.com/Sreddy08840/agri-connect/core"
)

// FileStore 是目录后端的只读 Store：key 即目录下的文件名。
// 离线训练任务把模型制品写到共享目录，在线侧用它喂给 model.Loader。
// 写操作一律返回 ErrStoreNotSupported。
type FileStore struct {
	// Dir 是制品目录。
	Dir string
}

var _ core.Store = (*FileStore)(nil)

func (f *FileStore) Name() string { return "file" }

func (f *FileStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(f.Dir, filepath.Clean(key)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.ErrStoreNotFound
		}
		return nil, err
	}
	return data, nil
}

func (f *FileStore) Set(ctx context.Context, key string, value []byte, ttl ...int) error {
	return core.ErrStoreNotSupported
}

func (f *FileStore) Delete(ctx context.Context, key string) error {
	return core.ErrStoreNotSupported
}

func (f *FileStore) BatchGet(ctx context.Context, keys []string) (map[string][]byte, error) {
	result := make(map[string][]byte, len(keys))
	for _, k := range keys {
		data, err := f.Get(ctx, k)
		if err != nil {
			if core.IsStoreNotFound(err) {
				continue
			}
			return nil, err
		}
		result[k] = data
	}
	return result, nil
}

func (f *FileStore) BatchSet(ctx context.Context, kvs map[string][]byte, ttl ...int) error {
	return core.ErrStoreNotSupported
}

func (f *FileStore) Close() error { return nil }

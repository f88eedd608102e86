package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rushteam/servekit/core"
)

// S3Client S3 兼容协议客户端接口（不直接依赖具体 SDK，支持依赖注入）。
// S3 兼容协议支持 AWS S3、阿里云 OSS、腾讯云 COS、MinIO 等。
// sseKMSKeyID 非空时要求服务端以该 KMS 密钥做信封加密（SSE-KMS）。
type S3Client interface {
	// GetObject 获取对象内容
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error)

	// PutObject 写入对象，sseKMSKeyID 非空时启用 SSE-KMS 服务端加密
	PutObject(ctx context.Context, bucket, key string, body io.Reader, sseKMSKeyID string) error

	// DeleteObject 删除对象
	DeleteObject(ctx context.Context, bucket, key string) error

	// ListObjects 列出指定前缀下的对象 key
	ListObjects(ctx context.Context, bucket, prefix string) ([]string, error)
}

// ErrS3NotFound 由 S3Client 实现返回，表示对象不存在；S3Store 会将其
// 转换为统一的 core.ErrObjectNotFound。
var ErrS3NotFound = errors.New("s3: object not found")

// S3Store 是 S3 兼容对象存储实现的 ObjectStore。
// 加密数据落盘的生产路径：训练输入与模型产物都经由此存储，
// 信封加密（数据密钥由 KMS 管理）完全由存储服务端执行。
type S3Store struct {
	client S3Client
	bucket string

	// defaultKMSKeyID 是 Put 未显式指定密钥时使用的默认 KMS 密钥
	defaultKMSKeyID string
}

// NewS3Store 创建 S3 兼容对象存储。defaultKMSKeyID 可为空（不加密写入）。
func NewS3Store(client S3Client, bucket, defaultKMSKeyID string) *S3Store {
	return &S3Store{
		client:          client,
		bucket:          bucket,
		defaultKMSKeyID: defaultKMSKeyID,
	}
}

func (s *S3Store) Name() string { return "s3" }

func (s *S3Store) Put(ctx context.Context, key string, value []byte, kmsKeyID ...string) error {
	if s.client == nil {
		return fmt.Errorf("s3 client is not configured")
	}
	keyID := s.defaultKMSKeyID
	if len(kmsKeyID) > 0 {
		keyID = kmsKeyID[0]
	}
	if err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(value), keyID); err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

func (s *S3Store) Get(ctx context.Context, key string) ([]byte, error) {
	if s.client == nil {
		return nil, fmt.Errorf("s3 client is not configured")
	}
	reader, err := s.client.GetObject(ctx, s.bucket, key)
	if err != nil {
		if errors.Is(err, ErrS3NotFound) {
			return nil, core.ErrObjectNotFound
		}
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	return data, nil
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	if s.client == nil {
		return fmt.Errorf("s3 client is not configured")
	}
	return s.client.DeleteObject(ctx, s.bucket, key)
}

func (s *S3Store) List(ctx context.Context, prefix string) ([]string, error) {
	if s.client == nil {
		return nil, fmt.Errorf("s3 client is not configured")
	}
	return s.client.ListObjects(ctx, s.bucket, prefix)
}

func (s *S3Store) Close() error { return nil }

var _ core.ObjectStore = (*S3Store)(nil)

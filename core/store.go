package core

import "context"

// ObjectStore 是加密对象存储的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（storage）实现
//   - 遵循依赖倒置原则：领域层定义接口，基础设施层实现接口
//   - 加密由存储平台执行（服务端信封加密），本接口只透传密钥标识
//
// 使用场景：
//   - 训练/验证数据集上传（写入时指定 KMS 密钥 ID 即触发服务端加密）
//   - 训练产物（模型文件）读取
//
// 实现：
//   - storage.MemoryStore 实现此接口（测试/原型）
//   - storage.RedisStore 实现此接口（小对象暂存）
//   - storage.S3Store 实现此接口（S3 兼容对象存储，生产使用）
type ObjectStore interface {
	// Name 返回存储后端名称（用于日志/监控）
	Name() string

	// Put 写入对象。kmsKeyID 可选：非空时要求后端以该密钥做服务端加密，
	// 后端不支持加密时应返回 ErrEncryptionNotSupported。
	Put(ctx context.Context, key string, value []byte, kmsKeyID ...string) error

	// Get 读取对象内容（解密由存储平台完成，调用方拿到明文）
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete 删除对象
	Delete(ctx context.Context, key string) error

	// List 列出指定前缀下的对象 key
	List(ctx context.Context, prefix string) ([]string, error)

	// Close 关闭连接/释放资源
	Close() error
}

// ObjectStore 错误定义（使用统一的 DomainError）
var (
	// ErrObjectNotFound 表示对象不存在
	ErrObjectNotFound = NewDomainError(ModuleStorage, ErrorCodeNotFound, "storage: object not found")

	// ErrEncryptionNotSupported 表示后端不支持服务端加密
	ErrEncryptionNotSupported = NewDomainError(ModuleStorage, ErrorCodeNotSupported, "storage: server-side encryption not supported")
)

// IsObjectNotFound 检查错误是否为对象不存在
func IsObjectNotFound(err error) bool {
	if err == nil {
		return false
	}
	domainErr := GetDomainError(err)
	if domainErr != nil && domainErr.Module == ModuleStorage {
		return domainErr.Code == ErrorCodeNotFound
	}
	return false
}

package port

import (
	"context"

	"github-project-compare/internal/domain"
)

// RepositoryFetcher (侦察兵): 负责从 GitHub 拉取仓库元数据、目录和文件内容
type RepositoryFetcher interface {
	// 仓库不存在或返回非 2xx 时报错 (NOT_FOUND)
	GetRepository(ctx context.Context, owner, name string) (*domain.RepositorySummary, error)

	// 根目录列表
	ListContents(ctx context.Context, owner, name string) ([]domain.ContentEntry, error)

	// 子目录的一层列表
	ListDirectory(ctx context.Context, owner, name, path string) ([]domain.ContentEntry, error)

	// 下载原始文件内容，最多读取 limit 字节
	DownloadFile(ctx context.Context, downloadURL string, limit int64) (string, error)
}

// SignalExtractor 从仓库文件中提取代码信号；永远返回合法结果，不报错
type SignalExtractor interface {
	Extract(ctx context.Context, owner, repo string, listing []domain.ContentEntry) *domain.CodeAnalysis
}

// Generator (鉴定师): 调用 LLM 生成原始文本
type Generator interface {
	Generate(ctx context.Context, req domain.PromptRequest) (string, error)
}

// ComparisonCache 对比结果缓存，可以是进程内也可以是外部存储
type ComparisonCache interface {
	Get(ctx context.Context, key string) (*domain.ComparisonResult, bool, error)
	Put(ctx context.Context, key string, result *domain.ComparisonResult) error
	Size(ctx context.Context) (int, error)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github-project-compare/internal/common"
	"github-project-compare/internal/domain"
	"github-project-compare/internal/fallback"
	"github-project-compare/internal/parser"
	"github-project-compare/internal/port"
	"github-project-compare/internal/prompt"

	"github.com/sirupsen/logrus"
)

// 面向用户的错误信息
const (
	MsgMissingFields   = "GitHub username and two project names are required"
	MsgProjectNotFound = "One or both projects not found"
)

// ComparisonService 处理项目对比请求
type ComparisonService struct {
	fetcher   port.RepositoryFetcher
	extractor port.SignalExtractor
	generator port.Generator
	cache     port.ComparisonCache
}

// NewComparisonService 创建新的对比服务；generator 可以为 nil，此时直接走兜底合成
func NewComparisonService(
	fetcher port.RepositoryFetcher,
	extractor port.SignalExtractor,
	generator port.Generator,
	cache port.ComparisonCache,
) *ComparisonService {
	return &ComparisonService{
		fetcher:   fetcher,
		extractor: extractor,
		generator: generator,
		cache:     cache,
	}
}

// Compare 执行一次对比：
// 校验 → 查缓存 → 抓取仓库 → 提取信号 → 生成 → 解析 (失败则兜底) → 写缓存
func (s *ComparisonService) Compare(ctx context.Context, req domain.CompareRequest) (result *domain.ComparisonResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			logrus.Errorf("💥 对比流程异常: %v", r)
			result = nil
			err = common.NewError(common.ErrCodeInternal, fmt.Sprintf("unexpected panic: %v", r))
		}
	}()

	// 1. 校验
	user := strings.TrimSpace(req.GitHubUsername)
	p1 := strings.TrimSpace(req.Project1)
	p2 := strings.TrimSpace(req.Project2)
	if user == "" || p1 == "" || p2 == "" {
		return nil, common.NewError(common.ErrCodeInvalidInput, MsgMissingFields)
	}

	key := domain.CacheKey(user, p1, p2)
	log := logrus.WithFields(logrus.Fields{"user": user, "project1": p1, "project2": p2, "key": key})

	// 2. 查缓存，读失败按未命中处理
	if cached, ok, err := s.cache.Get(ctx, key); err != nil {
		log.Warnf("⚠️ 读取缓存失败，按未命中处理: %v", err)
	} else if ok {
		log.Info("⚡ 命中缓存")
		return cached, nil
	}

	// 3. 并行抓取两个仓库的元数据，任何一个失败都直接返回 404
	var (
		s1, s2     *domain.RepositorySummary
		err1, err2 error
	)
	common.RunBounded(ctx, 2, []func(context.Context){
		func(ctx context.Context) { s1, err1 = s.fetcher.GetRepository(ctx, user, p1) },
		func(ctx context.Context) { s2, err2 = s.fetcher.GetRepository(ctx, user, p2) },
	})
	if err := cancelled(ctx); err != nil {
		return nil, err
	}
	if fetchErr := errors.Join(err1, err2); fetchErr != nil || s1 == nil || s2 == nil {
		log.Warnf("🔍 仓库不存在或无法访问: %v", fetchErr)
		return nil, common.WrapError(common.ErrCodeNotFound, MsgProjectNotFound, fetchErr)
	}

	// 4. 并行获取根目录列表，失败降级为空列表
	common.RunBounded(ctx, 2, []func(context.Context){
		func(ctx context.Context) { s.listContents(ctx, user, s1) },
		func(ctx context.Context) { s.listContents(ctx, user, s2) },
	})
	if err := cancelled(ctx); err != nil {
		return nil, err
	}

	// 5. 并行提取代码信号，两边的提取互不影响
	a1, a2 := domain.EmptyCodeAnalysis(), domain.EmptyCodeAnalysis()
	common.RunBounded(ctx, 2, []func(context.Context){
		func(ctx context.Context) { a1 = s.extractor.Extract(ctx, user, p1, s1.Contents) },
		func(ctx context.Context) { a2 = s.extractor.Extract(ctx, user, p2, s2.Contents) },
	})
	if a1 == nil {
		a1 = domain.EmptyCodeAnalysis()
	}
	if a2 == nil {
		a2 = domain.EmptyCodeAnalysis()
	}
	if err := cancelled(ctx); err != nil {
		return nil, err
	}

	// 6. 生成 + 解析，失败一律走兜底
	result, ok := s.generate(ctx, log, s1, a1, s2, a2)
	if !ok {
		result = fallback.Synthesize(s1, a1, s2, a2)
		log.Info("🛟 使用兜底合成结果")
	}

	// 请求中途被取消时，信号和模型结果都可能不完整，不能写进缓存
	if err := cancelled(ctx); err != nil {
		log.Warn("⚠️ 请求已取消，丢弃本次结果")
		return nil, err
	}

	// 7. 写缓存；结果已通过结构校验，写失败不影响返回
	if err := s.cache.Put(ctx, key, result); err != nil {
		log.Warnf("⚠️ 写入缓存失败: %v", err)
	}

	log.WithField("winner", result.Winner.Name).Info("✅ 对比完成")
	return result, nil
}

// cancelled 请求被取消时返回 INTERNAL 错误
func cancelled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return common.WrapError(common.ErrCodeInternal, "request cancelled", err)
	}
	return nil
}

// listContents 根目录列表失败时降级为空列表
func (s *ComparisonService) listContents(ctx context.Context, user string, summary *domain.RepositorySummary) {
	contents, err := s.fetcher.ListContents(ctx, user, summary.Name)
	if err != nil {
		logrus.WithField("repo", summary.Name).Warnf("⚠️ 获取目录列表失败，按空目录处理: %v", err)
		contents = []domain.ContentEntry{}
	}
	summary.Contents = contents
}

// generate 调用模型并解析；任何失败都返回 ok=false，由调用方兜底
func (s *ComparisonService) generate(
	ctx context.Context,
	log *logrus.Entry,
	s1 *domain.RepositorySummary, a1 *domain.CodeAnalysis,
	s2 *domain.RepositorySummary, a2 *domain.CodeAnalysis,
) (*domain.ComparisonResult, bool) {
	if s.generator == nil {
		log.Debug("未配置模型，跳过生成")
		return nil, false
	}

	raw, err := s.generator.Generate(ctx, prompt.Build(s1, a1, s2, a2))
	if err != nil {
		log.Warnf("❌ 模型调用失败: %v", err)
		return nil, false
	}

	result, err := parser.ParseAndValidate(raw, s1.Name, s2.Name)
	if err != nil {
		log.Warnf("❌ 模型结果不可用: %v", err)
		return nil, false
	}
	log.Info("🤖 使用模型生成结果")
	return result, true
}

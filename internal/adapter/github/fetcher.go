package github

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github-project-compare/internal/common"
	"github-project-compare/internal/domain"

	"github.com/google/go-github/v53/github"
	"golang.org/x/oauth2"
)

// Fetcher 实现了 port.RepositoryFetcher 接口
type Fetcher struct {
	client *github.Client
}

// NewFetcher 初始化 GitHub 客户端
// token 为空时匿名访问，限制 60 次/小时
func NewFetcher(token string) *Fetcher {
	var client *github.Client

	if token == "" {
		client = github.NewClient(nil)
	} else {
		ctx := context.Background()
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		)
		tc := oauth2.NewClient(ctx, ts)
		client = github.NewClient(tc)
	}

	return &Fetcher{client: client}
}

// GetRepository 获取仓库元数据: GET /repos/{owner}/{name}
// GitHub 返回非 2xx 时归为 NOT_FOUND，网络层错误归为 GITHUB_API_ERROR
func (f *Fetcher) GetRepository(ctx context.Context, owner, name string) (*domain.RepositorySummary, error) {
	repo, resp, err := f.client.Repositories.Get(ctx, owner, name)
	if err != nil {
		if resp != nil {
			return nil, common.WrapError(common.ErrCodeNotFound,
				fmt.Sprintf("仓库 %s/%s 不存在 (状态码 %d)", owner, name, resp.StatusCode), err)
		}
		return nil, common.WrapError(common.ErrCodeGitHubAPI, "GitHub API 调用失败", err)
	}

	// 将 GitHub 的数据结构转换为我们的 Domain 实体
	return &domain.RepositorySummary{
		Name:        repo.GetName(),
		FullName:    repo.GetFullName(),
		Description: repo.GetDescription(),
		Language:    repo.GetLanguage(),
		Stars:       repo.GetStargazersCount(),
		Forks:       repo.GetForksCount(),
		Size:        repo.GetSize(),
		Topics:      append([]string{}, repo.Topics...),
		Homepage:    repo.GetHomepage(),
		HTMLURL:     repo.GetHTMLURL(),
		CreatedAt:   repo.GetCreatedAt().Time,
		UpdatedAt:   repo.GetUpdatedAt().Time,
		Contents:    []domain.ContentEntry{},
	}, nil
}

// ListContents 获取根目录列表: GET /repos/{owner}/{name}/contents
func (f *Fetcher) ListContents(ctx context.Context, owner, name string) ([]domain.ContentEntry, error) {
	return f.listing(ctx, fmt.Sprintf("repos/%s/%s/contents", url.PathEscape(owner), url.PathEscape(name)))
}

// ListDirectory 获取子目录的一层列表
func (f *Fetcher) ListDirectory(ctx context.Context, owner, name, path string) ([]domain.ContentEntry, error) {
	return f.listing(ctx, fmt.Sprintf("repos/%s/%s/contents/%s", url.PathEscape(owner), url.PathEscape(name), escapePath(path)))
}

func (f *Fetcher) listing(ctx context.Context, u string) ([]domain.ContentEntry, error) {
	req, err := f.client.NewRequest("GET", u, nil)
	if err != nil {
		return nil, fmt.Errorf("构造请求失败: %w", err)
	}

	var items []*github.RepositoryContent
	if _, err := f.client.Do(ctx, req, &items); err != nil {
		return nil, common.WrapError(common.ErrCodeGitHubAPI, "获取目录列表失败", err)
	}

	entries := make([]domain.ContentEntry, 0, len(items))
	for _, item := range items {
		entries = append(entries, domain.ContentEntry{
			Name:        item.GetName(),
			Path:        item.GetPath(),
			Type:        item.GetType(),
			Size:        item.GetSize(),
			DownloadURL: item.GetDownloadURL(),
			URL:         item.GetURL(),
		})
	}
	return entries, nil
}

// DownloadFile 读取 download_url 指向的原始内容，超过 limit 字节的部分直接丢弃
func (f *Fetcher) DownloadFile(ctx context.Context, downloadURL string, limit int64) (string, error) {
	if downloadURL == "" {
		return "", fmt.Errorf("download_url 为空")
	}

	req, err := f.client.NewRequest("GET", downloadURL, nil)
	if err != nil {
		return "", fmt.Errorf("构造请求失败: %w", err)
	}
	req.Header.Set("Accept", "*/*")

	resp, err := f.client.BareDo(ctx, req)
	if err != nil {
		return "", common.WrapError(common.ErrCodeGitHubAPI, "下载文件失败", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return "", fmt.Errorf("读取文件内容失败: %w", err)
	}
	return string(data), nil
}

func escapePath(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

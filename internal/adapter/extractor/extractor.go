package extractor

import (
	"context"
	"path"
	"sort"
	"strings"

	"github-project-compare/internal/common"
	"github-project-compare/internal/domain"
	"github-project-compare/internal/port"

	"github.com/sirupsen/logrus"
)

const (
	// MaxAnalyzedFiles 每个仓库最多分析的文件数
	MaxAnalyzedFiles = 8
	// MaxContentChars 写入 CodeAnalysis 的单文件内容上限
	MaxContentChars = 3000
	// maxDownloadBytes 单文件下载上限，清单文件按未截断内容解析
	maxDownloadBytes = 512 * 1024
)

// 优先级列表：清单文件和入口文件排在前面
var priorityFiles = []string{
	"package.json",
	"go.mod",
	"requirements.txt",
	"readme.md",
	"readme",
	"index.js",
	"index.ts",
	"main.py",
	"app.py",
	"main.go",
	"server.js",
	"app.js",
	"app.jsx",
	"app.tsx",
	"index.html",
	"dockerfile",
	"docker-compose.yml",
	"next.config.js",
	"vite.config.js",
	"tailwind.config.js",
}

var interestingExtensions = map[string]bool{
	".js": true, ".jsx": true, ".ts": true, ".tsx": true, ".mjs": true,
	".py": true, ".go": true, ".java": true, ".rb": true, ".php": true, ".rs": true,
	".vue": true, ".svelte": true,
	".css": true, ".scss": true, ".sass": true, ".less": true, ".html": true,
	".md": true, ".json": true, ".yml": true, ".yaml": true, ".toml": true,
}

var specialFiles = map[string]bool{
	"dockerfile": true, "makefile": true, "procfile": true,
	"requirements.txt": true, "go.mod": true, "readme": true,
}

var skippedFiles = map[string]bool{
	"package-lock.json": true, "yarn.lock": true, "pnpm-lock.yaml": true, "go.sum": true,
}

// Extractor 实现了 port.SignalExtractor 接口
type Extractor struct {
	fetcher    port.RepositoryFetcher
	batchLimit int
}

// NewExtractor 创建新的信号提取器
func NewExtractor(fetcher port.RepositoryFetcher) *Extractor {
	return &Extractor{
		fetcher:    fetcher,
		batchLimit: common.DefaultBatchLimit,
	}
}

// SetBatchLimit 设置单个仓库内文件抓取的并发上限
func (e *Extractor) SetBatchLimit(n int) {
	if n > 0 {
		e.batchLimit = n
	}
}

type probeKind int

const (
	probeComponents probeKind = iota
	probeAPIRoutes
)

type probe struct {
	entry domain.ContentEntry
	kind  probeKind
}

// fetched 单个抓取任务的结果，ok=false 表示抓取失败
type fetched struct {
	content string
	ok      bool
}

type listed struct {
	names []string
	ok    bool
}

// Extract 抽取代码信号。任何异常都降级为空的 CodeAnalysis，不向外抛出
func (e *Extractor) Extract(ctx context.Context, owner, repo string, listing []domain.ContentEntry) (analysis *domain.CodeAnalysis) {
	log := logrus.WithFields(logrus.Fields{"owner": owner, "repo": repo})
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("💥 提取代码信号异常，返回空分析: %v", r)
			analysis = domain.EmptyCodeAnalysis()
		}
	}()

	a := domain.EmptyCodeAnalysis()
	selected := selectFiles(listing)
	probes := probeTargets(listing)

	files := make([]fetched, len(selected))
	dirs := make([]listed, len(probes))

	// 文件下载和目录探测放在同一个有界批次里；结果按下标写回，和完成顺序无关
	tasks := make([]func(context.Context), 0, len(selected)+len(probes))
	for i, f := range selected {
		i, f := i, f
		tasks = append(tasks, func(ctx context.Context) {
			files[i] = e.download(ctx, f)
		})
	}
	for i, p := range probes {
		i, p := i, p
		tasks = append(tasks, func(ctx context.Context) {
			dirs[i] = e.probe(ctx, owner, repo, p.entry)
		})
	}
	common.RunBounded(ctx, e.batchLimit, tasks)

	for i, f := range selected {
		if !files[i].ok {
			continue
		}
		if m, ok := parseManifest(f.Name, files[i].content); ok {
			a.PackageManifest = m
			break
		}
	}
	if a.PackageManifest != nil {
		apply(dependencyHits(a.PackageManifest.Dependencies), a)
	}
	apply(fileNameHits(listing), a)

	readmeSeen := false
	for i, f := range selected {
		if !files[i].ok {
			continue
		}
		content := files[i].content
		size := f.Size
		if size == 0 {
			size = len(content)
		}
		a.ActualCode = append(a.ActualCode, domain.CodeFile{
			Filename:  f.Name,
			Content:   truncateRunes(content, MaxContentChars),
			Size:      size,
			Extension: strings.ToLower(path.Ext(f.Name)),
		})

		apply(contentHits(content), a)

		if !readmeSeen && isReadmeFile(f.Name) {
			readmeSeen = true
			rs := parseReadme(content)
			a.Title = rs.Title
			a.ProjectPurpose = rs.Purpose
			a.KeyFeatures = append(a.KeyFeatures, rs.Features...)
		}
	}

	for i, p := range probes {
		if !dirs[i].ok {
			continue
		}
		switch p.kind {
		case probeComponents:
			a.Components = append(a.Components, dirs[i].names...)
		case probeAPIRoutes:
			a.APIRoutes = append(a.APIRoutes, dirs[i].names...)
		}
	}

	log.WithFields(logrus.Fields{
		"files":    len(a.ActualCode),
		"features": len(a.KeyFeatures),
		"stack":    a.TechnologyStack.Breadth(),
	}).Debug("🔬 代码信号提取完成")
	return a
}

func (e *Extractor) download(ctx context.Context, f domain.ContentEntry) fetched {
	content, err := e.fetcher.DownloadFile(ctx, f.DownloadURL, maxDownloadBytes)
	if err != nil {
		logrus.WithField("file", f.Path).Debugf("⚠️ 下载文件失败，跳过: %v", err)
		return fetched{}
	}
	return fetched{content: content, ok: true}
}

func (e *Extractor) probe(ctx context.Context, owner, repo string, dir domain.ContentEntry) listed {
	dirPath := dir.Path
	if dirPath == "" {
		dirPath = dir.Name
	}
	entries, err := e.fetcher.ListDirectory(ctx, owner, repo, dirPath)
	if err != nil {
		logrus.WithField("dir", dirPath).Debugf("⚠️ 目录探测失败，跳过: %v", err)
		return listed{}
	}
	names := make([]string, 0, len(entries))
	for _, child := range entries {
		if child.IsFile() {
			names = append(names, child.Name)
		}
	}
	return listed{names: names, ok: true}
}

// selectFiles 过滤感兴趣的文件，按优先级稳定排序后取前 MaxAnalyzedFiles 个
func selectFiles(listing []domain.ContentEntry) []domain.ContentEntry {
	var candidates []domain.ContentEntry
	for _, entry := range listing {
		if entry.IsFile() && isInteresting(entry.Name) {
			candidates = append(candidates, entry)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return priorityOf(candidates[i].Name) < priorityOf(candidates[j].Name)
	})

	if len(candidates) > MaxAnalyzedFiles {
		candidates = candidates[:MaxAnalyzedFiles]
	}
	return candidates
}

func isInteresting(name string) bool {
	lower := strings.ToLower(name)
	if skippedFiles[lower] {
		return false
	}
	return specialFiles[lower] || interestingExtensions[path.Ext(lower)]
}

// priorityOf 不在优先级列表里的文件统一排在最后，保持原有相对顺序
func priorityOf(name string) int {
	lower := strings.ToLower(name)
	for i, p := range priorityFiles {
		if lower == p {
			return i
		}
	}
	return len(priorityFiles)
}

func probeTargets(listing []domain.ContentEntry) []probe {
	var probes []probe
	for _, entry := range listing {
		if !entry.IsDir() {
			continue
		}
		switch entry.Name {
		case "components", "src":
			probes = append(probes, probe{entry: entry, kind: probeComponents})
		case "api", "routes":
			probes = append(probes, probe{entry: entry, kind: probeAPIRoutes})
		}
	}
	return probes
}

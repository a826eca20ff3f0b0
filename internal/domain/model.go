package domain

import (
	"fmt"
	"strings"
	"time"
)

// CompareRequest 对应 POST /compare-projects 的请求体
type CompareRequest struct {
	GitHubUsername string `json:"github_username"`
	Project1       string `json:"project1"`
	Project2       string `json:"project2"`
}

// ContentEntry 仓库目录列表中的一项 (文件或目录)
type ContentEntry struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Type        string `json:"type"` // "file" / "dir"
	Size        int    `json:"size"`
	DownloadURL string `json:"download_url,omitempty"`
	URL         string `json:"url,omitempty"`
}

// IsFile 是否为普通文件
func (e ContentEntry) IsFile() bool { return e.Type == "file" }

// IsDir 是否为目录
func (e ContentEntry) IsDir() bool { return e.Type == "dir" }

// RepositorySummary 仓库元数据快照，每次请求只抓取一次
type RepositorySummary struct {
	Name        string         `json:"name"`
	FullName    string         `json:"full_name"`
	Description string         `json:"description"`
	Language    string         `json:"language"`
	Stars       int            `json:"stars"`
	Forks       int            `json:"forks"`
	Size        int            `json:"size"`
	Topics      []string       `json:"topics"`
	Homepage    string         `json:"homepage"`
	HTMLURL     string         `json:"html_url"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	Contents    []ContentEntry `json:"contents"`
}

// Manifest 从 package.json / go.mod / requirements.txt 解析出的依赖信息
type Manifest struct {
	Source       string            `json:"source"`
	Name         string            `json:"name,omitempty"`
	Dependencies map[string]string `json:"dependencies"`
}

// CodeFile 参与分析的单个文件 (内容已截断)
type CodeFile struct {
	Filename  string `json:"filename"`
	Content   string `json:"content"`
	Size      int    `json:"size"`
	Extension string `json:"extension"`
}

// TechnologyStack 五个技术栈分组，允许重复
type TechnologyStack struct {
	Frontend   []string `json:"frontend"`
	Backend    []string `json:"backend"`
	Database   []string `json:"database"`
	Deployment []string `json:"deployment"`
	Tools      []string `json:"tools"`
}

// NewTechnologyStack 返回各分组均为空切片的技术栈
func NewTechnologyStack() TechnologyStack {
	return TechnologyStack{
		Frontend:   []string{},
		Backend:    []string{},
		Database:   []string{},
		Deployment: []string{},
		Tools:      []string{},
	}
}

// Breadth 所有分组的条目总数
func (s TechnologyStack) Breadth() int {
	return len(s.Frontend) + len(s.Backend) + len(s.Database) + len(s.Deployment) + len(s.Tools)
}

// Clone 深拷贝
func (s TechnologyStack) Clone() TechnologyStack {
	return TechnologyStack{
		Frontend:   append([]string{}, s.Frontend...),
		Backend:    append([]string{}, s.Backend...),
		Database:   append([]string{}, s.Database...),
		Deployment: append([]string{}, s.Deployment...),
		Tools:      append([]string{}, s.Tools...),
	}
}

// CodeAnalysis 单个仓库的代码信号 (best-effort)
type CodeAnalysis struct {
	PackageManifest *Manifest       `json:"package_manifest,omitempty"`
	ActualCode      []CodeFile      `json:"actual_code"`
	Title           string          `json:"title"`
	ProjectPurpose  string          `json:"project_purpose"`
	KeyFeatures     []string        `json:"key_features"`
	TechnologyStack TechnologyStack `json:"technology_stack"`
	Components      []string        `json:"components"`
	APIRoutes       []string        `json:"api_routes"`
}

// EmptyCodeAnalysis 所有列表为空、所有字符串为空的合法分析结果
func EmptyCodeAnalysis() *CodeAnalysis {
	return &CodeAnalysis{
		ActualCode:      []CodeFile{},
		KeyFeatures:     []string{},
		TechnologyStack: NewTechnologyStack(),
		Components:      []string{},
		APIRoutes:       []string{},
	}
}

// PromptRequest 发给文本生成服务的请求
type PromptRequest struct {
	System          string
	Prompt          string
	Temperature     float32
	MaxOutputTokens int32
}

// DimensionScore 0-10 评分维度及其文字拆解
type DimensionScore struct {
	Score       int      `json:"score"`
	Analysis    string   `json:"analysis"`
	Factors     []string `json:"factors"`
	Suggestions []string `json:"suggestions"`
}

// ProjectAnalysis 单个项目的完整评估
type ProjectAnalysis struct {
	Name                  string          `json:"name"`
	Purpose               string          `json:"purpose"`
	ValueProposition      string          `json:"value_proposition"`
	TechStack             TechnologyStack `json:"tech_stack"`
	KeyFeatures           []string        `json:"key_features"`
	Strengths             []string        `json:"strengths"`
	ImprovementAreas      []string        `json:"improvement_areas"`
	MarketRelevance       DimensionScore  `json:"market_relevance"`
	UXComplexity          DimensionScore  `json:"ux_complexity"`
	TechnicalDepth        DimensionScore  `json:"technical_depth"`
	InnovationGap         DimensionScore  `json:"innovation_gap"`
	ExpertRecommendations []string        `json:"expert_recommendations"`
	LearningOpportunities []string        `json:"learning_opportunities"`
}

// Winner 胜出项目
type Winner struct {
	Name      string `json:"name"`
	Reasoning string `json:"reasoning"`
	Score     int    `json:"score"`
}

// CategoryComparison 单个对比维度
type CategoryComparison struct {
	Project1Analysis string `json:"project1_analysis"`
	Project2Analysis string `json:"project2_analysis"`
	Winner           string `json:"winner"`
}

// HeadToHead 四个维度的正面对比
type HeadToHead struct {
	TechnicalComplexity CategoryComparison `json:"technical_complexity"`
	UserExperience      CategoryComparison `json:"user_experience"`
	MarketPotential     CategoryComparison `json:"market_potential"`
	Innovation          CategoryComparison `json:"innovation"`
}

// ComparisonResult 对外返回的对比结果，也是缓存的单位
type ComparisonResult struct {
	Project1Analysis                 ProjectAnalysis `json:"project1_analysis"`
	Project2Analysis                 ProjectAnalysis `json:"project2_analysis"`
	Winner                           Winner          `json:"winner"`
	HeadToHeadAnalysis               HeadToHead      `json:"head_to_head_analysis"`
	ComparativeLearningOpportunities []string        `json:"comparative_learning_opportunities"`
	OverallRecommendation            string          `json:"overall_recommendation"`
}

// 分数范围
const (
	MinDimensionScore = 0
	MaxDimensionScore = 10
	MinWinnerScore    = 0
	MaxWinnerScore    = 100
)

// Validate 检查结果是否满足完整结构，返回第一个违反项
func (r *ComparisonResult) Validate() error {
	if r == nil {
		return fmt.Errorf("result is nil")
	}
	if err := r.Project1Analysis.validate("project1_analysis"); err != nil {
		return err
	}
	if err := r.Project2Analysis.validate("project2_analysis"); err != nil {
		return err
	}
	if blank(r.Winner.Name) {
		return fmt.Errorf("winner.name is empty")
	}
	if blank(r.Winner.Reasoning) {
		return fmt.Errorf("winner.reasoning is empty")
	}
	if r.Winner.Score < MinWinnerScore || r.Winner.Score > MaxWinnerScore {
		return fmt.Errorf("winner.score %d out of range [%d,%d]", r.Winner.Score, MinWinnerScore, MaxWinnerScore)
	}
	categories := []struct {
		name string
		c    CategoryComparison
	}{
		{"technical_complexity", r.HeadToHeadAnalysis.TechnicalComplexity},
		{"user_experience", r.HeadToHeadAnalysis.UserExperience},
		{"market_potential", r.HeadToHeadAnalysis.MarketPotential},
		{"innovation", r.HeadToHeadAnalysis.Innovation},
	}
	for _, cat := range categories {
		if blank(cat.c.Project1Analysis) || blank(cat.c.Project2Analysis) || blank(cat.c.Winner) {
			return fmt.Errorf("head_to_head_analysis.%s is incomplete", cat.name)
		}
	}
	if blank(r.OverallRecommendation) {
		return fmt.Errorf("overall_recommendation is empty")
	}
	return nil
}

// ValidateWinners 检查 winner.name 和各维度 winner 都是两个项目之一 (忽略大小写)
func (r *ComparisonResult) ValidateWinners(project1, project2 string) error {
	if r == nil {
		return fmt.Errorf("result is nil")
	}
	isProject := func(name string) bool {
		name = strings.TrimSpace(name)
		return strings.EqualFold(name, strings.TrimSpace(project1)) || strings.EqualFold(name, strings.TrimSpace(project2))
	}
	if !isProject(r.Winner.Name) {
		return fmt.Errorf("winner.name %q is neither %q nor %q", r.Winner.Name, project1, project2)
	}
	categories := map[string]string{
		"technical_complexity": r.HeadToHeadAnalysis.TechnicalComplexity.Winner,
		"user_experience":      r.HeadToHeadAnalysis.UserExperience.Winner,
		"market_potential":     r.HeadToHeadAnalysis.MarketPotential.Winner,
		"innovation":           r.HeadToHeadAnalysis.Innovation.Winner,
	}
	for _, name := range []string{"technical_complexity", "user_experience", "market_potential", "innovation"} {
		if !isProject(categories[name]) {
			return fmt.Errorf("head_to_head_analysis.%s.winner %q is neither %q nor %q", name, categories[name], project1, project2)
		}
	}
	return nil
}

func (p *ProjectAnalysis) validate(field string) error {
	if blank(p.Name) {
		return fmt.Errorf("%s.name is empty", field)
	}
	if blank(p.Purpose) {
		return fmt.Errorf("%s.purpose is empty", field)
	}
	dims := []struct {
		name string
		d    DimensionScore
	}{
		{"market_relevance", p.MarketRelevance},
		{"ux_complexity", p.UXComplexity},
		{"technical_depth", p.TechnicalDepth},
		{"innovation_gap", p.InnovationGap},
	}
	for _, dim := range dims {
		if dim.d.Score < MinDimensionScore || dim.d.Score > MaxDimensionScore {
			return fmt.Errorf("%s.%s.score %d out of range [%d,%d]", field, dim.name, dim.d.Score, MinDimensionScore, MaxDimensionScore)
		}
		if blank(dim.d.Analysis) {
			return fmt.Errorf("%s.%s.analysis is empty", field, dim.name)
		}
	}
	return nil
}

// Normalize 把 nil 切片替换为空切片，保证 JSON 中输出 [] 而不是 null
func (r *ComparisonResult) Normalize() {
	for _, p := range []*ProjectAnalysis{&r.Project1Analysis, &r.Project2Analysis} {
		p.TechStack = p.TechStack.Clone()
		p.KeyFeatures = nonNil(p.KeyFeatures)
		p.Strengths = nonNil(p.Strengths)
		p.ImprovementAreas = nonNil(p.ImprovementAreas)
		p.ExpertRecommendations = nonNil(p.ExpertRecommendations)
		p.LearningOpportunities = nonNil(p.LearningOpportunities)
		for _, d := range []*DimensionScore{&p.MarketRelevance, &p.UXComplexity, &p.TechnicalDepth, &p.InnovationGap} {
			d.Factors = nonNil(d.Factors)
			d.Suggestions = nonNil(d.Suggestions)
		}
	}
	r.ComparativeLearningOpportunities = nonNil(r.ComparativeLearningOpportunities)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github-project-compare/internal/domain"
)

// 生成参数：低温度，输出长度有上限
const (
	Temperature     float32 = 0.3
	MaxOutputTokens int32   = 4096
)

const systemInstruction = `You are a senior software architect and product strategist who reviews portfolio projects.
You compare two repositories using only the evidence provided (metadata, detected technology stack, README signals and code samples).
You always answer with a single JSON object and nothing else.`

// outputSchema 要求模型输出的结构，字段名与 domain.ComparisonResult 的 JSON tag 一一对应
const outputSchema = `{
  "project1_analysis": <PROJECT>,
  "project2_analysis": <PROJECT>,
  "winner": {"name": "<repository name>", "reasoning": "<why it wins>", "score": <integer 0-100>},
  "head_to_head_analysis": {
    "technical_complexity": <CATEGORY>,
    "user_experience": <CATEGORY>,
    "market_potential": <CATEGORY>,
    "innovation": <CATEGORY>
  },
  "comparative_learning_opportunities": ["<string>"],
  "overall_recommendation": "<string>"
}

<PROJECT> = {
  "name": "<repository name>",
  "purpose": "<string>",
  "value_proposition": "<string>",
  "tech_stack": {"frontend": [], "backend": [], "database": [], "deployment": [], "tools": []},
  "key_features": ["<string>"],
  "strengths": ["<string>"],
  "improvement_areas": ["<string>"],
  "market_relevance": <DIMENSION>,
  "ux_complexity": <DIMENSION>,
  "technical_depth": <DIMENSION>,
  "innovation_gap": <DIMENSION>,
  "expert_recommendations": ["<string>"],
  "learning_opportunities": ["<string>"]
}

<DIMENSION> = {"score": <integer 0-10>, "analysis": "<string>", "factors": ["<string>"], "suggestions": ["<string>"]}

<CATEGORY> = {"project1_analysis": "<string>", "project2_analysis": "<string>", "winner": "<repository name>"}`

// repositoryPayload 单个仓库发给模型的数据
type repositoryPayload struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Language    string               `json:"language"`
	Stars       int                  `json:"stars"`
	Forks       int                  `json:"forks"`
	Size        int                  `json:"size"`
	Topics      []string             `json:"topics"`
	Homepage    string               `json:"homepage"`
	CreatedAt   string               `json:"created_at"`
	UpdatedAt   string               `json:"updated_at"`
	RootEntries []string             `json:"root_entries"`
	Analysis    *domain.CodeAnalysis `json:"code_analysis"`
}

type comparisonPayload struct {
	Project1 repositoryPayload `json:"project1"`
	Project2 repositoryPayload `json:"project2"`
}

// Build 组装对比请求。纯函数，没有副作用，也没有失败路径
func Build(s1 *domain.RepositorySummary, a1 *domain.CodeAnalysis, s2 *domain.RepositorySummary, a2 *domain.CodeAnalysis) domain.PromptRequest {
	payload := comparisonPayload{
		Project1: toPayload(s1, a1),
		Project2: toPayload(s2, a2),
	}
	// 所有字段都是可编码的基础类型，Marshal 不会失败
	data, _ := json.MarshalIndent(payload, "", "  ")

	var b strings.Builder
	fmt.Fprintf(&b, "Compare the two GitHub projects \"%s\" and \"%s\".\n\n", payload.Project1.Name, payload.Project2.Name)
	b.WriteString("Project data:\n")
	b.Write(data)
	b.WriteString("\n\nScoring rules:\n")
	b.WriteString("- market_relevance, ux_complexity, technical_depth and innovation_gap scores are integers from 0 to 10.\n")
	b.WriteString("- winner.score is an integer from 0 to 100 and winner.name must be one of the two project names.\n")
	b.WriteString("- Every text field must be non-empty and grounded in the provided data.\n\n")
	b.WriteString("Respond with exactly this JSON structure, without markdown fences:\n")
	b.WriteString(outputSchema)
	b.WriteString("\n")

	return domain.PromptRequest{
		System:          systemInstruction,
		Prompt:          b.String(),
		Temperature:     Temperature,
		MaxOutputTokens: MaxOutputTokens,
	}
}

func toPayload(s *domain.RepositorySummary, a *domain.CodeAnalysis) repositoryPayload {
	if s == nil {
		s = &domain.RepositorySummary{}
	}
	if a == nil {
		a = domain.EmptyCodeAnalysis()
	}

	p := repositoryPayload{
		Name:        s.Name,
		Description: s.Description,
		Language:    s.Language,
		Stars:       s.Stars,
		Forks:       s.Forks,
		Size:        s.Size,
		Topics:      s.Topics,
		Homepage:    s.Homepage,
		RootEntries: make([]string, 0, len(s.Contents)),
		Analysis:    a,
	}
	if p.Topics == nil {
		p.Topics = []string{}
	}
	if !s.CreatedAt.IsZero() {
		p.CreatedAt = s.CreatedAt.Format("2006-01-02")
	}
	if !s.UpdatedAt.IsZero() {
		p.UpdatedAt = s.UpdatedAt.Format("2006-01-02")
	}
	for _, e := range s.Contents {
		name := e.Name
		if e.IsDir() {
			name += "/"
		}
		p.RootEntries = append(p.RootEntries, name)
	}
	return p
}

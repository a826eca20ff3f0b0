package fallback

import (
	"fmt"
	"regexp"
	"strings"

	"github-project-compare/internal/domain"
)

// 评分基准
const (
	baseDimensionScore = 4
	baseWinnerScore    = 60
	maxWinningScore    = 95
)

var (
	wordUI  = regexp.MustCompile(`(?i)\bui\b`)
	wordAPI = regexp.MustCompile(`(?i)\bapi\b`)
	wordAI  = regexp.MustCompile(`(?i)\bai\b`)
)

var stylingExtensions = map[string]bool{".css": true, ".scss": true, ".sass": true, ".less": true}

// signals 单个项目参与打分的所有计数
type signals struct {
	name     string
	purpose  string
	features int
	breadth  int
	files    int
	stars    int
	forks    int
	homepage bool

	summary  *domain.RepositorySummary
	analysis *domain.CodeAnalysis
}

func collect(s *domain.RepositorySummary, a *domain.CodeAnalysis, defaultName string) signals {
	if s == nil {
		s = &domain.RepositorySummary{}
	}
	if a == nil {
		a = domain.EmptyCodeAnalysis()
	}
	name := strings.TrimSpace(s.Name)
	if name == "" {
		name = defaultName
	}
	return signals{
		name:     name,
		purpose:  strings.TrimSpace(a.ProjectPurpose),
		features: len(a.KeyFeatures),
		breadth:  a.TechnologyStack.Breadth(),
		files:    len(a.ActualCode),
		stars:    s.Stars,
		forks:    s.Forks,
		homepage: strings.TrimSpace(s.Homepage) != "",
		summary:  s,
		analysis: a,
	}
}

// Synthesize 只根据两份代码信号和仓库元数据构造完整的对比结果。
// 不访问网络，没有错误路径，相同输入得到完全相同的输出
func Synthesize(s1 *domain.RepositorySummary, a1 *domain.CodeAnalysis, s2 *domain.RepositorySummary, a2 *domain.CodeAnalysis) *domain.ComparisonResult {
	p1 := collect(s1, a1, "Project 1")
	p2 := collect(s2, a2, "Project 2")

	r := &domain.ComparisonResult{
		Project1Analysis: analyzeProject(p1),
		Project2Analysis: analyzeProject(p2),
	}

	sum1, sum2 := weightedSum(p1), weightedSum(p2)
	winner, loser, winSum, loseSum := p1, p2, sum1, sum2
	if sum2 > sum1 {
		winner, loser, winSum, loseSum = p2, p1, sum2, sum1
	}
	r.Winner = domain.Winner{
		Name:      winner.name,
		Reasoning: winnerReasoning(winner, loser, winSum, loseSum),
		Score:     winningScore(p1, p2),
	}

	r.HeadToHeadAnalysis = domain.HeadToHead{
		TechnicalComplexity: compareCategory(p1, p2,
			r.Project1Analysis.TechnicalDepth.Score, r.Project2Analysis.TechnicalDepth.Score,
			"%s has a technical depth of %d/10 with %d backend, %d database and %d tooling entries.",
			func(p signals) (int, int, int) {
				st := p.analysis.TechnologyStack
				return len(st.Backend), len(st.Database), len(st.Tools)
			}),
		UserExperience: compareCategory(p1, p2,
			r.Project1Analysis.UXComplexity.Score, r.Project2Analysis.UXComplexity.Score,
			"%s has a UX complexity of %d/10 with %d frontend entries, %d features and %d analyzed files.",
			func(p signals) (int, int, int) {
				return len(p.analysis.TechnologyStack.Frontend), p.features, p.files
			}),
		MarketPotential: compareCategory(p1, p2,
			r.Project1Analysis.MarketRelevance.Score, r.Project2Analysis.MarketRelevance.Score,
			"%s has a market relevance of %d/10 with %d stars, %d forks and %d key features.",
			func(p signals) (int, int, int) { return p.stars, p.forks, p.features }),
		Innovation: compareCategory(p1, p2,
			r.Project1Analysis.InnovationGap.Score, r.Project2Analysis.InnovationGap.Score,
			"%s has an innovation score of %d/10 with %d key features, %d stack entries and %d analyzed files.",
			func(p signals) (int, int, int) { return p.features, p.breadth, p.files }),
	}

	r.ComparativeLearningOpportunities = comparativeLearning(p1, p2)
	r.OverallRecommendation = fmt.Sprintf(
		"Lead with %s in your portfolio: it scored %d against %d on the combined signal index. "+
			"Strengthen %s by documenting its purpose and adding %s.",
		winner.name, winSum, loseSum, loser.name, nextStep(loser))

	r.Normalize()
	return r
}

// weightedSum 胜者判定用的加权和，部署分组不计入
func weightedSum(p signals) int {
	st := p.analysis.TechnologyStack
	sum := 2*(len(st.Frontend)+len(st.Backend)) + len(st.Database) + len(st.Tools)
	sum += 3 * p.features
	sum += 2 * p.files
	if p.purpose != "" {
		sum += 5
	}
	sum += min(p.stars, 20)
	sum += min(p.forks, 10)
	if p.homepage {
		sum += 5
	}
	return sum
}

func winningScore(p1, p2 signals) int {
	score := baseWinnerScore +
		3*max(p1.features, p2.features) +
		2*max(p1.breadth, p2.breadth) +
		2*max(p1.files, p2.files)
	return min(score, maxWinningScore)
}

func analyzeProject(p signals) domain.ProjectAnalysis {
	purpose := p.purpose
	if purpose == "" {
		purpose = strings.TrimSpace(p.summary.Description)
	}
	if purpose == "" {
		purpose = fmt.Sprintf("%s is a %s repository with %d analyzed files.", p.name, languageOf(p), p.files)
	}

	return domain.ProjectAnalysis{
		Name:    p.name,
		Purpose: purpose,
		ValueProposition: fmt.Sprintf("%s combines %d technology stack entries with %d key features.",
			p.name, p.breadth, p.features),
		TechStack:             p.analysis.TechnologyStack.Clone(),
		KeyFeatures:           append([]string{}, p.analysis.KeyFeatures...),
		Strengths:             strengths(p),
		ImprovementAreas:      improvementAreas(p),
		MarketRelevance:       marketRelevance(p),
		UXComplexity:          uxComplexity(p),
		TechnicalDepth:        technicalDepth(p),
		InnovationGap:         innovationGap(p),
		ExpertRecommendations: expertRecommendations(p),
		LearningOpportunities: learningOpportunities(p),
	}
}

// scorer 累加分数并记录得分因素和改进建议
type scorer struct {
	score       int
	factors     []string
	suggestions []string
}

func newScorer() *scorer {
	return &scorer{score: baseDimensionScore, factors: []string{}, suggestions: []string{}}
}

func (s *scorer) add(ok bool, points int, factor, suggestion string) {
	if ok {
		s.score += points
		s.factors = append(s.factors, factor)
		return
	}
	s.suggestions = append(s.suggestions, suggestion)
}

func (s *scorer) result(analysis string) domain.DimensionScore {
	return domain.DimensionScore{
		Score:       clamp(s.score, domain.MinDimensionScore, domain.MaxDimensionScore),
		Analysis:    analysis,
		Factors:     s.factors,
		Suggestions: s.suggestions,
	}
}

func marketRelevance(p signals) domain.DimensionScore {
	s := newScorer()
	s.add(p.features > 3, 2, fmt.Sprintf("%d key features detected", p.features), "Document more user-facing features in the README")
	s.add(p.purpose != "", 1, "README states the project purpose", "Add an About section that states the problem being solved")
	s.add(p.homepage, 1, "Live homepage available", "Deploy a live demo and link it as the repository homepage")
	s.add(p.stars > 10, 1, fmt.Sprintf("%d stars show community interest", p.stars), "Share the project to attract stars")
	s.add(p.forks > 5, 1, fmt.Sprintf("%d forks show reuse", p.forks), "Add contribution guidelines to encourage forks")
	return s.result(fmt.Sprintf("%s scores %d/10 for market relevance based on %d features, %d stars and %d forks.",
		p.name, clamp(s.score, 0, 10), p.features, p.stars, p.forks))
}

func uxComplexity(p signals) domain.DimensionScore {
	st := p.analysis.TechnologyStack
	s := newScorer()
	s.add(anyLabel(st.Frontend, isReactFamily), 2, "React-based frontend", "Adopt a component framework such as React for the interface")
	s.add(anyLabel(st.Frontend, isMetaFramework), 1, "Meta-framework for routing and rendering", "Consider a meta-framework such as Next.js")
	s.add(hasStylingFile(p.analysis.ActualCode), 1, "Dedicated styling files", "Add dedicated stylesheets for a consistent look")
	s.add(anyLabel(p.analysis.KeyFeatures, mentionsInterface), 1, "Features focused on the user interface", "Describe the user interface features explicitly")
	s.add(anyLabel(st.Frontend, isUtilityCSS), 1, "Utility-first CSS framework", "Try a utility-first CSS framework such as Tailwind CSS")
	return s.result(fmt.Sprintf("%s scores %d/10 for UX complexity with %d frontend stack entries.",
		p.name, clamp(s.score, 0, 10), len(st.Frontend)))
}

func technicalDepth(p signals) domain.DimensionScore {
	st := p.analysis.TechnologyStack
	s := newScorer()
	s.add(len(st.Backend) > 0, 2, "Backend implementation present", "Add a backend service to handle business logic")
	s.add(len(st.Database) > 0, 1, "Persistent data storage", "Introduce a database for persistent state")
	s.add(len(st.Tools) > 2, 1, fmt.Sprintf("%d development tools configured", len(st.Tools)), "Add linting, testing and type-checking tools")
	s.add(p.files > 5, 1, fmt.Sprintf("%d source files analyzed", p.files), "Split the code into more focused modules")
	s.add(anyLabel(p.analysis.KeyFeatures, mentionsBackend), 1, "API or database features", "Expose functionality through a documented API")
	return s.result(fmt.Sprintf("%s scores %d/10 for technical depth with %d backend, %d database and %d tooling entries.",
		p.name, clamp(s.score, 0, 10), len(st.Backend), len(st.Database), len(st.Tools)))
}

func innovationGap(p signals) domain.DimensionScore {
	s := newScorer()
	s.add(p.features > 5, 2, fmt.Sprintf("Broad feature set of %d features", p.features), "Expand the feature set beyond the core use case")
	s.add(anyLabel(p.analysis.TechnologyStack.Frontend, isReactFamily), 1, "Modern React ecosystem", "Use a modern frontend ecosystem")
	s.add(mentionsAI(p.purpose), 2, "AI or machine learning focus", "Explore AI-assisted features that fit the project")
	s.add(anyLabel(p.analysis.KeyFeatures, mentionsRealtime), 1, "Real-time or interactive capabilities", "Add real-time or interactive capabilities")
	return s.result(fmt.Sprintf("%s scores %d/10 for innovation with %d key features.",
		p.name, clamp(s.score, 0, 10), p.features))
}

func strengths(p signals) []string {
	out := []string{}
	if p.breadth > 0 {
		out = append(out, fmt.Sprintf("Uses %d technology stack entries", p.breadth))
	}
	if p.features > 0 {
		out = append(out, fmt.Sprintf("Implements %d identifiable features", p.features))
	}
	if p.purpose != "" {
		out = append(out, "Clearly documented purpose")
	}
	if p.homepage {
		out = append(out, "Has a live deployment")
	}
	if len(out) == 0 {
		out = append(out, fmt.Sprintf("Compact %s codebase that is easy to extend", languageOf(p)))
	}
	return out
}

func improvementAreas(p signals) []string {
	out := []string{}
	if p.purpose == "" {
		out = append(out, "Add a README section describing the project purpose")
	}
	if p.features <= 3 {
		out = append(out, "Document the key features in the README")
	}
	if len(p.analysis.TechnologyStack.Tools) == 0 {
		out = append(out, "Add testing and linting tooling")
	}
	if len(p.analysis.TechnologyStack.Deployment) == 0 {
		out = append(out, "Add deployment configuration such as a Dockerfile")
	}
	if len(out) == 0 {
		out = append(out, "Expand automated test coverage")
	}
	return out
}

func expertRecommendations(p signals) []string {
	out := []string{
		fmt.Sprintf("Highlight the %d key features of %s with screenshots in the README", p.features, p.name),
	}
	if !p.homepage {
		out = append(out, "Publish a live demo and link it from the repository")
	}
	if len(p.analysis.TechnologyStack.Backend) == 0 {
		out = append(out, "Add a backend component to demonstrate full-stack skills")
	}
	return out
}

func learningOpportunities(p signals) []string {
	st := p.analysis.TechnologyStack
	out := []string{}
	if len(st.Database) == 0 {
		out = append(out, "Learn data modeling and persistence with a database")
	}
	if len(st.Deployment) == 0 {
		out = append(out, "Learn containerization and continuous deployment")
	}
	if len(st.Tools) <= 2 {
		out = append(out, "Learn automated testing and static analysis")
	}
	if len(out) == 0 {
		out = append(out, "Learn performance profiling and observability")
	}
	return out
}

// compareCategory 分数高者胜，平局归项目 1；counts 按模板顺序提供三个计数
func compareCategory(p1, p2 signals, score1, score2 int, format string, counts func(signals) (int, int, int)) domain.CategoryComparison {
	winner := p1.name
	if score2 > score1 {
		winner = p2.name
	}
	text := func(p signals, score int) string {
		a, b, c := counts(p)
		return fmt.Sprintf(format, p.name, score, a, b, c)
	}
	return domain.CategoryComparison{
		Project1Analysis: text(p1, score1),
		Project2Analysis: text(p2, score2),
		Winner:           winner,
	}
}

func winnerReasoning(winner, loser signals, winSum, loseSum int) string {
	if winSum == loseSum {
		return fmt.Sprintf("%s and %s tied at %d on the combined signal index; %s is selected as the first project.",
			winner.name, loser.name, winSum, winner.name)
	}
	return fmt.Sprintf("%s leads %s by %d to %d on the combined signal index: %d features, %d technology stack entries and %d analyzed files.",
		winner.name, loser.name, winSum, loseSum, winner.features, winner.breadth, winner.files)
}

func comparativeLearning(p1, p2 signals) []string {
	out := []string{
		fmt.Sprintf("Compare how %s (%d features) and %s (%d features) present their functionality",
			p1.name, p1.features, p2.name, p2.features),
	}
	if p1.breadth != p2.breadth {
		richer, other := p1, p2
		if p2.breadth > p1.breadth {
			richer, other = p2, p1
		}
		out = append(out, fmt.Sprintf("Study the %d-entry stack of %s to broaden %s", richer.breadth, richer.name, other.name))
	}
	out = append(out, "Apply consistent documentation and deployment practices across both projects")
	return out
}

func nextStep(p signals) string {
	switch {
	case len(p.analysis.TechnologyStack.Backend) == 0:
		return "a backend service"
	case len(p.analysis.TechnologyStack.Deployment) == 0:
		return "deployment configuration"
	case len(p.analysis.TechnologyStack.Tools) <= 2:
		return "automated testing"
	default:
		return "more user-facing features"
	}
}

func languageOf(p signals) string {
	if l := strings.TrimSpace(p.summary.Language); l != "" {
		return l
	}
	return "software"
}

func anyLabel(labels []string, pred func(string) bool) bool {
	for _, l := range labels {
		if pred(l) {
			return true
		}
	}
	return false
}

func isReactFamily(label string) bool {
	lower := strings.ToLower(label)
	return strings.Contains(lower, "react") || lower == "next.js"
}

func isMetaFramework(label string) bool {
	switch strings.ToLower(label) {
	case "next.js", "nuxt.js":
		return true
	}
	return false
}

func isUtilityCSS(label string) bool {
	return strings.Contains(strings.ToLower(label), "tailwind")
}

func hasStylingFile(files []domain.CodeFile) bool {
	for _, f := range files {
		lower := strings.ToLower(f.Filename)
		if stylingExtensions[f.Extension] || strings.Contains(lower, "style") || strings.Contains(lower, "tailwind") {
			return true
		}
	}
	return false
}

func mentionsInterface(label string) bool {
	return wordUI.MatchString(label) || strings.Contains(strings.ToLower(label), "interface")
}

func mentionsBackend(label string) bool {
	return wordAPI.MatchString(label) || strings.Contains(strings.ToLower(label), "database")
}

func mentionsRealtime(label string) bool {
	lower := strings.ToLower(label)
	return strings.Contains(lower, "real-time") || strings.Contains(lower, "interactive")
}

func mentionsAI(text string) bool {
	return wordAI.MatchString(text) || strings.Contains(strings.ToLower(text), "machine learning")
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

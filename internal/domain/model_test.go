package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDimension(score int) DimensionScore {
	return DimensionScore{Score: score, Analysis: "solid"}
}

func validProject(name string) ProjectAnalysis {
	return ProjectAnalysis{
		Name:            name,
		Purpose:         "does things",
		MarketRelevance: validDimension(6),
		UXComplexity:    validDimension(5),
		TechnicalDepth:  validDimension(7),
		InnovationGap:   validDimension(4),
	}
}

func validResult() *ComparisonResult {
	cat := CategoryComparison{Project1Analysis: "a", Project2Analysis: "b", Winner: "alpha"}
	return &ComparisonResult{
		Project1Analysis: validProject("alpha"),
		Project2Analysis: validProject("beta"),
		Winner:           Winner{Name: "alpha", Reasoning: "more features", Score: 80},
		HeadToHeadAnalysis: HeadToHead{
			TechnicalComplexity: cat,
			UserExperience:      cat,
			MarketPotential:     cat,
			Innovation:          cat,
		},
		OverallRecommendation: "keep building",
	}
}

func TestComparisonResult_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *ComparisonResult)
		wantErr string
	}{
		{name: "complete result", mutate: func(r *ComparisonResult) {}},
		{
			name:    "missing project name",
			mutate:  func(r *ComparisonResult) { r.Project1Analysis.Name = "" },
			wantErr: "project1_analysis.name is empty",
		},
		{
			name:    "dimension score too high",
			mutate:  func(r *ComparisonResult) { r.Project2Analysis.TechnicalDepth.Score = 11 },
			wantErr: "project2_analysis.technical_depth.score 11 out of range",
		},
		{
			name:    "negative dimension score",
			mutate:  func(r *ComparisonResult) { r.Project1Analysis.UXComplexity.Score = -1 },
			wantErr: "project1_analysis.ux_complexity.score -1 out of range",
		},
		{
			name:    "missing dimension analysis",
			mutate:  func(r *ComparisonResult) { r.Project1Analysis.InnovationGap = DimensionScore{} },
			wantErr: "project1_analysis.innovation_gap.analysis is empty",
		},
		{
			name:    "winner score above 100",
			mutate:  func(r *ComparisonResult) { r.Winner.Score = 101 },
			wantErr: "winner.score 101 out of range",
		},
		{
			name:    "blank winner name",
			mutate:  func(r *ComparisonResult) { r.Winner.Name = "   " },
			wantErr: "winner.name is empty",
		},
		{
			name:    "incomplete head to head",
			mutate:  func(r *ComparisonResult) { r.HeadToHeadAnalysis.MarketPotential.Winner = "" },
			wantErr: "head_to_head_analysis.market_potential is incomplete",
		},
		{
			name:    "missing overall recommendation",
			mutate:  func(r *ComparisonResult) { r.OverallRecommendation = "" },
			wantErr: "overall_recommendation is empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validResult()
			tt.mutate(r)
			err := r.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestComparisonResult_ValidateNil(t *testing.T) {
	var r *ComparisonResult
	assert.Error(t, r.Validate())
}

func TestComparisonResult_ValidateWinners(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *ComparisonResult)
		wantErr string
	}{
		{name: "winner is project1", mutate: func(r *ComparisonResult) {}},
		{name: "winner is project2", mutate: func(r *ComparisonResult) { r.Winner.Name = "beta" }},
		{name: "case and spaces ignored", mutate: func(r *ComparisonResult) { r.Winner.Name = " Beta " }},
		{
			name:    "unknown winner",
			mutate:  func(r *ComparisonResult) { r.Winner.Name = "Project A" },
			wantErr: `winner.name "Project A" is neither "alpha" nor "beta"`,
		},
		{
			name:    "unknown category winner",
			mutate:  func(r *ComparisonResult) { r.HeadToHeadAnalysis.MarketPotential.Winner = "tie" },
			wantErr: `head_to_head_analysis.market_potential.winner "tie"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validResult()
			tt.mutate(r)

			err := r.ValidateWinners("alpha", "beta")

			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestComparisonResult_NormalizeEmitsEmptyArrays(t *testing.T) {
	r := validResult()
	r.Normalize()

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "null")
	assert.Contains(t, string(data), `"comparative_learning_opportunities":[]`)
}

func TestEmptyCodeAnalysis(t *testing.T) {
	a := EmptyCodeAnalysis()

	assert.Nil(t, a.PackageManifest)
	assert.Empty(t, a.ActualCode)
	assert.NotNil(t, a.ActualCode)
	assert.Empty(t, a.KeyFeatures)
	assert.Empty(t, a.ProjectPurpose)
	assert.Equal(t, 0, a.TechnologyStack.Breadth())
	assert.NotNil(t, a.TechnologyStack.Deployment)
	assert.NotNil(t, a.Components)
	assert.NotNil(t, a.APIRoutes)
}

func TestTechnologyStack_CloneIsIndependent(t *testing.T) {
	s := NewTechnologyStack()
	s.Frontend = append(s.Frontend, "React")

	c := s.Clone()
	c.Frontend[0] = "Vue.js"

	assert.Equal(t, "React", s.Frontend[0])
	assert.Equal(t, 1, c.Breadth())
}

func TestContentEntry_Kind(t *testing.T) {
	assert.True(t, ContentEntry{Type: "file"}.IsFile())
	assert.True(t, ContentEntry{Type: "dir"}.IsDir())
	assert.False(t, ContentEntry{Type: "symlink"}.IsFile())
}

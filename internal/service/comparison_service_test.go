package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github-project-compare/internal/adapter/cache"
	"github-project-compare/internal/common"
	"github-project-compare/internal/domain"
	"github-project-compare/internal/fallback"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Mock implementations for testing
type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) GetRepository(ctx context.Context, owner, name string) (*domain.RepositorySummary, error) {
	args := m.Called(ctx, owner, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RepositorySummary), args.Error(1)
}

func (m *MockFetcher) ListContents(ctx context.Context, owner, name string) ([]domain.ContentEntry, error) {
	args := m.Called(ctx, owner, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ContentEntry), args.Error(1)
}

func (m *MockFetcher) ListDirectory(ctx context.Context, owner, name, path string) ([]domain.ContentEntry, error) {
	args := m.Called(ctx, owner, name, path)
	return args.Get(0).([]domain.ContentEntry), args.Error(1)
}

func (m *MockFetcher) DownloadFile(ctx context.Context, downloadURL string, limit int64) (string, error) {
	args := m.Called(ctx, downloadURL, limit)
	return args.String(0), args.Error(1)
}

type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Extract(ctx context.Context, owner, repo string, listing []domain.ContentEntry) *domain.CodeAnalysis {
	args := m.Called(ctx, owner, repo, listing)
	return args.Get(0).(*domain.CodeAnalysis)
}

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, req domain.PromptRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) (*domain.ComparisonResult, bool, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.ComparisonResult), args.Bool(1), args.Error(2)
}

func (m *MockCache) Put(ctx context.Context, key string, result *domain.ComparisonResult) error {
	args := m.Called(ctx, key, result)
	return args.Error(0)
}

func (m *MockCache) Size(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

var validRequest = domain.CompareRequest{GitHubUsername: "alice", Project1: "todo-app", Project2: "chat-server"}

func summary(name string) *domain.RepositorySummary {
	return &domain.RepositorySummary{Name: name, Language: "JavaScript", Stars: 4}
}

func reactAnalysis() *domain.CodeAnalysis {
	a := domain.EmptyCodeAnalysis()
	a.TechnologyStack.Frontend = []string{"React"}
	a.KeyFeatures = []string{"Drag and drop"}
	return a
}

// happyFetcher 两个仓库都存在、目录列表正常
func happyFetcher() *MockFetcher {
	f := new(MockFetcher)
	listing := []domain.ContentEntry{{Name: "package.json", Type: "file"}}
	f.On("GetRepository", mock.Anything, "alice", "todo-app").Return(summary("todo-app"), nil)
	f.On("GetRepository", mock.Anything, "alice", "chat-server").Return(summary("chat-server"), nil)
	f.On("ListContents", mock.Anything, "alice", mock.Anything).Return(listing, nil)
	return f
}

func happyExtractor() *MockExtractor {
	e := new(MockExtractor)
	e.On("Extract", mock.Anything, "alice", mock.Anything, mock.Anything).Return(reactAnalysis())
	return e
}

func TestCompare_MissingFields(t *testing.T) {
	tests := []struct {
		name string
		req  domain.CompareRequest
	}{
		{name: "empty username", req: domain.CompareRequest{GitHubUsername: "", Project1: "a", Project2: "b"}},
		{name: "empty project1", req: domain.CompareRequest{GitHubUsername: "alice", Project1: "", Project2: "b"}},
		{name: "whitespace project2", req: domain.CompareRequest{GitHubUsername: "alice", Project1: "a", Project2: "   "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := new(MockFetcher)
			svc := NewComparisonService(fetcher, new(MockExtractor), nil, cache.NewMemoryCache(0))

			result, err := svc.Compare(context.Background(), tt.req)

			assert.Nil(t, result)
			assert.Equal(t, common.ErrCodeInvalidInput, common.CodeOf(err))
			assert.Equal(t, MsgMissingFields, common.MessageOf(err))
			fetcher.AssertNotCalled(t, "GetRepository", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestCompare_RepositoryNotFound(t *testing.T) {
	fetcher := new(MockFetcher)
	fetcher.On("GetRepository", mock.Anything, "alice", "todo-app").Return(summary("todo-app"), nil)
	fetcher.On("GetRepository", mock.Anything, "alice", "chat-server").
		Return(nil, common.NewError(common.ErrCodeNotFound, "仓库不存在"))
	extractor := new(MockExtractor)
	memory := cache.NewMemoryCache(0)
	svc := NewComparisonService(fetcher, extractor, nil, memory)

	result, err := svc.Compare(context.Background(), validRequest)

	assert.Nil(t, result)
	assert.Equal(t, common.ErrCodeNotFound, common.CodeOf(err))
	assert.Equal(t, MsgProjectNotFound, common.MessageOf(err))

	size, _ := memory.Size(context.Background())
	assert.Equal(t, 0, size)
	_, found, _ := memory.Get(context.Background(), domain.CacheKey("alice", "todo-app", "chat-server"))
	assert.False(t, found)
	extractor.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	fetcher.AssertNotCalled(t, "ListContents", mock.Anything, mock.Anything, mock.Anything)
}

func TestCompare_SecondCallIsServedFromCache(t *testing.T) {
	fetcher := happyFetcher()
	svc := NewComparisonService(fetcher, happyExtractor(), nil, cache.NewMemoryCache(0))

	first, err := svc.Compare(context.Background(), validRequest)
	require.NoError(t, err)
	second, err := svc.Compare(context.Background(), validRequest)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	fetcher.AssertNumberOfCalls(t, "GetRepository", 2)
	fetcher.AssertNumberOfCalls(t, "ListContents", 2)
}

func TestCompare_UsesModelResultWhenValid(t *testing.T) {
	modelResult := fallback.Synthesize(summary("todo-app"), reactAnalysis(), summary("chat-server"), reactAnalysis())
	modelResult.Winner.Reasoning = "model reasoning"
	raw, err := json.Marshal(modelResult)
	require.NoError(t, err)

	generator := new(MockGenerator)
	generator.On("Generate", mock.Anything, mock.MatchedBy(func(req domain.PromptRequest) bool {
		return req.Temperature > 0 && req.MaxOutputTokens > 0 && req.Prompt != ""
	})).Return("```json\n"+string(raw)+"\n```", nil)

	memory := cache.NewMemoryCache(0)
	svc := NewComparisonService(happyFetcher(), happyExtractor(), generator, memory)

	result, err := svc.Compare(context.Background(), validRequest)

	require.NoError(t, err)
	assert.Equal(t, "model reasoning", result.Winner.Reasoning)
	generator.AssertExpectations(t)

	cached, found, _ := memory.Get(context.Background(), domain.CacheKey("alice", "todo-app", "chat-server"))
	require.True(t, found)
	assert.Equal(t, "model reasoning", cached.Winner.Reasoning)
}

func TestCompare_FallsBackOnGeneratorFailure(t *testing.T) {
	tests := []struct {
		name   string
		output string
		err    error
	}{
		{name: "generator error", err: common.NewError(common.ErrCodeUpstreamCall, "timeout")},
		{name: "no JSON", output: "I cannot compare these projects."},
		{name: "incomplete JSON", output: `{"winner": {"name": "todo-app", "score": 80}}`},
		{name: "score out of range", output: `{"project1_analysis": {"name": "x", "market_relevance": {"score": 42}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			generator := new(MockGenerator)
			generator.On("Generate", mock.Anything, mock.Anything).Return(tt.output, tt.err)
			memory := cache.NewMemoryCache(0)
			svc := NewComparisonService(happyFetcher(), happyExtractor(), generator, memory)

			result, err := svc.Compare(context.Background(), validRequest)

			require.NoError(t, err)
			require.NoError(t, result.Validate())
			expected := fallback.Synthesize(summary("todo-app"), reactAnalysis(), summary("chat-server"), reactAnalysis())
			// 目录列表在流程中被写回 summary，兜底只依赖计数，结果应一致
			assert.Equal(t, expected.Winner, result.Winner)
			assert.Equal(t, expected.Project1Analysis.UXComplexity, result.Project1Analysis.UXComplexity)

			size, _ := memory.Size(context.Background())
			assert.Equal(t, 1, size)
		})
	}
}

func TestCompare_NilGeneratorGoesStraightToFallback(t *testing.T) {
	svc := NewComparisonService(happyFetcher(), happyExtractor(), nil, cache.NewMemoryCache(0))

	result, err := svc.Compare(context.Background(), validRequest)

	require.NoError(t, err)
	assert.Equal(t, "todo-app", result.Winner.Name)
	assert.Equal(t, 6, result.Project1Analysis.UXComplexity.Score)
}

func TestCompare_ListingFailureDegradesToEmpty(t *testing.T) {
	fetcher := new(MockFetcher)
	fetcher.On("GetRepository", mock.Anything, "alice", "todo-app").Return(summary("todo-app"), nil)
	fetcher.On("GetRepository", mock.Anything, "alice", "chat-server").Return(summary("chat-server"), nil)
	fetcher.On("ListContents", mock.Anything, "alice", "todo-app").Return(nil, errors.New("rate limited"))
	fetcher.On("ListContents", mock.Anything, "alice", "chat-server").
		Return([]domain.ContentEntry{{Name: "main.go", Type: "file"}}, nil)

	extractor := new(MockExtractor)
	extractor.On("Extract", mock.Anything, "alice", "todo-app", []domain.ContentEntry{}).
		Return(domain.EmptyCodeAnalysis())
	extractor.On("Extract", mock.Anything, "alice", "chat-server", []domain.ContentEntry{{Name: "main.go", Type: "file"}}).
		Return(reactAnalysis())

	svc := NewComparisonService(fetcher, extractor, nil, cache.NewMemoryCache(0))

	result, err := svc.Compare(context.Background(), validRequest)

	require.NoError(t, err)
	assert.Equal(t, "chat-server", result.Winner.Name)
	extractor.AssertExpectations(t)
}

func TestCompare_CacheErrorsAreNotFatal(t *testing.T) {
	mc := new(MockCache)
	mc.On("Get", mock.Anything, mock.Anything).Return(nil, false, errors.New("db down"))
	mc.On("Put", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("db down"))
	fetcher := happyFetcher()
	svc := NewComparisonService(fetcher, happyExtractor(), nil, mc)

	result, err := svc.Compare(context.Background(), validRequest)

	require.NoError(t, err)
	assert.NotNil(t, result)
	fetcher.AssertNumberOfCalls(t, "GetRepository", 2)
	mc.AssertExpectations(t)
}

func TestCompare_CacheKeyUsesTrimmedFields(t *testing.T) {
	mc := new(MockCache)
	key := domain.CacheKey("alice", "todo-app", "chat-server")
	hit := &domain.ComparisonResult{Winner: domain.Winner{Name: "cached"}}
	mc.On("Get", mock.Anything, key).Return(hit, true, nil)
	svc := NewComparisonService(new(MockFetcher), new(MockExtractor), nil, mc)

	result, err := svc.Compare(context.Background(),
		domain.CompareRequest{GitHubUsername: " alice ", Project1: "todo-app", Project2: "chat-server\n"})

	require.NoError(t, err)
	assert.Same(t, hit, result)
	mc.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything)
}

func TestCompare_PanicBecomesInternalError(t *testing.T) {
	fetcher := new(MockFetcher)
	fetcher.On("GetRepository", mock.Anything, "alice", mock.Anything).
		Run(func(args mock.Arguments) { panic("nil pointer in client") }).
		Return(summary("x"), nil)
	svc := NewComparisonService(fetcher, new(MockExtractor), nil, cache.NewMemoryCache(0))

	result, err := svc.Compare(context.Background(), validRequest)

	assert.Nil(t, result)
	assert.Equal(t, common.ErrCodeInternal, common.CodeOf(err))
}

func TestCompare_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fetcher := new(MockFetcher)
	svc := NewComparisonService(fetcher, new(MockExtractor), nil, cache.NewMemoryCache(0))

	result, err := svc.Compare(ctx, validRequest)

	assert.Nil(t, result)
	assert.Equal(t, common.ErrCodeInternal, common.CodeOf(err))
	fetcher.AssertNotCalled(t, "GetRepository", mock.Anything, mock.Anything, mock.Anything)
}

func TestCompare_CancelledDuringListingIsNotCached(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fetcher := new(MockFetcher)
	fetcher.On("GetRepository", mock.Anything, "alice", "todo-app").Return(summary("todo-app"), nil)
	fetcher.On("GetRepository", mock.Anything, "alice", "chat-server").Return(summary("chat-server"), nil)
	fetcher.On("ListContents", mock.Anything, "alice", mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return([]domain.ContentEntry{}, nil)
	extractor := new(MockExtractor)
	memory := cache.NewMemoryCache(0)
	svc := NewComparisonService(fetcher, extractor, nil, memory)

	result, err := svc.Compare(ctx, validRequest)

	assert.Nil(t, result)
	assert.Equal(t, common.ErrCodeInternal, common.CodeOf(err))
	assert.ErrorIs(t, err, context.Canceled)
	extractor.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	size, _ := memory.Size(context.Background())
	assert.Equal(t, 0, size)

	// 下一次正常请求重新计算，拿到完整的信号
	healthy := happyExtractor()
	svc = NewComparisonService(happyFetcher(), healthy, nil, memory)

	result, err = svc.Compare(context.Background(), validRequest)

	require.NoError(t, err)
	healthy.AssertNumberOfCalls(t, "Extract", 2)
	assert.Contains(t, result.Project1Analysis.TechStack.Frontend, "React")
	size, _ = memory.Size(context.Background())
	assert.Equal(t, 1, size)
}

func TestCompare_CancelledDuringGenerationIsNotCached(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	generator := new(MockGenerator)
	generator.On("Generate", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return("", context.Canceled)
	mc := new(MockCache)
	mc.On("Get", mock.Anything, mock.Anything).Return(nil, false, nil)
	svc := NewComparisonService(happyFetcher(), happyExtractor(), generator, mc)

	result, err := svc.Compare(ctx, validRequest)

	assert.Nil(t, result)
	assert.Equal(t, common.ErrCodeInternal, common.CodeOf(err))
	mc.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything)
}

func TestCompare_ModelWinnerOutsideComparisonFallsBack(t *testing.T) {
	modelResult := fallback.Synthesize(summary("todo-app"), reactAnalysis(), summary("chat-server"), reactAnalysis())
	modelResult.Winner.Name = "Project A"
	modelResult.Winner.Reasoning = "model reasoning"
	raw, err := json.Marshal(modelResult)
	require.NoError(t, err)

	generator := new(MockGenerator)
	generator.On("Generate", mock.Anything, mock.Anything).Return(string(raw), nil)
	svc := NewComparisonService(happyFetcher(), happyExtractor(), generator, cache.NewMemoryCache(0))

	result, err := svc.Compare(context.Background(), validRequest)

	require.NoError(t, err)
	assert.Equal(t, "todo-app", result.Winner.Name)
	assert.NotEqual(t, "model reasoning", result.Winner.Reasoning)
}

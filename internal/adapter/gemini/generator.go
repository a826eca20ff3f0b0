package gemini

import (
	"context"
	"fmt"
	"strings"

	"github-project-compare/internal/common"
	"github-project-compare/internal/domain"

	"github.com/google/generative-ai-go/genai"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

// DefaultModel 未配置 GEMINI_MODEL 时使用的模型
const DefaultModel = "gemini-2.5-flash-lite"

// Generator 实现了 port.Generator 接口
type Generator struct {
	client    *genai.Client
	modelName string
}

// NewGenerator 创建 Gemini 客户端
func NewGenerator(ctx context.Context, apiKey, modelName string, opts ...option.ClientOption) (*Generator, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY 未设置")
	}
	if modelName == "" {
		modelName = DefaultModel
	}

	client, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("创建 Gemini 客户端失败: %w", err)
	}

	return &Generator{client: client, modelName: modelName}, nil
}

// Generate 发送一次请求，返回模型原文
func (g *Generator) Generate(ctx context.Context, req domain.PromptRequest) (string, error) {
	model := g.model(req)

	logrus.WithFields(logrus.Fields{
		"model":  g.modelName,
		"prompt": len(req.Prompt),
	}).Debug("🤖 调用 Gemini")

	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return "", common.WrapError(common.ErrCodeUpstreamCall, "Gemini 调用失败", err)
	}
	return responseText(resp)
}

// model 每次请求单独配置生成参数
func (g *Generator) model(req domain.PromptRequest) *genai.GenerativeModel {
	model := g.client.GenerativeModel(g.modelName)
	model.SetTemperature(req.Temperature)
	if req.MaxOutputTokens > 0 {
		model.SetMaxOutputTokens(req.MaxOutputTokens)
	}
	// 强制要求返回 JSON，降低解析错误的概率
	model.ResponseMIMEType = "application/json"
	if req.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}
	return model
}

// responseText 拼接第一个候选的所有文本片段
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", common.NewError(common.ErrCodeUpstreamCall, "Gemini 返回内容为空")
	}
	c := resp.Candidates[0]
	if c.Content == nil || len(c.Content.Parts) == 0 {
		return "", common.NewError(common.ErrCodeUpstreamCall, fmt.Sprintf("Gemini 返回内容为空 (finish reason: %v)", c.FinishReason))
	}

	var b strings.Builder
	for _, part := range c.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", common.NewError(common.ErrCodeUpstreamCall, "Gemini 返回格式错误")
	}
	return b.String(), nil
}

// Close 关闭底层客户端
func (g *Generator) Close() error {
	return g.client.Close()
}

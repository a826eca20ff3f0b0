package ollama

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github-project-compare/internal/common"
	"github-project-compare/internal/domain"

	"github.com/JexSrs/go-ollama"
	"github.com/sirupsen/logrus"
)

// 默认配置
const (
	DefaultHost  = "http://localhost:11434"
	DefaultModel = "llama3"
)

// completion 一次非流式补全的结果
type completion struct {
	done     bool
	response string
}

// Generator 实现了 port.Generator 接口，走本地 Ollama
type Generator struct {
	model string
	call  func(system, prompt string) (completion, error)
}

// NewGenerator 创建 Ollama 客户端
func NewGenerator(host, model string) (*Generator, error) {
	if host == "" {
		host = DefaultHost
	}
	if model == "" {
		model = DefaultModel
	}

	ollamaURL, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("Ollama 地址无效: %w", err)
	}
	client := ollama.New(*ollamaURL)

	logrus.WithFields(logrus.Fields{"host": host, "model": model}).Info("🦙 使用 Ollama 生成对比")

	return &Generator{
		model: model,
		call: func(system, prompt string) (completion, error) {
			res, err := client.Generate(
				client.Generate.WithModel(model),
				client.Generate.WithSystem(system),
				client.Generate.WithPrompt(prompt),
			)
			if err != nil {
				return completion{}, err
			}
			return completion{done: res.Done, response: res.Response}, nil
		},
	}, nil
}

// Generate 客户端本身不接收 ctx，这里在 ctx 取消时提前返回
func (g *Generator) Generate(ctx context.Context, req domain.PromptRequest) (string, error) {
	type outcome struct {
		c   completion
		err error
	}
	ch := make(chan outcome, 1)
	go func() {
		c, err := g.call(req.System, req.Prompt)
		ch <- outcome{c, err}
	}()

	var out outcome
	select {
	case <-ctx.Done():
		return "", common.WrapError(common.ErrCodeUpstreamCall, "Ollama 调用被取消", ctx.Err())
	case out = <-ch:
	}

	if out.err != nil {
		return "", common.WrapError(common.ErrCodeUpstreamCall, "Ollama 调用失败", out.err)
	}
	if !out.c.done {
		return "", common.NewError(common.ErrCodeUpstreamCall, "Ollama 请求未完成 (意外的流式响应)")
	}
	text := strings.TrimSpace(out.c.response)
	if text == "" {
		return "", common.NewError(common.ErrCodeUpstreamCall, "Ollama 返回内容为空")
	}
	logrus.WithField("model", g.model).Debug("🦙 收到 Ollama 响应")
	return text, nil
}

package parser

import (
	"encoding/json"
	"strings"

	"github-project-compare/internal/common"
	"github-project-compare/internal/domain"
)

// extractObject 从第一个 '{' 截到最后一个 '}'
// 即使模型返回 "```json { ... } ```" 也能抠出中间的对象
func extractObject(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}

// Parse 把模型原文解析为 ComparisonResult，不做字段级校验
func Parse(raw string) (*domain.ComparisonResult, error) {
	obj, ok := extractObject(raw)
	if !ok {
		return nil, common.NewError(common.ErrCodeUpstreamParse, "模型返回中没有 JSON 对象")
	}

	var result domain.ComparisonResult
	if err := json.Unmarshal([]byte(obj), &result); err != nil {
		return nil, common.WrapError(common.ErrCodeUpstreamParse, "模型返回的 JSON 解析失败", err)
	}
	return &result, nil
}

// ParseAndValidate 解析并校验完整结构，胜出者必须是 project1 或 project2；
// 校验失败与解析失败同等对待
func ParseAndValidate(raw, project1, project2 string) (*domain.ComparisonResult, error) {
	result, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	if err := result.Validate(); err != nil {
		return nil, common.WrapError(common.ErrCodeUpstreamParse, "模型返回的结构不完整", err)
	}
	if err := result.ValidateWinners(project1, project2); err != nil {
		return nil, common.WrapError(common.ErrCodeUpstreamParse, "模型返回的胜出者不是对比项目", err)
	}
	result.Normalize()
	return result, nil
}

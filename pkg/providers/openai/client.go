package openai

import (
	"context"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/nerdneilsfield/go-locale-translator/pkg/providers"
)

// ChatRequest 一次聊天补全请求
type ChatRequest struct {
	Model        string
	SystemPrompt string
	Text         string
	Temperature  float64
}

// ChatClient 聊天补全客户端接口，返回第一个候选的消息内容
type ChatClient interface {
	Complete(ctx context.Context, req ChatRequest) (string, error)
}

// SDKClient 基于官方SDK的客户端
type SDKClient struct {
	client openai.Client
}

// 确保 SDKClient 实现 ChatClient 接口
var _ ChatClient = (*SDKClient)(nil)

// NewSDKClient 创建官方SDK客户端
//
// SDK自带的重试被关闭，重试统一由提供商的重试策略控制。
func NewSDKClient(config providers.BaseConfig, orgID string) *SDKClient {
	// 构建客户端选项
	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithMaxRetries(0),
		option.WithHTTPClient(providers.NewHTTPClient(config)),
	}

	// 添加自定义端点（如果有）
	if config.APIEndpoint != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(config.APIEndpoint, "/")+"/"))
	}

	// 添加组织ID（如果有）
	if orgID != "" {
		opts = append(opts, option.WithOrganization(orgID))
	}

	// 添加自定义头部
	for k, v := range config.Headers {
		opts = append(opts, option.WithHeader(k, v))
	}

	// 设置超时
	if config.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(config.Timeout))
	}

	return &SDKClient{
		client: openai.NewClient(opts...),
	}
}

// Complete 发送要求JSON对象格式输出的聊天补全请求
func (c *SDKClient) Complete(ctx context.Context, req ChatRequest) (string, error) {
	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.SystemPrompt),
			openai.UserMessage(req.Text),
		},
		Model: getModel(req.Model),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}

	// 设置可选参数
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}

	// 没有候选时按空内容处理
	if len(completion.Choices) == 0 {
		return "", nil
	}
	return completion.Choices[0].Message.Content, nil
}

// getModel 根据字符串获取模型常量
func getModel(model string) openai.ChatModel {
	switch model {
	case "", "gpt-4o-mini":
		return openai.ChatModelGPT4oMini
	case "gpt-4o":
		return openai.ChatModelGPT4o
	case "gpt-4-turbo":
		return openai.ChatModelGPT4Turbo
	default:
		// 对于新模型或自定义模型，使用字符串
		return openai.ChatModel(model)
	}
}

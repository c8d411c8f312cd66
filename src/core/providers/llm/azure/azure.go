package azure

import (
	"context"
	"fmt"

	"aiconnect-go/src/core/providers/llm"
	"aiconnect-go/src/core/types"

	"github.com/sashabaranov/go-openai"
)

const defaultAPIVersion = "2024-06-01"

// Provider Azure OpenAI LLM提供者。
// 部署名直接使用模型串中的模型名，调用走Azure端点的OpenAI兼容接口。
type Provider struct {
	*llm.BaseProvider
	client    *openai.Client
	maxTokens int
}

// 注册提供者
func init() {
	llm.Register("azure", NewProvider)
}

// NewProvider 创建Azure OpenAI提供者
func NewProvider(config *llm.Config) (llm.Provider, error) {
	base := llm.NewBaseProvider(config)
	provider := &Provider{
		BaseProvider: base,
		maxTokens:    config.MaxTokens,
	}
	if provider.maxTokens <= 0 {
		provider.maxTokens = 500
	}

	return provider, nil
}

// Initialize 初始化提供者
func (p *Provider) Initialize() error {
	config := p.Config()
	if config.APIKey == "" {
		return types.NewConfigError("AZURE_OPENAI_API_KEY", "缺少Azure OpenAI API密钥")
	}
	if config.BaseURL == "" {
		return types.NewConfigError("AZURE_OPENAI_ENDPOINT", "缺少Azure OpenAI端点")
	}

	clientConfig := openai.DefaultAzureConfig(config.APIKey, config.BaseURL)
	if config.APIVersion != "" {
		clientConfig.APIVersion = config.APIVersion
	} else {
		clientConfig.APIVersion = defaultAPIVersion
	}

	p.client = openai.NewClientWithConfig(clientConfig)
	return nil
}

// Cleanup 清理资源
func (p *Provider) Cleanup() error {
	return nil
}

// Response types.LLMProvider接口实现
func (p *Provider) Response(ctx context.Context, sessionID string, messages []types.Message) (<-chan string, error) {
	responseChan := make(chan string, 10)

	go func() {
		defer close(responseChan)

		stream, err := p.client.CreateChatCompletionStream(
			ctx,
			openai.ChatCompletionRequest{
				Model:     p.Config().ModelName,
				Messages:  convertMessages(messages),
				Stream:    true,
				MaxTokens: p.maxTokens,
			},
		)
		if err != nil {
			responseChan <- fmt.Sprintf("【Azure OpenAI服务响应异常: %v】", err)
			return
		}
		defer stream.Close()

		for {
			response, err := stream.Recv()
			if err != nil {
				break
			}
			if len(response.Choices) > 0 {
				if content := response.Choices[0].Delta.Content; content != "" {
					responseChan <- content
				}
			}
		}
	}()

	return responseChan, nil
}

// Complete types.LLMProvider接口实现
func (p *Provider) Complete(ctx context.Context, messages []types.Message) (*types.Response, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     p.Config().ModelName,
		Messages:  convertMessages(messages),
		MaxTokens: p.maxTokens,
	})
	if err != nil {
		if apiErr, ok := err.(*openai.APIError); ok {
			return nil, types.FromHTTPStatus(apiErr.HTTPStatusCode, apiErr.Message)
		}
		return nil, types.WrapUnknown("Azure OpenAI补全请求失败", err)
	}

	if len(resp.Choices) == 0 {
		return nil, types.NewServiceError(502, "Azure OpenAI返回空choices")
	}

	choice := resp.Choices[0]
	return &types.Response{
		Content:    choice.Message.Content,
		StopReason: string(choice.FinishReason),
	}, nil
}

func convertMessages(messages []types.Message) []openai.ChatCompletionMessage {
	chatMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		chatMessages[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}
	return chatMessages
}

package ollama

import (
	"context"
	"fmt"
	"strings"

	"aiconnect-go/src/core/providers/llm"
	"aiconnect-go/src/core/types"

	"github.com/sashabaranov/go-openai"
)

const defaultBaseURL = "http://localhost:11434"

// Provider Ollama LLM提供者，走Ollama的OpenAI兼容接口
type Provider struct {
	*llm.BaseProvider
	client    *openai.Client
	modelName string
	isQwen3   bool
}

// 注册提供者
func init() {
	llm.Register("ollama", NewProvider)
}

// NewProvider 创建Ollama提供者
func NewProvider(config *llm.Config) (llm.Provider, error) {
	base := llm.NewBaseProvider(config)
	provider := &Provider{
		BaseProvider: base,
		modelName:    config.ModelName,
	}

	// qwen3模型会输出思考标签，需要过滤
	provider.isQwen3 = config.ModelName != "" && strings.HasPrefix(strings.ToLower(config.ModelName), "qwen3")

	return provider, nil
}

// Initialize 初始化提供者
func (p *Provider) Initialize() error {
	config := p.Config()
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	// 确保URL以/v1结尾
	if !strings.HasSuffix(baseURL, "/v1") {
		baseURL = baseURL + "/v1"
	}

	// Ollama不需要真正的API key，但openai客户端需要一个值
	clientConfig := openai.DefaultConfig("ollama")
	clientConfig.BaseURL = baseURL

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
				Model:    p.modelName,
				Messages: convertMessages(messages),
				Stream:   true,
			},
		)
		if err != nil {
			responseChan <- fmt.Sprintf("【Ollama服务响应异常: %v】", err)
			return
		}
		defer stream.Close()

		inThink := false
		for {
			response, err := stream.Recv()
			if err != nil {
				break
			}

			if len(response.Choices) > 0 {
				content := response.Choices[0].Delta.Content
				if content == "" {
					continue
				}
				if p.isQwen3 {
					if content, inThink = filterThinkTags(content, inThink); content == "" {
						continue
					}
				}
				responseChan <- content
			}
		}
	}()

	return responseChan, nil
}

// Complete types.LLMProvider接口实现
func (p *Provider) Complete(ctx context.Context, messages []types.Message) (*types.Response, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    p.modelName,
		Messages: convertMessages(messages),
	})
	if err != nil {
		if apiErr, ok := err.(*openai.APIError); ok {
			return nil, types.FromHTTPStatus(apiErr.HTTPStatusCode, apiErr.Message)
		}
		return nil, types.WrapUnknown("Ollama补全请求失败", err)
	}

	if len(resp.Choices) == 0 {
		return nil, types.NewServiceError(502, "Ollama返回空choices")
	}

	content := resp.Choices[0].Message.Content
	if p.isQwen3 {
		content = stripThinkBlock(content)
	}

	return &types.Response{
		Content:    content,
		StopReason: string(resp.Choices[0].FinishReason),
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

// filterThinkTags 流式过滤<think>...</think>片段
func filterThinkTags(content string, inThink bool) (string, bool) {
	if content == "<think>" {
		return "", true
	}
	if content == "</think>" {
		return "", false
	}
	if inThink {
		return "", true
	}
	return content, false
}

// stripThinkBlock 去掉完整回复中的思考块
func stripThinkBlock(content string) string {
	start := strings.Index(content, "<think>")
	if start < 0 {
		return content
	}
	end := strings.Index(content, "</think>")
	if end < 0 {
		return content[:start]
	}
	return strings.TrimSpace(content[:start] + content[end+len("</think>"):])
}

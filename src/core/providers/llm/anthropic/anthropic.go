package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"aiconnect-go/src/core/providers/llm"
	"aiconnect-go/src/core/types"
)

const (
	defaultBaseURL = "https://api.anthropic.com"
	apiVersion     = "2023-06-01"
)

// Provider Anthropic Claude LLM提供者。
// Claude API与OpenAI兼容接口有两处差异: 认证使用x-api-key请求头，
// system消息不放在messages数组而是单独字段。
type Provider struct {
	*llm.BaseProvider
	client    *http.Client
	baseURL   string
	maxTokens int
}

// 注册提供者
func init() {
	llm.Register("anthropic", NewProvider)
}

// NewProvider 创建Anthropic提供者
func NewProvider(config *llm.Config) (llm.Provider, error) {
	base := llm.NewBaseProvider(config)
	provider := &Provider{
		BaseProvider: base,
		maxTokens:    config.MaxTokens,
	}
	if provider.maxTokens <= 0 {
		provider.maxTokens = 1024
	}

	return provider, nil
}

// Initialize 初始化提供者
func (p *Provider) Initialize() error {
	config := p.Config()
	if config.APIKey == "" {
		return types.NewConfigError("ANTHROPIC_API_KEY", "缺少Anthropic API密钥")
	}

	p.baseURL = config.BaseURL
	if p.baseURL == "" {
		p.baseURL = defaultBaseURL
	}
	p.client = &http.Client{}
	return nil
}

// Cleanup 清理资源
func (p *Provider) Cleanup() error {
	return nil
}

type messageParam struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model     string         `json:"model"`
	MaxTokens int            `json:"max_tokens"`
	System    string         `json:"system,omitempty"`
	Messages  []messageParam `json:"messages"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Error      struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Response types.LLMProvider接口实现。
// Claude的SSE流格式与OpenAI差异较大，这里走同步接口后整体下发。
func (p *Provider) Response(ctx context.Context, sessionID string, messages []types.Message) (<-chan string, error) {
	responseChan := make(chan string, 1)

	go func() {
		defer close(responseChan)

		resp, err := p.Complete(ctx, messages)
		if err != nil {
			responseChan <- fmt.Sprintf("【Anthropic服务响应异常: %v】", err)
			return
		}
		if resp.Content != "" {
			responseChan <- resp.Content
		}
	}()

	return responseChan, nil
}

// Complete types.LLMProvider接口实现
func (p *Provider) Complete(ctx context.Context, messages []types.Message) (*types.Response, error) {
	reqBody := messagesRequest{
		Model:     p.Config().ModelName,
		MaxTokens: p.maxTokens,
	}

	// system消息单独传递
	for _, msg := range messages {
		if msg.Role == "system" {
			reqBody.System = msg.Content
			continue
		}
		reqBody.Messages = append(reqBody.Messages, messageParam{Role: msg.Role, Content: msg.Content})
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, types.WrapUnknown("序列化请求失败", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/messages", bytes.NewReader(jsonData))
	if err != nil {
		return nil, types.WrapUnknown("创建请求失败", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.Config().APIKey)
	req.Header.Set("anthropic-version", apiVersion)

	httpResp, err := p.client.Do(req)
	if err != nil {
		return nil, types.WrapUnknown("Anthropic请求失败", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, types.WrapUnknown("读取响应失败", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		var parsed messagesResponse
		message := string(body)
		if json.Unmarshal(body, &parsed) == nil && parsed.Error.Message != "" {
			message = parsed.Error.Message
		}
		return nil, types.FromHTTPStatus(httpResp.StatusCode, message)
	}

	var parsed messagesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, types.WrapUnknown("解析响应失败", err)
	}

	var content string
	for _, block := range parsed.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}

	return &types.Response{
		Content:    content,
		StopReason: parsed.StopReason,
	}, nil
}

package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"aiconnect-go/src/core/providers/image"
	"aiconnect-go/src/core/types"
)

const defaultBaseURL = "https://api-inference.huggingface.co"

// Provider HuggingFace推理接口图片生成提供者。
// POST {base}/models/{model}，Bearer认证，响应体即图片二进制。
type Provider struct {
	*image.BaseProvider
	client  *http.Client
	baseURL string
}

// 注册提供者
func init() {
	image.Register("huggingface", func(config *image.Config) (image.Provider, error) {
		return NewProvider(config)
	})
}

// NewProvider 创建HuggingFace提供者
func NewProvider(config *image.Config) (*Provider, error) {
	base := image.NewBaseProvider(config)
	return &Provider{
		BaseProvider: base,
	}, nil
}

// Initialize 初始化提供者
func (p *Provider) Initialize() error {
	config := p.Config()
	if config.APIKey == "" {
		return types.NewConfigError("HUGGINGFACE_API_KEY", "缺少HuggingFace API密钥")
	}
	if config.ModelName == "" {
		return types.NewConfigError("IMAGE_MODEL", "未指定HuggingFace模型")
	}

	p.baseURL = strings.TrimRight(config.BaseURL, "/")
	if p.baseURL == "" {
		p.baseURL = defaultBaseURL
	}
	// 扩散模型冷启动常见，给推理接口留足时间
	p.client = &http.Client{Timeout: 120 * time.Second}
	return nil
}

type inferenceRequest struct {
	Inputs string `json:"inputs"`
}

// Generate 生成图片。推理接口一次只出一张图，n>1时串行请求。
func (p *Provider) Generate(ctx context.Context, prompt string, opts types.ImageOptions) (*types.ImageResponse, error) {
	if prompt == "" {
		return nil, types.NewValidationError("图片提示词为空")
	}

	n := opts.N
	if n <= 0 {
		n = 1
	}

	result := &types.ImageResponse{}
	for i := 0; i < n; i++ {
		imgData, err := p.generateOne(ctx, prompt)
		if err != nil {
			return nil, err
		}
		result.Images = append(result.Images, imgData)
	}

	return result, nil
}

func (p *Provider) generateOne(ctx context.Context, prompt string) ([]byte, error) {
	jsonData, err := json.Marshal(inferenceRequest{Inputs: prompt})
	if err != nil {
		return nil, types.WrapUnknown("序列化请求失败", err)
	}

	url := fmt.Sprintf("%s/models/%s", p.baseURL, p.Config().ModelName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, types.WrapUnknown("创建请求失败", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.Config().APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, types.WrapUnknown("HuggingFace请求失败", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, types.WrapUnknown("读取响应失败", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, types.FromHTTPStatus(resp.StatusCode, string(body))
	}

	if _, err := image.ValidateGenerated(body); err != nil {
		return nil, err
	}

	return body, nil
}

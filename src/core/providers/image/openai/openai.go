package openai

import (
	"context"
	"encoding/base64"

	"aiconnect-go/src/core/providers/image"
	"aiconnect-go/src/core/types"

	"github.com/sashabaranov/go-openai"
)

// Provider OpenAI图片生成提供者(DALL-E系列)
type Provider struct {
	*image.BaseProvider
	client *openai.Client
}

// 注册提供者
func init() {
	image.Register("openai", func(config *image.Config) (image.Provider, error) {
		return NewProvider(config)
	})
}

// NewProvider 创建OpenAI图片生成提供者
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
		return types.NewConfigError("OPENAI_API_KEY", "缺少OpenAI API密钥")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	p.client = openai.NewClientWithConfig(clientConfig)
	return nil
}

// Generate 生成图片
func (p *Provider) Generate(ctx context.Context, prompt string, opts types.ImageOptions) (*types.ImageResponse, error) {
	if prompt == "" {
		return nil, types.NewValidationError("图片提示词为空")
	}

	model := p.Config().ModelName
	if model == "" {
		model = openai.CreateImageModelDallE3
	}

	size := opts.Size
	if size == "" {
		size = p.Config().Size
	}
	if size == "" {
		size = openai.CreateImageSize1024x1024
	}

	n := opts.N
	if n <= 0 {
		n = 1
	}

	responseFormat := opts.ResponseFormat
	if responseFormat == "" {
		responseFormat = "b64"
	}

	req := openai.ImageRequest{
		Prompt: prompt,
		Model:  model,
		Size:   size,
		N:      n,
	}
	if responseFormat == "url" {
		req.ResponseFormat = openai.CreateImageResponseFormatURL
	} else {
		req.ResponseFormat = openai.CreateImageResponseFormatB64JSON
	}

	resp, err := p.client.CreateImage(ctx, req)
	if err != nil {
		if apiErr, ok := err.(*openai.APIError); ok {
			return nil, types.FromHTTPStatus(apiErr.HTTPStatusCode, apiErr.Message)
		}
		return nil, types.WrapUnknown("OpenAI图片生成请求失败", err)
	}

	result := &types.ImageResponse{}
	for _, d := range resp.Data {
		if d.RevisedPrompt != "" {
			result.RevisedPrompt = d.RevisedPrompt
		}
		if d.URL != "" {
			result.URLs = append(result.URLs, d.URL)
			continue
		}

		imgData, err := base64.StdEncoding.DecodeString(d.B64JSON)
		if err != nil {
			return nil, types.WrapUnknown("解码图片数据失败", err)
		}
		if _, err := image.ValidateGenerated(imgData); err != nil {
			return nil, err
		}
		result.Images = append(result.Images, imgData)
	}

	if len(result.Images) == 0 && len(result.URLs) == 0 {
		return nil, types.NewServiceError(502, "OpenAI未返回任何图片")
	}

	return result, nil
}

package openai

import (
	"context"
	"io"

	"aiconnect-go/src/core/audio"
	"aiconnect-go/src/core/providers/tts"
	"aiconnect-go/src/core/types"

	"github.com/sashabaranov/go-openai"
)

// Provider OpenAI TTS提供者
type Provider struct {
	*tts.BaseProvider
	client *openai.Client
}

// 注册提供者
func init() {
	tts.Register("openai", func(config *tts.Config) (tts.Provider, error) {
		return NewProvider(config)
	})
}

// NewProvider 创建OpenAI TTS提供者
func NewProvider(config *tts.Config) (*Provider, error) {
	base := tts.NewBaseProvider(config)
	return &Provider{
		BaseProvider: base,
	}, nil
}

// Initialize 初始化提供者
func (p *Provider) Initialize() error {
	if err := p.BaseProvider.Initialize(); err != nil {
		return err
	}

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

// Synthesize 合成音频
func (p *Provider) Synthesize(ctx context.Context, text string, opts types.TTSOptions) (*types.AudioResponse, error) {
	if text == "" {
		return nil, types.NewValidationError("合成文本为空")
	}

	voice := opts.Voice
	if voice == "" {
		voice = p.Voice()
	}
	if voice == "" {
		voice = "alloy" // 默认声音
	}

	format := opts.Format
	if format == "" {
		format = "mp3"
	}

	model := p.Config().ModelName
	if model == "" {
		model = string(openai.TTSModel1)
	}

	req := openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(model),
		Input:          text,
		Voice:          openai.SpeechVoice(voice),
		ResponseFormat: openai.SpeechResponseFormat(format),
	}
	if opts.Speed > 0 {
		req.Speed = opts.Speed
	}

	response, err := p.client.CreateSpeech(ctx, req)
	if err != nil {
		if apiErr, ok := err.(*openai.APIError); ok {
			return nil, types.FromHTTPStatus(apiErr.HTTPStatusCode, apiErr.Message)
		}
		return nil, types.WrapUnknown("OpenAI TTS请求失败", err)
	}
	defer response.Close()

	audioData, err := io.ReadAll(response)
	if err != nil {
		return nil, types.WrapUnknown("读取音频数据失败", err)
	}

	result := &types.AudioResponse{
		AudioData: audioData,
		Format:    format,
		WordCount: len([]rune(text)),
	}
	if format == "mp3" {
		result.Duration = audio.MP3Duration(audioData)
	}

	return result, nil
}

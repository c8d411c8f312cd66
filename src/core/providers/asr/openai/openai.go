package openai

import (
	"bytes"
	"context"

	"aiconnect-go/src/core/audio"
	"aiconnect-go/src/core/providers/asr"
	"aiconnect-go/src/core/types"

	"github.com/sashabaranov/go-openai"
)

// Provider OpenAI Whisper识别提供者
type Provider struct {
	*asr.BaseProvider
	client *openai.Client
}

// 注册提供者
func init() {
	asr.Register("openai", func(config *asr.Config) (asr.Provider, error) {
		return NewProvider(config)
	})
}

// NewProvider 创建OpenAI ASR提供者
func NewProvider(config *asr.Config) (*Provider, error) {
	base := asr.NewBaseProvider(config)
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

// Transcribe 识别音频。输入为裸PCM16，先统一为16kHz单声道并裁剪首尾静音，
// 再封装WAV上传。
func (p *Provider) Transcribe(ctx context.Context, audioData []byte, opts types.ASROptions) (*types.TranscriptionResponse, error) {
	meta := metaFromOptions(opts)
	pcm, meta, err := audio.StandardizeForSTT(audioData, meta, audio.DefaultSTTSampleRate)
	if err != nil {
		return nil, err
	}
	if len(pcm) == 0 {
		// 全静音，没必要上传
		return &types.TranscriptionResponse{}, nil
	}

	wavData, err := audio.WrapWav(pcm, meta)
	if err != nil {
		return nil, err
	}

	model := p.Config().ModelName
	if model == "" {
		model = openai.Whisper1
	}

	req := openai.AudioRequest{
		Model:    model,
		FilePath: "audio.wav",
		Reader:   bytes.NewReader(wavData),
		Format:   openai.AudioResponseFormatVerboseJSON,
		Language: opts.Language,
		Prompt:   opts.Prompt,
	}

	resp, err := p.client.CreateTranscription(ctx, req)
	if err != nil {
		if apiErr, ok := err.(*openai.APIError); ok {
			return nil, types.FromHTTPStatus(apiErr.HTTPStatusCode, apiErr.Message)
		}
		return nil, types.WrapUnknown("OpenAI识别请求失败", err)
	}

	result := &types.TranscriptionResponse{
		Text:     resp.Text,
		Language: resp.Language,
		Duration: resp.Duration,
	}
	for _, seg := range resp.Segments {
		result.Segments = append(result.Segments, types.Segment{
			ID:    seg.ID,
			Start: seg.Start,
			End:   seg.End,
			Text:  seg.Text,
		})
	}

	return result, nil
}

// metaFromOptions 根据选项确定输入音频元信息，零值走默认16kHz单声道
func metaFromOptions(opts types.ASROptions) audio.Meta {
	meta := audio.DefaultMeta
	if opts.SampleRate > 0 {
		meta.SampleRate = opts.SampleRate
	}
	if opts.Channels > 0 {
		meta.Channels = opts.Channels
	}
	return meta
}

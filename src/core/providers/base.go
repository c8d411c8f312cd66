package providers

import (
	"context"

	"aiconnect-go/src/core/types"
)

// Provider 所有提供者的基础接口。构造与Initialize均不做网络IO，
// 适配器在首次能力调用时才真正连接。
type Provider interface {
	Initialize() error
	Cleanup() error
}

// LLMProvider 大语言模型提供者接口
type LLMProvider interface {
	types.LLMProvider
}

// TTSProvider 语音合成提供者接口
type TTSProvider interface {
	Provider
	// Synthesize 合成音频并返回音频数据与格式信息
	Synthesize(ctx context.Context, text string, opts types.TTSOptions) (*types.AudioResponse, error)

	SetVoice(voice string) error
}

// ASRProvider 语音识别提供者接口
type ASRProvider interface {
	Provider
	// Transcribe 直接识别音频数据
	Transcribe(ctx context.Context, audioData []byte, opts types.ASROptions) (*types.TranscriptionResponse, error)
}

// ImageProvider 图片生成提供者接口
type ImageProvider interface {
	Provider
	Generate(ctx context.Context, prompt string, opts types.ImageOptions) (*types.ImageResponse, error)
}

// Message 对话消息
type Message = types.Message

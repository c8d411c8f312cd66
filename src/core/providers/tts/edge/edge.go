package edge

import (
	"context"

	"aiconnect-go/src/core/audio"
	"aiconnect-go/src/core/providers/tts"
	"aiconnect-go/src/core/types"

	"github.com/wujunwei928/edge-tts-go/edge_tts"
)

// Provider Edge TTS提供者实现。
// 使用github.com/wujunwei928/edge-tts-go，免费接口，输出MP3，默认24k采样率。
type Provider struct {
	*tts.BaseProvider
}

// 注册提供者
func init() {
	tts.Register("edge", func(config *tts.Config) (tts.Provider, error) {
		return NewProvider(config)
	})
}

// NewProvider 创建Edge TTS提供者
func NewProvider(config *tts.Config) (*Provider, error) {
	base := tts.NewBaseProvider(config)
	return &Provider{
		BaseProvider: base,
	}, nil
}

// Synthesize 合成音频
func (p *Provider) Synthesize(ctx context.Context, text string, opts types.TTSOptions) (*types.AudioResponse, error) {
	if text == "" {
		return nil, types.NewValidationError("合成文本为空")
	}

	// 获取配置的声音，如果未配置则使用默认值
	voice := opts.Voice
	if voice == "" {
		voice = p.Voice()
	}
	if voice == "" {
		voice = "zh-CN-XiaoxiaoNeural" // 默认声音
	}

	connOptions := []edge_tts.CommunicateOption{
		edge_tts.SetVoice(voice),
	}

	conn, err := edge_tts.NewCommunicate(text, connOptions...)
	if err != nil {
		return nil, types.WrapUnknown("创建edge-tts-go Communicate失败", err)
	}

	audioData, err := conn.Stream()
	if err != nil {
		return nil, types.WrapUnknown("edge-tts-go获取音频流失败", err)
	}

	if len(audioData) == 0 {
		return nil, types.NewServiceError(502, "edge-tts-go返回空音频")
	}

	return &types.AudioResponse{
		AudioData: audioData,
		Format:    "mp3",
		Duration:  audio.MP3Duration(audioData),
		WordCount: len([]rune(text)),
	}, nil
}

package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"aiconnect-go/src/core/providers/tts"
	"aiconnect-go/src/core/types"
)

const (
	defaultBaseURL = "https://api.elevenlabs.io/v1"
	defaultVoiceID = "21m00Tcm4TlvDq8ikWAM" // Rachel
)

// Provider ElevenLabs TTS提供者。
// POST /v1/text-to-speech/{voice_id}，认证走xi-api-key请求头，
// 模型串即model_id(如eleven_multilingual_v2)。
type Provider struct {
	*tts.BaseProvider
	client  *http.Client
	baseURL string
}

// 注册提供者
func init() {
	tts.Register("elevenlabs", func(config *tts.Config) (tts.Provider, error) {
		return NewProvider(config)
	})
}

// NewProvider 创建ElevenLabs提供者
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
		return types.NewConfigError("ELEVENLABS_API_KEY", "缺少ElevenLabs API密钥")
	}

	p.baseURL = config.BaseURL
	if p.baseURL == "" {
		p.baseURL = defaultBaseURL
	}
	p.client = &http.Client{}
	return nil
}

type synthesisRequest struct {
	Text          string         `json:"text"`
	ModelID       string         `json:"model_id,omitempty"`
	VoiceSettings *voiceSettings `json:"voice_settings,omitempty"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// Synthesize 合成音频
func (p *Provider) Synthesize(ctx context.Context, text string, opts types.TTSOptions) (*types.AudioResponse, error) {
	if text == "" {
		return nil, types.NewValidationError("合成文本为空")
	}

	voiceID := opts.Voice
	if voiceID == "" {
		voiceID = p.Voice()
	}
	if voiceID == "" {
		voiceID = defaultVoiceID
	}

	reqBody := synthesisRequest{
		Text:    text,
		ModelID: p.Config().ModelName,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, types.WrapUnknown("序列化请求失败", err)
	}

	url := fmt.Sprintf("%s/text-to-speech/%s", p.baseURL, voiceID)
	if opts.Format != "" {
		url += "?output_format=" + opts.Format
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, types.WrapUnknown("创建请求失败", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", p.Config().APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, types.WrapUnknown("ElevenLabs请求失败", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, types.FromHTTPStatus(resp.StatusCode, string(body))
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, types.WrapUnknown("读取音频数据失败", err)
	}

	format := opts.Format
	if format == "" {
		format = "mp3" // ElevenLabs默认输出mp3_44100_128
	}

	return &types.AudioResponse{
		AudioData: audioData,
		Format:    format,
		WordCount: len([]rune(text)),
	}, nil
}

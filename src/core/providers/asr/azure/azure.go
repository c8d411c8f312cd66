package azure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"aiconnect-go/src/core/audio"
	"aiconnect-go/src/core/providers/asr"
	"aiconnect-go/src/core/types"
)

const defaultLanguage = "zh-CN"

// Provider Azure语音服务识别提供者。
// POST https://{region}.stt.speech.microsoft.com/speech/recognition/conversation/cognitiveservices/v1，
// WAV请求体，Ocp-Apim-Subscription-Key认证。
type Provider struct {
	*asr.BaseProvider
	client   *http.Client
	endpoint string
}

// 注册提供者
func init() {
	asr.Register("azure", func(config *asr.Config) (asr.Provider, error) {
		return NewProvider(config)
	})
}

// NewProvider 创建Azure ASR提供者
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
		return types.NewConfigError("AZURE_SPEECH_API_KEY", "缺少Azure语音服务密钥")
	}
	if config.Region == "" {
		return types.NewConfigError("AZURE_SPEECH_REGION", "缺少Azure语音服务区域")
	}

	p.endpoint = fmt.Sprintf(
		"https://%s.stt.speech.microsoft.com/speech/recognition/conversation/cognitiveservices/v1",
		config.Region,
	)
	p.client = &http.Client{}
	return nil
}

// recognitionResponse 简单识别模式的响应体
type recognitionResponse struct {
	RecognitionStatus string `json:"RecognitionStatus"`
	DisplayText       string `json:"DisplayText"`
	Offset            int64  `json:"Offset"`   // 100纳秒单位
	Duration          int64  `json:"Duration"` // 100纳秒单位
}

// Transcribe 识别音频，输入裸PCM16
func (p *Provider) Transcribe(ctx context.Context, audioData []byte, opts types.ASROptions) (*types.TranscriptionResponse, error) {
	meta := audio.DefaultMeta
	if opts.SampleRate > 0 {
		meta.SampleRate = opts.SampleRate
	}
	if opts.Channels > 0 {
		meta.Channels = opts.Channels
	}

	pcm, meta, err := audio.StandardizeForSTT(audioData, meta, audio.DefaultSTTSampleRate)
	if err != nil {
		return nil, err
	}
	if len(pcm) == 0 {
		return &types.TranscriptionResponse{}, nil
	}

	wavData, err := audio.WrapWav(pcm, meta)
	if err != nil {
		return nil, err
	}

	language := opts.Language
	if language == "" {
		language = p.Config().Language
	}
	if language == "" {
		language = defaultLanguage
	}

	reqURL := p.endpoint + "?language=" + url.QueryEscape(language)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(wavData))
	if err != nil {
		return nil, types.WrapUnknown("创建请求失败", err)
	}
	req.Header.Set("Content-Type", "audio/wav; codecs=audio/pcm; samplerate=16000")
	req.Header.Set("Ocp-Apim-Subscription-Key", p.Config().APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, types.WrapUnknown("Azure识别请求失败", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, types.WrapUnknown("读取响应失败", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, types.FromHTTPStatus(resp.StatusCode, string(body))
	}

	var result recognitionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, types.WrapUnknown("解析识别响应失败", err)
	}

	if result.RecognitionStatus != "Success" && result.RecognitionStatus != "NoMatch" {
		return nil, types.NewServiceError(resp.StatusCode, fmt.Sprintf("Azure识别失败: %s", result.RecognitionStatus))
	}

	return &types.TranscriptionResponse{
		Text:     result.DisplayText,
		Language: language,
		Duration: float64(result.Duration) / 1e7,
	}, nil
}

package azure

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"aiconnect-go/src/core/audio"
	"aiconnect-go/src/core/providers/tts"
	"aiconnect-go/src/core/types"
)

// 16kHz单声道16位裸PCM，方便直接进识别管道
const defaultOutputFormat = "raw-16khz-16bit-mono-pcm"

// Provider Azure语音服务TTS提供者。
// POST https://{region}.tts.speech.microsoft.com/cognitiveservices/v1，
// SSML请求体，Ocp-Apim-Subscription-Key认证。
type Provider struct {
	*tts.BaseProvider
	client   *http.Client
	endpoint string
}

// 注册提供者
func init() {
	tts.Register("azure", func(config *tts.Config) (tts.Provider, error) {
		return NewProvider(config)
	})
}

// NewProvider 创建Azure TTS提供者
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
		return types.NewConfigError("AZURE_SPEECH_API_KEY", "缺少Azure语音服务密钥")
	}
	if config.Region == "" {
		return types.NewConfigError("AZURE_SPEECH_REGION", "缺少Azure语音服务区域")
	}

	p.endpoint = fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", config.Region)
	p.client = &http.Client{}
	return nil
}

// Synthesize 合成音频，返回16kHz单声道裸PCM16
func (p *Provider) Synthesize(ctx context.Context, text string, opts types.TTSOptions) (*types.AudioResponse, error) {
	if text == "" {
		return nil, types.NewValidationError("合成文本为空")
	}

	voice := opts.Voice
	if voice == "" {
		voice = p.Voice()
	}
	if voice == "" {
		voice = p.Config().ModelName // 模型串即声音名，如zh-CN-XiaoxiaoNeural
	}
	if voice == "" {
		return nil, types.NewValidationError("未指定Azure TTS声音")
	}

	ssml := fmt.Sprintf(
		`<speak version='1.0' xml:lang='en-US'><voice name='%s'>%s</voice></speak>`,
		voice, escapeXML(text),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader([]byte(ssml)))
	if err != nil {
		return nil, types.WrapUnknown("创建请求失败", err)
	}
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("Ocp-Apim-Subscription-Key", p.Config().APIKey)
	req.Header.Set("X-Microsoft-OutputFormat", defaultOutputFormat)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, types.WrapUnknown("Azure TTS请求失败", err)
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

	meta := audio.DefaultMeta
	return &types.AudioResponse{
		AudioData: audioData,
		Format:    string(audio.FormatRawPcm16),
		Duration:  meta.Duration(audioData),
		WordCount: len([]rune(text)),
	}, nil
}

// escapeXML SSML文本转义
func escapeXML(s string) string {
	var buf bytes.Buffer
	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '\'':
			buf.WriteString("&apos;")
		case '"':
			buf.WriteString("&quot;")
		default:
			buf.WriteRune(r)
		}
	}
	return buf.String()
}

package google

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"aiconnect-go/src/core/audio"
	"aiconnect-go/src/core/providers/asr"
	"aiconnect-go/src/core/types"
)

const (
	defaultEndpoint = "https://speech.googleapis.com/v1/speech:recognize"
	defaultLanguage = "zh-CN"
)

// Provider Google Cloud Speech-to-Text提供者。
// REST模式，音频以base64内联在JSON请求体里，API密钥走query参数。
type Provider struct {
	*asr.BaseProvider
	client   *http.Client
	endpoint string
}

// 注册提供者
func init() {
	asr.Register("google", func(config *asr.Config) (asr.Provider, error) {
		return NewProvider(config)
	})
}

// NewProvider 创建Google ASR提供者
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
		return types.NewConfigError("GOOGLE_SPEECH_API_KEY", "缺少Google Speech API密钥")
	}

	p.endpoint = defaultEndpoint
	if config.BaseURL != "" {
		p.endpoint = strings.TrimRight(config.BaseURL, "/") + "/v1/speech:recognize"
	}
	p.client = &http.Client{}
	return nil
}

type recognizeRequest struct {
	Config recognitionConfig `json:"config"`
	Audio  recognitionAudio  `json:"audio"`
}

type recognitionConfig struct {
	Encoding        string `json:"encoding"`
	SampleRateHertz int    `json:"sampleRateHertz"`
	LanguageCode    string `json:"languageCode"`
	Model           string `json:"model,omitempty"`
}

type recognitionAudio struct {
	Content string `json:"content"` // base64编码的音频数据
}

type recognizeResponse struct {
	Results []struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
		ResultEndTime string `json:"resultEndTime"` // 如"3.500s"
	} `json:"results"`
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

	language := opts.Language
	if language == "" {
		language = p.Config().Language
	}
	if language == "" {
		language = defaultLanguage
	}

	reqBody := recognizeRequest{
		Config: recognitionConfig{
			Encoding:        "LINEAR16",
			SampleRateHertz: meta.SampleRate,
			LanguageCode:    language,
			Model:           p.Config().ModelName,
		},
		Audio: recognitionAudio{
			Content: base64.StdEncoding.EncodeToString(pcm),
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, types.WrapUnknown("序列化请求失败", err)
	}

	reqURL := p.endpoint + "?key=" + url.QueryEscape(p.Config().APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(jsonData))
	if err != nil {
		return nil, types.WrapUnknown("创建请求失败", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, types.WrapUnknown("Google识别请求失败", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, types.WrapUnknown("读取响应失败", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, types.FromHTTPStatus(resp.StatusCode, string(body))
	}

	var result recognizeResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, types.WrapUnknown("解析识别响应失败", err)
	}

	response := &types.TranscriptionResponse{Language: language}
	var texts []string
	for i, r := range result.Results {
		if len(r.Alternatives) == 0 {
			continue
		}
		text := r.Alternatives[0].Transcript
		texts = append(texts, text)

		end := parseSeconds(r.ResultEndTime)
		response.Segments = append(response.Segments, types.Segment{
			ID:   i,
			End:  end,
			Text: text,
		})
		if end > response.Duration {
			response.Duration = end
		}
	}
	response.Text = strings.Join(texts, " ")

	return response, nil
}

// parseSeconds 解析"3.500s"形式的时长
func parseSeconds(s string) float64 {
	s = strings.TrimSuffix(s, "s")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

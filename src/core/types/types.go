package types

import (
	"context"
	"encoding/json"
	"fmt"
)

// Message 对话消息结构
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

func (m *Message) Print() {
	//转为json字符串
	jsonStr, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		fmt.Println("json marshal error:", err)
		return
	}
	fmt.Println(string(jsonStr))
}

// ToolCall 工具调用结构
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
	Index    int          `json:"index"`
}

// FunctionCall 函数调用结果
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Response LLM响应结构
type Response struct {
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	StopReason string     `json:"stop_reason,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// TTSOptions 语音合成选项
type TTSOptions struct {
	Voice      string  `json:"voice,omitempty"`       // 声音标识，空值使用提供者默认值
	Speed      float64 `json:"speed,omitempty"`       // 语速倍率，0表示默认
	Format     string  `json:"format,omitempty"`      // 输出格式: mp3/wav/pcm/opus
	SampleRate int     `json:"sample_rate,omitempty"` // 采样率，0表示提供者默认值
}

// AudioResponse 语音合成结果
type AudioResponse struct {
	AudioData []byte  `json:"audio_data"`
	Format    string  `json:"format"`
	Duration  float64 `json:"duration,omitempty"`   // 音频时长(秒)，0表示未知
	WordCount int     `json:"word_count,omitempty"` // 合成文本的字数
}

// ASROptions 语音识别选项
type ASROptions struct {
	Language   string `json:"language,omitempty"`    // 语言代码，如zh-CN/en-US
	Prompt     string `json:"prompt,omitempty"`      // 识别提示词
	SampleRate int    `json:"sample_rate,omitempty"` // 输入音频采样率，0表示16000
	Channels   int    `json:"channels,omitempty"`    // 输入音频通道数，0表示1
}

// Segment 识别结果分段
type Segment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// TranscriptionResponse 语音识别结果
type TranscriptionResponse struct {
	Text     string    `json:"text"`
	Language string    `json:"language,omitempty"`
	Duration float64   `json:"duration,omitempty"`
	Segments []Segment `json:"segments,omitempty"`
}

// ImageOptions 图片生成选项
type ImageOptions struct {
	Size           string `json:"size,omitempty"`            // 如1024x1024，空值使用提供者默认值
	N              int    `json:"n,omitempty"`               // 生成数量，0表示1
	ResponseFormat string `json:"response_format,omitempty"` // url或b64
}

// ImageResponse 图片生成结果
type ImageResponse struct {
	Images        [][]byte `json:"-"`                        // 图片二进制数据(b64模式)
	URLs          []string `json:"urls,omitempty"`           // 图片URL(url模式)
	RevisedPrompt string   `json:"revised_prompt,omitempty"` // 提供者改写后的提示词
}

// Provider 基础提供者接口
type Provider interface {
	Initialize() error
	Cleanup() error
}

// LLMProvider 大语言模型提供者接口
type LLMProvider interface {
	Provider
	Response(ctx context.Context, sessionID string, messages []Message) (<-chan string, error)
	Complete(ctx context.Context, messages []Message) (*Response, error)
}

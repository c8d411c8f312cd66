package audio

import (
	"aiconnect-go/src/core/types"
)

// Meta 描述一段原始PCM音频的物理布局。值语义，变换产生新Meta而不修改原值。
type Meta struct {
	SampleRate int `json:"sample_rate"` // 采样率(Hz)，必须>0
	Channels   int `json:"channels"`    // 通道数，必须>0
	BitDepth   int `json:"bit_depth"`   // 位深度，当前仅支持16
}

// DefaultMeta 语音识别标准格式: 16kHz 单声道 16位
var DefaultMeta = Meta{SampleRate: 16000, Channels: 1, BitDepth: 16}

// FrameSize 一帧(每通道一个样本)占用的字节数
func (m Meta) FrameSize() int {
	return m.Channels * m.BitDepth / 8
}

// CheckPCM 校验元数据自身合法，且数据长度是帧大小的整数倍。
// 任何违反该不变量的缓冲区都视为非法输入，处理必须失败而不是静默截断。
func (m Meta) CheckPCM(data []byte) error {
	if m.SampleRate <= 0 {
		return types.NewValidationError("非法采样率: %d", m.SampleRate)
	}
	if m.Channels <= 0 {
		return types.NewValidationError("非法通道数: %d", m.Channels)
	}
	if m.BitDepth != 16 {
		return types.NewValidationError("不支持的位深度: %d，仅支持16位PCM", m.BitDepth)
	}
	if len(data)%m.FrameSize() != 0 {
		return types.NewValidationError("PCM数据长度 %d 不是帧大小 %d 的整数倍", len(data), m.FrameSize())
	}
	return nil
}

// Frames 数据包含的帧数。调用前必须已通过CheckPCM。
func (m Meta) Frames(data []byte) int {
	return len(data) / m.FrameSize()
}

// Duration 数据对应的播放时长(秒)
func (m Meta) Duration(data []byte) float64 {
	if m.SampleRate <= 0 || m.FrameSize() <= 0 {
		return 0
	}
	return float64(len(data)/m.FrameSize()) / float64(m.SampleRate)
}

// Format 产物音频的容器/编码格式
type Format string

const (
	FormatWavPcm16 Format = "wav_pcm16" // RIFF/WAVE容器，16位PCM
	FormatRawPcm16 Format = "raw_pcm16" // 无容器裸PCM16
	FormatMP3      Format = "mp3"
	FormatOpus     Format = "opus"
)

// Generated 合成/转码产物。构造后归调用方所有，无内部生命周期。
type Generated struct {
	Data   []byte `json:"-"`
	Meta   Meta   `json:"meta"`
	Format Format `json:"format"`
}

// PCM 预处理管道中流动的值: 裸PCM字节与其元数据
type PCM struct {
	Data []byte
	Meta Meta
}

package audio

import (
	"sync"

	"aiconnect-go/src/core/types"

	opus "github.com/qrtc/opus-go"
)

// opus仅支持固定的几档采样率
var opusSupportedRates = map[int]bool{8000: true, 12000: true, 16000: true, 24000: true, 48000: true}

// OpusDecoder 封装opus解码器
type OpusDecoder struct {
	decoder   *opus.OpusDecoder
	mu        sync.Mutex
	outBuffer []byte
}

// NewOpusDecoder 创建opus解码器，输出为meta描述的PCM16
func NewOpusDecoder(meta Meta) (*OpusDecoder, error) {
	if !opusSupportedRates[meta.SampleRate] {
		return nil, types.NewValidationError("采样率 %dHz 不被Opus支持，仅支持8000/12000/16000/24000/48000Hz", meta.SampleRate)
	}

	decoder, err := opus.CreateOpusDecoder(&opus.OpusDecoderConfig{
		SampleRate:  meta.SampleRate,
		MaxChannels: meta.Channels,
	})
	if err != nil {
		return nil, types.WrapUnknown("创建Opus解码器失败", err)
	}

	bufSize := meta.SampleRate * 2 * meta.Channels * 120 / 1000
	if bufSize < 8192 {
		bufSize = 8192 // 至少8KB的缓冲区
	}

	return &OpusDecoder{
		decoder:   decoder,
		outBuffer: make([]byte, bufSize),
	}, nil
}

// Decode 解码一个opus数据包为PCM16
func (d *OpusDecoder) Decode(opusData []byte) ([]byte, error) {
	if len(opusData) == 0 {
		return nil, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	n, err := d.decoder.Decode(opusData, d.outBuffer)
	if err != nil {
		return nil, types.WrapUnknown("Opus解码失败", err)
	}

	// 返回解码后PCM数据的副本
	result := make([]byte, n)
	copy(result, d.outBuffer[:n])
	return result, nil
}

// Close 关闭解码器
func (d *OpusDecoder) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.decoder != nil {
		if err := d.decoder.Close(); err != nil {
			return types.WrapUnknown("关闭Opus解码器失败", err)
		}
		d.decoder = nil
	}
	return nil
}

// EncodeOpus 将PCM16数据编码为opus数据包序列(60ms帧，末帧补静音)
func EncodeOpus(data []byte, meta Meta) ([][]byte, error) {
	if err := meta.CheckPCM(data); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, types.NewValidationError("PCM数据为空")
	}
	if !opusSupportedRates[meta.SampleRate] {
		return nil, types.NewValidationError("采样率 %dHz 不被Opus支持，仅支持8000/12000/16000/24000/48000Hz", meta.SampleRate)
	}

	encoder, err := opus.CreateOpusEncoder(&opus.OpusEncoderConfig{
		SampleRate:    meta.SampleRate,
		MaxChannels:   meta.Channels,
		Application:   opus.AppVoIP,
		FrameDuration: opus.Framesize60Ms,
	})
	if err != nil {
		return nil, types.WrapUnknown("创建Opus编码器失败", err)
	}
	defer encoder.Close()

	// 60ms帧
	samplesPerFrame := (meta.SampleRate * 60) / 1000
	bytesPerFrame := samplesPerFrame * meta.FrameSize()

	var packets [][]byte
	for start := 0; start < len(data); start += bytesPerFrame {
		end := start + bytesPerFrame
		if end > len(data) {
			end = len(data)
		}

		framePcm := data[start:end]
		if len(framePcm) < bytesPerFrame {
			// 末帧补静音到完整帧
			padded := make([]byte, bytesPerFrame)
			copy(padded, framePcm)
			framePcm = padded
		}

		outBuf := make([]byte, bytesPerFrame)
		n, err := encoder.Encode(framePcm, outBuf)
		if err != nil || n == 0 {
			continue
		}
		packets = append(packets, outBuf[:n])
	}

	if len(packets) == 0 {
		return nil, types.NewValidationError("PCM数据编码后为空")
	}
	return packets, nil
}

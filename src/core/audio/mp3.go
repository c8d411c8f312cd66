package audio

import (
	"bytes"
	"io"

	"aiconnect-go/src/core/types"

	mp3 "github.com/hajimehoshi/go-mp3"
)

// DecodeMP3 将MP3数据解码为PCM16。
// go-mp3固定输出16位小端立体声，这里保留双通道交错数据并在Meta中如实标注，
// 由调用方决定是否继续下混/重采样。
func DecodeMP3(mp3Data []byte) ([]byte, Meta, error) {
	if len(mp3Data) == 0 {
		return nil, Meta{}, types.NewValidationError("MP3数据为空")
	}

	decoder, err := mp3.NewDecoder(bytes.NewReader(mp3Data))
	if err != nil {
		return nil, Meta{}, types.NewValidationError("创建MP3解码器失败: %v", err)
	}

	pcmBytes, err := io.ReadAll(decoder)
	if err != nil {
		return nil, Meta{}, types.WrapUnknown("读取PCM数据失败", err)
	}

	meta := Meta{SampleRate: decoder.SampleRate(), Channels: 2, BitDepth: 16}

	// 保证帧对齐，残缺的末尾帧直接丢弃
	if rem := len(pcmBytes) % meta.FrameSize(); rem != 0 {
		pcmBytes = pcmBytes[:len(pcmBytes)-rem]
	}

	return pcmBytes, meta, nil
}

// MP3ToMonoPCM 将MP3数据解码并下混为指定采样率的单声道PCM16。
// TTS提供者返回MP3时用这里统一转成裸PCM产物。
func MP3ToMonoPCM(mp3Data []byte, targetRate int) ([]byte, Meta, error) {
	pcmData, meta, err := DecodeMP3(mp3Data)
	if err != nil {
		return nil, Meta{}, err
	}

	monoData, monoMeta, err := ToMono(pcmData, meta)
	if err != nil {
		return nil, Meta{}, err
	}

	if targetRate <= 0 || targetRate == monoMeta.SampleRate {
		return monoData, monoMeta, nil
	}
	return Resample(monoData, monoMeta, targetRate)
}

// MP3Duration 计算MP3数据的播放时长(秒)，解码失败时返回0
func MP3Duration(mp3Data []byte) float64 {
	pcmData, meta, err := DecodeMP3(mp3Data)
	if err != nil {
		return 0
	}
	return meta.Duration(pcmData)
}

package audio

import (
	"aiconnect-go/src/core/types"
)

// 纯函数式的PCM16预处理原语。所有函数无共享状态、每次调用分配新的
// 输出缓冲区，可安全并发调用；失败以types.Error返回，绝不panic、
// 绝不部分写出。

// DefaultSilenceThreshold 静音判定的默认振幅阈值
const DefaultSilenceThreshold = 512

// DefaultSTTSampleRate 语音识别的标准采样率
const DefaultSTTSampleRate = 16000

// ToMono 将多通道PCM16下混为单声道。
// 单声道输入原样返回(恰好等值)。每帧取各通道样本的算术平均，
// 先在int32中累加再除以通道数(向零截断)，避免窄类型求和溢出。
func ToMono(data []byte, meta Meta) ([]byte, Meta, error) {
	if err := meta.CheckPCM(data); err != nil {
		return nil, Meta{}, err
	}

	if meta.Channels <= 1 {
		return data, meta, nil
	}

	frameSize := meta.FrameSize()
	numFrames := len(data) / frameSize
	out := make([]byte, numFrames*2)

	for frame := 0; frame < numFrames; frame++ {
		var sum int32
		base := frame * frameSize
		for ch := 0; ch < meta.Channels; ch++ {
			offset := base + ch*2
			sample := int16(uint16(data[offset]) | (uint16(data[offset+1]) << 8))
			sum += int32(sample)
		}
		mixed := int16(sum / int32(meta.Channels))
		out[frame*2] = byte(mixed)
		out[frame*2+1] = byte(mixed >> 8)
	}

	outMeta := meta
	outMeta.Channels = 1
	return out, outMeta, nil
}

// Resample 将PCM16重采样到目标采样率，通道数与位深度不变。
// 逐通道线性插值；插值结果在窄化为int16前钳位到[-32768, 32767]。
func Resample(data []byte, meta Meta, targetRate int) ([]byte, Meta, error) {
	if err := meta.CheckPCM(data); err != nil {
		return nil, Meta{}, err
	}
	if targetRate <= 0 {
		return nil, Meta{}, types.NewValidationError("非法目标采样率: %d", targetRate)
	}

	outMeta := meta
	outMeta.SampleRate = targetRate

	if meta.SampleRate == targetRate {
		return data, outMeta, nil
	}

	frameSize := meta.FrameSize()
	inFrames := len(data) / frameSize
	if inFrames == 0 {
		return []byte{}, outMeta, nil
	}

	// 重采样比率与输出帧数
	ratio := float64(meta.SampleRate) / float64(targetRate)
	outFrames := int(float64(inFrames) / ratio)
	if outFrames == 0 {
		return []byte{}, outMeta, nil
	}

	out := make([]byte, outFrames*frameSize)

	for frame := 0; frame < outFrames; frame++ {
		srcPos := float64(frame) * ratio
		index := int(srcPos)
		fraction := srcPos - float64(index)

		for ch := 0; ch < meta.Channels; ch++ {
			var value float64
			if index >= inFrames-1 {
				// 超出边界时使用最后一帧的样本
				value = float64(readSample(data, (inFrames-1)*frameSize+ch*2))
			} else {
				s1 := float64(readSample(data, index*frameSize+ch*2))
				s2 := float64(readSample(data, (index+1)*frameSize+ch*2))
				value = s1 + fraction*(s2-s1)
			}
			writeSample(out, frame*frameSize+ch*2, clampInt16(value))
		}
	}

	return out, outMeta, nil
}

// TrimSilence 裁掉首尾的静音帧。
// 每帧响度取各通道样本绝对值的最大值；从头扫描到首个响度>=threshold
// 的帧，从尾反向扫描到最后一个，保留闭区间[firstLoud, lastLoud]。
// 全静音输入返回空缓冲区——静音是合法输入，不是错误。
func TrimSilence(data []byte, meta Meta, threshold int) ([]byte, Meta, error) {
	if err := meta.CheckPCM(data); err != nil {
		return nil, Meta{}, err
	}

	frameSize := meta.FrameSize()
	numFrames := len(data) / frameSize

	loud := func(frame int) bool {
		base := frame * frameSize
		for ch := 0; ch < meta.Channels; ch++ {
			sample := int32(readSample(data, base+ch*2))
			if sample < 0 {
				sample = -sample
			}
			if sample >= int32(threshold) {
				return true
			}
		}
		return false
	}

	first := -1
	for frame := 0; frame < numFrames; frame++ {
		if loud(frame) {
			first = frame
			break
		}
	}
	if first < 0 {
		return []byte{}, meta, nil
	}

	last := first
	for frame := numFrames - 1; frame >= first; frame-- {
		if loud(frame) {
			last = frame
			break
		}
	}

	out := make([]byte, (last-first+1)*frameSize)
	copy(out, data[first*frameSize:(last+1)*frameSize])
	return out, meta, nil
}

// StandardizeForSTT 语音识别标准预处理: 下混单声道 → 重采样到targetRate
// → 裁剪静音，顺序执行，首个失败即中止。先下混可减少一半重采样计算量，
// 最后裁剪可避免重采样伪影影响静音阈值判定。
// 任何需要16kHz单声道PCM16输入的识别适配器都应先经过这里。
func StandardizeForSTT(data []byte, meta Meta, targetRate int) ([]byte, Meta, error) {
	if targetRate <= 0 {
		targetRate = DefaultSTTSampleRate
	}

	monoData, monoMeta, err := ToMono(data, meta)
	if err != nil {
		return nil, Meta{}, err
	}

	resampled, resampledMeta, err := Resample(monoData, monoMeta, targetRate)
	if err != nil {
		return nil, Meta{}, err
	}

	return TrimSilence(resampled, resampledMeta, DefaultSilenceThreshold)
}

// readSample 读取小端序16位有符号样本
func readSample(data []byte, offset int) int16 {
	return int16(uint16(data[offset]) | (uint16(data[offset+1]) << 8))
}

// writeSample 写入小端序16位有符号样本
func writeSample(data []byte, offset int, sample int16) {
	data[offset] = byte(sample)
	data[offset+1] = byte(sample >> 8)
}

// clampInt16 钳位到int16范围后窄化
func clampInt16(v float64) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}

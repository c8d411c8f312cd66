package audio

import (
	"bytes"
	"testing"

	"aiconnect-go/src/core/types"
)

// makePCM 按小端序写入int16样本序列
func makePCM(samples ...int16) []byte {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		data[i*2] = byte(s)
		data[i*2+1] = byte(s >> 8)
	}
	return data
}

func stereoMeta(rate int) Meta {
	return Meta{SampleRate: rate, Channels: 2, BitDepth: 16}
}

func monoMeta(rate int) Meta {
	return Meta{SampleRate: rate, Channels: 1, BitDepth: 16}
}

func TestToMono(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		meta     Meta
		expected []byte
	}{
		{
			name:     "单声道输入原样返回",
			data:     makePCM(100, -200, 300),
			meta:     monoMeta(16000),
			expected: makePCM(100, -200, 300),
		},
		{
			name:     "立体声逐帧取平均",
			data:     makePCM(100, 200, -100, -300),
			meta:     stereoMeta(16000),
			expected: makePCM(150, -200),
		},
		{
			name:     "空缓冲区得到空结果",
			data:     []byte{},
			meta:     stereoMeta(16000),
			expected: []byte{},
		},
		{
			name: "极值平均不溢出",
			// 两个通道都是Int16最小值，int32累加后平均仍是最小值
			data:     makePCM(-32768, -32768),
			meta:     stereoMeta(16000),
			expected: makePCM(-32768),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, outMeta, err := ToMono(tt.data, tt.meta)
			if err != nil {
				t.Fatalf("ToMono返回错误: %v", err)
			}
			if !bytes.Equal(out, tt.expected) {
				t.Errorf("ToMono输出 = %v, want %v", out, tt.expected)
			}
			if outMeta.Channels != 1 {
				t.Errorf("输出通道数 = %d, want 1", outMeta.Channels)
			}
			if outMeta.SampleRate != tt.meta.SampleRate || outMeta.BitDepth != tt.meta.BitDepth {
				t.Errorf("采样率/位深度不应改变: %+v", outMeta)
			}
		})
	}
}

func TestToMono_FrameCountInvariant(t *testing.T) {
	// N帧立体声必须产出恰好N帧(2N字节)单声道
	const numFrames = 37
	data := make([]byte, numFrames*4)
	meta := stereoMeta(44100)

	out, _, err := ToMono(data, meta)
	if err != nil {
		t.Fatalf("ToMono返回错误: %v", err)
	}
	if len(out) != numFrames*2 {
		t.Errorf("输出长度 = %d, want %d", len(out), numFrames*2)
	}
}

func TestResample(t *testing.T) {
	t.Run("采样率不变时数据原样返回", func(t *testing.T) {
		data := makePCM(1, 2, 3, 4)
		out, outMeta, err := Resample(data, monoMeta(16000), 16000)
		if err != nil {
			t.Fatalf("Resample返回错误: %v", err)
		}
		if !bytes.Equal(out, data) {
			t.Error("同采样率重采样应返回原数据")
		}
		if outMeta.SampleRate != 16000 {
			t.Errorf("采样率 = %d, want 16000", outMeta.SampleRate)
		}
	})

	t.Run("输出元数据携带目标采样率", func(t *testing.T) {
		data := make([]byte, 400) // 100帧立体声
		out, outMeta, err := Resample(data, stereoMeta(44100), 16000)
		if err != nil {
			t.Fatalf("Resample返回错误: %v", err)
		}
		if outMeta.SampleRate != 16000 {
			t.Errorf("采样率 = %d, want 16000", outMeta.SampleRate)
		}
		if outMeta.Channels != 2 || outMeta.BitDepth != 16 {
			t.Errorf("通道数/位深度不应改变: %+v", outMeta)
		}
		if len(out)%outMeta.FrameSize() != 0 {
			t.Errorf("输出长度 %d 未帧对齐", len(out))
		}
	})

	t.Run("时长按比率缩放", func(t *testing.T) {
		// 44100Hz下441帧=10ms，重采样到16000Hz应得约160帧
		data := make([]byte, 441*2)
		out, outMeta, err := Resample(data, monoMeta(44100), 16000)
		if err != nil {
			t.Fatalf("Resample返回错误: %v", err)
		}
		frames := outMeta.Frames(out)
		if frames < 159 || frames > 161 {
			t.Errorf("输出帧数 = %d, want 约160", frames)
		}
	})

	t.Run("升采样", func(t *testing.T) {
		data := makePCM(0, 1000, 2000, 3000)
		out, outMeta, err := Resample(data, monoMeta(8000), 16000)
		if err != nil {
			t.Fatalf("Resample返回错误: %v", err)
		}
		if outMeta.SampleRate != 16000 {
			t.Errorf("采样率 = %d, want 16000", outMeta.SampleRate)
		}
		if outMeta.Frames(out) != 8 {
			t.Errorf("输出帧数 = %d, want 8", outMeta.Frames(out))
		}
	})

	t.Run("非法目标采样率被拒绝", func(t *testing.T) {
		_, _, err := Resample(makePCM(1), monoMeta(16000), 0)
		assertValidationError(t, err)
	})
}

func TestTrimSilence(t *testing.T) {
	t.Run("全零缓冲区裁剪为空", func(t *testing.T) {
		data := make([]byte, 1000)
		out, outMeta, err := TrimSilence(data, stereoMeta(16000), DefaultSilenceThreshold)
		if err != nil {
			t.Fatalf("TrimSilence返回错误: %v", err)
		}
		if len(out) != 0 {
			t.Errorf("全静音输入应得到空缓冲区，实际 %d 字节", len(out))
		}
		if outMeta != stereoMeta(16000) {
			t.Errorf("元数据不应改变: %+v", outMeta)
		}
	})

	t.Run("单个响帧前后包静音时只保留该帧", func(t *testing.T) {
		samples := make([]int16, 21)
		samples[10] = 600 // 超过默认阈值512
		data := makePCM(samples...)

		out, _, err := TrimSilence(data, monoMeta(16000), DefaultSilenceThreshold)
		if err != nil {
			t.Fatalf("TrimSilence返回错误: %v", err)
		}
		if !bytes.Equal(out, makePCM(600)) {
			t.Errorf("输出 = %v, want 单帧600", out)
		}
	})

	t.Run("保留首末响帧之间的静音", func(t *testing.T) {
		data := makePCM(0, 0, 1000, 0, 0, -1000, 0, 0)
		out, _, err := TrimSilence(data, monoMeta(16000), DefaultSilenceThreshold)
		if err != nil {
			t.Fatalf("TrimSilence返回错误: %v", err)
		}
		if !bytes.Equal(out, makePCM(1000, 0, 0, -1000)) {
			t.Errorf("输出 = %v, want [1000 0 0 -1000]", out)
		}
	})

	t.Run("负样本按绝对值判定响度", func(t *testing.T) {
		data := makePCM(0, -600, 0)
		out, _, err := TrimSilence(data, monoMeta(16000), DefaultSilenceThreshold)
		if err != nil {
			t.Fatalf("TrimSilence返回错误: %v", err)
		}
		if !bytes.Equal(out, makePCM(-600)) {
			t.Errorf("输出 = %v, want 单帧-600", out)
		}
	})

	t.Run("立体声帧响度取通道最大值", func(t *testing.T) {
		// 帧0: (0,0)静音; 帧1: (0,600)响; 帧2: (0,0)静音
		data := makePCM(0, 0, 0, 600, 0, 0)
		out, _, err := TrimSilence(data, stereoMeta(16000), DefaultSilenceThreshold)
		if err != nil {
			t.Fatalf("TrimSilence返回错误: %v", err)
		}
		if !bytes.Equal(out, makePCM(0, 600)) {
			t.Errorf("输出 = %v, want 帧(0,600)", out)
		}
	})
}

func TestStandardizeForSTT(t *testing.T) {
	t.Run("端到端全零立体声输入", func(t *testing.T) {
		// 2通道44100Hz的1000字节全零缓冲区 → 单声道16000Hz空数据
		data := make([]byte, 1000)
		meta := stereoMeta(44100)

		out, outMeta, err := StandardizeForSTT(data, meta, 16000)
		if err != nil {
			t.Fatalf("StandardizeForSTT返回错误: %v", err)
		}
		if outMeta.Channels != 1 {
			t.Errorf("通道数 = %d, want 1", outMeta.Channels)
		}
		if outMeta.SampleRate != 16000 {
			t.Errorf("采样率 = %d, want 16000", outMeta.SampleRate)
		}
		if len(out) != 0 {
			t.Errorf("全零输入应得到空数据，实际 %d 字节", len(out))
		}
	})

	t.Run("与手工串联各步骤结果一致", func(t *testing.T) {
		samples := make([]int16, 800)
		for i := range samples {
			if i%7 == 0 {
				samples[i] = int16(i * 13 % 3000)
			}
		}
		data := makePCM(samples...)
		meta := stereoMeta(44100)

		composed, composedMeta, err := StandardizeForSTT(data, meta, 16000)
		if err != nil {
			t.Fatalf("StandardizeForSTT返回错误: %v", err)
		}

		monoData, monoM, err := ToMono(data, meta)
		if err != nil {
			t.Fatalf("ToMono返回错误: %v", err)
		}
		resampled, resampledM, err := Resample(monoData, monoM, 16000)
		if err != nil {
			t.Fatalf("Resample返回错误: %v", err)
		}
		manual, manualMeta, err := TrimSilence(resampled, resampledM, DefaultSilenceThreshold)
		if err != nil {
			t.Fatalf("TrimSilence返回错误: %v", err)
		}

		if !bytes.Equal(composed, manual) {
			t.Error("组合管道与手工串联结果不一致")
		}
		if composedMeta != manualMeta {
			t.Errorf("元数据不一致: %+v vs %+v", composedMeta, manualMeta)
		}
	})

	t.Run("目标采样率为0时使用16000默认值", func(t *testing.T) {
		data := makePCM(600, 600)
		_, outMeta, err := StandardizeForSTT(data, stereoMeta(44100), 0)
		if err != nil {
			t.Fatalf("StandardizeForSTT返回错误: %v", err)
		}
		if outMeta.SampleRate != DefaultSTTSampleRate {
			t.Errorf("采样率 = %d, want %d", outMeta.SampleRate, DefaultSTTSampleRate)
		}
	})
}

func TestMalformedInputRejection(t *testing.T) {
	// 长度不是帧大小整数倍的缓冲区必须被所有预处理函数拒绝
	badData := make([]byte, 5) // 立体声帧大小为4
	meta := stereoMeta(16000)

	t.Run("ToMono拒绝", func(t *testing.T) {
		_, _, err := ToMono(badData, meta)
		assertValidationError(t, err)
	})
	t.Run("Resample拒绝", func(t *testing.T) {
		_, _, err := Resample(badData, meta, 16000)
		assertValidationError(t, err)
	})
	t.Run("TrimSilence拒绝", func(t *testing.T) {
		_, _, err := TrimSilence(badData, meta, DefaultSilenceThreshold)
		assertValidationError(t, err)
	})
	t.Run("StandardizeForSTT拒绝", func(t *testing.T) {
		_, _, err := StandardizeForSTT(badData, meta, 16000)
		assertValidationError(t, err)
	})
	t.Run("非16位深度被拒绝", func(t *testing.T) {
		_, _, err := ToMono(make([]byte, 8), Meta{SampleRate: 16000, Channels: 2, BitDepth: 8})
		assertValidationError(t, err)
	})
}

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("期望返回错误，实际为nil")
	}
	opErr, ok := err.(*types.Error)
	if !ok {
		t.Fatalf("期望*types.Error，实际 %T", err)
	}
	if opErr.Code != types.ErrValidation {
		t.Errorf("错误分类 = %s, want %s", opErr.Code, types.ErrValidation)
	}
}

package audio

import (
	"bytes"
	"testing"

	"aiconnect-go/src/core/types"
)

func TestSttValidator(t *testing.T) {
	validator := SttValidator()

	t.Run("合法输入通过", func(t *testing.T) {
		input := PCM{Data: makePCM(1, 2), Meta: stereoMeta(16000)}
		if err := validator.Validate(input); err != nil {
			t.Errorf("合法输入不应被拒绝: %v", err)
		}
	})

	t.Run("空音频被拒绝", func(t *testing.T) {
		input := PCM{Data: []byte{}, Meta: monoMeta(16000)}
		err := validator.Validate(input)
		assertValidationError(t, err)
	})

	t.Run("未帧对齐被拒绝", func(t *testing.T) {
		input := PCM{Data: make([]byte, 7), Meta: stereoMeta(16000)}
		err := validator.Validate(input)
		assertValidationError(t, err)
	})
}

func TestSttPreprocessor_MatchesStandardize(t *testing.T) {
	// 管道表达与直接组合函数必须逐字节一致——组合管道没有隐藏步骤
	samples := make([]int16, 600)
	for i := range samples {
		if i%11 == 0 {
			samples[i] = int16((i * 97) % 5000)
		}
	}
	data := makePCM(samples...)
	meta := stereoMeta(44100)

	viaPipeline, err := SttPreprocessor(16000).Convert(PCM{Data: data, Meta: meta})
	if err != nil {
		t.Fatalf("SttPreprocessor返回错误: %v", err)
	}

	directData, directMeta, err := StandardizeForSTT(data, meta, 16000)
	if err != nil {
		t.Fatalf("StandardizeForSTT返回错误: %v", err)
	}

	if !bytes.Equal(viaPipeline.Data, directData) {
		t.Error("管道结果与StandardizeForSTT不一致")
	}
	if viaPipeline.Meta != directMeta {
		t.Errorf("元数据不一致: %+v vs %+v", viaPipeline.Meta, directMeta)
	}
}

func TestSttPreprocessor_FailurePropagation(t *testing.T) {
	// 畸形输入在第一阶段失败并原样传播错误分类
	input := PCM{Data: make([]byte, 3), Meta: stereoMeta(44100)}
	_, err := SttPreprocessor(16000).Convert(input)
	if err == nil {
		t.Fatal("畸形输入应返回错误")
	}
	opErr, ok := err.(*types.Error)
	if !ok || opErr.Code != types.ErrValidation {
		t.Errorf("错误 = %v, want VALIDATION分类", err)
	}
}

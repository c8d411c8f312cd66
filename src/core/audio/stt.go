package audio

import (
	"aiconnect-go/src/core/pipeline"
	"aiconnect-go/src/core/types"
)

// 标准语音识别管道的组件。识别适配器默认使用SttValidator + SttPreprocessor；
// 有特殊需求的提供者(例如不裁剪静音)可以用pipeline包自行拼装。

// NonEmptyValidator 拒绝空音频
func NonEmptyValidator() pipeline.Validator[PCM] {
	return pipeline.ValidatorFunc[PCM](func(input PCM) error {
		if len(input.Data) == 0 {
			return types.NewValidationError("音频数据为空")
		}
		return nil
	})
}

// FrameAlignedValidator 拒绝长度不是帧大小整数倍的缓冲区
func FrameAlignedValidator() pipeline.Validator[PCM] {
	return pipeline.ValidatorFunc[PCM](func(input PCM) error {
		return input.Meta.CheckPCM(input.Data)
	})
}

// SttValidator 标准识别输入校验: 非空 且 帧对齐
func SttValidator() pipeline.Validator[PCM] {
	return pipeline.ChainValidators(NonEmptyValidator(), FrameAlignedValidator())
}

// MonoStage 下混单声道转换阶段
func MonoStage() pipeline.Converter[PCM, PCM] {
	return pipeline.ConverterFunc[PCM, PCM](func(input PCM) (PCM, error) {
		data, meta, err := ToMono(input.Data, input.Meta)
		if err != nil {
			return PCM{}, err
		}
		return PCM{Data: data, Meta: meta}, nil
	})
}

// ResampleStage 重采样转换阶段
func ResampleStage(targetRate int) pipeline.Converter[PCM, PCM] {
	return pipeline.ConverterFunc[PCM, PCM](func(input PCM) (PCM, error) {
		data, meta, err := Resample(input.Data, input.Meta, targetRate)
		if err != nil {
			return PCM{}, err
		}
		return PCM{Data: data, Meta: meta}, nil
	})
}

// TrimSilenceStage 静音裁剪转换阶段
func TrimSilenceStage(threshold int) pipeline.Converter[PCM, PCM] {
	return pipeline.ConverterFunc[PCM, PCM](func(input PCM) (PCM, error) {
		data, meta, err := TrimSilence(input.Data, input.Meta, threshold)
		if err != nil {
			return PCM{}, err
		}
		return PCM{Data: data, Meta: meta}, nil
	})
}

// SttPreprocessor 标准识别预处理管道，与StandardizeForSTT逐步等价:
// 下混 → 重采样(targetRate) → 裁剪静音
func SttPreprocessor(targetRate int) pipeline.Converter[PCM, PCM] {
	if targetRate <= 0 {
		targetRate = DefaultSTTSampleRate
	}
	return pipeline.Chain(
		MonoStage(),
		ResampleStage(targetRate),
		TrimSilenceStage(DefaultSilenceThreshold),
	)
}

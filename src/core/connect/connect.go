// Package connect 根据环境变量解析模型串并装配对应的提供者实例。
// 模型串形如"<provider>/<model>"，LLM_MODEL/SPEECH_MODEL/IMAGE_MODEL
// 分别驱动对话、语音(合成与识别共用)、图片生成三类能力。
package connect

import (
	"sort"
	"strings"

	"aiconnect-go/src/configs"
	"aiconnect-go/src/core/providers"
	"aiconnect-go/src/core/providers/asr"
	"aiconnect-go/src/core/providers/image"
	"aiconnect-go/src/core/providers/llm"
	"aiconnect-go/src/core/providers/tts"
	"aiconnect-go/src/core/types"

	// 注册全部提供者
	_ "aiconnect-go/src/core/providers/asr/azure"
	_ "aiconnect-go/src/core/providers/asr/google"
	_ "aiconnect-go/src/core/providers/asr/openai"
	_ "aiconnect-go/src/core/providers/asr/whispercli"
	_ "aiconnect-go/src/core/providers/image/huggingface"
	_ "aiconnect-go/src/core/providers/image/openai"
	_ "aiconnect-go/src/core/providers/llm/anthropic"
	_ "aiconnect-go/src/core/providers/llm/azure"
	_ "aiconnect-go/src/core/providers/llm/ollama"
	_ "aiconnect-go/src/core/providers/llm/openai"
	_ "aiconnect-go/src/core/providers/tts/azure"
	_ "aiconnect-go/src/core/providers/tts/edge"
	_ "aiconnect-go/src/core/providers/tts/elevenlabs"
	_ "aiconnect-go/src/core/providers/tts/openai"
)

// 能力对应的环境变量
const (
	EnvLLMModel    = "LLM_MODEL"
	EnvSpeechModel = "SPEECH_MODEL"
	EnvImageModel  = "IMAGE_MODEL"
)

// parseModel 读取环境变量并按第一个"/"切分出提供者前缀与模型名。
// 模型名自身可以再含"/"(如HuggingFace的org/model)。
func parseModel(variable string, env configs.Env) (string, string, error) {
	value, ok := env.Get(variable)
	if !ok || value == "" {
		return "", "", types.NewConfigError(variable, "环境变量未设置")
	}

	idx := strings.Index(value, "/")
	if idx <= 0 || idx == len(value)-1 {
		return "", "", types.NewConfigError(variable, "模型串 %q 格式无效，应为<provider>/<model>", value)
	}

	return value[:idx], value[idx+1:], nil
}

// contains 前缀集合查询
func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// LLM 按LLM_MODEL装配大语言模型提供者
func LLM(env configs.Env) (providers.LLMProvider, error) {
	name, model, err := parseModel(EnvLLMModel, env)
	if err != nil {
		return nil, err
	}

	config, err := llm.ConfigFromEnv(name, model, env)
	if err != nil {
		return nil, err
	}

	return llm.Create(name, config)
}

// TTS 按SPEECH_MODEL装配语音合成提供者。
// 纯识别类提供者(google/whispercli)不支持合成，单独报错。
func TTS(env configs.Env) (providers.TTSProvider, error) {
	name, model, err := parseModel(EnvSpeechModel, env)
	if err != nil {
		return nil, err
	}

	if !contains(tts.EnvPrefixes(), name) {
		if contains(asr.EnvPrefixes(), name) {
			return nil, types.NewConfigError(EnvSpeechModel, "提供者 %s 不支持语音合成能力", name)
		}
		return nil, types.NewConfigError(EnvSpeechModel, "未知的语音提供者前缀: %s，支持: %s",
			name, strings.Join(speechPrefixes(), ", "))
	}

	config, err := tts.ConfigFromEnv(name, model, env)
	if err != nil {
		return nil, err
	}

	return tts.Create(name, config)
}

// ASR 按SPEECH_MODEL装配语音识别提供者。
// 纯合成类提供者(edge/elevenlabs)不支持识别，单独报错。
func ASR(env configs.Env) (providers.ASRProvider, error) {
	name, model, err := parseModel(EnvSpeechModel, env)
	if err != nil {
		return nil, err
	}

	if !contains(asr.EnvPrefixes(), name) {
		if contains(tts.EnvPrefixes(), name) {
			return nil, types.NewConfigError(EnvSpeechModel, "提供者 %s 不支持语音识别能力", name)
		}
		return nil, types.NewConfigError(EnvSpeechModel, "未知的语音提供者前缀: %s，支持: %s",
			name, strings.Join(speechPrefixes(), ", "))
	}

	config, err := asr.ConfigFromEnv(name, model, env)
	if err != nil {
		return nil, err
	}

	return asr.Create(name, config)
}

// Image 按IMAGE_MODEL装配图片生成提供者
func Image(env configs.Env) (providers.ImageProvider, error) {
	name, model, err := parseModel(EnvImageModel, env)
	if err != nil {
		return nil, err
	}

	config, err := image.ConfigFromEnv(name, model, env)
	if err != nil {
		return nil, err
	}

	return image.Create(name, config)
}

// speechPrefixes 合成与识别前缀的有序并集
func speechPrefixes() []string {
	seen := make(map[string]bool)
	var names []string
	for _, name := range append(tts.EnvPrefixes(), asr.EnvPrefixes()...) {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

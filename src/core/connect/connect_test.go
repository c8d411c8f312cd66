package connect

import (
	"errors"
	"strings"
	"testing"

	"aiconnect-go/src/configs"
	"aiconnect-go/src/core/types"
)

// configError 断言错误是ConfigError且Variable匹配
func configError(t *testing.T, err error, variable string) *types.ConfigError {
	t.Helper()
	if err == nil {
		t.Fatal("期望配置错误，实际为nil")
	}
	var cfgErr *types.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("期望*types.ConfigError，实际 %T: %v", err, err)
	}
	if cfgErr.Variable != variable {
		t.Errorf("Variable = %q, 期望 %q", cfgErr.Variable, variable)
	}
	return cfgErr
}

func TestLLM_环境变量未设置(t *testing.T) {
	_, err := LLM(configs.MapEnv{})
	cfgErr := configError(t, err, "LLM_MODEL")
	if !strings.Contains(cfgErr.Message, "未设置") {
		t.Errorf("错误信息应指明变量未设置: %s", cfgErr.Message)
	}
}

func TestLLM_模型串格式(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"无分隔符", "gpt-4o-mini"},
		{"前缀为空", "/gpt-4o-mini"},
		{"模型为空", "openai/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LLM(configs.MapEnv{"LLM_MODEL": tt.value})
			configError(t, err, "LLM_MODEL")
		})
	}
}

func TestLLM_未知前缀列出支持集合(t *testing.T) {
	_, err := LLM(configs.MapEnv{"LLM_MODEL": "nosuch/model-x"})
	if err == nil {
		t.Fatal("期望错误，实际为nil")
	}
	for _, name := range []string{"anthropic", "azure", "ollama", "openai"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("错误信息应列出前缀 %s: %v", name, err)
		}
	}
}

func TestLLM_缺少密钥时指明变量(t *testing.T) {
	_, err := LLM(configs.MapEnv{"LLM_MODEL": "openai/gpt-4o-mini"})
	configError(t, err, "OPENAI_API_KEY")
}

func TestLLM_装配成功(t *testing.T) {
	provider, err := LLM(configs.MapEnv{
		"LLM_MODEL":      "openai/gpt-4o-mini",
		"OPENAI_API_KEY": "sk-test",
	})
	if err != nil {
		t.Fatalf("LLM装配失败: %v", err)
	}
	if provider == nil {
		t.Fatal("期望非nil提供者")
	}
	defer provider.Cleanup()
}

func TestLLM_Ollama无需密钥(t *testing.T) {
	provider, err := LLM(configs.MapEnv{"LLM_MODEL": "ollama/qwen3:4b"})
	if err != nil {
		t.Fatalf("Ollama装配失败: %v", err)
	}
	defer provider.Cleanup()
}

func TestTTS_装配成功(t *testing.T) {
	provider, err := TTS(configs.MapEnv{"SPEECH_MODEL": "edge/zh-CN-XiaoxiaoNeural"})
	if err != nil {
		t.Fatalf("TTS装配失败: %v", err)
	}
	defer provider.Cleanup()
}

func TestTTS_纯识别提供者不支持合成(t *testing.T) {
	tests := []string{"google/latest_long", "whispercli/base"}
	for _, value := range tests {
		t.Run(value, func(t *testing.T) {
			_, err := TTS(configs.MapEnv{"SPEECH_MODEL": value})
			cfgErr := configError(t, err, "SPEECH_MODEL")
			if !strings.Contains(cfgErr.Message, "不支持语音合成") {
				t.Errorf("应报能力不支持而非未知前缀: %s", cfgErr.Message)
			}
		})
	}
}

func TestASR_纯合成提供者不支持识别(t *testing.T) {
	tests := []string{"edge/zh-CN-XiaoxiaoNeural", "elevenlabs/eleven_multilingual_v2"}
	for _, value := range tests {
		t.Run(value, func(t *testing.T) {
			_, err := ASR(configs.MapEnv{"SPEECH_MODEL": value})
			cfgErr := configError(t, err, "SPEECH_MODEL")
			if !strings.Contains(cfgErr.Message, "不支持语音识别") {
				t.Errorf("应报能力不支持而非未知前缀: %s", cfgErr.Message)
			}
		})
	}
}

func TestASR_未知前缀列出语音并集(t *testing.T) {
	_, err := ASR(configs.MapEnv{"SPEECH_MODEL": "nosuch/model-x"})
	cfgErr := configError(t, err, "SPEECH_MODEL")
	for _, name := range []string{"azure", "edge", "elevenlabs", "google", "openai", "whispercli"} {
		if !strings.Contains(cfgErr.Message, name) {
			t.Errorf("错误信息应列出语音前缀 %s: %s", name, cfgErr.Message)
		}
	}
}

func TestASR_缺少密钥时指明变量(t *testing.T) {
	tests := []struct {
		model    string
		variable string
	}{
		{"openai/whisper-1", "OPENAI_API_KEY"},
		{"azure/conversation", "AZURE_SPEECH_API_KEY"},
		{"google/latest_long", "GOOGLE_SPEECH_API_KEY"},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			_, err := ASR(configs.MapEnv{"SPEECH_MODEL": tt.model})
			configError(t, err, tt.variable)
		})
	}
}

func TestASR_Azure缺少区域(t *testing.T) {
	_, err := ASR(configs.MapEnv{
		"SPEECH_MODEL":         "azure/conversation",
		"AZURE_SPEECH_API_KEY": "key",
	})
	configError(t, err, "AZURE_SPEECH_REGION")
}

func TestImage_模型名可含斜杠(t *testing.T) {
	provider, err := Image(configs.MapEnv{
		"IMAGE_MODEL":         "huggingface/stabilityai/stable-diffusion-xl-base-1.0",
		"HUGGINGFACE_API_KEY": "hf-test",
	})
	if err != nil {
		t.Fatalf("Image装配失败: %v", err)
	}
	defer provider.Cleanup()
}

func TestImage_环境变量未设置(t *testing.T) {
	_, err := Image(configs.MapEnv{})
	configError(t, err, "IMAGE_MODEL")
}

func TestImage_未知前缀(t *testing.T) {
	_, err := Image(configs.MapEnv{"IMAGE_MODEL": "nosuch/model-x"})
	if err == nil {
		t.Fatal("期望错误，实际为nil")
	}
	if !strings.Contains(err.Error(), "huggingface") || !strings.Contains(err.Error(), "openai") {
		t.Errorf("错误信息应列出图片生成前缀: %v", err)
	}
}

func Test同一语音模型串同时驱动合成与识别(t *testing.T) {
	env := configs.MapEnv{
		"SPEECH_MODEL":         "azure/zh-CN-XiaoxiaoNeural",
		"AZURE_SPEECH_API_KEY": "key",
		"AZURE_SPEECH_REGION":  "eastasia",
	}

	ttsProvider, err := TTS(env)
	if err != nil {
		t.Fatalf("TTS装配失败: %v", err)
	}
	defer ttsProvider.Cleanup()

	asrProvider, err := ASR(env)
	if err != nil {
		t.Fatalf("ASR装配失败: %v", err)
	}
	defer asrProvider.Cleanup()
}

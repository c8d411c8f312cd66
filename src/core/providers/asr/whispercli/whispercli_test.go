package whispercli

import (
	"reflect"
	"testing"
)

func Test命令行参数组装(t *testing.T) {
	tests := []struct {
		name     string
		model    string
		wavPath  string
		language string
		want     []string
	}{
		{
			name:    "仅音频文件",
			wavPath: "/tmp/a.wav",
			want:    []string{"-f", "/tmp/a.wav", "-nt"},
		},
		{
			name:    "指定模型",
			model:   "models/ggml-base.bin",
			wavPath: "/tmp/a.wav",
			want:    []string{"-f", "/tmp/a.wav", "-nt", "-m", "models/ggml-base.bin"},
		},
		{
			name:     "指定语言",
			wavPath:  "/tmp/a.wav",
			language: "zh",
			want:     []string{"-f", "/tmp/a.wav", "-nt", "-l", "zh"},
		},
		{
			name:     "模型与语言",
			model:    "base",
			wavPath:  "/tmp/a.wav",
			language: "en",
			want:     []string{"-f", "/tmp/a.wav", "-nt", "-m", "base", "-l", "en"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildArgs(tt.model, tt.wavPath, tt.language)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("buildArgs() = %v, 期望 %v", got, tt.want)
			}
		})
	}
}

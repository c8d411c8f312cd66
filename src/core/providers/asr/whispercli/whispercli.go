package whispercli

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"aiconnect-go/src/core/audio"
	"aiconnect-go/src/core/providers/asr"
	"aiconnect-go/src/core/types"
)

// Provider 本地whisper.cpp命令行识别提供者。
// 音频落盘为WAV临时文件后调用可执行程序，识别文本取自标准输出。
type Provider struct {
	*asr.BaseProvider
	cliPath string
}

// 注册提供者
func init() {
	asr.Register("whispercli", func(config *asr.Config) (asr.Provider, error) {
		return NewProvider(config)
	})
}

// NewProvider 创建whisper命令行提供者
func NewProvider(config *asr.Config) (*Provider, error) {
	base := asr.NewBaseProvider(config)
	return &Provider{
		BaseProvider: base,
	}, nil
}

// Initialize 初始化提供者，确认可执行程序存在
func (p *Provider) Initialize() error {
	p.cliPath = p.Config().CLIPath
	if p.cliPath == "" {
		p.cliPath = "whisper"
	}

	if _, err := exec.LookPath(p.cliPath); err != nil {
		return types.NewConfigError("WHISPER_CLI_PATH", "whisper可执行程序不存在: %s", p.cliPath)
	}
	return nil
}

// Transcribe 识别音频，输入裸PCM16
func (p *Provider) Transcribe(ctx context.Context, audioData []byte, opts types.ASROptions) (*types.TranscriptionResponse, error) {
	meta := audio.DefaultMeta
	if opts.SampleRate > 0 {
		meta.SampleRate = opts.SampleRate
	}
	if opts.Channels > 0 {
		meta.Channels = opts.Channels
	}

	pcm, meta, err := audio.StandardizeForSTT(audioData, meta, audio.DefaultSTTSampleRate)
	if err != nil {
		return nil, err
	}
	if len(pcm) == 0 {
		return &types.TranscriptionResponse{}, nil
	}

	tmpDir, err := os.MkdirTemp("", "whispercli")
	if err != nil {
		return nil, types.WrapUnknown("创建临时目录失败", err)
	}
	defer os.RemoveAll(tmpDir)

	wavPath, err := audio.SaveWav(pcm, meta, filepath.Join(tmpDir, "input.wav"))
	if err != nil {
		return nil, err
	}

	language := opts.Language
	if language == "" {
		language = p.Config().Language
	}

	args := buildArgs(p.Config().ModelName, wavPath, language)
	cmd := exec.CommandContext(ctx, p.cliPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, types.NewServiceError(500, "whisper执行失败: "+msg)
	}

	return &types.TranscriptionResponse{
		Text:     strings.TrimSpace(stdout.String()),
		Language: language,
		Duration: meta.Duration(pcm),
	}, nil
}

// buildArgs 组装whisper.cpp命令行参数。-nt去掉时间戳，
// 识别文本直接走标准输出。
func buildArgs(model, wavPath, language string) []string {
	args := []string{"-f", wavPath, "-nt"}
	if model != "" {
		args = append(args, "-m", model)
	}
	if language != "" {
		args = append(args, "-l", language)
	}
	return args
}

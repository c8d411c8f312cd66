package audio

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestWrapWav(t *testing.T) {
	data := makePCM(100, -100, 200, -200)
	meta := stereoMeta(16000)

	wav, err := WrapWav(data, meta)
	if err != nil {
		t.Fatalf("WrapWav返回错误: %v", err)
	}

	if len(wav) != 44+len(data) {
		t.Fatalf("WAV长度 = %d, want %d", len(wav), 44+len(data))
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		t.Error("缺少RIFF/WAVE标识")
	}
	// fmt块: PCM格式、通道数、采样率
	if wav[20] != 1 {
		t.Error("音频格式应为PCM(1)")
	}
	if int(wav[22]) != meta.Channels {
		t.Errorf("通道数 = %d, want %d", wav[22], meta.Channels)
	}
	rate := int(wav[24]) | int(wav[25])<<8 | int(wav[26])<<16 | int(wav[27])<<24
	if rate != meta.SampleRate {
		t.Errorf("采样率 = %d, want %d", rate, meta.SampleRate)
	}
	if !bytes.Equal(wav[44:], data) {
		t.Error("PCM数据部分不一致")
	}
}

func TestWrapWav_MalformedInput(t *testing.T) {
	_, err := WrapWav(make([]byte, 3), stereoMeta(16000))
	assertValidationError(t, err)
}

func TestSaveAndReadWav(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "test.wav")
	data := makePCM(512, -512, 1024, -1024)
	meta := monoMeta(16000)

	saved, err := SaveWav(data, meta, path)
	if err != nil {
		t.Fatalf("SaveWav返回错误: %v", err)
	}
	if saved != path {
		t.Errorf("返回路径 = %s, want %s", saved, path)
	}

	read, err := ReadWavPCM(path)
	if err != nil {
		t.Fatalf("ReadWavPCM返回错误: %v", err)
	}
	if !bytes.Equal(read, data) {
		t.Error("写入后读出的PCM数据不一致")
	}
}

func TestSaveRawPcm16(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "raw.pcm")
	data := makePCM(1, 2, 3)

	saved, err := SaveRawPcm16(data, monoMeta(16000), path)
	if err != nil {
		t.Fatalf("SaveRawPcm16返回错误: %v", err)
	}
	if saved != path {
		t.Errorf("返回路径 = %s, want %s", saved, path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("读取文件失败: %v", err)
	}
	if !bytes.Equal(content, data) {
		t.Error("裸PCM文件内容不一致")
	}
}

func TestReadWavPCM_RejectsNonWav(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.wav")
	if err := os.WriteFile(path, make([]byte, 100), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadWavPCM(path); err == nil {
		t.Error("非WAV内容应被拒绝")
	}
}

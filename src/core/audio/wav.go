package audio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"aiconnect-go/src/core/types"
)

const wavHeaderSize = 44

// WrapWav 为裸PCM16数据加上RIFF/WAVE头
func WrapWav(data []byte, meta Meta) ([]byte, error) {
	if err := meta.CheckPCM(data); err != nil {
		return nil, err
	}
	out := make([]byte, wavHeaderSize+len(data))
	writeWavHeader(out, len(data), meta.SampleRate, meta.Channels, meta.BitDepth)
	copy(out[wavHeaderSize:], data)
	return out, nil
}

// SaveWav 将PCM16数据以WAV容器写入指定路径，成功时返回该路径
func SaveWav(data []byte, meta Meta, path string) (string, error) {
	wav, err := WrapWav(data, meta)
	if err != nil {
		return "", err
	}
	if err := writeFile(wav, path); err != nil {
		return "", err
	}
	return path, nil
}

// SaveRawPcm16 将无容器的裸PCM16数据写入指定路径，成功时返回该路径
func SaveRawPcm16(data []byte, meta Meta, path string) (string, error) {
	if err := meta.CheckPCM(data); err != nil {
		return "", err
	}
	if err := writeFile(data, path); err != nil {
		return "", err
	}
	return path, nil
}

// ReadWavPCM 从WAV文件读取PCM数据(跳过44字节标准头)
func ReadWavPCM(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, types.WrapUnknown("打开WAV文件失败", err)
	}
	defer file.Close()

	header := make([]byte, wavHeaderSize)
	if _, err := io.ReadFull(file, header); err != nil {
		return nil, types.NewValidationError("读取WAV头失败: %v", err)
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return nil, types.NewValidationError("不是合法的WAV文件: %s", path)
	}

	pcmData, err := io.ReadAll(file)
	if err != nil {
		return nil, types.WrapUnknown("读取PCM数据失败", err)
	}
	return pcmData, nil
}

func writeFile(data []byte, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return types.WrapUnknown(fmt.Sprintf("创建目录失败: %s", dir), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return types.WrapUnknown(fmt.Sprintf("写入文件失败: %s", path), err)
	}
	return nil
}

// writeWavHeader 填写44字节的RIFF/WAVE头
func writeWavHeader(header []byte, dataSize int, sampleRate, channels, bitsPerSample int) {
	// RIFF块
	copy(header[0:4], []byte("RIFF"))

	// 文件总长度 = 数据大小 + 头部大小(36)
	fileSize := uint32(dataSize + 36)
	header[4] = byte(fileSize)
	header[5] = byte(fileSize >> 8)
	header[6] = byte(fileSize >> 16)
	header[7] = byte(fileSize >> 24)

	// 文件类型
	copy(header[8:12], []byte("WAVE"))

	// 格式块
	copy(header[12:16], []byte("fmt "))

	// 格式块大小(16字节)
	header[16] = 16
	header[17] = 0
	header[18] = 0
	header[19] = 0

	// 音频格式(1表示PCM)
	header[20] = 1
	header[21] = 0

	// 通道数
	header[22] = byte(channels)
	header[23] = 0

	// 采样率
	header[24] = byte(sampleRate)
	header[25] = byte(sampleRate >> 8)
	header[26] = byte(sampleRate >> 16)
	header[27] = byte(sampleRate >> 24)

	// 字节率 = 采样率 × 通道数 × 位深度/8
	byteRate := uint32(sampleRate * channels * bitsPerSample / 8)
	header[28] = byte(byteRate)
	header[29] = byte(byteRate >> 8)
	header[30] = byte(byteRate >> 16)
	header[31] = byte(byteRate >> 24)

	// 块对齐 = 通道数 × 位深度/8
	blockAlign := uint16(channels * bitsPerSample / 8)
	header[32] = byte(blockAlign)
	header[33] = byte(blockAlign >> 8)

	// 位深度
	header[34] = byte(bitsPerSample)
	header[35] = byte(bitsPerSample >> 8)

	// 数据块
	copy(header[36:40], []byte("data"))

	// 数据大小
	header[40] = byte(dataSize)
	header[41] = byte(dataSize >> 8)
	header[42] = byte(dataSize >> 16)
	header[43] = byte(dataSize >> 24)
}

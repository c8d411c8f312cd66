package image

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	"aiconnect-go/src/core/types"

	_ "image/gif"  // 注册GIF解码器
	_ "image/jpeg" // 注册JPEG解码器
	_ "image/png"  // 注册PNG解码器

	_ "golang.org/x/image/webp" // 注册WEBP解码器
)

// 生成结果的体积与尺寸上限，超出视为服务端返回异常
const (
	maxImageBytes  = 20 << 20 // 20MB
	maxImageWidth  = 4096
	maxImageHeight = 4096
)

// 图片格式魔数签名
var imageSignatures = map[string][]byte{
	"jpeg": {0xFF, 0xD8},
	"jpg":  {0xFF, 0xD8},
	"png":  {0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A},
	"gif":  {0x47, 0x49, 0x46, 0x38},
	"webp": {0x52, 0x49, 0x46, 0x46}, // RIFF，还需检查WEBP标识
	"bmp":  {0x42, 0x4D},
}

// ImageInfo 验证通过后的图片信息
type ImageInfo struct {
	Format string
	Width  int
	Height int
}

// ValidateGenerated 校验提供者返回的图片数据确实是可解码的图片。
// 先解码获取尺寸(最可靠的手段)，再核对文件头签名。
func ValidateGenerated(data []byte) (*ImageInfo, error) {
	if len(data) == 0 {
		return nil, types.NewServiceError(502, "提供者返回空图片数据")
	}
	if len(data) > maxImageBytes {
		return nil, types.NewServiceError(502, fmt.Sprintf("图片数据超限: %d bytes", len(data)))
	}

	config, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, types.NewServiceError(502, fmt.Sprintf("图片解码失败: %v", err))
	}

	if config.Width > maxImageWidth || config.Height > maxImageHeight {
		return nil, types.NewServiceError(502, fmt.Sprintf("图片尺寸超限: %dx%d", config.Width, config.Height))
	}

	if !matchSignature(data, format) {
		return nil, types.NewServiceError(502, fmt.Sprintf("文件头与格式 %s 不匹配", format))
	}

	return &ImageInfo{
		Format: format,
		Width:  config.Width,
		Height: config.Height,
	}, nil
}

// matchSignature 核对文件头签名
func matchSignature(data []byte, format string) bool {
	signature, exists := imageSignatures[strings.ToLower(format)]
	if !exists {
		// 解码器认识但签名表没收录的格式，放行
		return true
	}

	if len(data) < len(signature) || !bytes.HasPrefix(data, signature) {
		return false
	}

	if strings.ToLower(format) == "webp" && len(data) >= 12 {
		return bytes.Equal(data[8:12], []byte("WEBP"))
	}

	return true
}

package image

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"aiconnect-go/src/core/types"
)

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("编码PNG失败: %v", err)
	}
	return buf.Bytes()
}

func Test合法PNG通过校验(t *testing.T) {
	data := encodePNG(t, 8, 4)

	info, err := ValidateGenerated(data)
	if err != nil {
		t.Fatalf("校验失败: %v", err)
	}
	if info.Format != "png" {
		t.Errorf("Format = %q, 期望 png", info.Format)
	}
	if info.Width != 8 || info.Height != 4 {
		t.Errorf("尺寸 = %dx%d, 期望 8x4", info.Width, info.Height)
	}
}

func Test非图片数据被拒绝(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"空数据", nil},
		{"随机字节", []byte("this is not an image at all")},
		{"伪造PNG头", append([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, []byte("garbage")...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateGenerated(tt.data)
			if err == nil {
				t.Fatal("期望校验失败，实际通过")
			}
			var opErr *types.Error
			if !errors.As(err, &opErr) {
				t.Fatalf("期望*types.Error，实际 %T", err)
			}
			if opErr.Code != types.ErrService {
				t.Errorf("Code = %s, 期望 %s", opErr.Code, types.ErrService)
			}
		})
	}
}

func Test文件头签名核对(t *testing.T) {
	pngData := encodePNG(t, 2, 2)
	if !matchSignature(pngData, "png") {
		t.Error("合法PNG应匹配png签名")
	}
	if matchSignature(pngData, "jpeg") {
		t.Error("PNG数据不应匹配jpeg签名")
	}
	if !matchSignature([]byte("anything"), "tiff") {
		t.Error("签名表未收录的格式应放行")
	}
}

package models

import "time"

// CallRecord 一次能力调用的落库记录
type CallRecord struct {
	ID         uint   `gorm:"primaryKey"`
	RequestID  string `gorm:"index;size:64"` // 网关分配的请求ID
	ClientID   string `gorm:"index;size:64"` // 认证后的客户端ID，匿名为空
	Capability string `gorm:"size:16"`       // chat/tts/asr/image
	Provider   string `gorm:"size:32"`       // 提供者前缀
	Model      string `gorm:"size:128"`      // 模型名
	Success    bool
	ErrorCode  string `gorm:"size:32"` // 失败时的错误分类
	DurationMs int64  // 调用耗时(毫秒)
	CreatedAt  time.Time
}

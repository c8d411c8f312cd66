// Package api 网关HTTP服务：把四类能力以REST接口暴露出去，
// 提供者按环境变量在启动时装配，每次调用写入调用记录。
package api

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"aiconnect-go/src/configs"
	"aiconnect-go/src/core/audio"
	"aiconnect-go/src/core/auth"
	"aiconnect-go/src/core/connect"
	"aiconnect-go/src/core/providers"
	"aiconnect-go/src/core/types"
	"aiconnect-go/src/core/utils"
	"aiconnect-go/src/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Server 网关服务
type Server struct {
	config    *configs.Config
	logger    *utils.Logger
	authToken *auth.AuthToken
	store     *models.CallRecordStore

	llm   providers.LLMProvider
	tts   providers.TTSProvider
	asr   providers.ASRProvider
	image providers.ImageProvider

	// 能力对应的"<provider>/<model>"模型串，用于调用记录
	modelStrings map[string]string
}

// NewServer 创建网关服务并装配提供者。
// 某能力的环境变量未配置时该能力禁用，不阻止网关启动。
func NewServer(config *configs.Config, logger *utils.Logger, baseEnv configs.Env, db *gorm.DB) (*Server, error) {
	env := configs.OverlayEnv{
		Base: baseEnv,
		Overrides: map[string]string{
			connect.EnvLLMModel:    config.SelectedModule["LLM"],
			connect.EnvSpeechModel: config.SelectedModule["SPEECH"],
			connect.EnvImageModel:  config.SelectedModule["IMAGE"],
		},
	}

	s := &Server{
		config:       config,
		logger:       logger,
		modelStrings: make(map[string]string),
	}

	if config.Server.Auth.Enabled {
		authToken, err := auth.NewAuthToken(config.Server.Token)
		if err != nil {
			return nil, fmt.Errorf("初始化认证失败: %w", err)
		}
		s.authToken = authToken
	}

	store, err := models.NewCallRecordStore(db)
	if err != nil {
		return nil, err
	}
	s.store = store

	s.assembleProviders(env)
	return s, nil
}

// assembleProviders 逐能力装配提供者，失败只降级不中断
func (s *Server) assembleProviders(env configs.Env) {
	if provider, err := connect.LLM(env); err != nil {
		s.logger.Warn(fmt.Sprintf("LLM能力未启用: %v", err))
	} else {
		s.llm = provider
		s.modelStrings["chat"], _ = env.Get(connect.EnvLLMModel)
	}

	if provider, err := connect.TTS(env); err != nil {
		s.logger.Warn(fmt.Sprintf("TTS能力未启用: %v", err))
	} else {
		s.tts = provider
		s.modelStrings["tts"], _ = env.Get(connect.EnvSpeechModel)
	}

	if provider, err := connect.ASR(env); err != nil {
		s.logger.Warn(fmt.Sprintf("ASR能力未启用: %v", err))
	} else {
		s.asr = provider
		s.modelStrings["asr"], _ = env.Get(connect.EnvSpeechModel)
	}

	if provider, err := connect.Image(env); err != nil {
		s.logger.Warn(fmt.Sprintf("图片生成能力未启用: %v", err))
	} else {
		s.image = provider
		s.modelStrings["image"], _ = env.Get(connect.EnvImageModel)
	}
}

// Start 注册路由
func (s *Server) Start(ctx context.Context, engine *gin.Engine, apiGroup *gin.RouterGroup) error {
	v1 := apiGroup.Group("/v1")
	v1.Use(s.requestIDMiddleware())

	v1.GET("/status", s.handleStatus)
	v1.POST("/token", s.handleToken)

	protected := v1.Group("")
	protected.Use(s.authMiddleware())
	protected.POST("/chat", s.handleChat)
	protected.POST("/tts", s.handleTTS)
	protected.POST("/asr", s.handleASR)
	protected.POST("/image", s.handleImage)
	protected.GET("/records", s.handleRecords)

	s.logger.Info("网关路由注册完成")
	return nil
}

// Cleanup 清理全部提供者
func (s *Server) Cleanup() error {
	for name, provider := range map[string]providers.Provider{
		"llm": s.llm, "tts": s.tts, "asr": s.asr, "image": s.image,
	} {
		if provider == nil {
			continue
		}
		if err := provider.Cleanup(); err != nil {
			s.logger.Warn(fmt.Sprintf("清理%s提供者失败: %v", name, err))
		}
	}
	return nil
}

// requestIDMiddleware 为每个请求分配ID
func (s *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-Id", requestID)
		c.Next()
	}
}

// authMiddleware Bearer令牌校验，认证关闭时直接放行
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.authToken == nil {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "缺少Bearer认证token",
			})
			return
		}

		clientID, err := s.authToken.VerifyToken(authHeader[7:])
		if err != nil {
			s.logger.Warn(fmt.Sprintf("认证token校验失败: %v", err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "无效的认证token或token已过期",
			})
			return
		}

		c.Set("client_id", clientID)
		c.Next()
	}
}

// handleStatus 能力状态检查
func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"capabilities": gin.H{
			"chat":  s.llm != nil,
			"tts":   s.tts != nil,
			"asr":   s.asr != nil,
			"image": s.image != nil,
		},
		"models":  s.modelStrings,
		"records": s.store.Enabled(),
	})
}

type tokenRequest struct {
	ClientID string `json:"client_id" binding:"required"`
}

// handleToken 为客户端签发访问令牌。调用方须持有服务端配置的
// 共享密钥(X-Api-Token头)，避免任意客户端自助发token。
func (s *Server) handleToken(c *gin.Context) {
	if s.authToken == nil {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "认证未启用，无需token"})
		return
	}

	if c.GetHeader("X-Api-Token") != s.config.Server.Token {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "共享密钥不正确"})
		return
	}

	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "缺少client_id"})
		return
	}

	token, err := s.authToken.GenerateToken(req.ClientID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "token": token})
}

type chatRequest struct {
	Messages []types.Message `json:"messages"`
	Prompt   string          `json:"prompt"`
	Stream   bool            `json:"stream"`
}

// handleChat 对话补全。stream=true时以SSE逐段推送
func (s *Server) handleChat(c *gin.Context) {
	if s.llm == nil {
		s.respondDisabled(c, "chat")
		return
	}

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "请求体解析失败"})
		return
	}

	messages := req.Messages
	if len(messages) == 0 {
		if req.Prompt == "" {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "messages与prompt至少提供一个"})
			return
		}
		messages = []types.Message{{Role: "user", Content: req.Prompt}}
	}

	start := time.Now()

	if req.Stream {
		s.streamChat(c, messages, start)
		return
	}

	response, err := s.llm.Complete(c.Request.Context(), messages)
	s.record(c, "chat", start, err)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"content":     response.Content,
		"stop_reason": response.StopReason,
	})
}

// streamChat SSE流式推送
func (s *Server) streamChat(c *gin.Context, messages []types.Message, start time.Time) {
	requestID := c.GetString("request_id")
	contentChan, err := s.llm.Response(c.Request.Context(), requestID, messages)
	s.record(c, "chat", start, err)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Stream(func(w io.Writer) bool {
		content, ok := <-contentChan
		if !ok {
			return false
		}
		c.SSEvent("message", content)
		return true
	})
}

type ttsRequest struct {
	Text       string  `json:"text" binding:"required"`
	Voice      string  `json:"voice"`
	Format     string  `json:"format"`
	Speed      float64 `json:"speed"`
	SampleRate int     `json:"sample_rate"`
}

// handleTTS 语音合成，音频以base64返回。
// format=opus时在网关侧转码为opus帧序列(提供者本身不出opus)。
func (s *Server) handleTTS(c *gin.Context) {
	if s.tts == nil {
		s.respondDisabled(c, "tts")
		return
	}

	var req ttsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "缺少text字段"})
		return
	}

	providerFormat := req.Format
	if providerFormat == string(audio.FormatOpus) {
		providerFormat = ""
	}

	start := time.Now()
	response, err := s.tts.Synthesize(c.Request.Context(), req.Text, types.TTSOptions{
		Voice:      req.Voice,
		Format:     providerFormat,
		Speed:      req.Speed,
		SampleRate: req.SampleRate,
	})
	s.record(c, "tts", start, err)
	if err != nil {
		s.respondError(c, err)
		return
	}

	s.persistAudio(c, response)

	if req.Format == string(audio.FormatOpus) {
		s.respondOpus(c, response)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"format":     response.Format,
		"duration":   response.Duration,
		"word_count": response.WordCount,
		"audio":      base64.StdEncoding.EncodeToString(response.AudioData),
	})
}

// persistAudio 配置了output_dir时把合成音频落盘，失败只记日志
func (s *Server) persistAudio(c *gin.Context, response *types.AudioResponse) {
	if s.config.OutputDir == "" {
		return
	}

	name := filepath.Join(s.config.OutputDir, c.GetString("request_id"))
	var path string
	var err error
	if response.Format == string(audio.FormatRawPcm16) {
		path, err = audio.SaveWav(response.AudioData, audio.DefaultMeta, name+".wav")
	} else {
		path = name + "." + response.Format
		if mkErr := os.MkdirAll(s.config.OutputDir, 0755); mkErr != nil {
			err = mkErr
		} else {
			err = os.WriteFile(path, response.AudioData, 0644)
		}
	}

	if err != nil {
		s.logger.Warn(fmt.Sprintf("合成音频落盘失败: %v", err))
		return
	}
	s.logger.Debug(fmt.Sprintf("合成音频已保存: %s", path))
}

// respondOpus 把提供者输出转码为opus帧后返回
func (s *Server) respondOpus(c *gin.Context, response *types.AudioResponse) {
	var pcm []byte
	var meta audio.Meta
	var err error

	switch response.Format {
	case string(audio.FormatMP3):
		pcm, meta, err = audio.MP3ToMonoPCM(response.AudioData, audio.DefaultSTTSampleRate)
	case string(audio.FormatRawPcm16):
		pcm, meta = response.AudioData, audio.DefaultMeta
	default:
		err = types.NewValidationError("格式 %s 不支持转码为opus", response.Format)
	}
	if err != nil {
		s.respondError(c, err)
		return
	}

	frames, err := audio.EncodeOpus(pcm, meta)
	if err != nil {
		s.respondError(c, err)
		return
	}

	encoded := make([]string, 0, len(frames))
	for _, frame := range frames {
		encoded = append(encoded, base64.StdEncoding.EncodeToString(frame))
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"format":      string(audio.FormatOpus),
		"sample_rate": meta.SampleRate,
		"duration":    meta.Duration(pcm),
		"word_count":  response.WordCount,
		"frames":      encoded,
	})
}

type asrRequest struct {
	Audio      string   `json:"audio"`  // base64编码的WAV或裸PCM16
	Frames     []string `json:"frames"` // base64编码的opus帧序列(format=opus时)
	Format     string   `json:"format"`
	Language   string   `json:"language"`
	SampleRate int      `json:"sample_rate"`
	Channels   int      `json:"channels"`
}

// handleASR 语音识别。WAV输入自动剥离44字节标准头，
// opus帧输入在网关侧解码为PCM16后再送识别。
func (s *Server) handleASR(c *gin.Context) {
	if s.asr == nil {
		s.respondDisabled(c, "asr")
		return
	}

	var req asrRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "请求体解析失败"})
		return
	}

	audioData, err := decodeASRAudio(&req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	start := time.Now()
	response, err := s.asr.Transcribe(c.Request.Context(), audioData, types.ASROptions{
		Language:   req.Language,
		SampleRate: req.SampleRate,
		Channels:   req.Channels,
	})
	s.record(c, "asr", start, err)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"text":     response.Text,
		"language": response.Language,
		"duration": response.Duration,
		"segments": response.Segments,
	})
}

type imageRequest struct {
	Prompt         string `json:"prompt" binding:"required"`
	Size           string `json:"size"`
	N              int    `json:"n"`
	ResponseFormat string `json:"response_format"`
}

// handleImage 图片生成
func (s *Server) handleImage(c *gin.Context) {
	if s.image == nil {
		s.respondDisabled(c, "image")
		return
	}

	var req imageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "缺少prompt字段"})
		return
	}

	start := time.Now()
	response, err := s.image.Generate(c.Request.Context(), req.Prompt, types.ImageOptions{
		Size:           req.Size,
		N:              req.N,
		ResponseFormat: req.ResponseFormat,
	})
	s.record(c, "image", start, err)
	if err != nil {
		s.respondError(c, err)
		return
	}

	images := make([]string, 0, len(response.Images))
	for _, img := range response.Images {
		images = append(images, base64.StdEncoding.EncodeToString(img))
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"images":         images,
		"urls":           response.URLs,
		"revised_prompt": response.RevisedPrompt,
	})
}

// handleRecords 最近的调用记录
func (s *Server) handleRecords(c *gin.Context) {
	if !s.store.Enabled() {
		c.JSON(http.StatusOK, gin.H{"success": true, "records": []models.CallRecord{}})
		return
	}

	records, err := s.store.Recent(50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "records": records})
}

// record 写入调用记录
func (s *Server) record(c *gin.Context, capability string, start time.Time, callErr error) {
	if !s.store.Enabled() {
		return
	}

	record := &models.CallRecord{
		RequestID:  c.GetString("request_id"),
		ClientID:   c.GetString("client_id"),
		Capability: capability,
		Success:    callErr == nil,
		DurationMs: time.Since(start).Milliseconds(),
	}

	if modelString := s.modelStrings[capability]; modelString != "" {
		if idx := strings.Index(modelString, "/"); idx > 0 {
			record.Provider = modelString[:idx]
			record.Model = modelString[idx+1:]
		}
	}

	var opErr *types.Error
	if errors.As(callErr, &opErr) {
		record.ErrorCode = string(opErr.Code)
	} else if callErr != nil {
		record.ErrorCode = string(types.ErrUnknown)
	}

	if err := s.store.Save(record); err != nil {
		s.logger.Warn(fmt.Sprintf("写入调用记录失败: %v", err))
	}
}

// respondDisabled 能力未启用
func (s *Server) respondDisabled(c *gin.Context, capability string) {
	c.JSON(http.StatusServiceUnavailable, gin.H{
		"success": false,
		"message": fmt.Sprintf("%s能力未启用，请检查模型环境变量", capability),
	})
}

// respondError 把两层错误映射为HTTP响应
func (s *Server) respondError(c *gin.Context, err error) {
	var opErr *types.Error
	if errors.As(err, &opErr) {
		status := http.StatusBadGateway
		switch opErr.Code {
		case types.ErrValidation:
			status = http.StatusBadRequest
		case types.ErrRateLimit:
			status = http.StatusTooManyRequests
		case types.ErrUnknown:
			status = http.StatusInternalServerError
		}
		c.JSON(status, gin.H{
			"success": false,
			"code":    string(opErr.Code),
			"message": opErr.Message,
		})
		return
	}

	var cfgErr *types.ConfigError
	if errors.As(err, &cfgErr) {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"message": cfgErr.Error(),
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
}

// decodeASRAudio 按请求格式取出PCM16数据
func decodeASRAudio(req *asrRequest) ([]byte, error) {
	if req.Format == string(audio.FormatOpus) {
		if len(req.Frames) == 0 {
			return nil, fmt.Errorf("format=opus时必须提供frames")
		}

		meta := audio.DefaultMeta
		if req.SampleRate > 0 {
			meta.SampleRate = req.SampleRate
		}
		if req.Channels > 0 {
			meta.Channels = req.Channels
		}

		decoder, err := audio.NewOpusDecoder(meta)
		if err != nil {
			return nil, err
		}
		defer decoder.Close()

		var pcm []byte
		for i, frame := range req.Frames {
			packet, err := base64.StdEncoding.DecodeString(frame)
			if err != nil {
				return nil, fmt.Errorf("第%d个opus帧不是合法的base64", i)
			}
			decoded, err := decoder.Decode(packet)
			if err != nil {
				return nil, err
			}
			pcm = append(pcm, decoded...)
		}
		return pcm, nil
	}

	if req.Audio == "" {
		return nil, fmt.Errorf("缺少audio字段")
	}
	audioData, err := base64.StdEncoding.DecodeString(req.Audio)
	if err != nil {
		return nil, fmt.Errorf("audio不是合法的base64")
	}
	return stripWavHeader(audioData), nil
}

// stripWavHeader 识别RIFF/WAVE头并剥离，裸PCM原样返回
func stripWavHeader(data []byte) []byte {
	if len(data) > 44 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE" {
		return data[44:]
	}
	return data
}

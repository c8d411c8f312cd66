package image

import (
	"fmt"
	"sort"
	"strings"

	"aiconnect-go/src/configs"
	"aiconnect-go/src/core/providers"
	"aiconnect-go/src/core/types"
)

// Config 图片生成配置结构
type Config struct {
	Type      string `yaml:"type"`
	ModelName string `yaml:"model_name"`
	APIKey    string `yaml:"api_key,omitempty"`
	BaseURL   string `yaml:"base_url,omitempty"`
	Size      string `yaml:"size,omitempty"`
}

// Provider 图片生成提供者接口
type Provider interface {
	providers.ImageProvider
}

// BaseProvider 图片生成基础实现
type BaseProvider struct {
	config *Config
}

// Config 获取配置
func (p *BaseProvider) Config() *Config {
	return p.config
}

// NewBaseProvider 创建图片生成基础提供者
func NewBaseProvider(config *Config) *BaseProvider {
	return &BaseProvider{
		config: config,
	}
}

// Initialize 初始化提供者
func (p *BaseProvider) Initialize() error {
	return nil
}

// Cleanup 清理资源
func (p *BaseProvider) Cleanup() error {
	return nil
}

// Factory 图片生成工厂函数类型
type Factory func(config *Config) (Provider, error)

var (
	factories = make(map[string]Factory)
)

// Register 注册图片生成提供者工厂
func Register(name string, factory Factory) {
	factories[name] = factory
}

// Supported 已注册的提供者名称(有序)
func Supported() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Create 创建图片生成提供者实例
func Create(name string, config *Config) (Provider, error) {
	if config == nil {
		return nil, types.NewConfigError("", "图片生成配置为空")
	}
	if config.Type != "" && config.Type != name {
		return nil, types.NewConfigError("", "图片生成配置类型 %s 与请求的提供者 %s 不匹配", config.Type, name)
	}

	factory, ok := factories[name]
	if !ok {
		return nil, types.NewConfigError("", "未知的图片生成提供者: %s，支持: %s", name, strings.Join(Supported(), ", "))
	}

	provider, err := factory(config)
	if err != nil {
		return nil, fmt.Errorf("创建图片生成提供者失败: %v", err)
	}

	if err := provider.Initialize(); err != nil {
		return nil, fmt.Errorf("初始化图片生成提供者失败: %v", err)
	}

	return provider, nil
}

// envPrefixes 图片生成能力支持的提供者前缀(封闭集合)
var envPrefixes = []string{"huggingface", "openai"}

// ConfigFromEnv 按提供者名从环境变量构建配置
func ConfigFromEnv(name, model string, env configs.Env) (*Config, error) {
	config := &Config{Type: name, ModelName: model}

	switch name {
	case "openai":
		apiKey, ok := env.Get("OPENAI_API_KEY")
		if !ok || apiKey == "" {
			return nil, types.NewConfigError("OPENAI_API_KEY", "环境变量未设置")
		}
		config.APIKey = apiKey
		config.BaseURL, _ = env.Get("OPENAI_BASE_URL")

	case "huggingface":
		apiKey, ok := env.Get("HUGGINGFACE_API_KEY")
		if !ok || apiKey == "" {
			return nil, types.NewConfigError("HUGGINGFACE_API_KEY", "环境变量未设置")
		}
		config.APIKey = apiKey
		config.BaseURL, _ = env.Get("HUGGINGFACE_BASE_URL")

	default:
		return nil, types.NewConfigError("", "未知的图片生成提供者前缀: %s，支持: %s", name, strings.Join(envPrefixes, ", "))
	}

	return config, nil
}

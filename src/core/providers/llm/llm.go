package llm

import (
	"fmt"
	"sort"
	"strings"

	"aiconnect-go/src/configs"
	"aiconnect-go/src/core/types"
)

// Config LLM配置结构
type Config struct {
	Type        string                 `yaml:"type"`
	ModelName   string                 `yaml:"model_name"`
	BaseURL     string                 `yaml:"base_url,omitempty"`
	APIKey      string                 `yaml:"api_key,omitempty"`
	APIVersion  string                 `yaml:"api_version,omitempty"` // Azure专用
	Temperature float64                `yaml:"temperature,omitempty"`
	MaxTokens   int                    `yaml:"max_tokens,omitempty"`
	TopP        float64                `yaml:"top_p,omitempty"`
	Extra       map[string]interface{} `yaml:",inline"`
}

// Provider LLM提供者接口
type Provider interface {
	types.LLMProvider
}

// BaseProvider LLM基础实现
type BaseProvider struct {
	config *Config
}

// Config 获取配置
func (p *BaseProvider) Config() *Config {
	return p.config
}

// NewBaseProvider 创建LLM基础提供者
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

// Factory LLM工厂函数类型
type Factory func(config *Config) (Provider, error)

var (
	factories = make(map[string]Factory)
)

// Register 注册LLM提供者工厂
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

// Create 创建LLM提供者实例
func Create(name string, config *Config) (Provider, error) {
	if config == nil {
		return nil, types.NewConfigError("", "LLM配置为空")
	}
	if config.Type != "" && config.Type != name {
		return nil, types.NewConfigError("", "LLM配置类型 %s 与请求的提供者 %s 不匹配", config.Type, name)
	}

	factory, ok := factories[name]
	if !ok {
		return nil, types.NewConfigError("", "未知的LLM提供者: %s，支持: %s", name, strings.Join(Supported(), ", "))
	}

	provider, err := factory(config)
	if err != nil {
		return nil, fmt.Errorf("创建LLM提供者失败: %v", err)
	}

	if err := provider.Initialize(); err != nil {
		return nil, fmt.Errorf("初始化LLM提供者失败: %v", err)
	}

	return provider, nil
}

// envPrefixes LLM能力支持的提供者前缀(封闭集合)
var envPrefixes = []string{"anthropic", "azure", "ollama", "openai"}

// ConfigFromEnv 按提供者名从环境变量构建配置。
// 必需变量缺失时返回点名该变量的配置错误，不做静默默认。
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

	case "azure":
		apiKey, ok := env.Get("AZURE_OPENAI_API_KEY")
		if !ok || apiKey == "" {
			return nil, types.NewConfigError("AZURE_OPENAI_API_KEY", "环境变量未设置")
		}
		endpoint, ok := env.Get("AZURE_OPENAI_ENDPOINT")
		if !ok || endpoint == "" {
			return nil, types.NewConfigError("AZURE_OPENAI_ENDPOINT", "环境变量未设置")
		}
		config.APIKey = apiKey
		config.BaseURL = endpoint
		if version, ok := env.Get("AZURE_OPENAI_API_VERSION"); ok {
			config.APIVersion = version
		}

	case "anthropic":
		apiKey, ok := env.Get("ANTHROPIC_API_KEY")
		if !ok || apiKey == "" {
			return nil, types.NewConfigError("ANTHROPIC_API_KEY", "环境变量未设置")
		}
		config.APIKey = apiKey
		config.BaseURL, _ = env.Get("ANTHROPIC_BASE_URL")

	case "ollama":
		// Ollama本地部署无需密钥
		config.BaseURL, _ = env.Get("OLLAMA_BASE_URL")

	default:
		return nil, types.NewConfigError("", "未知的LLM提供者前缀: %s，支持: %s", name, strings.Join(envPrefixes, ", "))
	}

	return config, nil
}

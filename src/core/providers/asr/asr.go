package asr

import (
	"fmt"
	"sort"
	"strings"

	"aiconnect-go/src/configs"
	"aiconnect-go/src/core/providers"
	"aiconnect-go/src/core/types"
)

// Config ASR配置结构
type Config struct {
	Type       string `yaml:"type"`
	ModelName  string `yaml:"model_name"`
	APIKey     string `yaml:"api_key,omitempty"`
	BaseURL    string `yaml:"base_url,omitempty"`
	Region     string `yaml:"region,omitempty"`
	Language   string `yaml:"language,omitempty"`
	CLIPath    string `yaml:"cli_path,omitempty"`
	SampleRate int    `yaml:"sample_rate,omitempty"`
}

// Provider ASR提供者接口
type Provider interface {
	providers.ASRProvider
}

// BaseProvider ASR基础实现
type BaseProvider struct {
	config *Config
}

// Config 获取配置
func (p *BaseProvider) Config() *Config {
	return p.config
}

// NewBaseProvider 创建ASR基础提供者
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

// Factory ASR工厂函数类型
type Factory func(config *Config) (Provider, error)

var (
	factories = make(map[string]Factory)
)

// Register 注册ASR提供者工厂
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

// Create 创建ASR提供者实例
func Create(name string, config *Config) (Provider, error) {
	if config == nil {
		return nil, types.NewConfigError("", "ASR配置为空")
	}
	if config.Type != "" && config.Type != name {
		return nil, types.NewConfigError("", "ASR配置类型 %s 与请求的提供者 %s 不匹配", config.Type, name)
	}

	factory, ok := factories[name]
	if !ok {
		return nil, types.NewConfigError("", "未知的ASR提供者: %s，支持: %s", name, strings.Join(Supported(), ", "))
	}

	provider, err := factory(config)
	if err != nil {
		return nil, fmt.Errorf("创建ASR提供者失败: %v", err)
	}

	if err := provider.Initialize(); err != nil {
		return nil, fmt.Errorf("初始化ASR提供者失败: %v", err)
	}

	return provider, nil
}

// envPrefixes ASR能力支持的提供者前缀(封闭集合)
var envPrefixes = []string{"azure", "google", "openai", "whispercli"}

// EnvPrefixes ASR能力支持的提供者前缀
func EnvPrefixes() []string {
	return append([]string(nil), envPrefixes...)
}

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

	case "azure":
		apiKey, ok := env.Get("AZURE_SPEECH_API_KEY")
		if !ok || apiKey == "" {
			return nil, types.NewConfigError("AZURE_SPEECH_API_KEY", "环境变量未设置")
		}
		region, ok := env.Get("AZURE_SPEECH_REGION")
		if !ok || region == "" {
			return nil, types.NewConfigError("AZURE_SPEECH_REGION", "环境变量未设置")
		}
		config.APIKey = apiKey
		config.Region = region

	case "google":
		apiKey, ok := env.Get("GOOGLE_SPEECH_API_KEY")
		if !ok || apiKey == "" {
			return nil, types.NewConfigError("GOOGLE_SPEECH_API_KEY", "环境变量未设置")
		}
		config.APIKey = apiKey

	case "whispercli":
		// 本地whisper可执行程序，无需密钥
		config.CLIPath, _ = env.Get("WHISPER_CLI_PATH")
		if config.CLIPath == "" {
			config.CLIPath = "whisper"
		}

	default:
		return nil, types.NewConfigError("", "未知的ASR提供者前缀: %s，支持: %s", name, strings.Join(envPrefixes, ", "))
	}

	return config, nil
}

package configs

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config 网关主配置结构
type Config struct {
	Server struct {
		IP    string `yaml:"ip"`
		Port  int    `yaml:"port"`
		Token string `yaml:"token"` // JWT签名密钥
		Auth  struct {
			Enabled bool `yaml:"enabled"`
		} `yaml:"auth"`
	} `yaml:"server"`

	Log struct {
		LogFormat string `yaml:"log_format"`
		LogLevel  string `yaml:"log_level"`
		LogDir    string `yaml:"log_dir"`
		LogFile   string `yaml:"log_file"`
	} `yaml:"log"`

	// 各能力的模型串覆盖，键为LLM/TTS/ASR/IMAGE。
	// 为空时回落到对应环境变量(LLM_MODEL/SPEECH_MODEL/IMAGE_MODEL)。
	SelectedModule map[string]string `yaml:"selected_module"`

	OutputDir string `yaml:"output_dir"` // 合成音频的落盘目录
}

// LoadConfig 从文件加载配置，默认使用.config.yaml
func LoadConfig() (*Config, string, error) {
	path := ".config.yaml"
	if _, err := os.Stat(path); os.IsNotExist(err) {
		path = "config.yaml"
	}

	config := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// 没有配置文件时使用默认值，模型选择完全走环境变量
			return config, "", nil
		}
		return nil, path, err
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, path, err
	}

	return config, path, nil
}

func defaultConfig() *Config {
	config := &Config{}
	config.Server.IP = "0.0.0.0"
	config.Server.Port = 8080
	config.Log.LogLevel = "INFO"
	config.Log.LogDir = "logs"
	config.Log.LogFile = "server.log"
	config.OutputDir = "tmp"
	config.SelectedModule = map[string]string{}
	return config
}

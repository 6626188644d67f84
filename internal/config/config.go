package config

import (
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Model   ModelConfig   `mapstructure:"model"`
	OpenAI  OpenAIConfig  `mapstructure:"openai"`
	Doubao  DoubaoConfig  `mapstructure:"doubao"`
	Qwen    QwenConfig    `mapstructure:"qwen"`
	Local   LocalConfig   `mapstructure:"local"`
	Stream  StreamConfig  `mapstructure:"stream"`
	CORS    CORSConfig    `mapstructure:"cors"`
	Log     LogConfig     `mapstructure:"log"`
	Storage StorageConfig `mapstructure:"storage"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MaxHeaderBytes int           `mapstructure:"max_header_bytes"`
}

type ModelConfig struct {
	Provider string `mapstructure:"provider"` // openai | doubao | qwen | local
}

type OpenAIConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float32       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type DoubaoConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float32       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type QwenConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float32       `mapstructure:"temperature"`
	TopP        float32       `mapstructure:"top_p"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type LocalConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// StreamConfig 流式推送参数
type StreamConfig struct {
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	BufferSize        int           `mapstructure:"buffer_size"`
	AttachRetries     int           `mapstructure:"attach_retries"`
	AttachInterval    time.Duration `mapstructure:"attach_interval"`
	GenerateTimeout   time.Duration `mapstructure:"generate_timeout"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type StorageConfig struct {
	Type    string `mapstructure:"type"` // disk | memory
	DataDir string `mapstructure:"data_dir"`
}

var cfg *Config

func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	viper.AutomaticEnv()
	viper.SetEnvPrefix("COUNSEL")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg = &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}

	applyDefaults(cfg)

	// 配置文件优先，缺省时回退到环境变量
	if cfg.OpenAI.APIKey == "" {
		cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Doubao.APIKey == "" {
		if apiKey := os.Getenv("DOUBAO_API_KEY"); apiKey != "" {
			cfg.Doubao.APIKey = apiKey
		}
		if apiKey := os.Getenv("ARK_API_KEY"); apiKey != "" {
			cfg.Doubao.APIKey = apiKey
		}
	}
	if cfg.Qwen.APIKey == "" {
		cfg.Qwen.APIKey = os.Getenv("DASHSCOPE_API_KEY")
	}

	return cfg, nil
}

func applyDefaults(c *Config) {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Stream.HeartbeatInterval == 0 {
		c.Stream.HeartbeatInterval = 10 * time.Second
	}
	if c.Stream.IdleTimeout == 0 {
		c.Stream.IdleTimeout = 30 * time.Second
	}
	if c.Stream.BufferSize == 0 {
		c.Stream.BufferSize = 64
	}
	if c.Stream.AttachRetries == 0 {
		c.Stream.AttachRetries = 10
	}
	if c.Stream.AttachInterval == 0 {
		c.Stream.AttachInterval = 200 * time.Millisecond
	}
	if c.Stream.GenerateTimeout == 0 {
		c.Stream.GenerateTimeout = 120 * time.Second
	}
	if c.Storage.Type == "" {
		c.Storage.Type = "disk"
	}
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = "./data/rulesets"
	}
}

func Get() *Config {
	return cfg
}

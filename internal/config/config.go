package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// 提示词模式
const (
	PromptModeMessage    = "message"    // 仅发送最新一条消息
	PromptModeTranscript = "transcript" // 将历史与最新消息拼接为文本
)

// Config 应用配置根结构
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Generation GenerationConfig `mapstructure:"generation"`
	Log        LogConfig        `mapstructure:"log"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// GenerationConfig 文本生成服务配置
type GenerationConfig struct {
	BaseURL    string        `mapstructure:"base_url"`    // 生成服务基础地址，必填
	Timeout    time.Duration `mapstructure:"timeout"`     // 单次调用超时
	PromptMode string        `mapstructure:"prompt_mode"` // message / transcript
}

// LogConfig 日志配置 (Zerolog)
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig Prometheus 指标配置
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Validate 验证配置有效性
func (c *Config) Validate() error {
	if err := c.Generation.Validate(); err != nil {
		return err
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New("invalid server port")
	}

	validModes := map[string]bool{"debug": true, "release": true, "test": true}
	if !validModes[c.Server.Mode] {
		return errors.New("invalid server mode, must be debug/release/test")
	}

	return nil
}

// Validate 验证生成服务配置，lambda 模式下只校验这一部分
func (g *GenerationConfig) Validate() error {
	if g.BaseURL == "" {
		return errors.New("generation base url is required")
	}

	u, err := url.Parse(g.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid generation base url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid generation base url %q: must be an absolute http(s) url", g.BaseURL)
	}

	if g.Timeout <= 0 {
		return errors.New("generation timeout must be positive")
	}

	switch g.PromptMode {
	case PromptModeMessage, PromptModeTranscript:
	default:
		return fmt.Errorf("invalid prompt mode %q, must be message/transcript", g.PromptMode)
	}

	return nil
}

package config

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Mode: "release",
		},
		Generation: GenerationConfig{
			BaseURL:    "https://example.ngrok-free.app",
			Timeout:    30 * time.Second,
			PromptMode: PromptModeMessage,
		},
	}
}

func TestConfig_Validate(t *testing.T) {
	Convey("Validate 在启动时校验配置", t, func() {
		Convey("完整配置应通过", func() {
			So(validConfig().Validate(), ShouldBeNil)
		})

		Convey("缺少 base url 应失败", func() {
			cfg := validConfig()
			cfg.Generation.BaseURL = ""
			err := cfg.Validate()
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "base url is required")
		})

		Convey("相对地址或非 http 协议应失败", func() {
			for _, raw := range []string{"localhost:8000", "/generate", "ftp://example.com", "http://"} {
				cfg := validConfig()
				cfg.Generation.BaseURL = raw
				So(cfg.Validate(), ShouldNotBeNil)
			}
		})

		Convey("非正数超时应失败", func() {
			cfg := validConfig()
			cfg.Generation.Timeout = 0
			So(cfg.Validate(), ShouldNotBeNil)
		})

		Convey("未知提示词模式应失败", func() {
			cfg := validConfig()
			cfg.Generation.PromptMode = "history"
			So(cfg.Validate(), ShouldNotBeNil)

			cfg.Generation.PromptMode = PromptModeTranscript
			So(cfg.Validate(), ShouldBeNil)
		})

		Convey("端口越界应失败", func() {
			cfg := validConfig()
			cfg.Server.Port = 70000
			So(cfg.Validate(), ShouldNotBeNil)
		})

		Convey("服务模式非法应失败", func() {
			cfg := validConfig()
			cfg.Server.Mode = "prod"
			So(cfg.Validate(), ShouldNotBeNil)
		})
	})
}

func TestGenerationConfig_Validate(t *testing.T) {
	Convey("lambda 模式只校验生成服务配置", t, func() {
		g := GenerationConfig{BaseURL: "http://127.0.0.1:8000/", Timeout: time.Second, PromptMode: PromptModeMessage}
		So(g.Validate(), ShouldBeNil)
	})
}

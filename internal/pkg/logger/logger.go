package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"chatrelay/internal/config"
)

// Init 初始化全局日志
func Init(cfg *config.LogConfig) error {
	output, err := openOutput(cfg)
	if err != nil {
		return err
	}
	Setup(cfg, output)
	return nil
}

// Setup 使用给定输出配置全局 logger，测试中可传入 buffer
func Setup(cfg *config.LogConfig, output io.Writer) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	switch cfg.TimeFormat {
	case "Unix":
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	case "UnixMs":
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	default:
		zerolog.TimeFieldFormat = time.RFC3339
	}

	// Console 格式 (开发环境友好)，lambda 下应使用 json 以便 CloudWatch 检索
	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}
	}

	log.Logger = zerolog.New(output).With().Timestamp().Caller().Logger()
}

func openOutput(cfg *config.LogConfig) (io.Writer, error) {
	switch cfg.Output {
	case "file":
		if cfg.FilePath == "" {
			return os.Stdout, nil
		}
		return os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
	case "stderr":
		return os.Stderr, nil
	default:
		return os.Stdout, nil
	}
}

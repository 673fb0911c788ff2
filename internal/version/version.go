package version

// 构建时通过 -ldflags "-X chatrelay/internal/version.Version=..." 注入
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// UserAgent 调用生成服务时使用的标识
func UserAgent() string {
	return "chatrelay/" + Version
}

package model

// 对话角色
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn 对话中的一条消息
// 转发器只追加，不持久化；历史的所有权始终属于调用方
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AppendTurns 返回追加了新消息的历史副本，不修改传入的切片
func AppendTurns(history []Turn, turns ...Turn) []Turn {
	out := make([]Turn, 0, len(history)+len(turns))
	out = append(out, history...)
	return append(out, turns...)
}

package main

import (
	"os"

	"chatrelay/cmd"
)

// @title        Chat Relay API
// @version      1.0
// @description  对话转发服务：接收对话消息，调用文本生成服务并返回结果
// @BasePath     /
func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

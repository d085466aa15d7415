// manage 是后台管理命令: 迁移数据库, 维护分组, 创建用户
package main

import (
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

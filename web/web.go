// Package web 打包模板和静态资源, 部署时只需要一个二进制
package web

import (
	"embed"
	"io/fs"
)

//go:embed templates static
var files embed.FS

// Templates 返回以 templates/ 为根的文件系统
func Templates() fs.FS {
	sub, err := fs.Sub(files, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// Static 返回以 static/ 为根的文件系统
func Static() fs.FS {
	sub, err := fs.Sub(files, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

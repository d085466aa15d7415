package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// AboutAuthor 静态页面: 关于作者
func AboutAuthor(c *gin.Context) {
	Render(c, http.StatusOK, "about/author.html", nil)
}

// AboutTech 静态页面: 技术栈
func AboutTech(c *gin.Context) {
	Render(c, http.StatusOK, "about/tech.html", nil)
}

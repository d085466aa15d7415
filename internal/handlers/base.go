package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"
	"yatube/internal/logging"
	"yatube/internal/middleware"
	"yatube/internal/paginator"
	"yatube/internal/repository"

	"github.com/gin-gonic/gin"
)

// Render helper to inject common variables like 'current user'
func Render(c *gin.Context, code int, name string, obj gin.H) {
	if obj == nil {
		obj = gin.H{}
	}

	if user := middleware.CurrentUser(c); user != nil {
		obj["CurrentUser"] = user
	}
	obj["CurrentPath"] = c.Request.URL.Path
	obj["Year"] = time.Now().Year()

	c.HTML(code, name, obj)
}

// RenderError 渲染 404 / 500 错误页
func RenderError(c *gin.Context, code int) {
	name := "misc/500.html"
	if code == http.StatusNotFound {
		name = "misc/404.html"
	}
	Render(c, code, name, gin.H{"Path": c.Request.URL.Path})
	c.Abort()
}

// NotFound 用作 gin 的 NoRoute 处理函数
func NotFound(c *gin.Context) {
	RenderError(c, http.StatusNotFound)
}

// Recovery 用作 gin.CustomRecovery 的回调, panic 时渲染 500 页
func Recovery(c *gin.Context, recovered any) {
	logging.Ctx(c.Request.Context()).Error().
		Interface("panic", recovered).
		Msg("panic recovered")
	RenderError(c, http.StatusInternalServerError)
}

// fail 把查询错误映射为错误页: 找不到或页码非法是 404, 其余记录日志后 500
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, paginator.ErrInvalidPage),
		errors.Is(err, paginator.ErrEmptyPage):
		RenderError(c, http.StatusNotFound)
	default:
		_ = c.Error(err)
		logging.Ctx(c.Request.Context()).Error().Err(err).Msg("request failed")
		RenderError(c, http.StatusInternalServerError)
	}
}

// postIDParam 解析路径中的帖子 ID, 非法时返回 false
func postIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("post_id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

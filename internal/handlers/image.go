package handlers

import (
	"errors"
	"net/http"
	"strings"
	"yatube/internal/logging"
	"yatube/internal/storage"

	"github.com/gin-gonic/gin"
)

// 盗链提醒 SVG 图片
const hotlinkSVG = `<svg width="200" height="200" xmlns="http://www.w3.org/2000/svg">
  <rect width="100%" height="100%" fill="#f8f9fa"/>
  <text x="50%" y="50%" font-family="Arial" font-size="14" fill="#6c757d" text-anchor="middle">
    Image hosted on Yatube
  </text>
</svg>`

// ImageHandler 帖子图片下载
type ImageHandler struct {
	*Deps
}

func NewImageHandler(deps *Deps) *ImageHandler {
	return &ImageHandler{Deps: deps}
}

// Media 从存储中读取图片 (GET /media/*key)
func (h *ImageHandler) Media(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" || strings.Contains(key, "..") {
		RenderError(c, http.StatusNotFound)
		return
	}

	if !isAllowedRequest(c) {
		c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
		c.Data(http.StatusOK, "image/svg+xml", []byte(hotlinkSVG))
		return
	}

	ctx := c.Request.Context()
	rc, contentType, err := h.Images.Open(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			RenderError(c, http.StatusNotFound)
			return
		}
		logging.Ctx(ctx).Error().Err(err).Str("key", key).Msg("open media")
		RenderError(c, http.StatusInternalServerError)
		return
	}
	defer rc.Close()

	// 文件名是 uuid, 内容不会变化, 缓存 7 天
	c.DataFromReader(http.StatusOK, -1, contentType, rc, map[string]string{
		"Cache-Control":          "public, max-age=604800",
		"X-Content-Type-Options": "nosniff",
		"Vary":                   "Sec-Fetch-Site, Sec-Fetch-Mode",
	})
}

// isAllowedRequest 使用 Sec-Fetch-* 头部检测是否为合法请求
func isAllowedRequest(c *gin.Context) bool {
	switch c.GetHeader("Sec-Fetch-Site") {
	// 没有头部 (旧浏览器或直接访问), 同源, 同站, 地址栏直接打开
	case "", "same-origin", "same-site", "none":
		return true
	}
	// 允许在新标签页打开图片
	return c.GetHeader("Sec-Fetch-Mode") == "navigate"
}

package middleware

import (
	"context"
	"net/http"
	"net/url"
	"yatube/internal/logging"
	"yatube/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	// CheckUserKey 当前登录用户在 gin.Context 中的键
	CheckUserKey = "user"
	// SessionUserKey 会话中保存用户 ID 的键
	SessionUserKey = "user_id"
	// LoginURL 未登录时的跳转地址
	LoginURL = "/auth/login/"
)

// UserLoader 按 ID 查询用户, 由 repository.UserRepository 实现
type UserLoader interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

// LoadUser retrieves user from session and sets to context
func LoadUser(users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		if userID, ok := session.Get(SessionUserKey).(uint); ok {
			user, err := users.GetByID(c.Request.Context(), userID)
			if err == nil {
				c.Set(CheckUserKey, user)
				c.Set(logging.FieldUserID, user.ID)
			} else {
				// 用户已被删除, 清掉失效的会话
				session.Delete(SessionUserKey)
				SaveSession(c)
			}
		}
		c.Next()
	}
}

// AuthRequired ensures a user is logged in, otherwise redirects to the
// login page with the requested path in ?next=.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.Redirect(http.StatusFound, LoginURL+"?next="+url.QueryEscape(c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser 返回当前登录用户, 未登录时为 nil
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(CheckUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// Login 把用户写入会话
func Login(c *gin.Context, user *models.User) error {
	session := sessions.Default(c)
	session.Clear()
	session.Set(SessionUserKey, user.ID)
	return session.Save()
}

// Logout 清空会话
func Logout(c *gin.Context) error {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	c.Set(CheckUserKey, nil)
	return session.Save()
}

// SafeNext 只接受站内相对路径, 防止开放重定向
func SafeNext(next, fallback string) string {
	if len(next) == 0 || next[0] != '/' || (len(next) > 1 && (next[1] == '/' || next[1] == '\\')) {
		return fallback
	}
	return next
}

// SaveSession 写回会话, 失败时记录日志并返回 false
func SaveSession(c *gin.Context) bool {
	if err := sessions.Default(c).Save(); err != nil {
		logging.Ctx(c.Request.Context()).Warn().Err(err).Msg("save session")
		return false
	}
	return true
}

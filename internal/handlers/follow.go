package handlers

import (
	"net/http"
	"yatube/internal/logging"
	"yatube/internal/middleware"
	"yatube/internal/repository"

	"github.com/gin-gonic/gin"
)

type FollowHandler struct {
	*Deps
}

func NewFollowHandler(deps *Deps) *FollowHandler {
	return &FollowHandler{Deps: deps}
}

// FollowIndex 关注作者的帖子流
func (h *FollowHandler) FollowIndex(c *gin.Context) {
	user := middleware.CurrentUser(c)
	page, err := h.Posts.Page(c.Request.Context(), repository.PostFilter{FollowerID: user.ID}, c.Query("page"))
	if err != nil {
		fail(c, err)
		return
	}
	Render(c, http.StatusOK, "posts/follow.html", gin.H{"Page": page})
}

// ProfileFollow 关注作者, 重复关注和关注自己都不做任何事
func (h *FollowHandler) ProfileFollow(c *gin.Context) {
	ctx := c.Request.Context()
	author, err := h.Users.GetByUsername(ctx, c.Param("username"))
	if err != nil {
		fail(c, err)
		return
	}

	user := middleware.CurrentUser(c)
	if author.ID != user.ID {
		if err := h.Follows.Follow(ctx, user.ID, author.ID); err != nil {
			fail(c, err)
			return
		}
		logging.Ctx(ctx).Info().Uint("author_id", author.ID).Msg("followed")
	}
	c.Redirect(http.StatusFound, ProfileURL(author.Username))
}

// ProfileUnfollow 取消关注, 未关注时同样直接跳回主页
func (h *FollowHandler) ProfileUnfollow(c *gin.Context) {
	ctx := c.Request.Context()
	author, err := h.Users.GetByUsername(ctx, c.Param("username"))
	if err != nil {
		fail(c, err)
		return
	}

	if err := h.Follows.Unfollow(ctx, middleware.CurrentUser(c).ID, author.ID); err != nil {
		fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, ProfileURL(author.Username))
}

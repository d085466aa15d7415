package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
	"yatube/internal/forms"
	"yatube/internal/logging"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/paginator"
	"yatube/internal/repository"
	"yatube/internal/services"

	"github.com/gin-gonic/gin"
)

const (
	indexCachePrefix = "index:page:"
	indexCacheTTL    = 20 * time.Second
)

// PostURL 帖子详情页地址
func PostURL(username string, id uint) string {
	return fmt.Sprintf("/%s/%d/", username, id)
}

// ProfileURL 作者主页地址
func ProfileURL(username string) string {
	return "/" + username + "/"
}

type PostHandler struct {
	*Deps
}

func NewPostHandler(deps *Deps) *PostHandler {
	return &PostHandler{Deps: deps}
}

// Index 首页, 所有帖子按时间倒序, 结果缓存 20 秒
func (h *PostHandler) Index(c *gin.Context) {
	raw := c.Query("page")
	cacheKey := indexCachePrefix + raw

	if cached, ok := h.Cache.Get(cacheKey).(paginator.Result[models.Post]); ok {
		Render(c, http.StatusOK, "posts/index.html", gin.H{"Page": cached})
		return
	}

	page, err := h.Posts.Page(c.Request.Context(), repository.PostFilter{}, raw)
	if err != nil {
		fail(c, err)
		return
	}
	h.Cache.Set(cacheKey, page, indexCacheTTL)

	Render(c, http.StatusOK, "posts/index.html", gin.H{"Page": page})
}

// GroupPosts 分组下的帖子
func (h *PostHandler) GroupPosts(c *gin.Context) {
	ctx := c.Request.Context()
	group, err := h.Groups.GetBySlug(ctx, c.Param("slug"))
	if err != nil {
		fail(c, err)
		return
	}

	page, err := h.Posts.Page(ctx, repository.PostFilter{GroupID: group.ID}, c.Query("page"))
	if err != nil {
		fail(c, err)
		return
	}

	Render(c, http.StatusOK, "posts/group.html", gin.H{
		"Group": group,
		"Page":  page,
	})
}

// authorStats 作者主页和帖子详情共用的侧栏数据
func (h *PostHandler) authorStats(ctx context.Context, viewer, author *models.User) (gin.H, error) {
	postCount, err := h.Posts.Count(ctx, repository.PostFilter{AuthorID: author.ID})
	if err != nil {
		return nil, err
	}
	followers, err := h.Follows.FollowersCount(ctx, author.ID)
	if err != nil {
		return nil, err
	}
	following, err := h.Follows.FollowingCount(ctx, author.ID)
	if err != nil {
		return nil, err
	}

	isFollowing := false
	if viewer != nil && viewer.ID != author.ID {
		if isFollowing, err = h.Follows.IsFollowing(ctx, viewer.ID, author.ID); err != nil {
			return nil, err
		}
	}

	return gin.H{
		"Author":         author,
		"PostCount":      postCount,
		"FollowersCount": followers,
		"FollowingCount": following,
		"Following":      isFollowing,
		"IsSelf":         viewer != nil && viewer.ID == author.ID,
	}, nil
}

// Profile 作者主页
func (h *PostHandler) Profile(c *gin.Context) {
	ctx := c.Request.Context()
	author, err := h.Users.GetByUsername(ctx, c.Param("username"))
	if err != nil {
		fail(c, err)
		return
	}

	page, err := h.Posts.Page(ctx, repository.PostFilter{AuthorID: author.ID}, c.Query("page"))
	if err != nil {
		fail(c, err)
		return
	}

	data, err := h.authorStats(ctx, middleware.CurrentUser(c), author)
	if err != nil {
		fail(c, err)
		return
	}
	data["Page"] = page

	Render(c, http.StatusOK, "posts/profile.html", data)
}

// loadPost 按 /<username>/<post_id>/ 查找帖子, 失败时已渲染错误页
func (h *PostHandler) loadPost(c *gin.Context) (*models.Post, bool) {
	id, ok := postIDParam(c)
	if !ok {
		RenderError(c, http.StatusNotFound)
		return nil, false
	}
	post, err := h.Posts.Get(c.Request.Context(), c.Param("username"), id)
	if err != nil {
		fail(c, err)
		return nil, false
	}
	return post, true
}

// PostView 帖子详情, 评论按时间倒序
func (h *PostHandler) PostView(c *gin.Context) {
	post, ok := h.loadPost(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	comments, err := h.Comments.ListByPost(ctx, post.ID)
	if err != nil {
		fail(c, err)
		return
	}
	post.CommentCount = len(comments)

	data, err := h.authorStats(ctx, middleware.CurrentUser(c), &post.Author)
	if err != nil {
		fail(c, err)
		return
	}
	data["Post"] = post
	data["Comments"] = comments
	data["Form"] = forms.CommentForm{}

	Render(c, http.StatusOK, "posts/post.html", data)
}

// NewPostForm 新建帖子页面
func (h *PostHandler) NewPostForm(c *gin.Context) {
	h.renderPostForm(c, nil, forms.PostForm{}, nil)
}

// NewPost 提交新帖子, 成功后回到首页
func (h *PostHandler) NewPost(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var form forms.PostForm
	post := &models.Post{AuthorID: user.ID}
	errs := h.bindPost(c, &form, post)
	if !errs.Valid() {
		h.renderPostForm(c, nil, form, errs)
		return
	}

	if err := h.Posts.Create(c.Request.Context(), post); err != nil {
		h.discardImage(c.Request.Context(), post.Image)
		fail(c, err)
		return
	}
	h.Cache.DeletePrefix(indexCachePrefix)

	logging.Ctx(c.Request.Context()).Info().Uint("post_id", post.ID).Msg("post created")
	c.Redirect(http.StatusFound, "/")
}

// PostEditForm 编辑页面, 只有作者可以编辑
func (h *PostHandler) PostEditForm(c *gin.Context) {
	post, ok := h.loadPost(c)
	if !ok {
		return
	}
	if post.AuthorID != middleware.CurrentUser(c).ID {
		c.Redirect(http.StatusFound, PostURL(post.Author.Username, post.ID))
		return
	}

	form := forms.PostForm{Text: post.Text}
	if post.GroupID != nil {
		form.Group = strconv.FormatUint(uint64(*post.GroupID), 10)
	}
	h.renderPostForm(c, post, form, nil)
}

// PostEdit 保存编辑, 未上传新图片时保留原图
func (h *PostHandler) PostEdit(c *gin.Context) {
	post, ok := h.loadPost(c)
	if !ok {
		return
	}
	if post.AuthorID != middleware.CurrentUser(c).ID {
		c.Redirect(http.StatusFound, PostURL(post.Author.Username, post.ID))
		return
	}

	ctx := c.Request.Context()
	oldImage := post.Image

	var form forms.PostForm
	errs := h.bindPost(c, &form, post)
	if !errs.Valid() {
		h.renderPostForm(c, post, form, errs)
		return
	}

	if err := h.Posts.Update(ctx, post); err != nil {
		if post.Image != oldImage {
			h.discardImage(ctx, post.Image)
		}
		fail(c, err)
		return
	}
	if post.Image != oldImage {
		h.discardImage(ctx, oldImage)
	}
	h.Cache.DeletePrefix(indexCachePrefix)

	c.Redirect(http.StatusFound, PostURL(post.Author.Username, post.ID))
}

// discardImage 删除不再被引用的图片, 失败只记日志
func (h *PostHandler) discardImage(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := h.Images.Delete(ctx, key); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("delete image")
	}
}

// bindPost 绑定并校验表单, 通过后把字段写入 post; 图片在其它字段都合法时才上传
func (h *PostHandler) bindPost(c *gin.Context, form *forms.PostForm, post *models.Post) forms.Errors {
	ctx := c.Request.Context()
	if err := c.ShouldBind(form); err != nil {
		logging.Ctx(ctx).Debug().Err(err).Msg("bind post form")
	}

	errs := form.Clean()
	groupID, ok := form.GroupID()
	if !ok {
		errs.Add("group", "Select a valid choice.")
	} else if groupID != nil {
		if _, err := h.Groups.GetByID(ctx, *groupID); err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				logging.Ctx(ctx).Error().Err(err).Msg("look up group")
			}
			errs.Add("group", "Select a valid choice. That choice is not one of the available choices.")
		}
	}
	if !errs.Valid() {
		return errs
	}

	if header, err := c.FormFile("image"); err == nil {
		key, err := h.Images.Upload(ctx, header)
		switch {
		case errors.Is(err, services.ErrNotImage), errors.Is(err, services.ErrImageTooLarge):
			errs.Add("image", err.Error())
			return errs
		case err != nil:
			logging.Ctx(ctx).Error().Err(err).Msg("upload image")
			errs.Add("image", "The image could not be saved.")
			return errs
		}
		post.Image = key
	}

	post.Text = form.Text
	post.GroupID = groupID
	post.Group = nil
	return errs
}

func (h *PostHandler) renderPostForm(c *gin.Context, post *models.Post, form forms.PostForm, errs forms.Errors) {
	groups, err := h.Groups.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	Render(c, http.StatusOK, "posts/new.html", gin.H{
		"Form":   form,
		"Errors": errs,
		"Groups": groups,
		"Post":   post,
		"IsEdit": post != nil,
	})
}

// AddComment 发表评论; 内容为空时不保存, 直接回到帖子页
func (h *PostHandler) AddComment(c *gin.Context) {
	post, ok := h.loadPost(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	target := PostURL(post.Author.Username, post.ID)

	var form forms.CommentForm
	if err := c.ShouldBind(&form); err != nil {
		logging.Ctx(ctx).Debug().Err(err).Msg("bind comment form")
	}
	if !form.Clean().Valid() {
		c.Redirect(http.StatusFound, target)
		return
	}

	comment := &models.Comment{
		PostID:   post.ID,
		AuthorID: middleware.CurrentUser(c).ID,
		Text:     form.Text,
	}
	if err := h.Comments.Create(ctx, comment); err != nil {
		fail(c, err)
		return
	}

	// 自己评论自己的帖子不通知
	if commenter := middleware.CurrentUser(c); commenter.ID != post.AuthorID {
		h.Mail.SendCommentNotification(post.Author.Email, commenter.Username, post.Excerpt(), comment.Text,
			strings.TrimRight(h.SiteURL, "/")+target)
	}
	c.Redirect(http.StatusFound, target)
}

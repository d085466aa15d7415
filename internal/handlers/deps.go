package handlers

import (
	"yatube/internal/repository"
	"yatube/internal/services"
	"yatube/internal/storage"
	"yatube/internal/utils"

	"gorm.io/gorm"
)

// 首页缓存的分页数量上限
const pageCacheSize = 256

// Captcha 生成注册页的验证题, 测试中可替换为固定题目
type Captcha interface {
	Generate() (question string, answer int)
}

// Deps 所有 handler 共享的依赖, 由 router 组装
type Deps struct {
	Users    *repository.UserRepository
	Groups   *repository.GroupRepository
	Posts    *repository.PostRepository
	Comments *repository.CommentRepository
	Follows  *repository.FollowRepository
	Images   *services.ImageService
	Mail     *services.MailService
	Cache    *utils.PageCache
	Captcha  Captcha
	SiteURL  string
	SiteName string
}

// NewDeps 基于数据库, 文件存储和邮件服务创建全部依赖
func NewDeps(gdb *gorm.DB, store storage.Storage, mail *services.MailService, siteURL, siteName string) (*Deps, error) {
	cache, err := utils.NewPageCache(pageCacheSize)
	if err != nil {
		return nil, err
	}
	return &Deps{
		Users:    repository.NewUserRepository(gdb),
		Groups:   repository.NewGroupRepository(gdb),
		Posts:    repository.NewPostRepository(gdb),
		Comments: repository.NewCommentRepository(gdb),
		Follows:  repository.NewFollowRepository(gdb),
		Images:   services.NewImageService(store),
		Mail:     mail,
		Cache:    cache,
		Captcha:  services.NewCaptchaService(),
		SiteURL:  siteURL,
		SiteName: siteName,
	}, nil
}

package router

import (
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"
	"yatube/internal/forms"
	"yatube/internal/handlers"
	"yatube/internal/logging"
	"yatube/internal/middleware"
	"yatube/internal/utils"
	"yatube/web"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/multitemplate"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const sessionName = "yatube_session"

// Options 路由层自身需要的配置
type Options struct {
	SessionSecret string
	SecureCookie  bool
	Logger        zerolog.Logger
}

// New 组装 gin 引擎: 中间件, 模板和完整的路由表
func New(deps *handlers.Deps, opts Options) (*gin.Engine, error) {
	r := gin.New()

	renderer, err := loadTemplates(web.Templates())
	if err != nil {
		return nil, err
	}
	r.HTMLRender = renderer

	r.Use(logging.GinMiddleware(opts.Logger))
	r.Use(gin.CustomRecovery(handlers.Recovery))
	// 上传的图片本身已压缩
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/media/"})))

	// Setup Sessions
	store := cookie.NewStore([]byte(opts.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   14 * 24 * 3600,
		HttpOnly: true,
		Secure:   opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, store))
	r.Use(middleware.LoadUser(deps.Users))

	RegisterRoutes(r, deps)
	return r, nil
}

// RegisterRoutes 注册全部路由
func RegisterRoutes(r *gin.Engine, deps *handlers.Deps) {
	postHandler := handlers.NewPostHandler(deps)
	followHandler := handlers.NewFollowHandler(deps)
	authHandler := handlers.NewAuthHandler(deps)
	seoHandler := handlers.NewSEOHandler(deps)
	imageHandler := handlers.NewImageHandler(deps)

	// 静态资源和上传的图片
	r.StaticFS("/static", http.FS(web.Static()))
	r.GET("/media/*key", imageHandler.Media)

	// SEO
	r.GET("/robots.txt", seoHandler.RobotsTxt)
	r.GET("/sitemap.xml", seoHandler.SitemapXML)
	r.GET("/feed.xml", seoHandler.RSSFeed)

	// 认证 (Auth)
	auth := r.Group("/auth")
	{
		auth.GET("/signup/", authHandler.ShowSignup)
		auth.POST("/signup/", authHandler.Signup)
		auth.GET("/login/", authHandler.ShowLogin)
		auth.POST("/login/", authHandler.Login)
		auth.GET("/logout/", authHandler.Logout)
		auth.POST("/logout/", authHandler.Logout)
	}

	// 静态页面 (About)
	r.GET("/about/author/", handlers.AboutAuthor)
	r.GET("/about/tech/", handlers.AboutTech)

	// 公共路由 (Public Routes)
	r.GET("/", postHandler.Index)
	r.GET("/group/:slug/", postHandler.GroupPosts)
	r.GET("/:username/", postHandler.Profile)
	r.GET("/:username/:post_id/", postHandler.PostView)

	// 受保护路由 (Protected Routes)
	authorized := r.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/new/", postHandler.NewPostForm)
		authorized.POST("/new/", postHandler.NewPost)
		authorized.GET("/follow/", followHandler.FollowIndex)
		authorized.GET("/:username/follow/", followHandler.ProfileFollow)
		authorized.GET("/:username/unfollow/", followHandler.ProfileUnfollow)
		authorized.GET("/:username/:post_id/edit/", postHandler.PostEditForm)
		authorized.POST("/:username/:post_id/edit/", postHandler.PostEdit)
		authorized.POST("/:username/:post_id/comment/", postHandler.AddComment)
	}

	r.NoRoute(handlers.NotFound)
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"dict": func(values ...any) (map[string]any, error) {
			if len(values)%2 != 0 {
				return nil, fmt.Errorf("invalid dict call")
			}
			dict := make(map[string]any, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict keys must be strings")
				}
				dict[key] = values[i+1]
			}
			return dict, nil
		},
		"add": func(a, b int) int {
			return a + b
		},
		"formatDate": func(t time.Time) string {
			return t.Format("2 Jan 2006 15:04")
		},
		"renderText": utils.RenderPostText,
		"truncate":   utils.Truncate,
		"postURL":    handlers.PostURL,
		"profileURL": handlers.ProfileURL,
		"mediaURL": func(key string) string {
			return "/media/" + key
		},
		"fieldError": func(errs any, field string) string {
			if e, ok := errs.(forms.Errors); ok {
				return e[field]
			}
			return ""
		},
	}
}

// loadTemplates 每个页面 = layouts + includes + 页面本身, 按 views/ 下的相对路径注册
func loadTemplates(fsys fs.FS) (multitemplate.Renderer, error) {
	r := multitemplate.NewRenderer()

	layouts, err := fs.Glob(fsys, "layouts/*.html")
	if err != nil {
		return nil, err
	}
	if len(layouts) == 0 {
		return nil, fmt.Errorf("no layout templates found")
	}
	includes, err := fs.Glob(fsys, "includes/*.html")
	if err != nil {
		return nil, err
	}

	funcs := funcMap()
	err = fs.WalkDir(fsys, "views", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(p, ".html") {
			return err
		}
		files := make([]string, 0, len(layouts)+len(includes)+1)
		files = append(files, layouts...)
		files = append(files, includes...)
		files = append(files, p)

		tmpl, err := template.New(path.Base(layouts[0])).Funcs(funcs).ParseFS(fsys, files...)
		if err != nil {
			return fmt.Errorf("parse %s: %w", p, err)
		}
		r.Add(strings.TrimPrefix(p, "views/"), tmpl)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

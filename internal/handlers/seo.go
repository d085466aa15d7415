package handlers

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"time"
	"yatube/internal/models"
	"yatube/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/feeds"
)

const (
	sitemapPostLimit = 500
	feedPostLimit    = 20
)

type SEOHandler struct {
	*Deps
}

func NewSEOHandler(deps *Deps) *SEOHandler {
	return &SEOHandler{Deps: deps}
}

func (h *SEOHandler) siteURL() string {
	return strings.TrimRight(h.SiteURL, "/")
}

// RobotsTxt 返回 robots.txt 内容
func (h *SEOHandler) RobotsTxt(c *gin.Context) {
	content := fmt.Sprintf(`User-agent: *
Allow: /

# 禁止爬取需要登录的页面
Disallow: /new/
Disallow: /follow/
Disallow: /auth/

Sitemap: %s/sitemap.xml
`, h.siteURL())

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.String(http.StatusOK, content)
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// SitemapXML 动态生成 sitemap.xml: 首页, 全部分组和最近的帖子
func (h *SEOHandler) SitemapXML(c *gin.Context) {
	ctx := c.Request.Context()
	siteURL := h.siteURL()
	now := time.Now().Format("2006-01-02")

	set := urlSet{Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	set.URLs = append(set.URLs, sitemapURL{Loc: siteURL + "/", LastMod: now, ChangeFreq: "hourly", Priority: "1.0"})

	groups, err := h.Groups.List(ctx)
	if err != nil {
		fail(c, err)
		return
	}
	for _, g := range groups {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        fmt.Sprintf("%s/group/%s/", siteURL, g.Slug),
			LastMod:    now,
			ChangeFreq: "daily",
			Priority:   "0.8",
		})
	}

	posts, err := h.Posts.Latest(ctx, sitemapPostLimit)
	if err != nil {
		fail(c, err)
		return
	}
	for _, p := range posts {
		// 根据帖子新旧程度调整优先级
		priority, changefreq := "0.6", "weekly"
		if time.Since(p.CreatedAt) < 7*24*time.Hour {
			priority, changefreq = "0.8", "daily"
		}
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        siteURL + PostURL(p.Author.Username, p.ID),
			LastMod:    p.UpdatedAt.Format("2006-01-02"),
			ChangeFreq: changefreq,
			Priority:   priority,
		})
	}

	writeXML(c, "application/xml; charset=utf-8", set)
}

// RSSFeed 生成最新 20 篇帖子的 RSS 2.0 feed
func (h *SEOHandler) RSSFeed(c *gin.Context) {
	siteURL := h.siteURL()

	posts, err := h.Posts.Latest(c.Request.Context(), feedPostLimit)
	if err != nil {
		fail(c, err)
		return
	}

	feed := &feeds.Feed{
		Title:       h.SiteName,
		Link:        &feeds.Link{Href: siteURL + "/"},
		Description: "Latest posts on " + h.SiteName,
		Created:     time.Now(),
	}
	for _, p := range posts {
		feed.Items = append(feed.Items, feedItem(siteURL, p))
	}

	// feeds.Item 没有分类字段, 在 RSS 结构上补上分组名
	rss := (&feeds.Rss{Feed: feed}).RssFeed()
	for i, p := range posts {
		if p.Group != nil {
			rss.Items[i].Category = p.Group.Title
		}
	}

	out, err := feeds.ToXML(rss)
	if err != nil {
		fail(c, err)
		return
	}
	c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", []byte(out))
}

func feedItem(siteURL string, p models.Post) *feeds.Item {
	link := siteURL + PostURL(p.Author.Username, p.ID)
	return &feeds.Item{
		Title:       utils.PlainText(p.Text, 60),
		Link:        &feeds.Link{Href: link},
		Description: string(utils.RenderPostText(p.Text)),
		Author:      &feeds.Author{Name: p.Author.DisplayName()},
		Id:          link,
		Created:     p.CreatedAt,
	}
}

func writeXML(c *gin.Context, contentType string, v any) {
	out, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		fail(c, err)
		return
	}
	c.Data(http.StatusOK, contentType, append([]byte(xml.Header), out...))
}

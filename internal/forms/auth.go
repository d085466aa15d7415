package forms

import "strings"

// 与路由冲突的用户名
var reservedUsernames = map[string]bool{
	"new": true, "follow": true, "group": true, "auth": true, "about": true,
	"media": true, "static": true, "admin": true, "robots.txt": true,
	"sitemap.xml": true, "feed.xml": true, "favicon.ico": true,
}

// IsReservedUsername 用户名是否被路由占用
func IsReservedUsername(name string) bool {
	return reservedUsernames[strings.ToLower(name)]
}

// SignupForm 注册表单
type SignupForm struct {
	Username        string `form:"username" validate:"required,max=150,username"`
	Email           string `form:"email" validate:"required,email,max=254"`
	FirstName       string `form:"first_name" validate:"max=150"`
	LastName        string `form:"last_name" validate:"max=150"`
	Password        string `form:"password1" validate:"required,min=8,max=128"`
	PasswordConfirm string `form:"password2" validate:"required,eqfield=Password"`
	Captcha         string `form:"captcha"`
}

func (f *SignupForm) Clean() Errors {
	f.Username = strings.TrimSpace(f.Username)
	f.Email = strings.TrimSpace(f.Email)
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
	errs := check(f)
	if !errs.Has("username") && IsReservedUsername(f.Username) {
		errs.Add("username", "This username is not available.")
	}
	return errs
}

// LoginForm 登录表单
type LoginForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

func (f *LoginForm) Clean() Errors {
	f.Username = strings.TrimSpace(f.Username)
	return check(f)
}

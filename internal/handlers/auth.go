package handlers

import (
	"errors"
	"net/http"
	"strings"
	"yatube/internal/forms"
	"yatube/internal/logging"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/services"
	"yatube/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const captchaSessionKey = "captcha_answer"

type AuthHandler struct {
	*Deps
}

func NewAuthHandler(deps *Deps) *AuthHandler {
	return &AuthHandler{Deps: deps}
}

// renderSignup 每次渲染注册页都换一道新题
func (h *AuthHandler) renderSignup(c *gin.Context, form forms.SignupForm, errs forms.Errors) {
	question, answer := h.Captcha.Generate()
	session := sessions.Default(c)
	session.Set(captchaSessionKey, answer)
	if err := session.Save(); err != nil {
		fail(c, err)
		return
	}

	form.Password, form.PasswordConfirm, form.Captcha = "", "", ""
	Render(c, http.StatusOK, "auth/signup.html", gin.H{
		"Form":    form,
		"Errors":  errs,
		"Captcha": question,
	})
}

func (h *AuthHandler) ShowSignup(c *gin.Context) {
	h.renderSignup(c, forms.SignupForm{}, nil)
}

// Signup 注册成功后跳转到登录页
func (h *AuthHandler) Signup(c *gin.Context) {
	ctx := c.Request.Context()

	var form forms.SignupForm
	if err := c.ShouldBind(&form); err != nil {
		logging.Ctx(ctx).Debug().Err(err).Msg("bind signup form")
	}
	errs := form.Clean()

	// Validate Captcha
	session := sessions.Default(c)
	expected, ok := session.Get(captchaSessionKey).(int)
	if !ok || !services.CheckAnswer(expected, form.Captcha) {
		errs.Add("captcha", "Wrong answer, try again.")
	}
	session.Delete(captchaSessionKey)

	if !errs.Has("username") {
		taken, err := h.Users.UsernameTaken(ctx, form.Username)
		if err != nil {
			fail(c, err)
			return
		}
		if taken {
			errs.Add("username", "A user with that username already exists.")
		}
	}
	if !errs.Valid() {
		h.renderSignup(c, form, errs)
		return
	}

	hash, err := utils.HashPassword(form.Password)
	if err != nil {
		fail(c, err)
		return
	}
	user := &models.User{
		Username:  form.Username,
		Email:     form.Email,
		Password:  hash,
		FirstName: form.FirstName,
		LastName:  form.LastName,
	}
	if err := h.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			errs.Add("username", "A user with that username already exists.")
			h.renderSignup(c, form, errs)
			return
		}
		fail(c, err)
		return
	}
	middleware.SaveSession(c)

	logging.Ctx(ctx).Info().Uint("new_user_id", user.ID).Msg("user signed up")
	h.Mail.SendWelcomeEmail(user.Email, user.Username, strings.TrimRight(h.SiteURL, "/")+middleware.LoginURL)
	c.Redirect(http.StatusFound, middleware.LoginURL)
}

func (h *AuthHandler) ShowLogin(c *gin.Context) {
	Render(c, http.StatusOK, "auth/login.html", gin.H{
		"Form": forms.LoginForm{},
		"Next": c.Query("next"),
	})
}

// Login 用户名 + 密码登录, 成功后跳到 next 或首页
func (h *AuthHandler) Login(c *gin.Context) {
	ctx := c.Request.Context()
	next := c.PostForm("next")

	var form forms.LoginForm
	if err := c.ShouldBind(&form); err != nil {
		logging.Ctx(ctx).Debug().Err(err).Msg("bind login form")
	}
	errs := form.Clean()

	var user *models.User
	if errs.Valid() {
		u, err := h.Users.GetByUsername(ctx, form.Username)
		switch {
		case err == nil && utils.CheckPasswordHash(form.Password, u.Password):
			user = u
		case err != nil && !errors.Is(err, repository.ErrNotFound):
			fail(c, err)
			return
		default:
			errs.Add("__all__", "Please enter a correct username and password.")
		}
	}
	if user == nil {
		Render(c, http.StatusOK, "auth/login.html", gin.H{
			"Form":   forms.LoginForm{Username: form.Username},
			"Errors": errs,
			"Next":   next,
		})
		return
	}

	if err := middleware.Login(c, user); err != nil {
		fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, middleware.SafeNext(next, "/"))
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := middleware.Logout(c); err != nil {
		fail(c, err)
		return
	}
	Render(c, http.StatusOK, "auth/logged_out.html", nil)
}

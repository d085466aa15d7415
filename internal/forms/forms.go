// Package forms 绑定并校验用户提交的表单
package forms

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	usernameExpr = regexp.MustCompile(`^[A-Za-z0-9_.\-]+$`)
)

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameExpr.MatchString(fl.Field().String())
	})
}

// Errors 字段名 -> 错误信息
type Errors map[string]string

// Add 记录字段错误, 已有错误时保留第一条
func (e Errors) Add(field, message string) {
	if _, ok := e[field]; !ok {
		e[field] = message
	}
}

// Has reports whether field has an error.
func (e Errors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

// Valid 没有任何错误
func (e Errors) Valid() bool {
	return len(e) == 0
}

var messages = map[string]string{
	"required": "This field is required.",
	"email":    "Enter a valid email address.",
	"min":      "Ensure this value has at least %s characters.",
	"max":      "Ensure this value has at most %s characters.",
	"eqfield":  "The two password fields didn't match.",
	"username": "Enter a valid username. This value may contain only letters, numbers, and ./-/_ characters.",
	"numeric":  "Select a valid choice.",
}

func message(e validator.FieldError) string {
	msg, ok := messages[e.Tag()]
	if !ok {
		return fmt.Sprintf("Invalid value (%s).", e.Tag())
	}
	if strings.Contains(msg, "%s") {
		return fmt.Sprintf(msg, e.Param())
	}
	return msg
}

// check 运行结构体校验, 把 validator 的错误映射到表单字段
func check(s any) Errors {
	errs := Errors{}
	err := validate.Struct(s)
	if err == nil {
		return errs
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs.Add("__all__", err.Error())
		return errs
	}
	for _, e := range verrs {
		errs.Add(e.Field(), message(e))
	}
	return errs
}

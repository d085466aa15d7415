package forms

import (
	"strconv"
	"strings"
)

// PostForm 新建和编辑帖子的表单, 图片单独从 multipart 中读取
type PostForm struct {
	Text  string `form:"text" validate:"required"`
	Group string `form:"group" validate:"omitempty,numeric"`
}

// Clean 去掉首尾空白后校验
func (f *PostForm) Clean() Errors {
	f.Text = strings.TrimSpace(f.Text)
	f.Group = strings.TrimSpace(f.Group)
	return check(f)
}

// GroupID 解析选中的分组, 空值表示不属于任何分组
func (f *PostForm) GroupID() (*uint, bool) {
	if f.Group == "" {
		return nil, true
	}
	id, err := strconv.ParseUint(f.Group, 10, 64)
	if err != nil || id == 0 {
		return nil, false
	}
	v := uint(id)
	return &v, true
}

// CommentForm 评论表单
type CommentForm struct {
	Text string `form:"text" validate:"required"`
}

func (f *CommentForm) Clean() Errors {
	f.Text = strings.TrimSpace(f.Text)
	return check(f)
}

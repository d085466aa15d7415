package repository

import (
	"context"
	"yatube/internal/models"
	"yatube/internal/paginator"

	"gorm.io/gorm"
)

// PostFilter narrows a post listing. Zero fields are ignored.
type PostFilter struct {
	GroupID    uint // posts of one group
	AuthorID   uint // posts of one author
	FollowerID uint // posts of every author this user follows
}

func (f PostFilter) scope(q *gorm.DB) *gorm.DB {
	if f.GroupID != 0 {
		q = q.Where("posts.group_id = ?", f.GroupID)
	}
	if f.AuthorID != 0 {
		q = q.Where("posts.author_id = ?", f.AuthorID)
	}
	if f.FollowerID != 0 {
		q = q.Where("posts.author_id IN (SELECT author_id FROM follows WHERE user_id = ?)", f.FollowerID)
	}
	return q
}

type PostRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	return translate(r.db.WithContext(ctx).Create(post).Error, "create post")
}

// Update writes the editable columns only; author and created_at never change.
func (r *PostRepository) Update(ctx context.Context, post *models.Post) error {
	err := r.db.WithContext(ctx).Model(post).
		Select("Text", "GroupID", "Image", "UpdatedAt").
		Updates(post).Error
	return translate(err, "update post")
}

// Get resolves a post by its canonical URL key (author username + id).
func (r *PostRepository) Get(ctx context.Context, username string, id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Preload("Author").Preload("Group").
		Where("posts.id = ? AND posts.author_id = (SELECT id FROM users WHERE username = ?)", id, username).
		First(&post).Error
	if err != nil {
		return nil, translate(err, "get post")
	}
	return &post, nil
}

func (r *PostRepository) Count(ctx context.Context, filter PostFilter) (int64, error) {
	var total int64
	err := filter.scope(r.db.WithContext(ctx).Model(&models.Post{})).Count(&total).Error
	return total, translate(err, "count posts")
}

// Page returns one page of posts, newest first. rawPage is the untrusted
// ?page= value; a bad value yields paginator.ErrInvalidPage or ErrEmptyPage.
func (r *PostRepository) Page(ctx context.Context, filter PostFilter, rawPage string) (paginator.Result[models.Post], error) {
	total, err := r.Count(ctx, filter)
	if err != nil {
		return paginator.Result[models.Post]{}, err
	}

	page, err := paginator.New(total, paginator.PerPage).Page(rawPage)
	if err != nil {
		return paginator.Result[models.Post]{}, err
	}

	var posts []models.Post
	err = filter.scope(r.db.WithContext(ctx)).
		Preload("Author").Preload("Group").
		Order("posts.created_at DESC, posts.id DESC").
		Limit(page.Limit()).
		Offset(page.Offset()).
		Find(&posts).Error
	if err != nil {
		return paginator.Result[models.Post]{}, translate(err, "list posts")
	}

	if err := r.fillCommentCounts(ctx, posts); err != nil {
		return paginator.Result[models.Post]{}, err
	}
	return paginator.Result[models.Post]{Page: page, Items: posts}, nil
}

// Latest returns the newest posts regardless of group, for feeds and sitemaps.
func (r *PostRepository) Latest(ctx context.Context, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.WithContext(ctx).
		Preload("Author").Preload("Group").
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&posts).Error
	return posts, translate(err, "latest posts")
}

// fillCommentCounts 批量填充帖子的评论数量
func (r *PostRepository) fillCommentCounts(ctx context.Context, posts []models.Post) error {
	if len(posts) == 0 {
		return nil
	}

	postIDs := make([]uint, len(posts))
	for i, p := range posts {
		postIDs[i] = p.ID
	}

	type countResult struct {
		PostID uint
		Count  int
	}
	var results []countResult
	err := r.db.WithContext(ctx).Model(&models.Comment{}).
		Select("post_id, COUNT(*) as count").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&results).Error
	if err != nil {
		return translate(err, "count comments")
	}

	countMap := make(map[uint]int, len(results))
	for _, res := range results {
		countMap[res.PostID] = res.Count
	}
	for i := range posts {
		posts[i].CommentCount = countMap[posts[i].ID]
	}
	return nil
}

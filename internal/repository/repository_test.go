package repository

import (
	"context"
	"fmt"
	"testing"
	"time"
	"yatube/internal/config"
	"yatube/internal/db"
	"yatube/internal/models"
	"yatube/internal/paginator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := db.Open(config.DatabaseConfig{Driver: "sqlite", URL: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gdb
}

func createUser(t *testing.T, gdb *gorm.DB, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Password: "x"}
	require.NoError(t, NewUserRepository(gdb).Create(context.Background(), u))
	return u
}

func createPosts(t *testing.T, gdb *gorm.DB, author *models.User, group *models.Group, n int) []models.Post {
	t.Helper()
	repo := NewPostRepository(gdb)
	base := time.Now().Add(-time.Hour)
	posts := make([]models.Post, n)
	for i := range posts {
		posts[i] = models.Post{
			Text:      fmt.Sprintf("post %d", i+1),
			AuthorID:  author.ID,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if group != nil {
			posts[i].GroupID = &group.ID
		}
		require.NoError(t, repo.Create(context.Background(), &posts[i]))
	}
	return posts
}

func TestUserRepository(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewUserRepository(gdb)
	ctx := context.Background()

	u := createUser(t, gdb, "leo")

	got, err := repo.GetByUsername(ctx, "leo")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = repo.GetByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)

	err = repo.Create(ctx, &models.User{Username: "leo", Password: "y"})
	assert.ErrorIs(t, err, ErrDuplicate)

	taken, err := repo.UsernameTaken(ctx, "leo")
	require.NoError(t, err)
	assert.True(t, taken)
}

func TestGroupSlugIsUnique(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewGroupRepository(gdb)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Group{Title: "Cats", Slug: "cats"}))
	err := repo.Create(ctx, &models.Group{Title: "Other cats", Slug: "cats"})
	assert.ErrorIs(t, err, ErrDuplicate)

	g, err := repo.GetBySlug(ctx, "cats")
	require.NoError(t, err)
	assert.Equal(t, "Cats", g.Title)
}

func TestPostPageOrderAndSize(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewPostRepository(gdb)
	ctx := context.Background()
	author := createUser(t, gdb, "leo")
	createPosts(t, gdb, author, nil, 13)

	first, err := repo.Page(ctx, PostFilter{}, "")
	require.NoError(t, err)
	require.Len(t, first.Items, paginator.PerPage)
	assert.Equal(t, "post 13", first.Items[0].Text)
	assert.Equal(t, "leo", first.Items[0].Author.Username)

	second, err := repo.Page(ctx, PostFilter{}, "2")
	require.NoError(t, err)
	require.Len(t, second.Items, 3)
	assert.Equal(t, "post 3", second.Items[0].Text)
	assert.Equal(t, "post 1", second.Items[2].Text)

	_, err = repo.Page(ctx, PostFilter{}, "3")
	assert.ErrorIs(t, err, paginator.ErrEmptyPage)
}

func TestPostFilters(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewPostRepository(gdb)
	groups := NewGroupRepository(gdb)
	follows := NewFollowRepository(gdb)
	ctx := context.Background()

	leo := createUser(t, gdb, "leo")
	tolstoy := createUser(t, gdb, "tolstoy")
	cats := &models.Group{Title: "Cats", Slug: "cats"}
	dogs := &models.Group{Title: "Dogs", Slug: "dogs"}
	require.NoError(t, groups.Create(ctx, cats))
	require.NoError(t, groups.Create(ctx, dogs))

	createPosts(t, gdb, leo, cats, 2)
	createPosts(t, gdb, tolstoy, nil, 3)

	res, err := repo.Page(ctx, PostFilter{GroupID: cats.ID}, "")
	require.NoError(t, err)
	assert.Len(t, res.Items, 2)
	assert.Equal(t, "cats", res.Items[0].Group.Slug)

	res, err = repo.Page(ctx, PostFilter{GroupID: dogs.ID}, "")
	require.NoError(t, err)
	assert.Empty(t, res.Items)

	res, err = repo.Page(ctx, PostFilter{AuthorID: tolstoy.ID}, "")
	require.NoError(t, err)
	assert.Len(t, res.Items, 3)

	res, err = repo.Page(ctx, PostFilter{FollowerID: leo.ID}, "")
	require.NoError(t, err)
	assert.Empty(t, res.Items)

	require.NoError(t, follows.Follow(ctx, leo.ID, tolstoy.ID))
	res, err = repo.Page(ctx, PostFilter{FollowerID: leo.ID}, "")
	require.NoError(t, err)
	require.Len(t, res.Items, 3)
	for _, p := range res.Items {
		assert.Equal(t, tolstoy.ID, p.AuthorID)
	}
}

func TestPostGetByCompoundKey(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewPostRepository(gdb)
	ctx := context.Background()
	leo := createUser(t, gdb, "leo")
	createUser(t, gdb, "tolstoy")
	post := createPosts(t, gdb, leo, nil, 1)[0]

	got, err := repo.Get(ctx, "leo", post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.Text, got.Text)

	_, err = repo.Get(ctx, "tolstoy", post.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.Get(ctx, "leo", post.ID+100)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostUpdateKeepsCreatedAt(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewPostRepository(gdb)
	ctx := context.Background()
	leo := createUser(t, gdb, "leo")
	post := createPosts(t, gdb, leo, nil, 1)[0]

	before, err := repo.Get(ctx, "leo", post.ID)
	require.NoError(t, err)

	before.Text = "edited"
	before.CreatedAt = time.Now().Add(24 * time.Hour)
	require.NoError(t, repo.Update(ctx, before))

	after, err := repo.Get(ctx, "leo", post.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", after.Text)
	assert.WithinDuration(t, post.CreatedAt, after.CreatedAt, time.Millisecond, "created_at must not change")
}

func TestCommentsNewestFirstAndCounted(t *testing.T) {
	gdb := newTestDB(t)
	posts := NewPostRepository(gdb)
	comments := NewCommentRepository(gdb)
	ctx := context.Background()
	leo := createUser(t, gdb, "leo")
	post := createPosts(t, gdb, leo, nil, 1)[0]

	now := time.Now()
	require.NoError(t, comments.Create(ctx, &models.Comment{PostID: post.ID, AuthorID: leo.ID, Text: "first", CreatedAt: now.Add(-time.Minute)}))
	require.NoError(t, comments.Create(ctx, &models.Comment{PostID: post.ID, AuthorID: leo.ID, Text: "second", CreatedAt: now}))

	list, err := comments.ListByPost(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].Text)
	assert.Equal(t, "leo", list[0].Author.Username)

	page, err := posts.Page(ctx, PostFilter{}, "")
	require.NoError(t, err)
	assert.Equal(t, 2, page.Items[0].CommentCount)
}

func TestPostPageReportsCommentCountFailure(t *testing.T) {
	gdb := newTestDB(t)
	leo := createUser(t, gdb, "leo")
	createPosts(t, gdb, leo, nil, 2)
	require.NoError(t, gdb.Migrator().DropTable(&models.Comment{}))

	_, err := NewPostRepository(gdb).Page(context.Background(), PostFilter{}, "1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestFollowIsIdempotent(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewFollowRepository(gdb)
	ctx := context.Background()
	leo := createUser(t, gdb, "leo")
	tolstoy := createUser(t, gdb, "tolstoy")

	require.NoError(t, repo.Follow(ctx, leo.ID, tolstoy.ID))
	require.NoError(t, repo.Follow(ctx, leo.ID, tolstoy.ID))

	n, err := repo.FollowersCount(ctx, tolstoy.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	require.NoError(t, repo.Unfollow(ctx, leo.ID, tolstoy.ID))
	require.NoError(t, repo.Unfollow(ctx, leo.ID, tolstoy.ID))

	following, err := repo.IsFollowing(ctx, leo.ID, tolstoy.ID)
	require.NoError(t, err)
	assert.False(t, following)

	n, err = repo.FollowingCount(ctx, leo.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDeleteGroupNullsPostGroup(t *testing.T) {
	gdb := newTestDB(t)
	groups := NewGroupRepository(gdb)
	ctx := context.Background()
	leo := createUser(t, gdb, "leo")
	cats := &models.Group{Title: "Cats", Slug: "cats"}
	require.NoError(t, groups.Create(ctx, cats))
	post := createPosts(t, gdb, leo, cats, 1)[0]

	require.NoError(t, groups.Delete(ctx, cats.ID))

	got, err := NewPostRepository(gdb).Get(ctx, "leo", post.ID)
	require.NoError(t, err)
	assert.Nil(t, got.GroupID)

	assert.ErrorIs(t, groups.Delete(ctx, cats.ID), ErrNotFound)
}

func TestDeleteAuthorCascades(t *testing.T) {
	gdb := newTestDB(t)
	ctx := context.Background()
	leo := createUser(t, gdb, "leo")
	reader := createUser(t, gdb, "reader")
	post := createPosts(t, gdb, leo, nil, 1)[0]
	require.NoError(t, NewCommentRepository(gdb).Create(ctx, &models.Comment{PostID: post.ID, AuthorID: leo.ID, Text: "hi"}))
	require.NoError(t, NewFollowRepository(gdb).Follow(ctx, reader.ID, leo.ID))

	require.NoError(t, gdb.Delete(&models.User{}, leo.ID).Error)

	var posts, comments, follows int64
	gdb.Model(&models.Post{}).Count(&posts)
	gdb.Model(&models.Comment{}).Count(&comments)
	gdb.Model(&models.Follow{}).Count(&follows)
	assert.Zero(t, posts)
	assert.Zero(t, comments)
	assert.Zero(t, follows)
}

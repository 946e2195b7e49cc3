package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-board/internal/domain"
	"campus-board/internal/repository"
)

func TestPostRepositoryFilterBySchool(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	stateID := seedSchool(t, db, "State", "state.edu")
	techID := seedSchool(t, db, "Tech", "tech.edu")
	alice := seedUser(t, db, "alice@state.edu")
	bob := seedUser(t, db, "bob@tech.edu")

	now := time.Now().UTC()
	p1 := seedPost(t, db, stateID, alice, "state one", now)
	p2 := seedPost(t, db, stateID, alice, "state two", now)
	seedPost(t, db, techID, bob, "tech one", now)

	repo := NewPostRepository(db)
	posts, total, err := repo.List(ctx, repository.PostFilter{SchoolID: &stateID}, repository.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, posts, 2)
	assert.Equal(t, p1, posts[0].ID)
	assert.Equal(t, p2, posts[1].ID)

	for _, p := range posts {
		assert.Equal(t, stateID, p.SchoolID)
	}
}

func TestPostRepositoryFilterBySchoolEmailDomain(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	stateID := seedSchool(t, db, "State", "state.edu")
	techID := seedSchool(t, db, "Tech", "tech.edu")
	alice := seedUser(t, db, "alice@state.edu")

	now := time.Now().UTC()
	seedPost(t, db, stateID, alice, "state one", now)
	seedPost(t, db, techID, alice, "tech one", now)

	emailDomain := "tech.edu"
	posts, total, err := NewPostRepository(db).List(ctx,
		repository.PostFilter{SchoolEmailDomain: &emailDomain},
		repository.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, posts, 1)
	assert.Equal(t, "tech one", posts[0].Title)
}

func TestPostRepositoryDateFilters(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	schoolID := seedSchool(t, db, "State", "state.edu")
	alice := seedUser(t, db, "alice@state.edu")

	day1 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	day3 := time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC)
	seedPost(t, db, schoolID, alice, "first", day1)
	seedPost(t, db, schoolID, alice, "second", day2)
	seedPost(t, db, schoolID, alice, "third", day3)

	repo := NewPostRepository(db)

	on := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	posts, total, err := repo.List(ctx, repository.PostFilter{DateOn: &on}, repository.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, posts, 1)
	assert.Equal(t, "second", posts[0].Title)

	posts, total, err = repo.List(ctx, repository.PostFilter{DateGTE: &day2}, repository.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, posts, 2)

	posts, total, err = repo.List(ctx, repository.PostFilter{DateLTE: &day2}, repository.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, p := range posts {
		assert.False(t, p.PubDate.After(day2))
	}
}

func TestPostRepositoryOrderingAndPagination(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	schoolID := seedSchool(t, db, "State", "state.edu")
	alice := seedUser(t, db, "alice@state.edu")

	base := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		seedPost(t, db, schoolID, alice, "post", base.Add(time.Duration(i)*time.Hour))
	}

	repo := NewPostRepository(db)

	posts, total, err := repo.List(ctx, repository.PostFilter{}, repository.ListOptions{
		OrderBy:    "pub_date",
		Descending: true,
		Limit:      2,
		Offset:     0,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, posts, 2)
	assert.True(t, posts[0].PubDate.After(posts[1].PubDate))

	next, _, err := repo.List(ctx, repository.PostFilter{}, repository.ListOptions{
		OrderBy:    "pub_date",
		Descending: true,
		Limit:      2,
		Offset:     2,
	})
	require.NoError(t, err)
	require.Len(t, next, 2)
	assert.True(t, posts[1].PubDate.After(next[0].PubDate))

	asc, _, err := repo.List(ctx, repository.PostFilter{}, repository.ListOptions{
		OrderBy: "pub_date",
	})
	require.NoError(t, err)
	require.Len(t, asc, 5)
	assert.True(t, asc[0].PubDate.Before(asc[4].PubDate))
}

func TestPostRepositoryDeleteCascades(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	schoolID := seedSchool(t, db, "State", "state.edu")
	alice := seedUser(t, db, "alice@state.edu")
	postID := seedPost(t, db, schoolID, alice, "doomed", time.Now().UTC())

	comments := NewCommentRepository(db)
	_, err := comments.Create(ctx, &domain.Comment{
		PostID:      postID,
		CommenterID: alice,
		Body:        "gone soon",
	})
	require.NoError(t, err)

	attachments := NewAttachmentRepository(db)
	_, err = attachments.Create(ctx, &domain.Attachment{
		PostID: postID,
		Key:    "post-1/file.png",
		Name:   "file.png",
		Size:   10,
	})
	require.NoError(t, err)

	posts := NewPostRepository(db)
	require.NoError(t, posts.Delete(ctx, postID))

	_, err = posts.Get(ctx, postID)
	require.ErrorContains(t, err, "not found")

	ids, err := comments.ListIDsByPost(ctx, postID)
	require.NoError(t, err)
	assert.Empty(t, ids)

	atts, err := attachments.ListByPost(ctx, postID)
	require.NoError(t, err)
	assert.Empty(t, atts)
}

func TestPostRepositoryDeleteMissing(t *testing.T) {
	db := newTestDB(t)
	err := NewPostRepository(db).Delete(context.Background(), 999)
	require.ErrorContains(t, err, "not found")
}

func TestCommentRepositoryRejectsUnknownPost(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := seedUser(t, db, "alice@state.edu")

	_, err := NewCommentRepository(db).Create(ctx, &domain.Comment{
		PostID:      42,
		CommenterID: alice,
		Body:        "orphan",
	})
	require.ErrorContains(t, err, "not found")
}

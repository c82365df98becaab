package admin

import (
	"context"
	"fmt"
	"testing"

	gomock "github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portal/pkg/post"
	"portal/pkg/sessions"
	"portal/pkg/user"
)

var (
	adminSession = &user.Public{Id: "admin", Email: "admin@communityportal.com", Username: "Admin", IsAdmin: true}
	userSession  = &user.Public{Id: "1", Email: "pike@example.com", Username: "pike"}
	users        = []*user.Public{userSession, {Id: "2", Email: "rob@example.com", Username: "rob"}}
)

func TestStats(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockPosts := NewMockIPostRepo(ctrl)
	mockUsers := NewMockIUserRepo(ctrl)
	agg := NewAggregator(mockPosts, mockUsers)

	t.Run("absolute vote sum", func(t *testing.T) {
		mockPosts.EXPECT().GetAll().Return([]*post.Post{{Score: 3}, {Score: -2}, {Score: 0}})
		mockUsers.EXPECT().GetNonAdmin().Return(users)

		stats, err := agg.Stats(adminSession)
		require.NoError(t, err)
		assert.Equal(t, &Stats{TotalUsers: 2, TotalPosts: 3, TotalVotes: 5}, stats)
	})

	t.Run("empty portal", func(t *testing.T) {
		mockPosts.EXPECT().GetAll().Return([]*post.Post{})
		mockUsers.EXPECT().GetNonAdmin().Return([]*user.Public{})

		stats, err := agg.Stats(adminSession)
		require.NoError(t, err)
		assert.Equal(t, &Stats{}, stats)
	})

	t.Run("forbidden", func(t *testing.T) {
		_, err := agg.Stats(userSession)
		assert.ErrorIs(t, err, sessions.ErrForbidden)
	})

	t.Run("not authenticated", func(t *testing.T) {
		_, err := agg.Stats(nil)
		assert.ErrorIs(t, err, sessions.ErrNoAuth)
	})
}

func TestModerateDelete(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	mockPosts := NewMockIPostRepo(ctrl)
	agg := NewAggregator(mockPosts, NewMockIUserRepo(ctrl))

	t.Run("success", func(t *testing.T) {
		mockPosts.EXPECT().Delete(ctx, post.PostId("1")).Return(nil)
		assert.NoError(t, agg.ModerateDelete(ctx, adminSession, "1"))
	})

	t.Run("not found", func(t *testing.T) {
		mockPosts.EXPECT().Delete(ctx, post.PostId("2")).Return(fmt.Errorf("%w: 2", post.ErrNotFound))
		assert.ErrorIs(t, agg.ModerateDelete(ctx, adminSession, "2"), post.ErrNotFound)
	})

	t.Run("forbidden leaves posts alone", func(t *testing.T) {
		// no Delete expectation: the mock fails the test if it is called
		assert.ErrorIs(t, agg.ModerateDelete(ctx, userSession, "1"), sessions.ErrForbidden)
	})
}

func TestListNonAdminUsers(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockUsers := NewMockIUserRepo(ctrl)
	agg := NewAggregator(NewMockIPostRepo(ctrl), mockUsers)

	mockUsers.EXPECT().GetNonAdmin().Return(users)
	got, err := agg.ListNonAdminUsers(adminSession)
	require.NoError(t, err)
	assert.Equal(t, users, got)

	_, err = agg.ListNonAdminUsers(userSession)
	assert.ErrorIs(t, err, sessions.ErrForbidden)
}

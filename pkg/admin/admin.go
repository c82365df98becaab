package admin

import (
	"context"
	"fmt"

	"portal/pkg/logger"
	"portal/pkg/post"
	"portal/pkg/sessions"
	"portal/pkg/user"
)

//go:generate mockgen -source=admin.go -destination=mock_admin.go -package=admin

type (
	IPostRepo interface {
		GetAll() []*post.Post
		Delete(context.Context, post.PostId) error
	}

	IUserRepo interface {
		GetNonAdmin() []*user.Public
	}

	Stats struct {
		TotalUsers int `json:"totalUsers"`
		TotalPosts int `json:"totalPosts"`
		// TotalVotes sums absolute post scores, not net score.
		TotalVotes int `json:"totalVotes"`
	}

	// Aggregator is the read-only statistics and moderation entry point.
	// Every call checks the session's administrative capability first.
	Aggregator struct {
		posts IPostRepo
		users IUserRepo
	}
)

func NewAggregator(posts IPostRepo, users IUserRepo) *Aggregator {
	return &Aggregator{
		posts: posts,
		users: users,
	}
}

func (a *Aggregator) Stats(session *user.Public) (*Stats, error) {
	if err := sessions.RequireAdmin(session); err != nil {
		return nil, err
	}

	posts := a.posts.GetAll()
	stats := &Stats{
		TotalUsers: len(a.users.GetNonAdmin()),
		TotalPosts: len(posts),
	}
	for _, p := range posts {
		if p.Score < 0 {
			stats.TotalVotes -= p.Score
		} else {
			stats.TotalVotes += p.Score
		}
	}
	return stats, nil
}

func (a *Aggregator) ModerateDelete(ctx context.Context, session *user.Public, id post.PostId) error {
	if err := sessions.RequireAdmin(session); err != nil {
		return err
	}
	if err := a.posts.Delete(ctx, id); err != nil {
		return fmt.Errorf("admin: moderation failed: %w", err)
	}
	logger.Log(ctx).Infow("post moderated", "id", id, "by", session.Id)
	return nil
}

func (a *Aggregator) ListNonAdminUsers(session *user.Public) ([]*user.Public, error) {
	if err := sessions.RequireAdmin(session); err != nil {
		return nil, err
	}
	return a.users.GetNonAdmin(), nil
}

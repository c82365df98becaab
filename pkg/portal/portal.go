// Package portal is the boundary presentation shells call into. Every
// operation runs synchronously against the snapshot store and returns a
// result or one of the sentinel errors of the user, sessions and post
// packages.
package portal

import (
	"context"

	"portal/pkg/admin"
	"portal/pkg/post"
	"portal/pkg/ranking"
	"portal/pkg/sessions"
	"portal/pkg/store"
	"portal/pkg/user"
	"portal/pkg/voting"
)

type Options struct {
	Admin     sessions.Admin
	SecretKey string
}

type Portal struct {
	users    *user.UserRepo
	sessions *sessions.SessionManager
	posts    *post.Repo
	admin    *admin.Aggregator
}

// New loads users, posts and the current session from st.
func New(ctx context.Context, st store.Store, opts Options) *Portal {
	users := user.NewUserRepo(ctx, st)
	posts := post.NewPostRepo(ctx, st)
	return &Portal{
		users:    users,
		sessions: sessions.NewSessionManager(ctx, st, users, opts.Admin, opts.SecretKey),
		posts:    posts,
		admin:    admin.NewAggregator(posts, users),
	}
}

func (p *Portal) Register(ctx context.Context, email, username, secret string) (*user.Public, error) {
	u, err := p.users.Add(ctx, email, username, secret)
	if err != nil {
		return nil, err
	}
	return u.Public(), nil
}

func (p *Portal) Login(ctx context.Context, email, secret string) (*user.Public, error) {
	return p.sessions.Login(ctx, email, secret)
}

func (p *Portal) Logout(ctx context.Context) error {
	return p.sessions.Logout(ctx)
}

func (p *Portal) CurrentSession() *user.Public {
	return p.sessions.Current()
}

func (p *Portal) CreatePost(ctx context.Context, d post.Draft) (*post.Post, error) {
	return p.posts.Add(ctx, p.sessions.Current(), d)
}

func (p *Portal) DeletePost(ctx context.Context, id post.PostId) error {
	return p.admin.ModerateDelete(ctx, p.sessions.Current(), id)
}

func (p *Portal) CastVote(ctx context.Context, id post.PostId, dir voting.VotingScore) (*post.Post, error) {
	session, err := p.sessions.RequireAuth()
	if err != nil {
		return nil, err
	}
	return p.posts.Vote(ctx, id, session.Id, dir)
}

// ListRankedPosts is the feed view, recomputed on every call.
func (p *Portal) ListRankedPosts() []*post.Post {
	return ranking.Rank(p.posts.GetAll())
}

func (p *Portal) ListUserPosts(username string) []*post.Post {
	return ranking.Rank(p.posts.GetUserPosts(username))
}

func (p *Portal) ListNonAdminUsers() ([]*user.Public, error) {
	return p.admin.ListNonAdminUsers(p.sessions.Current())
}

func (p *Portal) Stats() (*admin.Stats, error) {
	return p.admin.Stats(p.sessions.Current())
}

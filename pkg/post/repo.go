package post

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"portal/pkg/ids"
	"portal/pkg/logger"
	"portal/pkg/sessions"
	"portal/pkg/store"
	"portal/pkg/user"
	"portal/pkg/voting"
)

var (
	ErrNotFound    = errors.New("post: post not found")
	ErrEmptyTitle  = errors.New("post: title is empty")
	ErrEmptyLink   = errors.New("post: link post needs a link")
	ErrInvalidType = errors.New("post: type must be text or link")
)

// Repo owns the post collection, newest first. Every mutation writes the
// whole collection to the posts slot before it becomes visible.
type Repo struct {
	mu    sync.Mutex
	store store.Store
	posts []*Post
	now   func() time.Time
}

func NewPostRepo(ctx context.Context, st store.Store) *Repo {
	r := &Repo{store: st, now: time.Now}

	data, err := st.Load(ctx, store.SlotPosts)
	if err != nil {
		logger.Log(ctx).Warnf("post/repo: can't load posts, starting empty: %v", err)
		return r
	}
	posts, err := decodePosts(data)
	if err != nil {
		logger.Log(ctx).Warnf("post/repo: posts snapshot rejected, starting empty: %v", err)
		return r
	}
	r.posts = posts
	return r
}

func decodePosts(data []byte) ([]*Post, error) {
	if len(data) == 0 {
		return nil, nil
	}
	posts := []*Post{}
	if err := json.Unmarshal(data, &posts); err != nil {
		return nil, fmt.Errorf("post/repo: bad JSON: %w", err)
	}

	seen := map[PostId]bool{}
	for i, p := range posts {
		if p == nil {
			return nil, fmt.Errorf("post/repo: record %d is null", i)
		}
		if p.Id == "" || seen[p.Id] {
			return nil, fmt.Errorf("post/repo: record %d has empty or duplicate id %q", i, p.Id)
		}
		seen[p.Id] = true
		if strings.TrimSpace(p.Title) == "" {
			return nil, fmt.Errorf("post/repo: post %s has no title", p.Id)
		}
		if p.Type != PostText && p.Type != PostLink {
			return nil, fmt.Errorf("post/repo: post %s has type %q", p.Id, p.Type)
		}
		if p.Votes == nil {
			p.Votes = voting.Votes{}
		}
		if sum := p.Votes.Sum(); sum != p.Score {
			return nil, fmt.Errorf("post/repo: post %s score %d doesn't match votes %d", p.Id, p.Score, sum)
		}
	}
	return posts, nil
}

// commit saves posts and swaps them in only after the store accepted
// them. Callers hold r.mu.
func (r *Repo) commit(ctx context.Context, posts []*Post) error {
	data, err := json.Marshal(posts)
	if err != nil {
		return fmt.Errorf("post/repo: JSON marshaling failed: %w", err)
	}
	if err := r.store.Save(ctx, store.SlotPosts, data); err != nil {
		return fmt.Errorf("post/repo: failed saving posts: %w", err)
	}
	r.posts = posts
	return nil
}

func (r *Repo) indexOf(id PostId) int {
	for i, p := range r.posts {
		if p.Id == id {
			return i
		}
	}
	return -1
}

// Add creates a post authored by the session's user and puts it first.
func (r *Repo) Add(ctx context.Context, author *user.Public, d Draft) (*Post, error) {
	if author == nil {
		return nil, sessions.ErrNoAuth
	}

	p := &Post{
		Title:  strings.TrimSpace(d.Title),
		Body:   strings.TrimSpace(d.Body),
		Type:   d.Type,
		Author: author.Username,
		Votes:  voting.Votes{},
	}
	if p.Type == "" {
		p.Type = PostText
	}
	switch {
	case p.Title == "":
		return nil, ErrEmptyTitle
	case p.Type != PostText && p.Type != PostLink:
		return nil, fmt.Errorf("%w: %q", ErrInvalidType, d.Type)
	case p.Type == PostLink:
		p.Link = strings.TrimSpace(d.Link)
		if p.Link == "" {
			return nil, ErrEmptyLink
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p.Created = r.now()
	p.Id = PostId(ids.NewSortable(p.Created))

	posts := make([]*Post, 0, len(r.posts)+1)
	posts = append(posts, p)
	posts = append(posts, r.posts...)
	if err := r.commit(ctx, posts); err != nil {
		return nil, err
	}
	logger.Log(ctx).Infow("post created", "id", p.Id, "author", p.Author, "type", p.Type)
	return p.clone(), nil
}

// Delete removes a post. Capability checks belong to the caller.
func (r *Repo) Delete(ctx context.Context, id PostId) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	posts := make([]*Post, 0, len(r.posts)-1)
	posts = append(posts, r.posts[:idx]...)
	posts = append(posts, r.posts[idx+1:]...)
	if err := r.commit(ctx, posts); err != nil {
		return err
	}
	logger.Log(ctx).Infow("post deleted", "id", id)
	return nil
}

// Vote toggles userId's vote on the post and returns the updated post.
// Repeating a direction retracts it; the other direction replaces it.
func (r *Repo) Vote(ctx context.Context, id PostId, userId string, dir voting.VotingScore) (*Post, error) {
	if userId == "" {
		return nil, sessions.ErrNoAuth
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(id)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	updated := r.posts[idx].clone()
	delta, err := updated.Votes.Cast(userId, dir)
	if err != nil {
		return nil, err
	}
	updated.Score += delta

	posts := make([]*Post, len(r.posts))
	copy(posts, r.posts)
	posts[idx] = updated
	if err := r.commit(ctx, posts); err != nil {
		return nil, err
	}
	logger.Log(ctx).Debugw("vote cast", "post", id, "user", userId, "direction", dir, "score", updated.Score)
	return updated.clone(), nil
}

// GetAll returns a copy of the collection in storage order, newest first.
func (r *Repo) GetAll() []*Post {
	r.mu.Lock()
	defer r.mu.Unlock()
	posts := make([]*Post, 0, len(r.posts))
	for _, p := range r.posts {
		posts = append(posts, p.clone())
	}
	return posts
}

func (r *Repo) GetById(id PostId) (*Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.indexOf(id)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return r.posts[idx].clone(), nil
}

// GetUserPosts returns the posts written under username, newest first.
func (r *Repo) GetUserPosts(username string) []*Post {
	userPosts := []*Post{}
	for _, p := range r.GetAll() {
		if p.Author == username {
			userPosts = append(userPosts, p)
		}
	}
	return userPosts
}

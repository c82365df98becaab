package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/jaswdr/faker"

	"portal/pkg/logger"
	"portal/pkg/portal"
	"portal/pkg/post"
	"portal/pkg/user"
	"portal/pkg/voting"
)

const onePassForAll = "sdfsdfsdf"

var f = faker.New()

type credentials struct {
	email, username string
}

// seed fills the store with fake authors, posts and votes to have a better
// feed to look at. It leaves nobody logged in.
func seed(ctx context.Context, p *portal.Portal) error {
	authors := []credentials{{email: "pike@example.com", username: "pike"}}
	for i := 1; i <= 5; i++ {
		authors = append(authors, credentials{
			email:    strings.ToLower(f.Internet().Email()),
			username: strings.ToLower(f.Person().FirstName()),
		})
	}

	registered := []credentials{}
	for _, a := range authors {
		if _, err := p.Register(ctx, a.email, a.username, onePassForAll); err != nil {
			if !errors.Is(err, user.ErrEmailTaken) {
				return fmt.Errorf("seed: can't add user: %w", err)
			}
		}
		registered = append(registered, a)
	}

	for i := 0; i <= 5; i++ {
		if err := login(ctx, p, randAuthor(registered)); err != nil {
			return err
		}
		if _, err := p.CreatePost(ctx, genPost()); err != nil {
			return fmt.Errorf("seed: can't add post: %w", err)
		}
	}

	feed := p.ListRankedPosts()
	for _, a := range registered {
		if err := login(ctx, p, a); err != nil {
			return err
		}
		for _, fp := range feed {
			if rand.Intn(3) == 0 {
				continue
			}
			if _, err := p.CastVote(ctx, fp.Id, randDirection()); err != nil {
				return fmt.Errorf("seed: can't vote: %w", err)
			}
		}
	}

	logger.Log(ctx).Infof("seeded %d authors and %d posts", len(registered), len(feed))
	return p.Logout(ctx)
}

func login(ctx context.Context, p *portal.Portal, a credentials) error {
	if _, err := p.Login(ctx, a.email, onePassForAll); err != nil {
		return fmt.Errorf("seed: can't log in as %s: %w", a.username, err)
	}
	return nil
}

func randAuthor(authors []credentials) credentials {
	return authors[rand.Intn(len(authors))]
}

func randDirection() voting.VotingScore {
	if rand.Intn(3) == 0 {
		return voting.ScoreDown
	}
	return voting.ScoreUp
}

func genTitle() string {
	return strings.Join(f.Lorem().Words(rand.Intn(5)+3), " ")
}

func genText() string {
	return f.Lorem().Paragraph(rand.Intn(3) + 2)
}

func genPost() post.Draft {
	if rand.Intn(2) == 0 {
		return post.Draft{
			Title: genTitle(),
			Body:  genText(),
			Type:  post.PostText,
		}
	}
	return post.Draft{
		Title: genTitle(),
		Link:  f.Internet().URL(),
		Type:  post.PostLink,
	}
}

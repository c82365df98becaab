package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"portal/pkg/config"
	"portal/pkg/logger"
	"portal/pkg/portal"
	"portal/pkg/post"
	"portal/pkg/sessions"
	"portal/pkg/store"
	"portal/pkg/voting"
)

const usage = `usage: portal <command> [args]

  register <email> <username> <password>
  login <email> <password>
  logout
  whoami
  post [-link url] <title> [body]
  up <post_id> | down <post_id>
  feed
  user <username>
  delete <post_id>      (admin)
  users                 (admin)
  stats                 (admin)
  seed                  generate fake users and posts
`

var errUsage = errors.New("bad arguments")

func init() {
	rand.Seed(time.Now().UnixNano())
}

func main() {
	os.Exit(runMain(os.Args[1:], os.Stdout, os.Stderr))
}

// runMain wires config, logging and the snapshot store around run and
// returns the process exit status. Deferred cleanup runs before main exits.
func runMain(args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintln(stderr, "main: failed loading config:", err)
		return 1
	}

	l := logger.Run(cfg.LogLevel)
	defer l.Sync()
	ctx := logger.WithLogger(context.Background(), l)

	st, closeStore, err := store.Open(ctx, cfg)
	if err != nil {
		l.Errorf("main: can't open snapshot store: %v", err)
		return 1
	}
	defer closeStore()

	p := portal.New(ctx, st, portal.Options{
		Admin:     sessions.Admin{Email: cfg.AdminEmail, Secret: cfg.AdminSecret},
		SecretKey: cfg.SecretKey,
	})

	if err := run(ctx, p, stdout, args); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(stderr, usage)
		}
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, p *portal.Portal, out io.Writer, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, args := args[0], args[1:]

	switch cmd {
	case "register":
		if len(args) != 3 {
			return errUsage
		}
		u, err := p.Register(ctx, args[0], args[1], args[2])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "registered %s (%s)\n", u.Username, u.Id)

	case "login":
		if len(args) != 2 {
			return errUsage
		}
		s, err := p.Login(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "welcome, %s\n", s.Username)

	case "logout":
		return p.Logout(ctx)

	case "whoami":
		s := p.CurrentSession()
		if s == nil {
			return sessions.ErrNoAuth
		}
		role := "user"
		if s.IsAdmin {
			role = "admin"
		}
		fmt.Fprintf(out, "%s <%s> %s\n", s.Username, s.Email, role)

	case "post":
		fs := flag.NewFlagSet("post", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		link := fs.String("link", "", "link URL, makes a link post")
		if err := fs.Parse(args); err != nil || fs.NArg() < 1 {
			return errUsage
		}
		d := post.Draft{Title: fs.Arg(0), Body: strings.Join(fs.Args()[1:], " "), Type: post.PostText}
		if *link != "" {
			d.Type, d.Link = post.PostLink, *link
		}
		created, err := p.CreatePost(ctx, d)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "created %s\n", created.Id)

	case "up", "down":
		if len(args) != 1 {
			return errUsage
		}
		dir, err := voting.ParseDirection(cmd)
		if err != nil {
			return err
		}
		voted, err := p.CastVote(ctx, post.PostId(args[0]), dir)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s now has %d\n", voted.Id, voted.Score)

	case "feed":
		printPosts(out, p.ListRankedPosts())

	case "user":
		if len(args) != 1 {
			return errUsage
		}
		printPosts(out, p.ListUserPosts(args[0]))

	case "delete":
		if len(args) != 1 {
			return errUsage
		}
		if err := p.DeletePost(ctx, post.PostId(args[0])); err != nil {
			return err
		}
		fmt.Fprintln(out, "post deleted")

	case "users":
		users, err := p.ListNonAdminUsers()
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		for _, u := range users {
			fmt.Fprintf(w, "%s\t%s\t%s\n", u.Id, u.Username, u.Email)
		}
		return w.Flush()

	case "stats":
		stats, err := p.Stats()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "users: %d\nposts: %d\nvotes: %d\n", stats.TotalUsers, stats.TotalPosts, stats.TotalVotes)

	case "seed":
		return seed(ctx, p)

	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
	return nil
}

func printPosts(out io.Writer, posts []*post.Post) {
	if len(posts) == 0 {
		fmt.Fprintln(out, "No posts yet. Be the first to create one!")
		return
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, p := range posts {
		title := p.Title
		if p.Link != "" {
			title += " <" + p.Link + ">"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\tby %s\t%s\n", p.Score, p.Id, title, p.Author, p.Created.Format("2006-01-02"))
	}
	w.Flush()
}

package ranking

import (
	"sort"

	"portal/pkg/post"
)

// Rank orders posts by descending score. Equal scores keep their input
// order, so over storage order the newer post wins a tie. The input slice
// is left untouched.
func Rank(posts []*post.Post) []*post.Post {
	ranked := make([]*post.Post, len(posts))
	copy(ranked, posts)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

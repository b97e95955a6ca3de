package models

// Author identifies the account behind a post.
type Author struct {
	Handle      string `json:"handle"`
	DisplayName string `json:"display_name,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
}

// QuotedPost is the embedded post a post quotes, if any.
type QuotedPost struct {
	Author Author `json:"author"`
	Text   string `json:"text"`
}

// Post is the canonical unit of content produced by the normalizer.
// URI is the stable identifier and the dedup key. CreatedAt may be empty
// for externally sourced posts whose raw data carries no timestamp; such
// posts are treated as unknown-age by cutoff-based filtering.
type Post struct {
	URI         string      `json:"uri"`
	Author      Author      `json:"author"`
	Text        string      `json:"text"`
	CreatedAt   string      `json:"created_at,omitempty"`
	LikeCount   int         `json:"like_count"`
	RepostCount int         `json:"repost_count"`
	ReplyCount  int         `json:"reply_count"`
	QuotedPost  *QuotedPost `json:"quoted_post,omitempty"`
}

// DedupPosts removes posts sharing a URI, keeping the first occurrence and
// preserving relative order.
func DedupPosts(posts []Post) []Post {
	seen := make(map[string]bool, len(posts))
	out := make([]Post, 0, len(posts))
	for _, p := range posts {
		if seen[p.URI] {
			continue
		}
		seen[p.URI] = true
		out = append(out, p)
	}
	return out
}

package digest

import (
	"sort"

	"github.com/ecamli/bskydigest/internal/models"
)

// Score is the engagement score used for ranking.
func Score(p models.Post) float64 {
	return float64(p.LikeCount) + 2*float64(p.RepostCount) + 1.5*float64(p.ReplyCount)
}

// Rank sorts posts by engagement score descending and truncates to limit.
// The sort is stable so that equal scores keep their input order.
func Rank(posts []models.Post, limit int) []models.Post {
	ranked := make([]models.Post, len(posts))
	copy(ranked, posts)

	sort.SliceStable(ranked, func(i, j int) bool {
		return Score(ranked[i]) > Score(ranked[j])
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

package digest

import (
	"testing"

	"github.com/ecamli/bskydigest/internal/models"
)

func TestScoreWeights(t *testing.T) {
	p := models.Post{LikeCount: 4, RepostCount: 3, ReplyCount: 2}
	if got, want := Score(p), 4+2*3.0+1.5*2; got != want {
		t.Errorf("expected score %v, got %v", want, got)
	}
}

func TestRankOrdersByScoreDescending(t *testing.T) {
	posts := []models.Post{
		{URI: "at://low", LikeCount: 1},
		{URI: "at://high", RepostCount: 10},
		{URI: "at://mid", ReplyCount: 4},
	}

	ranked := Rank(posts, 150)

	if len(ranked) != 3 {
		t.Fatalf("expected 3 posts, got %d", len(ranked))
	}
	for i := 1; i < len(ranked); i++ {
		if Score(ranked[i]) > Score(ranked[i-1]) {
			t.Errorf("scores not non-increasing at index %d", i)
		}
	}
	if ranked[0].URI != "at://high" || ranked[2].URI != "at://low" {
		t.Errorf("unexpected order: %q %q %q", ranked[0].URI, ranked[1].URI, ranked[2].URI)
	}
}

func TestRankStableOnTies(t *testing.T) {
	posts := []models.Post{
		{URI: "at://first", LikeCount: 5},
		{URI: "at://second", LikeCount: 5},
		{URI: "at://third", LikeCount: 5},
	}

	ranked := Rank(posts, 150)

	for i, uri := range []string{"at://first", "at://second", "at://third"} {
		if ranked[i].URI != uri {
			t.Errorf("tie order not preserved at %d: got %q", i, ranked[i].URI)
		}
	}
}

func TestRankTruncates(t *testing.T) {
	posts := make([]models.Post, 10)
	for i := range posts {
		posts[i] = models.Post{URI: "at://p", LikeCount: i}
	}

	ranked := Rank(posts, 3)

	if len(ranked) != 3 {
		t.Fatalf("expected 3 posts after truncation, got %d", len(ranked))
	}
	if ranked[0].LikeCount != 9 {
		t.Errorf("expected top post with 9 likes, got %d", ranked[0].LikeCount)
	}
}

func TestRankDoesNotMutateInput(t *testing.T) {
	posts := []models.Post{
		{URI: "at://a", LikeCount: 1},
		{URI: "at://b", LikeCount: 9},
	}

	Rank(posts, 150)

	if posts[0].URI != "at://a" {
		t.Error("input slice was reordered")
	}
}

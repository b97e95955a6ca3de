package digest

import (
	"fmt"
	"strings"

	"github.com/ecamli/bskydigest/internal/models"
)

const maxQuotedTextLen = 200

// Instruction templates for the two digest types. The model is required to
// answer with a single JSON object and nothing else; the synthesizer treats
// anything non-conforming as a hard failure.
const (
	generalInstructions = `You are a social media analyst writing a daily digest of a user's Bluesky timeline.

You will receive a numbered list of posts with author and engagement data.
Respond with ONLY a JSON object, no surrounding prose, of this exact shape:
{
  "overview": "2-3 paragraph synthesis of the day's conversation",
  "notablePosts": [{"postIndex": 1, "reason": "one short sentence"}],
  "trendingTopics": ["short topic label"]
}

Rules:
- postIndex refers to the numbered input list, 1-based.
- Pick at most 10 notable posts, favoring substance over raw engagement.
- Keep trendingTopics to at most 8 short labels.`

	topicInstructions = `You are a social media analyst writing a daily AI/ML-focused digest of Bluesky posts.

The posts were pre-filtered by keyword matching, which produces false
positives: posts where a keyword appears but the post is not actually about
AI or machine learning. Ignore those entirely; do not reference them in the
overview and never select them as notable.

You will receive a numbered list of posts with author and engagement data.
Respond with ONLY a JSON object, no surrounding prose, of this exact shape:
{
  "overview": "2-3 paragraph synthesis of the AI/ML conversation",
  "notablePosts": [{"postIndex": 1, "reason": "one short sentence"}],
  "trendingTopics": ["short topic label"]
}

Rules:
- postIndex refers to the numbered input list, 1-based.
- Pick at most 10 notable posts, favoring substance over raw engagement.
- Keep trendingTopics to at most 8 short labels.`
)

func instructionsFor(digestType models.DigestType) string {
	if digestType == models.DigestTypeTopic {
		return topicInstructions
	}
	return generalInstructions
}

// buildPostsBlock serializes ranked posts as the numbered blocks the
// instruction templates reference.
func buildPostsBlock(posts []models.Post) string {
	var sb strings.Builder
	for i, p := range posts {
		sb.WriteString(fmt.Sprintf("[%d] @%s", i+1, p.Author.Handle))
		if p.Author.DisplayName != "" {
			sb.WriteString(fmt.Sprintf(" (%s)", p.Author.DisplayName))
		}
		sb.WriteString(fmt.Sprintf(" — %d likes, %d reposts, %d replies\n",
			p.LikeCount, p.RepostCount, p.ReplyCount))

		if p.QuotedPost != nil {
			sb.WriteString(fmt.Sprintf("Quoting @%s: %q\n",
				p.QuotedPost.Author.Handle, truncateText(p.QuotedPost.Text, maxQuotedTextLen)))
		}

		sb.WriteString(p.Text)
		sb.WriteString("\n\n")
	}
	return sb.String()
}

// truncateText cuts s to at most max runes, appending an ellipsis marker
// when anything was removed.
func truncateText(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

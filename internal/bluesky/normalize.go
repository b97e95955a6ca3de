package bluesky

import "github.com/ecamli/bskydigest/internal/models"

// NormalizePost converts a raw feed item into the canonical post model.
// It performs no I/O; malformed embeds degrade to a nil quoted post.
func NormalizePost(item FeedItem) models.Post {
	pv := item.Post

	post := models.Post{
		URI: pv.URI,
		Author: models.Author{
			Handle:      pv.Author.Handle,
			DisplayName: pv.Author.DisplayName,
			Avatar:      pv.Author.Avatar,
		},
		Text:        pv.Record.Text,
		CreatedAt:   pv.Record.CreatedAt,
		LikeCount:   pv.LikeCount,
		RepostCount: pv.RepostCount,
		ReplyCount:  pv.ReplyCount,
	}

	embed := DecodeEmbed(pv.Embed)
	switch embed.Kind {
	case EmbedRecord, EmbedRecordWithMedia:
		if embed.Record.Realized() {
			post.QuotedPost = &models.QuotedPost{
				Author: models.Author{
					Handle:      embed.Record.Author.Handle,
					DisplayName: embed.Record.Author.DisplayName,
					Avatar:      embed.Record.Author.Avatar,
				},
				Text: embed.Record.Value.Text,
			}
		}
	}

	return post
}

// NormalizeFeed normalizes every item of a page in order.
func NormalizeFeed(items []FeedItem) []models.Post {
	posts := make([]models.Post, 0, len(items))
	for _, item := range items {
		posts = append(posts, NormalizePost(item))
	}
	return posts
}

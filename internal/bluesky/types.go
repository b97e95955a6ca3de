package bluesky

import "encoding/json"

// ActorView is the author block attached to post views.
type ActorView struct {
	DID         string `json:"did"`
	Handle      string `json:"handle"`
	DisplayName string `json:"displayName,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
}

// PostRecord is the app.bsky.feed.post record payload carried by a post view.
type PostRecord struct {
	Text      string `json:"text"`
	CreatedAt string `json:"createdAt"`
}

// PostView is a hydrated post as returned by getTimeline/getFeed.
// Embed is kept raw and decoded once by DecodeEmbed.
type PostView struct {
	URI         string          `json:"uri"`
	CID         string          `json:"cid"`
	Author      ActorView       `json:"author"`
	Record      PostRecord      `json:"record"`
	Embed       json.RawMessage `json:"embed,omitempty"`
	ReplyCount  int             `json:"replyCount"`
	RepostCount int             `json:"repostCount"`
	LikeCount   int             `json:"likeCount"`
}

// FeedItem is one entry of a timeline or feed response.
type FeedItem struct {
	Post PostView `json:"post"`
}

// FeedPage is one page of getTimeline/getFeed output. An empty Cursor
// signals the end of pagination.
type FeedPage struct {
	Items  []FeedItem `json:"feed"`
	Cursor string     `json:"cursor,omitempty"`
}

type createSessionRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type createSessionResponse struct {
	AccessJwt string `json:"accessJwt"`
	DID       string `json:"did"`
	Handle    string `json:"handle"`
}

type resolveHandleResponse struct {
	DID string `json:"did"`
}

type xrpcError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

package bluesky

import "encoding/json"

// EmbedKind classifies the embed shapes the normalizer understands.
type EmbedKind int

const (
	EmbedNone EmbedKind = iota
	EmbedRecord
	EmbedRecordWithMedia
	EmbedOther
)

const (
	embedRecordView          = "app.bsky.embed.record#view"
	embedRecordWithMediaView = "app.bsky.embed.recordWithMedia#view"
	embedViewRecord          = "app.bsky.embed.record#viewRecord"
)

// ViewRecord is the realized quoted record inside a record embed. Deleted or
// blocked quotes come back with a different $type and are not realized.
type ViewRecord struct {
	Type   string    `json:"$type"`
	URI    string    `json:"uri"`
	Author ActorView `json:"author"`
	Value  struct {
		Text string `json:"text"`
	} `json:"value"`
}

// Realized reports whether the nested record is an actual quoted post rather
// than a not-found or blocked placeholder.
func (r *ViewRecord) Realized() bool {
	return r != nil && r.Type == embedViewRecord
}

// Embed is the decoded variant of a post view's embed field.
type Embed struct {
	Kind   EmbedKind
	Record *ViewRecord
}

type embedEnvelope struct {
	Type   string          `json:"$type"`
	Record json.RawMessage `json:"record"`
}

// DecodeEmbed decodes the raw embed payload into its tagged variant. Only
// quote-record shapes are interpreted; anything unrecognized or structurally
// off yields EmbedOther with no record, never an error.
func DecodeEmbed(raw json.RawMessage) Embed {
	if len(raw) == 0 {
		return Embed{Kind: EmbedNone}
	}

	var env embedEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Embed{Kind: EmbedOther}
	}

	switch env.Type {
	case embedRecordView:
		var rec ViewRecord
		if err := json.Unmarshal(env.Record, &rec); err != nil {
			return Embed{Kind: EmbedOther}
		}
		return Embed{Kind: EmbedRecord, Record: &rec}

	case embedRecordWithMediaView:
		// The quoted record sits one level deeper, wrapped alongside media.
		var wrapper embedEnvelope
		if err := json.Unmarshal(env.Record, &wrapper); err != nil {
			return Embed{Kind: EmbedOther}
		}
		var rec ViewRecord
		if err := json.Unmarshal(wrapper.Record, &rec); err != nil {
			return Embed{Kind: EmbedOther}
		}
		return Embed{Kind: EmbedRecordWithMedia, Record: &rec}

	default:
		return Embed{Kind: EmbedOther}
	}
}

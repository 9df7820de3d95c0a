package notify

// Notification type tags. These are the canonical values stored on persisted
// records, used for rate-limit scoping, preference lookups, and queue stats
// breakdowns. Free-form tags are allowed anywhere a type is accepted; the
// constants below cover the platform's built-in surfaces.
const (
	// TypeMessage marks direct-message notifications. They belong to the
	// conversational surface: excluded from unread counts and from bulk
	// read/seen operations.
	TypeMessage = "message"

	TypeMention        = "mention"
	TypeReply          = "reply"
	TypeComment        = "comment"
	TypeFollow         = "follow"
	TypeFollowRequest  = "follow_request"
	TypeLike           = "like"
	TypeRepost         = "repost"
	TypeSystem         = "system"
	TypeVideoProcessed = "video_processed"
)

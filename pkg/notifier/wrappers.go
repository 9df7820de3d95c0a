package notifier

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yapplr/notify"
)

// Typed wrappers over Send. Each fills type, title, body and priority
// deterministically for one platform surface and runs the full gate chain.

// SendMessage notifies about a new direct message. Message notifications
// are excluded from the notification center and the unread badge.
func (s *Service) SendMessage(ctx context.Context, userID, senderID uuid.UUID, senderName string) (bool, error) {
	return s.Send(ctx, Request{
		UserID:   userID,
		Type:     notify.TypeMessage,
		Title:    "New message",
		Body:     fmt.Sprintf("@%s sent you a message", senderName),
		Priority: notify.PriorityHigh,
		ActorID:  &senderID,
	})
}

// SendMention notifies that the user was mentioned in a post.
func (s *Service) SendMention(ctx context.Context, userID, actorID uuid.UUID, actorName string, postID uuid.UUID) (bool, error) {
	return s.Send(ctx, Request{
		UserID:   userID,
		Type:     notify.TypeMention,
		Title:    "You were mentioned",
		Body:     fmt.Sprintf("@%s mentioned you in a yap", actorName),
		Priority: notify.PriorityNormal,
		ActorID:  &actorID,
		PostID:   &postID,
	})
}

// SendReply notifies about a reply to the user's post.
func (s *Service) SendReply(ctx context.Context, userID, actorID uuid.UUID, actorName string, postID, commentID uuid.UUID) (bool, error) {
	return s.Send(ctx, Request{
		UserID:    userID,
		Type:      notify.TypeReply,
		Title:     "New reply",
		Body:      fmt.Sprintf("@%s replied to your yap", actorName),
		Priority:  notify.PriorityNormal,
		ActorID:   &actorID,
		PostID:    &postID,
		CommentID: &commentID,
	})
}

// SendComment notifies about a comment on the user's post.
func (s *Service) SendComment(ctx context.Context, userID, actorID uuid.UUID, actorName string, postID, commentID uuid.UUID) (bool, error) {
	return s.Send(ctx, Request{
		UserID:    userID,
		Type:      notify.TypeComment,
		Title:     "New comment",
		Body:      fmt.Sprintf("@%s commented on your yap", actorName),
		Priority:  notify.PriorityNormal,
		ActorID:   &actorID,
		PostID:    &postID,
		CommentID: &commentID,
	})
}

// SendFollow notifies about a new follower.
func (s *Service) SendFollow(ctx context.Context, userID, actorID uuid.UUID, actorName string) (bool, error) {
	return s.Send(ctx, Request{
		UserID:   userID,
		Type:     notify.TypeFollow,
		Title:    "New follower",
		Body:     fmt.Sprintf("@%s started following you", actorName),
		Priority: notify.PriorityNormal,
		ActorID:  &actorID,
	})
}

// SendFollowRequest notifies about a pending follow request.
func (s *Service) SendFollowRequest(ctx context.Context, userID, actorID uuid.UUID, actorName string) (bool, error) {
	return s.Send(ctx, Request{
		UserID:   userID,
		Type:     notify.TypeFollowRequest,
		Title:    "Follow request",
		Body:     fmt.Sprintf("@%s wants to follow you", actorName),
		Priority: notify.PriorityNormal,
		ActorID:  &actorID,
	})
}

// SendLike notifies that someone liked the user's post.
func (s *Service) SendLike(ctx context.Context, userID, actorID uuid.UUID, actorName string, postID uuid.UUID) (bool, error) {
	return s.Send(ctx, Request{
		UserID:   userID,
		Type:     notify.TypeLike,
		Title:    "New like",
		Body:     fmt.Sprintf("@%s liked your yap", actorName),
		Priority: notify.PriorityLow,
		ActorID:  &actorID,
		PostID:   &postID,
	})
}

// SendRepost notifies that someone reposted the user's post.
func (s *Service) SendRepost(ctx context.Context, userID, actorID uuid.UUID, actorName string, postID uuid.UUID) (bool, error) {
	return s.Send(ctx, Request{
		UserID:   userID,
		Type:     notify.TypeRepost,
		Title:    "New repost",
		Body:     fmt.Sprintf("@%s reposted your yap", actorName),
		Priority: notify.PriorityLow,
		ActorID:  &actorID,
		PostID:   &postID,
	})
}

// SendSystem sends a platform announcement with the given text.
func (s *Service) SendSystem(ctx context.Context, userID uuid.UUID, title, body string) (bool, error) {
	return s.Send(ctx, Request{
		UserID:   userID,
		Type:     notify.TypeSystem,
		Title:    title,
		Body:     body,
		Priority: notify.PriorityCritical,
	})
}

// SendVideoProcessed notifies that the user's uploaded video is ready.
func (s *Service) SendVideoProcessed(ctx context.Context, userID, postID uuid.UUID) (bool, error) {
	return s.Send(ctx, Request{
		UserID:   userID,
		Type:     notify.TypeVideoProcessed,
		Title:    "Video ready",
		Body:     "Your video finished processing and is now live",
		Priority: notify.PriorityNormal,
		PostID:   &postID,
	})
}

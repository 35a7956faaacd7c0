package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"soundrise/internal/model"
	"soundrise/internal/repository"
	"soundrise/internal/util"
)

const (
	NotificationQueueName = "notification_queue"
	NotificationExchange  = "notification_exchange"
)

// NotificationMessage is the message structure published to RabbitMQ
type NotificationMessage struct {
	UserID    string                 `json:"user_id"`
	Type      string                 `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

type NotificationService interface {
	// Notify persists a notification for an engagement event, publishes it to
	// RabbitMQ, and pushes it over the user's websocket connections.
	Notify(actorID, targetUserID, eventKind string, data map[string]interface{}) error

	GetNotificationsByUserID(userID string, limit, offset int) ([]*model.Notification, error)
	GetUnreadCount(userID string) (int64, error)
	MarkAsRead(notificationID, userID string) error
	MarkAllAsRead(userID string) error
	SetWSHub(hub interface {
		BroadcastToUser(string, map[string]interface{})
	})
}

type notificationService struct {
	notifRepo repository.NotificationRepository
	userRepo  repository.UserRepository
	rabbitMQ  *util.RabbitMQClient
	wsHub     interface {
		BroadcastToUser(string, map[string]interface{})
	}
}

func NewNotificationService(
	notifRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	rabbitMQ *util.RabbitMQClient,
) NotificationService {
	return &notificationService{
		notifRepo: notifRepo,
		userRepo:  userRepo,
		rabbitMQ:  rabbitMQ,
		wsHub:     nil, // Will be set via SetWSHub
	}
}

// SetWSHub sets the WebSocket hub for realtime notifications
func (s *notificationService) SetWSHub(hub interface {
	BroadcastToUser(string, map[string]interface{})
}) {
	s.wsHub = hub
}

// Notify builds the title and message for the event kind and delivers it.
// Unknown event kinds are rejected so a typo at a call site surfaces in logs
// instead of producing a blank notification.
func (s *notificationService) Notify(actorID, targetUserID, eventKind string, data map[string]interface{}) error {
	actorName := "Someone"
	if actorID != "" {
		if actor, err := s.userRepo.FindByID(actorID); err == nil {
			actorName = actor.Username
		}
	}

	var title, message string
	switch eventKind {
	case model.NotificationTypeContentLiked:
		title = "New Like"
		message = fmt.Sprintf("%s liked your track", actorName)
	case model.NotificationTypeArtistFollowed:
		title = "New Follower"
		message = fmt.Sprintf("%s started following you", actorName)
	case model.NotificationTypeNewComment:
		title = "New Comment"
		message = fmt.Sprintf("%s commented on your track", actorName)
	case model.NotificationTypeCommentReply:
		title = "New Reply"
		message = fmt.Sprintf("%s replied to your comment", actorName)
	case model.NotificationTypeMention:
		title = "You Were Mentioned"
		message = fmt.Sprintf("%s mentioned you in a comment", actorName)
	case model.NotificationTypeViralMilestone:
		title = "Milestone Reached"
		message = milestoneMessage(data)
	case model.NotificationTypeCommentReported:
		title = "Comment Reported"
		message = reportedMessage(data)
	default:
		return fmt.Errorf("unknown notification event kind: %s", eventKind)
	}

	return s.sendNotification(targetUserID, actorID, eventKind, title, message, data)
}

func milestoneMessage(data map[string]interface{}) string {
	milestone, _ := data["milestone"].(int64)
	counter, _ := data["counter"].(string)
	switch counter {
	case model.CounterLikes:
		return fmt.Sprintf("Your track just passed %d likes", milestone)
	case model.CounterViews:
		return fmt.Sprintf("Your track just passed %d views", milestone)
	case model.CounterShares:
		return fmt.Sprintf("Your track just passed %d shares", milestone)
	default:
		return fmt.Sprintf("Your track just passed %d interactions", milestone)
	}
}

func reportedMessage(data map[string]interface{}) string {
	if title, ok := data["content_title"].(string); ok && title != "" {
		return fmt.Sprintf("A comment on %q was reported and needs review", title)
	}
	return "A comment on your track was reported and needs review"
}

// sendNotification saves to DB, publishes to RabbitMQ, and pushes to the
// user's websocket connections.
func (s *notificationService) sendNotification(
	userID, senderID, notifType, title, message string,
	data map[string]interface{},
) error {
	notification := &model.Notification{
		UserID:  userID,
		Type:    notifType,
		Title:   title,
		Message: message,
		IsRead:  false,
	}

	if senderID != "" {
		notification.SenderID = &senderID
	}
	if data != nil {
		if targetID, ok := data["comment_id"].(string); ok {
			notification.TargetID = &targetID
		} else if targetID, ok := data["content_id"].(string); ok {
			notification.TargetID = &targetID
		}

		dataJSON, err := json.Marshal(data)
		if err == nil {
			notification.Data = string(dataJSON)
		}
	}

	if err := s.notifRepo.Create(notification); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	// Publish to RabbitMQ for downstream consumers (email, push, analytics)
	if s.rabbitMQ != nil {
		msg := NotificationMessage{
			UserID:    userID,
			Type:      notifType,
			Title:     title,
			Message:   message,
			Data:      data,
			Timestamp: time.Now(),
		}

		msgJSON, err := json.Marshal(msg)
		if err != nil {
			log.Printf("Failed to marshal notification message: %v", err)
		} else if err := s.rabbitMQ.Publish(NotificationExchange, NotificationQueueName, msgJSON); err != nil {
			log.Printf("Failed to publish notification to RabbitMQ: %v", err)
			// Notification is already saved in DB, delivery continues
		}
	}

	// Push to WebSocket if hub is available
	if s.wsHub != nil {
		wsPayload := map[string]interface{}{
			"id":         notification.ID,
			"user_id":    notification.UserID,
			"type":       notification.Type,
			"title":      notification.Title,
			"message":    notification.Message,
			"target_id":  notification.TargetID,
			"is_read":    notification.IsRead,
			"created_at": notification.CreatedAt.Format(time.RFC3339),
		}

		if notification.SenderID != nil {
			wsPayload["sender_id"] = *notification.SenderID
		}
		if notification.Data != "" {
			var dataMap map[string]interface{}
			if err := json.Unmarshal([]byte(notification.Data), &dataMap); err == nil {
				wsPayload["data"] = dataMap
			}
		}

		s.wsHub.BroadcastToUser(userID, wsPayload)
	}

	return nil
}

// GetNotificationsByUserID gets notifications for a user with pagination
func (s *notificationService) GetNotificationsByUserID(userID string, limit, offset int) ([]*model.Notification, error) {
	return s.notifRepo.FindByUserID(userID, limit, offset)
}

// GetUnreadCount gets unread notification count for a user
func (s *notificationService) GetUnreadCount(userID string) (int64, error) {
	return s.notifRepo.CountUnreadByUserID(userID)
}

// MarkAsRead marks a notification as read
func (s *notificationService) MarkAsRead(notificationID, userID string) error {
	notification, err := s.notifRepo.FindByID(notificationID)
	if err != nil {
		return errors.New("notification not found")
	}

	if notification.UserID != userID {
		return errors.New("unauthorized: you can only mark your own notifications as read")
	}

	return s.notifRepo.MarkAsRead(notificationID)
}

// MarkAllAsRead marks all notifications as read for a user
func (s *notificationService) MarkAllAsRead(userID string) error {
	return s.notifRepo.MarkAllAsRead(userID)
}

package service

import (
	"regexp"

	"soundrise/internal/model"
	"soundrise/internal/repository"
)

var mentionPattern = regexp.MustCompile(`@([A-Za-z0-9_]{2,50})`)

// MentionService resolves @username tokens in comment bodies and notifies the
// mentioned users. Unknown usernames are silently skipped.
type MentionService struct {
	userRepo repository.UserRepository
	notifier Notifier
}

func NewMentionService(userRepo repository.UserRepository, notifier Notifier) *MentionService {
	return &MentionService{
		userRepo: userRepo,
		notifier: notifier,
	}
}

// NotifyMentions scans a comment body and notifies each mentioned user once.
// The author mentioning themselves is ignored.
func (s *MentionService) NotifyMentions(actorID, body, contentID, commentID string) error {
	matches := mentionPattern.FindAllStringSubmatch(body, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(matches))
	usernames := make([]string, 0, len(matches))
	for _, match := range matches {
		username := match[1]
		if seen[username] {
			continue
		}
		seen[username] = true
		usernames = append(usernames, username)
	}

	users, err := s.userRepo.FindByUsernames(usernames)
	if err != nil {
		return err
	}

	for _, user := range users {
		if user.ID == actorID {
			continue
		}
		if err := s.notifier.Notify(actorID, user.ID, model.NotificationTypeMention, map[string]interface{}{
			"content_id": contentID,
			"comment_id": commentID,
		}); err != nil {
			return err
		}
	}
	return nil
}

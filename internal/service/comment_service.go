package service

import (
	"time"

	"soundrise/internal/config"
	"soundrise/internal/model"
	"soundrise/internal/repository"
)

// allowedReactions is the closed set of comment reaction kinds
var allowedReactions = map[string]bool{
	"like":  true,
	"heart": true,
	"laugh": true,
	"fire":  true,
}

// MentionDetector scans a comment body for @mentions and notifies the
// mentioned users. Runs behind the dispatcher.
type MentionDetector interface {
	NotifyMentions(actorID, body, contentID, commentID string) error
}

// CommentAuthor is the author projection embedded in comment views
type CommentAuthor struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
}

// CommentView is a comment as rendered to clients. Replies is only populated
// on top-level comments and is capped by the hydration limit.
type CommentView struct {
	ID            string         `json:"id"`
	ContentID     string         `json:"content_id"`
	ParentID      *string        `json:"parent_id,omitempty"`
	Body          string         `json:"body"`
	Author        CommentAuthor  `json:"author"`
	ReplyCount    int            `json:"reply_count"`
	ReactionCount int            `json:"reaction_count"`
	Reactions     map[string]int `json:"reactions"`
	MyReactions   []string       `json:"my_reactions,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	Replies       []*CommentView `json:"replies,omitempty"`
}

// CommentPage is one page of a content item's comment thread
type CommentPage struct {
	Comments     []*CommentView `json:"comments"`
	TotalCount   int64          `json:"total_count"`
	TopLevel     int64          `json:"top_level_count"`
	Page         int            `json:"page"`
	Limit        int            `json:"limit"`
	HasMore      bool           `json:"has_more"`
	RepliesShown int            `json:"replies_shown_per_comment"`
}

type CreateCommentInput struct {
	Body     string
	ParentID *string
}

type CommentService interface {
	CreateComment(userID, rawKind, contentID string, input CreateCommentInput) (*CommentView, error)
	UpdateComment(userID, commentID, body string) (*CommentView, error)
	DeleteComment(userID, commentID string) error
	HideComment(moderatorID, userRole, commentID, reason string) error
	ReportComment(userID, commentID string) error
	ReactToComment(userID, commentID, reaction string) (*CommentView, error)
	ListComments(viewerID, rawKind, contentID, sort string, page, limit int) (*CommentPage, error)
}

type commentService struct {
	store       repository.Store
	userRepo    repository.UserRepository
	cache       InteractionCache
	broadcaster Broadcaster
	dispatcher  *Dispatcher
	notifier    Notifier
	virality    ViralityChecker
	mentions    MentionDetector
	sanitizer   *Sanitizer
	replyLimit  int
}

func NewCommentService(
	store repository.Store,
	userRepo repository.UserRepository,
	cache InteractionCache,
	broadcaster Broadcaster,
	dispatcher *Dispatcher,
	notifier Notifier,
	virality ViralityChecker,
	mentions MentionDetector,
	sanitizer *Sanitizer,
	cfg *config.Config,
) CommentService {
	return &commentService{
		store:       store,
		userRepo:    userRepo,
		cache:       cache,
		broadcaster: broadcaster,
		dispatcher:  dispatcher,
		notifier:    notifier,
		virality:    virality,
		mentions:    mentions,
		sanitizer:   sanitizer,
		replyLimit:  cfg.ReplyHydrationLimit,
	}
}

// CreateComment posts a comment or reply. The record, the content comment
// counter, and the parent's reply counter all move in one transaction, so the
// counter always equals the number of active comments.
func (s *commentService) CreateComment(userID, rawKind, contentID string, input CreateCommentInput) (*CommentView, error) {
	kind, err := NormalizeKind(rawKind)
	if err != nil {
		return nil, err
	}
	if !kind.SupportsComments() {
		return nil, ErrCommentsDisabled
	}

	body := s.sanitizer.Clean(input.Body)
	if body == "" {
		return nil, ErrEmptyBody
	}

	comment := &model.Interaction{
		UserID:      userID,
		ContentID:   contentID,
		ContentKind: string(kind),
		Type:        model.TypeComment,
		Body:        body,
		Reactions:   "{}",
		ReportedBy:  "[]",
	}

	var parent *model.Interaction
	err = s.store.WithTx(func(tx repository.Store) error {
		exists, err := tx.Content().TrackExists(contentID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrContentNotFound
		}

		if input.ParentID != nil && *input.ParentID != "" {
			parent, err = tx.Interactions().FindByID(*input.ParentID)
			if err != nil {
				if notFound(err) {
					return ErrCommentNotFound
				}
				return err
			}
			if !parent.IsActive() || parent.Type != model.TypeComment || parent.ContentID != contentID {
				return ErrCommentNotFound
			}
			// Replies attach to top-level comments only; replying to a reply
			// reparents onto the thread root.
			if parent.IsReply() {
				root, err := tx.Interactions().FindByID(*parent.ParentID)
				if err != nil || !root.IsActive() {
					return ErrCommentNotFound
				}
				parent = root
			}
			comment.ParentID = &parent.ID
		}

		if err := tx.Interactions().Create(comment); err != nil {
			return err
		}
		if err := tx.Content().IncrementTrackCounter(contentID, model.CounterComments, 1); err != nil {
			return err
		}
		if comment.ParentID != nil {
			return tx.Interactions().IncrementReplyCount(*comment.ParentID, 1)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.AdjustCounter(string(kind), contentID, model.CounterComments, 1)

	view := s.buildView(comment, userID)
	s.scheduleCommentEffects(kind, comment, parent)
	return view, nil
}

// UpdateComment edits the body of the caller's own comment
func (s *commentService) UpdateComment(userID, commentID, body string) (*CommentView, error) {
	comment, err := s.findActiveComment(commentID)
	if err != nil {
		return nil, err
	}
	if comment.UserID != userID {
		return nil, ErrForbidden
	}

	cleaned := s.sanitizer.Clean(body)
	if cleaned == "" {
		return nil, ErrEmptyBody
	}

	comment.Body = cleaned
	if err := s.store.Interactions().Save(comment); err != nil {
		return nil, err
	}

	view := s.buildView(comment, userID)
	s.broadcaster.Publish("comment_updated", RoomKey(ContentKind(comment.ContentKind), comment.ContentID), map[string]interface{}{
		"comment": view,
	})
	return view, nil
}

// DeleteComment soft-deletes a comment. Only the author may delete; moderators
// hide instead, which keeps the record and its counters intact. Counters move
// in the same transaction.
func (s *commentService) DeleteComment(userID, commentID string) error {
	comment, err := s.findActiveComment(commentID)
	if err != nil {
		return err
	}
	if comment.UserID != userID {
		return ErrForbidden
	}

	err = s.store.WithTx(func(tx repository.Store) error {
		if err := tx.Interactions().SoftDeleteByIDs([]string{comment.ID}); err != nil {
			return err
		}
		if err := tx.Content().IncrementTrackCounter(comment.ContentID, model.CounterComments, -1); err != nil {
			return err
		}
		if comment.IsReply() {
			return tx.Interactions().IncrementReplyCount(*comment.ParentID, -1)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.cache.AdjustCounter(comment.ContentKind, comment.ContentID, model.CounterComments, -1)

	s.broadcaster.Publish("comment_deleted", RoomKey(ContentKind(comment.ContentKind), comment.ContentID), map[string]interface{}{
		"comment_id": comment.ID,
		"parent_id":  comment.ParentID,
	})
	return nil
}

// HideComment hides a comment from listings without deleting it. Moderator
// only. Hidden comments stay counted.
func (s *commentService) HideComment(moderatorID, userRole, commentID, reason string) error {
	if userRole != model.RoleModerator && userRole != model.RoleAdmin {
		return ErrForbidden
	}

	comment, err := s.findActiveComment(commentID)
	if err != nil {
		return err
	}

	comment.Hidden = true
	comment.HiddenBy = &moderatorID
	comment.HiddenReason = reason
	if err := s.store.Interactions().Save(comment); err != nil {
		return err
	}

	s.broadcaster.Publish("comment_hidden", RoomKey(ContentKind(comment.ContentKind), comment.ContentID), map[string]interface{}{
		"comment_id": comment.ID,
	})
	return nil
}

// ReportComment flags a comment for moderation. One report per user; the
// author cannot report their own comment. The reporter set and both report
// counters (comment and track) move in one transaction, and the content owner
// is handed the moderation context.
func (s *commentService) ReportComment(userID, commentID string) error {
	var comment *model.Interaction
	err := s.store.WithTx(func(tx repository.Store) error {
		var err error
		comment, err = findActiveComment(tx, commentID)
		if err != nil {
			return err
		}
		if comment.UserID == userID {
			return ErrOwnComment
		}
		if comment.HasReported(userID) {
			return ErrAlreadyReported
		}

		reporters := append(comment.GetReportedBy(), userID)
		if err := comment.SetReportedBy(reporters); err != nil {
			return err
		}
		comment.ReportCount = len(reporters)
		if err := tx.Interactions().Save(comment); err != nil {
			return err
		}
		return tx.Content().IncrementTrackCounter(comment.ContentID, model.CounterReports, 1)
	})
	if err != nil {
		return err
	}

	s.dispatcher.Enqueue("report_notification", func() error {
		track, err := s.store.Content().FindTrackByID(comment.ContentID)
		if err != nil {
			return err
		}
		if track.Artist.UserID == "" || track.Artist.UserID == userID {
			return nil
		}
		return s.notifier.Notify(userID, track.Artist.UserID, model.NotificationTypeCommentReported, map[string]interface{}{
			"comment_id":        comment.ID,
			"comment_author_id": comment.UserID,
			"content_id":        comment.ContentID,
			"content_title":     track.Title,
			"report_count":      comment.ReportCount,
		})
	})
	return nil
}

// ReactToComment toggles the caller's reaction of the given kind on a comment.
// The read-modify-write of the reaction set runs inside a transaction so
// concurrent reactions on the same comment serialize instead of losing one.
func (s *commentService) ReactToComment(userID, commentID, reaction string) (*CommentView, error) {
	if !allowedReactions[reaction] {
		return nil, ErrInvalidReaction
	}

	var comment *model.Interaction
	err := s.store.WithTx(func(tx repository.Store) error {
		var err error
		comment, err = findActiveComment(tx, commentID)
		if err != nil {
			return err
		}

		reactions := comment.GetReactions()
		if comment.HasReacted(reaction, userID) {
			kept := make([]string, 0, len(reactions[reaction]))
			for _, uid := range reactions[reaction] {
				if uid != userID {
					kept = append(kept, uid)
				}
			}
			if len(kept) == 0 {
				delete(reactions, reaction)
			} else {
				reactions[reaction] = kept
			}
		} else {
			reactions[reaction] = append(reactions[reaction], userID)
		}

		if err := comment.SetReactions(reactions); err != nil {
			return err
		}
		return tx.Interactions().Save(comment)
	})
	if err != nil {
		return nil, err
	}

	view := s.buildView(comment, userID)
	s.broadcaster.Publish("comment_reacted", RoomKey(ContentKind(comment.ContentKind), comment.ContentID), map[string]interface{}{
		"comment": view,
	})
	return view, nil
}

// ListComments returns one page of top-level comments with their replies
// hydrated, newest-first within each thread. Replies never paginate on their
// own; the hydration limit bounds how many ride along per parent.
func (s *commentService) ListComments(viewerID, rawKind, contentID, sort string, page, limit int) (*CommentPage, error) {
	kind, err := NormalizeKind(rawKind)
	if err != nil {
		return nil, err
	}
	if !kind.SupportsComments() {
		return nil, ErrCommentsDisabled
	}

	switch sort {
	case "", repository.SortNewest, repository.SortOldest, repository.SortTop:
	default:
		return nil, ErrInvalidSort
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	exists, err := s.store.Content().TrackExists(contentID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrContentNotFound
	}

	offset := (page - 1) * limit
	comments, err := s.store.Interactions().FindTopLevelComments(contentID, limit, offset, sort)
	if err != nil {
		return nil, err
	}

	topLevel, err := s.store.Interactions().CountTopLevelComments(contentID)
	if err != nil {
		return nil, err
	}
	replies, err := s.store.Interactions().CountReplies(contentID)
	if err != nil {
		return nil, err
	}

	parentIDs := make([]string, 0, len(comments))
	for _, c := range comments {
		parentIDs = append(parentIDs, c.ID)
	}
	allReplies, err := s.store.Interactions().FindActiveReplies(parentIDs)
	if err != nil {
		return nil, err
	}

	byParent := make(map[string][]*CommentView)
	for _, reply := range allReplies {
		pid := *reply.ParentID
		if len(byParent[pid]) >= s.replyLimit {
			continue
		}
		byParent[pid] = append(byParent[pid], s.buildView(reply, viewerID))
	}

	views := make([]*CommentView, 0, len(comments))
	for _, c := range comments {
		view := s.buildView(c, viewerID)
		view.Replies = byParent[c.ID]
		views = append(views, view)
	}

	return &CommentPage{
		Comments:     views,
		TotalCount:   topLevel + replies,
		TopLevel:     topLevel,
		Page:         page,
		Limit:        limit,
		HasMore:      int64(offset+len(comments)) < topLevel,
		RepliesShown: s.replyLimit,
	}, nil
}

func (s *commentService) findActiveComment(commentID string) (*model.Interaction, error) {
	return findActiveComment(s.store, commentID)
}

// findActiveComment loads a live comment from the given store, which may be
// transaction-bound.
func findActiveComment(store repository.Store, commentID string) (*model.Interaction, error) {
	comment, err := store.Interactions().FindByID(commentID)
	if err != nil {
		if notFound(err) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}
	if !comment.IsActive() || comment.Type != model.TypeComment {
		return nil, ErrCommentNotFound
	}
	return comment, nil
}

func (s *commentService) buildView(comment *model.Interaction, viewerID string) *CommentView {
	reactions := comment.GetReactions()
	summary := make(map[string]int, len(reactions))
	var mine []string
	for kind, users := range reactions {
		summary[kind] = len(users)
		for _, uid := range users {
			if uid == viewerID {
				mine = append(mine, kind)
				break
			}
		}
	}

	author := CommentAuthor{ID: comment.UserID}
	if comment.User.ID != "" {
		author.Username = comment.User.Username
		author.FullName = comment.User.FullName
	} else if user, err := s.userRepo.FindByID(comment.UserID); err == nil {
		author.Username = user.Username
		author.FullName = user.FullName
	}

	return &CommentView{
		ID:            comment.ID,
		ContentID:     comment.ContentID,
		ParentID:      comment.ParentID,
		Body:          comment.Body,
		Author:        author,
		ReplyCount:    comment.ReplyCount,
		ReactionCount: comment.ReactionCount,
		Reactions:     summary,
		MyReactions:   mine,
		CreatedAt:     comment.CreatedAt,
	}
}

// scheduleCommentEffects queues the fan-out a new comment triggers: owner and
// parent-author notifications, mention scanning, virality, and the room
// broadcast with fresh thread counts.
func (s *commentService) scheduleCommentEffects(kind ContentKind, comment *model.Interaction, parent *model.Interaction) {
	s.dispatcher.Enqueue("comment_notification", func() error {
		track, err := s.store.Content().FindTrackByID(comment.ContentID)
		if err != nil {
			return err
		}
		if track.Artist.UserID != "" && track.Artist.UserID != comment.UserID {
			if err := s.notifier.Notify(comment.UserID, track.Artist.UserID, model.NotificationTypeNewComment, map[string]interface{}{
				"content_id": comment.ContentID,
				"comment_id": comment.ID,
			}); err != nil {
				return err
			}
		}
		if parent != nil && parent.UserID != comment.UserID && parent.UserID != track.Artist.UserID {
			return s.notifier.Notify(comment.UserID, parent.UserID, model.NotificationTypeCommentReply, map[string]interface{}{
				"content_id": comment.ContentID,
				"comment_id": comment.ID,
				"parent_id":  parent.ID,
			})
		}
		return nil
	})

	s.dispatcher.Enqueue("mention_scan", func() error {
		return s.mentions.NotifyMentions(comment.UserID, comment.Body, comment.ContentID, comment.ID)
	})

	s.dispatcher.Enqueue("virality_check", func() error {
		return s.virality.CheckMilestones(comment.ContentID, kind)
	})

	s.dispatcher.Enqueue("comment_broadcast", func() error {
		topLevel, err := s.store.Interactions().CountTopLevelComments(comment.ContentID)
		if err != nil {
			return err
		}
		replies, err := s.store.Interactions().CountReplies(comment.ContentID)
		if err != nil {
			return err
		}
		s.broadcaster.Publish("comment_created", RoomKey(kind, comment.ContentID), map[string]interface{}{
			"comment_id":      comment.ID,
			"parent_id":       comment.ParentID,
			"content_id":      comment.ContentID,
			"total_comments":  topLevel + replies,
			"top_level_count": topLevel,
		})
		return nil
	})
}

package chats

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/klatch-chat/klatch-server/internal/realtime"
	"github.com/klatch-chat/klatch-server/internal/storage/files"
	"github.com/klatch-chat/klatch-server/internal/store"
	"github.com/klatch-chat/klatch-server/internal/utils"
)

// Common errors for chat operations.
var (
	ErrChatNotFound       = errors.New("chat not found")
	ErrNotGroup           = errors.New("not a group chat")
	ErrNotAllowed         = errors.New("not allowed")
	ErrNotMember          = errors.New("not a chat member")
	ErrTooFewMembers      = errors.New("group must keep at least 3 members")
	ErrMemberLimit        = errors.New("group member limit reached")
	ErrNoAttachments      = errors.New("no attachments provided")
	ErrTooManyAttachments = errors.New("too many attachments")
)

const (
	// maxGroupMembers mirrors the original 100-member cap.
	maxGroupMembers = 100
	// minGroupMembers is the smallest viable group.
	minGroupMembers = 3
	// historyPageSize is the fixed message-history page length.
	historyPageSize = 20
	// maxAttachments caps files per message.
	maxAttachments = 5
)

// Emitter is the realtime fan-out collaborator. Chat mutations piggyback
// their notifications on it instead of resolving connections themselves.
type Emitter interface {
	Emit(recipients []string, ev realtime.Event)
}

// Upload is one incoming attachment.
type Upload struct {
	Name   string
	Reader io.Reader
}

// Service provides chat management business logic.
type Service struct {
	store   store.Store
	emitter Emitter
	files   *files.Store
}

// New creates a chat service.
func New(st store.Store, emitter Emitter, fileStore *files.Store) *Service {
	return &Service{
		store:   st,
		emitter: emitter,
		files:   fileStore,
	}
}

// CreateGroup creates a group chat owned by creatorID. The creator is always
// a member; member IDs are deduplicated.
func (s *Service) CreateGroup(ctx context.Context, creatorID, name string, memberIDs []string) (*store.Chat, error) {
	allMembers := lo.Uniq(append([]string{creatorID}, memberIDs...))
	if len(allMembers) < minGroupMembers {
		return nil, ErrTooFewMembers
	}
	if len(allMembers) > maxGroupMembers {
		return nil, ErrMemberLimit
	}

	chat, err := s.store.CreateChat(ctx, name, true, creatorID, allMembers)
	if err != nil {
		return nil, fmt.Errorf("create group: %w", err)
	}

	s.emitter.Emit(allMembers, realtime.Event{
		Kind: realtime.EventAlert,
		Text: fmt.Sprintf("Welcome to %s group", name),
	})
	s.emitter.Emit(lo.Without(allMembers, creatorID), realtime.Event{
		Kind:  realtime.EventRefetchChats,
		Users: allMembers,
	})

	return chat, nil
}

// CreateDirect creates the one-to-one chat between two users.
func (s *Service) CreateDirect(ctx context.Context, a *store.User, b *store.User) (*store.Chat, error) {
	name := a.Name + "-" + b.Name
	chat, err := s.store.CreateChat(ctx, name, false, a.ID, []string{a.ID, b.ID})
	if err != nil {
		return nil, fmt.Errorf("create direct chat: %w", err)
	}
	return chat, nil
}

// MyChats lists the user's chats, groups and directs alike.
func (s *Service) MyChats(ctx context.Context, userID string) ([]*store.Chat, error) {
	return s.store.ListChatsByMember(ctx, userID, false)
}

// MyGroups lists group chats the user created.
func (s *Service) MyGroups(ctx context.Context, userID string) ([]*store.Chat, error) {
	chats, err := s.store.ListChatsByMember(ctx, userID, true)
	if err != nil {
		return nil, err
	}
	return lo.Filter(chats, func(c *store.Chat, _ int) bool {
		return c.CreatorID == userID
	}), nil
}

// GetChat returns a chat the user belongs to.
func (s *Service) GetChat(ctx context.Context, userID, chatID string) (*store.Chat, error) {
	chat, err := s.store.GetChatByID(ctx, chatID)
	if err != nil {
		return nil, ErrChatNotFound
	}
	if !lo.Contains(chat.Members, userID) {
		return nil, ErrNotMember
	}
	return chat, nil
}

// AddMembers adds users to a group. Only the creator may add; duplicates are
// ignored; the 100-member cap is enforced.
func (s *Service) AddMembers(ctx context.Context, requesterID, chatID string, memberIDs []string) error {
	chat, err := s.store.GetChatByID(ctx, chatID)
	if err != nil {
		return ErrChatNotFound
	}
	if !chat.GroupChat {
		return ErrNotGroup
	}
	if chat.CreatorID != requesterID {
		return ErrNotAllowed
	}

	newMembers := lo.Filter(memberIDs, func(id string, _ int) bool {
		return !lo.Contains(chat.Members, id)
	})
	var names []string
	for _, id := range lo.Uniq(newMembers) {
		user, err := s.store.GetUserByID(ctx, id)
		if err != nil {
			return fmt.Errorf("look up new member: %w", err)
		}
		names = append(names, user.Name)
	}

	updated := lo.Uniq(append(chat.Members, newMembers...))
	if len(updated) > maxGroupMembers {
		return ErrMemberLimit
	}
	if err := s.store.SetChatMembers(ctx, chatID, updated); err != nil {
		return fmt.Errorf("add members: %w", err)
	}

	s.emitter.Emit(updated, realtime.Event{
		Kind: realtime.EventAlert,
		Text: fmt.Sprintf("%s has been added in the group", strings.Join(names, ", ")),
	})
	s.emitter.Emit(updated, realtime.Event{Kind: realtime.EventRefetchChats, Users: updated})

	return nil
}

// RemoveMember removes a user from a group. Only the creator may remove, and
// the group must keep at least three members.
func (s *Service) RemoveMember(ctx context.Context, requesterID, chatID, userID string) error {
	chat, err := s.store.GetChatByID(ctx, chatID)
	if err != nil {
		return ErrChatNotFound
	}
	if !chat.GroupChat {
		return ErrNotGroup
	}
	if chat.CreatorID != requesterID {
		return ErrNotAllowed
	}
	if len(chat.Members) <= minGroupMembers {
		return ErrTooFewMembers
	}

	removed, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("look up removed member: %w", err)
	}

	remaining := lo.Without(chat.Members, userID)
	if err := s.store.SetChatMembers(ctx, chatID, remaining); err != nil {
		return fmt.Errorf("remove member: %w", err)
	}

	s.emitter.Emit(remaining, realtime.Event{
		Kind:   realtime.EventAlert,
		ChatID: chatID,
		Text:   fmt.Sprintf("%s has been removed from the group", removed.Name),
	})
	// The removed user also needs to refetch, so use the pre-removal set.
	s.emitter.Emit(chat.Members, realtime.Event{Kind: realtime.EventRefetchChats, Users: chat.Members})

	return nil
}

// LeaveGroup removes the caller from a group. When the creator leaves,
// ownership moves to a random remaining member (original behavior).
func (s *Service) LeaveGroup(ctx context.Context, userID, chatID string) error {
	chat, err := s.store.GetChatByID(ctx, chatID)
	if err != nil {
		return ErrChatNotFound
	}
	if !chat.GroupChat {
		return ErrNotGroup
	}
	if !lo.Contains(chat.Members, userID) {
		return ErrNotMember
	}

	remaining := lo.Without(chat.Members, userID)
	if len(remaining) < minGroupMembers {
		return ErrTooFewMembers
	}

	if chat.CreatorID == userID {
		next := remaining[rand.Intn(len(remaining))]
		if err := s.store.SetChatCreator(ctx, chatID, next); err != nil {
			return fmt.Errorf("hand over group: %w", err)
		}
	}
	if err := s.store.SetChatMembers(ctx, chatID, remaining); err != nil {
		return fmt.Errorf("leave group: %w", err)
	}

	leaver, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("look up leaver: %w", err)
	}
	s.emitter.Emit(remaining, realtime.Event{
		Kind:   realtime.EventAlert,
		ChatID: chatID,
		Text:   fmt.Sprintf("User %s has left the group", leaver.Name),
	})

	return nil
}

// Rename changes a group's name. Creator only.
func (s *Service) Rename(ctx context.Context, requesterID, chatID, name string) error {
	chat, err := s.store.GetChatByID(ctx, chatID)
	if err != nil {
		return ErrChatNotFound
	}
	if !chat.GroupChat {
		return ErrNotGroup
	}
	if chat.CreatorID != requesterID {
		return ErrNotAllowed
	}
	if err := s.store.RenameChat(ctx, chatID, name); err != nil {
		return fmt.Errorf("rename chat: %w", err)
	}

	s.emitter.Emit(chat.Members, realtime.Event{Kind: realtime.EventRefetchChats, Users: chat.Members})
	return nil
}

// Delete removes a chat along with its messages and stored attachments.
// Groups may only be deleted by their creator; direct chats by any member.
func (s *Service) Delete(ctx context.Context, requesterID, chatID string) error {
	chat, err := s.store.GetChatByID(ctx, chatID)
	if err != nil {
		return ErrChatNotFound
	}
	if chat.GroupChat && chat.CreatorID != requesterID {
		return ErrNotAllowed
	}
	if !lo.Contains(chat.Members, requesterID) {
		return ErrNotAllowed
	}

	attachments, err := s.store.ListAttachments(ctx, chatID)
	if err != nil {
		return fmt.Errorf("list chat attachments: %w", err)
	}
	if err := s.store.DeleteChat(ctx, chatID); err != nil {
		return fmt.Errorf("delete chat: %w", err)
	}
	if s.files != nil {
		for _, att := range attachments {
			if err := s.files.Delete(att.PublicID); err != nil {
				return fmt.Errorf("delete attachment blob: %w", err)
			}
		}
	}

	s.emitter.Emit(chat.Members, realtime.Event{Kind: realtime.EventRefetchChats, Users: chat.Members})
	return nil
}

// SendAttachments stores 1-5 uploaded files, persists the carrying message
// and fans it out to the chat's other connected members.
func (s *Service) SendAttachments(ctx context.Context, sender *store.User, chatID string, uploads []Upload) (*store.Message, error) {
	if len(uploads) < 1 {
		return nil, ErrNoAttachments
	}
	if len(uploads) > maxAttachments {
		return nil, ErrTooManyAttachments
	}

	chat, err := s.store.GetChatByID(ctx, chatID)
	if err != nil {
		return nil, ErrChatNotFound
	}
	if !lo.Contains(chat.Members, sender.ID) {
		return nil, ErrNotMember
	}

	attachments := make([]store.Attachment, 0, len(uploads))
	for _, up := range uploads {
		obj, err := s.files.Save(up.Reader)
		if err != nil {
			return nil, fmt.Errorf("store attachment: %w", err)
		}
		attachments = append(attachments, store.Attachment{PublicID: obj.PublicID, URL: obj.URL})
	}

	msg := &store.Message{
		ID:          utils.NewID(),
		ChatID:      chatID,
		SenderID:    sender.ID,
		Content:     "",
		Attachments: attachments,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.SaveMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("save attachment message: %w", err)
	}

	payload := realtime.MessagePayload{
		ID:      msg.ID,
		ChatID:  chatID,
		Content: msg.Content,
		Sender:  realtime.Identity{ID: sender.ID, Name: sender.Name},
		Attachments: lo.Map(attachments, func(a store.Attachment, _ int) realtime.Attachment {
			return realtime.Attachment{PublicID: a.PublicID, URL: a.URL}
		}),
		CreatedAt: msg.CreatedAt,
	}
	recipients := lo.Without(chat.Members, sender.ID)
	s.emitter.Emit(recipients, realtime.Event{Kind: realtime.EventNewMessage, ChatID: chatID, Message: &payload})
	s.emitter.Emit(recipients, realtime.Event{Kind: realtime.EventNewMessageAlert, ChatID: chatID})

	return msg, nil
}

// Messages returns one page of chat history plus the page count. Membership
// is required.
func (s *Service) Messages(ctx context.Context, userID, chatID string, page int) ([]*store.Message, int, error) {
	chat, err := s.store.GetChatByID(ctx, chatID)
	if err != nil {
		return nil, 0, ErrChatNotFound
	}
	if !lo.Contains(chat.Members, userID) {
		return nil, 0, ErrNotMember
	}

	messages, total, err := s.store.ListMessages(ctx, chatID, page, historyPageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("list messages: %w", err)
	}
	totalPages := (total + historyPageSize - 1) / historyPageSize
	return messages, totalPages, nil
}

package friends

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/klatch-chat/klatch-server/internal/realtime"
	"github.com/klatch-chat/klatch-server/internal/store"
)

// Common errors for friend operations.
var (
	ErrCannotFriendSelf     = errors.New("cannot send friend request to yourself")
	ErrRequestAlreadyExists = errors.New("friend request already exists")
	ErrRequestNotFound      = errors.New("friend request not found")
	ErrNotReceiver          = errors.New("not the receiver of this request")
	ErrUserNotFound         = errors.New("user not found")
)

// Emitter is the realtime fan-out collaborator.
type Emitter interface {
	Emit(recipients []string, ev realtime.Event)
}

// Service provides friend request business logic.
type Service struct {
	store   store.Store
	emitter Emitter
}

// New creates a friends service.
func New(st store.Store, emitter Emitter) *Service {
	return &Service{
		store:   st,
		emitter: emitter,
	}
}

// SendRequest records a friend request and notifies the receiver in realtime.
func (s *Service) SendRequest(ctx context.Context, fromID, toID string) (*store.FriendRequest, error) {
	if fromID == toID {
		return nil, ErrCannotFriendSelf
	}
	if _, err := s.store.GetUserByID(ctx, toID); err != nil {
		return nil, ErrUserNotFound
	}

	if existing, err := s.store.GetRequestBetween(ctx, fromID, toID); err == nil && existing != nil {
		return nil, ErrRequestAlreadyExists
	}

	request, err := s.store.CreateRequest(ctx, fromID, toID)
	if err != nil {
		return nil, fmt.Errorf("create friend request: %w", err)
	}

	s.emitter.Emit([]string{toID}, realtime.Event{Kind: realtime.EventNewRequest})

	return request, nil
}

// AcceptRequest resolves a pending request. Accepting creates the direct
// chat between the two users and tells both to refetch their chat lists;
// rejecting just deletes the request. Returns the original sender's ID.
func (s *Service) AcceptRequest(ctx context.Context, userID, requestID string, accept bool) (string, error) {
	request, err := s.store.GetRequestByID(ctx, requestID)
	if err != nil {
		return "", ErrRequestNotFound
	}
	if request.ReceiverID != userID {
		return "", ErrNotReceiver
	}

	if !accept {
		if err := s.store.DeleteRequest(ctx, requestID); err != nil {
			return "", fmt.Errorf("delete friend request: %w", err)
		}
		return request.SenderID, nil
	}

	sender, err := s.store.GetUserByID(ctx, request.SenderID)
	if err != nil {
		return "", fmt.Errorf("look up sender: %w", err)
	}
	receiver, err := s.store.GetUserByID(ctx, request.ReceiverID)
	if err != nil {
		return "", fmt.Errorf("look up receiver: %w", err)
	}

	members := []string{sender.ID, receiver.ID}
	if _, err := s.store.CreateChat(ctx, sender.Name+"-"+receiver.Name, false, sender.ID, members); err != nil {
		return "", fmt.Errorf("create direct chat: %w", err)
	}
	if err := s.store.DeleteRequest(ctx, requestID); err != nil {
		return "", fmt.Errorf("delete friend request: %w", err)
	}

	s.emitter.Emit(members, realtime.Event{Kind: realtime.EventRefetchChats, Users: members})

	return request.SenderID, nil
}

// Notifications lists pending requests addressed to the user.
func (s *Service) Notifications(ctx context.Context, userID string) ([]*store.FriendRequest, error) {
	return s.store.ListRequestsForReceiver(ctx, userID)
}

// Friends lists the other member of each of the user's direct chats. When
// excludeChatID is set, users already in that chat are filtered out (used to
// pick candidates when adding group members).
func (s *Service) Friends(ctx context.Context, userID, excludeChatID string) ([]*store.User, error) {
	directs, err := s.store.ListChatsByMember(ctx, userID, false)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}

	var excluded []string
	if excludeChatID != "" {
		chat, err := s.store.GetChatByID(ctx, excludeChatID)
		if err != nil {
			return nil, fmt.Errorf("load exclusion chat: %w", err)
		}
		excluded = chat.Members
	}

	friendIDs := make([]string, 0, len(directs))
	for _, chat := range directs {
		if chat.GroupChat {
			continue
		}
		for _, member := range chat.Members {
			if member != userID && !lo.Contains(excluded, member) {
				friendIDs = append(friendIDs, member)
			}
		}
	}

	users := make([]*store.User, 0, len(friendIDs))
	for _, id := range lo.Uniq(friendIDs) {
		user, err := s.store.GetUserByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("look up friend: %w", err)
		}
		users = append(users, user)
	}
	return users, nil
}

package notifications

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/repairdesk-backend/pkg/db/models"
	"github.com/angelmondragon/repairdesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/repairdesk-backend/pkg/errors"
	"github.com/angelmondragon/repairdesk-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// KindDirect labels manually sent notifications in metrics and logs.
const KindDirect Kind = "direct"

// Service defines notification list/send/read operations.
type Service interface {
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Send(ctx context.Context, senderID uuid.UUID, input SendInput) (*NotificationDTO, error)
	MarkRead(ctx context.Context, receiverID uuid.UUID, ids []uuid.UUID) (int64, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type dispatcher interface {
	Dispatch(ctx context.Context, batch *Batch)
}

type service struct {
	repo       Repository
	tx         txRunner
	dispatcher dispatcher
	now        func() time.Time
}

// ListParams configures pagination for notifications.
type ListParams struct {
	ReceiverID uuid.UUID
	Limit      int
	Cursor     string
	UnreadOnly bool
}

// ListResult wraps returned notifications and the cursor for the next page.
type ListResult struct {
	Items  []NotificationDTO `json:"items"`
	Cursor string            `json:"cursor"`
}

// NewService wires notifications dependencies.
func NewService(repo Repository, tx txRunner, dispatcher dispatcher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("notification dispatcher required")
	}
	return &service{
		repo:       repo,
		tx:         tx,
		dispatcher: dispatcher,
		now:        func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.ReceiverID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	query := listNotificationsParams{
		ReceiverID: params.ReceiverID,
		Limit:      params.Limit,
		UnreadOnly: params.UnreadOnly,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}

	items := make([]NotificationDTO, 0, len(rows))
	for i := range rows {
		items = append(items, FromModel(&rows[i]))
	}
	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: items, Cursor: cursor}, nil
}

// Send stores a manual notification and emails the receiver after the insert.
func (s *service) Send(ctx context.Context, senderID uuid.UUID, input SendInput) (*NotificationDTO, error) {
	title := strings.TrimSpace(input.Title)
	message := strings.TrimSpace(input.Message)
	if title == "" || message == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title and message are required")
	}
	action := enums.NotificationActionNone
	if input.ForAction != nil {
		if !input.ForAction.IsValid() {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid for_action %q", *input.ForAction)
		}
		action = *input.ForAction
	}

	exists, err := s.repo.UserExists(ctx, input.ReceiverID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load receiver")
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "receiver not found")
	}

	sender := senderID
	receiver := input.ReceiverID
	row := models.Notification{
		SenderID:        &sender,
		ReceiverID:      &receiver,
		RepairRequestID: input.RepairRequestID,
		Title:           title,
		Message:         message,
		ForAction:       action,
	}
	batch := &Batch{Kind: KindDirect, Items: []models.Notification{row}}
	if err := s.repo.CreateBatch(ctx, batch.Items); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create notification")
	}

	s.dispatcher.Dispatch(ctx, batch)
	out := FromModel(&batch.Items[0])
	return &out, nil
}

// MarkRead flags ids as seen for receiverID. Every id must belong to the
// receiver or nothing is updated. Already seen rows are left as they are.
func (s *service) MarkRead(ctx context.Context, receiverID uuid.UUID, ids []uuid.UUID) (int64, error) {
	if receiverID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	unique := dedupeIDs(ids)
	if len(unique) == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "at least one notification id required")
	}

	var updated int64
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		owned, err := repo.CountOwned(ctx, receiverID, unique)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check notifications")
		}
		if owned != int64(len(unique)) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
		}
		updated, err = repo.MarkSeen(ctx, receiverID, unique, s.now())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

package notifications

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/repairdesk-backend/pkg/db/models"
	"github.com/angelmondragon/repairdesk-backend/pkg/email"
	"github.com/angelmondragon/repairdesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/repairdesk-backend/pkg/errors"
	"github.com/angelmondragon/repairdesk-backend/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

const defaultEmailTimeout = 5 * time.Second

// Batch is the set of notifications persisted for one event, handed to
// Dispatch once the surrounding transaction has committed.
type Batch struct {
	Kind  Kind
	Items []models.Notification
}

// Len is nil-safe.
func (b *Batch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Items)
}

type emailFailureCounter interface {
	IncEmailFailure(event string)
}

type noopCounter struct{}

func (noopCounter) IncEmailFailure(string) {}

// Publisher turns lifecycle events into persisted notifications and
// best-effort emails.
type Publisher struct {
	repo      Repository
	mailer    email.Sender
	metrics   emailFailureCounter
	logg      *logger.Logger
	clientURL string
	timeout   time.Duration
}

// PublisherParams bundles Publisher dependencies.
type PublisherParams struct {
	Repo         Repository
	Mailer       email.Sender
	Metrics      emailFailureCounter
	Logger       *logger.Logger
	ClientURL    string
	EmailTimeout time.Duration
}

func NewPublisher(params PublisherParams) (*Publisher, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if params.Mailer == nil {
		return nil, fmt.Errorf("mailer required")
	}
	timeout := params.EmailTimeout
	if timeout <= 0 {
		timeout = defaultEmailTimeout
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	var counter emailFailureCounter = noopCounter{}
	if params.Metrics != nil {
		counter = params.Metrics
	}
	return &Publisher{
		repo:      params.Repo,
		mailer:    params.Mailer,
		metrics:   counter,
		logg:      logg,
		clientURL: strings.TrimRight(params.ClientURL, "/"),
		timeout:   timeout,
	}, nil
}

// Emit writes one notification per recipient of e inside tx.
func (p *Publisher) Emit(ctx context.Context, tx *gorm.DB, e Event) (*Batch, error) {
	rule, ok := rules[e.Kind]
	if !ok {
		return nil, pkgerrors.Newf(pkgerrors.CodeInternal, "unknown notification event %q", e.Kind)
	}
	repo := p.repo.WithTx(tx)

	var managers []uuid.UUID
	if needsManagers(e.Kind) {
		ids, err := repo.UserIDsByRole(ctx, enums.RoleManager)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list managers")
		}
		managers = ids
	}

	recipients := Recipients(e, managers)
	batch := &Batch{Kind: e.Kind, Items: make([]models.Notification, 0, len(recipients))}
	if len(recipients) == 0 {
		return batch, nil
	}

	message := rule.message(e)
	requestID := e.RequestID
	for _, r := range recipients {
		receiver := r.UserID
		batch.Items = append(batch.Items, models.Notification{
			SenderID:        e.ActorID,
			ReceiverID:      &receiver,
			RepairRequestID: &requestID,
			Title:           rule.title,
			Message:         message,
			ForAction:       r.Action,
		})
	}
	if err := repo.CreateBatch(ctx, batch.Items); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist notifications")
	}
	return batch, nil
}

// Dispatch emails every notification in batch. It never fails: each send is
// bounded by the configured timeout and failures are logged and counted.
// The caller's cancellation is ignored so a dropped client does not abort
// delivery.
func (p *Publisher) Dispatch(ctx context.Context, batch *Batch) {
	if batch.Len() == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)

	ids := make([]uuid.UUID, 0, len(batch.Items))
	for _, n := range batch.Items {
		if n.ReceiverID != nil {
			ids = append(ids, *n.ReceiverID)
		}
	}
	contacts, err := p.repo.Contacts(ctx, ids)
	if err != nil {
		for range batch.Items {
			p.metrics.IncEmailFailure(string(batch.Kind))
		}
		p.logg.Error(p.logg.WithField(ctx, "event", string(batch.Kind)), "notification.contacts_failed", err)
		return
	}

	var errs error
	for _, n := range batch.Items {
		if err := p.deliver(ctx, n, contacts); err != nil {
			errs = multierr.Append(errs, err)
			p.metrics.IncEmailFailure(string(batch.Kind))
			fields := map[string]any{"event": string(batch.Kind), "notification_id": n.ID.String(), "error": err.Error()}
			p.logg.Warn(p.logg.WithFields(ctx, fields), "notification.email_failed")
		}
	}
	if errs != nil {
		fields := map[string]any{"event": string(batch.Kind), "failed": len(multierr.Errors(errs)), "total": len(batch.Items)}
		p.logg.Info(p.logg.WithFields(ctx, fields), "notification.dispatch_incomplete")
	}
}

func (p *Publisher) deliver(ctx context.Context, n models.Notification, contacts map[uuid.UUID]string) error {
	if n.ReceiverID == nil {
		return fmt.Errorf("notification %s has no receiver", n.ID)
	}
	to, ok := contacts[*n.ReceiverID]
	if !ok || to == "" {
		return fmt.Errorf("no email for user %s", *n.ReceiverID)
	}

	link := ""
	if n.RepairRequestID != nil && p.clientURL != "" {
		link = fmt.Sprintf("%s/repair-requests/%s", p.clientURL, n.RepairRequestID)
	}

	sendCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.mailer.Send(sendCtx, email.Notification(to, n.Title, n.Message, link))
}

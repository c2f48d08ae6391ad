package repairrequests

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/repairdesk-backend/internal/components"
	"github.com/angelmondragon/repairdesk-backend/internal/notifications"
	"github.com/angelmondragon/repairdesk-backend/internal/users"
	"github.com/angelmondragon/repairdesk-backend/pkg/db/models"
	"github.com/angelmondragon/repairdesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/repairdesk-backend/pkg/errors"
	"github.com/angelmondragon/repairdesk-backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service drives the repair request lifecycle.
type Service interface {
	Create(ctx context.Context, actor Actor, input CreateInput) (*RepairRequestDTO, error)
	CreateForEmail(ctx context.Context, actor Actor, input CreateForEmailInput) (*RepairRequestDTO, error)
	List(ctx context.Context, actor Actor, status *enums.RepairRequestStatus) ([]RepairRequestDTO, error)
	ListMine(ctx context.Context, actor Actor) ([]RepairRequestDTO, error)
	ListAssigned(ctx context.Context, actor Actor) ([]RepairRequestDTO, error)
	Get(ctx context.Context, actor Actor, id uuid.UUID) (*RepairRequestDTO, error)
	Update(ctx context.Context, actor Actor, id uuid.UUID, patch Patch) (*RepairRequestDTO, error)
	Personalize(ctx context.Context, actor Actor, id uuid.UUID, input PersonalizeInput) (*RepairRequestDTO, error)
	Approve(ctx context.Context, actor Actor, id uuid.UUID) (*RepairRequestDTO, error)
	Reject(ctx context.Context, actor Actor, id uuid.UUID) (*RepairRequestDTO, error)
	MarkInProgress(ctx context.Context, actor Actor, id uuid.UUID) (*RepairRequestDTO, error)
	MarkChecked(ctx context.Context, actor Actor, id uuid.UUID) (*RepairRequestDTO, error)
	MarkCompleted(ctx context.Context, actor Actor, id uuid.UUID) (*RepairRequestDTO, error)
	Delete(ctx context.Context, actor Actor, id uuid.UUID) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type stockReserver interface {
	Replace(ctx context.Context, tx *gorm.DB, requestID uuid.UUID, items []components.Item) ([]models.RepairRequestComponent, error)
}

type eventPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, e notifications.Event) (*notifications.Batch, error)
	Dispatch(ctx context.Context, batch *notifications.Batch)
}

type transitionCounter interface {
	IncTransition(operation, from, to string)
}

type service struct {
	repo      Repository
	tx        txRunner
	reserver  stockReserver
	publisher eventPublisher
	metrics   transitionCounter
	logg      *logger.Logger
	now       func() time.Time
}

// ServiceParams bundles lifecycle dependencies.
type ServiceParams struct {
	Repo      Repository
	Tx        txRunner
	Reserver  stockReserver
	Publisher eventPublisher
	Metrics   transitionCounter
	Logger    *logger.Logger
	Clock     func() time.Time
}

type noopCounter struct{}

func (noopCounter) IncTransition(string, string, string) {}

// NewService builds the lifecycle service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("repair requests repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Reserver == nil {
		return nil, fmt.Errorf("stock reserver required")
	}
	if params.Publisher == nil {
		return nil, fmt.Errorf("notification publisher required")
	}
	var counter transitionCounter = noopCounter{}
	if params.Metrics != nil {
		counter = params.Metrics
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	clock := params.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		repo:      params.Repo,
		tx:        params.Tx,
		reserver:  params.Reserver,
		publisher: params.Publisher,
		metrics:   counter,
		logg:      logg,
		now:       clock,
	}, nil
}

func (s *service) Create(ctx context.Context, actor Actor, input CreateInput) (*RepairRequestDTO, error) {
	if err := authorize(actor, OpCreate); err != nil {
		return nil, err
	}
	request, err := newRequest(input)
	if err != nil {
		return nil, err
	}
	request.OwnerID = actor.ID

	var batch *notifications.Batch
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, request); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create repair request")
		}
		batch, err = s.publisher.Emit(ctx, tx, eventFor(notifications.KindCreated, actor, request))
		return err
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, "create", "", request, batch)
	return FromModel(request), nil
}

// CreateForEmail files a request owned by the account with the given email,
// creating a passwordless account when the address is unknown.
func (s *service) CreateForEmail(ctx context.Context, actor Actor, input CreateForEmailInput) (*RepairRequestDTO, error) {
	if err := authorize(actor, OpCreateForEmail); err != nil {
		return nil, err
	}
	address := users.NormalizeEmail(input.Email)
	if address == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	request, err := newRequest(input.CreateInput)
	if err != nil {
		return nil, err
	}

	var batch *notifications.Batch
	var shadowCreated bool
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		owner, created, err := repo.FindOrCreateShadowUser(ctx, address)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve owner")
		}
		shadowCreated = created
		request.OwnerID = owner.ID
		if err := repo.Create(ctx, request); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create repair request")
		}
		batch, err = s.publisher.Emit(ctx, tx, eventFor(notifications.KindCreatedForEmail, actor, request))
		return err
	})
	if err != nil {
		return nil, err
	}

	if shadowCreated {
		s.logg.Info(s.logg.WithUserID(ctx, request.OwnerID.String()), "user.shadow_created")
	}
	s.afterCommit(ctx, "create_for_email", "", request, batch)
	return FromModel(request), nil
}

func (s *service) List(ctx context.Context, actor Actor, status *enums.RepairRequestStatus) ([]RepairRequestDTO, error) {
	if err := authorize(actor, OpList); err != nil {
		return nil, err
	}
	if status != nil && !status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid status %q", *status)
	}
	return s.list(ctx, listFilter{Status: status})
}

func (s *service) ListMine(ctx context.Context, actor Actor) ([]RepairRequestDTO, error) {
	if err := authorize(actor, OpListMine); err != nil {
		return nil, err
	}
	return s.list(ctx, listFilter{OwnerID: &actor.ID})
}

func (s *service) ListAssigned(ctx context.Context, actor Actor) ([]RepairRequestDTO, error) {
	if err := authorize(actor, OpListAssigned); err != nil {
		return nil, err
	}
	return s.list(ctx, listFilter{MasterID: &actor.ID})
}

func (s *service) list(ctx context.Context, filter listFilter) ([]RepairRequestDTO, error) {
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list repair requests")
	}
	return FromModels(rows), nil
}

func (s *service) Get(ctx context.Context, actor Actor, id uuid.UUID) (*RepairRequestDTO, error) {
	if err := authorize(actor, OpGet); err != nil {
		return nil, err
	}
	request, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "load repair request")
	}
	return FromModel(request), nil
}

// Update applies a manager's patch. Status only moves through transitions.
func (s *service) Update(ctx context.Context, actor Actor, id uuid.UUID, patch Patch) (*RepairRequestDTO, error) {
	if err := authorize(actor, OpUpdate); err != nil {
		return nil, err
	}
	if patch.empty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}
	if patch.Price != nil && patch.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}
	if patch.EndTime != nil && !patch.EndTime.After(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end_time must be in the future")
	}

	var updated *models.RepairRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.LockByID(ctx, id); err != nil {
			return notFoundOr(err, "load repair request")
		}
		if patch.MasterID != nil {
			master, err := repo.FindUser(ctx, *patch.MasterID)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load master")
			}
			if master == nil || master.Role != enums.RoleMaster {
				return pkgerrors.New(pkgerrors.CodeValidation, "master_id must reference a master")
			}
		}
		if err := repo.Update(ctx, id, patch.updates()); err != nil {
			return notFoundOr(err, "update repair request")
		}
		var err error
		updated, err = repo.FindByID(ctx, id)
		return notFoundOr(err, "reload repair request")
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithRepairRequestID(ctx, id.String()), "repair_request.updated")
	return FromModel(updated), nil
}

// Personalize records a master's price, deadline and parts, reserving stock
// for the parts. A repeat personalization refunds the previous reservation.
func (s *service) Personalize(ctx context.Context, actor Actor, id uuid.UUID, input PersonalizeInput) (*RepairRequestDTO, error) {
	if err := authorize(actor, OpPersonalize); err != nil {
		return nil, err
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}
	if input.EndTime.IsZero() || !input.EndTime.After(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end_time must be in the future")
	}
	if _, err := components.MergeItems(input.Components); err != nil {
		return nil, err
	}

	return s.transition(ctx, actor, id, OpPersonalize, func(tx *gorm.DB, request *models.RepairRequest) (map[string]any, error) {
		if _, err := s.reserver.Replace(ctx, tx, request.ID, input.Components); err != nil {
			return nil, err
		}
		return map[string]any{
			"master_id": actor.ID,
			"price":     input.Price,
			"end_time":  input.EndTime.UTC(),
		}, nil
	})
}

func (s *service) Approve(ctx context.Context, actor Actor, id uuid.UUID) (*RepairRequestDTO, error) {
	return s.transition(ctx, actor, id, OpApprove, nil)
}

func (s *service) Reject(ctx context.Context, actor Actor, id uuid.UUID) (*RepairRequestDTO, error) {
	return s.transition(ctx, actor, id, OpReject, nil)
}

func (s *service) MarkInProgress(ctx context.Context, actor Actor, id uuid.UUID) (*RepairRequestDTO, error) {
	return s.transition(ctx, actor, id, OpMarkInProgress, nil)
}

func (s *service) MarkChecked(ctx context.Context, actor Actor, id uuid.UUID) (*RepairRequestDTO, error) {
	return s.transition(ctx, actor, id, OpMarkChecked, nil)
}

func (s *service) MarkCompleted(ctx context.Context, actor Actor, id uuid.UUID) (*RepairRequestDTO, error) {
	return s.transition(ctx, actor, id, OpMarkCompleted, nil)
}

func (s *service) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	if !Allowed(actor.Role, OpDelete) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "operation not permitted for role")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFoundOr(err, "delete repair request")
	}
	s.logg.Info(s.logg.WithRepairRequestID(ctx, id.String()), "repair_request.deleted")
	return nil
}

// mutateFunc returns extra columns to persist alongside the new status.
type mutateFunc func(tx *gorm.DB, request *models.RepairRequest) (map[string]any, error)

// transition runs op against the request: permission, lock, ownership,
// edge lookup, mutation and notification rows in one transaction, then
// emails after commit.
func (s *service) transition(ctx context.Context, actor Actor, id uuid.UUID, op Operation, mutate mutateFunc) (*RepairRequestDTO, error) {
	if err := authorize(actor, op); err != nil {
		return nil, err
	}

	var (
		from    enums.RepairRequestStatus
		updated *models.RepairRequest
		batch   *notifications.Batch
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		request, err := repo.LockByID(ctx, id)
		if err != nil {
			return notFoundOr(err, "load repair request")
		}
		if err := checkOwnership(actor, op, request); err != nil {
			return err
		}
		from = request.Status

		tr, ok := transitionFor(op, actor.Role, request.Status)
		if !ok {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "cannot %s a request in status %s", op, request.Status)
		}
		if tr.Guard == guardMasterAssigned && request.MasterID == nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "request has not been priced by a master")
		}

		updates := map[string]any{}
		if mutate != nil {
			extra, err := mutate(tx, request)
			if err != nil {
				return err
			}
			updates = extra
		}
		updates["status"] = tr.To
		if err := repo.Update(ctx, id, updates); err != nil {
			return notFoundOr(err, "update repair request")
		}

		updated, err = repo.FindByID(ctx, id)
		if err != nil {
			return notFoundOr(err, "reload repair request")
		}
		batch, err = s.publisher.Emit(ctx, tx, eventFor(tr.Event, actor, updated))
		return err
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, string(op), from, updated, batch)
	return FromModel(updated), nil
}

func (s *service) afterCommit(ctx context.Context, op string, from enums.RepairRequestStatus, request *models.RepairRequest, batch *notifications.Batch) {
	fromLabel := string(from)
	if fromLabel == "" {
		fromLabel = "none"
	}
	s.metrics.IncTransition(op, fromLabel, string(request.Status))
	logCtx := s.logg.WithRepairRequestID(ctx, request.ID.String())
	logCtx = s.logg.WithFields(logCtx, map[string]any{
		"operation":     op,
		"from":          fromLabel,
		"to":            string(request.Status),
		"notifications": batch.Len(),
	})
	s.logg.Info(logCtx, "repair_request.transition")
	s.publisher.Dispatch(ctx, batch)
}

func authorize(actor Actor, op Operation) error {
	if !Allowed(actor.Role, op) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "operation not permitted for role")
	}
	if actor.Role != rolePublic && actor.Anonymous() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	return nil
}

// checkOwnership enforces that users act on their own requests and masters
// reprice or complete only the requests assigned to them.
func checkOwnership(actor Actor, op Operation, request *models.RepairRequest) error {
	switch {
	case actor.Role == enums.RoleUser && (op == OpApprove || op == OpMarkInProgress):
		if request.OwnerID != actor.ID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the owner may perform this action")
		}
	case op == OpPersonalize:
		if request.MasterID != nil && *request.MasterID != actor.ID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "request is already assigned to another master")
		}
	case op == OpMarkCompleted:
		if request.MasterID == nil || *request.MasterID != actor.ID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the assigned master may complete this request")
		}
	}
	return nil
}

func newRequest(input CreateInput) (*models.RepairRequest, error) {
	issue, err := enums.ParseIssueType(strings.TrimSpace(input.IssueType))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid issue_type")
	}
	request := &models.RepairRequest{
		DeviceModel: strings.TrimSpace(input.DeviceModel),
		IssueType:   issue,
		ProblemArea: strings.TrimSpace(input.ProblemArea),
		Description: strings.TrimSpace(input.Description),
		Location:    strings.TrimSpace(input.Location),
		Status:      enums.RepairRequestStatusCreated,
	}
	if request.DeviceModel == "" || request.ProblemArea == "" || request.Description == "" || request.Location == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "device_model, problem_area, description and location are required")
	}
	return request, nil
}

func eventFor(kind notifications.Kind, actor Actor, request *models.RepairRequest) notifications.Event {
	e := notifications.Event{
		Kind:        kind,
		RequestID:   request.ID,
		OwnerID:     request.OwnerID,
		MasterID:    request.MasterID,
		DeviceModel: request.DeviceModel,
		Price:       request.Price,
		EndTime:     request.EndTime,
	}
	if !actor.Anonymous() {
		id := actor.ID
		e.ActorID = &id
	}
	return e
}

func notFoundOr(err error, action string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "repair request not found")
	}
	return pkgerrors.Ensure(pkgerrors.CodeDependency, err, action)
}

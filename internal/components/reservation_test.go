package components

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/repairdesk-backend/pkg/db/dbtest"
	"github.com/angelmondragon/repairdesk-backend/pkg/db/models"
	"github.com/angelmondragon/repairdesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/repairdesk-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingObserver struct {
	calls []error
}

func (r *recordingObserver) ObserveReservation(duration time.Duration, err error) {
	r.calls = append(r.calls, err)
}

func seedRequest(t *testing.T, conn *gorm.DB) uuid.UUID {
	t.Helper()
	owner := &models.User{Email: uuid.NewString() + "@example.com"}
	require.NoError(t, conn.Create(owner).Error)
	req := &models.RepairRequest{
		OwnerID:     owner.ID,
		DeviceModel: "Laptop X",
		IssueType:   enums.IssueTypeHardware,
		ProblemArea: "keyboard",
		Description: "keys stuck",
		Location:    "Tashkent",
	}
	require.NoError(t, conn.Create(req).Error)
	return req.ID
}

func seedComponent(t *testing.T, conn *gorm.DB, name string, stock int) *models.Component {
	t.Helper()
	c := &models.Component{Name: name, InStock: stock}
	require.NoError(t, conn.Create(c).Error)
	return c
}

func stockOf(t *testing.T, conn *gorm.DB, id uuid.UUID) int {
	t.Helper()
	var c models.Component
	require.NoError(t, conn.First(&c, "id = ?", id).Error)
	return c.InStock
}

func TestReserver_ReplaceReservesStock(t *testing.T) {
	conn := dbtest.Open(t)
	requestID := seedRequest(t, conn)
	keyboard := seedComponent(t, conn, "keyboard", 5)
	observer := &recordingObserver{}
	reserver := NewReserver(observer)

	var attached []models.RepairRequestComponent
	err := conn.Transaction(func(tx *gorm.DB) error {
		var err error
		attached, err = reserver.Replace(context.Background(), tx, requestID, []Item{{ComponentID: keyboard.ID, Quantity: 2}})
		return err
	})
	require.NoError(t, err)
	require.Len(t, attached, 1)
	assert.Equal(t, 2, attached[0].Quantity)
	assert.Equal(t, 3, stockOf(t, conn, keyboard.ID))
	require.Len(t, observer.calls, 1)
	assert.NoError(t, observer.calls[0])
}

func TestReserver_InsufficientStockRollsBackEverything(t *testing.T) {
	conn := dbtest.Open(t)
	requestID := seedRequest(t, conn)
	screen := seedComponent(t, conn, "screen", 4)
	battery := seedComponent(t, conn, "battery", 1)
	reserver := NewReserver(nil)

	err := conn.Transaction(func(tx *gorm.DB) error {
		_, err := reserver.Replace(context.Background(), tx, requestID, []Item{
			{ComponentID: screen.ID, Quantity: 2},
			{ComponentID: battery.ID, Quantity: 3},
		})
		return err
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details, ok := typed.Details().(InsufficientStock)
	require.True(t, ok)
	assert.Equal(t, "battery", details.Component)
	assert.Equal(t, 1, details.Available)
	assert.Equal(t, 3, details.Requested)

	assert.Equal(t, 4, stockOf(t, conn, screen.ID))
	assert.Equal(t, 1, stockOf(t, conn, battery.ID))
	var count int64
	require.NoError(t, conn.Model(&models.RepairRequestComponent{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestReserver_ReplaceRefundsPreviousAttachments(t *testing.T) {
	conn := dbtest.Open(t)
	requestID := seedRequest(t, conn)
	screen := seedComponent(t, conn, "screen", 5)
	cable := seedComponent(t, conn, "cable", 5)
	reserver := NewReserver(nil)
	ctx := context.Background()

	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		_, err := reserver.Replace(ctx, tx, requestID, []Item{{ComponentID: screen.ID, Quantity: 4}})
		return err
	}))
	assert.Equal(t, 1, stockOf(t, conn, screen.ID))

	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		_, err := reserver.Replace(ctx, tx, requestID, []Item{
			{ComponentID: screen.ID, Quantity: 2},
			{ComponentID: cable.ID, Quantity: 1},
		})
		return err
	}))
	assert.Equal(t, 3, stockOf(t, conn, screen.ID))
	assert.Equal(t, 4, stockOf(t, conn, cable.ID))

	rows, err := NewRepository(conn).ListAttachments(ctx, requestID)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestReserver_UnknownComponent(t *testing.T) {
	conn := dbtest.Open(t)
	requestID := seedRequest(t, conn)

	err := conn.Transaction(func(tx *gorm.DB) error {
		_, err := NewReserver(nil).Replace(context.Background(), tx, requestID, []Item{{ComponentID: uuid.New(), Quantity: 1}})
		return err
	})
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestMergeItems(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	merged, err := MergeItems([]Item{{ComponentID: a, Quantity: 1}, {ComponentID: b, Quantity: 2}, {ComponentID: a, Quantity: 3}})
	require.NoError(t, err)
	assert.Equal(t, []Item{{ComponentID: a, Quantity: 4}, {ComponentID: b, Quantity: 2}}, merged)

	_, err = MergeItems([]Item{{ComponentID: a, Quantity: 0}})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	_, err = MergeItems([]Item{{Quantity: 1}})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

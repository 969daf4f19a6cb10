package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"water-delivery-backend/internal/dto"
	"water-delivery-backend/internal/model"
	"water-delivery-backend/internal/normalize"
	"water-delivery-backend/internal/repository"
)

var (
	adminPrincipal = model.Principal{UserID: "admin-1", Role: model.RoleAdmin}
	userPrincipal  = model.Principal{UserID: "user-1", Role: model.RoleUser}
)

type fakeOrderRepo struct {
	orders      map[string]*model.Order
	collections map[string]string

	listResult      []model.Order
	lastQuery       repository.ListQuery
	lastCollections []string

	inserted           *model.Order
	insertedCollection string
	lastSet            bson.M
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		orders:      map[string]*model.Order{},
		collections: map[string]string{},
	}
}

func (f *fakeOrderRepo) put(o *model.Order, collection string) {
	f.orders[o.OrderID] = o
	f.collections[o.OrderID] = collection
}

func (f *fakeOrderRepo) FindByID(_ context.Context, orderID string) (*model.Order, string, error) {
	o, ok := f.orders[orderID]
	if !ok {
		return nil, "", repository.ErrNotFound
	}
	cp := *o
	col := f.collections[orderID]
	cp.SourceCollection = col
	return &cp, col, nil
}

func (f *fakeOrderRepo) List(_ context.Context, q repository.ListQuery, collections []string) ([]model.Order, error) {
	f.lastQuery = q
	f.lastCollections = collections
	return f.listResult, nil
}

func (f *fakeOrderRepo) Insert(_ context.Context, collection string, o *model.Order) error {
	f.inserted = o
	f.insertedCollection = collection
	f.put(o, collection)
	return nil
}

func (f *fakeOrderRepo) UpdateByID(_ context.Context, _ string, orderID string, set bson.M) error {
	if _, ok := f.orders[orderID]; !ok {
		return repository.ErrNotFound
	}
	f.lastSet = set
	return nil
}

func (f *fakeOrderRepo) DeleteByID(_ context.Context, _ string, orderID string) error {
	if _, ok := f.orders[orderID]; !ok {
		return repository.ErrNotFound
	}
	delete(f.orders, orderID)
	delete(f.collections, orderID)
	return nil
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }
func strPtr(v string) *string     { return &v }

func validInput() dto.OrderInput {
	return dto.OrderInput{
		Location: dto.LocationInput{
			Address:   "Atatürk Cad. 12",
			Latitude:  floatPtr(38.42),
			Longitude: floatPtr(27.14),
		},
		ReadyTime: "09:00",
		DueDate:   "17:00",
		Request: dto.RequestInput{
			ProductID:   "SU_0",
			ProductName: "Damacana Su",
			Quantity:    2,
		},
		TotalPrice: 200,
	}
}

func existingStandard() *model.Order {
	return &model.Order{
		OrderID:    "ORD-1",
		TaskID:     "T-1",
		CustomerID: "user-1",
		Location:   model.Location{Address: "Atatürk Cad. 12", Latitude: 38.42, Longitude: 27.14},
		ReadyTime:  "09:00",
		DueDate:    "17:00",
		OrderDate:  "2025-03-14",
		Request: model.OrderRequest{
			ProductID:   "SU_0",
			ProductName: "Damacana Su",
			Quantity:    2,
			Demand:      38,
		},
		Status:          "waiting",
		TotalPrice:      200,
		ServiceTime:     120,
		AssignedVehicle: "default_vehicle",
		AssignedRouteID: "default_route",
		ChangeLog:       []model.ChangeLogEntry{},
		CreatedAt:       time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC),
		UpdatedAt:       time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC),
	}
}

func TestCreate_AdminForbidden(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := NewOrderService(repo, nil)

	err := svc.Create(context.Background(), adminPrincipal, validInput())

	var forbidden *ForbiddenError
	require.ErrorAs(t, err, &forbidden)
	assert.Nil(t, repo.inserted)
}

func TestCreate_DueBeforeReadyRejectedBeforePersist(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := NewOrderService(repo, nil)

	input := validInput()
	input.ReadyTime = "17:00"
	input.DueDate = "09:00"

	err := svc.Create(context.Background(), userPrincipal, input)

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "due_date, ready_time saatinden once olamaz.", validation.Detail)
	assert.Nil(t, repo.inserted)
}

func TestCreate_FailFastFirstField(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := NewOrderService(repo, nil)

	input := validInput()
	input.Request.ProductName = "   "
	input.TotalPrice = -1 // also invalid, but product_name fails first

	err := svc.Create(context.Background(), userPrincipal, input)

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "request.product_name zorunlu.", validation.Detail)
}

func TestCreate_LatitudeRange(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := NewOrderService(repo, nil)

	input := validInput()
	input.Location.Latitude = floatPtr(91)

	err := svc.Create(context.Background(), userPrincipal, input)

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "location.latitude/longitude araligi gecersiz.", validation.Detail)
}

func TestCreate_StandardOrderDefaults(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := NewOrderService(repo, nil)

	err := svc.Create(context.Background(), userPrincipal, validInput())
	require.NoError(t, err)

	require.NotNil(t, repo.inserted)
	o := repo.inserted
	assert.Equal(t, repository.CollectionStandard, repo.insertedCollection)
	assert.Equal(t, "user-1", o.CustomerID)
	assert.NotEmpty(t, o.OrderID)
	assert.NotEmpty(t, o.TaskID)
	assert.Equal(t, 38.0, o.Request.Demand) // 2 × 19
	assert.Equal(t, normalize.StatusWaiting, o.Status)
	assert.Equal(t, 120, o.ServiceTime)
	assert.Equal(t, 0, o.PriorityLevel)
	assert.Equal(t, "default_vehicle", o.AssignedVehicle)
	assert.Equal(t, "default_route", o.AssignedRouteID)
	assert.Empty(t, o.ChangeLog)
	assert.Equal(t, o.CreatedAt, o.UpdatedAt)

	orderDate, ok := o.OrderDate.(string)
	require.True(t, ok)
	assert.True(t, normalize.ValidDateOnly(orderDate))
	assert.Nil(t, o.PickupWeight)
}

func TestCreate_ClientIDsWin(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := NewOrderService(repo, nil)

	input := validInput()
	input.OrderID = "ORD-77"
	input.TaskID = "T-77"

	require.NoError(t, svc.Create(context.Background(), userPrincipal, input))
	assert.Equal(t, "ORD-77", repo.inserted.OrderID)
	assert.Equal(t, "T-77", repo.inserted.TaskID)
}

func TestCreate_PackageClassification(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := NewOrderService(repo, nil)

	input := validInput()
	input.Request.ProductID = "PAKET_1"
	input.Request.ProductName = "Paket Urun"
	input.Request.Quantity = 3
	input.PickupWeight = floatPtr(4.5)

	require.NoError(t, svc.Create(context.Background(), userPrincipal, input))

	o := repo.inserted
	assert.Equal(t, repository.CollectionPackage, repo.insertedCollection)
	assert.Equal(t, 3.0, o.Request.Demand) // 3 × 1
	require.NotNil(t, o.PickupWeight)
	assert.Equal(t, 4.5, *o.PickupWeight)
	require.NotNil(t, o.Request.PickupWeight)
	assert.Equal(t, 4.5, *o.Request.PickupWeight)
	assert.Equal(t, "Delivery", o.CustomerType)
}

func TestCreate_ExplicitDemandWins(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := NewOrderService(repo, nil)

	input := validInput()
	input.Request.Demand = 7.5

	require.NoError(t, svc.Create(context.Background(), userPrincipal, input))
	assert.Equal(t, 7.5, repo.inserted.Request.Demand)
}

func TestList_ForbiddenForOtherUser(t *testing.T) {
	svc := NewOrderService(newFakeOrderRepo(), nil)

	_, err := svc.List(context.Background(), userPrincipal, ListFilter{UserID: "user-2"})

	var forbidden *ForbiddenError
	require.ErrorAs(t, err, &forbidden)
}

func TestList_NormalizesStatusAndResolvesCollections(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := NewOrderService(repo, nil)

	_, err := svc.List(context.Background(), userPrincipal, ListFilter{Status: "Bekliyor", Collection: "package"})
	require.NoError(t, err)

	assert.Equal(t, "user-1", repo.lastQuery.CustomerID)
	assert.Equal(t, normalize.StatusWaiting, repo.lastQuery.Status)
	assert.Equal(t, []string{repository.CollectionPackage}, repo.lastCollections)
}

func TestList_StatusWildcardMeansNoFilter(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := NewOrderService(repo, nil)

	_, err := svc.List(context.Background(), userPrincipal, ListFilter{Status: "Tümü"})
	require.NoError(t, err)
	assert.Empty(t, repo.lastQuery.Status)
}

func TestList_AdminSeesAllByDefault(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := NewOrderService(repo, nil)

	_, err := svc.List(context.Background(), adminPrincipal, ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, repo.lastQuery.CustomerID)
	assert.Equal(t, []string{repository.CollectionStandard, repository.CollectionPackage}, repo.lastCollections)
}

func TestList_DateRangeInclusive(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := NewOrderService(repo, nil)

	_, err := svc.List(context.Background(), userPrincipal, ListFilter{StartDate: "2025-03-01", EndDate: "2025-03-05"})
	require.NoError(t, err)

	require.NotNil(t, repo.lastQuery.From)
	require.NotNil(t, repo.lastQuery.To)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), *repo.lastQuery.From)
	// end bound covers the whole last day
	assert.Equal(t, time.Date(2025, 3, 5, 23, 59, 59, 999999999, time.UTC), *repo.lastQuery.To)
}

func TestList_SerializesWithSourceTag(t *testing.T) {
	repo := newFakeOrderRepo()
	o := *existingStandard()
	o.SourceCollection = repository.CollectionStandard
	repo.listResult = []model.Order{o}
	svc := NewOrderService(repo, nil)

	out, err := svc.List(context.Background(), userPrincipal, ListFilter{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, repository.CollectionStandard, out[0].SourceCollection)
	assert.Equal(t, "2025-03-14T08:00:00Z", out[0].CreatedAt)
}

func TestUpdate_NotFound(t *testing.T) {
	svc := NewOrderService(newFakeOrderRepo(), nil)

	_, err := svc.Update(context.Background(), userPrincipal, "missing", dto.OrderUpdate{})
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestUpdate_ForbiddenForNonOwner(t *testing.T) {
	repo := newFakeOrderRepo()
	o := existingStandard()
	o.CustomerID = "user-2"
	repo.put(o, repository.CollectionStandard)
	svc := NewOrderService(repo, nil)

	_, err := svc.Update(context.Background(), userPrincipal, "ORD-1", dto.OrderUpdate{})

	var forbidden *ForbiddenError
	require.ErrorAs(t, err, &forbidden)
	assert.Nil(t, repo.lastSet)
}

func TestUpdate_PreservesPerUnitPrice(t *testing.T) {
	repo := newFakeOrderRepo()
	repo.put(existingStandard(), repository.CollectionStandard)
	svc := NewOrderService(repo, nil)

	updates := dto.OrderUpdate{Request: &dto.RequestUpdate{Quantity: intPtr(5)}}
	_, err := svc.Update(context.Background(), userPrincipal, "ORD-1", updates)
	require.NoError(t, err)

	// 200/2 per unit × 5
	assert.Equal(t, 500.0, repo.lastSet["total_price"])
	// 38/2 per unit × 5
	request := repo.lastSet["request"].(model.OrderRequest)
	assert.Equal(t, 95.0, request.Demand)
}

func TestUpdate_DemandFallbackStandard(t *testing.T) {
	repo := newFakeOrderRepo()
	o := existingStandard()
	o.Request.Demand = 0 // no usable ratio
	repo.put(o, repository.CollectionStandard)
	svc := NewOrderService(repo, nil)

	updates := dto.OrderUpdate{Request: &dto.RequestUpdate{Quantity: intPtr(3)}}
	_, err := svc.Update(context.Background(), userPrincipal, "ORD-1", updates)
	require.NoError(t, err)

	request := repo.lastSet["request"].(model.OrderRequest)
	assert.Equal(t, 57.0, request.Demand) // 3 × 19
}

func TestUpdate_DemandFallbackPackage(t *testing.T) {
	repo := newFakeOrderRepo()
	o := existingStandard()
	o.Request.ProductID = "PAKET_1"
	o.Request.Demand = 0
	repo.put(o, repository.CollectionPackage)
	svc := NewOrderService(repo, nil)

	updates := dto.OrderUpdate{Request: &dto.RequestUpdate{Quantity: intPtr(3)}}
	_, err := svc.Update(context.Background(), userPrincipal, "ORD-1", updates)
	require.NoError(t, err)

	request := repo.lastSet["request"].(model.OrderRequest)
	assert.Equal(t, 3.0, request.Demand) // 3 × 1
}

func TestUpdate_ExplicitValuesWin(t *testing.T) {
	repo := newFakeOrderRepo()
	repo.put(existingStandard(), repository.CollectionStandard)
	svc := NewOrderService(repo, nil)

	updates := dto.OrderUpdate{
		Request:    &dto.RequestUpdate{Quantity: intPtr(5), Demand: floatPtr(12)},
		TotalPrice: floatPtr(999),
	}
	_, err := svc.Update(context.Background(), userPrincipal, "ORD-1", updates)
	require.NoError(t, err)

	assert.Equal(t, 999.0, repo.lastSet["total_price"])
	request := repo.lastSet["request"].(model.OrderRequest)
	assert.Equal(t, 12.0, request.Demand)
}

func TestUpdate_AppendsChangeLogEntry(t *testing.T) {
	repo := newFakeOrderRepo()
	o := existingStandard()
	o.ChangeLog = []model.ChangeLogEntry{{Action: "update", ChangedBy: "user-1"}}
	repo.put(o, repository.CollectionStandard)
	svc := NewOrderService(repo, nil)

	_, err := svc.Update(context.Background(), adminPrincipal, "ORD-1", dto.OrderUpdate{Status: strPtr("Yolda")})
	require.NoError(t, err)

	log := repo.lastSet["change_log"].([]model.ChangeLogEntry)
	require.Len(t, log, 2)
	assert.Equal(t, "update", log[1].Action)
	assert.Equal(t, "admin-1", log[1].ChangedBy)
	assert.False(t, log[1].ChangedAt.IsZero())
	assert.Equal(t, normalize.StatusShipping, repo.lastSet["status"])
}

func TestUpdate_RevalidatesMergedTimes(t *testing.T) {
	repo := newFakeOrderRepo()
	repo.put(existingStandard(), repository.CollectionStandard)
	svc := NewOrderService(repo, nil)

	// existing ready_time is 09:00; moving due_date before it must fail
	updates := dto.OrderUpdate{DueDate: strPtr("08:00")}
	_, err := svc.Update(context.Background(), userPrincipal, "ORD-1", updates)

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "due_date, ready_time saatinden once olamaz.", validation.Detail)
	assert.Nil(t, repo.lastSet)
}

func TestUpdate_FlattensLegacyStoredTimes(t *testing.T) {
	repo := newFakeOrderRepo()
	o := existingStandard()
	o.ReadyTime = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	o.DueDate = time.Date(2025, 3, 14, 17, 0, 0, 0, time.UTC)
	o.OrderDate = time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	repo.put(o, repository.CollectionStandard)
	svc := NewOrderService(repo, nil)

	_, err := svc.Update(context.Background(), userPrincipal, "ORD-1", dto.OrderUpdate{})
	require.NoError(t, err)

	assert.Equal(t, "09:00", repo.lastSet["ready_time"])
	assert.Equal(t, "17:00", repo.lastSet["due_date"])
	assert.Equal(t, "2025-03-14", repo.lastSet["order_date"])
}

func TestDelete_NotFoundAndIdempotent(t *testing.T) {
	repo := newFakeOrderRepo()
	repo.put(existingStandard(), repository.CollectionStandard)
	svc := NewOrderService(repo, nil)

	require.NoError(t, svc.Delete(context.Background(), userPrincipal, "ORD-1"))

	// the second delete is a 404, not a server error
	err := svc.Delete(context.Background(), userPrincipal, "ORD-1")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestDelete_ForbiddenForNonOwner(t *testing.T) {
	repo := newFakeOrderRepo()
	o := existingStandard()
	o.CustomerID = "user-2"
	repo.put(o, repository.CollectionStandard)
	svc := NewOrderService(repo, nil)

	err := svc.Delete(context.Background(), userPrincipal, "ORD-1")

	var forbidden *ForbiddenError
	require.ErrorAs(t, err, &forbidden)
	_, _, findErr := repo.FindByID(context.Background(), "ORD-1")
	assert.NoError(t, findErr)
}

func TestDelete_AdminMayDeleteAnyOrder(t *testing.T) {
	repo := newFakeOrderRepo()
	repo.put(existingStandard(), repository.CollectionStandard)
	svc := NewOrderService(repo, nil)

	require.NoError(t, svc.Delete(context.Background(), adminPrincipal, "ORD-1"))
}

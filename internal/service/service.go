package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"

	"water-delivery-backend/internal/dto"
	"water-delivery-backend/internal/model"
	"water-delivery-backend/internal/normalize"
	"water-delivery-backend/internal/policy"
	"water-delivery-backend/internal/repository"
	"water-delivery-backend/internal/serialize"
)

// OrderRepository is the facade over the two physical order collections.
type OrderRepository interface {
	FindByID(ctx context.Context, orderID string) (*model.Order, string, error)
	List(ctx context.Context, q repository.ListQuery, collections []string) ([]model.Order, error)
	Insert(ctx context.Context, collection string, o *model.Order) error
	UpdateByID(ctx context.Context, collection, orderID string, set bson.M) error
	DeleteByID(ctx context.Context, collection, orderID string) error
}

// EventPublisher pushes order lifecycle events to the message broker.
// Publishing is best-effort; failures never fail the request.
type EventPublisher interface {
	OrderEvent(action string, o *model.Order)
}

const (
	defaultProductID   = "SU_0"
	defaultServiceTime = 120
	defaultVehicle     = "default_vehicle"
	defaultRoute       = "default_route"
	defaultCustomer    = "Delivery"

	demandPerUnitStandard = 19.0
	demandPerUnitPackage  = 1.0
)

type OrderService struct {
	repo   OrderRepository
	events EventPublisher
}

func NewOrderService(repo OrderRepository, events EventPublisher) *OrderService {
	return &OrderService{repo: repo, events: events}
}

// ListFilter carries the raw query parameters of GET /orders.
type ListFilter struct {
	UserID     string
	Status     string
	Collection string
	StartDate  string
	EndDate    string
}

// List returns the caller's (or, for admins, any user's) orders from
// both collections, newest first.
func (s *OrderService) List(ctx context.Context, p model.Principal, f ListFilter) ([]dto.OrderResponse, error) {
	target, ok := policy.ListTarget(p, f.UserID)
	if !ok {
		return nil, &ForbiddenError{Detail: "Sadece kendi siparislerinizi gorebilirsiniz."}
	}

	q := repository.ListQuery{CustomerID: target}
	if f.Status != "" && !normalize.IsStatusWildcard(f.Status) {
		q.Status = normalize.Status(f.Status)
	}
	if t, err := time.Parse(normalize.DateLayout, f.StartDate); err == nil {
		from := t.UTC()
		q.From = &from
	}
	if t, err := time.Parse(normalize.DateLayout, f.EndDate); err == nil {
		to := t.UTC().Add(24*time.Hour - time.Nanosecond)
		q.To = &to
	}

	orders, err := s.repo.List(ctx, q, repository.ResolveCollections(f.Collection))
	if err != nil {
		return nil, err
	}

	out := make([]dto.OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, serialize.Order(o))
	}
	return out, nil
}

// Create validates and persists a new order into the collection chosen
// by product classification. Validation is fail-fast: the first bad
// field aborts before anything touches the store.
func (s *OrderService) Create(ctx context.Context, p model.Principal, input dto.OrderInput) error {
	if !policy.CanCreate(p) {
		return &ForbiddenError{Detail: "Yonetici hesabi siparis olusturamaz."}
	}

	productName := strings.TrimSpace(input.Request.ProductName)
	if productName == "" {
		return invalid("request.product_name zorunlu.")
	}
	quantity := input.Request.Quantity
	if quantity < 1 {
		return invalid("request.quantity pozitif sayi olmali.")
	}
	if !isFinite(input.TotalPrice) || input.TotalPrice <= 0 {
		return invalid("total_price pozitif sayi olmali.")
	}
	address := strings.TrimSpace(input.Location.Address)
	if address == "" {
		return invalid("location.address zorunlu.")
	}
	readyTime := strings.TrimSpace(input.ReadyTime)
	dueDate := strings.TrimSpace(input.DueDate)
	if !normalize.ValidTime(readyTime) || !normalize.ValidTime(dueDate) {
		return invalid("ready_time ve due_date HH:MM formatinda olmali.")
	}
	if !normalize.CompareTimes(readyTime, dueDate) {
		return invalid("due_date, ready_time saatinden once olamaz.")
	}
	if input.Location.Latitude == nil || input.Location.Longitude == nil ||
		!isFinite(*input.Location.Latitude) || !isFinite(*input.Location.Longitude) {
		return invalid("location.latitude/longitude gecerli sayi olmali.")
	}
	latitude, longitude := *input.Location.Latitude, *input.Location.Longitude
	if latitude < -90 || latitude > 90 || longitude < -180 || longitude > 180 {
		return invalid("location.latitude/longitude araligi gecersiz.")
	}

	now := time.Now().UTC()
	orderDate := strings.TrimSpace(input.OrderDate)
	if orderDate == "" {
		orderDate = normalize.DateOnly(now)
	} else if !normalize.ValidDateOnly(orderDate) {
		return invalid("order_date YYYY-MM-DD formatinda olmali.")
	}

	productID := strings.TrimSpace(input.Request.ProductID)
	if productID == "" {
		productID = defaultProductID
	}
	isPackage := normalize.IsPackageProduct(productID, productName)

	order := &model.Order{
		OrderID:    input.OrderID,
		TaskID:     input.TaskID,
		CustomerID: p.UserID,
		Location: model.Location{
			Address:   address,
			Latitude:  latitude,
			Longitude: longitude,
		},
		ReadyTime: readyTime,
		DueDate:   dueDate,
		OrderDate: orderDate,
		Request: model.OrderRequest{
			ProductID:   productID,
			ProductName: productName,
			Notes:       input.Request.Notes,
			Quantity:    quantity,
			Demand:      normalize.DeriveDemand(quantity, input.Request.Demand, isPackage),
		},
		Status:          normalize.Status(input.Status),
		TotalPrice:      input.TotalPrice,
		ServiceTime:     defaultServiceTime,
		AssignedVehicle: defaultVehicle,
		AssignedRouteID: defaultRoute,
		ChangeLog:       []model.ChangeLogEntry{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if order.OrderID == "" {
		order.OrderID = uuid.NewString()
	}
	if order.TaskID == "" {
		order.TaskID = uuid.NewString()
	}
	if input.ServiceTime > 0 {
		order.ServiceTime = input.ServiceTime
	}
	if input.PriorityLevel != nil {
		order.PriorityLevel = *input.PriorityLevel
	}
	if v := strings.TrimSpace(input.AssignedVehicle); v != "" {
		order.AssignedVehicle = v
	}
	if v := strings.TrimSpace(input.AssignedRouteID); v != "" {
		order.AssignedRouteID = v
	}

	target := repository.CollectionStandard
	if isPackage {
		target = repository.CollectionPackage
		pickup := 0.0
		if input.PickupWeight != nil && isFinite(*input.PickupWeight) {
			pickup = *input.PickupWeight
		}
		order.PickupWeight = &pickup
		order.CustomerType = defaultCustomer
		if v := strings.TrimSpace(input.CustomerType); v != "" {
			order.CustomerType = v
		}
		requestPickup := pickup
		if input.Request.PickupWeight != nil && isFinite(*input.Request.PickupWeight) {
			requestPickup = *input.Request.PickupWeight
		}
		order.Request.PickupWeight = &requestPickup
	}
	order.SourceCollection = target

	if err := s.repo.Insert(ctx, target, order); err != nil {
		return mapRepoErr(err)
	}
	s.publish("created", order)
	return nil
}

// Update merges the payload over the stored order, re-validates the
// merged document, recomputes demand and total price from the preserved
// per-unit ratios, appends a change-log entry and writes one $set.
//
// Read-then-write, not atomic: two concurrent updates race and the last
// write wins, which can drop one change-log entry. Known and accepted.
func (s *OrderService) Update(ctx context.Context, p model.Principal, orderID string, updates dto.OrderUpdate) (*dto.OrderResponse, error) {
	existing, collection, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	if !policy.CanMutate(p, existing) {
		return nil, &ForbiddenError{Detail: "Sadece kendi siparislerinizi guncelleyebilirsiniz."}
	}
	isPackage := collection == repository.CollectionPackage

	merged := *existing
	oldQuantity := existing.Request.Quantity
	oldDemand := existing.Request.Demand
	oldTotal := existing.TotalPrice

	if updates.TaskID != nil && strings.TrimSpace(*updates.TaskID) != "" {
		merged.TaskID = strings.TrimSpace(*updates.TaskID)
	}
	if updates.Location != nil {
		if updates.Location.Address != nil {
			merged.Location.Address = strings.TrimSpace(*updates.Location.Address)
		}
		if updates.Location.Latitude != nil {
			merged.Location.Latitude = *updates.Location.Latitude
		}
		if updates.Location.Longitude != nil {
			merged.Location.Longitude = *updates.Location.Longitude
		}
	}

	// Legacy documents may hold datetimes here; flatten before merging.
	readyTime := serialize.ToTimeString(merged.ReadyTime)
	if updates.ReadyTime != nil {
		readyTime = strings.TrimSpace(*updates.ReadyTime)
	}
	dueDate := serialize.ToTimeString(merged.DueDate)
	if updates.DueDate != nil {
		dueDate = strings.TrimSpace(*updates.DueDate)
	}
	orderDate := flattenOrderDate(merged.OrderDate)
	if updates.OrderDate != nil {
		orderDate = strings.TrimSpace(*updates.OrderDate)
	}

	if updates.Request != nil {
		if updates.Request.ProductID != nil && strings.TrimSpace(*updates.Request.ProductID) != "" {
			merged.Request.ProductID = strings.TrimSpace(*updates.Request.ProductID)
		}
		if updates.Request.ProductName != nil && strings.TrimSpace(*updates.Request.ProductName) != "" {
			merged.Request.ProductName = strings.TrimSpace(*updates.Request.ProductName)
		}
		if updates.Request.Notes != nil {
			merged.Request.Notes = *updates.Request.Notes
		}
		if updates.Request.Quantity != nil {
			merged.Request.Quantity = *updates.Request.Quantity
		}
	}
	if updates.Status != nil {
		merged.Status = normalize.Status(*updates.Status)
	}
	if updates.ServiceTime != nil && *updates.ServiceTime > 0 {
		merged.ServiceTime = *updates.ServiceTime
	}
	if updates.PriorityLevel != nil {
		merged.PriorityLevel = *updates.PriorityLevel
	}
	if updates.AssignedVehicle != nil && strings.TrimSpace(*updates.AssignedVehicle) != "" {
		merged.AssignedVehicle = strings.TrimSpace(*updates.AssignedVehicle)
	}
	if updates.AssignedRouteID != nil && strings.TrimSpace(*updates.AssignedRouteID) != "" {
		merged.AssignedRouteID = strings.TrimSpace(*updates.AssignedRouteID)
	}
	if isPackage {
		if updates.PickupWeight != nil && isFinite(*updates.PickupWeight) {
			pickup := *updates.PickupWeight
			merged.PickupWeight = &pickup
			merged.Request.PickupWeight = &pickup
		}
		if updates.Request != nil && updates.Request.PickupWeight != nil && isFinite(*updates.Request.PickupWeight) {
			requestPickup := *updates.Request.PickupWeight
			merged.Request.PickupWeight = &requestPickup
		}
		if updates.CustomerType != nil && strings.TrimSpace(*updates.CustomerType) != "" {
			merged.CustomerType = strings.TrimSpace(*updates.CustomerType)
		}
	}

	// Same rules as Create, now against the merged values.
	if merged.Location.Address == "" {
		return nil, invalid("location.address zorunlu.")
	}
	if !isFinite(merged.Location.Latitude) || !isFinite(merged.Location.Longitude) {
		return nil, invalid("location.latitude/longitude gecerli sayi olmali.")
	}
	if merged.Location.Latitude < -90 || merged.Location.Latitude > 90 ||
		merged.Location.Longitude < -180 || merged.Location.Longitude > 180 {
		return nil, invalid("location.latitude/longitude araligi gecersiz.")
	}
	if !normalize.ValidTime(readyTime) || !normalize.ValidTime(dueDate) {
		return nil, invalid("ready_time ve due_date HH:MM formatinda olmali.")
	}
	if !normalize.CompareTimes(readyTime, dueDate) {
		return nil, invalid("due_date, ready_time saatinden once olamaz.")
	}
	if merged.Request.Quantity < 1 {
		return nil, invalid("request.quantity pozitif sayi olmali.")
	}
	if !normalize.ValidDateOnly(orderDate) {
		return nil, invalid("order_date YYYY-MM-DD formatinda olmali.")
	}
	merged.ReadyTime = readyTime
	merged.DueDate = dueDate
	merged.OrderDate = orderDate

	newQuantity := merged.Request.Quantity
	if updates.Request != nil && updates.Request.Demand != nil &&
		isFinite(*updates.Request.Demand) && *updates.Request.Demand > 0 {
		merged.Request.Demand = *updates.Request.Demand
	} else {
		ratio := demandPerUnitStandard
		if isPackage {
			ratio = demandPerUnitPackage
		}
		if oldDemand > 0 && oldQuantity > 0 {
			ratio = oldDemand / float64(oldQuantity)
		}
		merged.Request.Demand = ratio * float64(newQuantity)
	}

	if updates.TotalPrice != nil && isFinite(*updates.TotalPrice) && *updates.TotalPrice > 0 {
		merged.TotalPrice = *updates.TotalPrice
	} else if oldQuantity > 0 {
		merged.TotalPrice = oldTotal / float64(oldQuantity) * float64(newQuantity)
	}
	if !isFinite(merged.TotalPrice) || merged.TotalPrice <= 0 {
		return nil, invalid("total_price pozitif sayi olmali.")
	}

	now := time.Now().UTC()
	merged.UpdatedAt = now
	entry := model.ChangeLogEntry{Action: "update", ChangedAt: now, ChangedBy: p.UserID}
	merged.ChangeLog = append(append([]model.ChangeLogEntry{}, existing.ChangeLog...), entry)

	set := bson.M{
		"task_id":           merged.TaskID,
		"location":          merged.Location,
		"ready_time":        merged.ReadyTime,
		"due_date":          merged.DueDate,
		"order_date":        merged.OrderDate,
		"request":           merged.Request,
		"status":            merged.Status,
		"total_price":       merged.TotalPrice,
		"service_time":      merged.ServiceTime,
		"priority_level":    merged.PriorityLevel,
		"assigned_vehicle":  merged.AssignedVehicle,
		"assigned_route_id": merged.AssignedRouteID,
		"change_log":        merged.ChangeLog,
		"updated_at":        merged.UpdatedAt,
	}
	if isPackage {
		set["pickup_weight"] = merged.PickupWeight
		set["customer_type"] = merged.CustomerType
	}

	if err := s.repo.UpdateByID(ctx, collection, orderID, set); err != nil {
		return nil, mapRepoErr(err)
	}

	reloaded, _, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	s.publish("updated", reloaded)
	resp := serialize.Order(*reloaded)
	return &resp, nil
}

// Delete removes an order the principal owns (or any order, for admins).
func (s *OrderService) Delete(ctx context.Context, p model.Principal, orderID string) error {
	existing, collection, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return mapRepoErr(err)
	}
	if !policy.CanMutate(p, existing) {
		return &ForbiddenError{Detail: "Sadece kendi siparislerinizi silebilirsiniz."}
	}
	if err := s.repo.DeleteByID(ctx, collection, orderID); err != nil {
		return mapRepoErr(err)
	}
	s.publish("deleted", existing)
	return nil
}

func (s *OrderService) publish(action string, o *model.Order) {
	if s.events == nil {
		return
	}
	s.events.OrderEvent(action, o)
}

// flattenOrderDate reduces a stored order_date to YYYY-MM-DD for
// re-validation; legacy records hold full datetimes.
func flattenOrderDate(value any) string {
	if s, ok := value.(string); ok {
		if len(s) >= len(normalize.DateLayout) && normalize.ValidDateOnly(s[:len(normalize.DateLayout)]) {
			return s[:len(normalize.DateLayout)]
		}
		return s
	}
	if t, ok := normalize.ParseDate(value); ok {
		return normalize.DateOnly(t)
	}
	return ""
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func mapRepoErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrOrderNotFound
	case errors.Is(err, repository.ErrUserNotFound):
		return ErrUserNotFound
	case errors.Is(err, repository.ErrNotPersisted):
		return ErrNotPersisted
	}
	return err
}

// dto.go
package dto

import "water-delivery-backend/internal/model"

type LoginRequest struct {
	UserIDOrEmail string `json:"user_id_or_email"`
	Password      string `json:"password"`
}

// CreateOrderRequest wraps the order body: POST /orders {"order": {...}}.
type CreateOrderRequest struct {
	Order *OrderInput `json:"order"`
}

type OrderInput struct {
	OrderID         string        `json:"order_id"`
	TaskID          string        `json:"task_id"`
	Location        LocationInput `json:"location"`
	ReadyTime       string        `json:"ready_time"`
	DueDate         string        `json:"due_date"`
	OrderDate       string        `json:"order_date"`
	Request         RequestInput  `json:"request"`
	Status          string        `json:"status"`
	TotalPrice      float64       `json:"total_price"`
	ServiceTime     int           `json:"service_time"`
	PriorityLevel   *int          `json:"priority_level"`
	AssignedVehicle string        `json:"assigned_vehicle"`
	AssignedRouteID string        `json:"assigned_route_id"`
	PickupWeight    *float64      `json:"pickup_weight"`
	CustomerType    string        `json:"customer_type"`
}

// Coordinates are pointers so a missing value is distinguishable from 0.
type LocationInput struct {
	Address   string   `json:"address"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type RequestInput struct {
	ProductID    string   `json:"product_id"`
	ProductName  string   `json:"product_name"`
	Notes        string   `json:"notes"`
	Quantity     int      `json:"quantity"`
	Demand       float64  `json:"demand"`
	PickupWeight *float64 `json:"pickup_weight"`
}

// UpdateOrderRequest wraps the update body: PUT /orders/:orderId
// {"updates": {...}}.
type UpdateOrderRequest struct {
	Updates *OrderUpdate `json:"updates"`
}

// OrderUpdate carries a partial order. Every field is a pointer: absent
// fields fall back to the stored value, present ones are merged in and
// the merged document is re-validated.
type OrderUpdate struct {
	TaskID          *string         `json:"task_id"`
	Location        *LocationUpdate `json:"location"`
	ReadyTime       *string         `json:"ready_time"`
	DueDate         *string         `json:"due_date"`
	OrderDate       *string         `json:"order_date"`
	Request         *RequestUpdate  `json:"request"`
	Status          *string         `json:"status"`
	TotalPrice      *float64        `json:"total_price"`
	ServiceTime     *int            `json:"service_time"`
	PriorityLevel   *int            `json:"priority_level"`
	AssignedVehicle *string         `json:"assigned_vehicle"`
	AssignedRouteID *string         `json:"assigned_route_id"`
	PickupWeight    *float64        `json:"pickup_weight"`
	CustomerType    *string         `json:"customer_type"`
}

type LocationUpdate struct {
	Address   *string  `json:"address"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type RequestUpdate struct {
	ProductID    *string  `json:"product_id"`
	ProductName  *string  `json:"product_name"`
	Notes        *string  `json:"notes"`
	Quantity     *int     `json:"quantity"`
	Demand       *float64 `json:"demand"`
	PickupWeight *float64 `json:"pickup_weight"`
}

// ProfileUpdateRequest carries freeform profile fields; the service
// strips the immutable ones.
type ProfileUpdateRequest struct {
	Updates map[string]any `json:"updates"`
}

// OrderResponse is the client-facing order shape: identifiers
// stringified, dates as ISO-8601, clock times as HH:MM.
type OrderResponse struct {
	ID               string                 `json:"_id,omitempty"`
	OrderID          string                 `json:"order_id"`
	TaskID           string                 `json:"task_id"`
	CustomerID       string                 `json:"customer_id"`
	Location         model.Location         `json:"location"`
	ReadyTime        string                 `json:"ready_time"`
	DueDate          string                 `json:"due_date"`
	OrderDate        string                 `json:"order_date"`
	Request          model.OrderRequest     `json:"request"`
	Status           string                 `json:"status"`
	TotalPrice       float64                `json:"total_price"`
	ServiceTime      int                    `json:"service_time"`
	PriorityLevel    int                    `json:"priority_level"`
	AssignedVehicle  string                 `json:"assigned_vehicle"`
	AssignedRouteID  string                 `json:"assigned_route_id"`
	ChangeLog        []model.ChangeLogEntry `json:"change_log"`
	CreatedAt        string                 `json:"created_at"`
	UpdatedAt        string                 `json:"updated_at"`
	PickupWeight     *float64               `json:"pickup_weight,omitempty"`
	CustomerType     string                 `json:"customer_type,omitempty"`
	SourceCollection string                 `json:"source_collection,omitempty"`
}

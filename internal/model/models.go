// models.go
package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order is a document in either the Orders (standard/water) or the
// Order_S (package) collection. Which collection it lives in is decided
// once at creation time by product classification and never changes.
type Order struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	OrderID    string             `bson:"order_id" json:"order_id"`
	TaskID     string             `bson:"task_id" json:"task_id"`
	CustomerID string             `bson:"customer_id" json:"customer_id"`
	Location   Location           `bson:"location" json:"location"`

	// Legacy documents store these as BSON datetimes, newer ones as
	// "HH:MM" / "YYYY-MM-DD" strings. Kept loose so both decode; the
	// serializer flattens them to strings on the way out.
	ReadyTime any `bson:"ready_time" json:"ready_time"`
	DueDate   any `bson:"due_date" json:"due_date"`
	OrderDate any `bson:"order_date" json:"order_date"`

	Request         OrderRequest     `bson:"request" json:"request"`
	Status          string           `bson:"status" json:"status"`
	TotalPrice      float64          `bson:"total_price" json:"total_price"`
	ServiceTime     int              `bson:"service_time" json:"service_time"`
	PriorityLevel   int              `bson:"priority_level" json:"priority_level"`
	AssignedVehicle string           `bson:"assigned_vehicle" json:"assigned_vehicle"`
	AssignedRouteID string           `bson:"assigned_route_id" json:"assigned_route_id"`
	ChangeLog       []ChangeLogEntry `bson:"change_log" json:"change_log"`
	CreatedAt       time.Time        `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time        `bson:"updated_at" json:"updated_at"`

	// Package orders only.
	PickupWeight *float64 `bson:"pickup_weight,omitempty" json:"pickup_weight,omitempty"`
	CustomerType string   `bson:"customer_type,omitempty" json:"customer_type,omitempty"`

	// Set at read time by the repository, never persisted.
	SourceCollection string `bson:"-" json:"source_collection,omitempty"`
}

type Location struct {
	Address   string  `bson:"address" json:"address"`
	Latitude  float64 `bson:"latitude" json:"latitude"`
	Longitude float64 `bson:"longitude" json:"longitude"`
}

type OrderRequest struct {
	ProductID    string   `bson:"product_id" json:"product_id"`
	ProductName  string   `bson:"product_name" json:"product_name"`
	Notes        string   `bson:"notes" json:"notes"`
	Quantity     int      `bson:"quantity" json:"quantity"`
	Demand       float64  `bson:"demand" json:"demand"`
	PickupWeight *float64 `bson:"pickup_weight,omitempty" json:"pickup_weight,omitempty"`
}

type ChangeLogEntry struct {
	Action    string    `bson:"action" json:"action"`
	ChangedAt time.Time `bson:"changed_at" json:"changed_at"`
	ChangedBy string    `bson:"changed_by" json:"changed_by"`
}

// User lives in the Users collection. Password fields never leave the
// backend.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	UserID       string             `bson:"user_id" json:"user_id"`
	Email        string             `bson:"email" json:"email"`
	Name         string             `bson:"name,omitempty" json:"name,omitempty"`
	Phone        string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Role         string             `bson:"role" json:"role"`
	Password     string             `bson:"password,omitempty" json:"-"`
	PasswordHash string             `bson:"password_hash,omitempty" json:"-"`
	CreatedAt    time.Time          `bson:"created_at,omitempty" json:"created_at,omitempty"`
	UpdatedAt    time.Time          `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// Product is a catalog entry in the Products collection.
type Product struct {
	ProductID   string  `bson:"product_id" json:"product_id"`
	ProductName string  `bson:"product_name" json:"product_name"`
	UnitPrice   float64 `bson:"unit_price,omitempty" json:"unit_price,omitempty"`
	UnitDemand  float64 `bson:"unit_demand,omitempty" json:"unit_demand,omitempty"`
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Principal is the verified caller, resolved by the auth middleware.
type Principal struct {
	UserID string
	Role   string
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

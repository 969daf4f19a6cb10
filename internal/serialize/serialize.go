// Package serialize shapes stored order documents for clients. The
// helpers are idempotent: values that are already strings pass through
// untouched, so serializing twice yields the same result.
package serialize

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"water-delivery-backend/internal/dto"
	"water-delivery-backend/internal/model"
)

// ToISO8601 renders a stored date value as an ISO-8601 string. Nil
// becomes the empty string, strings pass through unchanged.
func ToISO8601(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case time.Time:
		if v.IsZero() {
			return ""
		}
		return v.UTC().Format(time.RFC3339)
	case primitive.DateTime:
		return v.Time().UTC().Format(time.RFC3339)
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// ToTimeString renders a stored clock value as HH:MM whether it was
// written as a string or as a full timestamp.
func ToTimeString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case time.Time:
		return v.Format("15:04")
	case primitive.DateTime:
		return v.Time().UTC().Format("15:04")
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// Order converts a stored order into the client-facing shape.
func Order(o model.Order) dto.OrderResponse {
	resp := dto.OrderResponse{
		OrderID:          o.OrderID,
		TaskID:           o.TaskID,
		CustomerID:       o.CustomerID,
		Location:         o.Location,
		ReadyTime:        ToTimeString(o.ReadyTime),
		DueDate:          ToTimeString(o.DueDate),
		OrderDate:        ToISO8601(o.OrderDate),
		Request:          o.Request,
		Status:           o.Status,
		TotalPrice:       o.TotalPrice,
		ServiceTime:      o.ServiceTime,
		PriorityLevel:    o.PriorityLevel,
		AssignedVehicle:  o.AssignedVehicle,
		AssignedRouteID:  o.AssignedRouteID,
		ChangeLog:        o.ChangeLog,
		CreatedAt:        ToISO8601(o.CreatedAt),
		UpdatedAt:        ToISO8601(o.UpdatedAt),
		PickupWeight:     o.PickupWeight,
		CustomerType:     o.CustomerType,
		SourceCollection: o.SourceCollection,
	}
	if !o.ID.IsZero() {
		resp.ID = o.ID.Hex()
	}
	return resp
}

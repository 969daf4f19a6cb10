// publisher.go
package rabbit

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"

	"water-delivery-backend/internal/model"
	"water-delivery-backend/internal/serialize"
)

const orderEventsExchange = "order_events"

// Publisher fans order lifecycle events out to the routing engine and
// any other interested consumers.
type Publisher struct {
	ch *amqp091.Channel
}

func NewPublisher(ch *amqp091.Channel) (*Publisher, error) {
	err := ch.ExchangeDeclare(
		orderEventsExchange,
		"fanout",
		true,  // durable
		false, // auto-delete
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, err
	}
	return &Publisher{ch: ch}, nil
}

type eventEnvelope struct {
	CorrelationID string       `json:"correlation_id"`
	Exchange      string       `json:"exchange"`
	RoutingKey    string       `json:"routing_key"`
	Message       eventMessage `json:"message"`
}

type eventMessage struct {
	Action     string  `json:"action"`
	OrderID    string  `json:"orderId"`
	UserID     string  `json:"userId"`
	Collection string  `json:"collection"`
	Status     string  `json:"status"`
	Demand     float64 `json:"demand"`
	DueDate    string  `json:"dueDate"`
}

// OrderEvent publishes one event. Best-effort: failures are logged and
// swallowed so a broker outage never fails an order request.
func (p *Publisher) OrderEvent(action string, o *model.Order) {
	envelope := eventEnvelope{
		CorrelationID: uuid.NewString(),
		Exchange:      orderEventsExchange,
		RoutingKey:    action,
		Message: eventMessage{
			Action:     action,
			OrderID:    o.OrderID,
			UserID:     o.CustomerID,
			Collection: o.SourceCollection,
			Status:     o.Status,
			Demand:     o.Request.Demand,
			DueDate:    serialize.ToTimeString(o.DueDate),
		},
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		log.Println("rabbit: marshal order event:", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = p.ch.PublishWithContext(ctx,
		orderEventsExchange,
		"", // fanout ignores the routing key
		false,
		false,
		amqp091.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
	if err != nil {
		log.Println("rabbit: publish order event:", err)
	}
}

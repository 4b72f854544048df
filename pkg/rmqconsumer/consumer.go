package rmqconsumer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"study-buddy-api/config"
)

// can scale depends on a parallel worker count
const preFetchCount = 1

const orphanedSuffix = ".file_orphaned"

// Consumer drains resource events for operators. Orphaned blob reports are surfaced at WARN
// so they can be cleaned up by hand.
type Consumer struct {
	cfg         config.MQ
	log         *zap.Logger
	routingKeys []string
	conn        *amqp091.Connection
	chConsume   *amqp091.Channel
	chDelivery  <-chan amqp091.Delivery
}

type envelope struct {
	ID         string `json:"event_id"`
	ResourceID string `json:"resource_id"`
	UserID     string `json:"user_id"`
	StorageKey string `json:"storage_key"`
}

func New(cfg config.MQ, logger *zap.Logger, conn *amqp091.Connection, routingKeys []string) *Consumer {
	return &Consumer{
		cfg:         cfg,
		log:         logger,
		conn:        conn,
		routingKeys: routingKeys,
	}
}

func (c *Consumer) Connect(dsn string) error {
	conn, err := amqp091.Dial(dsn)
	if err != nil {
		return fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("amqp channel: %w", err)
	}
	c.conn, c.chConsume = conn, ch

	c.log.Info("rabbitmq consumer connected successfully")

	return nil
}

func (c *Consumer) Init() error {
	if err := c.chConsume.ExchangeDeclare(
		c.cfg.Exchange,
		c.cfg.ExchangeType,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		return fmt.Errorf("exchange declare: %w", err)
	}
	if _, err := c.chConsume.QueueDeclare(
		c.cfg.QueueName,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	for _, rk := range c.routingKeys {
		if err := c.chConsume.QueueBind(
			c.cfg.QueueName,
			rk,
			c.cfg.Exchange,
			false,
			nil,
		); err != nil {
			return fmt.Errorf("queue bind %s: %w", rk, err)
		}
	}

	if err := c.chConsume.Qos(preFetchCount, 0, false); err != nil {
		return fmt.Errorf("qos: %w", err)
	}

	deliveries, err := c.chConsume.Consume(
		c.cfg.QueueName,
		"",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}
	c.chDelivery = deliveries

	return nil
}

func (c *Consumer) DeliveryWorker(ctx context.Context) {
	c.log.Info("starting delivery worker")

	defer func() {
		c.log.Info("delivery worker gracefully stopped")
	}()

	for {
		select {
		case msg, ok := <-c.chDelivery:
			if !ok {
				c.log.Warn("delivery channel closed")
				return
			}
			if err := c.delivery(msg); err != nil {
				// alert
				c.log.Error("mq read message error", zap.Error(err))
			}
		case <-ctx.Done():
			_ = c.chConsume.Close()
			return
		}
	}
}

func (c *Consumer) delivery(msg amqp091.Delivery) error {
	var e envelope
	if err := json.Unmarshal(msg.Body, &e); err != nil {
		return fmt.Errorf("decode %s event: %w", msg.RoutingKey, err)
	}

	fields := []zap.Field{
		zap.String("action", ActionName(msg.RoutingKey)),
		zap.String("event_id", e.ID),
		zap.String("resource_id", e.ResourceID),
		zap.String("user_id", e.UserID),
	}
	if strings.HasSuffix(msg.RoutingKey, orphanedSuffix) {
		c.log.Warn("orphaned resource file reported", append(fields, zap.String("storage_key", e.StorageKey))...)
		return nil
	}

	c.log.Info("resource event", fields...)

	return nil
}

// ActionName turns a routing key such as "resource.file_replaced" into "ResourceFileReplaced".
func ActionName(routingKey string) string {
	var b strings.Builder
	for _, part := range strings.FieldsFunc(routingKey, func(r rune) bool {
		return r == '.' || r == '_'
	}) {
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}

	return b.String()
}

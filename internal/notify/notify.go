// Package notify 向消息队列发送排班事件，由通知服务消费
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Simon6088/Doctor-Scheduling-System/internal/config"
	"github.com/Simon6088/Doctor-Scheduling-System/pkg/logger"
	"github.com/Simon6088/Doctor-Scheduling-System/pkg/scheduler"
)

// EventScheduleGenerated 排班生成事件类型
const EventScheduleGenerated = "schedule.generated"

// ScheduleGenerated 排班生成事件
type ScheduleGenerated struct {
	Event        string            `json:"event"`
	ID           uuid.UUID         `json:"id"`
	DepartmentID *uuid.UUID        `json:"department_id,omitempty"`
	StartDate    string            `json:"start_date"`
	EndDate      string            `json:"end_date"`
	Outcome      scheduler.Outcome `json:"outcome"`
	Assignments  int               `json:"assignments"`
	Saved        int               `json:"saved"`
	Objective    float64           `json:"objective"`
	Reason       string            `json:"reason,omitempty"`
	OccurredAt   time.Time         `json:"occurred_at"`
}

// NewScheduleGenerated 根据排班结果构造事件
func NewScheduleGenerated(departmentID *uuid.UUID, in *scheduler.Input, result *scheduler.Result, saved int) ScheduleGenerated {
	return ScheduleGenerated{
		Event:        EventScheduleGenerated,
		ID:           uuid.New(),
		DepartmentID: departmentID,
		StartDate:    in.Window.StartDate,
		EndDate:      in.Window.EndDate(),
		Outcome:      result.Outcome,
		Assignments:  len(result.Assignments),
		Saved:        saved,
		Objective:    result.Objective,
		Reason:       result.Reason,
		OccurredAt:   time.Now().UTC(),
	}
}

// Publisher 事件发布接口
type Publisher interface {
	Publish(ctx context.Context, event ScheduleGenerated) error
}

// channel 发布所需的通道方法
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPPublisher 基于 RabbitMQ 的事件发布器
type AMQPPublisher struct {
	conn    *amqp.Connection
	ch      channel
	queue   string
	timeout time.Duration
}

// Dial 连接 RabbitMQ 并声明持久化队列
func Dial(cfg *config.RabbitMQConfig) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("无法连接到 rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("无法建立通道: %w", err)
	}

	if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("无法声明队列: %w", err)
	}

	logger.Info().Str("queue", cfg.Queue).Msg("rabbitmq 连接成功")
	return &AMQPPublisher{conn: conn, ch: ch, queue: cfg.Queue, timeout: cfg.PublishTimeout}, nil
}

// Publish 发布事件，超时取配置中的 PublishTimeout
func (p *AMQPPublisher) Publish(ctx context.Context, event ScheduleGenerated) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("序列化事件失败: %w", err)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	if err := p.ch.PublishWithContext(ctx, "", p.queue, true, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID.String(),
		Timestamp:    event.OccurredAt,
		Type:         event.Event,
		Body:         body,
	}); err != nil {
		return fmt.Errorf("发布排班事件失败: %w", err)
	}
	return nil
}

// Close 关闭连接
func (p *AMQPPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Close()
}

// Nop 不发送事件，未配置消息队列时使用
type Nop struct{}

// Publish 直接返回
func (Nop) Publish(context.Context, ScheduleGenerated) error { return nil }

package queue

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

// Message wraps a Job with the delivery it arrived on. Acknowledger is the AMQP channel
// for RabbitMQ deliveries and the queue itself for in-process ones.
type Message struct {
	Job          *Job
	DeliveryTag  uint64
	Acknowledger amqp.Acknowledger
}

var _ MessageInterface = (*Message)(nil)

// Ack acknowledges the message
func (m *Message) Ack() error {
	return m.Acknowledger.Ack(m.DeliveryTag, false)
}

// Nack negatively acknowledges the message. Without requeue it is dead-lettered.
func (m *Message) Nack(requeue bool) error {
	return m.Acknowledger.Nack(m.DeliveryTag, false, requeue)
}

// GetJob returns the job carried by the message
func (m *Message) GetJob() *Job {
	return m.Job
}

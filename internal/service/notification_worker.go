package service

import (
	"encoding/json"
	"log"

	"soundrise/internal/util"
	"soundrise/internal/websocket"

	amqp "github.com/rabbitmq/amqp091-go"
)

// NotificationWorker consumes notification messages from RabbitMQ and pushes
// them to connected websocket clients. The HTTP process publishes and this
// worker consumes, so delivery keeps working when they are split into
// separate deployments.
type NotificationWorker struct {
	rabbitMQ *util.RabbitMQClient
	wsHub    *websocket.Hub
	stopChan chan bool
}

// NewNotificationWorker creates a new notification worker
func NewNotificationWorker(rabbitMQ *util.RabbitMQClient, wsHub *websocket.Hub) *NotificationWorker {
	return &NotificationWorker{
		rabbitMQ: rabbitMQ,
		wsHub:    wsHub,
		stopChan: make(chan bool),
	}
}

// Start declares the notification exchange and queue and begins consuming.
// Returns without error when RabbitMQ is not configured; realtime delivery
// then relies on the in-process websocket push alone.
func (w *NotificationWorker) Start() error {
	if w.rabbitMQ == nil {
		return nil
	}

	channel := w.rabbitMQ.GetChannel()
	if channel == nil {
		return nil
	}

	if err := channel.ExchangeDeclare(
		NotificationExchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		return err
	}

	queue, err := channel.QueueDeclare(
		NotificationQueueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	if err := channel.QueueBind(
		NotificationQueueName,
		NotificationQueueName,
		NotificationExchange,
		false,
		nil,
	); err != nil {
		return err
	}

	msgs, err := channel.Consume(
		queue.Name,
		"notification_worker",
		false, // auto-ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	go func() {
		log.Println("Notification worker started, consuming messages...")
		for {
			select {
			case <-w.stopChan:
				log.Println("Notification worker stopped")
				return
			case msg, ok := <-msgs:
				if !ok {
					log.Println("Notification queue closed")
					return
				}
				if err := w.processNotificationMessage(msg); err != nil {
					log.Printf("Error processing notification message: %v", err)
					msg.Nack(false, true)
				} else {
					msg.Ack(false)
				}
			}
		}
	}()

	return nil
}

// processNotificationMessage pushes one queued notification to the target
// user's websocket connections.
func (w *NotificationWorker) processNotificationMessage(msg amqp.Delivery) error {
	var notificationMsg NotificationMessage
	if err := json.Unmarshal(msg.Body, &notificationMsg); err != nil {
		return err
	}

	if w.wsHub != nil {
		payload := map[string]interface{}{
			"type":    notificationMsg.Type,
			"user_id": notificationMsg.UserID,
			"title":   notificationMsg.Title,
			"message": notificationMsg.Message,
		}
		if notificationMsg.Data != nil {
			payload["data"] = notificationMsg.Data
		}
		w.wsHub.BroadcastToUser(notificationMsg.UserID, payload)
	}

	return nil
}

// Stop stops the notification worker
func (w *NotificationWorker) Stop() {
	close(w.stopChan)
}

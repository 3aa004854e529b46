package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/ipaas-org/airflow-publisher/controller"
	"github.com/ipaas-org/airflow-publisher/model"
	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

var ErrConnectionClosed = errors.New("rabbitmq connection closed")

type RabbitMQ struct {
	l                 *logrus.Logger
	Connection        *amqp.Connection
	Channel           *amqp.Channel
	Delivery          <-chan amqp.Delivery
	closed            chan *amqp.Error
	uri               string
	requestQueueName  string
	responseQueueName string
	Controller        controller.PublisherController
}

func NewRabbitMQ(uri, requestQueue, responseQueue string, controller controller.PublisherController, logger *logrus.Logger) *RabbitMQ {
	return &RabbitMQ{
		uri:               uri,
		l:                 logger,
		requestQueueName:  requestQueue,
		responseQueueName: responseQueue,
		Controller:        controller,
	}
}

func (r *RabbitMQ) Connect() error {
	r.l.Info("connecting to rabbitmq")
	var err error
	r.Connection, err = amqp.Dial(r.uri)
	if err != nil {
		return fmt.Errorf("ampq.Dial: %w", err)
	}
	r.closed = r.Connection.NotifyClose(make(chan *amqp.Error, 1))

	r.Channel, err = r.Connection.Channel()
	if err != nil {
		return fmt.Errorf("r.Connection.Channel: %w", err)
	}

	// one publication at a time
	if err = r.Channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("r.Channel.Qos: %w", err)
	}

	if _, err = r.Channel.QueueDeclare(
		r.responseQueueName, // name
		true,                // durable
		false,               // delete when unused
		false,               // exclusive
		false,               // no-wait
		nil,                 // arguments
	); err != nil {
		return fmt.Errorf("r.Channel.QueueDeclare: %w", err)
	}

	q, err := r.Channel.QueueDeclare(
		r.requestQueueName, // name
		true,               // durable
		false,              // delete when unused
		false,              // exclusive
		false,              // no-wait
		nil,                // arguments
	)
	if err != nil {
		return fmt.Errorf("r.Channel.QueueDeclare: %w", err)
	}

	r.Delivery, err = r.Channel.Consume(
		q.Name, // queue
		"",     // consumer
		false,  // auto-ack
		false,  // exclusive
		false,  // no-local
		false,  // no-wait
		nil,    // args
	)
	if err != nil {
		return fmt.Errorf("r.Channel.Consume: %w", err)
	}

	return nil
}

func (r *RabbitMQ) Close() error {
	if r.Channel != nil {
		if err := r.Channel.Close(); err != nil {
			return fmt.Errorf("r.Channel.Close: %w", err)
		}
	}
	if r.Connection != nil && !r.Connection.IsClosed() {
		if err := r.Connection.Close(); err != nil {
			return fmt.Errorf("r.Connection.Close: %w", err)
		}
	}
	return nil
}

// Consume handles publish requests until ctx is done or the connection drops.
func (r *RabbitMQ) Consume(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			r.l.Info("stopping rabbitmq consumer, context cancelled")
			return nil
		case amqpErr := <-r.closed:
			if amqpErr != nil {
				return fmt.Errorf("%w: %v", ErrConnectionClosed, amqpErr)
			}
			return ErrConnectionClosed
		case d, ok := <-r.Delivery:
			if !ok {
				return ErrConnectionClosed
			}
			r.l.Info("received message from rabbitmq")
			r.l.Debug(string(d.Body))

			response := r.Handle(ctx, d.Body)
			r.SendResponse(response)

			// no retries: every request is answered exactly once
			if err := d.Ack(false); err != nil {
				r.l.Errorf("r.Consume.Ack(): %v", err)
			}
		}
	}
}

// Handle runs one publish request and builds its response.
func (r *RabbitMQ) Handle(ctx context.Context, body []byte) model.PublishResponse {
	var response model.PublishResponse
	response.Status = model.ResponseStatusFailed

	var request model.PublishRequest
	if err := json.Unmarshal(body, &request); err != nil {
		r.l.Errorf("r.Handle.json.Unmarshal(): %v", err)
		response.RequestID = uuid.NewString()
		response.Error = &model.PublishError{Step: model.StepValidate, Message: err.Error()}
		return response
	}
	response.RequestID = request.RequestID
	if response.RequestID == "" {
		response.RequestID = uuid.NewString()
	}
	response.Role = request.Role

	role, err := model.ParseRole(request.Role)
	if err != nil {
		r.l.Errorf("request %s: %v: %q", response.RequestID, err, request.Role)
		response.Error = &model.PublishError{Step: model.StepValidate, Message: fmt.Sprintf("%v: %q", err, request.Role)}
		return response
	}

	publication, err := r.Controller.PublishRole(ctx, role)
	if publication != nil {
		response.PublicationID = publication.ID
		response.RemoteRef = publication.RemoteRef
		response.ImageID = publication.ImageID
		response.Digest = publication.Digest
	}
	if err != nil {
		r.l.Errorf("r.Controller.PublishRole(): %v", err)
		step, ok := controller.FailedStep(err)
		if !ok {
			step = model.StepValidate
		}
		response.Error = &model.PublishError{Step: step, Message: err.Error()}
		return response
	}

	response.Status = model.ResponseStatusSuccess
	r.l.Infof("image %s published successfully", response.RemoteRef)
	return response
}

func (r *RabbitMQ) SendResponse(response model.PublishResponse) {
	r.l.Info("sending response to rabbitmq")
	r.l.Debug(response)

	body, err := json.Marshal(response)
	if err != nil {
		r.l.Errorf("r.SendResponse.json.Marshal(): %v", err)
		return
	}

	if err := r.Channel.Publish(
		"",                  // exchange
		r.responseQueueName, // routing key
		false,               // mandatory
		false,               // immediate
		amqp.Publishing{
			ContentType:   "application/json",
			CorrelationId: response.RequestID,
			Body:          body,
		}); err != nil {
		r.l.Errorf("r.SendResponse.Channel.Publish(): %v", err)
		return
	}

	r.l.Info("response sent to rabbitmq")
}

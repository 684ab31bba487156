package hub

import (
	"context"

	"socketWhiteboard/internal/models/broker"
)

// LocalBroker fans out within this process. Publish returns after every local member was written to.
type LocalBroker struct {
	handler func(broker.PublishedMessage)
}

func NewLocalBroker(handler func(broker.PublishedMessage)) *LocalBroker {
	return &LocalBroker{handler: handler}
}

func (lb *LocalBroker) Publish(_ context.Context, message broker.PublishedMessage) error {
	lb.handler(message)
	return nil
}

package broker

import (
	"socketWhiteboard/internal/models"
)

// PublishedMessage is what travels through a Broker. Exclude names a connection that must not
// receive the event (the joiner of a join announcement); empty means every member.
type PublishedMessage struct {
	Room    string             `json:"room"`
	Exclude string             `json:"exclude,omitempty"`
	Event   models.SocketEvent `json:"event"`
}

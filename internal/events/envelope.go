package events

import (
	"strings"
	"time"

	"github.com/goliatone/go-storefront/auth"
)

const (
	// MetadataKeyRole stores the role of the user the event refers to
	MetadataKeyRole = "role"

	defaultChannel    = "storefront"
	defaultObjectType = "user"
	defaultActorID    = "system"
)

// Envelope is the transport shape of an activity event on the exchange
type Envelope struct {
	ActorID    string         `json:"actor_id"`
	Verb       string         `json:"verb"`
	ObjectType string         `json:"object_type,omitempty"`
	ObjectID   string         `json:"object_id,omitempty"`
	Channel    string         `json:"channel,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Option customizes how events are wrapped
type Option func(*envelopeOptions)

type envelopeOptions struct {
	channel       string
	objectType    string
	actorFallback string
}

func WithChannel(channel string) Option {
	return func(opts *envelopeOptions) {
		opts.channel = strings.TrimSpace(channel)
	}
}

func WithObjectType(objectType string) Option {
	return func(opts *envelopeOptions) {
		opts.objectType = strings.TrimSpace(objectType)
	}
}

// WithActorFallback sets the actor id used when the event has no user
func WithActorFallback(actorID string) Option {
	return func(opts *envelopeOptions) {
		opts.actorFallback = strings.TrimSpace(actorID)
	}
}

// Wrap converts an activity event into an Envelope
func Wrap(event auth.ActivityEvent, opts ...Option) Envelope {
	options := envelopeOptions{
		channel:       defaultChannel,
		objectType:    defaultObjectType,
		actorFallback: defaultActorID,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	userID := strings.TrimSpace(event.UserID)
	actorID := userID
	if actorID == "" {
		actorID = options.actorFallback
	}

	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	return Envelope{
		ActorID:    actorID,
		Verb:       string(event.EventType),
		ObjectType: options.objectType,
		ObjectID:   userID,
		Channel:    options.channel,
		Metadata:   metadata(event),
		OccurredAt: occurredAt,
	}
}

func metadata(event auth.ActivityEvent) map[string]any {
	if len(event.Metadata) == 0 && event.Role == "" {
		return nil
	}

	out := make(map[string]any, len(event.Metadata)+1)
	for key, value := range event.Metadata {
		out[key] = value
	}
	if event.Role != "" {
		if _, exists := out[MetadataKeyRole]; !exists {
			out[MetadataKeyRole] = string(event.Role)
		}
	}
	return out
}

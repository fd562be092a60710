// Package events publishes record change notifications emitted by the
// generated views after a successful create, update or delete.
package events

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-crudgen/pkg/model"
)

// Action names used as the last topic segment.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// TopicPrefix is the leading topic segment of every change event.
const TopicPrefix = "crudgen"

// Topic returns "crudgen.<app>_<model>.<action>".
func Topic(m *model.Model, action string) string {
	return TopicPrefix + "." + m.Table() + "." + strings.ToLower(action)
}

// AllTopics matches every change event.
const AllTopics = TopicPrefix + ".>"

// Change is the payload of every change event.
type Change struct {
	Model   string         `json:"model"`
	Action  string         `json:"action"`
	PK      int64          `json:"pk"`
	Values  map[string]any `json:"values,omitempty"`
	OwnerPK *int64         `json:"owner_pk,omitempty"`
	At      time.Time      `json:"at"`
}

// NewChange builds the payload for obj. Deleted records carry no values.
func NewChange(obj *model.Object, action string, owner *model.Object) Change {
	change := Change{
		Model:  obj.Model.Qualified(),
		Action: action,
		PK:     obj.PK,
		At:     time.Now().UTC(),
	}
	if action != ActionDeleted {
		change.Values = obj.Values()
	}
	if owner != nil {
		pk := owner.PK
		change.OwnerPK = &pk
	}
	return change
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}

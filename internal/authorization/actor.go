package authorization

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
)

// ActorType represents who is calling into the billing engine.
type ActorType string

const (
	ActorTypeSystem   ActorType = "system"
	ActorTypeLandlord ActorType = "landlord"
	ActorTypeTenant   ActorType = "tenant"
)

// Actor is the explicit caller identity passed into every operation.
type Actor struct {
	Type ActorType
	ID   snowflake.ID
}

// System is the actor used by the scheduler and one-shot CLI commands.
func System() Actor {
	return Actor{Type: ActorTypeSystem}
}

func Landlord(id snowflake.ID) Actor {
	return Actor{Type: ActorTypeLandlord, ID: id}
}

func Tenant(id snowflake.ID) Actor {
	return Actor{Type: ActorTypeTenant, ID: id}
}

func (a Actor) IsSystem() bool { return a.Type == ActorTypeSystem }

func (a Actor) Validate() error {
	switch a.Type {
	case ActorTypeSystem:
		return nil
	case ActorTypeLandlord, ActorTypeTenant:
		if a.ID == 0 {
			return ErrInvalidActor
		}
		return nil
	default:
		return ErrInvalidActor
	}
}

// String renders "system", "landlord:<id>" or "tenant:<id>".
func (a Actor) String() string {
	if a.Type == ActorTypeSystem {
		return string(ActorTypeSystem)
	}
	return fmt.Sprintf("%s:%s", a.Type, a.ID.String())
}

// ParseActor is the inverse of Actor.String.
func ParseActor(raw string) (Actor, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == string(ActorTypeSystem) {
		return System(), nil
	}
	kind, rawID, ok := strings.Cut(raw, ":")
	if !ok {
		return Actor{}, ErrInvalidActor
	}
	id, err := snowflake.ParseString(strings.TrimSpace(rawID))
	if err != nil || id == 0 {
		return Actor{}, ErrInvalidActor
	}
	actor := Actor{Type: ActorType(kind), ID: id}
	if err := actor.Validate(); err != nil {
		return Actor{}, err
	}
	return actor, nil
}

package authorization

import (
	"context"

	"go.uber.org/zap"
)

type rule struct {
	object string
	actors []ActorType
}

// Landlords own their leases and payments; tenants may read and pay their
// own payments and nothing else.
var rules = map[string]rule{
	ActionBillingGenerate: {object: ObjectBilling, actors: []ActorType{ActorTypeSystem, ActorTypeLandlord}},
	ActionPaymentCreate:   {object: ObjectPayment, actors: []ActorType{ActorTypeSystem, ActorTypeLandlord}},
	ActionPaymentRead:     {object: ObjectPayment, actors: []ActorType{ActorTypeSystem, ActorTypeLandlord, ActorTypeTenant}},
	ActionPaymentSubmit:   {object: ObjectPayment, actors: []ActorType{ActorTypeSystem, ActorTypeTenant}},
	ActionPaymentDelete:   {object: ObjectPayment, actors: []ActorType{ActorTypeSystem, ActorTypeLandlord}},
}

type ServiceImpl struct {
	log *zap.Logger
}

func NewService(log *zap.Logger) Service {
	return &ServiceImpl{log: log.Named("authorization.service")}
}

func (s *ServiceImpl) Authorize(ctx context.Context, actor Actor, resource Resource, action string) error {
	if err := actor.Validate(); err != nil {
		return err
	}
	r, ok := rules[action]
	if !ok {
		return ErrInvalidAction
	}
	if resource.Object != r.object {
		return ErrInvalidObject
	}
	if !allowed(r.actors, actor.Type) {
		return s.deny(actor, resource, action)
	}

	switch actor.Type {
	case ActorTypeSystem:
		return nil
	case ActorTypeLandlord:
		if resource.LandlordID != 0 && resource.LandlordID != actor.ID {
			return s.deny(actor, resource, action)
		}
	case ActorTypeTenant:
		if resource.TenantID == 0 || resource.TenantID != actor.ID {
			return s.deny(actor, resource, action)
		}
	}
	return nil
}

func (s *ServiceImpl) deny(actor Actor, resource Resource, action string) error {
	s.log.Debug("authorization denied",
		zap.String("actor", actor.String()),
		zap.String("object", resource.Object),
		zap.String("action", action),
	)
	return ErrForbidden
}

func allowed(actors []ActorType, actorType ActorType) bool {
	for _, candidate := range actors {
		if candidate == actorType {
			return true
		}
	}
	return false
}

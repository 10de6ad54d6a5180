package tenant

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pavitra93/gym-billing-system/shared/errs"
	"github.com/pavitra93/gym-billing-system/shared/models"
)

// Actor identifies who is acting inside a scope
type Actor struct {
	UserID string
	Origin string
}

// SystemActor is used by scheduled jobs
var SystemActor = Actor{UserID: "system:scheduler"}

// Scope is a resolved tenant. Only Directory constructs one, so holding a
// Scope means the gym exists.
type Scope struct {
	gym   models.Gym
	actor Actor
}

func (s Scope) GymID() uuid.UUID { return s.gym.ID }

// Gym returns the gym as it was when the scope was resolved
func (s Scope) Gym() models.Gym { return s.gym }

func (s Scope) Actor() Actor { return s.actor }

// Valid reports whether the scope came from a Directory
func (s Scope) Valid() bool { return s.gym.ID != uuid.Nil }

// Owns rejects an entity that belongs to another gym
func (s Scope) Owns(entity string, id, gymID uuid.UUID) error {
	if !s.Valid() {
		return errs.Invalid("gym", "scope is not resolved")
	}
	if gymID == s.gym.ID {
		return nil
	}
	logrus.WithFields(logrus.Fields{
		"gym_id":       s.gym.ID,
		"entity":       entity,
		"entity_id":    id,
		"entity_gym":   gymID,
		"actor":        s.actor.UserID,
		"actor_origin": s.actor.Origin,
	}).Error("cross-tenant reference rejected")
	return &errs.TenantIsolationError{Entity: entity, ID: id, GymID: s.gym.ID}
}

// Activity builds an activity entry attributed to the scope's actor
func (s Scope) Activity(action models.ActivityAction, description string) models.ActivityLog {
	return models.ActivityLog{
		GymID:       s.gym.ID,
		Actor:       s.actor.UserID,
		Action:      action,
		Description: description,
		IPAddress:   s.actor.Origin,
	}
}

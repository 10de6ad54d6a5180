// Package tenant resolves the gym every billing operation acts on.
package tenant

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/pavitra93/gym-billing-system/shared/errs"
	"github.com/pavitra93/gym-billing-system/shared/models"
)

// GymStore is the slice of the repository the directory needs
type GymStore interface {
	CreateGym(ctx context.Context, gym *models.Gym) error
	GetGym(ctx context.Context, gymID uuid.UUID) (*models.Gym, error)
	UpdateGym(ctx context.Context, gym *models.Gym) error
	ListGyms(ctx context.Context) ([]models.Gym, error)
}

// Directory resolves gym ids into scopes
type Directory struct {
	gyms               GymStore
	defaultCountryCode string
}

// NewDirectory creates a directory. defaultCountryCode is applied to gyms onboarded without one.
func NewDirectory(gyms GymStore, defaultCountryCode string) *Directory {
	if defaultCountryCode == "" {
		defaultCountryCode = "91"
	}
	return &Directory{gyms: gyms, defaultCountryCode: defaultCountryCode}
}

// Resolve loads the gym and binds it to actor
func (d *Directory) Resolve(ctx context.Context, gymID uuid.UUID, actor Actor) (Scope, error) {
	if gymID == uuid.Nil {
		return Scope{}, errs.Invalid("gym_id", "is required")
	}
	gym, err := d.gyms.GetGym(ctx, gymID)
	if err != nil {
		return Scope{}, err
	}
	return Scope{gym: *gym, actor: actor}, nil
}

// GymInput is the editable profile of a gym
type GymInput struct {
	Name                 string `json:"name"`
	Address              string `json:"address"`
	City                 string `json:"city"`
	State                string `json:"state"`
	Pincode              string `json:"pincode"`
	Phone                string `json:"phone"`
	Email                string `json:"email"`
	CountryCode          string `json:"country_code"`
	WhatsAppEnabled      *bool  `json:"whatsapp_enabled"`
	AutoRemindersEnabled *bool  `json:"auto_reminders_enabled"`
}

func (in GymInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return errs.Invalid("name", "is required")
	}
	for _, c := range in.CountryCode {
		if c < '0' || c > '9' {
			return errs.Invalid("country_code", "must be digits only")
		}
	}
	return nil
}

func (in GymInput) apply(g *models.Gym) {
	g.Name = strings.TrimSpace(in.Name)
	g.Address, g.City, g.State, g.Pincode = in.Address, in.City, in.State, in.Pincode
	g.Phone, g.Email = in.Phone, in.Email
	if in.CountryCode != "" {
		g.CountryCode = in.CountryCode
	}
	if in.WhatsAppEnabled != nil {
		g.WhatsAppEnabled = *in.WhatsAppEnabled
	}
	if in.AutoRemindersEnabled != nil {
		g.AutoRemindersEnabled = *in.AutoRemindersEnabled
	}
}

// Onboard creates a gym. Messaging and automatic reminders start enabled.
func (d *Directory) Onboard(ctx context.Context, in GymInput) (*models.Gym, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	gym := &models.Gym{
		CountryCode:          d.defaultCountryCode,
		WhatsAppEnabled:      true,
		AutoRemindersEnabled: true,
	}
	in.apply(gym)
	if err := d.gyms.CreateGym(ctx, gym); err != nil {
		return nil, fmt.Errorf("failed to create gym: %w", err)
	}
	return gym, nil
}

// Update replaces the profile and settings of the scoped gym
func (d *Directory) Update(ctx context.Context, scope Scope, in GymInput) (*models.Gym, error) {
	if !scope.Valid() {
		return nil, errs.Invalid("gym", "scope is not resolved")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	gym, err := d.gyms.GetGym(ctx, scope.GymID())
	if err != nil {
		return nil, err
	}
	in.apply(gym)
	if err := d.gyms.UpdateGym(ctx, gym); err != nil {
		return nil, fmt.Errorf("failed to update gym: %w", err)
	}
	return gym, nil
}

// AutoReminderScopes resolves every gym that opted into scheduled reminders
func (d *Directory) AutoReminderScopes(ctx context.Context, actor Actor) ([]Scope, error) {
	gyms, err := d.gyms.ListGyms(ctx)
	if err != nil {
		return nil, err
	}
	var scopes []Scope
	for _, g := range gyms {
		if g.AutoRemindersEnabled {
			scopes = append(scopes, Scope{gym: g, actor: actor})
		}
	}
	return scopes, nil
}

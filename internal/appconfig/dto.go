package appconfig

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/frahmantamala/benefits-portal/internal"
)

type PatchDTO struct {
	AllowedDomains           *string `json:"allowed_domains,omitempty"`
	AllowedEmails            *string `json:"allowed_emails,omitempty"`
	AdminEmails              *string `json:"admin_emails,omitempty"`
	TeamEmails               *string `json:"team_emails,omitempty"`
	ReminderDaysBefore       *int    `json:"reminder_days_before,omitempty" validate:"omitempty,min=0,max=30"`
	ReminderDailyHour        *int    `json:"reminder_daily_hour,omitempty" validate:"omitempty,min=0,max=23"`
	ReminderD3Enabled        *bool   `json:"reminder_d3_enabled,omitempty"`
	ReminderD1Enabled        *bool   `json:"reminder_d1_enabled,omitempty"`
	ReminderD0Enabled        *bool   `json:"reminder_d0_enabled,omitempty"`
	ReminderOverdueEnabled   *bool   `json:"reminder_overdue_enabled,omitempty"`
	ReminderOverdueEveryDays *int    `json:"reminder_overdue_every_days,omitempty" validate:"omitempty,min=1,max=30"`
	Timezone                 *string `json:"timezone,omitempty"`
}

var validate = validator.New()

func (d PatchDTO) Validate() error {
	if err := validate.Struct(d); err != nil {
		return internal.NewValidationError("Dados de configuraaCaoo invaalidos", internal.ErrCodeValidationFailed).WithCause(err)
	}
	if d.Timezone != nil && *d.Timezone != "" {
		if _, err := time.LoadLocation(*d.Timezone); err != nil {
			return internal.NewValidationError("Timezone invaalida", internal.ErrCodeValidationFailed).WithCause(err)
		}
	}
	return nil
}

// Apply overlays the patch onto a config copy.
func (d PatchDTO) Apply(cfg Config) Config {
	if d.AllowedDomains != nil {
		cfg.AllowedDomains = *d.AllowedDomains
	}
	if d.AllowedEmails != nil {
		cfg.AllowedEmails = *d.AllowedEmails
	}
	if d.AdminEmails != nil {
		cfg.AdminEmails = *d.AdminEmails
	}
	if d.TeamEmails != nil {
		cfg.TeamEmails = *d.TeamEmails
	}
	if d.ReminderDaysBefore != nil {
		cfg.ReminderDaysBefore = *d.ReminderDaysBefore
	}
	if d.ReminderDailyHour != nil {
		cfg.ReminderDailyHour = *d.ReminderDailyHour
	}
	if d.ReminderD3Enabled != nil {
		cfg.ReminderD3Enabled = *d.ReminderD3Enabled
	}
	if d.ReminderD1Enabled != nil {
		cfg.ReminderD1Enabled = *d.ReminderD1Enabled
	}
	if d.ReminderD0Enabled != nil {
		cfg.ReminderD0Enabled = *d.ReminderD0Enabled
	}
	if d.ReminderOverdueEnabled != nil {
		cfg.ReminderOverdueEnabled = *d.ReminderOverdueEnabled
	}
	if d.ReminderOverdueEveryDays != nil {
		cfg.ReminderOverdueEveryDays = *d.ReminderOverdueEveryDays
	}
	if d.Timezone != nil {
		cfg.Timezone = *d.Timezone
	}
	return cfg
}

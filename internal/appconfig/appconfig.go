// Package appconfig holds the runtime-editable global configuration row
// (id="global"): reminder toggles, overdue cadence, team CC list and timezone.
package appconfig

import (
	"strconv"
	"time"

	"github.com/frahmantamala/benefits-portal/internal/rowstore"
)

const (
	GlobalID        = "global"
	DefaultTimezone = "America/Sao_Paulo"
)

type Config struct {
	ID                       string `json:"id"`
	AllowedDomains           string `json:"allowed_domains"`
	AllowedEmails            string `json:"allowed_emails"`
	AdminEmails              string `json:"admin_emails"`
	TeamEmails               string `json:"team_emails"`
	ReminderDaysBefore       int    `json:"reminder_days_before"`
	ReminderDailyHour        int    `json:"reminder_daily_hour"`
	ReminderD3Enabled        bool   `json:"reminder_d3_enabled"`
	ReminderD1Enabled        bool   `json:"reminder_d1_enabled"`
	ReminderD0Enabled        bool   `json:"reminder_d0_enabled"`
	ReminderOverdueEnabled   bool   `json:"reminder_overdue_enabled"`
	ReminderOverdueEveryDays int    `json:"reminder_overdue_every_days"`
	Timezone                 string `json:"timezone"`
	LastReminderRunAt        string `json:"last_reminder_run_at,omitempty"`
}

// Defaults is the schema-default singleton, returned when the row does not
// exist yet.
func Defaults() Config {
	return Config{
		ID:                       GlobalID,
		ReminderDaysBefore:       3,
		ReminderDailyHour:        9,
		ReminderD3Enabled:        true,
		ReminderD1Enabled:        true,
		ReminderD0Enabled:        true,
		ReminderOverdueEnabled:   true,
		ReminderOverdueEveryDays: 1,
		Timezone:                 DefaultTimezone,
	}
}

// Location resolves the configured timezone, falling back to the default and
// then UTC.
func (c Config) Location() *time.Location {
	tz := c.Timezone
	if tz == "" {
		tz = DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}

var Columns = []string{
	"id",
	"allowed_domains",
	"allowed_emails",
	"admin_emails",
	"team_emails",
	"reminder_days_before",
	"reminder_daily_hour",
	"reminder_d3_enabled",
	"reminder_d1_enabled",
	"reminder_d0_enabled",
	"reminder_overdue_enabled",
	"reminder_overdue_every_days",
	"timezone",
	"last_reminder_run_at",
}

func (c Config) ToRecord() rowstore.Record {
	return rowstore.Record{
		"id":                          GlobalID,
		"allowed_domains":             c.AllowedDomains,
		"allowed_emails":              c.AllowedEmails,
		"admin_emails":                c.AdminEmails,
		"team_emails":                 c.TeamEmails,
		"reminder_days_before":        strconv.Itoa(c.ReminderDaysBefore),
		"reminder_daily_hour":         strconv.Itoa(c.ReminderDailyHour),
		"reminder_d3_enabled":         strconv.FormatBool(c.ReminderD3Enabled),
		"reminder_d1_enabled":         strconv.FormatBool(c.ReminderD1Enabled),
		"reminder_d0_enabled":         strconv.FormatBool(c.ReminderD0Enabled),
		"reminder_overdue_enabled":    strconv.FormatBool(c.ReminderOverdueEnabled),
		"reminder_overdue_every_days": strconv.Itoa(c.ReminderOverdueEveryDays),
		"timezone":                    c.Timezone,
		"last_reminder_run_at":        c.LastReminderRunAt,
	}
}

func FromRecord(record rowstore.Record) Config {
	defaults := Defaults()
	return Config{
		ID:                       GlobalID,
		AllowedDomains:           record.Get("allowed_domains"),
		AllowedEmails:            record.Get("allowed_emails"),
		AdminEmails:              record.Get("admin_emails"),
		TeamEmails:               record.Get("team_emails"),
		ReminderDaysBefore:       parseInt(record.Get("reminder_days_before"), defaults.ReminderDaysBefore),
		ReminderDailyHour:        parseInt(record.Get("reminder_daily_hour"), defaults.ReminderDailyHour),
		ReminderD3Enabled:        parseBool(record.Get("reminder_d3_enabled"), defaults.ReminderD3Enabled),
		ReminderD1Enabled:        parseBool(record.Get("reminder_d1_enabled"), defaults.ReminderD1Enabled),
		ReminderD0Enabled:        parseBool(record.Get("reminder_d0_enabled"), defaults.ReminderD0Enabled),
		ReminderOverdueEnabled:   parseBool(record.Get("reminder_overdue_enabled"), defaults.ReminderOverdueEnabled),
		ReminderOverdueEveryDays: parseInt(record.Get("reminder_overdue_every_days"), defaults.ReminderOverdueEveryDays),
		Timezone:                 nonEmpty(record.Get("timezone"), defaults.Timezone),
		LastReminderRunAt:        record.Get("last_reminder_run_at"),
	}
}

func parseInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseBool(value string, fallback bool) bool {
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func nonEmpty(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/frahmantamala/benefits-portal/internal"
	"github.com/frahmantamala/benefits-portal/internal/appconfig"
	"github.com/frahmantamala/benefits-portal/internal/audit"
	"github.com/frahmantamala/benefits-portal/internal/mailer"
	"github.com/frahmantamala/benefits-portal/internal/payment"
	"github.com/frahmantamala/benefits-portal/internal/rowstore"
)

type Outcome struct {
	PaymentID    string `json:"paymentId"`
	ReminderType Type   `json:"reminderType"`
	Status       string `json:"status"`
}

type Summary struct {
	Date    string    `json:"date"`
	Total   int       `json:"total"`
	Results []Outcome `json:"results"`
}

// sentSnapshot is what the audit entry records for a successful send.
type sentSnapshot struct {
	ReminderType Type   `json:"reminderType"`
	SentAt       string `json:"sent_at"`
	To           string `json:"to"`
}

type runMetadata struct {
	ReminderType Type `json:"reminderType"`
}

// Engine runs the daily pass: classify every unpaid payment against today,
// dedup against the ledger, send, and record every attempt. Failures are per
// payment; the pass always completes.
type Engine struct {
	store    rowstore.CachedStore
	sender   mailer.Sender
	recorder *audit.Recorder
	configs  *appconfig.Service
	logger   *slog.Logger
	baseURL  string
}

func NewEngine(
	store rowstore.CachedStore,
	sender mailer.Sender,
	recorder *audit.Recorder,
	configs *appconfig.Service,
	logger *slog.Logger,
	baseURL string,
) *Engine {
	return &Engine{
		store:    store,
		sender:   sender,
		recorder: recorder,
		configs:  configs,
		logger:   logger,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

var systemActor = internal.Actor{Email: "system", Role: internal.RoleAdmin}

func (e *Engine) Run(ctx context.Context) (Summary, error) {
	cfg, err := e.configs.Get(ctx)
	if err != nil {
		return Summary{}, err
	}

	loc := cfg.Location()
	now := time.Now().In(loc)
	todayKey := now.Format("2006-01-02")

	paymentRows, err := e.store.GetRows(ctx, rowstore.TablePayments)
	if err != nil {
		return Summary{}, err
	}
	ledgerRows, err := e.store.GetRows(ctx, rowstore.TableReminderLedger)
	if err != nil {
		return Summary{}, err
	}

	dedup := seedDedupIndex(ledgerRows, todayKey)
	teamCc := internal.SplitEmails(cfg.TeamEmails)

	summary := Summary{Date: todayKey, Results: []Outcome{}}

	for _, row := range paymentRows {
		p := payment.FromRecord(row)
		p.Status = payment.ComputeAutoStatus(p.DueDate, p.Status, now)
		if p.Status == payment.StatusPago {
			continue
		}

		reminderType, ok := Classify(p.DueDate, now, cfg)
		if !ok {
			continue
		}

		if p.OwnerEmail == "" {
			summary.Results = append(summary.Results, Outcome{
				PaymentID:    p.ID,
				ReminderType: reminderType,
				Status:       OutcomeSkippedNoOwner,
			})
			continue
		}

		key := dedupKey(p.ID, reminderType, todayKey)
		if dedup[key] {
			summary.Results = append(summary.Results, Outcome{
				PaymentID:    p.ID,
				ReminderType: reminderType,
				Status:       OutcomeSkippedAlreadySent,
			})
			continue
		}

		message := e.compose(p, reminderType, teamCc)
		sentAt := time.Now().UTC().Format(time.RFC3339)
		sentTo := strings.Join(append([]string{p.OwnerEmail}, teamCc...), ",")

		entry := Entry{
			ID:          uuid.NewString(),
			PaymentID:   p.ID,
			DueDate:     p.DueDate,
			StatusAtRun: string(p.Status),
			Type:        reminderType,
			SentTo:      sentTo,
			SentAt:      sentAt,
			RunID:       todayKey,
		}

		if sendErr := e.sender.Send(ctx, message); sendErr != nil {
			e.logger.Error("reminder send failed",
				"payment_id", p.ID, "reminder_type", reminderType, "error", sendErr)

			entry.Result = ResultFailed
			entry.Error = sendErr.Error()
			if err := e.store.AppendRow(ctx, rowstore.TableReminderLedger, entry.ToRecord()); err != nil {
				e.logger.Error("failed to append ledger row", "payment_id", p.ID, "error", err)
			}
			summary.Results = append(summary.Results, Outcome{
				PaymentID:    p.ID,
				ReminderType: reminderType,
				Status:       OutcomeFailed,
			})
			continue
		}

		entry.Result = ResultSent
		if err := e.store.AppendRow(ctx, rowstore.TableReminderLedger, entry.ToRecord()); err != nil {
			e.logger.Error("failed to append ledger row", "payment_id", p.ID, "error", err)
		}

		if err := e.recorder.Record(ctx, audit.Change{
			EntityType: audit.EntityReminderRun,
			EntityID:   p.ID,
			Action:     audit.ActionRun,
			After:      sentSnapshot{ReminderType: reminderType, SentAt: sentAt, To: p.OwnerEmail},
			Actor:      systemActor,
			Metadata:   runMetadata{ReminderType: reminderType},
		}); err != nil {
			e.logger.Error("failed to append audit entry", "payment_id", p.ID, "error", err)
		}

		dedup[key] = true
		summary.Results = append(summary.Results, Outcome{
			PaymentID:    p.ID,
			ReminderType: reminderType,
			Status:       OutcomeSent,
		})
	}

	summary.Total = len(summary.Results)

	if err := e.configs.StampLastReminderRun(ctx, now); err != nil {
		e.logger.Warn("failed to stamp last reminder run", "error", err)
	}

	e.logger.Info("reminder pass finished", "date", todayKey, "total", summary.Total)
	return summary, nil
}

// Classify decides which reminder, if any, a payment gets today. Precedence
// D-3, D-1, D0, OVERDUE; at most one type per payment per pass. OVERDUE fires
// only on multiples of the configured frequency.
func Classify(dueDate string, now time.Time, cfg appconfig.Config) (Type, bool) {
	if dueDate == "" {
		return "", false
	}
	due, err := payment.ParseDueDate(dueDate, now.Location())
	if err != nil {
		return "", false
	}

	daysDiff := calendarDays(now, due)

	switch {
	case daysDiff == 3 && cfg.ReminderD3Enabled:
		return TypeD3, true
	case daysDiff == 1 && cfg.ReminderD1Enabled:
		return TypeD1, true
	case daysDiff == 0 && cfg.ReminderD0Enabled:
		return TypeD0, true
	case daysDiff < 0 && cfg.ReminderOverdueEnabled:
		frequency := cfg.ReminderOverdueEveryDays
		if frequency < 1 {
			frequency = 1
		}
		if -daysDiff%frequency == 0 {
			return TypeOverdue, true
		}
	}
	return "", false
}

// calendarDays is the whole-day difference between now's calendar day and the
// target date, positive when target is in the future. DST shifts are absorbed
// by rounding.
func calendarDays(now, target time.Time) int {
	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	startOfTarget := time.Date(target.Year(), target.Month(), target.Day(), 0, 0, 0, 0, target.Location())
	return int(math.Round(startOfTarget.Sub(startOfToday).Hours() / 24))
}

func dedupKey(paymentID string, reminderType Type, dayKey string) string {
	return paymentID + "-" + string(reminderType) + "-" + dayKey
}

// seedDedupIndex indexes today's SENT rows only. FAILED rows stay out so a
// later run on the same day retries them.
func seedDedupIndex(ledgerRows []rowstore.Record, todayKey string) map[string]bool {
	index := make(map[string]bool)
	for _, row := range ledgerRows {
		entry := FromRecord(row)
		if entry.PaymentID == "" || entry.Type == "" || entry.SentAt == "" {
			continue
		}
		if entry.Result != ResultSent {
			continue
		}
		dayKey := entry.SentAt
		if len(dayKey) > 10 {
			dayKey = dayKey[:10]
		}
		if dayKey != todayKey {
			continue
		}
		index[dedupKey(entry.PaymentID, entry.Type, dayKey)] = true
	}
	return index
}

func (e *Engine) compose(p payment.Payment, reminderType Type, teamCc []string) mailer.Message {
	detailsURL := e.baseURL
	if p.ID != "" {
		detailsURL = fmt.Sprintf("%s/beneficios/pagamentos/%s", e.baseURL, p.ID)
	}

	subject := fmt.Sprintf("[Beneficios] Lembrete %s - %s", reminderType, orDash(p.Category))
	body := strings.Join([]string{
		fmt.Sprintf("Ola %s,", p.OwnerName),
		"",
		fmt.Sprintf("Este e um lembrete para o pagamento do ticket %s.", orDash(p.TicketNumber)),
		fmt.Sprintf("Categoria: %s", orDash(p.Category)),
		fmt.Sprintf("Fornecedor: %s", orDash(p.Provider)),
		fmt.Sprintf("Competencia: %s", orDash(p.Competence)),
		fmt.Sprintf("Vencimento: %s", orDash(p.DueDate)),
		fmt.Sprintf("Status: %s", orDash(string(p.Status))),
		"",
		fmt.Sprintf("Acesse o detalhe: %s", detailsURL),
		"",
		"Obrigado.",
	}, "\n")

	return mailer.Message{
		To:      []string{p.OwnerEmail},
		Cc:      teamCc,
		Subject: subject,
		Body:    body,
	}
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}

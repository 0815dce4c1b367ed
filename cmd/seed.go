package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/frahmantamala/benefits-portal/internal/appconfig"
	"github.com/frahmantamala/benefits-portal/internal/audit"
	"github.com/frahmantamala/benefits-portal/internal/card"
	"github.com/frahmantamala/benefits-portal/internal/payment"
	"github.com/frahmantamala/benefits-portal/internal/person"
	"github.com/frahmantamala/benefits-portal/internal/reminder"
	"github.com/frahmantamala/benefits-portal/internal/rowstore"
	sheetstore "github.com/frahmantamala/benefits-portal/internal/rowstore/sheets"

	allocationpkg "github.com/frahmantamala/benefits-portal/internal/allocation"
	loadpkg "github.com/frahmantamala/benefits-portal/internal/load"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Prepare the row store",
	Long:  `Create the tables and header rows the portal expects, optionally with demo data.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runSeed(); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
	},
}

// tableHeaders maps every table to its header row.
func tableHeaders() map[string][]string {
	return map[string][]string{
		rowstore.TablePayments:       payment.Columns,
		rowstore.TableAuditLog:       audit.Columns,
		rowstore.TableReminderLedger: reminder.LedgerColumns,
		rowstore.TableConfig:         appconfig.Columns,
		rowstore.TableCards:          card.Columns,
		rowstore.TableEvents:         card.EventColumns,
		rowstore.TableAttachments:    card.AttachmentColumns,
		rowstore.TablePeople:         person.Columns,
		rowstore.TableAllocations:    allocationpkg.Columns,
		rowstore.TableLoads:          loadpkg.Columns,
	}
}

func runSeed() error {
	cfg, err := loadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store, db, err := initStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize row store: %w", err)
	}
	if db != nil {
		defer db.Close()
	}

	// Only the spreadsheet backend keeps physical header rows.
	if sheets, ok := store.(*sheetstore.Store); ok {
		if err := sheets.EnsureTables(ctx, tableHeaders()); err != nil {
			return err
		}
		fmt.Println("Ensured spreadsheet tabs and headers")
	}

	if !seedDemo {
		return nil
	}

	now := time.Now().UTC().Format(time.RFC3339)
	seededBy := "seed@localhost"

	people := []person.Person{
		{ID: uuid.NewString(), Nome: "Maria Souza", ChapaMatricula: "C-1001", Marca: "Matriz", Unidade: "Sao Paulo", Status: person.StatusAtivo, CreatedAt: now, CreatedBy: seededBy},
		{ID: uuid.NewString(), Nome: "Joao Lima", ChapaMatricula: "C-1002", Marca: "Matriz", Unidade: "Campinas", Status: person.StatusAtivo, CreatedAt: now, CreatedBy: seededBy},
	}
	for _, p := range people {
		if err := store.AppendRow(ctx, rowstore.TablePeople, p.ToRecord()); err != nil {
			return err
		}
	}

	cards := []card.Card{
		{ID: uuid.NewString(), NumeroCartao: "5078 6000 0000 0001", Marca: "Matriz", Unidade: "Sao Paulo", Status: card.StatusEstoque, CreatedAt: now, CreatedBy: seededBy},
		{ID: uuid.NewString(), NumeroCartao: "5078 6000 0000 0002", Marca: "Matriz", Unidade: "Campinas", Status: card.StatusEstoque, CreatedAt: now, CreatedBy: seededBy},
	}
	for _, c := range cards {
		if err := store.AppendRow(ctx, rowstore.TableCards, c.ToRecord()); err != nil {
			return err
		}
	}

	dueDate := time.Now().AddDate(0, 0, 7).Format("2006-01-02")
	demoPayment := payment.Payment{
		ID:           uuid.NewString(),
		Category:     payment.CategoryPlanoSaude,
		Provider:     payment.ProviderUnimed,
		Competence:   time.Now().Format("2006-01"),
		TicketNumber: "BEN-0001",
		DueDate:      dueDate,
		Amount:       1520.40,
		Status:       payment.StatusEmAcompanhamento,
		OwnerName:    "Maria Souza",
		OwnerEmail:   seededBy,
		CreatedAt:    now,
	}
	if err := store.AppendRow(ctx, rowstore.TablePayments, demoPayment.ToRecord()); err != nil {
		return err
	}

	fmt.Println("Seeded demo rows:", len(people), "people,", len(cards), "cards, 1 payment")
	return nil
}

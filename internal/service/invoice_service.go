package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"invoicer/config"
	"invoicer/internal/events"
	"invoicer/internal/mail"
	"invoicer/internal/models"
	"invoicer/internal/repository"
	"invoicer/internal/urls"
)

// ItemInput describes one line item on create or update. A zero ID means a
// new item; a non-zero ID updates the existing row.
type ItemInput struct {
	ID           uint           `json:"id"`
	Label        string         `json:"label"`
	Body         string         `json:"body"`
	Unit         string         `json:"unit"`
	TaxID        *uint          `json:"tax_id"`
	Quantity     float64        `json:"quantity"`
	UnitCost     int64          `json:"unit_cost"`
	CallbackData models.JSONMap `json:"callback_data"`
}

// InvoiceInput describes an invoice on create or update.
type InvoiceInput struct {
	State        string         `json:"state"`
	Dated        *time.Time     `json:"dated"`
	Terms        int            `json:"terms"`
	CustomerID   *uint          `json:"customer_id"`
	Email        *string        `json:"email"`
	Currency     string         `json:"currency"`
	PaymentData  models.JSONMap `json:"payment_data"`
	CallbackData models.JSONMap `json:"callback_data"`
	Items        []ItemInput    `json:"items"`
}

type InvoiceService struct {
	invoices  *repository.InvoiceRepository
	customers *repository.CustomerRepository
	taxes     *repository.TaxRepository
	emails    *repository.InvoiceEmailRepository
	mailer    mail.Mailer
	urls      *urls.Builder
	events    events.Publisher
	cfg       config.InvoiceConfig
	log       zerolog.Logger
}

func NewInvoiceService(
	invoices *repository.InvoiceRepository,
	customers *repository.CustomerRepository,
	taxes *repository.TaxRepository,
	emails *repository.InvoiceEmailRepository,
	mailer mail.Mailer,
	urls *urls.Builder,
	events events.Publisher,
	cfg config.InvoiceConfig,
	log zerolog.Logger,
) *InvoiceService {
	return &InvoiceService{
		invoices:  invoices,
		customers: customers,
		taxes:     taxes,
		emails:    emails,
		mailer:    mailer,
		urls:      urls,
		events:    events,
		cfg:       cfg,
		log:       log,
	}
}

// Create validates and persists a new invoice with its items in one
// transaction, then returns it freshly loaded.
func (s *InvoiceService) Create(input InvoiceInput) (*models.Invoice, error) {
	invoice := &models.Invoice{}
	if err := s.applyInput(invoice, input); err != nil {
		return nil, err
	}

	if invoice.State == "" {
		invoice.State = models.InvoiceStateDraft
	}
	if invoice.State != models.InvoiceStateDraft && invoice.State != models.InvoiceStateOpen {
		return nil, fmt.Errorf("an invoice can only be created as DRAFT or OPEN, not %q", invoice.State)
	}
	if err := requireItems(invoice.State, len(input.Items)); err != nil {
		return nil, err
	}

	items, err := s.buildItems(input.Items, nil)
	if err != nil {
		return nil, err
	}
	invoiceTotals(invoice, items)

	invoice.Ref, err = newRef(s.invoices.RefExists)
	if err != nil {
		return nil, err
	}
	invoice.Token = newToken()

	err = s.invoices.DB().Transaction(func(tx *gorm.DB) error {
		if err := s.invoices.Create(tx, invoice); err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}
		for i := range items {
			items[i].InvoiceID = invoice.ID
			if err := s.invoices.CreateItem(tx, &items[i]); err != nil {
				return fmt.Errorf("create item %q: %w", items[i].Label, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	created, err := s.invoices.GetByID(invoice.ID)
	if err != nil {
		return nil, err
	}
	s.events.Publish(context.Background(), events.Event{Name: events.InvoiceCreated, Payload: created})
	return created, nil
}

// Update applies the input to an existing invoice. Items with known IDs are
// updated, unknown IDs are rejected, new items inserted, and anything
// missing from the input is removed.
func (s *InvoiceService) Update(id uint, input InvoiceInput) (*models.Invoice, error) {
	invoice, err := s.invoices.GetByID(id)
	if err != nil {
		return nil, err
	}

	switch invoice.State {
	case models.InvoiceStatePaid, models.InvoiceStateWrittenOff, models.InvoiceStateCancelled:
		return nil, fmt.Errorf("invoice %s is %s and can no longer be updated", invoice.Ref, invoice.State)
	}

	if err := s.applyInput(invoice, input); err != nil {
		return nil, err
	}
	if input.State != "" {
		invoice.State = input.State
	}
	if err := requireItems(invoice.State, len(input.Items)); err != nil {
		return nil, err
	}

	existing := map[uint]bool{}
	for _, item := range invoice.Items {
		existing[item.ID] = true
	}
	items, err := s.buildItems(input.Items, existing)
	if err != nil {
		return nil, err
	}
	invoiceTotals(invoice, items)

	err = s.invoices.DB().Transaction(func(tx *gorm.DB) error {
		var keep []uint
		for i := range items {
			items[i].InvoiceID = invoice.ID
			if items[i].ID == 0 {
				if err := s.invoices.CreateItem(tx, &items[i]); err != nil {
					return fmt.Errorf("create item %q: %w", items[i].Label, err)
				}
			} else {
				if err := s.invoices.SaveItem(tx, &items[i]); err != nil {
					return fmt.Errorf("update item %d: %w", items[i].ID, err)
				}
			}
			keep = append(keep, items[i].ID)
		}
		if err := s.invoices.DeleteItemsExcept(tx, invoice.ID, keep); err != nil {
			return fmt.Errorf("remove items: %w", err)
		}
		if err := s.invoices.Save(tx, invoice); err != nil {
			return fmt.Errorf("save invoice: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.invoices.GetByID(invoice.ID)
	if err != nil {
		return nil, err
	}
	s.events.Publish(context.Background(), events.Event{Name: events.InvoiceUpdated, Payload: updated})
	return updated, nil
}

// applyInput copies the scalar fields, enforcing the customer/email rules
// and the currency allow-list.
func (s *InvoiceService) applyInput(invoice *models.Invoice, input InvoiceInput) error {
	hasCustomer := input.CustomerID != nil && *input.CustomerID != 0
	hasEmail := input.Email != nil && strings.TrimSpace(*input.Email) != ""

	// Exactly one of customer or free-standing email.
	if hasCustomer && hasEmail {
		return fmt.Errorf("supply a customer or an email address, not both")
	}
	if !hasCustomer && !hasEmail {
		return fmt.Errorf("a customer or an email address is required")
	}

	if hasCustomer {
		if _, err := s.customers.GetByID(*input.CustomerID); err != nil {
			return fmt.Errorf("customer %d: %w", *input.CustomerID, err)
		}
		invoice.CustomerID = input.CustomerID
		invoice.Email = nil
	} else {
		email := strings.TrimSpace(*input.Email)
		if !strings.Contains(email, "@") {
			return fmt.Errorf("%q is not a valid email address", email)
		}
		invoice.Email = &email
		invoice.CustomerID = nil
	}

	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		return fmt.Errorf("a currency is required")
	}
	if !s.currencyEnabled(currency) {
		return fmt.Errorf("currency %q is not enabled", currency)
	}
	invoice.Currency = currency

	if input.Dated != nil {
		invoice.Dated = *input.Dated
	}
	if invoice.Dated.IsZero() {
		invoice.Dated = time.Now().Truncate(24 * time.Hour)
	}
	invoice.Terms = input.Terms
	if invoice.Terms <= 0 {
		invoice.Terms = s.cfg.DefaultTerms
	}
	invoice.Due = invoice.Dated.AddDate(0, 0, invoice.Terms)

	if input.PaymentData != nil {
		invoice.PaymentData = input.PaymentData
	}
	if input.CallbackData != nil {
		invoice.CallbackData = input.CallbackData
	}
	return nil
}

// requireItems enforces that only drafts may be empty. Anything issued has at
// least one line item, otherwise a zero-total invoice counts as paid the
// moment it exists.
func requireItems(state string, count int) error {
	if state != models.InvoiceStateDraft && count == 0 {
		return fmt.Errorf("a %s invoice needs at least one line item", state)
	}
	return nil
}

// buildItems validates the item inputs and computes their totals. existing,
// when non-nil, is the set of item IDs the invoice currently owns.
func (s *InvoiceService) buildItems(inputs []ItemInput, existing map[uint]bool) ([]models.InvoiceItem, error) {
	items := make([]models.InvoiceItem, 0, len(inputs))
	for i, in := range inputs {
		if strings.TrimSpace(in.Label) == "" {
			return nil, fmt.Errorf("item %d: a label is required", i+1)
		}
		if in.Quantity <= 0 {
			return nil, fmt.Errorf("item %q: quantity must be positive", in.Label)
		}
		if in.UnitCost < 0 {
			return nil, fmt.Errorf("item %q: unit cost cannot be negative", in.Label)
		}

		unit := in.Unit
		if unit == "" {
			unit = models.UnitNone
		}
		if _, ok := models.ItemUnits[unit]; !ok {
			return nil, fmt.Errorf("item %q: %q is not a valid unit", in.Label, unit)
		}

		rate := 0
		if in.TaxID != nil && *in.TaxID != 0 {
			tax, err := s.taxes.GetByID(*in.TaxID)
			if err != nil {
				return nil, fmt.Errorf("item %q: tax %d: %w", in.Label, *in.TaxID, err)
			}
			rate = tax.Rate
		}

		if in.ID != 0 && existing != nil && !existing[in.ID] {
			return nil, fmt.Errorf("item %d does not belong to this invoice", in.ID)
		}

		item := models.InvoiceItem{
			ID:           in.ID,
			Label:        in.Label,
			Body:         in.Body,
			Order:        i,
			Unit:         unit,
			TaxID:        in.TaxID,
			Quantity:     in.Quantity,
			UnitCost:     in.UnitCost,
			CallbackData: in.CallbackData,
		}
		lineTotals(&item, rate)
		items = append(items, item)
	}
	return items, nil
}

func (s *InvoiceService) currencyEnabled(code string) bool {
	for _, c := range s.cfg.EnabledCurrencies {
		if c == code {
			return true
		}
	}
	return false
}

func (s *InvoiceService) GetByID(id uint) (*models.Invoice, error) {
	return s.invoices.GetByID(id)
}

func (s *InvoiceService) GetByRef(ref string) (*models.Invoice, error) {
	return s.invoices.GetByRef(ref)
}

func (s *InvoiceService) GetByRefAndToken(ref, token string) (*models.Invoice, error) {
	return s.invoices.GetByRefAndToken(ref, token)
}

func (s *InvoiceService) List(f repository.ListFilter) ([]models.Invoice, int64, error) {
	return s.invoices.List(f)
}

// Delete removes a draft. Anything past DRAFT is part of the financial
// record and must be cancelled or written off instead.
func (s *InvoiceService) Delete(id uint) error {
	invoice, err := s.invoices.GetByID(id)
	if err != nil {
		return err
	}
	if invoice.State != models.InvoiceStateDraft {
		return fmt.Errorf("invoice %s is %s; only drafts can be deleted", invoice.Ref, invoice.State)
	}
	return s.invoices.Delete(id)
}

// SetPaid marks the invoice settled and stamps the time.
func (s *InvoiceService) SetPaid(id uint) error {
	return s.setState(id, models.InvoiceStatePaid, events.InvoicePaid, func(inv *models.Invoice, now time.Time) {
		inv.PaidAt = &now
	})
}

// SetPaidProcessing marks the invoice covered by payments still clearing.
func (s *InvoiceService) SetPaidProcessing(id uint) error {
	return s.setState(id, models.InvoiceStatePaidProcessing, events.InvoicePaidProcessing, nil)
}

// WriteOff abandons collection of whatever remains outstanding.
func (s *InvoiceService) WriteOff(id uint) error {
	return s.setState(id, models.InvoiceStateWrittenOff, events.InvoiceWrittenOff, func(inv *models.Invoice, now time.Time) {
		inv.WrittenOff = &now
	})
}

// Cancel voids the invoice.
func (s *InvoiceService) Cancel(id uint) error {
	return s.setState(id, models.InvoiceStateCancelled, events.InvoiceCancelled, func(inv *models.Invoice, now time.Time) {
		inv.Cancelled = &now
	})
}

func (s *InvoiceService) setState(id uint, state, event string, stamp func(*models.Invoice, time.Time)) error {
	invoice, err := s.invoices.GetByID(id)
	if err != nil {
		return err
	}
	invoice.State = state
	if stamp != nil {
		stamp(invoice, time.Now())
	}
	if err := s.invoices.Save(nil, invoice); err != nil {
		return fmt.Errorf("save invoice %s: %w", invoice.Ref, err)
	}
	s.log.Info().Str("invoice", invoice.Ref).Str("state", state).Msg("invoice state changed")
	s.events.Publish(context.Background(), events.Event{Name: event, Payload: invoice})
	return nil
}

// Send emails the invoice to the payer. overrideEmail, when non-empty, wins
// over every stored address. Sending a draft makes it OPEN first.
func (s *InvoiceService) Send(id uint, overrideEmail string) error {
	invoice, err := s.invoices.GetByID(id)
	if err != nil {
		return err
	}

	switch invoice.State {
	case models.InvoiceStateWrittenOff, models.InvoiceStateCancelled:
		return fmt.Errorf("invoice %s is %s and cannot be sent", invoice.Ref, invoice.State)
	case models.InvoiceStateDraft:
		invoice.State = models.InvoiceStateOpen
		if err := s.invoices.Save(nil, invoice); err != nil {
			return fmt.Errorf("open invoice %s: %w", invoice.Ref, err)
		}
	}

	recipient := invoiceRecipient(overrideEmail, invoice)
	if recipient == "" {
		return fmt.Errorf("invoice %s has no email address to send to", invoice.Ref)
	}

	customerName := ""
	if invoice.Customer != nil {
		customerName = invoice.Customer.Label
	}
	body, err := mail.RenderInvoiceSend(mail.InvoiceData{
		Ref:      invoice.Ref,
		Due:      invoice.Due.Format("2 January 2006"),
		Total:    models.FormatAmount(invoice.Currency, invoice.GrandTotal),
		ViewURL:  s.urls.InvoiceView(invoice.Ref, invoice.Token),
		PayURL:   s.urls.InvoicePay(invoice.Ref, invoice.Token),
		Customer: customerName,
	})
	if err != nil {
		return err
	}

	err = s.mailer.Send(mail.Message{
		To:      recipient,
		Subject: fmt.Sprintf("Invoice %s", invoice.Ref),
		Body:    body,
	})
	if err != nil {
		return fmt.Errorf("send invoice %s: %w", invoice.Ref, err)
	}

	record := &models.InvoiceEmail{
		InvoiceID: invoice.ID,
		EmailType: models.EmailTypeInvoiceSend,
		Recipient: recipient,
	}
	if err := s.emails.Create(record); err != nil {
		s.log.Warn().Err(err).Str("invoice", invoice.Ref).Msg("email record not saved")
	}
	return nil
}

// invoiceRecipient resolves who receives invoice emails: an explicit
// override, then the customer's billing address, then the customer's own
// address, then the invoice's free-standing one.
func invoiceRecipient(override string, invoice *models.Invoice) string {
	if override != "" {
		return override
	}
	if invoice.Customer != nil {
		if invoice.Customer.BillingEmail != "" {
			return invoice.Customer.BillingEmail
		}
		if invoice.Customer.Email != "" {
			return invoice.Customer.Email
		}
	}
	if invoice.Email != nil {
		return *invoice.Email
	}
	return ""
}

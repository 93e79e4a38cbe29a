package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"invoicer/internal/events"
	"invoicer/internal/mail"
	"invoicer/internal/models"
	"invoicer/internal/repository"
	"invoicer/internal/urls"
)

type PaymentService struct {
	payments *repository.PaymentRepository
	invoices *repository.InvoiceRepository
	emails   *repository.InvoiceEmailRepository
	mailer   mail.Mailer
	urls     *urls.Builder
	events   events.Publisher
	log      zerolog.Logger
}

func NewPaymentService(
	payments *repository.PaymentRepository,
	invoices *repository.InvoiceRepository,
	emails *repository.InvoiceEmailRepository,
	mailer mail.Mailer,
	urls *urls.Builder,
	events events.Publisher,
	log zerolog.Logger,
) *PaymentService {
	return &PaymentService{
		payments: payments,
		invoices: invoices,
		emails:   emails,
		mailer:   mailer,
		urls:     urls,
		events:   events,
		log:      log,
	}
}

// Create persists a new payment, assigning its ref and token.
func (s *PaymentService) Create(payment *models.Payment) error {
	ref, err := newRef(s.payments.RefExists)
	if err != nil {
		return err
	}
	payment.Ref = ref
	payment.Token = newToken()
	if payment.Status == "" {
		payment.Status = models.PaymentStatusPending
	}
	if err := s.payments.Create(payment); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	s.events.Publish(context.Background(), events.Event{Name: events.PaymentCreated, Payload: payment})
	return nil
}

func (s *PaymentService) Save(payment *models.Payment) error {
	if err := s.payments.Save(payment); err != nil {
		return err
	}
	s.events.Publish(context.Background(), events.Event{Name: events.PaymentUpdated, Payload: payment})
	return nil
}

func (s *PaymentService) GetByID(id uint) (*models.Payment, error) {
	return s.payments.GetByID(id)
}

func (s *PaymentService) GetByRef(ref string) (*models.Payment, error) {
	return s.payments.GetByRef(ref)
}

func (s *PaymentService) GetByToken(token string) (*models.Payment, error) {
	return s.payments.GetByToken(token)
}

func (s *PaymentService) GetByIDAndToken(id uint, token string) (*models.Payment, error) {
	return s.payments.GetByIDAndToken(id, token)
}

func (s *PaymentService) GetByTransactionID(txnID string) (*models.Payment, error) {
	return s.payments.GetByTransactionID(txnID)
}

func (s *PaymentService) ListByInvoice(invoiceID uint) ([]models.Payment, error) {
	return s.payments.ListByInvoice(invoiceID)
}

// UpdateDetail amends the fields an operator may touch. The ref, token,
// amounts and status are deliberately out of reach.
func (s *PaymentService) UpdateDetail(id uint, description string, customData models.JSONMap) (*models.Payment, error) {
	payment, err := s.payments.GetByID(id)
	if err != nil {
		return nil, err
	}
	payment.Description = description
	if customData != nil {
		payment.CustomData = customData
	}
	if err := s.Save(payment); err != nil {
		return nil, err
	}
	return payment, nil
}

// SendReceipt emails the payer about a payment that is processing or has
// completed. Anything in another status has nothing to receipt.
func (s *PaymentService) SendReceipt(payment *models.Payment, overrideEmail string) error {
	var emailType string
	switch payment.Status {
	case models.PaymentStatusProcessing:
		emailType = models.EmailTypeReceiptProcessing
	case models.PaymentStatusComplete:
		emailType = models.EmailTypeReceiptComplete
	default:
		return fmt.Errorf("payment %s is %s; receipts are only sent for processing or complete payments",
			payment.Ref, payment.Status)
	}

	invoice, err := s.invoices.GetByID(payment.InvoiceID)
	if err != nil {
		return fmt.Errorf("load invoice %d: %w", payment.InvoiceID, err)
	}

	recipient := invoiceRecipient(overrideEmail, invoice)
	if recipient == "" {
		return fmt.Errorf("payment %s has no email address to receipt to", payment.Ref)
	}

	data := mail.ReceiptData{
		InvoiceRef: invoice.Ref,
		PaymentRef: payment.Ref,
		Amount:     models.FormatAmount(payment.Currency, payment.Amount),
		ViewURL:    s.urls.InvoiceView(invoice.Ref, invoice.Token),
	}

	var body, subject string
	if emailType == models.EmailTypeReceiptProcessing {
		body, err = mail.RenderPaymentProcessingReceipt(data)
		subject = fmt.Sprintf("Payment received for invoice %s (processing)", invoice.Ref)
	} else {
		body, err = mail.RenderPaymentCompleteReceipt(data)
		subject = fmt.Sprintf("Payment received for invoice %s", invoice.Ref)
	}
	if err != nil {
		return err
	}

	if err := s.mailer.Send(mail.Message{To: recipient, Subject: subject, Body: body}); err != nil {
		return fmt.Errorf("send receipt for %s: %w", payment.Ref, err)
	}

	record := &models.InvoiceEmail{
		InvoiceID: invoice.ID,
		EmailType: emailType,
		Recipient: recipient,
	}
	if err := s.emails.Create(record); err != nil {
		s.log.Warn().Err(err).Str("payment", payment.Ref).Msg("email record not saved")
	}
	return nil
}

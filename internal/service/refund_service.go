package service

import (
	"fmt"

	"github.com/rs/zerolog"

	"invoicer/internal/mail"
	"invoicer/internal/models"
	"invoicer/internal/repository"
	"invoicer/internal/urls"
)

type RefundService struct {
	refunds  *repository.RefundRepository
	payments *repository.PaymentRepository
	invoices *repository.InvoiceRepository
	emails   *repository.InvoiceEmailRepository
	mailer   mail.Mailer
	urls     *urls.Builder
	log      zerolog.Logger
}

func NewRefundService(
	refunds *repository.RefundRepository,
	payments *repository.PaymentRepository,
	invoices *repository.InvoiceRepository,
	emails *repository.InvoiceEmailRepository,
	mailer mail.Mailer,
	urls *urls.Builder,
	log zerolog.Logger,
) *RefundService {
	return &RefundService{
		refunds:  refunds,
		payments: payments,
		invoices: invoices,
		emails:   emails,
		mailer:   mailer,
		urls:     urls,
		log:      log,
	}
}

// Create persists a new refund, assigning its ref.
func (s *RefundService) Create(refund *models.Refund) error {
	ref, err := newRef(s.refunds.RefExists)
	if err != nil {
		return err
	}
	refund.Ref = ref
	if refund.Status == "" {
		refund.Status = models.RefundStatusPending
	}
	if err := s.refunds.Create(refund); err != nil {
		return fmt.Errorf("create refund: %w", err)
	}
	return nil
}

func (s *RefundService) Save(refund *models.Refund) error {
	return s.refunds.Save(refund)
}

func (s *RefundService) GetByRef(ref string) (*models.Refund, error) {
	return s.refunds.GetByRef(ref)
}

func (s *RefundService) ListByPayment(paymentID uint) ([]models.Refund, error) {
	return s.refunds.ListByPayment(paymentID)
}

// SendReceipt emails the payer that their money is on its way back.
func (s *RefundService) SendReceipt(refund *models.Refund) error {
	payment, err := s.payments.GetByID(refund.PaymentID)
	if err != nil {
		return fmt.Errorf("load payment %d: %w", refund.PaymentID, err)
	}
	invoice, err := s.invoices.GetByID(payment.InvoiceID)
	if err != nil {
		return fmt.Errorf("load invoice %d: %w", payment.InvoiceID, err)
	}

	recipient := invoiceRecipient("", invoice)
	if recipient == "" {
		return fmt.Errorf("refund %s has no email address to receipt to", refund.Ref)
	}

	body, err := mail.RenderRefundCompleteReceipt(mail.ReceiptData{
		InvoiceRef: invoice.Ref,
		PaymentRef: payment.Ref,
		Amount:     models.FormatAmount(refund.Currency, refund.Amount),
		ViewURL:    s.urls.InvoiceView(invoice.Ref, invoice.Token),
	})
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("Refund issued against invoice %s", invoice.Ref)
	if err := s.mailer.Send(mail.Message{To: recipient, Subject: subject, Body: body}); err != nil {
		return fmt.Errorf("send refund receipt %s: %w", refund.Ref, err)
	}

	record := &models.InvoiceEmail{
		InvoiceID: invoice.ID,
		EmailType: models.EmailTypeRefundReceipt,
		Recipient: recipient,
	}
	if err := s.emails.Create(record); err != nil {
		s.log.Warn().Err(err).Str("refund", refund.Ref).Msg("email record not saved")
	}
	return nil
}

// Package router wires repositories, services and handlers into the HTTP
// surface.
package router

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"invoicer/config"
	"invoicer/internal/events"
	"invoicer/internal/handler"
	"invoicer/internal/mail"
	"invoicer/internal/middleware"
	"invoicer/internal/repository"
	"invoicer/internal/request"
	"invoicer/internal/service"
	"invoicer/internal/urls"
	"invoicer/pkg/driver"
)

func Setup(cfg *config.Config, db *gorm.DB, log zerolog.Logger) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Repositories
	invoiceRepo := repository.NewInvoiceRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	refundRepo := repository.NewRefundRepository(db)
	sourceRepo := repository.NewSourceRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	taxRepo := repository.NewTaxRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	emailRepo := repository.NewInvoiceEmailRepository(db)

	// Shared collaborators
	urlBuilder := urls.NewBuilder(cfg.Server.BaseURL)

	smtpPort, _ := strconv.Atoi(cfg.SMTP.Port)
	mailer := mail.NewSMTPMailer(mail.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     smtpPort,
		Username: cfg.SMTP.User,
		Password: cfg.SMTP.Pass,
		From:     cfg.SMTP.From,
	})

	dispatcher := events.NewDispatcher(events.NewLogListener(log))
	if cfg.Slack.Token != "" && cfg.Slack.Channel != "" {
		dispatcher.Register(events.NewSlackListener(cfg.Slack.Token, cfg.Slack.Channel))
	}

	drivers := driver.NewRegistry(driver.NewOfflineDriver())
	if cfg.Stripe.SecretKey != "" {
		drivers.Register(driver.NewStripeDriver(cfg.Stripe.SecretKey))
	}

	// Services
	invoiceSvc := service.NewInvoiceService(invoiceRepo, customerRepo, taxRepo, emailRepo,
		mailer, urlBuilder, dispatcher, cfg.Invoice, log)
	paymentSvc := service.NewPaymentService(paymentRepo, invoiceRepo, emailRepo,
		mailer, urlBuilder, dispatcher, log)
	refundSvc := service.NewRefundService(refundRepo, paymentRepo, invoiceRepo, emailRepo,
		mailer, urlBuilder, log)
	sourceSvc := service.NewSourceService(sourceRepo, customerRepo, drivers, log)
	authSvc := service.NewAuthService(adminRepo, cfg.JWT, log)

	deps := request.Deps{
		Invoices:          invoiceSvc,
		Payments:          paymentSvc,
		Refunds:           refundSvc,
		Drivers:           drivers,
		URLs:              urlBuilder,
		EnabledCurrencies: cfg.Invoice.EnabledCurrencies,
		Log:               log,
	}

	// Handlers
	invoiceHandler := handler.NewInvoiceHandler(invoiceSvc, sourceSvc, deps, log)
	paymentHandler := handler.NewPaymentHandler(paymentSvc, invoiceSvc, deps, log)
	webhookHandler := handler.NewWebhookHandler(paymentSvc, refundRepo, deps, cfg.Payment.WebhookSecret, log)
	authHandler := handler.NewAuthHandler(authSvc)
	adminInvoices := handler.NewAdminInvoiceHandler(invoiceSvc, log)
	adminPayments := handler.NewAdminPaymentHandler(paymentSvc, refundSvc, deps, log)
	adminCustomers := handler.NewAdminCustomerHandler(customerRepo, sourceSvc, log)
	adminTaxes := handler.NewAdminTaxHandler(taxRepo)

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Public, token-protected surface. Rate limited so invoice and payment
	// tokens cannot be fished for.
	publicLimiter := middleware.NewInMemoryRateLimiter(60, time.Minute)
	public := r.Group("/invoice", middleware.RateLimit(publicLimiter))
	{
		public.GET("/invoice/:ref/:token/view", invoiceHandler.View)
		public.GET("/invoice/:ref/:token/download", invoiceHandler.Download)
		public.GET("/invoice/:ref/:token/pay", invoiceHandler.PayPage)
		public.POST("/invoice/:ref/:token/pay", invoiceHandler.Pay)
		public.GET("/payment/:p1/:p2/:p3", paymentHandler.Dispatch)
	}

	api := r.Group("/api/v1")
	{
		api.POST("/webhooks/payment", webhookHandler.Handle)

		admin := api.Group("/admin")
		admin.POST("/login", authHandler.Login)

		authed := admin.Group("", middleware.AuthRequired(cfg.JWT), middleware.RequireRole("ADMIN"))
		{
			authed.GET("/invoices", adminInvoices.List)
			authed.POST("/invoices", adminInvoices.Create)
			authed.GET("/invoices/:id", adminInvoices.Get)
			authed.PUT("/invoices/:id", adminInvoices.Update)
			authed.DELETE("/invoices/:id", adminInvoices.Delete)
			authed.POST("/invoices/:id/send", adminInvoices.Send)
			authed.POST("/invoices/:id/write-off", adminInvoices.WriteOff)
			authed.POST("/invoices/:id/cancel", adminInvoices.Cancel)
			authed.GET("/invoices/:id/payments", adminPayments.ListByInvoice)

			authed.GET("/payments/:id", adminPayments.Get)
			authed.PUT("/payments/:id", adminPayments.Update)
			authed.POST("/payments/:id/refund", adminPayments.Refund)
			authed.POST("/payments/:id/receipt", adminPayments.SendReceipt)

			authed.GET("/customers", adminCustomers.List)
			authed.POST("/customers", adminCustomers.Create)
			authed.GET("/customers/:id", adminCustomers.Get)
			authed.PUT("/customers/:id", adminCustomers.Update)
			authed.DELETE("/customers/:id", adminCustomers.Delete)
			authed.GET("/customers/:id/sources", adminCustomers.ListSources)
			authed.POST("/customers/:id/sources", adminCustomers.CreateSource)
			authed.POST("/customers/:id/sources/:sourceId/default", adminCustomers.SetDefaultSource)
			authed.DELETE("/customers/:id/sources/:sourceId", adminCustomers.DeleteSource)

			authed.GET("/taxes", adminTaxes.List)
			authed.POST("/taxes", adminTaxes.Create)
			authed.GET("/taxes/:id", adminTaxes.Get)
			authed.PUT("/taxes/:id", adminTaxes.Update)
			authed.DELETE("/taxes/:id", adminTaxes.Delete)
		}
	}

	return r
}

// internal/services/notification_service.go
package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/myfitlabs/myfit-backend/internal/config"
	"github.com/myfitlabs/myfit-backend/internal/models"
)

// NotificationService sends transactional email for purchase, sale, and
// payout events. Delivery is best-effort; failures are logged, never
// propagated into the transaction that triggered them.
type NotificationService struct {
	db     *gorm.DB
	config *config.Config
}

func NewNotificationService(db *gorm.DB, config *config.Config) *NotificationService {
	return &NotificationService{
		db:     db,
		config: config,
	}
}

// NotifyPurchaseCompleted emails the buyer a receipt and the creator a sale
// notice. Called asynchronously after completion commits.
func (s *NotificationService) NotifyPurchaseCompleted(purchaseID uuid.UUID) {
	var purchase models.TemplatePurchase
	err := s.db.Preload("Template").Preload("Template.Creator").Preload("Buyer").
		First(&purchase, "id = ?", purchaseID).Error
	if err != nil {
		logrus.WithError(err).WithField("purchase_id", purchaseID).
			Error("Failed to load purchase for notification")
		return
	}

	buyerData := map[string]interface{}{
		"Name":       purchase.Buyer.Name,
		"Title":      purchase.Template.Title,
		"Price":      formatCents(purchase.PriceCents, purchase.Currency),
		"LibraryURL": fmt.Sprintf("%s/library", s.config.Frontend.BaseURL),
	}
	if err := s.sendTemplatedEmail(purchase.Buyer.Email,
		"Your purchase is ready - "+purchase.Template.Title,
		purchaseReceiptTemplate, buyerData); err != nil {
		logrus.WithError(err).Error("Failed to send purchase receipt email")
	}

	creatorData := map[string]interface{}{
		"Name":     purchase.Template.Creator.Name,
		"Title":    purchase.Template.Title,
		"Earnings": formatCents(purchase.CreatorEarningsCents, purchase.Currency),
	}
	if err := s.sendTemplatedEmail(purchase.Template.Creator.Email,
		"You made a sale - "+purchase.Template.Title,
		saleNoticeTemplate, creatorData); err != nil {
		logrus.WithError(err).Error("Failed to send sale notice email")
	}
}

// NotifyPayoutProcessed emails the creator when an admin settles a payout.
func (s *NotificationService) NotifyPayoutProcessed(payoutID uuid.UUID) {
	var payout models.CreatorPayout
	err := s.db.Preload("Earnings").Preload("Earnings.Creator").
		First(&payout, "id = ?", payoutID).Error
	if err != nil {
		logrus.WithError(err).WithField("payout_id", payoutID).
			Error("Failed to load payout for notification")
		return
	}

	if payout.Earnings.Creator == nil {
		return
	}

	subject := "Your payout was processed"
	if payout.Status == models.PayoutStatusFailed {
		subject = "Your payout could not be processed"
	}

	data := map[string]interface{}{
		"Name":   payout.Earnings.Creator.Name,
		"Amount": formatCents(payout.AmountCents, s.config.Payment.DefaultCurrency),
		"Status": string(payout.Status),
		"Method": string(payout.PayoutMethod),
	}
	if err := s.sendTemplatedEmail(payout.Earnings.Creator.Email, subject, payoutStatusTemplate, data); err != nil {
		logrus.WithError(err).Error("Failed to send payout status email")
	}
}

func (s *NotificationService) SendWelcomeEmail(user *models.User) error {
	data := map[string]interface{}{
		"Name":         user.Name,
		"PlatformName": s.config.Email.FromName,
		"LoginURL":     fmt.Sprintf("%s/login", s.config.Frontend.BaseURL),
	}
	return s.sendTemplatedEmail(user.Email, "Welcome to "+s.config.Email.FromName, welcomeTemplate, data)
}

func (s *NotificationService) sendTemplatedEmail(to, subject, tmpl string, data map[string]interface{}) error {
	body, err := s.renderTemplate(tmpl, data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}
	return s.sendEmail(to, subject, body)
}

func (s *NotificationService) renderTemplate(tmpl string, data map[string]interface{}) (string, error) {
	t, err := template.New("email").Parse(tmpl)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (s *NotificationService) sendEmail(to, subject, body string) error {
	if s.config.Email.SMTPUsername == "" {
		logrus.WithFields(logrus.Fields{
			"to":      to,
			"subject": subject,
		}).Debug("SMTP not configured, skipping email")
		return nil
	}

	auth := smtp.PlainAuth("", s.config.Email.SMTPUsername, s.config.Email.SMTPPassword, s.config.Email.SMTPHost)

	msg := fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.config.Email.FromName, s.config.Email.FromEmail, to, subject, body)

	addr := s.config.Email.SMTPHost + ":" + s.config.Email.SMTPPort
	if err := smtp.SendMail(addr, auth, s.config.Email.FromEmail, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

func formatCents(cents int64, currency string) string {
	return fmt.Sprintf("%s %d.%02d", currency, cents/100, cents%100)
}

const purchaseReceiptTemplate = `
<h2>Thanks for your purchase, {{.Name}}!</h2>
<p><strong>{{.Title}}</strong> has been copied to your library and is ready to use.</p>
<p>Amount paid: {{.Price}}</p>
<p><a href="{{.LibraryURL}}">Open your library</a></p>
`

const saleNoticeTemplate = `
<h2>You made a sale, {{.Name}}!</h2>
<p>Someone just purchased <strong>{{.Title}}</strong>.</p>
<p>Your earnings from this sale: {{.Earnings}}</p>
`

const payoutStatusTemplate = `
<h2>Hi {{.Name}},</h2>
<p>Your payout of {{.Amount}} via {{.Method}} is now <strong>{{.Status}}</strong>.</p>
`

const welcomeTemplate = `
<h2>Welcome to {{.PlatformName}}, {{.Name}}!</h2>
<p>Your account is ready. Browse workout and nutrition templates from trainers and nutritionists.</p>
<p><a href="{{.LoginURL}}">Sign in</a></p>
`

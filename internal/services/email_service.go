package services

import (
	"fmt"
	"log"

	"shopai/internal/models"

	gomail "gopkg.in/gomail.v2"
)

// EmailService sends transactional email over SMTP. When no credentials are
// configured, sends are skipped with a log line so development setups work
// without an SMTP account.
type EmailService struct {
	host     string
	port     int
	user     string
	password string
}

// NewEmailService creates a new EmailService.
func NewEmailService(host string, port int, user, password string) *EmailService {
	return &EmailService{
		host:     host,
		port:     port,
		user:     user,
		password: password,
	}
}

// Configured reports whether SMTP credentials are present.
func (s *EmailService) Configured() bool {
	return s.user != "" && s.password != ""
}

// SendOrderConfirmation emails the customer a summary of their new order.
func (s *EmailService) SendOrderConfirmation(to, fullName string, order *models.Order) error {
	if !s.Configured() {
		log.Printf("Email credentials not configured. Skipping order confirmation for order %s.", order.ID)
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.user)
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("Order Confirmation - %s", order.ID))
	m.SetBody("text/html", orderConfirmationBody(fullName, order))

	d := gomail.NewDialer(s.host, s.port, s.user, s.password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send order confirmation for order %s: %w", order.ID, err)
	}
	log.Printf("Sent order confirmation for order %s to %s", order.ID, to)
	return nil
}

func orderConfirmationBody(fullName string, order *models.Order) string {
	items := ""
	for _, item := range order.Items {
		name := item.Product.Name
		if name == "" {
			name = item.ProductID
		}
		items += fmt.Sprintf("<li>%s &times; %d &mdash; $%.2f</li>", name, item.Quantity, item.Price*float64(item.Quantity))
	}
	return fmt.Sprintf(`<h2>Thank you for your order, %s!</h2>
<p>Your order <strong>%s</strong> has been received and is now <strong>%s</strong>.</p>
<ul>%s</ul>
<p>Total: <strong>$%.2f</strong></p>
<p>Shipping to: %s</p>`,
		fullName, order.ID, order.Status, items, order.TotalAmount, order.ShippingAddress)
}

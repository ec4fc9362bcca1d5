package notify

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/sklep-tm/storefront/internal/payments"
)

// EmailService sends the purchase-confirmation email with the payment
// provider's invoice PDF attached.
type EmailService struct {
	sg       *sendgrid.Client
	provider payments.Provider
	from     string
	client   *http.Client
}

func NewEmailService(apiKey, from string, provider payments.Provider) *EmailService {
	return &EmailService{
		sg:       sendgrid.NewSendClient(apiKey),
		provider: provider,
		from:     from,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// SendPurchaseConfirmation resolves the session's invoice PDF and mails
// it to the customer. Sessions without an invoice still get the plain
// confirmation.
func (s *EmailService) SendPurchaseConfirmation(ctx context.Context, sessionID, toEmail string) error {
	sess, err := s.provider.GetSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("retrieve session: %w", err)
	}
	if toEmail == "" {
		toEmail = sess.CustomerEmail
	}
	if toEmail == "" {
		return fmt.Errorf("no recipient for session %s", sessionID)
	}

	from := mail.NewEmail("Sklep TM", s.from)
	to := mail.NewEmail("", toEmail)
	subject := "Potwierdzenie zakupu"
	plain := "Dziekujemy za zakup. Faktura VAT znajduje sie w zalaczniku."
	html := "<p>Dziękujemy za zakup. Faktura VAT znajduje się w załączniku.</p>"
	msg := mail.NewSingleEmail(from, subject, to, plain, html)

	if sess.InvoiceID != "" {
		pdf, err := s.fetchInvoicePDF(ctx, sess.InvoiceID)
		if err != nil {
			return err
		}
		att := mail.NewAttachment()
		att.SetContent(base64.StdEncoding.EncodeToString(pdf))
		att.SetType("application/pdf")
		att.SetFilename(fmt.Sprintf("invoice-%s.pdf", sessionID))
		att.SetDisposition("attachment")
		msg.AddAttachment(att)
	}

	res, err := s.sg.Send(msg)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	if res.StatusCode >= 300 {
		return fmt.Errorf("sendgrid status %d", res.StatusCode)
	}
	return nil
}

func (s *EmailService) fetchInvoicePDF(ctx context.Context, invoiceID string) ([]byte, error) {
	url, err := s.provider.InvoicePDFURL(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	res, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download invoice pdf: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("invoice pdf status %s", res.Status)
	}
	return io.ReadAll(res.Body)
}

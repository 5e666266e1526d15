// Package sender обрабатывает уведомления из очереди и отправляет письма пользователям.
package sender

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/url"
	"strings"
	"time"

	"github.com/cvmanager/cvmanager/internal/billing"
	"github.com/cvmanager/cvmanager/internal/lib/sl"
	"github.com/cvmanager/cvmanager/internal/lib/smtp"
	"github.com/cvmanager/cvmanager/internal/models"
	"github.com/cvmanager/cvmanager/internal/storage"
)

// ErrBadMessage - тело сообщения не удалось разобрать.
var ErrBadMessage = errors.New("bad notification message")

// UserRepository - поиск адреса получателя.
type UserRepository interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// InvoiceRepository - отметка об отправке счёта.
type InvoiceRepository interface {
	MarkInvoiceSent(ctx context.Context, id string, at time.Time) error
}

// Service отправляет письма по уведомлениям.
type Service struct {
	transport smtp.TransportInterface
	users     UserRepository
	invoices  InvoiceRepository
	appURL    string
	log       *slog.Logger
	now       func() time.Time
}

// New создаёт Service.
func New(transport smtp.TransportInterface, users UserRepository, invoices InvoiceRepository, appURL string, log *slog.Logger) *Service {
	return &Service{
		transport: transport,
		users:     users,
		invoices:  invoices,
		appURL:    strings.TrimRight(appURL, "/"),
		log:       log,
		now:       time.Now,
	}
}

// Handle разбирает уведомление и отправляет письмо. Подходит как rabbitmq.Handler.
func (s *Service) Handle(ctx context.Context, body []byte) error {
	const op = "sender.Handle"
	log := s.log.With(sl.Op(op))

	var n models.Notification
	if err := json.Unmarshal(body, &n); err != nil {
		log.Error("failed to unmarshal notification", sl.Err(err))
		return fmt.Errorf("%s: %w: %v", op, ErrBadMessage, err)
	}

	subject, text, ok := s.compose(n)
	if !ok {
		log.Warn("unknown notification kind, skipping", slog.String("kind", n.Kind))
		return nil
	}

	to, err := s.recipient(ctx, n)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if to == "" {
		log.Info("recipient has no email, skipping", slog.String("kind", n.Kind), slog.String("user_id", n.UserID))
		return nil
	}

	if err := s.sendEmail([]string{to}, subject, text); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if n.Kind == models.NotifyInvoice && n.InvoiceID != "" {
		err := s.invoices.MarkInvoiceSent(ctx, n.InvoiceID, s.now())
		switch {
		case errors.Is(err, storage.ErrNotFound):
			log.Info("invoice already marked as sent", slog.String("invoice_id", n.InvoiceID))
		case err != nil:
			log.Error("failed to mark invoice as sent", slog.String("invoice_id", n.InvoiceID), sl.Err(err))
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	return nil
}

func (s *Service) recipient(ctx context.Context, n models.Notification) (string, error) {
	if n.Email != "" {
		return n.Email, nil
	}
	if n.UserID == "" {
		return "", nil
	}
	u, err := s.users.GetUserByID(ctx, n.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return u.Email, nil
}

func (s *Service) compose(n models.Notification) (string, string, bool) {
	name := n.Username
	if name == "" {
		name = "usuario"
	}
	switch n.Kind {
	case models.NotifyVerification:
		link := s.appURL + "/api/verify-email/" + url.PathEscape(n.Token)
		return "Verifica tu correo electrónico",
			fmt.Sprintf("Hola, %s.\n\nPara confirmar tu correo abre el siguiente enlace:\n%s\n", name, link), true
	case models.NotifyInvoice:
		return "Tu factura de CV Manager",
			fmt.Sprintf("Hola, %s.\n\nGeneramos la factura de tu plan %s por un total de %s %s (IVA incluido).\n",
				name, n.Plan, billing.FormatAmount(n.Total), n.Currency), true
	case models.NotifyTrialStarted:
		return "Tu periodo de prueba ha comenzado",
			fmt.Sprintf("Hola, %s.\n\nTu periodo de prueba del plan %s está activo hasta %s.\n", name, n.Plan, formatDate(n.Until)), true
	case models.NotifyTrialExpired:
		return "Tu periodo de prueba ha expirado",
			fmt.Sprintf("Hola, %s.\n\nTu periodo de prueba ha expirado. Realiza el pago para seguir usando el servicio.\n", name), true
	case models.NotifySubscriptionActivated:
		return "Tu suscripción está activa",
			fmt.Sprintf("Hola, %s.\n\nRecibimos tu pago. Tu suscripción %s está activa hasta %s.\n", name, n.Plan, formatDate(n.Until)), true
	case models.NotifySubscriptionExpired:
		return "Tu suscripción ha expirado",
			fmt.Sprintf("Hola, %s.\n\nTu suscripción ha expirado. Renueva tu plan para seguir usando el servicio.\n", name), true
	default:
		return "", "", false
	}
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format("02/01/2006 15:04 UTC")
}

func (s *Service) sendEmail(to []string, subject, bodyText string) error {
	from := s.transport.Sender()
	msg := strings.Join([]string{
		"From: " + from,
		"To: " + strings.Join(to, ";"),
		"Subject: " + mime.QEncoding.Encode("UTF-8", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"Content-Transfer-Encoding: 8bit",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Mail(from); err != nil {
		s.log.Error("failed to set MAIL FROM", slog.String("from", from), sl.Err(err))
		return err
	}
	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get Data writer", sl.Err(err))
		return err
	}
	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}
	if err = wc.Close(); err != nil {
		s.log.Error("failed to close Data writer", sl.Err(err))
		return err
	}
	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", slog.Any("to", to))
	return nil
}

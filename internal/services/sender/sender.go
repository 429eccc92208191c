// Package sender отправляет письма пользователям и администратору платформы.
package sender

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/course-seller/internal/lib/sl"
	"github.com/magabrotheeeer/course-seller/internal/lib/smtp"
)

// Service отправляет письма через SMTP транспорт.
type Service struct {
	transport smtp.TransportInterface
	adminMail string
	log       *slog.Logger
}

// New создает новый экземпляр Service. adminMail получает обращения и запросы курсов.
func New(log *slog.Logger, transport smtp.TransportInterface, adminMail string) *Service {
	return &Service{
		transport: transport,
		adminMail: adminMail,
		log:       log,
	}
}

// SendResetPassword отправляет ссылку для сброса пароля.
func (s *Service) SendResetPassword(to, resetURL string) error {
	body := fmt.Sprintf("Click on the link to reset your password: %s\n\nIf you have not requested this, please ignore.", resetURL)
	return s.sendEmail([]string{to}, "CourseBundler Reset Password", body)
}

// SendContact пересылает обращение пользователя администратору.
func (s *Service) SendContact(name, email, message string) error {
	body := fmt.Sprintf("I am %s and my email is %s.\n%s", name, email, message)
	return s.sendEmail([]string{s.adminMail}, "Contact from CourseBundler", body)
}

// SendCourseRequest пересылает запрос нового курса администратору.
func (s *Service) SendCourseRequest(name, email, course string) error {
	body := fmt.Sprintf("I am %s and my email is %s.\n%s", name, email, course)
	return s.sendEmail([]string{s.adminMail}, "Requesting for a course on CourseBundler", body)
}

func (s *Service) sendEmail(to []string, subject, bodyText string) error {
	const op = "sender.sendEmail"

	from := s.transport.GetSMTPUser()
	msg := strings.Join([]string{
		"From: " + from,
		"To: " + strings.Join(to, ", "),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer client.Close()

	if err := client.Mail(from); err != nil {
		s.log.Error("failed to set MAIL FROM", slog.String("from", from), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	wc, err := client.Data()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err = wc.Write([]byte(msg)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = wc.Close(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = client.Quit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("email sent", slog.String("subject", subject), slog.Int("recipients", len(to)))
	return nil
}

// Mailer письма, которые отправляет платформа.
type Mailer interface {
	SendResetPassword(to, resetURL string) error
	SendContact(name, email, message string) error
	SendCourseRequest(name, email, course string) error
}

var (
	_ Mailer = (*Service)(nil)
	_ Mailer = LogOnly{}
)

// LogOnly пишет письма в лог вместо отправки. Используется без настроенного SMTP.
type LogOnly struct {
	Log *slog.Logger
}

func (l LogOnly) SendResetPassword(to, resetURL string) error {
	l.Log.Info("mail disabled, reset password link", slog.String("to", to), slog.String("url", resetURL))
	return nil
}

func (l LogOnly) SendContact(name, email, _ string) error {
	l.Log.Info("mail disabled, contact message", slog.String("name", name), slog.String("email", email))
	return nil
}

func (l LogOnly) SendCourseRequest(name, email, course string) error {
	l.Log.Info("mail disabled, course request", slog.String("name", name), slog.String("email", email), slog.String("course", course))
	return nil
}

// Package services отправляет почтовые уведомления, потребляя сообщения
// из очередей RabbitMQ: напоминания об истекающих подписках и тревоги
// по устройствам.
package services

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/abdullaevmar/device-registry/internal/lib/sl"
	"github.com/abdullaevmar/device-registry/internal/lib/smtp"
	"github.com/abdullaevmar/device-registry/internal/models"
)

type SenderService struct {
	transport smtp.TransportInterface
	adminAddr string
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
// adminAddr адрес, на который уходят тревоги по устройствам.
func NewSenderService(transport smtp.TransportInterface, adminAddr string, log *slog.Logger) *SenderService {
	return &SenderService{
		transport: transport,
		adminAddr: adminAddr,
		log:       log,
	}
}

// SendInfoExpiringSubscription отправляет напоминание о подписке, истекающей завтра.
func (s *SenderService) SendInfoExpiringSubscription(body []byte) error {
	var message models.AccountInfo
	if err := json.Unmarshal(body, &message); err != nil {
		s.log.Error("Failed to unmarshal message body", "error", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	to := []string{message.Email}
	subject := "Уведомление о скором окончании подписки"
	bodyText := fmt.Sprintf("Здравствуйте, %s!\n\nВаша подписка уровня %s в реестре устройств заканчивается завтра.\n\nПожалуйста, продлите её заранее, иначе операции с устройствами будут недоступны.",
		message.Username, message.Tier)

	return s.sendEmail(to, subject, bodyText)
}

// SendPanicAlert отправляет администраторам тревогу по устройству.
func (s *SenderService) SendPanicAlert(body []byte) error {
	var alert models.PanicAlert
	if err := json.Unmarshal(body, &alert); err != nil {
		s.log.Error("Failed to unmarshal message body", "error", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	to := []string{s.adminAddr}
	subject := "Тревога: устройство заявлено украденным"
	bodyText := fmt.Sprintf("Устройство %s заявлено украденным в %s.\n\nДанные заявителя: %s\nИдентификатор тревоги: %s",
		alert.DeviceUID, alert.ReportedAt.Format("02-01-2006 15:04"), alert.ReporterInfo, alert.AlertUID)

	return s.sendEmail(to, subject, bodyText)
}

func (s *SenderService) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("Failed to connect to SMTP server", "error", sl.Err(err))
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("Failed to set MAIL FROM", "from", s.transport.GetSMTPUser(), "error", sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("Failed to set RCPT TO", "recipient", addr, "error", sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("Failed to get Data writer", "error", sl.Err(err))
		return err
	}

	_, err = wc.Write([]byte(msg))
	if err != nil {
		s.log.Error("Failed to write email body", "error", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("Failed to close Data writer", "error", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("Failed to quit SMTP client", "error", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", "to", to)
	return nil
}

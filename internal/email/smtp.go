// Package email envía avisos de seguridad por SMTP: API key emitida, tracker
// conectado, tracker desconectado. Todo el envío es fire-and-forget; si SMTP
// no está configurado el notifier queda deshabilitado y cada aviso es no-op.
package email

import (
	"crypto/tls"
	"fmt"

	mail "github.com/go-mail/mail"

	"github.com/dropDatabas3/issuehub/internal/observability/logger"
)

// Sender es la interfaz para enviar emails. Implementada por SMTPSender.
type Sender interface {
	// Send envía un email con cuerpo en texto plano.
	Send(to, subject, textBody string) error
}

// SMTPConfig es la configuración del sender SMTP.
type SMTPConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	FromEmail string `yaml:"from_email"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	TLSMode   string `yaml:"tls_mode"` // "auto" | "starttls" | "ssl" | "none"
}

// Enabled informa si hay configuración suficiente para enviar.
func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.FromEmail != ""
}

// SMTPSender implementa Sender usando SMTP.
type SMTPSender struct {
	cfg SMTPConfig
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.TLSMode == "" {
		cfg.TLSMode = "auto"
	}
	return &SMTPSender{cfg: cfg}
}

// Send envía un email de texto plano.
func (s *SMTPSender) Send(to, subject, textBody string) error {
	m := mail.NewMessage()
	m.SetHeader("From", s.cfg.FromEmail)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", textBody)

	d := mail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	d.TLSConfig = &tls.Config{ServerName: s.cfg.Host}

	switch s.cfg.TLSMode {
	case "ssl":
		d.SSL = true
	case "none":
		d.TLSConfig = &tls.Config{InsecureSkipVerify: true} // solo dev
	default:
		// "auto"/"starttls": go-mail negocia STARTTLS si corresponde
	}

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

var _ Sender = (*SMTPSender)(nil)

// Notifier despacha los avisos de seguridad. Con sender nil queda
// deshabilitado y todos los métodos son no-op.
type Notifier struct {
	sender Sender
}

// NewNotifier arma el notifier; cfg sin host/from lo deja deshabilitado.
func NewNotifier(cfg SMTPConfig) *Notifier {
	if !cfg.Enabled() {
		logger.L().Info("email notifier disabled: smtp not configured")
		return &Notifier{}
	}
	return &Notifier{sender: NewSMTPSender(cfg)}
}

// NewNotifierWithSender permite inyectar un Sender (tests).
func NewNotifierWithSender(s Sender) *Notifier {
	return &Notifier{sender: s}
}

// notify envía en background. Un fallo de SMTP jamás afecta al request que lo
// originó: se loguea y listo.
func (n *Notifier) notify(to, subject, body string) {
	if n == nil || n.sender == nil || to == "" {
		return
	}
	go func() {
		if err := n.sender.Send(to, subject, body); err != nil {
			logger.L().Warn("security notice not sent",
				logger.Component("email.notifier"),
				logger.String("subject", subject),
				logger.Err(err),
			)
		}
	}()
}

// APIKeyIssued avisa que se emitió una API key nueva.
func (n *Notifier) APIKeyIssued(to, keyName string) {
	n.notify(to, "Nueva API key emitida",
		fmt.Sprintf("Se emitió la API key %q en tu cuenta. Si no fuiste vos, revocala de inmediato.", keyName))
}

// TrackerConnected avisa que se conectó el issue tracker.
func (n *Notifier) TrackerConnected(to, siteURL string) {
	n.notify(to, "Issue tracker conectado",
		fmt.Sprintf("Tu cuenta quedó conectada al tracker %s.", siteURL))
}

// TrackerDisconnected avisa que se desconectó el issue tracker.
func (n *Notifier) TrackerDisconnected(to string) {
	n.notify(to, "Issue tracker desconectado",
		"Se eliminó la conexión al issue tracker de tu cuenta.")
}

package nodes

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/flowstack/flowstack/internal/engine"
	"github.com/flowstack/flowstack/pkg/schema"
)

// Message is one outgoing email.
type Message struct {
	From    string
	To      []string
	Cc      []string
	Bcc     []string
	Subject string
	Body    string
}

// Mailer delivers email messages.
type Mailer interface {
	Send(ctx context.Context, msg *Message) error
}

// SMTPConfig configures the default SMTP mailer.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer sends mail through a plain SMTP server.
type SMTPMailer struct {
	cfg SMTPConfig
}

// NewSMTPMailer creates a Mailer backed by net/smtp.
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	if cfg.Port == 0 {
		cfg.Port = 25
	}
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) Send(_ context.Context, msg *Message) error {
	from := msg.From
	if from == "" {
		from = m.cfg.From
	}
	if from == "" {
		return schema.NewError(schema.ErrCodeNodeExecution, "no sender address configured")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(msg.To, ", "))
	if len(msg.Cc) > 0 {
		fmt.Fprintf(&b, "Cc: %s\r\n", strings.Join(msg.Cc, ", "))
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(msg.Body)

	recipients := make([]string, 0, len(msg.To)+len(msg.Cc)+len(msg.Bcc))
	recipients = append(recipients, msg.To...)
	recipients = append(recipients, msg.Cc...)
	recipients = append(recipients, msg.Bcc...)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	return smtp.SendMail(addr, auth, from, recipients, []byte(b.String()))
}

// EmailExecutor sends an email whose addresses, subject, and body are
// templates rendered against the run context.
type EmailExecutor struct {
	mailer Mailer
	logger *slog.Logger
}

// NewEmailExecutor creates an EMAIL node executor.
func NewEmailExecutor(mailer Mailer, logger *slog.Logger) *EmailExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &EmailExecutor{mailer: mailer, logger: logger}
}

func (e *EmailExecutor) Type() schema.NodeType { return schema.NodeTypeEmail }

func (e *EmailExecutor) Execute(ctx context.Context, in engine.ExecutionInput) (*engine.Result, error) {
	snapshot := in.Context.Snapshot()

	toValue, ok := in.Config["to"]
	if !ok || toValue == nil {
		return nil, schema.NewError(schema.ErrCodeNodeExecution,
			"email node requires 'to' field").WithNode(in.Node.Key)
	}
	to := parseAddresses(toValue, snapshot)
	if len(to) == 0 {
		return nil, schema.NewError(schema.ErrCodeNodeExecution,
			"email node resolved zero recipients").WithNode(in.Node.Key)
	}

	msg := &Message{
		From:    stringParam(in.Config, "from", ""),
		To:      to,
		Cc:      parseAddresses(in.Config["cc"], snapshot),
		Bcc:     parseAddresses(in.Config["bcc"], snapshot),
		Subject: engine.Render(stringParam(in.Config, "subject", "FlowStack Email"), snapshot),
		Body:    engine.Render(stringParam(in.Config, "body", "Workflow notification"), snapshot),
	}

	if err := e.mailer.Send(ctx, msg); err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeNodeExecution,
			"email sending failed: %s", err.Error()).WithNode(in.Node.Key).WithCause(err)
	}

	e.logger.InfoContext(ctx, "email node sent", "recipients", len(to))
	return &engine.Result{
		Output: map[string]any{
			in.Node.Key + "::status": "SENT",
			in.Node.Key + "::to":     strings.Join(to, ","),
		},
		Message: "email sent",
	}, nil
}

// parseAddresses accepts a string (comma separated), a list, or a single
// value, renders each entry against the context, and drops blanks.
func parseAddresses(value any, snapshot map[string]any) []string {
	var out []string
	appendAddress := func(raw any) {
		if raw == nil {
			return
		}
		rendered := strings.TrimSpace(engine.Render(engine.Stringify(raw), snapshot))
		if rendered != "" {
			out = append(out, rendered)
		}
	}

	switch v := value.(type) {
	case nil:
	case []any:
		for _, item := range v {
			appendAddress(item)
		}
	case []string:
		for _, item := range v {
			appendAddress(item)
		}
	case string:
		for _, part := range strings.Split(v, ",") {
			appendAddress(part)
		}
	default:
		appendAddress(v)
	}
	return out
}

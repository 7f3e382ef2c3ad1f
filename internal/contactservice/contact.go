// Package contactservice stores contact form messages and forwards them to the
// site's contact address.
package contactservice

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sushihentaime/inkwell/internal/common"
	"github.com/sushihentaime/inkwell/internal/policy"
)

const (
	MsgFieldsRequired = "All fields are mandatory"
	MsgNotFound       = "No contact with this ID found."
)

var ErrNotFound = common.NotFound(MsgNotFound)

type Contact struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

type ContactService struct {
	db       *sql.DB
	notifier common.Notifier
	to       string
	logger   *slog.Logger
}

// NewContactService returns a service that forwards messages to the address
// to.
func NewContactService(db *sql.DB, notifier common.Notifier, to string, logger *slog.Logger) *ContactService {
	return &ContactService{db: db, notifier: notifier, to: to, logger: logger}
}

func validateContact(v *common.Validator, c *Contact) {
	v.Check(common.EmailRX.MatchString(c.Email), "email", "must be a valid email address")
	v.Check(len(c.Name) <= 100, "name", "must not be more than 100 characters long")
	v.Check(len(c.Subject) <= 200, "subject", "must not be more than 200 characters long")
	v.Check(len(c.Message) <= 5000, "message", "must not be more than 5000 characters long")
}

// Submit stores a message. Failing to queue the email does not fail the
// request since the message is kept for admins.
func (s *ContactService) Submit(ctx context.Context, name, email, subject, message string) (*Contact, error) {
	c := &Contact{
		ID:      uuid.New(),
		Name:    strings.TrimSpace(name),
		Email:   strings.ToLower(strings.TrimSpace(email)),
		Subject: strings.TrimSpace(subject),
		Message: strings.TrimSpace(message),
	}

	if c.Name == "" || c.Email == "" || c.Subject == "" || c.Message == "" {
		return nil, common.Invalid(MsgFieldsRequired)
	}

	v := common.NewValidator()
	validateContact(v, c)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	query := `
		INSERT INTO contacts (id, name, email, subject, message)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	if err := s.db.QueryRowContext(ctx, query, c.ID, c.Name, c.Email, c.Subject, c.Message).Scan(&c.CreatedAt); err != nil {
		return nil, err
	}

	note := common.Notification{
		To:       s.to,
		Template: common.TemplateContactMessage,
		Data: map[string]string{
			"name":    c.Name,
			"email":   c.Email,
			"subject": c.Subject,
			"message": c.Message,
		},
	}
	if err := s.notifier.Notify(ctx, note); err != nil {
		s.logger.Error("could not queue contact message", slog.String("id", c.ID.String()), slog.String("error", err.Error()))
	}

	return c, nil
}

// List returns stored messages, newest first.
func (s *ContactService) List(ctx context.Context, actor policy.Actor, skip int) (common.Page[Contact], error) {
	if err := policy.CanPerform(actor, policy.ManageContacts, policy.Target{}).Err(); err != nil {
		return common.Page[Contact]{}, err
	}

	query := `
		SELECT id, name, email, subject, message, created_at
		FROM contacts
		ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2`

	rows, err := s.db.QueryContext(ctx, query, common.FetchLimit, common.NormalizeSkip(skip))
	if err != nil {
		return common.Page[Contact]{}, err
	}
	defer rows.Close()

	var contacts []Contact
	for rows.Next() {
		var c Contact
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Subject, &c.Message, &c.CreatedAt); err != nil {
			return common.Page[Contact]{}, err
		}
		contacts = append(contacts, c)
	}

	if err := rows.Err(); err != nil {
		return common.Page[Contact]{}, err
	}

	return common.Paginate(contacts), nil
}

func (s *ContactService) Delete(ctx context.Context, actor policy.Actor, id uuid.UUID) error {
	if err := policy.CanPerform(actor, policy.ManageContacts, policy.Target{}).Err(); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = $1`, id)
	if err != nil {
		return err
	}

	return common.ExpectOneRow(res, ErrNotFound)
}

package mailer

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mizusaki/procureflow-backend/internal/documents"
	"github.com/mizusaki/procureflow-backend/pkg/config"
	"github.com/mizusaki/procureflow-backend/pkg/db/models"
	"github.com/mizusaki/procureflow-backend/pkg/enums"
	pkgerrors "github.com/mizusaki/procureflow-backend/pkg/errors"
	"github.com/mizusaki/procureflow-backend/pkg/metrics"
	"github.com/mizusaki/procureflow-backend/pkg/redis"
	"github.com/mizusaki/procureflow-backend/pkg/smtp"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type transport interface {
	Send(ctx context.Context, msg smtp.Message) error
	Sender() string
	Configured() bool
	CredentialsPresent() bool
}

type documentStore interface {
	Read(ctx context.Context, path string) ([]byte, error)
}

type documentGenerator interface {
	Generate(ctx context.Context, orderID uuid.UUID, regenerate bool) (*documents.GenerateResult, error)
}

// Preview is the message that would be sent, without sending it.
type Preview struct {
	Recipient  string `json:"recipient"`
	CC         string `json:"cc,omitempty"`
	Subject    string `json:"subject"`
	Body       string `json:"body"`
	Attachment string `json:"attachment"`
}

// Service dispatches purchase order documents to suppliers.
type Service interface {
	// Preview composes the outgoing message without locks or side effects.
	Preview(ctx context.Context, orderID uuid.UUID) (*Preview, error)
	// Send dispatches the order document. Exactly one send per order
	// runs at a time; post-send bookkeeping commits atomically.
	Send(ctx context.Context, orderID uuid.UUID, sentBy *string) (*models.EmailSendLog, error)
	// History lists dispatch attempts for an order, newest first.
	History(ctx context.Context, orderID uuid.UUID) ([]models.EmailSendLog, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	mail    transport
	store   documentStore
	docs    documentGenerator
	locker  redis.SendLocker
	subject string
	company string
	lockTTL time.Duration
	metrics *metrics.DispatchMetrics
}

// NewService wires the mail dispatch service.
func NewService(repo Repository, tx txRunner, mail transport, store documentStore, docs documentGenerator, locker redis.SendLocker, mailCfg config.MailConfig, m *metrics.DispatchMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("mailer repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if mail == nil {
		return nil, fmt.Errorf("mail transport required")
	}
	if store == nil {
		return nil, fmt.Errorf("document store required")
	}
	if docs == nil {
		return nil, fmt.Errorf("document generator required")
	}
	if locker == nil {
		return nil, fmt.Errorf("send locker required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		mail:    mail,
		store:   store,
		docs:    docs,
		locker:  locker,
		subject: mailCfg.Subject,
		company: mailCfg.CompanyName,
		lockTTL: mailCfg.SendLockTTL,
		metrics: m,
	}, nil
}

func (s *service) Preview(ctx context.Context, orderID uuid.UUID) (*Preview, error) {
	order, supplier, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	preview := &Preview{
		Subject: s.buildSubject(order),
		Body:    s.buildBody(order, supplier),
	}
	if supplier.Email != nil {
		preview.Recipient = *supplier.Email
	}
	if cc := ccAddress(supplier); cc != nil {
		preview.CC = *cc
	}
	if order.DocumentPath != nil {
		preview.Attachment = path.Base(*order.DocumentPath)
	}
	return preview, nil
}

func (s *service) History(ctx context.Context, orderID uuid.UUID) ([]models.EmailSendLog, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	logs, err := s.repo.ListEmailLogs(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing email logs")
	}
	return logs, nil
}

func (s *service) Send(ctx context.Context, orderID uuid.UUID, sentBy *string) (*models.EmailSendLog, error) {
	order, supplier, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot send a %s order", order.Status))
	}

	subject := s.buildSubject(order)
	body := s.buildBody(order, supplier)
	cc := ccAddress(supplier)

	if supplier.Email == nil || strings.TrimSpace(*supplier.Email) == "" {
		s.logAttempt(ctx, order.ID, "", cc, subject, body, sentBy, nil, "supplier has no email address")
		s.metrics.IncEmail("no_recipient")
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("supplier %s has no email address", supplier.Name))
	}
	recipient := *supplier.Email

	if order.DocumentPath == nil {
		// Reuse path of the document pipeline: an already generated
		// document is never re-rendered here.
		result, genErr := s.docs.Generate(ctx, order.ID, false)
		if genErr != nil {
			s.logAttempt(ctx, order.ID, recipient, cc, subject, body, sentBy, nil, genErr.Error())
			s.metrics.IncEmail("failure")
			return nil, genErr
		}
		order = result.Order
	}
	if !s.mail.Configured() || !s.mail.CredentialsPresent() {
		s.logAttempt(ctx, order.ID, recipient, cc, subject, body, sentBy, order.DocumentPath, "mail credentials unavailable")
		s.metrics.IncEmail("credential_missing")
		return nil, pkgerrors.New(pkgerrors.CodeCredentialMissing, "mail credentials unavailable")
	}

	if err := s.locker.AcquireSendLock(ctx, order.ID.String(), s.lockTTL); err != nil {
		if errors.Is(err, redis.ErrLockHeld) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a send for this order is already in flight")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquiring send lock")
	}
	defer func() {
		_ = s.locker.ReleaseSendLock(ctx, order.ID.String())
	}()

	attachment, err := s.store.Read(ctx, *order.DocumentPath)
	if err != nil {
		s.logAttempt(ctx, order.ID, recipient, cc, subject, body, sentBy, order.DocumentPath, err.Error())
		s.metrics.IncEmail("failure")
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "reading order document")
	}

	msg := smtp.Message{
		To:      recipient,
		Subject: subject,
		Body:    body,
		Attachments: []smtp.Attachment{{
			Filename:    path.Base(*order.DocumentPath),
			ContentType: "text/html",
			Content:     attachment,
		}},
	}
	if cc != nil {
		msg.CC = *cc
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		s.logAttempt(ctx, order.ID, recipient, cc, subject, body, sentBy, order.DocumentPath, err.Error())
		s.metrics.IncEmail("failure")
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransport, err, "sending order email")
	}

	// The message is out. Everything after this point commits together
	// or surfaces as a post-commit problem for manual review.
	entry := &models.EmailSendLog{
		ID:              uuid.New(),
		PurchaseOrderID: order.ID,
		Recipient:       recipient,
		CC:              cc,
		Subject:         subject,
		Body:            body,
		AttachmentPath:  order.DocumentPath,
		Status:          enums.EmailSendStatusSuccess,
		SentBy:          sentBy,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if err := repo.CreateEmailLog(ctx, entry); err != nil {
			return fmt.Errorf("recording email log: %w", err)
		}

		locked, err := repo.FindOrderForUpdate(ctx, order.ID)
		if err != nil {
			return fmt.Errorf("locking order: %w", err)
		}
		if locked.Status == enums.PurchaseOrderStatusOrdered {
			locked.Status = enums.PurchaseOrderStatusWaiting
		}
		if err := repo.SaveOrder(ctx, locked); err != nil {
			return fmt.Errorf("saving order status: %w", err)
		}

		return ensurePriceRows(ctx, repo, locked)
	})
	if err != nil {
		s.metrics.IncEmail("post_commit_failure")
		return nil, pkgerrors.Wrap(pkgerrors.CodePostCommit, err, "email sent but bookkeeping failed")
	}

	s.metrics.IncEmail("success")
	return entry, nil
}

// ensurePriceRows registers the item/supplier pair for every managed
// line so the supplier shows up as a known source. Price stays unknown
// until a delivery confirms it.
func ensurePriceRows(ctx context.Context, repo Repository, order *models.PurchaseOrder) error {
	for _, line := range order.Lines {
		if line.Kind != enums.LineKindManaged || line.ItemID == nil {
			continue
		}
		_, err := repo.FindPriceRow(ctx, *line.ItemID, order.SupplierID)
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("loading price row: %w", err)
		}
		row := &models.ItemSupplier{
			ID:         uuid.New(),
			ItemID:     *line.ItemID,
			SupplierID: order.SupplierID,
		}
		if err := repo.CreatePriceRow(ctx, row); err != nil {
			return fmt.Errorf("registering item supplier: %w", err)
		}
	}
	return nil
}

// logAttempt records a failed dispatch with the failure reason
// verbatim. Best effort: a log write failure must not mask the
// original problem.
func (s *service) logAttempt(ctx context.Context, orderID uuid.UUID, recipient string, cc *string, subject, body string, sentBy, attachmentPath *string, reason string) {
	entry := &models.EmailSendLog{
		ID:              uuid.New(),
		PurchaseOrderID: orderID,
		Recipient:       recipient,
		CC:              cc,
		Subject:         subject,
		Body:            body,
		AttachmentPath:  attachmentPath,
		Status:          enums.EmailSendStatusFailed,
		ErrorMessage:    &reason,
		SentBy:          sentBy,
	}
	_ = s.repo.CreateEmailLog(ctx, entry)
}

func ccAddress(supplier *models.Supplier) *string {
	if supplier.CCEmail == nil || strings.TrimSpace(*supplier.CCEmail) == "" {
		return nil
	}
	return supplier.CCEmail
}

func (s *service) loadOrder(ctx context.Context, orderID uuid.UUID) (*models.PurchaseOrder, *models.Supplier, error) {
	if orderID == uuid.Nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	supplier, err := s.repo.FindSupplier(ctx, order.SupplierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading supplier")
	}
	return order, supplier, nil
}

func (s *service) buildSubject(order *models.PurchaseOrder) string {
	return fmt.Sprintf("%s (PO %s)", s.subject, order.ID)
}

func (s *service) buildBody(order *models.PurchaseOrder, supplier *models.Supplier) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\r\n\r\n", supplier.Name)
	fmt.Fprintf(&b, "Please find attached purchase order %s dated %s.\r\n",
		order.ID, order.OrderDate.Format("2006-01-02"))
	if due := order.EarliestReplyDue(); due != nil {
		fmt.Fprintf(&b, "We kindly ask for a delivery confirmation by %s.\r\n",
			due.Format("2006-01-02"))
	}
	b.WriteString("\r\nBest regards,\r\n")
	if s.company != "" {
		b.WriteString(s.company)
		b.WriteString("\r\n")
	}
	return b.String()
}

package documents

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mizusaki/procureflow-backend/pkg/config"
	"github.com/mizusaki/procureflow-backend/pkg/db/models"
	"github.com/mizusaki/procureflow-backend/pkg/enums"
	pkgerrors "github.com/mizusaki/procureflow-backend/pkg/errors"
	"github.com/mizusaki/procureflow-backend/pkg/metrics"
	"github.com/mizusaki/procureflow-backend/pkg/redis"
	"github.com/mizusaki/procureflow-backend/pkg/render"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type renderer interface {
	Render(doc render.OrderDocument) ([]byte, error)
}

type documentStore interface {
	Write(ctx context.Context, path string, data []byte) error
	Read(ctx context.Context, path string) ([]byte, error)
}

// GenerateResult reports where the document landed.
type GenerateResult struct {
	Order   *models.PurchaseOrder
	Path    string
	Version int
	Reused  bool
}

// Service renders purchase order documents and tracks their versions.
type Service interface {
	// Generate renders the order document and stores it. With regenerate
	// false an already generated document is reused untouched. The first
	// successful generation moves a DRAFT order to ORDERED.
	Generate(ctx context.Context, orderID uuid.UUID, regenerate bool) (*GenerateResult, error)
	// Preview renders the document body without storing anything.
	Preview(ctx context.Context, orderID uuid.UUID) ([]byte, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	renderer renderer
	store    documentStore
	locker   redis.SendLocker
	lockTTL  time.Duration
	company  render.CompanyProfile
	metrics  *metrics.DispatchMetrics
	now      func() time.Time
}

// NewService wires the document generation service.
func NewService(repo Repository, tx txRunner, r renderer, store documentStore, locker redis.SendLocker, mailCfg config.MailConfig, m *metrics.DispatchMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("documents repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if r == nil {
		return nil, fmt.Errorf("renderer required")
	}
	if store == nil {
		return nil, fmt.Errorf("document store required")
	}
	if locker == nil {
		return nil, fmt.Errorf("order locker required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		renderer: r,
		store:    store,
		locker:   locker,
		lockTTL:  mailCfg.SendLockTTL,
		company: render.CompanyProfile{
			Name:    mailCfg.CompanyName,
			Address: mailCfg.CompanyAddress,
			Phone:   mailCfg.CompanyPhone,
			URL:     mailCfg.CompanyURL,
		},
		metrics: m,
		now:     time.Now,
	}, nil
}

func (s *service) Generate(ctx context.Context, orderID uuid.UUID, regenerate bool) (*GenerateResult, error) {
	started := s.now()
	result, err := s.generate(ctx, orderID, regenerate)
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	if result != nil && result.Reused {
		outcome = "reused"
	}
	s.metrics.ObserveDocument(outcome, s.now().Sub(started))
	return result, err
}

func (s *service) generate(ctx context.Context, orderID uuid.UUID, regenerate bool) (*GenerateResult, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	// One generation or send per order at a time. The version snapshot
	// below is only safe while the lock is held; without it two
	// regenerations would both claim the same suffix.
	if err := s.locker.AcquireSendLock(ctx, orderID.String(), s.lockTTL); err != nil {
		if errors.Is(err, redis.ErrLockHeld) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a generation or send for this order is already in flight")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquiring order lock")
	}
	defer func() {
		_ = s.locker.ReleaseSendLock(ctx, orderID.String())
	}()

	order, supplier, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == enums.PurchaseOrderStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cannot generate a document for a cancelled order")
	}
	if !regenerate && order.DocumentPath != nil {
		return &GenerateResult{
			Order:   order,
			Path:    *order.DocumentPath,
			Version: order.DocumentVersion,
			Reused:  true,
		}, nil
	}

	body, err := s.renderer.Render(buildDocument(order, supplier, s.company))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeRender, err, "rendering order document")
	}

	version := order.DocumentVersion + 1
	path := documentName(order.ID, version)
	if err := s.store.Write(ctx, path, body); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "storing order document")
	}

	// The document is on disk; record path and version, and issue the
	// order on its first document.
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		locked, err := repo.FindOrderForUpdate(ctx, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "locking order")
		}
		locked.DocumentPath = &path
		locked.DocumentVersion = version
		if locked.Status == enums.PurchaseOrderStatusDraft {
			locked.Status = enums.PurchaseOrderStatusOrdered
			if locked.IssuedAt == nil {
				issuedAt := s.now().UTC()
				locked.IssuedAt = &issuedAt
			}
		}
		return repo.SaveOrder(ctx, locked)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording document metadata")
	}

	refreshed, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reloading order")
	}
	return &GenerateResult{Order: refreshed, Path: path, Version: version}, nil
}

func (s *service) Preview(ctx context.Context, orderID uuid.UUID) ([]byte, error) {
	order, supplier, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	body, err := s.renderer.Render(buildDocument(order, supplier, s.company))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeRender, err, "rendering order document")
	}
	return body, nil
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

// documentName keeps the first version unsuffixed so regenerated
// documents never overwrite an already dispatched file.
func documentName(orderID uuid.UUID, version int) string {
	if version <= 1 {
		return fmt.Sprintf("purchase_order_%s.html", orderID)
	}
	return fmt.Sprintf("purchase_order_%s_v%d.html", orderID, version)
}

func buildDocument(order *models.PurchaseOrder, supplier *models.Supplier, company render.CompanyProfile) render.OrderDocument {
	doc := render.OrderDocument{
		OrderID:      order.ID.String(),
		SupplierName: supplier.Name,
		OrderDate:    order.OrderDate,
		ReplyDueDate: order.EarliestReplyDue(),
		Company:      company,
	}
	if order.Note != nil {
		doc.Note = *order.Note
	}
	for _, line := range order.Lines {
		docLine := render.DocumentLine{
			Description:  line.Description,
			Quantity:     line.Quantity,
			ReplyDueDate: line.ReplyDueDate,
		}
		if line.Unit != nil {
			docLine.Unit = *line.Unit
		}
		if line.UnitPrice.Valid {
			price := line.UnitPrice.Decimal
			docLine.UnitPrice = &price
		}
		doc.Lines = append(doc.Lines, docLine)
	}
	return doc
}

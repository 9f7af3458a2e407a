package payment

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ManuelReschke/EventFox/app/models"
)

// Repository provides DB operations used by the payment service.
type Repository interface {
	FindRegistrationByOrderID(orderID string) (*models.Registration, error)
	TransitionPaymentStatus(orderID string, to Status, updates map[string]interface{}) (bool, error)
	ClaimConfirmationEmail(registrationID uint, at time.Time) (bool, error)
	CreateWebhookEventIfNotExists(event *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error)
	MarkWebhookProcessed(id uint, processingError string) error
	PurgeWebhookEventsBefore(cutoff time.Time) (int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a payment repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) FindRegistrationByOrderID(orderID string) (*models.Registration, error) {
	var reg models.Registration
	if err := r.db.Where("order_id = ?", orderID).First(&reg).Error; err != nil {
		return nil, err
	}
	return &reg, nil
}

// TransitionPaymentStatus writes the new status only if it differs from the
// stored one, and never replaces a terminal status with a non-terminal one.
// Both conditions live in the UPDATE so concurrent deliveries cannot race
// past them.
func (r *gormRepository) TransitionPaymentStatus(orderID string, to Status, updates map[string]interface{}) (bool, error) {
	values := make(map[string]interface{}, len(updates)+1)
	for k, v := range updates {
		values[k] = v
	}
	values["payment_status"] = string(to)

	q := r.db.Model(&models.Registration{}).
		Where("order_id = ? AND payment_status <> ?", orderID, string(to))
	if !to.Terminal() {
		q = q.Where("payment_status NOT IN ?", terminalStatusValues())
	}
	tx := q.Updates(values)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// ClaimConfirmationEmail marks the confirmation mail as sent exactly once.
func (r *gormRepository) ClaimConfirmationEmail(registrationID uint, at time.Time) (bool, error) {
	tx := r.db.Model(&models.Registration{}).
		Where("id = ? AND confirmation_sent_at IS NULL", registrationID).
		Update("confirmation_sent_at", at)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *gormRepository) CreateWebhookEventIfNotExists(event *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.PaymentWebhookEvent
	if err := r.db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.PaymentWebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}

func (r *gormRepository) PurgeWebhookEventsBefore(cutoff time.Time) (int64, error) {
	tx := r.db.Where("created_at < ?", cutoff).Delete(&models.PaymentWebhookEvent{})
	return tx.RowsAffected, tx.Error
}

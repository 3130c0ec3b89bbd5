package repositories

import (
	"errors"

	"github.com/ethanctan/ai-oa/internal/models"

	"gorm.io/gorm"
)

type ChatRepository struct {
	DB *gorm.DB
}

// History returns the chat transcript for an instance, oldest first.
func (r *ChatRepository) History(instanceID uint) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	err := r.DB.Where("instance_id = ?", instanceID).Order("created_at ASC, id ASC").Find(&messages).Error
	return messages, err
}

// Append stores a message. A message identical to the most recent one for the
// instance (same role and content) is dropped; retried requests from the
// editor extension would otherwise duplicate turns.
func (r *ChatRepository) Append(message *models.ChatMessage) (bool, error) {
	var last models.ChatMessage
	err := r.DB.Where("instance_id = ?", message.InstanceID).
		Order("created_at DESC, id DESC").
		First(&last).Error
	if err == nil && last.Role == message.Role && last.Content == message.Content {
		return false, nil
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	if err := r.DB.Create(message).Error; err != nil {
		return false, err
	}
	return true, nil
}

// DeleteHistory removes the transcript for an instance.
func (r *ChatRepository) DeleteHistory(instanceID uint) error {
	return r.DB.Where("instance_id = ?", instanceID).Delete(&models.ChatMessage{}).Error
}

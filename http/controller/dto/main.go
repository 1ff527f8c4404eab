package dto

import "github.com/google/uuid"

type CreateConnectionRequestDTO struct {
	Name           string `json:"name" binding:"required,min=1,max=128"`
	BaseURL        string `json:"base_url" binding:"required,url"`
	ConsumerKey    string `json:"consumer_key" binding:"required"`
	ConsumerSecret string `json:"consumer_secret" binding:"required"`
}

type UpdateConnectionRequestDTO struct {
	Name           string `json:"name"`
	BaseURL        string `json:"base_url" binding:"omitempty,url"`
	ConsumerKey    string `json:"consumer_key"`
	ConsumerSecret string `json:"consumer_secret"`
}

type TriggerSyncRequestDTO struct {
	OnlyInStock bool `json:"only_in_stock"`
}

type CreateSessionRequestDTO struct {
	Title string `json:"title" binding:"max=255"`
}

type CreateMessageRequestDTO struct {
	Content         string     `json:"content" binding:"required"`
	Model           string     `json:"model"`
	WantImage       bool       `json:"want_image"`
	ReferenceImages []string   `json:"reference_images"`
	ProductID       *uuid.UUID `json:"product_id"`
}

type UpsertCredentialRequestDTO struct {
	APIKey string `json:"api_key" binding:"required"`
	Model  string `json:"model"`
}

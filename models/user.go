package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/inspect_backend/config"
	"bitbucket.org/mmdatafocus/inspect_backend/utils"
)

type User struct {
	ID             int       `gorm:"primary_key" json:"id"`
	TenantId       string    `gorm:"index;not null" json:"tenant_id"`
	Username       string    `gorm:"size:255;uniqueIndex;not null" json:"username"`
	HashedPassword string    `gorm:"size:255;not null" json:"-"`
	Role           string    `gorm:"size:50" json:"role"`
	Phone          string    `gorm:"size:50" json:"phone"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func GetUserByUsername(ctx context.Context, username string) (*User, error) {
	db := config.GetDB()
	var user User
	err := db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &user, nil
}

func (u *User) CheckPassword(password string) error {
	if err := utils.ComparePassword(u.HashedPassword, password); err != nil {
		return errors.New("invalid credentials")
	}
	return nil
}

func MigrateTable() {
	db := config.GetDB()
	err := db.AutoMigrate(&User{})
	utils.ErrorPanic(err)
}

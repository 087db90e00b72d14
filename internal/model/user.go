package model

import "time"

// User is an administrator account.
//
// Users are provisioned out of band (see `parks create-user`); the web app
// only ever reads them. Email is UNIQUE in every backend, which is what
// makes "look up by email" a safe login key.
//
// PasswordHash is tagged json:"-" so a User can never leak its hash through
// an API response, even by accident.
type User struct {
	ID           int64     `json:"id"        gorm:"primaryKey"`
	Email        string    `json:"email"     gorm:"column:email;uniqueIndex;not null"`
	PasswordHash string    `json:"-"         gorm:"column:password_hash;not null"`
	Name         string    `json:"name"      gorm:"column:name;not null"`
	CreatedAt    time.Time `json:"createdAt" gorm:"column:created_at;autoCreateTime"`
}

func (User) TableName() string { return "users" }

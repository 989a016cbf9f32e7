package models

import "time"

// Usuario is an operator of the tracker. Users are created administratively,
// never through the API.
type Usuario struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Nombre        string    `gorm:"size:255;not null" json:"nombre"`
	Email         string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash  string    `gorm:"column:password_hash;not null" json:"-"`
	FechaRegistro time.Time `gorm:"column:fecha_registro;autoCreateTime" json:"fecha_registro"`
}

func (Usuario) TableName() string { return "usuarios" }

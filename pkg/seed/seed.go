// Package seed inserts the reference catalogs and the initial administrator.
// Every function is idempotent.
package seed

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"finanzas/models"
	"finanzas/pkg/store"
)

// Admin describes a user to create or reset.
type Admin struct {
	Nombre   string
	Email    string
	Password string
}

// Catalogos makes sure every initial account, source and payment method exists.
func Catalogos(gdb *gorm.DB) error {
	for _, nombre := range models.CuentasIniciales {
		if err := gdb.Where(models.Cuenta{Nombre: nombre}).FirstOrCreate(&models.Cuenta{}).Error; err != nil {
			return fmt.Errorf("failed to ensure cuenta %s: %w", nombre, err)
		}
	}
	for _, nombre := range models.OrigenesIniciales {
		if err := gdb.Where(models.Origen{Nombre: nombre}).FirstOrCreate(&models.Origen{}).Error; err != nil {
			return fmt.Errorf("failed to ensure origen %s: %w", nombre, err)
		}
	}
	for _, nombre := range models.MetodosPagoIniciales {
		if err := gdb.Where(models.MetodoPago{Nombre: nombre}).FirstOrCreate(&models.MetodoPago{}).Error; err != nil {
			return fmt.Errorf("failed to ensure metodo de pago %s: %w", nombre, err)
		}
	}
	return nil
}

// EnsureAdmin creates the administrator when no user has its email. An
// existing user is left untouched.
func EnsureAdmin(gdb *gorm.DB, a Admin) (created bool, err error) {
	email := strings.ToLower(strings.TrimSpace(a.Email))
	if email == "" || a.Password == "" {
		return false, errors.New("admin email and password are required")
	}
	var count int64
	if err := gdb.Model(&models.Usuario{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to look up admin: %w", err)
	}
	if count > 0 {
		return false, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(a.Password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("failed to hash admin password: %w", err)
	}
	admin := models.Usuario{Nombre: a.Nombre, Email: email, PasswordHash: string(hash)}
	if err := gdb.Create(&admin).Error; err != nil {
		return false, fmt.Errorf("failed to create admin user: %w", err)
	}
	slog.Info("seeded admin user", "email", email, "id", admin.ID)
	return true, nil
}

// ResetAdmin sets the password of the user with a's email, creating the user
// when missing.
func ResetAdmin(gdb *gorm.DB, a Admin) (created bool, err error) {
	email := strings.ToLower(strings.TrimSpace(a.Email))
	hash, err := bcrypt.GenerateFromPassword([]byte(a.Password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("failed to hash password: %w", err)
	}
	var user models.Usuario
	err = gdb.Where("email = ?", email).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = models.Usuario{Nombre: a.Nombre, Email: email, PasswordHash: string(hash)}
		if err := gdb.Create(&user).Error; err != nil {
			return false, fmt.Errorf("failed to create user: %w", err)
		}
		return true, nil
	case err != nil:
		return false, fmt.Errorf("failed to look up user: %w", err)
	}
	updates := map[string]any{"password_hash": string(hash)}
	if a.Nombre != "" {
		updates["nombre"] = a.Nombre
	}
	if err := gdb.Model(&user).Updates(updates).Error; err != nil {
		return false, fmt.Errorf("failed to update user: %w", err)
	}
	return false, nil
}

// All seeds the catalogs and the administrator.
func All(gdb *gorm.DB, a Admin) error {
	if err := Catalogos(gdb); err != nil {
		return err
	}
	_, err := EnsureAdmin(gdb, a)
	return err
}

// ErrEmailExists is returned by CreateUser when the email is already registered.
var ErrEmailExists = errors.New("ya existe un usuario con ese correo electrónico")

// CreateUser registers a new user. The email is stored lowercased.
func CreateUser(gdb *gorm.DB, a Admin) (models.Usuario, error) {
	nombre := strings.TrimSpace(a.Nombre)
	email := strings.ToLower(strings.TrimSpace(a.Email))
	if nombre == "" || email == "" {
		return models.Usuario{}, errors.New("nombre and email are required")
	}
	if len(a.Password) < 6 {
		return models.Usuario{}, errors.New("password too short (min 6)")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(a.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.Usuario{}, fmt.Errorf("failed to hash password: %w", err)
	}
	user := models.Usuario{Nombre: nombre, Email: email, PasswordHash: string(hash)}
	if err := gdb.Create(&user).Error; err != nil {
		if store.IsUniqueViolation(err) {
			return models.Usuario{}, ErrEmailExists
		}
		return models.Usuario{}, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

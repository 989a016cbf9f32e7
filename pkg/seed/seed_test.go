package seed

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"finanzas/models"
	"finanzas/pkg/store"
)

func openGorm(t *testing.T) *store.DB {
	t.Helper()
	cfg := store.Config{Dialect: store.SQLite, SQLitePath: filepath.Join(t.TempDir(), "seed.db")}
	if err := store.Migrate(cfg); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	db, err := store.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCatalogosIdempotent(t *testing.T) {
	db := openGorm(t)
	for i := 0; i < 2; i++ {
		if err := Catalogos(db.Gorm()); err != nil {
			t.Fatalf("Catalogos() run %d error = %v", i+1, err)
		}
	}
	var n int64
	db.Gorm().Model(&models.Cuenta{}).Count(&n)
	if n != int64(len(models.CuentasIniciales)) {
		t.Errorf("cuentas = %d, want %d", n, len(models.CuentasIniciales))
	}
	db.Gorm().Model(&models.MetodoPago{}).Count(&n)
	if n != int64(len(models.MetodosPagoIniciales)) {
		t.Errorf("metodos_pago = %d, want %d", n, len(models.MetodosPagoIniciales))
	}
}

func TestEnsureAdmin(t *testing.T) {
	db := openGorm(t)
	a := Admin{Nombre: "Administrador", Email: " Admin@Finanzas.corp ", Password: "admin123"}

	created, err := EnsureAdmin(db.Gorm(), a)
	if err != nil || !created {
		t.Fatalf("EnsureAdmin() = %v, %v; want created", created, err)
	}
	created, err = EnsureAdmin(db.Gorm(), Admin{Nombre: "Otro", Email: "admin@finanzas.corp", Password: "other"})
	if err != nil || created {
		t.Fatalf("second EnsureAdmin() = %v, %v; want no-op", created, err)
	}

	var u models.Usuario
	if err := db.Gorm().Where("email = ?", "admin@finanzas.corp").First(&u).Error; err != nil {
		t.Fatal(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("admin123")); err != nil {
		t.Error("original password must be kept")
	}
	if _, err := EnsureAdmin(db.Gorm(), Admin{}); err == nil {
		t.Error("expected error for empty admin")
	}
}

func TestResetAdmin(t *testing.T) {
	db := openGorm(t)
	created, err := ResetAdmin(db.Gorm(), Admin{Nombre: "Carlos Ruiz", Email: "admin@dim.com", Password: "first"})
	if err != nil || !created {
		t.Fatalf("ResetAdmin() = %v, %v; want created", created, err)
	}
	created, err = ResetAdmin(db.Gorm(), Admin{Email: "admin@dim.com", Password: "second"})
	if err != nil || created {
		t.Fatalf("ResetAdmin() = %v, %v; want update", created, err)
	}
	var u models.Usuario
	if err := db.Gorm().Where("email = ?", "admin@dim.com").First(&u).Error; err != nil {
		t.Fatal(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("second")) != nil {
		t.Error("password was not reset")
	}
	if u.Nombre != "Carlos Ruiz" {
		t.Errorf("nombre = %q, empty reset must keep it", u.Nombre)
	}
}

func TestCreateUser(t *testing.T) {
	db := openGorm(t)
	u, err := CreateUser(db.Gorm(), Admin{Nombre: "Ana", Email: "Ana@Finanzas.corp", Password: "secreto1"})
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if u.ID == 0 || u.Email != "ana@finanzas.corp" {
		t.Errorf("unexpected user %+v", u)
	}
	_, err = CreateUser(db.Gorm(), Admin{Nombre: "Ana 2", Email: "ana@finanzas.corp", Password: "secreto2"})
	if !errors.Is(err, ErrEmailExists) {
		t.Errorf("duplicate email error = %v, want ErrEmailExists", err)
	}
	if _, err := CreateUser(db.Gorm(), Admin{Nombre: "Bea", Email: "bea@finanzas.corp", Password: "123"}); err == nil {
		t.Error("expected error for short password")
	}
}

package models

import "time"

// Ingreso is an incoming movement. Amount is stored in the smallest currency unit (cents).
type Ingreso struct {
	ID              uint      `gorm:"primaryKey"`
	Fecha           string    `gorm:"type:date;not null;index"`
	ImporteCentavos int64     `gorm:"column:importe_centavos;not null"`
	Cliente         string    `gorm:"size:255;not null"`
	CuentaID        *uint     `gorm:"column:cuenta_id"`
	MetodoPagoID    *uint     `gorm:"column:metodo_pago_id"`
	RegistradoPor   *uint     `gorm:"column:registrado_por"`
	FechaRegistro   time.Time `gorm:"column:fecha_registro;autoCreateTime"`
}

func (Ingreso) TableName() string { return "ingresos" }

// Egreso is an outgoing movement.
type Egreso struct {
	ID              uint      `gorm:"primaryKey"`
	Fecha           string    `gorm:"type:date;not null;index"`
	ImporteCentavos int64     `gorm:"column:importe_centavos;not null"`
	Detalle         string    `gorm:"size:255;not null"`
	OrigenID        *uint     `gorm:"column:origen_id"`
	MetodoPagoID    *uint     `gorm:"column:metodo_pago_id"`
	RegistradoPor   *uint     `gorm:"column:registrado_por"`
	FechaRegistro   time.Time `gorm:"column:fecha_registro;autoCreateTime"`
}

func (Egreso) TableName() string { return "egresos" }

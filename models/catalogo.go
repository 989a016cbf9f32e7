package models

// Cuenta is an account incoming funds land in.
type Cuenta struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Nombre string `gorm:"size:255;uniqueIndex;not null" json:"nombre"`
}

func (Cuenta) TableName() string { return "cuentas" }

// Origen is the source or category of an outgoing movement.
type Origen struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Nombre string `gorm:"size:255;uniqueIndex;not null" json:"nombre"`
}

func (Origen) TableName() string { return "origenes" }

// MetodoPago is a payment method shared by both movement types.
type MetodoPago struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Nombre string `gorm:"size:255;uniqueIndex;not null" json:"nombre"`
}

func (MetodoPago) TableName() string { return "metodos_pago" }

var (
	CuentasIniciales     = []string{"Banco Principal", "Caja Chica"}
	OrigenesIniciales    = []string{"Ventas", "Servicios", "Proveedores", "Sueldos", "Impuestos", "Alquiler"}
	MetodosPagoIniciales = []string{"Efectivo", "Transferencia", "Tarjeta de Débito", "Tarjeta de Crédito", "Cheque"}
)

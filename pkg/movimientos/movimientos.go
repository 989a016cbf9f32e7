// Package movimientos reads and writes incoming (ingresos) and outgoing
// (egresos) movements and computes the dashboard aggregations over them.
package movimientos

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"finanzas/pkg/money"
	"finanzas/pkg/store"
)

var (
	// ErrNotFound is returned by Update and Delete when no row has the id.
	ErrNotFound = errors.New("transacción no encontrada")
	// ErrValidation wraps every input problem detected before touching the database.
	ErrValidation = errors.New("datos inválidos")
	// ErrTipo is returned for an unknown discriminator.
	ErrTipo = errors.New("tipo inválido")
)

const (
	DefaultCliente = "Consumidor Final"
	DefaultDetalle = "Sin detalle"
	SinAsignar     = "Sin Asignar"
)

// Tipo discriminates incoming from outgoing movements.
type Tipo string

const (
	TipoIngreso Tipo = "ingreso"
	TipoEgreso  Tipo = "egreso"
)

// ParseTipo accepts the singular and plural forms used by clients.
func ParseTipo(s string) (Tipo, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ingreso", "ingresos":
		return TipoIngreso, nil
	case "egreso", "egresos":
		return TipoEgreso, nil
	}
	return "", fmt.Errorf("%w: %q", ErrTipo, s)
}

func (t Tipo) check() error {
	if t != TipoIngreso && t != TipoEgreso {
		return fmt.Errorf("%w: %q", ErrTipo, string(t))
	}
	return nil
}

// Range is an inclusive date range in YYYY-MM-DD. Empty ends mean unbounded
// for listings and "current month" for the dashboard.
type Range struct {
	Desde string
	Hasta string
}

// Bounded reports whether both ends are set.
func (r Range) Bounded() bool { return r.Desde != "" && r.Hasta != "" }

func (r Range) validate() error {
	for _, d := range []string{r.Desde, r.Hasta} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(store.DateLayout, d); err != nil {
			return fmt.Errorf("%w: fecha %q debe tener formato YYYY-MM-DD", ErrValidation, d)
		}
	}
	if r.Bounded() && r.Desde > r.Hasta {
		return fmt.Errorf("%w: desde (%s) es posterior a hasta (%s)", ErrValidation, r.Desde, r.Hasta)
	}
	return nil
}

// Input carries the fields a client may set on a movement. Cliente and
// CuentaID apply to ingresos, Detalle and OrigenID to egresos.
type Input struct {
	Fecha        string      `json:"fecha"`
	Importe      money.Money `json:"importe"`
	Cliente      string      `json:"cliente,omitempty"`
	CuentaID     *int64      `json:"cuenta_id,omitempty"`
	Detalle      string      `json:"detalle,omitempty"`
	OrigenID     *int64      `json:"origen_id,omitempty"`
	MetodoPagoID *int64      `json:"metodoPago_id,omitempty"`
}

// Validate checks the input for the given movement type.
func (in Input) Validate(t Tipo) error {
	if strings.TrimSpace(in.Fecha) == "" {
		return fmt.Errorf("%w: la fecha es requerida", ErrValidation)
	}
	if _, err := time.Parse(store.DateLayout, strings.TrimSpace(in.Fecha)); err != nil {
		return fmt.Errorf("%w: la fecha debe tener formato YYYY-MM-DD", ErrValidation)
	}
	if !in.Importe.IsPositive() {
		return fmt.Errorf("%w: el importe debe ser mayor a cero", ErrValidation)
	}
	refs := map[string]*int64{"metodoPago_id": in.MetodoPagoID}
	if t == TipoIngreso {
		refs["cuenta_id"] = in.CuentaID
	} else {
		refs["origen_id"] = in.OrigenID
	}
	for name, id := range refs {
		if id != nil && *id <= 0 {
			return fmt.Errorf("%w: %s debe ser un id positivo", ErrValidation, name)
		}
	}
	return nil
}

func (in Input) label(t Tipo) string {
	if t == TipoIngreso {
		if s := strings.TrimSpace(in.Cliente); s != "" {
			return s
		}
		return DefaultCliente
	}
	if s := strings.TrimSpace(in.Detalle); s != "" {
		return s
	}
	return DefaultDetalle
}

// Ingreso is an incoming movement joined with its reference names. Listing
// rows share one shape for both types: the amount is "monto" and the label
// (cliente for ingresos) is "detalle".
type Ingreso struct {
	ID            int64       `json:"id"`
	Fecha         string      `json:"fecha"`
	Importe       money.Money `json:"monto"`
	Cliente       string      `json:"detalle"`
	Cuenta        *string     `json:"cuenta"`
	CuentaID      *int64      `json:"cuenta_id"`
	MetodoPago    *string     `json:"metodo_pago"`
	MetodoPagoID  *int64      `json:"metodoPago_id"`
	RegistradoPor *int64      `json:"registradoPor"`
	FechaRegistro time.Time   `json:"fecha_registro"`
	Tipo          Tipo        `json:"tipo"`
}

// Egreso is an outgoing movement joined with its reference names.
type Egreso struct {
	ID            int64       `json:"id"`
	Fecha         string      `json:"fecha"`
	Importe       money.Money `json:"monto"`
	Detalle       string      `json:"detalle"`
	Origen        *string     `json:"origen"`
	OrigenID      *int64      `json:"origen_id"`
	MetodoPago    *string     `json:"metodo_pago"`
	MetodoPagoID  *int64      `json:"metodoPago_id"`
	RegistradoPor *int64      `json:"registradoPor"`
	FechaRegistro time.Time   `json:"fecha_registro"`
	Tipo          Tipo        `json:"tipo"`
}

// Listado is the result of List.
type Listado struct {
	Ingresos []Ingreso `json:"ingresos"`
	Egresos  []Egreso  `json:"egresos"`
}

// Catalogo is a reference entity.
type Catalogo struct {
	ID     int64  `json:"id"`
	Nombre string `json:"nombre"`
}

// Catalogos holds every reference list used by the movement forms.
type Catalogos struct {
	Cuentas     []Catalogo `json:"cuentas"`
	Origenes    []Catalogo `json:"origenes"`
	MetodosPago []Catalogo `json:"metodosPago"`
}

// Totales are the unfiltered sums of both movement types.
type Totales struct {
	TotalIngresos money.Money `json:"totalIngresos"`
	TotalEgresos  money.Money `json:"totalEgresos"`
	SaldoTotal    money.Money `json:"saldoTotal"`
}

package movimientos

import (
	"context"
	"fmt"
	"strings"

	"finanzas/pkg/money"
	"finanzas/pkg/store"
)

const (
	selectIngresos = `SELECT i.id, i.fecha, i.importe_centavos, i.cliente, i.cuenta_id, i.metodo_pago_id,
       i.registrado_por, i.fecha_registro, c.nombre AS cuenta_nombre, m.nombre AS metodo_pago_nombre
FROM ingresos i
LEFT JOIN cuentas c ON i.cuenta_id = c.id
LEFT JOIN metodos_pago m ON i.metodo_pago_id = m.id`

	selectEgresos = `SELECT e.id, e.fecha, e.importe_centavos, e.detalle, e.origen_id, e.metodo_pago_id,
       e.registrado_por, e.fecha_registro, o.nombre AS origen_nombre, m.nombre AS metodo_pago_nombre
FROM egresos e
LEFT JOIN origenes o ON e.origen_id = o.id
LEFT JOIN metodos_pago m ON e.metodo_pago_id = m.id`

	insertIngreso = `INSERT INTO ingresos (fecha, importe_centavos, cliente, cuenta_id, metodo_pago_id, registrado_por)
VALUES (?, ?, ?, ?, ?, ?)`
	insertEgreso = `INSERT INTO egresos (fecha, importe_centavos, detalle, origen_id, metodo_pago_id, registrado_por)
VALUES (?, ?, ?, ?, ?, ?)`

	updateIngreso = `UPDATE ingresos SET fecha = ?, importe_centavos = ?, cliente = ?, cuenta_id = ?, metodo_pago_id = ? WHERE id = ?`
	updateEgreso  = `UPDATE egresos SET fecha = ?, importe_centavos = ?, detalle = ?, origen_id = ?, metodo_pago_id = ? WHERE id = ?`

	deleteIngreso = `DELETE FROM ingresos WHERE id = ?`
	deleteEgreso  = `DELETE FROM egresos WHERE id = ?`

	sumIngresos = `SELECT CAST(COALESCE(SUM(importe_centavos), 0) AS BIGINT) AS total FROM ingresos`
	sumEgresos  = `SELECT CAST(COALESCE(SUM(importe_centavos), 0) AS BIGINT) AS total FROM egresos`
)

// Repository owns every read and write of movement rows.
type Repository struct {
	db store.Backend
}

func NewRepository(db store.Backend) *Repository {
	return &Repository{db: db}
}

// List returns both movement types, newest first. When r is bounded only rows
// with desde <= fecha <= hasta are returned.
func (r *Repository) List(ctx context.Context, rng Range) (Listado, error) {
	if err := rng.validate(); err != nil {
		return Listado{}, err
	}
	where, args := "", []any(nil)
	if rng.Bounded() {
		args = []any{rng.Desde, rng.Hasta}
	}

	out := Listado{Ingresos: []Ingreso{}, Egresos: []Egreso{}}

	if rng.Bounded() {
		where = "\nWHERE i.fecha BETWEEN ? AND ?"
	}
	rows, err := r.db.Query(ctx, selectIngresos+where+"\nORDER BY i.fecha DESC, i.id DESC", args...)
	if err != nil {
		return Listado{}, fmt.Errorf("list ingresos: %w", err)
	}
	for _, row := range rows {
		out.Ingresos = append(out.Ingresos, Ingreso{
			ID:            row.Int64("id"),
			Fecha:         row.Date("fecha"),
			Importe:       money.FromCents(row.Int64("importe_centavos")),
			Cliente:       row.String("cliente"),
			CuentaID:      row.NullInt64("cuenta_id"),
			MetodoPagoID:  row.NullInt64("metodo_pago_id"),
			RegistradoPor: row.NullInt64("registrado_por"),
			FechaRegistro: row.Time("fecha_registro"),
			Cuenta:        row.NullString("cuenta_nombre"),
			MetodoPago:    row.NullString("metodo_pago_nombre"),
			Tipo:          TipoIngreso,
		})
	}

	if rng.Bounded() {
		where = "\nWHERE e.fecha BETWEEN ? AND ?"
	}
	rows, err = r.db.Query(ctx, selectEgresos+where+"\nORDER BY e.fecha DESC, e.id DESC", args...)
	if err != nil {
		return Listado{}, fmt.Errorf("list egresos: %w", err)
	}
	for _, row := range rows {
		out.Egresos = append(out.Egresos, Egreso{
			ID:            row.Int64("id"),
			Fecha:         row.Date("fecha"),
			Importe:       money.FromCents(row.Int64("importe_centavos")),
			Detalle:       row.String("detalle"),
			OrigenID:      row.NullInt64("origen_id"),
			MetodoPagoID:  row.NullInt64("metodo_pago_id"),
			RegistradoPor: row.NullInt64("registrado_por"),
			FechaRegistro: row.Time("fecha_registro"),
			Origen:        row.NullString("origen_nombre"),
			MetodoPago:    row.NullString("metodo_pago_nombre"),
			Tipo:          TipoEgreso,
		})
	}
	return out, nil
}

// Create inserts one movement recorded by userID and returns its id. A zero
// userID records no user.
func (r *Repository) Create(ctx context.Context, t Tipo, in Input, userID int64) (int64, error) {
	if err := t.check(); err != nil {
		return 0, err
	}
	if err := in.Validate(t); err != nil {
		return 0, err
	}
	var registradoPor any
	if userID > 0 {
		registradoPor = userID
	}
	query, ref := insertIngreso, in.CuentaID
	if t == TipoEgreso {
		query, ref = insertEgreso, in.OrigenID
	}
	res, err := r.db.Run(ctx, query,
		strings.TrimSpace(in.Fecha), in.Importe.Cents(), in.label(t), nullable(ref), nullable(in.MetodoPagoID), registradoPor)
	if err != nil {
		return 0, mutationError("create "+string(t), err)
	}
	return res.InsertedID, nil
}

// Update overwrites the editable fields of a movement. The recording user is
// never changed. ErrNotFound is returned when no row has the id.
func (r *Repository) Update(ctx context.Context, t Tipo, id int64, in Input) error {
	if err := t.check(); err != nil {
		return err
	}
	if err := in.Validate(t); err != nil {
		return err
	}
	query, ref := updateIngreso, in.CuentaID
	if t == TipoEgreso {
		query, ref = updateEgreso, in.OrigenID
	}
	res, err := r.db.Run(ctx, query,
		strings.TrimSpace(in.Fecha), in.Importe.Cents(), in.label(t), nullable(ref), nullable(in.MetodoPagoID), id)
	if err != nil {
		return mutationError("update "+string(t), err)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a movement. Deleting a missing id returns ErrNotFound every time.
func (r *Repository) Delete(ctx context.Context, t Tipo, id int64) error {
	if err := t.check(); err != nil {
		return err
	}
	query := deleteIngreso
	if t == TipoEgreso {
		query = deleteEgreso
	}
	res, err := r.db.Run(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", t, err)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Catalogos returns every reference list ordered by name.
func (r *Repository) Catalogos(ctx context.Context) (Catalogos, error) {
	var out Catalogos
	for _, c := range []struct {
		table string
		dst   *[]Catalogo
	}{
		{"cuentas", &out.Cuentas},
		{"origenes", &out.Origenes},
		{"metodos_pago", &out.MetodosPago},
	} {
		rows, err := r.db.Query(ctx, "SELECT id, nombre FROM "+c.table+" ORDER BY nombre")
		if err != nil {
			return Catalogos{}, fmt.Errorf("list %s: %w", c.table, err)
		}
		list := make([]Catalogo, 0, len(rows))
		for _, row := range rows {
			list = append(list, Catalogo{ID: row.Int64("id"), Nombre: row.String("nombre")})
		}
		*c.dst = list
	}
	return out, nil
}

// Totales returns the unfiltered sum of each movement type and the balance.
func (r *Repository) Totales(ctx context.Context) (Totales, error) {
	ing, err := r.sum(ctx, sumIngresos)
	if err != nil {
		return Totales{}, fmt.Errorf("sum ingresos: %w", err)
	}
	egr, err := r.sum(ctx, sumEgresos)
	if err != nil {
		return Totales{}, fmt.Errorf("sum egresos: %w", err)
	}
	return Totales{TotalIngresos: ing, TotalEgresos: egr, SaldoTotal: ing.Sub(egr)}, nil
}

func (r *Repository) sum(ctx context.Context, query string) (money.Money, error) {
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return money.FromCents(rows[0].Int64("total")), nil
}

func nullable(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

func mutationError(op string, err error) error {
	if store.IsForeignKeyViolation(err) {
		return fmt.Errorf("%w: la referencia indicada no existe", ErrValidation)
	}
	return fmt.Errorf("%s: %w", op, err)
}

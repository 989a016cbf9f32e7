package movimientos

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"finanzas/pkg/money"
	"finanzas/pkg/store"
)

// Grouping names, in the order they are reported.
const (
	IngresosPorCuenta = "ingresosCuenta"
	IngresosPorMetodo = "ingresosMetodo"
	EgresosPorOrigen  = "egresosOrigen"
	EgresosPorMetodo  = "egresosMetodo"
)

type grouping struct {
	name  string
	table string
	ref   string
	fk    string
}

var groupings = []grouping{
	{name: IngresosPorCuenta, table: "ingresos", ref: "cuentas", fk: "cuenta_id"},
	{name: IngresosPorMetodo, table: "ingresos", ref: "metodos_pago", fk: "metodo_pago_id"},
	{name: EgresosPorOrigen, table: "egresos", ref: "origenes", fk: "origen_id"},
	{name: EgresosPorMetodo, table: "egresos", ref: "metodos_pago", fk: "metodo_pago_id"},
}

// Groupings returns the names of every dashboard grouping.
func Groupings() []string {
	names := make([]string, len(groupings))
	for i, g := range groupings {
		names[i] = g.name
	}
	return names
}

func (g grouping) query() string {
	label := "COALESCE(r.nombre, '" + SinAsignar + "')"
	return `SELECT ` + label + ` AS label, CAST(SUM(t.importe_centavos) AS BIGINT) AS total
FROM ` + g.table + ` t
LEFT JOIN ` + g.ref + ` r ON t.` + g.fk + ` = r.id
WHERE t.fecha >= ? AND t.fecha <= ?
GROUP BY ` + label + `
HAVING SUM(t.importe_centavos) > 0
ORDER BY total DESC, label`
}

// GroupRow is one label of a grouping with its strictly positive total.
type GroupRow struct {
	Label string      `json:"label"`
	Total money.Money `json:"total"`
}

// GroupResult is the outcome of one grouping. Err is set when its query
// failed; Rows is then empty and the other groupings are unaffected.
type GroupResult struct {
	Name string
	Rows []GroupRow
	Err  error
}

// Metrics is the dashboard feed for one date range.
type Metrics struct {
	Desde  string
	Hasta  string
	Grupos []GroupResult
}

// Group returns the result for name.
func (m Metrics) Group(name string) (GroupResult, bool) {
	for _, g := range m.Grupos {
		if g.Name == name {
			return g, true
		}
	}
	return GroupResult{}, false
}

// Failed returns the groupings whose query failed.
func (m Metrics) Failed() []GroupResult {
	var out []GroupResult
	for _, g := range m.Grupos {
		if g.Err != nil {
			out = append(out, g)
		}
	}
	return out
}

// MarshalJSON writes every grouping under its name. Failed groupings are
// listed under "errores" with a generic message.
func (m Metrics) MarshalJSON() ([]byte, error) {
	out := map[string]any{"desde": m.Desde, "hasta": m.Hasta}
	errores := map[string]string{}
	for _, g := range m.Grupos {
		rows := g.Rows
		if rows == nil {
			rows = []GroupRow{}
		}
		out[g.Name] = rows
		if g.Err != nil {
			errores[g.Name] = "no se pudo calcular"
		}
	}
	if len(errores) > 0 {
		out["errores"] = errores
	}
	return json.Marshal(out)
}

// Dashboard computes the grouped sums shown on the dashboard.
type Dashboard struct {
	db  store.Backend
	now func() time.Time
}

// NewDashboard builds a Dashboard. now defaults to time.Now.
func NewDashboard(db store.Backend, now func() time.Time) *Dashboard {
	if now == nil {
		now = time.Now
	}
	return &Dashboard{db: db, now: now}
}

// CurrentMonth returns the first and last calendar day of the month containing t.
func CurrentMonth(t time.Time) Range {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	last := first.AddDate(0, 1, -1)
	return Range{Desde: first.Format(store.DateLayout), Hasta: last.Format(store.DateLayout)}
}

// Resolve fills missing ends of rng with the current month and validates it.
func (d *Dashboard) Resolve(rng Range) (Range, error) {
	month := CurrentMonth(d.now())
	if rng.Desde == "" {
		rng.Desde = month.Desde
	}
	if rng.Hasta == "" {
		rng.Hasta = month.Hasta
	}
	return rng, rng.validate()
}

// Metrics runs the four groupings for rng. Only an invalid range is an error;
// a failing grouping is reported in its GroupResult.
func (d *Dashboard) Metrics(ctx context.Context, rng Range) (Metrics, error) {
	rng, err := d.Resolve(rng)
	if err != nil {
		return Metrics{}, err
	}
	out := Metrics{Desde: rng.Desde, Hasta: rng.Hasta, Grupos: make([]GroupResult, len(groupings))}

	var g errgroup.Group
	for i, gr := range groupings {
		g.Go(func() error {
			rows, err := d.group(ctx, gr, rng)
			out.Grupos[i] = GroupResult{Name: gr.name, Rows: rows, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return out, nil
}

func (d *Dashboard) group(ctx context.Context, gr grouping, rng Range) ([]GroupRow, error) {
	rows, err := d.db.Query(ctx, gr.query(), rng.Desde, rng.Hasta)
	if err != nil {
		return []GroupRow{}, fmt.Errorf("%s: %w", gr.name, err)
	}
	out := make([]GroupRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, GroupRow{Label: row.String("label"), Total: money.FromCents(row.Int64("total"))})
	}
	return out, nil
}

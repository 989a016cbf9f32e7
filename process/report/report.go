// Package report prints the monthly dashboard of the tracker on a terminal.
package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"finanzas/pkg/money"
	"finanzas/pkg/movimientos"
	"finanzas/pkg/store"
)

// MonthRange returns the inclusive range of a YYYY-MM month.
func MonthRange(month string) (movimientos.Range, error) {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return movimientos.Range{}, fmt.Errorf("invalid month %q, expected YYYY-MM: %w", month, err)
	}
	return movimientos.CurrentMonth(t), nil
}

// RunReport writes totals and the four dashboard groupings of month to w and
// optionally lists every movement of the month.
func RunReport(ctx context.Context, db store.Backend, month string, list bool, w io.Writer) error {
	rng, err := MonthRange(month)
	if err != nil {
		return err
	}
	listado, err := movimientos.NewRepository(db).List(ctx, rng)
	if err != nil {
		return fmt.Errorf("list movements: %w", err)
	}
	metrics, err := movimientos.NewDashboard(db, nil).Metrics(ctx, rng)
	if err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}

	var ing, egr money.Money
	for _, i := range listado.Ingresos {
		ing = ing.Add(i.Importe)
	}
	for _, e := range listado.Egresos {
		egr = egr.Add(e.Importe)
	}

	fmt.Fprintf(w, "Reporte %s (%s .. %s), backend=%s\n", month, rng.Desde, rng.Hasta, db.Dialect())
	fmt.Fprintf(w, "  ingresos: registros=%d total=%s\n", len(listado.Ingresos), ing)
	fmt.Fprintf(w, "  egresos:  registros=%d total=%s\n", len(listado.Egresos), egr)
	fmt.Fprintf(w, "  saldo:    %s\n", ing.Sub(egr))

	for _, g := range metrics.Grupos {
		fmt.Fprintf(w, "%s:\n", g.Name)
		if g.Err != nil {
			fmt.Fprintf(w, "  error: %v\n", g.Err)
			continue
		}
		if len(g.Rows) == 0 {
			fmt.Fprintln(w, "  (sin datos)")
		}
		for _, r := range g.Rows {
			fmt.Fprintf(w, "  %-24s %12s\n", r.Label, r.Total)
		}
	}

	if list {
		for _, i := range listado.Ingresos {
			fmt.Fprintf(w, "I|%d|%s|%s|%s|%s\n", i.ID, i.Fecha, i.Importe, i.Cliente, deref(i.Cuenta))
		}
		for _, e := range listado.Egresos {
			fmt.Fprintf(w, "E|%d|%s|%s|%s|%s\n", e.ID, e.Fecha, e.Importe, e.Detalle, deref(e.Origen))
		}
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return movimientos.SinAsignar
	}
	return *s
}

package movimientos

import (
	"context"
	"errors"
	"testing"
)

func TestParseTipo(t *testing.T) {
	tests := map[string]Tipo{"ingreso": TipoIngreso, "Ingresos": TipoIngreso, "egreso": TipoEgreso, " egresos ": TipoEgreso}
	for in, want := range tests {
		got, err := ParseTipo(in)
		if err != nil || got != want {
			t.Errorf("ParseTipo(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseTipo("transferencia"); !errors.Is(err, ErrTipo) {
		t.Errorf("ParseTipo(transferencia) error = %v, want ErrTipo", err)
	}
}

func TestInputValidate(t *testing.T) {
	tests := []struct {
		name    string
		tipo    Tipo
		in      Input
		wantErr bool
	}{
		{name: "valid ingreso", tipo: TipoIngreso, in: Input{Fecha: "2026-10-15", Importe: 100}},
		{name: "missing fecha", tipo: TipoIngreso, in: Input{Importe: 100}, wantErr: true},
		{name: "bad fecha", tipo: TipoEgreso, in: Input{Fecha: "15/10/2026", Importe: 100}, wantErr: true},
		{name: "zero importe", tipo: TipoEgreso, in: Input{Fecha: "2026-10-15"}, wantErr: true},
		{name: "negative importe", tipo: TipoEgreso, in: Input{Fecha: "2026-10-15", Importe: -5}, wantErr: true},
		{name: "non positive cuenta", tipo: TipoIngreso, in: Input{Fecha: "2026-10-15", Importe: 1, CuentaID: ptr(0)}, wantErr: true},
		{name: "cuenta ignored on egreso", tipo: TipoEgreso, in: Input{Fecha: "2026-10-15", Importe: 1, CuentaID: ptr(-1)}},
		{name: "non positive metodo", tipo: TipoEgreso, in: Input{Fecha: "2026-10-15", Importe: 1, MetodoPagoID: ptr(-2)}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate(tt.tipo)
			if tt.wantErr && !errors.Is(err, ErrValidation) {
				t.Fatalf("Validate() error = %v, want ErrValidation", err)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("Validate() unexpected error: %v", err)
			}
		})
	}
}

// An incoming movement is listed back with identical values.
func TestCreateAndList_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	userID := insertUser(t, db, "ana@finanzas.corp")
	cuenta := catalogID(t, db, "cuentas", "Banco Principal")
	metodo := catalogID(t, db, "metodos_pago", "Transferencia")

	id, err := repo.Create(ctx, TipoIngreso, Input{
		Fecha:        "2026-10-15",
		Importe:      mustMoney(t, "5000.00"),
		Cliente:      "Cliente Test",
		CuentaID:     ptr(cuenta),
		MetodoPagoID: ptr(metodo),
	}, userID)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if id == 0 {
		t.Fatal("Create() returned no id")
	}

	got, err := repo.List(ctx, Range{Desde: "2026-10-01", Hasta: "2026-10-31"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got.Ingresos) != 1 || len(got.Egresos) != 0 {
		t.Fatalf("List() = %d ingresos, %d egresos", len(got.Ingresos), len(got.Egresos))
	}
	ing := got.Ingresos[0]
	if ing.ID != id || ing.Fecha != "2026-10-15" || ing.Importe.String() != "5000.00" || ing.Cliente != "Cliente Test" {
		t.Errorf("unexpected ingreso %+v", ing)
	}
	if ing.CuentaID == nil || *ing.CuentaID != cuenta || ing.Cuenta == nil || *ing.Cuenta != "Banco Principal" {
		t.Errorf("cuenta not joined: %+v", ing)
	}
	if ing.MetodoPago == nil || *ing.MetodoPago != "Transferencia" {
		t.Errorf("metodo not joined: %+v", ing)
	}
	if ing.RegistradoPor == nil || *ing.RegistradoPor != userID {
		t.Errorf("registradoPor = %v, want %d", ing.RegistradoPor, userID)
	}
	if ing.FechaRegistro.IsZero() {
		t.Error("fecha_registro not set")
	}
	if ing.Tipo != TipoIngreso {
		t.Errorf("tipo = %q, want %q", ing.Tipo, TipoIngreso)
	}
}

func TestCreate_DefaultsAndNullReferences(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	if _, err := repo.Create(ctx, TipoIngreso, Input{Fecha: "2026-10-01", Importe: 100, Cliente: "   "}, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Create(ctx, TipoEgreso, Input{Fecha: "2026-10-02", Importe: 250}, 0); err != nil {
		t.Fatal(err)
	}
	got, err := repo.List(ctx, Range{})
	if err != nil {
		t.Fatal(err)
	}
	if got.Ingresos[0].Cliente != DefaultCliente {
		t.Errorf("cliente = %q, want %q", got.Ingresos[0].Cliente, DefaultCliente)
	}
	if got.Egresos[0].Detalle != DefaultDetalle {
		t.Errorf("detalle = %q, want %q", got.Egresos[0].Detalle, DefaultDetalle)
	}
	e := got.Egresos[0]
	if e.OrigenID != nil || e.Origen != nil || e.MetodoPagoID != nil || e.MetodoPago != nil || e.RegistradoPor != nil {
		t.Errorf("expected null references, got %+v", e)
	}
}

func TestCreate_UnknownReference(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	_, err := repo.Create(context.Background(), TipoEgreso, Input{Fecha: "2026-10-01", Importe: 100, OrigenID: ptr(999)}, 0)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("Create() error = %v, want ErrValidation", err)
	}
}

func TestList_InclusiveRangeAndOrder(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	for _, f := range []string{"2026-09-30", "2026-10-01", "2026-10-15", "2026-10-31", "2026-11-01"} {
		if _, err := repo.Create(ctx, TipoEgreso, Input{Fecha: f, Importe: 100}, 0); err != nil {
			t.Fatal(err)
		}
	}

	got, err := repo.List(ctx, Range{Desde: "2026-10-01", Hasta: "2026-10-31"})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"2026-10-31", "2026-10-15", "2026-10-01"}
	if len(got.Egresos) != len(want) {
		t.Fatalf("got %d egresos, want %d", len(got.Egresos), len(want))
	}
	for i, e := range got.Egresos {
		if e.Fecha != want[i] {
			t.Errorf("egreso %d fecha = %s, want %s", i, e.Fecha, want[i])
		}
	}

	all, err := repo.List(ctx, Range{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all.Egresos) != 5 {
		t.Errorf("unbounded list returned %d, want 5", len(all.Egresos))
	}

	if _, err := repo.List(ctx, Range{Desde: "2026-10-31", Hasta: "2026-10-01"}); !errors.Is(err, ErrValidation) {
		t.Errorf("reversed range error = %v, want ErrValidation", err)
	}
	if _, err := repo.List(ctx, Range{Desde: "octubre", Hasta: "2026-10-01"}); !errors.Is(err, ErrValidation) {
		t.Errorf("bad date error = %v, want ErrValidation", err)
	}
}

func TestUpdate(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	userID := insertUser(t, db, "ana@finanzas.corp")
	origen := catalogID(t, db, "origenes", "Proveedores")

	id, err := repo.Create(ctx, TipoEgreso, Input{Fecha: "2026-10-10", Importe: 1000, Detalle: "Papel"}, userID)
	if err != nil {
		t.Fatal(err)
	}
	err = repo.Update(ctx, TipoEgreso, id, Input{Fecha: "2026-10-11", Importe: mustMoney(t, "12.34"), Detalle: "Papel A4", OrigenID: ptr(origen)})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	got, _ := repo.List(ctx, Range{})
	e := got.Egresos[0]
	if e.Fecha != "2026-10-11" || e.Importe != 1234 || e.Detalle != "Papel A4" || e.Origen == nil || *e.Origen != "Proveedores" {
		t.Errorf("unexpected egreso after update %+v", e)
	}
	if e.RegistradoPor == nil || *e.RegistradoPor != userID {
		t.Errorf("update must keep registradoPor, got %v", e.RegistradoPor)
	}

	if err := repo.Update(ctx, TipoEgreso, 9999, Input{Fecha: "2026-10-11", Importe: 1}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update(missing) error = %v, want ErrNotFound", err)
	}
	// the id exists but in the other table
	if err := repo.Update(ctx, TipoIngreso, id+100, Input{Fecha: "2026-10-11", Importe: 1}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update(other table) error = %v, want ErrNotFound", err)
	}
	if err := repo.Update(ctx, Tipo("x"), id, Input{Fecha: "2026-10-11", Importe: 1}); !errors.Is(err, ErrTipo) {
		t.Errorf("Update(bad tipo) error = %v, want ErrTipo", err)
	}
}

func TestDelete_NotFoundIsRepeatable(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	id, err := repo.Create(ctx, TipoIngreso, Input{Fecha: "2026-10-10", Importe: 1000}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.Delete(ctx, TipoEgreso, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete(wrong tipo) error = %v, want ErrNotFound", err)
	}
	if err := repo.Delete(ctx, TipoIngreso, id); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := repo.Delete(ctx, TipoIngreso, id); !errors.Is(err, ErrNotFound) {
			t.Errorf("Delete(missing) attempt %d error = %v, want ErrNotFound", i+1, err)
		}
	}
}

func TestCatalogos(t *testing.T) {
	db := newTestDB(t)
	got, err := NewRepository(db).Catalogos(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Cuentas) != 2 || got.Cuentas[0].Nombre != "Banco Principal" || got.Cuentas[1].Nombre != "Caja Chica" {
		t.Errorf("cuentas = %+v", got.Cuentas)
	}
	for i := 1; i < len(got.Origenes); i++ {
		if got.Origenes[i-1].Nombre > got.Origenes[i].Nombre {
			t.Errorf("origenes not ordered: %+v", got.Origenes)
		}
	}
	if len(got.MetodosPago) == 0 {
		t.Error("metodos de pago missing")
	}
}

func TestTotales(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	empty, err := repo.Totales(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if empty.TotalIngresos != 0 || empty.TotalEgresos != 0 || empty.SaldoTotal != 0 {
		t.Errorf("empty totals = %+v", empty)
	}

	for _, s := range []string{"0.10", "0.20", "1000.05"} {
		if _, err := repo.Create(ctx, TipoIngreso, Input{Fecha: "2025-01-01", Importe: mustMoney(t, s)}, 0); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := repo.Create(ctx, TipoEgreso, Input{Fecha: "2026-12-31", Importe: mustMoney(t, "400.40")}, 0); err != nil {
		t.Fatal(err)
	}
	got, err := repo.Totales(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.TotalIngresos.String() != "1000.35" || got.TotalEgresos.String() != "400.40" || got.SaldoTotal.String() != "599.95" {
		t.Errorf("Totales() = %+v", got)
	}
}

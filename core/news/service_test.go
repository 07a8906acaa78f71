package news_test

import (
	"context"
	"testing"

	"github.com/infobank/intranet/core"
	"github.com/infobank/intranet/core/news"
	inmemdb "github.com/infobank/intranet/storage/database/inmem"
)

func newTestService() *news.Service {
	return news.NewService(inmemdb.NewNewsRepository(inmemdb.NewDB()), core.NewBus())
}

func Test_newsService_Create(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	item, err := svc.Create(ctx, news.NewNews{Titulo: "Nueva sucursal", Contenido: "Abrimos en Lubumbashi"})
	if err != nil {
		t.Fatalf("Create(): %v", err)
	}
	if item.ID == "" || item.FechaPublicacion.IsZero() {
		t.Errorf("item = %+v", item)
	}
	// blanks fall back to defaults
	if item.Categoria != news.DefaultCategoria || item.Autor != news.DefaultAutor {
		t.Errorf("defaults = (%v, %v); want (%v, %v)", item.Categoria, item.Autor, news.DefaultCategoria, news.DefaultAutor)
	}

	item, err = svc.Create(ctx, news.NewNews{
		Titulo: "Resultados Q2", Contenido: "Balance positivo",
		Categoria: "Finanzas", Autor: "Dirección", FechaPublicacion: "2026-07-01",
	})
	if err != nil {
		t.Fatalf("Create(): %v", err)
	}
	if item.Categoria != "Finanzas" || item.Autor != "Dirección" {
		t.Errorf("item = %+v", item)
	}
	if got := item.FechaPublicacion.Format("2006-01-02"); got != "2026-07-01" {
		t.Errorf("fechaPublicacion = %v; want 2026-07-01", got)
	}
}

func Test_newsService_QuerySearch(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	seeds := []news.NewNews{
		{Titulo: "Nueva sucursal", Contenido: "Abrimos en Goma"},
		{Titulo: "Resultados Q2", Contenido: "Balance positivo", Autor: "Dirección"},
		{Titulo: "Mantenimiento", Contenido: "Corte de sistemas el sábado"},
	}
	for i, nn := range seeds {
		if _, err := svc.Create(ctx, nn); err != nil {
			t.Fatalf("Create(%d): %v", i, err)
		}
	}

	all, err := svc.Query(ctx, "")
	if err != nil {
		t.Fatalf("Query(): %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Query() = %v items; want 3", len(all))
	}

	// case-insensitive across titulo, contenido and autor
	for _, search := range []string{"SUCURSAL", "balance", "dirección"} {
		items, err := svc.Query(ctx, search)
		if err != nil {
			t.Fatalf("Query(%s): %v", search, err)
		}
		if len(items) != 1 {
			t.Errorf("Query(%s) = %v items; want 1", search, len(items))
		}
	}
}

func Test_newsService_UpdateAndDelete(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	item, err := svc.Create(ctx, news.NewNews{Titulo: "Borrador", Contenido: "Pendiente"})
	if err != nil {
		t.Fatalf("Create(): %v", err)
	}

	item, err = svc.Update(ctx, item.ID, news.NewNews{Titulo: "Publicado", Contenido: "Listo", Categoria: "RRHH"})
	if err != nil {
		t.Fatalf("Update(): %v", err)
	}
	if item.Titulo != "Publicado" || item.Categoria != "RRHH" {
		t.Errorf("updated = %+v", item)
	}

	if _, err = svc.Update(ctx, "nope", news.NewNews{Titulo: "X", Contenido: "Y"}); err != news.ErrNotFound {
		t.Errorf("Update(unknown) err = %v; want ErrNotFound", err)
	}

	if err = svc.Delete(ctx, item.ID); err != nil {
		t.Fatalf("Delete(): %v", err)
	}
	if _, err = svc.GetByID(ctx, item.ID); err != news.ErrNotFound {
		t.Errorf("GetByID() after delete err = %v; want ErrNotFound", err)
	}
}

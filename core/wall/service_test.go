package wall_test

import (
	"context"
	"testing"

	"github.com/infobank/intranet/core"
	"github.com/infobank/intranet/core/user"
	"github.com/infobank/intranet/core/wall"
	inmemdb "github.com/infobank/intranet/storage/database/inmem"
)

func newTestService() *wall.Service {
	return wall.NewService(inmemdb.NewWallRepository(inmemdb.NewDB()), core.NewBus())
}

func Test_wallService(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	post, err := svc.Create(ctx, wall.NewPost{Titulo: "Bienvenida", Contenido: "Nuevo compañero en Sistemas"}, "Admin", user.RolAdmin)
	if err != nil {
		t.Fatalf("Create(): %v", err)
	}
	if post.ID == "" || post.Fecha.IsZero() || post.FechaActualizada != nil {
		t.Errorf("post = %+v", post)
	}
	// the author is stamped from the session, never from the payload
	if post.AutorNombre != "Admin" || post.AutorRol != user.RolAdmin {
		t.Errorf("autor = (%v, %v); want (Admin, admin)", post.AutorNombre, post.AutorRol)
	}
	if post.Categoria != wall.DefaultCategoria {
		t.Errorf("categoria = %v; want %v", post.Categoria, wall.DefaultCategoria)
	}

	post, err = svc.Update(ctx, post.ID, wall.NewPost{Titulo: "Bienvenida!", Contenido: "Ya llegó", Categoria: "RRHH"})
	if err != nil {
		t.Fatalf("Update(): %v", err)
	}
	if post.Titulo != "Bienvenida!" || post.Categoria != "RRHH" {
		t.Errorf("updated = %+v", post)
	}
	if post.FechaActualizada == nil {
		t.Error("update left no fechaActualizada stamp")
	}
	if post.AutorNombre != "Admin" {
		t.Errorf("autor after update = %v; want Admin", post.AutorNombre)
	}

	posts, err := svc.Query(ctx)
	if err != nil {
		t.Fatalf("Query(): %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("Query() = %v posts; want 1", len(posts))
	}

	if err = svc.Delete(ctx, post.ID); err != nil {
		t.Fatalf("Delete(): %v", err)
	}
	if _, err = svc.GetByID(ctx, post.ID); err != wall.ErrNotFound {
		t.Errorf("GetByID() after delete err = %v; want ErrNotFound", err)
	}
}

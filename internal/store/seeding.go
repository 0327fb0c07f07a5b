package store

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/darxtarr/txxt/internal/auth"
	"github.com/darxtarr/txxt/internal/world"
)

// defaultServices enumerates the service taxonomy seeded into an
// empty save file. Fixed, well-known UUIDs keep a seeded database
// reproducible across environments, the way the original seeding
// collaborator did.
var defaultServices = []struct {
	id   string
	name string
}{
	{"6b3c18d4-2a1d-4f2b-9d4c-0a0c3f0f2f10", "Billing Portal"},
	{"a8c2f1f0-8b8f-4a62-9d3a-8c1d7b4c2a01", "Customer Support"},
	{"0c1d2e3f-4a5b-6c7d-8e9f-0123456789ab", "Internal Tools"},
	{"11121314-1516-1718-191a-1b1c1d1e1f20", "Infrastructure"},
	{"21222324-2526-2728-292a-2b2c2d2e2f30", "Platform Engineering"},
	{"31323334-3536-3738-393a-3b3c3d3e3f40", "Product Design"},
	{"41424344-4546-4748-494a-4b4c4d4e4f50", "Data Platform"},
	{"51525354-5556-5758-595a-5b5c5d5e5f60", "Security"},
	{"61626364-6566-6768-696a-6b6c6d6e6f70", "Growth Marketing"},
	{"71727374-7576-7778-797a-7b7c7d7e7f80", "Sales Engineering"},
	{"81828384-8586-8788-898a-8b8c8d8e8f90", "Developer Relations"},
	{"f2a1c3b4-5d6e-4f70-8123-4567890abcde", "Finance Ops"},
}

// EnsureDefaultServices seeds the service taxonomy if w currently has
// none. Returns the number created; 0 on an already-seeded world.
func (sf *SaveFile) EnsureDefaultServices(w *world.World) (int, error) {
	if len(w.Services()) > 0 {
		return 0, nil
	}

	for _, d := range defaultServices {
		id, err := uuid.Parse(d.id)
		if err != nil {
			return 0, fmt.Errorf("store: parsing seeded service id %q: %w", d.id, err)
		}
		svc := world.Service{ID: id, Name: d.name}
		if err := sf.SaveService(svc); err != nil {
			return 0, err
		}
		w.SeedService(svc)
	}
	return len(defaultServices), nil
}

// EnsureDefaultUser seeds a single admin user (username "admin",
// password "admin") if w currently has no users. Returns true if a
// user was created.
func (sf *SaveFile) EnsureDefaultUser(w *world.World) (bool, error) {
	if len(w.Users()) > 0 {
		return false, nil
	}

	hash, err := auth.HashPassword("admin")
	if err != nil {
		return false, fmt.Errorf("store: hashing default admin password: %w", err)
	}

	u := world.User{ID: uuid.New(), Username: "admin", PasswordHash: hash}
	if err := sf.SaveUser(u); err != nil {
		return false, err
	}
	w.SeedUser(u)
	return true, nil
}

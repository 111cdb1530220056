package rbac

import (
	"context"
	"testing"

	"github.com/hitoshi/mssecurity/internal/model"
)

func samplePermissions() []*model.Permission {
	return []*model.Permission{
		{ID: 1, URL: "/api/users", Method: "GET", Entity: "users"},
		{ID: 2, URL: "/api/roles", Method: "GET", Entity: "roles"},
		{ID: 3, URL: "/api/users", Method: "POST", Entity: "users"},
		{ID: 4, URL: "/api/devices", Method: "GET", Entity: "devices"},
		{ID: 5, URL: "/api/roles", Method: "DELETE", Entity: "roles"},
	}
}

// TestGroupPermissions_OrderAndMembership はグループ順序とhas_permissionを検証する。
func TestGroupPermissions_OrderAndMembership(t *testing.T) {
	held := map[int64]struct{}{1: {}, 5: {}}

	groups := GroupPermissions(samplePermissions(), held)

	wantEntities := []string{"users", "roles", "devices"}
	if len(groups) != len(wantEntities) {
		t.Fatalf("len(groups) = %d, want %d", len(groups), len(wantEntities))
	}
	for i, want := range wantEntities {
		if groups[i].Entity != want {
			t.Errorf("groups[%d].Entity = %q, want %q", i, groups[i].Entity, want)
		}
	}

	wantIDs := [][]int64{{1, 3}, {2, 5}, {4}}
	wantHeld := [][]bool{{true, false}, {false, true}, {false}}
	for i, g := range groups {
		if len(g.Permissions) != len(wantIDs[i]) {
			t.Fatalf("group %q has %d permissions, want %d", g.Entity, len(g.Permissions), len(wantIDs[i]))
		}
		for j, p := range g.Permissions {
			if p.ID != wantIDs[i][j] {
				t.Errorf("group %q [%d].ID = %d, want %d", g.Entity, j, p.ID, wantIDs[i][j])
			}
			if p.HasPermission != wantHeld[i][j] {
				t.Errorf("group %q permission %d has_permission = %v, want %v", g.Entity, p.ID, p.HasPermission, wantHeld[i][j])
			}
		}
	}
}

// TestGroupPermissions_EachPermissionOnce は各権限がちょうど1つのグループに現れることを検証する。
func TestGroupPermissions_EachPermissionOnce(t *testing.T) {
	perms := samplePermissions()
	groups := GroupPermissions(perms, nil)

	seen := make(map[int64]int)
	for _, g := range groups {
		for _, p := range g.Permissions {
			if p.Entity != g.Entity {
				t.Errorf("permission %d with entity %q placed in group %q", p.ID, p.Entity, g.Entity)
			}
			seen[p.ID]++
		}
	}
	for _, p := range perms {
		if seen[p.ID] != 1 {
			t.Errorf("permission %d appears %d times, want 1", p.ID, seen[p.ID])
		}
	}
}

func TestGroupPermissions_Empty(t *testing.T) {
	groups := GroupPermissions(nil, nil)
	if groups == nil || len(groups) != 0 {
		t.Errorf("GroupPermissions(nil) = %v, want empty non-nil slice", groups)
	}
}

// TestPermissionService_BuildMatrix_UnknownRole は存在しないロールで全権限がfalseになることを検証する。
func TestPermissionService_BuildMatrix_UnknownRole(t *testing.T) {
	repo := &mockPermissionRepo{
		listFn: func(ctx context.Context) ([]*model.Permission, error) { return samplePermissions(), nil },
	}
	held := &mockHeld{ids: map[int64]map[int64]struct{}{2: {1: {}}}}
	svc := NewPermissionService(repo, held)

	groups, err := svc.BuildMatrix(context.Background(), 999)
	if err != nil {
		t.Fatalf("BuildMatrix returned error: %v", err)
	}
	total := 0
	for _, g := range groups {
		for _, p := range g.Permissions {
			total++
			if p.HasPermission {
				t.Errorf("permission %d has_permission = true for unknown role", p.ID)
			}
		}
	}
	if total != len(samplePermissions()) {
		t.Errorf("matrix holds %d permissions, want %d", total, len(samplePermissions()))
	}
}

func TestPermissionService_BuildMatrix_HeldRole(t *testing.T) {
	repo := &mockPermissionRepo{
		listFn: func(ctx context.Context) ([]*model.Permission, error) { return samplePermissions(), nil },
	}
	held := &mockHeld{ids: map[int64]map[int64]struct{}{2: {4: {}}}}
	svc := NewPermissionService(repo, held)

	groups, err := svc.BuildMatrix(context.Background(), 2)
	if err != nil {
		t.Fatalf("BuildMatrix returned error: %v", err)
	}
	devices := groups[2]
	if devices.Entity != "devices" || !devices.Permissions[0].HasPermission {
		t.Errorf("devices group = %+v, want permission 4 held", devices)
	}
}

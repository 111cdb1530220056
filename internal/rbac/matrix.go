package rbac

import "github.com/hitoshi/mssecurity/internal/model"

// GroupPermissions は権限をentityごとにまとめ、heldに含まれる権限にhas_permissionを立てる。
// グループはentityが最初に現れた順、グループ内は入力順を保つ。
func GroupPermissions(permissions []*model.Permission, held map[int64]struct{}) []model.PermissionGroup {
	groups := make([]model.PermissionGroup, 0)
	index := make(map[string]int)

	for _, p := range permissions {
		_, has := held[p.ID]
		grant := model.PermissionGrant{Permission: *p, HasPermission: has}

		i, ok := index[p.Entity]
		if !ok {
			i = len(groups)
			index[p.Entity] = i
			groups = append(groups, model.PermissionGroup{
				Entity:      p.Entity,
				Permissions: make([]model.PermissionGrant, 0, 1),
			})
		}
		groups[i].Permissions = append(groups[i].Permissions, grant)
	}
	return groups
}

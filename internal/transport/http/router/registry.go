package router

import (
	"sort"

	"github.com/Divyaanshvats/intern-management-system/internal/transport/http/ez"
)

// APIModule mounts its actions; public takes anonymous callers, authed
// runs behind AuthJWT.
type APIModule interface{ MountAPI(public, authed ez.EZ) }

// Optional: lower values mount first. Modules without it default to 100.
type prioritizer interface{ Priority() int }

func mountAll(mods []APIModule, public, authed ez.EZ) {
	mods = append([]APIModule(nil), mods...)
	sort.SliceStable(mods, func(i, j int) bool {
		return priorityOf(mods[i]) < priorityOf(mods[j])
	})
	for _, m := range mods {
		m.MountAPI(public, authed)
	}
}

func priorityOf(v any) int {
	if p, ok := v.(prioritizer); ok {
		return p.Priority()
	}
	return 100
}

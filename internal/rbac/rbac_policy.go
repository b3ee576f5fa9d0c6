package rbac

import "go-leave-assistant/internal/actor"

const modelText = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

type permission struct {
	role     actor.Role
	resource string
	action   string
}

// Each role inherits every permission of the role it is grouped under.
var roleInheritance = [][2]actor.Role{
	{actor.RoleManager, actor.RoleEmployee},
	{actor.RoleHRManager, actor.RoleManager},
	{actor.RoleHRAdmin, actor.RoleHRManager},
}

var defaultPermissions = []permission{
	{actor.RoleEmployee, "chat", "create"},
	{actor.RoleEmployee, "balance", "read"},
	{actor.RoleEmployee, "leave", "read"},
	{actor.RoleEmployee, "leave", "cancel"},
	{actor.RoleManager, "leave", "approve"},
	{actor.RoleManager, "leave", "reject"},
	{actor.RoleManager, "leave", "read_pending"},
	{actor.RoleHRManager, "balance", "read_any"},
}

package domain

// Routes are the logical redirect targets wired by the application.
type Routes struct {
	SignIn           string
	CompanySignIn    string
	StudentDashboard string
	CompanyDashboard string
}

// Dashboard returns the authenticated landing route for kind.
func (r Routes) Dashboard(kind AccountKind) string {
	switch kind {
	case KindCompany:
		return r.CompanyDashboard
	case KindStudent:
		return r.StudentDashboard
	default:
		return r.SignIn
	}
}

// signInFor returns the sign-in route an anonymous visitor is sent to when a
// route requires role.
func (r Routes) signInFor(role AccountKind) string {
	if role == KindCompany && r.CompanySignIn != "" {
		return r.CompanySignIn
	}
	return r.SignIn
}

// Requirement is the static access condition declared by a guard.
type Requirement struct {
	RequireAuth      bool
	RequireAnonymous bool
	// Role restricts RequireAuth to one account kind. Empty means any kind.
	Role AccountKind
	// Landing overrides the public-only redirect target. Empty means the
	// role-specific dashboard.
	Landing string
}

// RequireProtected is the generic protected requirement.
func RequireProtected() Requirement {
	return Requirement{RequireAuth: true}
}

// RequireRole is the role-scoped protected requirement.
func RequireRole(role AccountKind) Requirement {
	return Requirement{RequireAuth: true, Role: role}
}

// RequirePublicOnly is the anonymous-only requirement.
func RequirePublicOnly(landing string) Requirement {
	return Requirement{RequireAnonymous: true, Landing: landing}
}

// Action is what a guard does with a request.
type Action int

const (
	// ActionRenderChildren serves the guarded route.
	ActionRenderChildren Action = iota
	// ActionRenderLoading serves the loading placeholder; the bootstrap has
	// not settled.
	ActionRenderLoading
	// ActionRedirect sends the visitor to Decision.Target.
	ActionRedirect
)

func (a Action) String() string {
	switch a {
	case ActionRenderChildren:
		return "render"
	case ActionRenderLoading:
		return "loading"
	case ActionRedirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Decision is the guard outcome. From is set only when the redirect should be
// undone after a successful login.
type Decision struct {
	Action Action
	Target string
	From   string
}

// Decide evaluates the guard decision table for one request. It performs no
// side effects.
func Decide(snap Snapshot, req Requirement, routes Routes, location string) Decision {
	if snap.IsLoading() {
		return Decision{Action: ActionRenderLoading}
	}

	if !snap.IsAuthenticated() {
		if req.RequireAuth {
			return Decision{
				Action: ActionRedirect,
				Target: routes.signInFor(req.Role),
				From:   location,
			}
		}
		return Decision{Action: ActionRenderChildren}
	}

	user := snap.User
	if req.RequireAuth && req.Role != "" && user.Kind != req.Role {
		// Role mismatch goes to the generic sign-in, never the role-specific
		// one, and the protected location is not remembered.
		return Decision{Action: ActionRedirect, Target: routes.SignIn}
	}

	if req.RequireAnonymous {
		target := req.Landing
		if target == "" {
			target = routes.Dashboard(user.Kind)
		}
		return Decision{Action: ActionRedirect, Target: target}
	}

	return Decision{Action: ActionRenderChildren}
}

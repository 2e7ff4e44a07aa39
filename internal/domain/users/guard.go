package users

// RequireAdmin fails unless actor is an administrator
func RequireAdmin(actor *User) error {
	if actor == nil || !actor.IsAdmin {
		return ErrAdminRequired
	}
	return nil
}

// CheckLogin applies the approval rule: admins may always log in,
// everyone else only once approved.
func CheckLogin(u *User) error {
	if u.Pending() {
		return ErrPendingApproval
	}
	return nil
}

// CheckRoleChange validates that actor may give target the role.
// adminCount is the number of administrators before the change.
func CheckRoleChange(actor, target *User, role Role, adminCount int) error {
	if err := RequireAdmin(actor); err != nil {
		return err
	}
	if actor.ID == target.ID {
		return ErrSelfRoleChange
	}
	if target.IsAdmin && role == RoleUser && adminCount <= 1 {
		return ErrLastAdmin
	}
	return nil
}

// ApplyRole sets the role on u; promoted admins are approved as well
func ApplyRole(u *User, role Role) {
	u.IsAdmin = role == RoleAdmin
	if u.IsAdmin {
		u.IsApproved = true
	}
}

// NewRegistration builds the account for a new sign-up. The first account
// of the installation becomes an approved administrator.
func NewRegistration(username, passwordHash string, existingUsers int) *User {
	first := existingUsers == 0
	return &User{
		Username:     username,
		PasswordHash: passwordHash,
		IsAdmin:      first,
		IsApproved:   first,
	}
}

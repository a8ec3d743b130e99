package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin   = "admin"
	RoleStaff   = "staff"
	RoleCliente = "cliente"
)

// IsStaffRole admin y staff pueden operar sobre recursos de otros usuarios.
func IsStaffRole(role string) bool {
	return role == RoleAdmin || role == RoleStaff
}

// User representa un usuario de la tienda (socio, cliente o personal del club).
type User struct {
	ID           string
	Email        string
	PasswordHash string // bcrypt hash, nunca plano en dominio después de persistir
	Name         string
	Role         string // admin, staff, cliente
	Status       string // active, inactive
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Clone copia el usuario.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

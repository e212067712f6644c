// internal/models/user.go
package models

import "time"

type Role string

const (
	RoleProducer     Role = "producer"
	RoleVeterinarian Role = "veterinarian"
)

func (r Role) Valid() bool {
	return r == RoleProducer || r == RoleVeterinarian
}

// User là tài khoản đăng nhập; mỗi user gắn với đúng một hồ sơ producer hoặc veterinarian.
type User struct {
	ID        string    `bson:"_id" json:"id"`
	Email     string    `bson:"email" json:"email"`
	Password  string    `bson:"password" json:"-"`
	Role      Role      `bson:"role" json:"role"`
	ProfileID string    `bson:"profileID" json:"profileID"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

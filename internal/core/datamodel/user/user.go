package user

import "time"

const TableName = "users"

// Columns is the persisted shape of the users relation, in migration order.
var Columns = []string{
	"id",
	"public_id",
	"username",
	"email",
	"role",
	"password_hash",
	"member_since",
	"last_update",
	"last_login",
	"employee_id",
}

type User struct {
	ID           int64      `gorm:"column:id;primaryKey"`
	PublicID     string     `gorm:"column:public_id;size:36;not null;uniqueIndex:uq__users__public_id"`
	Username     *string    `gorm:"column:username;size:120;uniqueIndex:uq__users__username"`
	Email        string     `gorm:"column:email;size:120;not null;uniqueIndex:uq__users__email"`
	Role         string     `gorm:"column:role;size:16;not null"`
	PasswordHash string     `gorm:"column:password_hash;size:256;not null"`
	MemberSince  time.Time  `gorm:"column:member_since;not null"`
	LastUpdate   *time.Time `gorm:"column:last_update"`
	LastLogin    *time.Time `gorm:"column:last_login"`
	EmployeeID   *int64     `gorm:"column:employee_id;index"`
}

func (User) TableName() string {
	return TableName
}

package model

import "time"

type User struct {
	BaseModel
	Name      string     `gorm:"size:100;not null" json:"name"`
	Email     string     `gorm:"size:100;unique;not null" json:"email"`
	Password  string     `gorm:"size:100;not null" json:"-"`
	XP        int        `gorm:"default:0" json:"xp"` // lifetime XP across all finished attempts
	Avatar    string     `gorm:"size:255" json:"avatar"`
	Disabled  bool       `gorm:"default:false" json:"disabled"`
	LastLogin *time.Time `json:"lastLogin"`
	LastSeen  *time.Time `json:"lastSeen"`
}

func (User) TableName() string {
	return "users"
}

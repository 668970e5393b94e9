package model

import "time"

// User 用户（由身份服务创建，核心只引用其 id）
type User struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	Name      string `gorm:"type:varchar(64);not null"`
	Email     string `gorm:"type:varchar(128);uniqueIndex:ux_user_email"`
	Password  string `gorm:"type:varchar(128)"` // bcrypt hash
	Age       int
	Bio       string   `gorm:"type:text"`
	Img       string   `gorm:"type:text"`
	Lat       *float64 `gorm:"type:real"`
	Lng       *float64 `gorm:"type:real"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (User) TableName() string { return "users" }

// UserSummary 公开资料（不含 email / password）
type UserSummary struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Age  int      `json:"age"`
	Bio  string   `json:"bio"`
	Img  string   `json:"img"`
	Lat  *float64 `json:"lat,omitempty"`
	Lng  *float64 `json:"lng,omitempty"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Age: u.Age, Bio: u.Bio, Img: u.Img, Lat: u.Lat, Lng: u.Lng}
}

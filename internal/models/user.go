package models

import "time"

type User struct {
	ID        int64     `yaml:"id" json:"id"`
	Name      string    `yaml:"name" json:"name"`
	Email     string    `yaml:"email" json:"email"`
	CreatedAt time.Time `yaml:"created_at" json:"created_at"`
}

package models

import (
	"encoding/json"
	"time"
)

// CV - резюме пользователя. Data хранится как произвольный JSON-документ.
type CV struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Name      string          `json:"name"`
	Data      json.RawMessage `json:"data"`
	Slug      string          `json:"slug"`
	IsPublic  bool            `json:"is_public"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// CVContent - поля резюме, которые использует публичная страница.
// Skills и Tools - списки через запятую, Responsibilities - строки через перевод строки.
type CVContent struct {
	Name         string         `json:"name"`
	Role         string         `json:"role"`
	Email        string         `json:"email"`
	Phone        string         `json:"phone"`
	Location     string         `json:"location"`
	LinkedIn     string         `json:"linkedin"`
	Summary      string         `json:"summary"`
	ProfileImage string         `json:"profileImage"`
	Skills       string         `json:"skills"`
	Tools        string         `json:"tools"`
	Experiences  []CVExperience `json:"experiences"`
	Education    []CVEducation  `json:"education"`
}

// CVExperience - запись об опыте работы.
type CVExperience struct {
	Role             string `json:"role"`
	Company          string `json:"company"`
	Dates            string `json:"dates"`
	Responsibilities string `json:"responsibilities"`
}

// CVEducation - запись об образовании.
type CVEducation struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	Dates       string `json:"dates"`
}

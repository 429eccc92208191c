package models

import "time"

// Course курс каталога. NumOfVideos всегда равен количеству лекций.
type Course struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Lectures    []Lecture `json:"lectures,omitempty"`
	Poster      Asset     `json:"poster"`
	Views       int       `json:"views"`
	NumOfVideos int       `json:"numOfVideos"`
	Category    string    `json:"category"`
	CreatedBy   string    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Lecture лекция курса с видео в медиа-хранилище.
type Lecture struct {
	ID          string `json:"_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Video       Asset  `json:"videos"`
}

// CourseFilter параметры поиска по каталогу.
type CourseFilter struct {
	Keyword  string
	Category string
}

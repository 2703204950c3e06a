package domain

import "time"

// Genre describes a movie genre embedded in each movie.
type Genre struct {
	Name        string
	Description string
}

// Director is embedded in each movie; Birth and Death are optional dates.
type Director struct {
	Name  string
	Bio   string
	Birth *time.Time
	Death *time.Time
}

// Movie represents the canonical movie entity in the catalog.
type Movie struct {
	ID          string
	Title       string
	Description string
	Genre       Genre
	Director    Director
	Actors      []string
	ImagePath   string
	Featured    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

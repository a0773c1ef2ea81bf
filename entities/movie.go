package entities

// Movie is the metadata blob stored alongside shows. The ledger only reads Title.
type Movie struct {
	ID               string       `json:"_id"`
	Title            string       `json:"title"`
	Overview         string       `json:"overview"`
	PosterPath       string       `json:"poster_path"`
	BackdropPath     string       `json:"backdrop_path"`
	Genres           []Genre      `json:"genres"`
	Casts            []CastMember `json:"casts"`
	ReleaseDate      string       `json:"release_date"`
	OriginalLanguage string       `json:"original_language"`
	Tagline          string       `json:"tagline"`
	VoteAverage      float64      `json:"vote_average"`
	Runtime          int          `json:"runtime"`
}

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type CastMember struct {
	Name        string `json:"name"`
	Character   string `json:"character"`
	ProfilePath string `json:"profile_path"`
}

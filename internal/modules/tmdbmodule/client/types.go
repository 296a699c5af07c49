package client

// SearchResponse is a page of movie or TV search results
type SearchResponse struct {
	Page         int      `json:"page"`
	Results      []Result `json:"results"`
	TotalPages   int      `json:"total_pages"`
	TotalResults int      `json:"total_results"`
}

// Result is one search hit. Movies fill Title and ReleaseDate, shows fill
// Name and FirstAirDate.
type Result struct {
	ID               int     `json:"id"`
	Title            string  `json:"title,omitempty"`
	Name             string  `json:"name,omitempty"`
	OriginalTitle    string  `json:"original_title,omitempty"`
	OriginalName     string  `json:"original_name,omitempty"`
	Overview         string  `json:"overview"`
	ReleaseDate      string  `json:"release_date,omitempty"`
	FirstAirDate     string  `json:"first_air_date,omitempty"`
	GenreIDs         []int   `json:"genre_ids"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int     `json:"vote_count"`
	Popularity       float64 `json:"popularity"`
	PosterPath       string  `json:"poster_path,omitempty"`
	BackdropPath     string  `json:"backdrop_path,omitempty"`
	OriginalLanguage string  `json:"original_language"`
}

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type CastMember struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Character   string `json:"character"`
	ProfilePath string `json:"profile_path"`
	Order       int    `json:"order"`
}

type CrewMember struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Job         string `json:"job"`
	Department  string `json:"department"`
	ProfilePath string `json:"profile_path"`
}

// Credits is the cast and crew of a movie, show or episode
type Credits struct {
	ID   int          `json:"id"`
	Cast []CastMember `json:"cast"`
	Crew []CrewMember `json:"crew"`
}

// Directors returns the names of crew members credited as director
func (c *Credits) Directors() []string {
	if c == nil {
		return nil
	}
	var names []string
	for _, member := range c.Crew {
		if member.Job == "Director" {
			names = append(names, member.Name)
		}
	}
	return names
}

type Video struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	Site     string `json:"site"`
	Type     string `json:"type"`
	Official bool   `json:"official"`
}

type Videos struct {
	Results []Video `json:"results"`
}

// TrailerURL returns the YouTube URL of the first trailer, preferring
// official ones
func (v *Videos) TrailerURL() string {
	if v == nil {
		return ""
	}
	var fallback string
	for _, video := range v.Results {
		if video.Site != "YouTube" || video.Type != "Trailer" || video.Key == "" {
			continue
		}
		url := "https://www.youtube.com/watch?v=" + video.Key
		if video.Official {
			return url
		}
		if fallback == "" {
			fallback = url
		}
	}
	return fallback
}

// MovieDetails is GET /movie/{id}, with credits and videos when appended
type MovieDetails struct {
	ID               int      `json:"id"`
	Title            string   `json:"title"`
	OriginalTitle    string   `json:"original_title"`
	Overview         string   `json:"overview"`
	Tagline          string   `json:"tagline"`
	ReleaseDate      string   `json:"release_date"`
	Runtime          int      `json:"runtime"`
	Status           string   `json:"status"`
	VoteAverage      float64  `json:"vote_average"`
	VoteCount        int      `json:"vote_count"`
	Popularity       float64  `json:"popularity"`
	OriginalLanguage string   `json:"original_language"`
	Genres           []Genre  `json:"genres"`
	PosterPath       string   `json:"poster_path"`
	BackdropPath     string   `json:"backdrop_path"`
	Credits          *Credits `json:"credits,omitempty"`
	Videos           *Videos  `json:"videos,omitempty"`
}

type Creator struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// SeasonSummary is a season as listed on a show
type SeasonSummary struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Overview     string `json:"overview"`
	PosterPath   string `json:"poster_path"`
	SeasonNumber int    `json:"season_number"`
	EpisodeCount int    `json:"episode_count"`
	AirDate      string `json:"air_date"`
}

// TVDetails is GET /tv/{id}
type TVDetails struct {
	ID               int             `json:"id"`
	Name             string          `json:"name"`
	OriginalName     string          `json:"original_name"`
	Overview         string          `json:"overview"`
	FirstAirDate     string          `json:"first_air_date"`
	LastAirDate      string          `json:"last_air_date"`
	Status           string          `json:"status"`
	InProduction     bool            `json:"in_production"`
	NumberOfSeasons  int             `json:"number_of_seasons"`
	NumberOfEpisodes int             `json:"number_of_episodes"`
	EpisodeRunTime   []int           `json:"episode_run_time"`
	Genres           []Genre         `json:"genres"`
	CreatedBy        []Creator       `json:"created_by"`
	VoteAverage      float64         `json:"vote_average"`
	VoteCount        int             `json:"vote_count"`
	Popularity       float64         `json:"popularity"`
	PosterPath       string          `json:"poster_path"`
	BackdropPath     string          `json:"backdrop_path"`
	Seasons          []SeasonSummary `json:"seasons"`
	Videos           *Videos         `json:"videos,omitempty"`
}

// SeasonDetails is GET /tv/{id}/season/{n}
type SeasonDetails struct {
	ID           int              `json:"id"`
	Name         string           `json:"name"`
	Overview     string           `json:"overview"`
	PosterPath   string           `json:"poster_path"`
	SeasonNumber int              `json:"season_number"`
	AirDate      string           `json:"air_date"`
	Episodes     []EpisodeDetails `json:"episodes"`
}

// EpisodeDetails is GET /tv/{id}/season/{n}/episode/{e}
type EpisodeDetails struct {
	ID            int     `json:"id"`
	Name          string  `json:"name"`
	Overview      string  `json:"overview"`
	AirDate       string  `json:"air_date"`
	EpisodeNumber int     `json:"episode_number"`
	SeasonNumber  int     `json:"season_number"`
	StillPath     string  `json:"still_path"`
	Runtime       int     `json:"runtime"`
	VoteAverage   float64 `json:"vote_average"`
	VoteCount     int     `json:"vote_count"`
	Videos        *Videos `json:"videos,omitempty"`
}

// apiError is the body TMDB sends with non-2xx responses
type apiError struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
}

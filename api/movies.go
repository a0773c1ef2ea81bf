package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"quickshow/entities"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"
)

const defaultTMDBBaseURL = "https://api.themoviedb.org/3"

// MovieClient fetches movie metadata from TMDB.
type MovieClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewMovieClient(baseURL, apiKey string) *MovieClient {
	if baseURL == "" {
		baseURL = defaultTMDBBaseURL
	}

	return &MovieClient{
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   10 * time.Second,
		},
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

type tmdbMovie struct {
	ID               int              `json:"id"`
	Title            string           `json:"title"`
	Overview         string           `json:"overview"`
	PosterPath       string           `json:"poster_path"`
	BackdropPath     string           `json:"backdrop_path"`
	Genres           []entities.Genre `json:"genres"`
	ReleaseDate      string           `json:"release_date"`
	OriginalLanguage string           `json:"original_language"`
	Tagline          string           `json:"tagline"`
	VoteAverage      float64          `json:"vote_average"`
	Runtime          int              `json:"runtime"`
}

type tmdbCredits struct {
	Cast []entities.CastMember `json:"cast"`
}

// MovieByID fetches details and credits in parallel.
func (c *MovieClient) MovieByID(ctx context.Context, movieID string) (entities.Movie, error) {
	if _, err := strconv.Atoi(movieID); err != nil {
		return entities.Movie{}, fmt.Errorf("%w: %s", entities.ErrMovieNotFound, movieID)
	}

	var (
		details tmdbMovie
		credits tmdbCredits
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.get(ctx, "movie/"+movieID, &details)
	})
	g.Go(func() error {
		return c.get(ctx, "movie/"+movieID+"/credits", &credits)
	})
	if err := g.Wait(); err != nil {
		return entities.Movie{}, err
	}

	return entities.Movie{
		ID:               strconv.Itoa(details.ID),
		Title:            details.Title,
		Overview:         details.Overview,
		PosterPath:       details.PosterPath,
		BackdropPath:     details.BackdropPath,
		Genres:           details.Genres,
		Casts:            credits.Cast,
		ReleaseDate:      details.ReleaseDate,
		OriginalLanguage: details.OriginalLanguage,
		Tagline:          details.Tagline,
		VoteAverage:      details.VoteAverage,
		Runtime:          details.Runtime,
	}, nil
}

func (c *MovieClient) get(ctx context.Context, path string, target any) error {
	endpoint, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return fmt.Errorf("invalid tmdb url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: could not call tmdb %s: %w", entities.ErrUpstream, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return entities.ErrMovieNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unexpected status code from tmdb %s: %d", entities.ErrUpstream, path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("could not decode tmdb %s: %w", path, err)
	}

	return nil
}

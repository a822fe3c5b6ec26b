package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

func New(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = "https://api.themoviedb.org/3"
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// MovieData is the shared movie block returned by list endpoints.
type MovieData struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	Overview         string  `json:"overview"`
	GenreIDs         []int64 `json:"genre_ids"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int     `json:"vote_count"`
	Popularity       float64 `json:"popularity"`
	ReleaseDate      string  `json:"release_date"`
	OriginalLanguage string  `json:"original_language"`
}

// ReleaseYear parses the year out of the release_date field; 0 when unknown.
func (m MovieData) ReleaseYear() int {
	if len(m.ReleaseDate) < 4 {
		return 0
	}
	y, err := strconv.Atoi(m.ReleaseDate[:4])
	if err != nil {
		return 0
	}
	return y
}

type MovieListResponse struct {
	Page         int         `json:"page"`
	Results      []MovieData `json:"results"`
	TotalPages   int         `json:"total_pages"`
	TotalResults int         `json:"total_results"`
}

type GenreListResponse struct {
	Genres []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"genres"`
}

// MovieDetail is the detail-endpoint shape; genres arrive expanded there
// instead of as genre_ids.
type MovieDetail struct {
	MovieData
	Genres []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"genres"`
	Credits struct {
		Cast []struct {
			ID int64 `json:"id"`
		} `json:"cast"`
	} `json:"credits"`
}

// GetMovieDetails fetches a single movie with credits appended.
func (c *Client) GetMovieDetails(ctx context.Context, movieID int64) (*MovieDetail, error) {
	if movieID <= 0 {
		return nil, fmt.Errorf("movieID required")
	}
	var out MovieDetail
	err := c.get(ctx, "/movie/"+strconv.FormatInt(movieID, 10),
		url.Values{"append_to_response": {"credits"}}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetPopularMovies fetches a page of the popular-movies list.
func (c *Client) GetPopularMovies(ctx context.Context, page int) (*MovieListResponse, error) {
	return c.movieList(ctx, "/movie/popular", url.Values{"page": {strconv.Itoa(max(page, 1))}})
}

// GetTrendingMovies fetches the weekly trending list.
func (c *Client) GetTrendingMovies(ctx context.Context) (*MovieListResponse, error) {
	return c.movieList(ctx, "/trending/movie/week", nil)
}

// DiscoverMovies queries the discover endpoint for the given genres.
func (c *Client) DiscoverMovies(ctx context.Context, genreIDs []int64, page int) (*MovieListResponse, error) {
	q := url.Values{"page": {strconv.Itoa(max(page, 1))}, "sort_by": {"popularity.desc"}}
	if len(genreIDs) > 0 {
		parts := make([]string, len(genreIDs))
		for i, id := range genreIDs {
			parts[i] = strconv.FormatInt(id, 10)
		}
		q.Set("with_genres", strings.Join(parts, ","))
	}
	return c.movieList(ctx, "/discover/movie", q)
}

// GetGenres fetches the movie genre list.
func (c *Client) GetGenres(ctx context.Context) (*GenreListResponse, error) {
	var out GenreListResponse
	if err := c.get(ctx, "/genre/movie/list", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) movieList(ctx context.Context, path string, q url.Values) (*MovieListResponse, error) {
	var out MovieListResponse
	if err := c.get(ctx, path, q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, dst any) error {
	if q == nil {
		q = url.Values{}
	}
	if c.APIKey != "" {
		q.Set("api_key", c.APIKey)
	}

	u, _ := url.Parse(c.BaseURL + path)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "movie-platform-recommender/1.0")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tmdb: status %d body=%q", resp.StatusCode, string(b[:min(len(b), 200)]))
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("tmdb: decode error: %w body=%q", err, string(b[:min(len(b), 200)]))
	}
	return nil
}

package tmdb

import "context"

// Provider is the port for fetching movie data from the TMDb API.
type Provider interface {
	GetMovieDetails(ctx context.Context, movieID int64) (*MovieDetail, error)
	GetPopularMovies(ctx context.Context, page int) (*MovieListResponse, error)
	GetTrendingMovies(ctx context.Context) (*MovieListResponse, error)
	DiscoverMovies(ctx context.Context, genreIDs []int64, page int) (*MovieListResponse, error)
	GetGenres(ctx context.Context) (*GenreListResponse, error)
}

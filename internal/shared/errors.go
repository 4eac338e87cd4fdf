package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")
	ErrConfiguration = fmt.Errorf("missing required configuration")
	ErrInvalidAPIKey = fmt.Errorf("invalid API key")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrAuthExchange     = fmt.Errorf("authorization exchange rejected")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrNoRefreshToken   = fmt.Errorf("no refresh token available")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// API and service errors
	ErrRemoteAPI          = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrSetlistNotFound    = fmt.Errorf("setlist not found")
	ErrTrackNotFound      = fmt.Errorf("track not found")

	// Playback engine errors
	ErrEngineInit    = fmt.Errorf("playback engine initialization failed")
	ErrEngineAuth    = fmt.Errorf("playback engine rejected token")
	ErrEngineAccount = fmt.Errorf("account not eligible for playback")
	ErrNoDevice      = fmt.Errorf("no playback device available")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

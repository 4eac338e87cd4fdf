// Package server provides HTTP routing, middleware, and the OAuth redirect callback.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # OAuth Callback Handler
//
// OAuthHandler implements the OAuth2 authorization code callback flow.
//
// The handler validates the state parameter (CSRF protection), delegates the code exchange
// to the auth client (which persists the resulting tokens), and sends the outcome through a channel.
//
// It only processes one callback to prevent replay attacks.
//
// # Usage
//
// When the user runs the login command, a temporary HTTP server starts on the configured
// loopback address, handles the redirect callback, and shuts down after the flow completes.
// The redirect URI registered with the streaming provider must point at this server.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server

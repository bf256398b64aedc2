// Package router assembles the chi HTTP router: the authentication routes,
// the authenticated URL routes, the redirect proxy and the service routes
// (ping, metrics), together with the logging, metrics and rate-limit
// middlewares.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mkravets/urlbox/internal/auth"
	"github.com/mkravets/urlbox/internal/logger"
	"github.com/mkravets/urlbox/internal/models"
	"github.com/mkravets/urlbox/internal/shortener"
)

type service interface {
	Register(ctx context.Context, username, password string) (int64, error)
	Login(ctx context.Context, username, password string) (string, error)
	Logout(ctx context.Context, userID int64) error
	GetUserURLs(ctx context.Context, userID int64) (models.UserURLs, error)
	CreateShortLink(ctx context.Context, userID int64, originalURL string) (models.UserURL, error)
	ResolveShortURL(ctx context.Context, short string) (string, error)
	Ping(ctx context.Context) error
}

type authenticator interface {
	AuthenticateUser(h http.Handler) http.Handler
}

type middlewarer interface {
	Middleware(h http.Handler) http.Handler
}

// Router holds the handler dependencies.
type Router struct {
	svc      service
	validate *validator.Validate
}

// New builds the HTTP handler tree.
func New(
	svc service,
	authGate authenticator,
	credentialsLimiter middlewarer,
	metricsMiddleware func(http.Handler) http.Handler,
	metricsHandler http.Handler,
) *chi.Mux {
	router := &Router{
		svc:      svc,
		validate: validator.New(),
	}

	mux := chi.NewRouter()
	mux.Use(logger.WithLoggingHTTPMiddleware)
	mux.Use(metricsMiddleware)

	mux.Route(`/auth`, func(mux chi.Router) {
		mux.Group(func(mux chi.Router) {
			mux.Use(credentialsLimiter.Middleware)
			mux.Post(`/register`, router.PostRegister)
			mux.Post(`/login`, router.PostLogin)
		})

		mux.Group(func(mux chi.Router) {
			mux.Use(authGate.AuthenticateUser)
			mux.Post(`/logout`, router.PostLogout)
			mux.Post(`/url`, router.PostShortenURL)
			mux.Get(`/getAllUrls`, router.GetAllURLs)
		})
	})

	mux.Get(`/short/{short}`, router.GetRedirectToFullURL)
	mux.Get(`/ping`, router.GetPing)
	mux.Method(http.MethodGet, `/metrics`, metricsHandler)

	return mux
}

// PostRegister creates a new account.
// Responds 201 with the new user id, 409 when the username is taken.
func (router *Router) PostRegister(response http.ResponseWriter, request *http.Request) {
	var registerRequest models.RegisterRequest
	if !router.decodeAndValidate(response, request, &registerRequest) {
		return
	}

	userID, err := router.svc.Register(request.Context(), registerRequest.Username, registerRequest.Password)
	if err != nil {
		if errors.Is(err, models.ErrUsernameTaken) {
			writeJSONError(response, http.StatusConflict, models.ErrUsernameTaken.Error())

			return
		}
		logger.Log.Errorln("error registering user:", zap.Error(err))
		writeJSONError(response, http.StatusInternalServerError, "error registering user")

		return
	}

	writeJSON(response, http.StatusCreated, models.RegisterResponse{
		Message: "User registered",
		UserID:  userID,
	})
}

// PostLogin authenticates the credentials and returns a fresh token.
// A prior session of the same user is revoked by the new login.
func (router *Router) PostLogin(response http.ResponseWriter, request *http.Request) {
	var loginRequest models.LoginRequest
	if !router.decodeAndValidate(response, request, &loginRequest) {
		return
	}

	authToken, err := router.svc.Login(request.Context(), loginRequest.Username, loginRequest.Password)
	if err != nil {
		if errors.Is(err, models.ErrInvalidCredentials) {
			writeJSONError(response, http.StatusUnauthorized, models.ErrInvalidCredentials.Error())

			return
		}
		logger.Log.Errorln("error logging in:", zap.Error(err))
		writeJSONError(response, http.StatusInternalServerError, "error logging in")

		return
	}

	writeJSON(response, http.StatusOK, models.LoginResponse{
		Message: "Login successful",
		Token:   authToken,
	})
}

// PostLogout destroys the caller's session. Calling it without a live
// session is not possible (the gate rejects it first), but the delete
// itself is idempotent.
func (router *Router) PostLogout(response http.ResponseWriter, request *http.Request) {
	userID, ok := auth.UserIDFromContext(request.Context())
	if !ok {
		writeJSONError(response, http.StatusUnauthorized, auth.ErrNoToken.Error())

		return
	}

	if err := router.svc.Logout(request.Context(), userID); err != nil {
		logger.Log.Errorln("error logging out:", zap.Error(err))
		writeJSONError(response, http.StatusInternalServerError, "error logging out")

		return
	}

	writeJSON(response, http.StatusOK, map[string]string{"message": "Logged out"})
}

// PostShortenURL submits a URL for shortening on behalf of the caller.
func (router *Router) PostShortenURL(response http.ResponseWriter, request *http.Request) {
	userID, ok := auth.UserIDFromContext(request.Context())
	if !ok {
		writeJSONError(response, http.StatusUnauthorized, auth.ErrNoToken.Error())

		return
	}

	var shortenRequest models.ShortenRequest
	if !router.decodeAndValidate(response, request, &shortenRequest) {
		return
	}

	created, err := router.svc.CreateShortLink(request.Context(), userID, shortenRequest.URL)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrDuplicateURL):
			writeJSONError(response, http.StatusConflict, models.ErrDuplicateURL.Error())
		case errors.Is(err, shortener.ErrUpstream):
			logger.Log.Errorln("shortening service call failed:", zap.Error(err))
			writeJSONError(response, http.StatusInternalServerError, "failed to shorten URL")
		default:
			logger.Log.Errorln("error creating short link:", zap.Error(err))
			writeJSONError(response, http.StatusInternalServerError, "failed to shorten URL")
		}

		return
	}

	writeJSON(response, http.StatusCreated, created)
}

// GetAllURLs returns the caller's URL directory.
func (router *Router) GetAllURLs(response http.ResponseWriter, request *http.Request) {
	userID, ok := auth.UserIDFromContext(request.Context())
	if !ok {
		writeJSONError(response, http.StatusUnauthorized, auth.ErrNoToken.Error())

		return
	}

	urls, err := router.svc.GetUserURLs(request.Context(), userID)
	if err != nil {
		logger.Log.Errorln("error fetching user URLs:", zap.Error(err))
		writeJSONError(response, http.StatusInternalServerError, "error fetching URLs")

		return
	}

	writeJSON(response, http.StatusOK, urls)
}

// GetRedirectToFullURL resolves a short code via the shortening service and
// redirects to the original URL.
func (router *Router) GetRedirectToFullURL(response http.ResponseWriter, request *http.Request) {
	short := chi.URLParam(request, "short")

	originalURL, err := router.svc.ResolveShortURL(request.Context(), short)
	if err != nil {
		if errors.Is(err, models.ErrShortURLNotFound) {
			writeJSONError(response, http.StatusNotFound, models.ErrShortURLNotFound.Error())

			return
		}
		logger.Log.Errorln("error resolving short URL:", zap.Error(err))
		writeJSONError(response, http.StatusInternalServerError, "internal server error")

		return
	}

	// Stored URLs may lack a scheme; a bare host would redirect relatively.
	if !strings.HasPrefix(originalURL, "http") {
		originalURL = "http://" + originalURL
	}

	http.Redirect(response, request, originalURL, http.StatusTemporaryRedirect)
}

// GetPing reports connectivity with the credential store and the cache.
func (router *Router) GetPing(response http.ResponseWriter, request *http.Request) {
	if err := router.svc.Ping(request.Context()); err != nil {
		logger.Log.Errorln("ping failed:", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)

		return
	}

	response.WriteHeader(http.StatusOK)
}

func (router *Router) decodeAndValidate(
	response http.ResponseWriter,
	request *http.Request,
	target interface{},
) bool {
	if err := json.NewDecoder(request.Body).Decode(target); err != nil {
		writeJSONError(response, http.StatusBadRequest, "invalid request body")

		return false
	}

	if err := router.validate.Struct(target); err != nil {
		writeJSONError(response, http.StatusBadRequest, err.Error())

		return false
	}

	return true
}

func writeJSON(response http.ResponseWriter, status int, body interface{}) {
	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(status)
	if err := json.NewEncoder(response).Encode(body); err != nil {
		logger.Log.Debugln("error encoding response:", zap.Error(err))
	}
}

func writeJSONError(response http.ResponseWriter, status int, message string) {
	writeJSON(response, status, models.ErrorResponse{Error: message})
}

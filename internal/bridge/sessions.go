package bridge

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-contrib/sessions/memstore"
	"github.com/gin-contrib/sessions/postgres"

	"studyhelper/internal/config"
	"studyhelper/internal/db"
)

const SessionName = "studyhelper_session"

// NewSessionStore builds the session store selected by cfg.SessionStore.
// database is only used by the postgres store and may be nil otherwise.
func NewSessionStore(cfg config.Config, database *db.DB) (sessions.Store, error) {
	secret := []byte(cfg.SessionSecret)

	var store sessions.Store
	switch cfg.SessionStore {
	case config.SessionStoreCookie:
		store = cookie.NewStore(secret)
	case config.SessionStorePostgres:
		if database == nil {
			return nil, fmt.Errorf("postgres session store requires a database")
		}
		pgStore, err := postgres.NewStore(database.SQL, secret)
		if err != nil {
			return nil, fmt.Errorf("create postgres session store: %w", err)
		}
		store = pgStore
	case config.SessionStoreMemory, "":
		store = memstore.NewStore(secret)
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.SessionStore)
	}

	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   cfg.SessionMaxAge,
		Secure:   strings.HasPrefix(cfg.BaseURL, "https://"),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return store, nil
}

package deps

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/threadly/threadly/internal/engine"
	"github.com/threadly/threadly/internal/index"
	"github.com/threadly/threadly/internal/logger"
	"github.com/threadly/threadly/internal/rules"
)

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string

	AllowedCIDRS []string // IPs allowed to access operational endpoints
	TrustProxy   bool     // true if running behind a trusted reverse proxy

	Session   *engine.Session       // active page session
	Favorites *index.FavoritesIndex // global favorites and collections
	Registry  *rules.Registry       // platform extraction rules
	Loader    *rules.Loader         // nil when no rules file is configured

	RedisClient *redis.Client // nil when persistence is in-memory only
}

// Package ticketcode issues human-readable ticket codes of the form
// AASTU-<CATEGORY>-<YYYYMMDD>-<sequence>. The per-day sequence lives in Redis
// so codes stay unique across instances; with Redis unavailable the generator
// falls back to a random suffix, trading readability for uniqueness.
package ticketcode

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/aastu-platform/facility-reports/internal/domain"
)

const (
	codePrefix  = "AASTU"
	sequenceKey = "ticketcode:seq:"
	sequenceTTL = 48 * time.Hour
)

// Generator issues unique human-readable ticket codes.
type Generator struct {
	client *redis.Client
	logger *zap.Logger
	now    func() time.Time
}

// NewGenerator builds a generator. client may be nil; every code then uses
// the random fallback.
func NewGenerator(client *redis.Client, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{client: client, logger: logger, now: time.Now}
}

// Next returns the next code for the given category.
func (g *Generator) Next(ctx context.Context, category domain.Category) (string, error) {
	day := g.now().UTC().Format("20060102")
	fragment := categoryFragment(category)

	if g.client != nil {
		key := sequenceKey + day
		seq, err := g.client.Incr(ctx, key).Result()
		if err == nil {
			// expiry keeps stale day counters from accumulating
			g.client.Expire(ctx, key, sequenceTTL)
			return fmt.Sprintf("%s-%s-%s-%04d", codePrefix, fragment, day, seq), nil
		}
		g.logger.Warn("ticket code sequence unavailable, using random suffix", zap.Error(err))
	}

	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("%s-%s-%s-%s", codePrefix, fragment, day, suffix), nil
}

func categoryFragment(category domain.Category) string {
	switch category {
	case domain.CategoryElectrical:
		return "ELEC"
	case domain.CategoryMechanical:
		return "MECH"
	default:
		return "FIX"
	}
}

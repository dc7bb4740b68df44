package ticketcode

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aastu-platform/facility-reports/internal/domain"
)

func TestFallbackCodeFormat(t *testing.T) {
	gen := NewGenerator(nil, zap.NewNop())
	gen.now = func() time.Time { return time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC) }

	code, err := gen.Next(context.Background(), domain.CategoryElectrical)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^AASTU-ELEC-20250310-[0-9A-F]{6}$`), code)

	code, err = gen.Next(context.Background(), domain.CategoryMechanical)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^AASTU-MECH-20250310-[0-9A-F]{6}$`), code)

	code, err = gen.Next(context.Background(), domain.Category("OTHER"))
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^AASTU-FIX-20250310-[0-9A-F]{6}$`), code)
}

func TestFallbackCodesDiffer(t *testing.T) {
	gen := NewGenerator(nil, zap.NewNop())
	a, err := gen.Next(context.Background(), domain.CategoryElectrical)
	require.NoError(t, err)
	b, err := gen.Next(context.Background(), domain.CategoryElectrical)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

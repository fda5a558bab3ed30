package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, AgendaModeAcademic, cfg.Agenda.DefaultMode)
	assert.Equal(t, 10*time.Minute, cfg.Agenda.CacheTTL)
	assert.Equal(t, "*/15 * * * *", cfg.Widgets.RefreshCron)
	assert.Equal(t, 4, cfg.Widgets.Concurrency)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("AGENDA_DEFAULT_MODE", "DATE")
	t.Setenv("AGENDA_CACHE_TTL", "not-a-duration")
	t.Setenv("CALENDAR_TIMEZONE", "Europe/Bucharest")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, AgendaModeDate, cfg.Agenda.DefaultMode)
	assert.Equal(t, 10*time.Minute, cfg.Agenda.CacheTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "Europe/Bucharest", cfg.Calendar.Location().String())
}

func TestCalendarLocationFallsBackToLocal(t *testing.T) {
	assert.Equal(t, time.Local, CalendarConfig{}.Location())
	assert.Equal(t, time.Local, CalendarConfig{Timezone: "Mars/Olympus"}.Location())
}

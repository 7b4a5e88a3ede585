package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcella-castro/check-pesquisa-mj/internal/models"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8050", cfg.HTTPAddr)
	assert.Equal(t, 30*time.Minute, cfg.CacheTTL)
	assert.Equal(t, time.Minute, cfg.RefreshInterval)
	assert.Equal(t, []string{"917441", "245785", "117563"}, cfg.SurveyIDs[models.Processo])
	assert.Equal(t, []string{"389137"}, cfg.SurveyIDs[models.Provas])
	assert.Equal(t, "127.0.0.1:4444", cfg.OxiDBAddr())
	assert.False(t, cfg.PersistSnapshots)
	assert.False(t, cfg.Development())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CHECK_ADDR", ":9000")
	t.Setenv("SURVEY_IDS_REU", " 1, ,2 ")
	t.Setenv("CACHE_TTL_MINUTES", "5")
	t.Setenv("PERSIST_SNAPSHOTS", "true")
	t.Setenv("LOGGING_LEVEL", "development")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, []string{"1", "2"}, cfg.SurveyIDs[models.Reu])
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.True(t, cfg.PersistSnapshots)
	assert.True(t, cfg.Development())
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("DOWNLOAD_CONCURRENCY", "0")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("DOWNLOAD_CONCURRENCY", "abc")
	_, err = Load()
	assert.Error(t, err)
}

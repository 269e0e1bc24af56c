package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haecker-felix/hebbot/internal/domain/news/entities"
)

func sampleSnapshot() entities.Snapshot {
	return entities.Snapshot{
		Version: entities.SnapshotVersion,
		NextSeq: 4,
		Items: []entities.NewsItem{{
			ID:                  "$m1",
			ReporterID:          "@carol:example.org",
			ReporterDisplayName: "Carol",
			Message:             "the build is fixed",
			Timestamp:           time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
			Seq:                 1,
			Reactions: []entities.ActiveReaction{
				{ReactionID: "$r1", ActorID: "@anna:example.org", Action: entities.AttachMedia("$p1"), Seq: 3},
			},
			Images: []entities.MediaRef{{EventID: "$p1", URL: "mxc://example.org/p1", Filename: "p1.png"}},
		}},
		Media: []entities.Media{
			{ID: "$p1", ParentID: "$m1", URL: "mxc://example.org/p1", Kind: entities.MediaImage, Filename: "p1.png", SenderID: "@carol:example.org"},
		},
	}
}

func TestStore_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	s := NewStore(path, zerolog.Nop())

	require.NoError(t, s.Save(context.Background(), sampleSnapshot()))

	snap, found, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, sampleSnapshot(), snap)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files are left behind")
}

func TestStore_SaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	s := NewStore(path, zerolog.Nop())

	require.NoError(t, s.Save(context.Background(), sampleSnapshot()))
	require.NoError(t, s.Save(context.Background(), entities.Snapshot{Version: entities.SnapshotVersion, NextSeq: 1}))

	snap, found, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, snap.Items)
}

func TestStore_LoadMissing(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "store.json"), zerolog.Nop())

	_, found, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_LoadCorrupt(t *testing.T) {
	tests := map[string]string{
		"truncated":    `{"version": 1, "items": [`,
		"not a object": `[1, 2, 3]`,
		"empty object": `{}`,
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "store.json")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

			_, _, err := NewStore(path, zerolog.Nop()).Load(context.Background())
			assert.Error(t, err)
		})
	}
}

func TestStore_SaveToMissingDirectoryFails(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "missing", "store.json"), zerolog.Nop())
	assert.Error(t, s.Save(context.Background(), sampleSnapshot()))
}

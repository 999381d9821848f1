// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package manifest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "manifest", "downloads.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := Entry{
		Target:       "KIC 11904151",
		ObsID:        "kplr-obs-1",
		Filename:     "kplr011904151_llc.fits",
		LocalPath:    "/cache/mastDownload/kplr-obs-1/kplr011904151_llc.fits",
		Source:       "mast:KEPLER/url/kplr011904151_llc.fits",
		DownloadedAt: time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC),
	}
	second := Entry{
		Target:       "TIC 377780790",
		Filename:     "tess-s0014-4-1_84.29_-80.47_5x5_astrocut.fits",
		LocalPath:    "/cache/tesscut/tess-s0014-4-1_84.29_-80.47_5x5_astrocut.fits",
		Source:       "tesscut",
		DownloadedAt: time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.Record(ctx, first))
	require.NoError(t, s.Record(ctx, second))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	all, err := s.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.LocalPath, all[0].LocalPath, "newest first")

	kepler, err := s.List(ctx, "KIC 11904151")
	require.NoError(t, err)
	require.Len(t, kepler, 1)
	assert.Equal(t, first.Filename, kepler[0].Filename)
	assert.True(t, kepler[0].DownloadedAt.Equal(first.DownloadedAt))
}

func TestRecordUpsertsOnLocalPath(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	e := Entry{
		Target:    "KIC 11904151",
		Filename:  "kplr011904151_llc.fits",
		LocalPath: "/cache/kplr011904151_llc.fits",
		Source:    "mast:KEPLER/url/kplr011904151_llc.fits",
	}
	require.NoError(t, s.Record(ctx, e))

	e.Target = "kplr011904151"
	require.NoError(t, s.Record(ctx, e))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	all, err := s.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "kplr011904151", all[0].Target)
}

func TestRecordFillsTimestamp(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, Entry{
		Target:    "KIC 11904151",
		Filename:  "f.fits",
		LocalPath: "/cache/f.fits",
		Source:    "mast:uri",
	}))

	all, err := s.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].DownloadedAt.IsZero())
}

func TestOpenCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deep", "nested", "downloads.db")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

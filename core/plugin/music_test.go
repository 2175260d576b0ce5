package plugin

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AginMusic/model"
)

// fakePlugin returns n canned tracks, or blocks until ctx is done when hang is
// set.
type fakePlugin struct {
	source model.Source
	n      int
	err    error
	hang   bool
	detail *model.TrackDetail
	stream string

	gotLimit int
}

func (f *fakePlugin) GetSource() model.Source { return f.source }

func (f *fakePlugin) Search(ctx context.Context, keyword string, limit int) ([]model.Track, error) {
	f.gotLimit = limit
	if f.hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	tracks := make([]model.Track, 0, f.n)
	for i := 0; i < f.n; i++ {
		tracks = append(tracks, model.Track{
			UID:     fmt.Sprintf("%s-%d", f.source, i+1),
			Source:  f.source,
			Keyword: keyword,
			Title:   fmt.Sprintf("%s song %d", f.source, i+1),
		})
	}
	return tracks, nil
}

func (f *fakePlugin) GetDetail(ctx context.Context, ref SongRef) (*model.TrackDetail, error) {
	if f.detail == nil {
		return nil, ErrSongNotFound
	}
	return f.detail, nil
}

type fakeResolver struct {
	fakePlugin
}

func (f *fakeResolver) ResolveStream(ctx context.Context, ref SongRef) (string, error) {
	return f.stream, nil
}

func newManager(plugins ...MusicPlugin) *MusicPluginManager {
	m := NewMusicPluginManager()
	for _, p := range plugins {
		m.Register(p)
	}
	return m
}

func TestSearchAllMergesInDeclarationOrder(t *testing.T) {
	m := newManager(
		&fakePlugin{source: model.SourceKuwo, n: 1},
		&fakePlugin{source: model.SourceNetease, n: 2},
		&fakePlugin{source: model.SourceFangpi, n: 1},
	)

	res := m.SearchAll(context.Background(), "hello", 10, []model.Source{model.SourceKuwo, model.SourceNetease, model.SourceFangpi})

	uids := make([]string, 0, len(res.Tracks))
	for _, tr := range res.Tracks {
		uids = append(uids, tr.UID)
	}
	assert.Equal(t, []string{"fangpi-1", "netease-1", "netease-2", "kuwo-1"}, uids)
	assert.Equal(t, map[model.Source]int{model.SourceFangpi: 1, model.SourceNetease: 2, model.SourceKuwo: 1}, res.BySource)
}

func TestSearchAllCompletesWhenOneSourceTimesOut(t *testing.T) {
	m := newManager(
		&fakePlugin{source: model.SourceFangpi, n: 3},
		&fakePlugin{source: model.SourceMigu, hang: true},
		&fakePlugin{source: model.SourceNetease, n: 2},
		&fakePlugin{source: model.SourceQQ, err: errors.New("boom")},
	)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	res := m.SearchAll(ctx, "hello", 10, m.Sources())
	assert.Less(t, time.Since(start), 2*time.Second)

	assert.Len(t, res.Tracks, 5)
	assert.Equal(t, 3, res.BySource[model.SourceFangpi])
	assert.Equal(t, 0, res.BySource[model.SourceMigu])
	assert.Equal(t, 2, res.BySource[model.SourceNetease])
	assert.Equal(t, 0, res.BySource[model.SourceQQ])
}

func TestSearchAllClampsLimitAndTruncates(t *testing.T) {
	big := &fakePlugin{source: model.SourceNetease, n: 80}
	m := newManager(big)

	res := m.SearchAll(context.Background(), "hello", 500, m.Sources())
	assert.Equal(t, 50, big.gotLimit)
	assert.Len(t, res.Tracks, 50)

	small := &fakePlugin{source: model.SourceNetease, n: 5}
	m = newManager(small)
	res = m.SearchAll(context.Background(), "hello", 0, m.Sources())
	assert.Equal(t, 1, small.gotLimit)
	assert.Len(t, res.Tracks, 1)
}

func TestSearchAllBlankKeyword(t *testing.T) {
	p := &fakePlugin{source: model.SourceNetease, n: 3}
	m := newManager(p)

	res := m.SearchAll(context.Background(), "   ", 10, m.Sources())
	assert.Empty(t, res.Tracks)
	assert.Zero(t, p.gotLimit, "upstream is not called")
}

func TestSearchAllDefaultsToAllSources(t *testing.T) {
	m := newManager(
		&fakePlugin{source: model.SourceNetease, n: 3},
		&fakePlugin{source: model.SourceQQ, n: 2},
	)

	for _, sources := range [][]model.Source{nil, {}} {
		res := m.SearchAll(context.Background(), "hello", 10, sources)
		assert.Len(t, res.Tracks, 5)
		assert.Equal(t, map[model.Source]int{model.SourceNetease: 3, model.SourceQQ: 2}, res.BySource)
	}
}

// sharedUIDPlugin 返回固定 uid 的歌曲，用于构造跨来源重复
type sharedUIDPlugin struct {
	source model.Source
	uids   []string
}

func (p *sharedUIDPlugin) GetSource() model.Source { return p.source }

func (p *sharedUIDPlugin) Search(ctx context.Context, keyword string, limit int) ([]model.Track, error) {
	tracks := make([]model.Track, 0, len(p.uids))
	for _, uid := range p.uids {
		tracks = append(tracks, model.Track{UID: uid, Source: p.source, Keyword: keyword})
	}
	return tracks, nil
}

func (p *sharedUIDPlugin) GetDetail(ctx context.Context, ref SongRef) (*model.TrackDetail, error) {
	return nil, ErrSongNotFound
}

func TestSearchAllDedup(t *testing.T) {
	m := newManager(
		&sharedUIDPlugin{source: model.SourceQQ, uids: []string{"fangpi-1", "qq-1"}},
		&sharedUIDPlugin{source: model.SourceKuwo, uids: []string{"fangpi-1", "kuwo-1"}},
	)
	res := m.SearchAll(context.Background(), "x", 10, m.Sources())
	assert.Len(t, res.Tracks, 4, "dedup is off by default")

	m.DedupByUID = true
	res = m.SearchAll(context.Background(), "x", 10, m.Sources())
	uids := make([]string, 0, len(res.Tracks))
	for _, tr := range res.Tracks {
		uids = append(uids, tr.UID)
	}
	assert.Equal(t, []string{"fangpi-1", "qq-1", "kuwo-1"}, uids)
	assert.Equal(t, 2, res.BySource[model.SourceQQ])
	assert.Equal(t, 1, res.BySource[model.SourceKuwo])
}

func TestParseSources(t *testing.T) {
	m := newManager(
		&fakePlugin{source: model.SourceKuwo},
		&fakePlugin{source: model.SourceMigu},
		&fakePlugin{source: model.SourceNetease},
	)

	assert.Equal(t, []model.Source{model.SourceMigu, model.SourceNetease, model.SourceKuwo}, m.Sources())
	assert.Equal(t, []model.Source{model.SourceMigu, model.SourceKuwo}, m.ParseSources(" kuwo , migu,kuwo"))
	assert.Equal(t, m.Sources(), m.ParseSources(""))
	assert.Equal(t, m.Sources(), m.ParseSources("spotify,qq"), "qq is not registered")
}

func TestResolveStream(t *testing.T) {
	m := newManager(
		&fakePlugin{source: model.SourceNetease, detail: &model.TrackDetail{AudioURL: "https://cdn/a.flac"}},
		&fakePlugin{source: model.SourceMigu, detail: &model.TrackDetail{}},
		&fakeResolver{fakePlugin{source: model.SourceQQ, stream: "https://cdn/q.m4a"}},
		&fakeResolver{fakePlugin{source: model.SourceKuwo}},
	)
	ctx := context.Background()

	url, err := m.ResolveStream(ctx, model.SourceNetease, SongRef{RawID: "1"})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/a.flac", url)

	url, err = m.ResolveStream(ctx, model.SourceQQ, SongRef{RawID: "1"})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/q.m4a", url)

	_, err = m.ResolveStream(ctx, model.SourceMigu, SongRef{RawID: "1"})
	assert.ErrorIs(t, err, ErrStreamNotFound)

	_, err = m.ResolveStream(ctx, model.SourceKuwo, SongRef{RawID: "1"})
	assert.ErrorIs(t, err, ErrStreamNotFound)

	_, err = m.ResolveStream(ctx, model.SourceFangpi, SongRef{RawID: "1"})
	assert.ErrorIs(t, err, ErrUnknownSource)
}

func TestGetDetailUnknownSource(t *testing.T) {
	m := newManager()
	_, err := m.GetDetail(context.Background(), model.SourceNetease, SongRef{RawID: "1"})
	assert.ErrorIs(t, err, ErrUnknownSource)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 1, ClampLimit(-3))
	assert.Equal(t, 1, ClampLimit(0))
	assert.Equal(t, 20, ClampLimit(20))
	assert.Equal(t, 50, ClampLimit(51))
}

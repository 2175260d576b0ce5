package netease

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c := NewClient()
	c.SetBaseURL(srv.URL + "/")
	c.SetDetailBaseURL(srv.URL)
	return c
}

func TestSearchSongs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/music/netease/WyY_Dg.php", r.URL.Path)
		assert.Equal(t, "晴天", r.URL.Query().Get("msg"))
		assert.Equal(t, "2", r.URL.Query().Get("num"))
		assert.Equal(t, "json", r.URL.Query().Get("type"))
		_, _ = w.Write([]byte(`{"code":200,"data":[
			{"n":1,"title":"晴天","singer":"周杰伦","songid":186016},
			{"n":2,"title":"no id","singer":"x"},
			{"n":3,"title":"晴天 live","singer":"周杰伦","songid":"5257138"},
			{"n":4,"title":"over limit","singer":"y","songid":4}
		]}`))
	})

	items, err := c.SearchSongs(context.Background(), "晴天", 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "186016", items[0].SongID)
	assert.Equal(t, "周杰伦", items[0].Singer)
	assert.Equal(t, 3, items[1].N)
	assert.Equal(t, "5257138", items[1].SongID)
}

func TestSearchSongsBadCode(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":201,"msg":"limited"}`))
	})

	items, err := c.SearchSongs(context.Background(), "x", 5)
	assert.ErrorIs(t, err, ErrUnexpectedResponse)
	assert.Empty(t, items)
}

func TestSearchSongsHTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.SearchSongs(context.Background(), "x", 5)
	assert.Error(t, err)
}

func TestGetSongDetail(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/netease/music_v1.php", r.URL.Path)
		assert.Equal(t, "186016", r.URL.Query().Get("id"))
		assert.Equal(t, "lossless", r.URL.Query().Get("level"))
		_, _ = w.Write([]byte(`{"code":200,"data":{
			"name":"晴天","artist":"周杰伦","album":"叶惠美",
			"pic":"https://p1/cover.jpg","url":"https://m701/x.flac",
			"lyric":"[00:01.00]故事的小黄花","format":"无损 FLAC"}}`))
	})

	d, err := c.GetSongDetail(context.Background(), "186016")
	require.NoError(t, err)
	assert.Equal(t, "晴天", d.Name)
	assert.Equal(t, "叶惠美", d.Album)
	assert.Equal(t, "https://m701/x.flac", d.URL)
	assert.True(t, IsLossless(d))

	d.Format = "标准"
	assert.False(t, IsLossless(d))
}

func TestGetSongDetailMissingData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":200,"data":null}`))
	})

	_, err := c.GetSongDetail(context.Background(), "1")
	assert.ErrorIs(t, err, ErrUnexpectedResponse)
}

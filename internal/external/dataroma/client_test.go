package dataroma

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/smartpick/pkg/httputil"
	"github.com/wonny/smartpick/pkg/logger"
)

const samplePage = `
<html><body>
<table id="grid">
  <thead><tr><th>Portfolio</th><th>%</th><th>Shares</th><th>Recent activity</th></tr></thead>
  <tbody>
    <tr><td>Berkshire Hathaway</td><td>2.1</td><td>1,000</td><td>Add 12.5%</td></tr>
    <tr><td> Pershing Square </td><td>5.0</td><td>2,000</td><td>Buy</td></tr>
    <tr><td>Baupost Group</td><td>1.0</td><td>500</td><td>Reduce 40%</td></tr>
    <tr><td>Greenlight</td><td>0.5</td><td>300</td><td></td></tr>
    <tr><td>short row</td></tr>
  </tbody>
</table>
</body></html>`

func TestParseActivityHTML(t *testing.T) {
	activity, err := parseActivityHTML(samplePage)
	require.NoError(t, err)

	assert.Equal(t, 2, activity.Buys)
	assert.Equal(t, 1, activity.Sells)
	assert.Equal(t, 1, activity.Holds)
	assert.Equal(t, []string{"Berkshire Hathaway", "Pershing Square"}, activity.Buyers)
	assert.Equal(t, []string{"Baupost Group"}, activity.Sellers)
}

func TestParseActivityHTMLWithoutGrid(t *testing.T) {
	activity, err := parseActivityHTML(`<html><body><p>No data</p></body></html>`)
	require.NoError(t, err)
	assert.Equal(t, 0, activity.TotalActivity())
	assert.False(t, activity.HasAddition())
}

func TestFetchActivity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/m/stock.php", r.URL.Path)
		assert.Equal(t, "BRK-B", r.URL.Query().Get("sym"))
		w.Write([]byte(samplePage))
	}))
	defer server.Close()

	c := NewClient(httputil.New(logger.Nop()), server.URL, logger.Nop())
	activity, err := c.FetchActivity(context.Background(), "BRK-B")
	require.NoError(t, err)
	assert.Equal(t, 2, activity.Buys)
}

func TestFetchActivityTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	c := NewClient(httputil.New(logger.Nop()).DisableRetry(), server.URL, logger.Nop())
	_, err := c.FetchActivity(context.Background(), "AAA")
	var statusErr *httputil.StatusError
	assert.ErrorAs(t, err, &statusErr)
}

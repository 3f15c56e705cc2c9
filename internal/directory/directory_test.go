package directory

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guardly-cli/pkg/models"
)

func cameras(n int) []models.Camera {
	out := make([]models.Camera, n)
	for i := range out {
		out[i] = models.Camera{
			ID:        int64(i + 1),
			IPAddress: fmt.Sprintf("10.0.0.%d", i+1),
			Location:  fmt.Sprintf("Site %d", i+1),
		}
	}
	return out
}

func TestDirectory_Empty(t *testing.T) {
	d := New(CameraMatcher, 5)
	d.Load(nil)

	assert.Equal(t, 0, d.Page())
	assert.Empty(t, d.Rows())
	assert.Equal(t, 0, d.EmptyRows())
	assert.Equal(t, 1, d.PageCount())
	assert.NoError(t, d.Err)
}

func TestDirectory_TwelveItemsPageSizeFive(t *testing.T) {
	d := New(CameraMatcher, 5)
	d.Load(cameras(12))

	rows := d.Rows()
	require.Len(t, rows, 5)
	assert.Equal(t, int64(1), rows[0].ID)
	assert.Equal(t, int64(5), rows[4].ID)
	assert.Equal(t, 0, d.EmptyRows())

	d.SetPage(2)
	rows = d.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, int64(11), rows[0].ID)
	assert.Equal(t, int64(12), rows[1].ID)
	assert.Equal(t, 3, d.EmptyRows())
	assert.Equal(t, 3, d.PageCount())
}

func TestDirectory_FilterResetsPage(t *testing.T) {
	d := New(CameraMatcher, 5)
	d.Load(cameras(12))
	d.SetPage(1)

	d.SetFilter("SITE 1")
	assert.Equal(t, 0, d.Page())
	// Site 1, Site 10, Site 11, Site 12
	assert.Equal(t, 4, d.Total())

	d.SetPage(1)
	assert.Equal(t, 0, d.Page(), "page is clamped to the filtered set")
}

func TestDirectory_PageSizeResetsPage(t *testing.T) {
	d := New(CameraMatcher, 5)
	d.Load(cameras(12))
	d.SetPage(2)

	d.SetPageSize(10)
	assert.Equal(t, 0, d.Page())
	assert.Len(t, d.Rows(), 10)
}

func TestFilter_PureAndIdempotent(t *testing.T) {
	all := cameras(12)
	once := Filter(all, "10.0.0.1", CameraMatcher)
	twice := Filter(once, "10.0.0.1", CameraMatcher)

	assert.Equal(t, once, twice)
	assert.Equal(t, once, Filter(all, "10.0.0.1", CameraMatcher))
	assert.Len(t, all, 12, "input is not modified")
}

func TestFilter_UserNameOrEmail(t *testing.T) {
	users := []models.User{
		{ID: 1, Name: "Awa Diop", Email: "awa@example.com"},
		{ID: 2, Name: "Moussa", Email: "m.fall@corp.sn"},
	}

	assert.Len(t, Filter(users, "diop", UserMatcher), 1)
	assert.Len(t, Filter(users, "CORP", UserMatcher), 1)
	assert.Len(t, Filter(users, "", UserMatcher), 2)
	assert.Empty(t, Filter(users, "nobody", UserMatcher))
}

func TestDirectory_Fail(t *testing.T) {
	d := New(UserMatcher, 5)
	d.Load([]models.User{{ID: 1}})

	d.Fail(errors.New("connection refused"))
	assert.Error(t, d.Err)
	assert.Empty(t, d.Rows())

	d.Load([]models.User{{ID: 1}})
	assert.NoError(t, d.Err)
}

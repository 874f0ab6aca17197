package driver_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jonathan/apply-agent/internal/driver"
	"github.com/jonathan/apply-agent/internal/driver/drivertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const buttonsPage = `<html><body>
<button id="a">Easy Apply</button>
<button id="b">Save</button>
<button id="c">  Easy   Apply to Acme </button>
</body></html>`

func TestFindFirst(t *testing.T) {
	ctx := context.Background()
	page := drivertest.NewPage("https://example.com", buttonsPage)

	el, err := driver.FindFirst(ctx, page, "button")
	require.NoError(t, err)
	id, err := el.Attr(ctx, "id")
	require.NoError(t, err)
	assert.Equal(t, "a", id)

	_, err = driver.FindFirst(ctx, page, "select")
	assert.ErrorIs(t, err, driver.ErrNotFound)
}

func TestFindFirst_PropagatesLookupError(t *testing.T) {
	page := drivertest.NewPage("https://example.com", buttonsPage)
	boom := errors.New("target closed")
	page.FailFind(boom)

	_, err := driver.FindFirst(context.Background(), page, "button")
	assert.ErrorIs(t, err, boom)
	assert.False(t, driver.Exists(context.Background(), page, "button"))
}

func TestFilterText(t *testing.T) {
	ctx := context.Background()
	page := drivertest.NewPage("https://example.com", buttonsPage)

	buttons, err := page.Find(ctx, "button")
	require.NoError(t, err)

	matched := driver.FilterText(ctx, buttons, func(text string) bool {
		return strings.HasPrefix(text, "Easy Apply")
	})
	require.Len(t, matched, 2)
	assert.Equal(t, "Easy Apply to Acme", driver.TextOf(ctx, matched[1]))
}

func TestClickWithFallback(t *testing.T) {
	ctx := context.Background()
	page := drivertest.NewPage("https://example.com", buttonsPage)
	page.FailNativeClick("#b")

	el, err := driver.FindFirst(ctx, page, "#b")
	require.NoError(t, err)

	require.NoError(t, driver.ClickWithFallback(ctx, el))
	assert.Equal(t, []string{"button#b"}, page.Clicks(), "script click succeeds when the native click fails")
}

func TestBrowserError(t *testing.T) {
	cause := errors.New("context canceled")
	err := &driver.BrowserError{Action: "find", Target: "#apply", Cause: cause}

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, `browser find "#apply" failed: context canceled`, err.Error())
	assert.Equal(t, "browser refresh failed: context canceled", (&driver.BrowserError{Action: "refresh", Cause: cause}).Error())
}

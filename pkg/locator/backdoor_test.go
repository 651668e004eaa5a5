package locator

import (
	"context"
	"errors"
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeContext struct {
	playwright.BrowserContext
	scripts []string
	pages   []playwright.Page
	err     error
}

func (c *fakeContext) AddInitScript(script playwright.Script) error {
	if c.err != nil {
		return c.err
	}
	c.scripts = append(c.scripts, *script.Content)
	return nil
}

func (c *fakeContext) Pages() []playwright.Page { return c.pages }

type evalPage struct {
	playwright.Page
	scripts []string
	result  interface{}
	err     error
}

func (p *evalPage) Evaluate(expression string, _ ...interface{}) (interface{}, error) {
	p.scripts = append(p.scripts, expression)
	return p.result, p.err
}

func (p *evalPage) URL() string { return "https://example.test/" }

func TestBackdoorInstallsOncePerContext(t *testing.T) {
	open := &evalPage{}
	bc := &fakeContext{pages: []playwright.Page{open}}
	b := NewBackdoor(nil)

	require.NoError(t, b.Install(bc))
	require.NoError(t, b.Install(bc))

	require.Len(t, bc.scripts, 1)
	assert.Contains(t, bc.scripts[0], "__pagehand__")
	assert.Contains(t, bc.scripts[0], "attachShadow")
	assert.Len(t, open.scripts, 1, "already open pages get the recorder too")

	other := &fakeContext{}
	require.NoError(t, b.Install(other))
	assert.Len(t, other.scripts, 1)

	b.Forget(bc)
	require.NoError(t, b.Install(bc))
	assert.Len(t, bc.scripts, 2)
}

func TestBackdoorInstallFailureIsRetried(t *testing.T) {
	bc := &fakeContext{err: errors.New("context closed")}
	b := NewBackdoor(nil)

	assert.Error(t, b.Install(bc))

	bc.err = nil
	require.NoError(t, b.Install(bc))
	assert.Len(t, bc.scripts, 1)
}

func TestBackdoorOpenPageFailureIsLogged(t *testing.T) {
	bc := &fakeContext{pages: []playwright.Page{&evalPage{err: errors.New("navigating")}}}
	assert.NoError(t, NewBackdoor(nil).Install(bc))
}

type fakeSelectors struct {
	playwright.Selectors
	names []string
	err   error
}

func (s *fakeSelectors) Register(name string, script playwright.Script, _ ...playwright.SelectorsRegisterOptions) error {
	s.names = append(s.names, name)
	return s.err
}

func TestRegisterSelectorEngine(t *testing.T) {
	sel := &fakeSelectors{}
	require.NoError(t, RegisterSelectorEngine(sel))
	require.NoError(t, RegisterSelectorEngine(sel))
	assert.Equal(t, []string{SelectorEngine}, sel.names)

	dup := &fakeSelectors{err: errors.New(`selector engine "pagehand-marker" is already registered`)}
	assert.NoError(t, RegisterSelectorEngine(dup))

	broken := &fakeSelectors{err: errors.New("browser has been closed")}
	assert.Error(t, RegisterSelectorEngine(broken))
}

func TestClearMarkers(t *testing.T) {
	page := &evalPage{result: float64(3)}
	n, err := NewShadowResolver(ShadowOptions{}, nil).ClearMarkers(context.Background(), page)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	require.Len(t, page.scripts, 1)
	assert.Contains(t, page.scripts[0], "removeAttribute")

	page.err = errors.New("target closed")
	_, err = NewShadowResolver(ShadowOptions{}, nil).ClearMarkers(context.Background(), page)
	assert.Error(t, err)
}

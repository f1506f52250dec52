package locator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/shehryarbajwa/webdriver-mini/internal/backend"
	"github.com/shehryarbajwa/webdriver-mini/internal/backend/mocks"
	"github.com/shehryarbajwa/webdriver-mini/internal/wderr"
)

var scope = backend.Scope{Target: backend.Target{Window: "w1"}}

type xpathBackend struct {
	*mocks.MockBackend
	*mocks.MockXPathQuerier
}

func TestFindCSS(t *testing.T) {
	ctrl := gomock.NewController(t)
	b := mocks.NewMockBackend(ctrl)
	b.EXPECT().QuerySelector(gomock.Any(), scope, "#main").Return([]backend.NodeRef{"n1"}, nil)

	nodes, err := NewEngine().Find(context.Background(), b, scope, CSSSelector, "#main")
	require.NoError(t, err)
	assert.Equal(t, []backend.NodeRef{"n1"}, nodes)
}

func TestFindRejectsMalformedSelectors(t *testing.T) {
	tests := []struct {
		name     string
		using    string
		selector string
	}{
		{"unterminated attribute", CSSSelector, "div["},
		{"empty css", CSSSelector, "  "},
		{"tag with combinator", TagName, "div > p"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			b := mocks.NewMockBackend(ctrl)

			_, err := NewEngine().Find(context.Background(), b, scope, tt.using, tt.selector)
			assert.Equal(t, wderr.InvalidSelector, wderr.KindOf(err))
		})
	}
}

func TestFindUnknownStrategy(t *testing.T) {
	ctrl := gomock.NewController(t)
	_, err := NewEngine().Find(context.Background(), mocks.NewMockBackend(ctrl), scope, "id", "main")
	assert.Equal(t, wderr.InvalidArgument, wderr.KindOf(err))
}

func TestFindMapsBackendErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	b := mocks.NewMockBackend(ctrl)
	b.EXPECT().QuerySelector(gomock.Any(), gomock.Any(), "p").Return(nil, backend.ErrDetached)

	_, err := NewEngine().Find(context.Background(), b, scope, CSSSelector, "p")
	assert.Equal(t, wderr.StaleElementReference, wderr.KindOf(err))
}

func TestLinkText(t *testing.T) {
	ctrl := gomock.NewController(t)
	b := mocks.NewMockBackend(ctrl)
	b.EXPECT().QuerySelector(gomock.Any(), scope, "a").Return([]backend.NodeRef{"a1", "a2", "a3"}, nil).Times(2)
	b.EXPECT().NodeText(gomock.Any(), backend.NodeRef("a1")).Return(" Sign in ", nil).Times(2)
	b.EXPECT().NodeText(gomock.Any(), backend.NodeRef("a2")).Return("Sign in with SSO", nil).Times(2)
	b.EXPECT().NodeText(gomock.Any(), backend.NodeRef("a3")).Return("Help", nil).Times(2)

	e := NewEngine()
	exact, err := e.Find(context.Background(), b, scope, LinkText, "Sign in")
	require.NoError(t, err)
	assert.Equal(t, []backend.NodeRef{"a1"}, exact)

	partial, err := e.Find(context.Background(), b, scope, PartialLinkText, "Sign in")
	require.NoError(t, err)
	assert.Equal(t, []backend.NodeRef{"a1", "a2"}, partial)
}

func TestXPath(t *testing.T) {
	t.Run("unsupported backend", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		_, err := NewEngine().Find(context.Background(), mocks.NewMockBackend(ctrl), scope, XPath, "//p")
		assert.Equal(t, wderr.InvalidArgument, wderr.KindOf(err))
	})

	t.Run("malformed expression", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		b := xpathBackend{mocks.NewMockBackend(ctrl), mocks.NewMockXPathQuerier(ctrl)}
		_, err := NewEngine().Find(context.Background(), b, scope, XPath, "//p[")
		assert.Equal(t, wderr.InvalidSelector, wderr.KindOf(err))
	})

	t.Run("query", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		q := mocks.NewMockXPathQuerier(ctrl)
		q.EXPECT().QueryXPath(gomock.Any(), scope, "//p").Return([]backend.NodeRef{"p1", "p2"}, nil)
		b := xpathBackend{mocks.NewMockBackend(ctrl), q}

		nodes, err := NewEngine().Find(context.Background(), b, scope, XPath, "//p")
		require.NoError(t, err)
		assert.Len(t, nodes, 2)
	})
}

func TestUnknownStrategyListsRegistered(t *testing.T) {
	_, err := NewEngine().Lookup("id")
	assert.Equal(t, wderr.InvalidArgument, wderr.KindOf(err))
	assert.Contains(t, err.Error(), "css selector, link text")
}

func TestRegisterCustomStrategy(t *testing.T) {
	e := NewEngine()
	e.Register("id", func(ctx context.Context, b backend.Backend, scope backend.Scope, selector string) ([]backend.NodeRef, error) {
		return b.QuerySelector(ctx, scope, "#"+selector)
	})
	assert.Contains(t, e.Strategies(), "id")

	ctrl := gomock.NewController(t)
	b := mocks.NewMockBackend(ctrl)
	b.EXPECT().QuerySelector(gomock.Any(), scope, "#main").Return([]backend.NodeRef{"n1"}, nil)

	nodes, err := e.Find(context.Background(), b, scope, "id", "main")
	require.NoError(t, err)
	assert.Len(t, nodes, 1)
}

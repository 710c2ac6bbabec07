package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/threadly/threadly/internal/dom/memdom"
	"github.com/threadly/threadly/internal/domain"
	"github.com/threadly/threadly/internal/extract"
	"github.com/threadly/threadly/internal/index"
	"github.com/threadly/threadly/internal/logger"
	"github.com/threadly/threadly/internal/store"
)

var testRule = domain.PlatformRule{
	Platform:  domain.PlatformGemini,
	Container: domain.Locator{".conversation-container"},
	User:      domain.Locator{".query-text"},
	Assistant: domain.Locator{".model-response-text"},
	Filter:    domain.ContentFilter{MinLength: 2},
}

type testEngine struct {
	eng       *Engine
	doc       *memdom.Document
	container *memdom.Node
	store     *store.MemoryStore
	writer    *store.Writer
	favorites *index.FavoritesIndex
}

func newTestEngine(t *testing.T) *testEngine {
	t.Helper()

	doc := memdom.NewDocument()
	container := memdom.NewNode("div").WithClass("conversation-container")
	doc.Root().Append(container)

	st := store.NewMemoryStore()
	writer := store.NewWriter(st, logger.Nop())
	favorites := index.NewFavoritesIndex()

	eng := New(Config{
		Platform:  domain.PlatformGemini,
		Path:      "/app/conv-1",
		Rule:      testRule,
		Doc:       doc,
		Extractor: extract.New(logger.Nop()),
		Favorites: favorites,
		Writer:    writer,
		Logger:    logger.Nop(),
	})

	return &testEngine{
		eng:       eng,
		doc:       doc,
		container: container,
		store:     st,
		writer:    writer,
		favorites: favorites,
	}
}

func (te *testEngine) addUser(text string) {
	te.container.Append(memdom.NewNode("p").WithClass("query-text").WithText(text))
}

func (te *testEngine) addAssistant(text string) {
	te.container.Append(memdom.NewNode("div").WithClass("model-response-text").WithText(text))
}

func TestRefreshBuildsSnapshot(t *testing.T) {
	te := newTestEngine(t)
	te.addUser("what is a channel?")
	te.addAssistant("a typed conduit")

	var updates [][]*domain.Message
	te.eng.OnUpdate(func(m []*domain.Message) { updates = append(updates, m) })

	te.eng.Refresh()

	messages, total := te.eng.Messages(Filter{})
	require.Equal(t, 2, total)
	require.Len(t, messages, 2)
	require.Equal(t, domain.RoleUser, messages[0].Role)
	require.Equal(t, "what is a channel?", messages[0].Content)

	require.Len(t, updates, 1)
	require.Len(t, updates[0], 2)
}

func TestRefreshPersistsSnapshot(t *testing.T) {
	te := newTestEngine(t)
	te.addUser("persist me")

	te.eng.Refresh()
	te.writer.Close()

	persisted, err := te.store.LoadSnapshot(context.Background(), domain.PlatformGemini, "/app/conv-1")
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	require.Equal(t, "persist me", persisted[0].Content)
}

func TestEmptyExtractionKeepsSnapshotAndStore(t *testing.T) {
	te := newTestEngine(t)
	te.addUser("sole message")
	te.eng.Refresh()

	var updates int
	te.eng.OnUpdate(func([]*domain.Message) { updates++ })

	// The page goes blank mid-transition; the pass must be a no-op.
	for _, n := range te.doc.Query(".query-text") {
		n.(*memdom.Node).Remove()
	}
	te.eng.Refresh()

	_, total := te.eng.Messages(Filter{})
	require.Equal(t, 1, total, "blank page must not wipe the snapshot")
	require.Zero(t, updates, "no-op pass must not notify")

	te.writer.Close()
	persisted, _ := te.store.LoadSnapshot(context.Background(), domain.PlatformGemini, "/app/conv-1")
	require.Len(t, persisted, 1, "blank page must not wipe the stored conversation")
}

func TestRefreshPreservesFavoritesAcrossPasses(t *testing.T) {
	te := newTestEngine(t)
	te.addUser("favorite me")
	te.eng.Refresh()

	_, err := te.eng.ToggleFavorite(domain.RoleUser, "favorite me")
	require.NoError(t, err)

	te.addAssistant("a new reply arrives")
	te.eng.Refresh()

	messages, _ := te.eng.Messages(Filter{})
	require.Len(t, messages, 2)
	require.True(t, messages[0].Favorited, "favorite lost across a reconcile pass")
}

func TestRefreshReFavoritesFromGlobalIndex(t *testing.T) {
	te := newTestEngine(t)

	// The same message was favorited in a previous visit; only the index
	// remembers.
	te.favorites.Put(&domain.Message{
		Role:     domain.RoleUser,
		Content:  "seen before",
		Platform: domain.PlatformGemini,
		Path:     "/app/conv-1",
	})

	te.addUser("seen before")
	te.eng.Refresh()

	messages, _ := te.eng.Messages(Filter{})
	require.Len(t, messages, 1)
	require.True(t, messages[0].Favorited)
}

func TestToggleFavorite(t *testing.T) {
	te := newTestEngine(t)
	te.addUser("toggle target")
	te.eng.Refresh()

	msg, err := te.eng.ToggleFavorite(domain.RoleUser, "toggle target")
	require.NoError(t, err)
	require.True(t, msg.Favorited)
	require.True(t, te.favorites.Has(msg.Fingerprint()))

	msg, err = te.eng.ToggleFavorite(domain.RoleUser, "toggle target")
	require.NoError(t, err)
	require.False(t, msg.Favorited)
	require.False(t, te.favorites.Has(msg.Fingerprint()))
}

func TestToggleFavoriteUnknownMessage(t *testing.T) {
	te := newTestEngine(t)
	te.eng.Refresh()

	_, err := te.eng.ToggleFavorite(domain.RoleUser, "never extracted")
	require.ErrorIs(t, err, ErrMessageNotFound)
}

func TestMessagesFilters(t *testing.T) {
	te := newTestEngine(t)
	te.addUser("how do goroutines work")
	te.addAssistant("they are scheduled by the runtime")
	te.addUser("and channels?")
	te.eng.Refresh()

	_, err := te.eng.ToggleFavorite(domain.RoleUser, "and channels?")
	require.NoError(t, err)

	byRole, total := te.eng.Messages(Filter{Role: domain.RoleUser})
	require.Equal(t, 3, total)
	require.Len(t, byRole, 2)

	byQuery, _ := te.eng.Messages(Filter{Query: "GOROUTINES"})
	require.Len(t, byQuery, 1)

	favs, _ := te.eng.Messages(Filter{FavoritesOnly: true})
	require.Len(t, favs, 1)
	require.Equal(t, "and channels?", favs[0].Content)

	none, total := te.eng.Messages(Filter{Query: "no such text"})
	require.Empty(t, none)
	require.Equal(t, 3, total, "total distinguishes empty filter results from an empty snapshot")
}

func TestAssignToCollection(t *testing.T) {
	te := newTestEngine(t)
	te.addUser("goes into the collection")
	te.addAssistant("stays out")
	te.eng.Refresh()

	c, err := te.eng.CreateCollection("Research")
	require.NoError(t, err)

	key := te.eng.KeyFor(domain.RoleUser, "goes into the collection")
	assigned := te.eng.AssignToCollection([]string{key, "unknown-key"}, c.ID)
	require.Equal(t, 1, assigned)

	inCollection, _ := te.eng.Messages(Filter{CollectionID: c.ID})
	require.Len(t, inCollection, 1)
	require.Equal(t, "goes into the collection", inCollection[0].Content)
}

func TestCreateCollectionValidation(t *testing.T) {
	te := newTestEngine(t)

	_, err := te.eng.CreateCollection("  ")
	require.ErrorIs(t, err, index.ErrEmptyCollectionName)

	c, err := te.eng.CreateCollection("Valid")
	require.NoError(t, err)
	require.Equal(t, domain.PlatformGemini, c.Platform)
}

func TestBootstrapSeedsFromStore(t *testing.T) {
	te := newTestEngine(t)

	seed := []*domain.Message{
		{Role: domain.RoleUser, Content: "from a previous run", Favorited: false},
	}
	require.NoError(t, te.store.SaveSnapshot(context.Background(), domain.PlatformGemini, "/app/conv-1", seed))

	// The favorites index remembers this message even though the persisted
	// snapshot predates the favorite.
	te.favorites.Put(&domain.Message{Role: domain.RoleUser, Content: "from a previous run"})

	require.NoError(t, te.eng.Bootstrap(context.Background(), te.store))

	messages, total := te.eng.Messages(Filter{})
	require.Equal(t, 1, total)
	require.True(t, messages[0].Favorited, "index is authoritative for favorites on bootstrap")
}

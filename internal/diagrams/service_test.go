package diagrams

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/schemagraph/internal/scanner"
	"github.com/mvp-joe/schemagraph/internal/schema"
	"github.com/mvp-joe/schemagraph/internal/selector"
	"github.com/mvp-joe/schemagraph/internal/source"
	"github.com/mvp-joe/schemagraph/internal/storage"
)

// Test Plan for Service.Generate:
// - Requests without repository, user or source are rejected
// - Non-mongoose ORMs yield an unsupported Outcome without scanning
// - A successful generation stores the diagram and counts usage for today (UTC)
// - Regenerating the same repository keeps the diagram ID
// - The daily limit returns a *LimitError matching ErrLimitReached, without scanning
// - A new repository beyond the plan's repository limit is rejected; existing ones are not
// - Unlimited plans never hit limits
// - An empty scan reports the no-schemas message without storing or counting
// - A tree failure propagates as scanner.ErrTreeUnavailable
// - End to end with the real scanner over an in-memory source

type memorySource map[string]string

func (m memorySource) Tree(ctx context.Context) ([]selector.TreeEntry, error) {
	entries := make([]selector.TreeEntry, 0, len(m))
	for p := range m {
		entries = append(entries, selector.TreeEntry{Path: p, Type: selector.EntryFile})
	}
	return entries, nil
}

func (m memorySource) Content(ctx context.Context, path string) (string, error) {
	return m[path], nil
}

type fakeScanner struct {
	models []schema.Model
	err    error
	calls  int
}

func (f *fakeScanner) Scan(ctx context.Context, src source.Source) (*scanner.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	status := scanner.StatusFound
	if len(f.models) == 0 {
		status = scanner.StatusNoSchemas
	}
	return &scanner.Result{Models: f.models, Status: status}, nil
}

func fixedClock() func() time.Time {
	// 23:30 in UTC-5 is already the next day in UTC.
	loc := time.FixedZone("EST", -5*3600)
	return func() time.Time { return time.Date(2026, 3, 1, 23, 30, 0, 0, loc) }
}

func oneModel() []schema.Model {
	return []schema.Model{{
		Name:     "User",
		FilePath: "models/user.js",
		Fields:   []schema.Field{{Name: "name", Type: schema.TypeString}},
	}}
}

func newTestService(t *testing.T, sc Scanner) (*Service, *storage.Store) {
	t.Helper()
	store := storage.NewTestStore(t, nil)
	return NewService(sc, store, WithClock(fixedClock())), store
}

func request(repo, plan string) Request {
	return Request{Repository: repo, User: "alice", Plan: plan, Source: memorySource{}}
}

func TestGenerate_InvalidRequest(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, &fakeScanner{})
	_, err := svc.Generate(context.Background(), Request{User: "alice", Source: memorySource{}})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = svc.Generate(context.Background(), Request{Repository: "acme/shop", User: "alice"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestGenerate_UnsupportedORM(t *testing.T) {
	t.Parallel()

	sc := &fakeScanner{models: oneModel()}
	svc, _ := newTestService(t, sc)

	req := request("acme/shop", "free")
	req.ORM = "prisma"
	out, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)

	assert.False(t, out.Supported)
	assert.Equal(t, `Diagram generation for "prisma" is coming soon.`, out.Message)
	assert.Equal(t, 0, sc.calls)

	assert.ErrorIs(t, CheckORM("Prisma"), ErrUnsupportedORM)
	assert.NoError(t, CheckORM(" Mongoose "))
	assert.NoError(t, CheckORM(""))
}

func TestGenerate_StoresAndCounts(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t, &fakeScanner{models: oneModel()})
	ctx := context.Background()

	out, err := svc.Generate(ctx, request("acme/shop", "pro"))
	require.NoError(t, err)

	assert.True(t, out.Supported)
	assert.Empty(t, out.Message)
	require.NotNil(t, out.Diagram)
	assert.Equal(t, "acme/shop", out.Diagram.Repository)
	assert.Equal(t, 1, out.Used)
	assert.Equal(t, 20, out.Limit)

	assert.Equal(t, "2026-03-02", svc.Today())
	used, err := store.Usage(ctx, "alice", "2026-03-02")
	require.NoError(t, err)
	assert.Equal(t, 1, used)

	again, err := svc.Generate(ctx, request("acme/shop", "pro"))
	require.NoError(t, err)
	assert.Equal(t, out.Diagram.ID, again.Diagram.ID)
	assert.Equal(t, 2, again.Used)
}

func TestGenerate_DailyLimit(t *testing.T) {
	t.Parallel()

	sc := &fakeScanner{models: oneModel()}
	svc, _ := newTestService(t, sc)
	ctx := context.Background()

	_, err := svc.Generate(ctx, request("acme/shop", "free"))
	require.NoError(t, err)

	_, err = svc.Generate(ctx, request("acme/shop", "free"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLimitReached)
	assert.True(t, IsLimitReached(err))

	var limitErr *LimitError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, LimitDiagrams, limitErr.Kind)
	assert.Equal(t, 1, limitErr.Limit)
	assert.Equal(t, 1, limitErr.Current)
	assert.Contains(t, limitErr.Error(), "free plan allows 1 diagram")

	assert.Equal(t, 1, sc.calls)
}

func TestGenerate_RepositoryLimit(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t, &fakeScanner{models: oneModel()})
	ctx := context.Background()

	// Existing diagram from an earlier day.
	_, err := store.UpsertDiagram(ctx, "acme/shop", "alice", oneModel())
	require.NoError(t, err)

	_, err = svc.Generate(ctx, request("acme/blog", "free"))
	var limitErr *LimitError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, LimitRepositories, limitErr.Kind)

	// Regenerating the existing repository is allowed.
	_, err = svc.Generate(ctx, request("acme/shop", "free"))
	assert.NoError(t, err)
}

func TestGenerate_Unlimited(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, &fakeScanner{models: oneModel()})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		out, err := svc.Generate(ctx, request("acme/shop", "business"))
		require.NoError(t, err)
		assert.Equal(t, -1, out.Limit)
	}
}

func TestGenerate_NoSchemas(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t, &fakeScanner{})
	ctx := context.Background()

	out, err := svc.Generate(ctx, request("acme/shop", "free"))
	require.NoError(t, err)
	assert.True(t, out.Supported)
	assert.Equal(t, NoSchemasMessage, out.Message)
	assert.Nil(t, out.Diagram)

	used, err := store.Usage(ctx, "alice", svc.Today())
	require.NoError(t, err)
	assert.Equal(t, 0, used)

	_, err = store.FindDiagram(ctx, "acme/shop", "alice")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGenerate_TreeUnavailable(t *testing.T) {
	t.Parallel()

	sc := &fakeScanner{err: errors.Join(scanner.ErrTreeUnavailable, errors.New("404"))}
	svc, _ := newTestService(t, sc)

	_, err := svc.Generate(context.Background(), request("acme/shop", "free"))
	require.Error(t, err)
	assert.ErrorIs(t, err, scanner.ErrTreeUnavailable)
	assert.False(t, IsLimitReached(err))
}

func TestGenerate_EndToEnd(t *testing.T) {
	t.Parallel()

	sel, err := selector.New(selector.DefaultOptions())
	require.NoError(t, err)
	svc, _ := newTestService(t, scanner.New(sel, scanner.Options{}))

	src := memorySource{
		"src/models/user.js": `const userSchema = new mongoose.Schema({
			email: { type: String, required: true },
			posts: [{ type: Schema.Types.ObjectId, ref: 'Post' }]
		});
		module.exports = mongoose.model('User', userSchema);`,
		"src/models/post.js": `const PostSchema = new Schema({ title: String, author: { type: Schema.Types.ObjectId, ref: 'User' } });`,
		"README.md":          "# shop",
	}

	out, err := svc.Generate(context.Background(), Request{Repository: "acme/shop", User: "alice", Source: src})
	require.NoError(t, err)
	require.NotNil(t, out.Diagram)
	assert.Len(t, out.Diagram.Models, 2)
	assert.Equal(t, scanner.StatusFound, out.Scan.Status)
}

package share

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohits-web03/sharegate/internal/models"
)

func TestGateCheckOrder(t *testing.T) {
	f := newFixture()
	past := f.now.Add(-time.Second)
	future := f.now.Add(time.Hour)

	locked := &models.ShareRecord{
		ShareID:       "locked",
		AccessCode:    "AB12",
		PasswordHash:  mustHash("hunter2"),
		ExpiresAt:     &future,
		MaxDownloads:  1,
		DownloadCount: 0,
	}

	tests := []struct {
		name   string
		mutate func(r *models.ShareRecord)
		req    AccessRequest
		reason DenyReason
	}{
		{
			name:   "expired beats wrong credentials",
			mutate: func(r *models.ShareRecord) { r.ExpiresAt = &past },
			req:    AccessRequest{Intent: IntentDownload, AccessCode: "nope", Password: "nope"},
			reason: DenyExpired,
		},
		{
			name: "expiry is inclusive",
			mutate: func(r *models.ShareRecord) { r.ExpiresAt = timePtr(f.now) },
			req:    AccessRequest{Intent: IntentView, AccessCode: "AB12"},
			reason: DenyExpired,
		},
		{
			name:   "limit beats missing code on download",
			mutate: func(r *models.ShareRecord) { r.DownloadCount = 1 },
			req:    AccessRequest{Intent: IntentDownload},
			reason: DenyDownloadLimitReached,
		},
		{
			name:   "view ignores exhausted limit",
			mutate: func(r *models.ShareRecord) { r.DownloadCount = 1 },
			req:    AccessRequest{Intent: IntentView, AccessCode: "ab12"},
			reason: "",
		},
		{
			name:   "code required",
			mutate: func(*models.ShareRecord) {},
			req:    AccessRequest{Intent: IntentView, AccessCode: "   "},
			reason: DenyAccessCodeRequired,
		},
		{
			name:   "code invalid before password",
			mutate: func(*models.ShareRecord) {},
			req:    AccessRequest{Intent: IntentDownload, AccessCode: "AB13"},
			reason: DenyAccessCodeInvalid,
		},
		{
			name:   "code is case-insensitive",
			mutate: func(*models.ShareRecord) {},
			req:    AccessRequest{Intent: IntentDownload, AccessCode: " ab12 ", Password: "hunter2"},
			reason: "",
		},
		{
			name:   "password required on download",
			mutate: func(*models.ShareRecord) {},
			req:    AccessRequest{Intent: IntentDownload, AccessCode: "AB12"},
			reason: DenyPasswordRequired,
		},
		{
			name:   "password invalid",
			mutate: func(*models.ShareRecord) {},
			req:    AccessRequest{Intent: IntentDownload, AccessCode: "AB12", Password: "Hunter2"},
			reason: DenyPasswordInvalid,
		},
		{
			name:   "view skips password",
			mutate: func(*models.ShareRecord) {},
			req:    AccessRequest{Intent: IntentView, AccessCode: "AB12"},
			reason: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := *locked
			tt.mutate(&rec)
			assert.Equal(t, tt.reason, f.gate.Check(&rec, tt.req, f.now))
		})
	}
}

func TestGateUnprotectedShareNeverAsksForCredentials(t *testing.T) {
	f := newFixture()
	rec := &models.ShareRecord{ShareID: "open"}
	for _, intent := range []Intent{IntentView, IntentDownload} {
		for _, creds := range []AccessRequest{{}, {AccessCode: "WHATEVER"}, {Password: "x"}} {
			creds.Intent = intent
			assert.Empty(t, f.gate.Check(rec, creds, f.now), "intent %s", intent)
		}
	}
}

func TestGateEvaluate(t *testing.T) {
	f := newFixture()
	f.store.put(&models.ShareRecord{ShareID: "abc", AccessCode: "AB12"})
	ctx := context.Background()

	d, err := f.gate.Evaluate(ctx, AccessRequest{ShareID: "missing"})
	require.NoError(t, err)
	assert.Equal(t, DenyNotFound, d.Reason)
	assert.Nil(t, d.Record)

	d, err = f.gate.Evaluate(ctx, AccessRequest{})
	require.NoError(t, err)
	assert.Equal(t, DenyNotFound, d.Reason)

	d, err = f.gate.Evaluate(ctx, AccessRequest{ShareID: "abc"})
	require.NoError(t, err)
	assert.Equal(t, DenyAccessCodeRequired, d.Reason)
	require.NotNil(t, d.Record)
	reason, ok := ReasonOf(d.Err())
	assert.True(t, ok)
	assert.Equal(t, DenyAccessCodeRequired, reason)

	d, err = f.gate.Evaluate(ctx, AccessRequest{ShareID: "abc", AccessCode: "ab12"})
	require.NoError(t, err)
	assert.True(t, d.Allowed())
	assert.NoError(t, d.Err())
}

func TestGateStoreOutageIsNotNotFound(t *testing.T) {
	f := newFixture()
	f.store.failAll = errBackend

	_, err := f.gate.Evaluate(context.Background(), AccessRequest{ShareID: "abc"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, errBackend)
	assert.NotErrorIs(t, err, ErrNotFound)
	_, denied := ReasonOf(err)
	assert.False(t, denied)
}

func TestScenarioAccessCodeAndSingleDownload(t *testing.T) {
	f := newFixture()
	f.store.put(&models.ShareRecord{
		ShareID:      "scenario-a",
		AccessCode:   "AB12",
		MaxDownloads: 1,
		Files:        []models.ShareFile{fileDesc("report.pdf")},
	})
	ctx := context.Background()

	links, err := f.service.Download(ctx, DownloadRequest{ShareID: "scenario-a", AccessCode: "AB12"})
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "report.pdf", links[0].Name)
	assert.Equal(t, 1, f.store.get("scenario-a").DownloadCount)

	_, err = f.service.Download(ctx, DownloadRequest{ShareID: "scenario-a", AccessCode: "AB12"})
	reason, ok := ReasonOf(err)
	require.True(t, ok)
	assert.Equal(t, DenyDownloadLimitReached, reason)
	assert.Equal(t, 1, f.store.get("scenario-a").DownloadCount)
}

func TestScenarioExpiredDeniesEverything(t *testing.T) {
	f := newFixture()
	f.store.put(&models.ShareRecord{
		ShareID:      "scenario-b",
		AccessCode:   "AB12",
		PasswordHash: mustHash("pw"),
		ExpiresAt:    timePtr(f.now.Add(-time.Second)),
		Files:        []models.ShareFile{fileDesc("a.txt")},
	})
	ctx := context.Background()

	_, err := f.service.View(ctx, "scenario-b", "AB12")
	reason, _ := ReasonOf(err)
	assert.Equal(t, DenyExpired, reason)

	_, err = f.service.Download(ctx, DownloadRequest{ShareID: "scenario-b", AccessCode: "AB12", Password: "pw"})
	reason, _ = ReasonOf(err)
	assert.Equal(t, DenyExpired, reason)

	rec := f.store.get("scenario-b")
	assert.Zero(t, rec.ViewCount)
	assert.Zero(t, rec.DownloadCount)
}

func TestScenarioWrongPasswordLeavesCountUnchanged(t *testing.T) {
	f := newFixture()
	f.store.put(&models.ShareRecord{
		ShareID:      "scenario-c",
		AccessCode:   "AB12",
		PasswordHash: mustHash("correct horse"),
		Files:        []models.ShareFile{fileDesc("a.txt")},
	})

	_, err := f.service.Download(context.Background(), DownloadRequest{ShareID: "scenario-c", AccessCode: "AB12", Password: "battery staple"})
	reason, ok := ReasonOf(err)
	require.True(t, ok)
	assert.Equal(t, DenyPasswordInvalid, reason)
	assert.Zero(t, f.store.get("scenario-c").DownloadCount)
	assert.Zero(t, f.storage.presigned)
}

func TestScenarioUnprotectedShare(t *testing.T) {
	f := newFixture()
	f.store.put(&models.ShareRecord{
		ShareID: "scenario-d",
		Files:   []models.ShareFile{fileDesc("a.txt"), fileDesc("b.txt")},
	})
	ctx := context.Background()

	rec, err := f.service.View(ctx, "scenario-d", "")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.ViewCount)

	links, err := f.service.Download(ctx, DownloadRequest{ShareID: "scenario-d"})
	require.NoError(t, err)
	assert.Len(t, links, 2)

	stored := f.store.get("scenario-d")
	assert.Equal(t, 1, stored.ViewCount)
	assert.Equal(t, 1, stored.DownloadCount)
}

func TestConcurrentDownloadsAllowExactlyLimit(t *testing.T) {
	for _, limit := range []int{1, 3, 7} {
		f := newFixture()
		f.store.put(&models.ShareRecord{
			ShareID:      "hot",
			MaxDownloads: limit,
			Files:        []models.ShareFile{fileDesc("a.txt")},
		})

		var allowed, limited atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 25; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := f.service.Download(context.Background(), DownloadRequest{ShareID: "hot"})
				if err == nil {
					allowed.Add(1)
					return
				}
				if reason, _ := ReasonOf(err); reason == DenyDownloadLimitReached {
					limited.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.EqualValues(t, limit, allowed.Load(), "limit %d", limit)
		assert.EqualValues(t, 25-limit, limited.Load(), "limit %d", limit)
		assert.Equal(t, limit, f.store.get("hot").DownloadCount)
	}
}

func TestViewsNeverCountAgainstLimit(t *testing.T) {
	f := newFixture()
	f.store.put(&models.ShareRecord{
		ShareID:      "viewed",
		MaxDownloads: 1,
		Files:        []models.ShareFile{fileDesc("a.txt")},
	})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := f.service.View(ctx, "viewed", "")
		require.NoError(t, err)
	}
	_, err := f.service.Download(ctx, DownloadRequest{ShareID: "viewed"})
	require.NoError(t, err)

	rec := f.store.get("viewed")
	assert.Equal(t, 5, rec.ViewCount)
	assert.Equal(t, 1, rec.DownloadCount)

	// an exhausted share can still be viewed
	_, err = f.service.View(ctx, "viewed", "")
	assert.NoError(t, err)
}

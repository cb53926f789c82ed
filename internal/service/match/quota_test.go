package match_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/roomate/internal/db"
	svcErr "github.com/oggyb/roomate/internal/errors"
	"github.com/oggyb/roomate/internal/service/match"
)

func TestSendMessage_Validation(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	id := env.matchUsers(t, "a", "b")

	cases := []struct {
		name    string
		sender  string
		content string
		kind    svcErr.Kind
	}{
		{"no caller", "", "hi", svcErr.KindUnauthorized},
		{"empty", "a", "", svcErr.KindInvalidRequest},
		{"whitespace only", "a", " \n\t ", svcErr.KindInvalidRequest},
		{"too long", "a", strings.Repeat("é", match.MaxContentLength+1), svcErr.KindInvalidRequest},
		{"not a participant", "c", "hi", svcErr.KindNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.svc.SendMessage(ctx, id, tc.sender, tc.content)
			assert.Equal(t, tc.kind, svcErr.KindOf(err))
		})
	}

	_, err := env.svc.SendMessage(ctx, "no-such-match", "a", "hi")
	assert.True(t, svcErr.Is(err, svcErr.KindNotFound))

	var n int64
	require.NoError(t, env.db.Model(&db.Message{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestSendMessage_TrimsAndCountsCharacters(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	id := env.matchUsers(t, "a", "b")

	msg, err := env.svc.SendMessage(ctx, id, "a", "  hello there \n")
	require.NoError(t, err)
	assert.Equal(t, "hello there", msg.Content)
	assert.Equal(t, "a", msg.SenderID)
	assert.Equal(t, id, msg.MatchID)
	assert.NotZero(t, msg.ID)

	msg, err = env.svc.SendMessage(ctx, id, "a", " k ")
	require.NoError(t, err)
	assert.Equal(t, "k", msg.Content)

	// the limit is in characters, not bytes
	long := strings.Repeat("é", match.MaxContentLength)
	msg, err = env.svc.SendMessage(ctx, id, "a", long)
	require.NoError(t, err)
	assert.Equal(t, long, msg.Content)
}

func TestSendMessage_QuotaPerParticipant(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	id := env.matchUsers(t, "a", "b")

	for i := 1; i <= match.MessageLimit; i++ {
		_, err := env.svc.SendMessage(ctx, id, "a", fmt.Sprintf("message %d", i))
		require.NoError(t, err, "message %d", i)
	}

	_, err := env.svc.SendMessage(ctx, id, "a", "one too many")
	assert.True(t, svcErr.Is(err, svcErr.KindQuotaExceeded))

	// the other participant has their own allowance
	_, err = env.svc.SendMessage(ctx, id, "b", "my turn")
	require.NoError(t, err)

	var fromA int64
	require.NoError(t, env.db.Model(&db.Message{}).
		Where("match_id = ? AND sender_id = ?", id, "a").Count(&fromA).Error)
	assert.Equal(t, int64(match.MessageLimit), fromA)
}

func TestSendMessage_ConcurrentAtLimitEdge(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	id := env.matchUsers(t, "a", "b")

	for i := 0; i < match.MessageLimit-1; i++ {
		_, err := env.svc.SendMessage(ctx, id, "a", "warmup")
		require.NoError(t, err)
	}

	const senders = 8
	var wg sync.WaitGroup
	errs := make([]error, senders)
	start := make(chan struct{})
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = env.svc.SendMessage(ctx, id, "a", fmt.Sprintf("race %d", i))
		}(i)
	}
	close(start)
	wg.Wait()

	ok, exceeded := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case svcErr.Is(err, svcErr.KindQuotaExceeded):
			exceeded++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, senders-1, exceeded)

	var count int64
	require.NoError(t, env.db.Model(&db.Message{}).
		Where("match_id = ? AND sender_id = ?", id, "a").Count(&count).Error)
	assert.Equal(t, int64(match.MessageLimit), count)
}

func TestListMessages(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	env.profile(t, "b", func(p *db.Profile) { p.Name = "Bea" })
	id := env.matchUsers(t, "a", "b")

	for _, m := range []struct{ from, text string }{
		{"a", "first"}, {"b", "second"}, {"a", "third"},
	} {
		_, err := env.svc.SendMessage(ctx, id, m.from, m.text)
		require.NoError(t, err)
	}

	conv, err := env.svc.ListMessages(ctx, id, "a")
	require.NoError(t, err)
	require.Len(t, conv.Messages, 3)
	assert.Equal(t, "first", conv.Messages[0].Content)
	assert.Equal(t, "third", conv.Messages[2].Content)
	assert.Equal(t, 2, conv.MyMessageCount)
	assert.Equal(t, id, conv.Match.ID)
	require.NotNil(t, conv.Profile)
	assert.Equal(t, "Bea", conv.Profile.Name)

	// b sees its own count and a has no profile
	conv, err = env.svc.ListMessages(ctx, id, "b")
	require.NoError(t, err)
	assert.Equal(t, 1, conv.MyMessageCount)
	assert.Nil(t, conv.Profile)

	_, err = env.svc.ListMessages(ctx, id, "c")
	assert.True(t, svcErr.Is(err, svcErr.KindNotFound))

	_, err = env.svc.ListMessages(ctx, id, "")
	assert.True(t, svcErr.Is(err, svcErr.KindUnauthorized))
}

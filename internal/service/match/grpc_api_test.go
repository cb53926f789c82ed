package match_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/oggyb/roomate/internal/auth"
	"github.com/oggyb/roomate/internal/config"
	"github.com/oggyb/roomate/internal/db"
	"github.com/oggyb/roomate/internal/logger"
	"github.com/oggyb/roomate/internal/server"
	"github.com/oggyb/roomate/internal/service/match"
)

const grpcSecret = "grpc-test-secret"

// setupGRPC serves the match service over an in-memory listener and
// returns a client connection to it.
func setupGRPC(t *testing.T, env *testEnv) *grpc.ClientConn {
	t.Helper()

	cfg := &config.Config{}
	cfg.Auth.JWTSecret = grpcSecret
	srv := server.NewGRPCServer(cfg, logger.Discard(), env.svc, match.NewRegistrar(env.svc))

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func asUser(t *testing.T, userID string) context.Context {
	t.Helper()
	token, err := auth.GenerateToken(userID, userID+"@uw.edu", grpcSecret, time.Hour)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)
}

func TestGRPC_MatchAndMessageFlow(t *testing.T) {
	env := setupService(t)
	client := match.NewClient(setupGRPC(t, env))

	env.profile(t, "b", func(p *db.Profile) { p.Name = "Bea" })

	res, err := client.RecordSwipe(asUser(t, "a"), &match.RecordSwipeRequest{SwipedID: "b", Action: db.ActionInterested})
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.False(t, res.Matched)

	res, err = client.RecordSwipe(asUser(t, "b"), &match.RecordSwipeRequest{SwipedID: "a", Action: db.ActionInterested})
	require.NoError(t, err)
	require.True(t, res.Matched)
	matchID := res.MatchID

	// the caller identity was mirrored locally
	var u db.User
	require.NoError(t, env.db.First(&u, "id = ?", "b").Error)
	assert.Equal(t, "b@uw.edu", u.Email)

	_, err = client.RecordSwipe(asUser(t, "b"), &match.RecordSwipeRequest{SwipedID: "a", Action: db.ActionPass})
	assert.Equal(t, codes.AlreadyExists, status.Code(err))

	for i := 0; i < match.MessageLimit; i++ {
		_, err := client.SendMessage(asUser(t, "a"), &match.SendMessageRequest{MatchID: matchID, Content: "hi"})
		require.NoError(t, err)
	}
	_, err = client.SendMessage(asUser(t, "a"), &match.SendMessageRequest{MatchID: matchID, Content: "hi"})
	assert.Equal(t, codes.ResourceExhausted, status.Code(err))

	_, err = client.SendMessage(asUser(t, "a"), &match.SendMessageRequest{MatchID: matchID, Content: "  "})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	conv, err := client.ListMessages(asUser(t, "a"), &match.ListMessagesRequest{MatchID: matchID})
	require.NoError(t, err)
	assert.Len(t, conv.Messages, match.MessageLimit)
	assert.Equal(t, match.MessageLimit, conv.MyMessageCount)
	require.NotNil(t, conv.Profile)
	assert.Equal(t, "Bea", conv.Profile.Name)

	matches, err := client.ListMatches(asUser(t, "a"), &match.ListMatchesRequest{})
	require.NoError(t, err)
	require.Len(t, matches.Matches, 1)
	assert.Equal(t, matchID, matches.Matches[0].ID)
	assert.Equal(t, match.MessageLimit, matches.Matches[0].MyMessageCount)

	_, err = client.Unmatch(asUser(t, "c"), &match.UnmatchRequest{MatchID: matchID})
	assert.Equal(t, codes.NotFound, status.Code(err))

	ack, err := client.Unmatch(asUser(t, "a"), &match.UnmatchRequest{MatchID: matchID})
	require.NoError(t, err)
	assert.True(t, ack.Success)
}

func TestGRPC_CandidatesAndUndo(t *testing.T) {
	env := setupService(t)
	client := match.NewClient(setupGRPC(t, env))

	env.profile(t, "x", func(p *db.Profile) { p.Location = "Ballard" })
	env.profile(t, "y", nil)

	page, err := client.ListCandidates(asUser(t, "me"), &match.ListCandidatesRequest{Location: "ballard", Limit: 5})
	require.NoError(t, err)
	require.Len(t, page.Profiles, 1)
	assert.Equal(t, "x", page.Profiles[0].UserID)
	assert.Equal(t, 5, page.Limit)

	_, err = client.RecordSwipe(asUser(t, "me"), &match.RecordSwipeRequest{SwipedID: "x", Action: db.ActionPass})
	require.NoError(t, err)

	page, err = client.ListCandidates(asUser(t, "me"), &match.ListCandidatesRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)

	_, err = client.UndoSwipe(asUser(t, "me"), &match.UndoSwipeRequest{SwipedID: "x"})
	require.NoError(t, err)

	page, err = client.ListCandidates(asUser(t, "me"), &match.ListCandidatesRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)

	_, err = client.ListCandidates(asUser(t, "me"), &match.ListCandidatesRequest{Gender: "robot"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGRPC_RequiresToken(t *testing.T) {
	env := setupService(t)
	conn := setupGRPC(t, env)
	client := match.NewClient(conn)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := client.ListMatches(ctx, &match.ListMatchesRequest{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	bad := metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer forged")
	_, err = client.ListMatches(bad, &match.ListMatchesRequest{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	// health stays public
	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

package utils

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cuemaster/config"
	"cuemaster/models"
	"cuemaster/services"
)

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = in
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.body = b
	return &s3.PutObjectOutput{}, nil
}

func TestArchiveUploadsSnapshotJSON(t *testing.T) {
	putter := &fakePutter{}
	a := NewR2Archiver(putter, "cue-archive", "leaderboard")

	snap := &services.Snapshot{
		ID:         "snap-1",
		CapturedAt: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		Entries: []models.LeaderboardEntry{
			{ID: "e1", SnapshotID: "snap-1", PlayerID: "p1", Name: "Ada", Rating: 1500, Rank: 1, Tier: 2},
		},
	}
	key, err := a.Archive(context.Background(), snap)
	require.NoError(t, err)

	assert.Equal(t, "leaderboard/2026/03/14/snap-1.json", key)
	assert.Equal(t, "cue-archive", aws.ToString(putter.input.Bucket))
	assert.Equal(t, key, aws.ToString(putter.input.Key))
	assert.Equal(t, "application/json", aws.ToString(putter.input.ContentType))

	var decoded services.Snapshot
	require.NoError(t, json.Unmarshal(putter.body, &decoded))
	assert.Equal(t, "snap-1", decoded.ID)
	require.Len(t, decoded.Entries, 1)
	assert.Equal(t, "Ada", decoded.Entries[0].Name)
}

func TestArchiveSurfacesUploadError(t *testing.T) {
	a := NewR2Archiver(&fakePutter{err: errors.New("denied")}, "b", "")
	_, err := a.Archive(context.Background(), &services.Snapshot{ID: "x"})
	assert.ErrorContains(t, err, "denied")
}

func TestNewR2Client(t *testing.T) {
	client, err := NewR2Client(context.Background(), config.R2Config{
		AccountID: "acct", AccessKeyID: "id", AccessKeySecret: "secret", Bucket: "b",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://acct.r2.cloudflarestorage.com", aws.ToString(client.Options().BaseEndpoint))
}

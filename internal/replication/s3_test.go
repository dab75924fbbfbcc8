package replication

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/helloiwashere/guestbook-backend/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockObjectPutter struct {
	mock.Mock
}

func (m *MockObjectPutter) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.PutObjectOutput)
	return out, args.Error(1)
}

func writeDataFiles(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "visitors.json"), []byte(`[{"name":"Ada"}]`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "feedback.json"), []byte(`[]`), 0o644))
	return dir
}

func TestS3Replicator_Replicate(t *testing.T) {
	dir := writeDataFiles(t)
	cfg := config.S3ReplicationConfig{Bucket: "backups", Prefix: "/guestbook/"}

	t.Run("uploads every path under the prefix", func(t *testing.T) {
		putter := new(MockObjectPutter)
		putter.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
			return *in.Bucket == "backups" && *in.Key == "guestbook/visitors.json"
		})).Return(&s3.PutObjectOutput{}, nil).Once()
		putter.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
			return *in.Key == "guestbook/feedback.json"
		})).Return(&s3.PutObjectOutput{}, nil).Once()

		r := NewS3Replicator(putter, dir, cfg)
		err := r.Replicate(context.Background(), Change{Message: "Add visitor entry", Paths: []string{"visitors.json", "feedback.json"}})
		require.NoError(t, err)
		putter.AssertExpectations(t)
	})

	t.Run("upload failure", func(t *testing.T) {
		putter := new(MockObjectPutter)
		putter.On("PutObject", mock.Anything, mock.Anything).Return(nil, errors.New("access denied")).Once()

		r := NewS3Replicator(putter, dir, cfg)
		err := r.Replicate(context.Background(), Change{Paths: []string{"visitors.json", "feedback.json"}})
		assert.Error(t, err)
		assert.Equal(t, StageUpload, StageOf(err))
		putter.AssertNumberOfCalls(t, "PutObject", 1)
	})

	t.Run("missing file", func(t *testing.T) {
		putter := new(MockObjectPutter)
		r := NewS3Replicator(putter, dir, cfg)
		err := r.Replicate(context.Background(), Change{Paths: []string{"missing.json"}})
		assert.Equal(t, StageUpload, StageOf(err))
		putter.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything)
	})

	t.Run("path traversal", func(t *testing.T) {
		putter := new(MockObjectPutter)
		r := NewS3Replicator(putter, dir, cfg)
		err := r.Replicate(context.Background(), Change{Paths: []string{"../etc/passwd"}})
		assert.Error(t, err)
		putter.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything)
	})
}

func TestS3Replicator_AgainstHTTPEndpoint(t *testing.T) {
	dir := writeDataFiles(t)

	var mu sync.Mutex
	uploads := map[string]string{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		uploads[r.URL.Path] = string(body)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := config.S3ReplicationConfig{
		Endpoint:        srv.URL,
		Region:          "auto",
		Bucket:          "backups",
		Prefix:          "guestbook",
		AccessKeyID:     "test",
		SecretAccessKey: "test",
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := NewS3Client(ctx, cfg)
	require.NoError(t, err)
	r := NewS3Replicator(client, dir, cfg)
	require.NoError(t, r.Replicate(ctx, Change{Message: "Add visitor entry", Paths: []string{"visitors.json"}}))

	mu.Lock()
	defer mu.Unlock()
	body, ok := uploads["/backups/guestbook/visitors.json"]
	require.True(t, ok, "expected a path-style upload, got %v", uploads)
	assert.True(t, strings.Contains(body, `"name":"Ada"`))
}

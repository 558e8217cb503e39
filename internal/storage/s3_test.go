package storage

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestS3Service(endpoint string) *S3Service {
	client := s3.New(s3.Options{
		Region: "us-east-1",
		Credentials: aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return aws.Credentials{AccessKeyID: "AKIDTEST", SecretAccessKey: "secret"}, nil
		}),
		BaseEndpoint:     aws.String(endpoint),
		UsePathStyle:     true,
		RetryMaxAttempts: 1,
	})
	return NewS3Service(client)
}

// fakeBucket serves ListObjectsV2 in pages of two keys and records DeleteObjects calls.
type fakeBucket struct {
	mu      sync.Mutex
	keys    []string
	prefix  string
	deleted []string
	puts    map[string]string
	types   map[string]string
}

func (b *fakeBucket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	query := r.URL.Query()
	switch {
	case r.Method == http.MethodGet && query.Get("list-type") == "2":
		b.prefix = query.Get("prefix")
		start := 0
		if token := query.Get("continuation-token"); token != "" {
			fmt.Sscanf(token, "page-%d", &start)
		}
		end := min(start+2, len(b.keys))

		var sb strings.Builder
		sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?><ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">`)
		for _, key := range b.keys[start:end] {
			fmt.Fprintf(&sb, "<Contents><Key>%s</Key></Contents>", key)
		}
		if end < len(b.keys) {
			fmt.Fprintf(&sb, "<IsTruncated>true</IsTruncated><NextContinuationToken>page-%d</NextContinuationToken>", end)
		} else {
			sb.WriteString("<IsTruncated>false</IsTruncated>")
		}
		sb.WriteString("</ListBucketResult>")
		w.Header().Set("Content-Type", "application/xml")
		io.WriteString(w, sb.String())

	case r.Method == http.MethodPost && query.Has("delete"):
		var req struct {
			Objects []struct {
				Key string `xml:"Key"`
			} `xml:"Object"`
		}
		if err := xml.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for _, obj := range req.Objects {
			b.deleted = append(b.deleted, obj.Key)
		}
		w.Header().Set("Content-Type", "application/xml")
		io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><DeleteResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/"></DeleteResult>`)

	case r.Method == http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		b.puts[r.URL.Path] = string(body)
		b.types[r.URL.Path] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)

	default:
		http.Error(w, "unexpected request "+r.Method+" "+r.URL.String(), http.StatusNotImplemented)
	}
}

func newFakeBucket(keys ...string) *fakeBucket {
	return &fakeBucket{keys: keys, puts: map[string]string{}, types: map[string]string{}}
}

func TestS3Service_GetObjectURL(t *testing.T) {
	svc := newTestS3Service("http://127.0.0.1:9000")

	url, err := svc.GetObjectURL(context.Background(), "attachments", "posts/1/a.txt", 15*time.Minute)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(url, "http://127.0.0.1:9000/attachments/posts/1/a.txt?"), url)
	assert.Contains(t, url, "X-Amz-Expires=900")
	assert.Contains(t, url, "X-Amz-Signature=")
	assert.Contains(t, url, "AKIDTEST")
}

func TestS3Service_DeletePrefixPages(t *testing.T) {
	bucket := newFakeBucket("posts/1/a", "posts/1/b", "posts/1/c")
	server := httptest.NewServer(bucket)
	defer server.Close()

	svc := newTestS3Service(server.URL)
	require.NoError(t, svc.DeletePrefix(context.Background(), "attachments", " posts/1/ "))

	bucket.mu.Lock()
	defer bucket.mu.Unlock()
	assert.Equal(t, "posts/1/", bucket.prefix)
	assert.Equal(t, []string{"posts/1/a", "posts/1/b", "posts/1/c"}, bucket.deleted)
}

func TestS3Service_Put(t *testing.T) {
	bucket := newFakeBucket()
	server := httptest.NewServer(bucket)
	defer server.Close()

	svc := newTestS3Service(server.URL)
	err := svc.Put(context.Background(), strings.NewReader("hello"), PutOptions{
		Bucket:      "attachments",
		Key:         "/posts/1/notes.txt",
		ContentType: "text/plain",
		Size:        5,
	})
	require.NoError(t, err)

	bucket.mu.Lock()
	defer bucket.mu.Unlock()
	require.Contains(t, bucket.puts, "/attachments/posts/1/notes.txt")
	assert.Contains(t, bucket.puts["/attachments/posts/1/notes.txt"], "hello")
	assert.Equal(t, "text/plain", bucket.types["/attachments/posts/1/notes.txt"])
}

func TestS3Service_RejectsMissingArguments(t *testing.T) {
	svc := newTestS3Service("http://127.0.0.1:9000")
	ctx := context.Background()

	assert.Error(t, svc.Put(ctx, strings.NewReader("x"), PutOptions{Key: "k"}))
	assert.Error(t, svc.Put(ctx, strings.NewReader("x"), PutOptions{Bucket: "b", Key: "/"}))
	assert.Error(t, svc.DeletePrefix(ctx, "", "posts/"))
	assert.Error(t, svc.DeletePrefix(ctx, "b", "  "))
	_, err := svc.GetObjectURL(ctx, "", "k", time.Minute)
	assert.Error(t, err)
}

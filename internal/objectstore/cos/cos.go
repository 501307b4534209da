// Package cos stores objects in a Tencent Cloud COS bucket.
package cos

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	cossdk "github.com/tencentyun/cos-go-sdk-v5"

	"github.com/vbonduro/islandlife/internal/domain"
	"github.com/vbonduro/islandlife/internal/objectstore"
)

const requestTimeout = 60 * time.Second

type COSObjectStore struct {
	client    *cossdk.Client
	bucketURL *url.URL
}

// NewCOSObjectStore builds a client for the bucket named in cfg. The bucket
// name carries the APPID suffix, e.g. "pets-1250000000".
func NewCOSObjectStore(cfg domain.RemoteConfig) (*COSObjectStore, error) {
	if !cfg.Complete() {
		return nil, fmt.Errorf("incomplete remote config")
	}
	u, err := cossdk.NewBucketURL(cfg.BucketName, cfg.Region, true)
	if err != nil {
		return nil, fmt.Errorf("invalid bucket address: %w", err)
	}
	return newWithBucketURL(u, cfg.AccessID, cfg.AccessSecret), nil
}

func newWithBucketURL(u *url.URL, secretID, secretKey string) *COSObjectStore {
	client := cossdk.NewClient(&cossdk.BaseURL{BucketURL: u}, &http.Client{
		Timeout: requestTimeout,
		Transport: &cossdk.AuthorizationTransport{
			SecretID:  secretID,
			SecretKey: secretKey,
		},
	})
	return &COSObjectStore{client: client, bucketURL: u}
}

func (s *COSObjectStore) Put(ctx context.Context, key, contentType string, r io.Reader) error {
	opt := &cossdk.ObjectPutOptions{
		ObjectPutHeaderOptions: &cossdk.ObjectPutHeaderOptions{ContentType: contentType},
	}
	if _, err := s.client.Object.Put(ctx, key, r, opt); err != nil {
		return fmt.Errorf("failed to put object %s: %w", key, err)
	}
	return nil
}

func (s *COSObjectStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	resp, err := s.client.Object.Get(ctx, key, nil)
	if err != nil {
		if cossdk.IsNotFoundError(err) {
			return nil, objectstore.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get object %s: %w", key, err)
	}
	return resp.Body, nil
}

// URL returns https://{bucket}.cos.{region}.myqcloud.com/{key}.
func (s *COSObjectStore) URL(key string) string {
	return strings.TrimSuffix(s.bucketURL.String(), "/") + "/" + key
}

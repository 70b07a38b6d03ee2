package stores

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"Omnipresence/pkg/errors"
)

// MinioStore keeps JSON documents in an object bucket keyed by the SHA-256 of
// their payload, preserving the content-addressed contract.
type MinioStore struct {
	cfg MinioConfig
}

func NewMinioStore(cfg MinioConfig) *MinioStore {
	return &MinioStore{cfg: cfg}
}

func (m *MinioStore) client() (*minio.Client, error) {
	return minio.New(m.cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(m.cfg.AccessKey, m.cfg.SecretKey, ""),
		Secure: m.cfg.UseSSL,
	})
}

func (m *MinioStore) ensureBucket(ctx context.Context, cli *minio.Client) error {
	exists, err := cli.BucketExists(ctx, m.cfg.Bucket)
	if err != nil {
		return err
	}
	if !exists {
		return cli.MakeBucket(ctx, m.cfg.Bucket, minio.MakeBucketOptions{})
	}
	return nil
}

func (m *MinioStore) PutJSON(ctx context.Context, v interface{}) (string, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return "", errors.Wrap(err, "marshal document")
	}
	sum := sha256.Sum256(payload)
	key := hex.EncodeToString(sum[:])

	cli, err := m.client()
	if err != nil {
		return "", errors.WrapCode(err, errors.CodeStoreUnavailable, "content store unreachable")
	}
	if err := m.ensureBucket(ctx, cli); err != nil {
		return "", errors.WrapCode(err, errors.CodeStoreUnavailable, "ensure bucket")
	}

	_, err = cli.PutObject(ctx, m.cfg.Bucket, key, bytes.NewReader(payload), int64(len(payload)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return "", errors.WrapCode(err, errors.CodeStoreUnavailable, "put document")
	}
	return key, nil
}

func (m *MinioStore) GetJSON(ctx context.Context, hash string, out interface{}) error {
	cli, err := m.client()
	if err != nil {
		return errors.WrapCode(err, errors.CodeStoreUnavailable, "content store unreachable")
	}
	obj, err := cli.GetObject(ctx, m.cfg.Bucket, hash, minio.GetObjectOptions{})
	if err != nil {
		return errors.WrapCode(err, errors.CodeStoreUnavailable, "get document")
	}
	defer obj.Close()

	payload, err := io.ReadAll(obj)
	if err != nil {
		return errors.WrapCode(err, errors.CodeStoreUnavailable, "read document")
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return errors.WrapCode(err, errors.CodeStoreUnavailable, "decode document")
	}
	return nil
}

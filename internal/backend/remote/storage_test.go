package remote

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dmitrijs2005/poreview/internal/common"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	objects map[string][]byte
	putErr  error
	lastPut *s3.PutObjectInput
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}}
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.lastPut = in
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("The specified key does not exist.")}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func TestObjectStore_PutGet(t *testing.T) {
	api := newFakeS3()
	s := NewObjectStore(api, "po-files")
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "rec-1", "PO-1-100.docx", []byte("doc")))
	require.Equal(t, "records/rec-1/PO-1-100.docx", aws.ToString(api.lastPut.Key))
	require.Equal(t, int64(3), aws.ToInt64(api.lastPut.ContentLength))

	data, err := s.Get(ctx, "rec-1", "PO-1-100.docx")
	require.NoError(t, err)
	require.Equal(t, []byte("doc"), data)
}

func TestObjectStore_Get_NoSuchKey(t *testing.T) {
	s := NewObjectStore(newFakeS3(), "po-files")

	_, err := s.Get(context.Background(), "rec-1", "missing.docx")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestObjectStore_Put_Error(t *testing.T) {
	api := newFakeS3()
	api.putErr = errors.New("bucket down")
	s := NewObjectStore(api, "po-files")

	err := s.Put(context.Background(), "rec-1", "a.docx", nil)
	require.ErrorContains(t, err, "put object: bucket down")
}

func TestNewS3ObjectStore_AppliesConfig(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	origNew := newS3ClientFromConfig
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		require.Equal(t, "eu-west-1", lo.Region)
		require.NotNil(t, lo.Credentials)
		return aws.Config{}, nil
	}

	var opts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&opts)
		}
		return &s3.Client{}
	}

	s, err := NewS3ObjectStore(context.Background(), Config{
		S3Bucket:       "po-files",
		S3Region:       "eu-west-1",
		S3BaseEndpoint: "http://127.0.0.1:9000",
		S3AccessKey:    "minio",
		S3SecretKey:    "minio123",
	})
	require.NoError(t, err)
	require.Equal(t, "po-files", s.bucket)
	require.Equal(t, "http://127.0.0.1:9000", aws.ToString(opts.BaseEndpoint))
	require.True(t, opts.UsePathStyle)
}

func TestNewS3ObjectStore_LoadError(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = origLoad })

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no region")
	}

	_, err := NewS3ObjectStore(context.Background(), Config{})
	require.ErrorContains(t, err, "load s3 config: no region")
}

package storage

import (
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectURL(t *testing.T) {
	cli, err := minio.New("minio.local:9000", &minio.Options{
		Creds:  credentials.NewStaticV4("key", "secret", ""),
		Secure: true,
	})
	require.NoError(t, err)

	s := &Store{client: cli, bucketName: "surveys"}
	assert.Equal(t, "https://minio.local:9000/surveys/uploads/1/a.csv", s.objectURL("uploads/1/a.csv"))
}

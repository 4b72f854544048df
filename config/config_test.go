package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SERVICE_MAX_UPLOAD_BYTES", "")
	t.Setenv("S3_ENDPOINT", "http://minio:9000")

	cfg := Load()
	assert.Equal(t, defaultMaxUploadBytes, cfg.App.MaxUploadBytes)
	assert.Equal(t, "http://minio:9000", cfg.S3.Endpoint)
}

func TestLoad_MaxUploadBytes(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want int64
	}{
		{"explicit", "2048", 2048},
		{"garbage falls back", "ten", defaultMaxUploadBytes},
		{"negative falls back", "-1", defaultMaxUploadBytes},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SERVICE_MAX_UPLOAD_BYTES", tt.env)
			assert.Equal(t, tt.want, Load().App.MaxUploadBytes)
		})
	}
}

func TestConfig_DBDSN(t *testing.T) {
	c := Config{DB: DB{User: "u", Password: "p", Name: "study", Host: "db", Port: "5432"}}
	dsn, err := c.DBDSN()
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@db:5432/study", dsn)

	_, err = Config{}.DBDSN()
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	assert.Error(t, Config{}.Validate())
	assert.Error(t, Config{App: APP{JWTSecret: "s"}}.Validate())
	assert.NoError(t, Config{
		App: APP{JWTSecret: "s"},
		S3:  S3{Region: "eu-west-1", BucketUploads: "resources"},
	}.Validate())
}
